package utils

import (
	"math"
	"net/http"
	"strconv"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	MaxPageNumber   = 100000
)

type Page struct {
	Size   int
	Number int
}

// Skip is the number of documents before the page. It never goes negative
// and saturates instead of overflowing.
func (p Page) Skip() int64 {
	if p.Size <= 0 || p.Number <= 1 {
		return 0
	}
	size, before := int64(p.Size), int64(p.Number-1)
	if before > math.MaxInt64/size {
		return math.MaxInt64
	}
	return size * before
}

// Pages is ceil(count / size).
func (p Page) Pages(count int64) int {
	if p.Size <= 0 {
		return 0
	}
	return int(math.Ceil(float64(count) / float64(p.Size)))
}

// ParsePage reads pageSize and pageNumber, falling back to 10 and 1. The
// size is capped at MaxPageSize and the number at MaxPageNumber.
func ParsePage(r *http.Request) Page {
	q := r.URL.Query()

	size, _ := strconv.Atoi(q.Get("pageSize"))
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	number, _ := strconv.Atoi(q.Get("pageNumber"))
	if number < 1 {
		number = 1
	}
	if number > MaxPageNumber {
		number = MaxPageNumber
	}

	return Page{Size: size, Number: number}
}

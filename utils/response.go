package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
)

// ShowStack controls whether error responses include the error chain.
// main turns it off in production.
var ShowStack = true

type ErrorResponse struct {
	Data    any    `json:"data"`
	Success bool   `json:"success"`
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Stack   string `json:"stack,omitempty"`
}

// RespondWithError writes err as an ErrorResponse. Errors that are not
// ApiErrors are reported as 500 and logged.
func RespondWithError(w http.ResponseWriter, err error) {
	var apiErr *ApiError
	if !errors.As(err, &apiErr) {
		apiErr = Internal(err, "Internal Server Error")
	}
	if apiErr.Status >= http.StatusInternalServerError {
		log.Printf("request failed: %v", err)
	}

	resp := ErrorResponse{
		Success: false,
		Error:   true,
		Message: apiErr.Message,
		Status:  apiErr.Status,
	}
	if ShowStack {
		resp.Stack = fmt.Sprintf("%+v", err)
	}
	RespondWithJSON(w, apiErr.Status, resp)
}

// Sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("encode response: %v", err)
	}
}

// DecodeJSON decodes the request body into dst, rejecting malformed payloads.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return BadRequest("Request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &ApiError{Status: http.StatusBadRequest, Message: "Invalid JSON payload", Err: err}
	}
	return nil
}

type M map[string]interface{}

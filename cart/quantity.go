package cart

// QuantityState classifies a requested quantity against available stock.
type QuantityState int

const (
	QuantityInvalid QuantityState = iota + 1
	QuantityExceeds
	QuantityAvailable
)

func CheckQuantity(requested, available int) QuantityState {
	if requested <= 0 {
		return QuantityInvalid
	}
	if requested > available {
		return QuantityExceeds
	}
	return QuantityAvailable
}

// admit returns the quantity to store for a request, clamped to stock.
// ok is false when nothing can be added.
func admit(requested, available int) (qty int, ok bool) {
	switch CheckQuantity(requested, available) {
	case QuantityInvalid:
		return 0, false
	case QuantityExceeds:
		return available, available > 0
	default:
		return requested, true
	}
}

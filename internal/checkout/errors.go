package checkout

import "errors"

var (
	ErrEmptyCart           = errors.New("cart is empty, nothing to checkout")
	ErrSessionNotFound     = errors.New("checkout session not found")
	ErrPaymentDeclined     = errors.New("payment was declined by the gateway")
	IllegalTransitionError = errors.New("illegal transition of checkout status")
)

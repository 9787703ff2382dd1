package finance

import "errors"

var (
	ErrInvalidArea         = errors.New("area in square feet must be greater than zero")
	ErrNonFiniteInput      = errors.New("numeric input is not a finite number")
	ErrInstallmentNotFound = errors.New("installment not found")
	ErrDownPaymentPosition = errors.New("only the first installment can be the down payment")
	ErrInvalidStage        = errors.New("invalid installment stage")
	ErrDownPaymentPinned   = errors.New("the first installment's percent is the down payment and cannot be edited")
)

package domain

import "errors"

// RuleError is a business-rule violation. Rule errors are caused by the
// caller's input and are never retried; infrastructure errors are plain
// errors returned by collaborators.
type RuleError struct {
	reason string
}

func (e *RuleError) Error() string {
	return e.reason
}

var (
	ErrInvalidQuantity       = &RuleError{"quantity must be positive"}
	ErrQuantityLimitExceeded = &RuleError{"quantity limit exceeded"}
	ErrInvalidUnitPrice      = &RuleError{"unit price out of range"}
	ErrOrderCancelled        = &RuleError{"cannot modify a cancelled order"}
	ErrAlreadyCancelled      = &RuleError{"order already cancelled"}
	ErrProductNotInOrder     = &RuleError{"product not found in order"}
	ErrRemoveExceedsQuantity = &RuleError{"cannot remove more than the line quantity"}
	ErrInvalidOrderNumber    = &RuleError{"order number must be positive"}
	ErrNumberAlreadyAssigned = &RuleError{"order number already assigned"}
	ErrNumberNotAssigned     = &RuleError{"order number not assigned"}
)

// IsRuleViolation reports whether err is a business-rule failure as opposed
// to an infrastructure error.
func IsRuleViolation(err error) bool {
	var r *RuleError
	return errors.As(err, &r)
}

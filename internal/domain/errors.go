package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindConflict   ErrorKind = "conflict"
	KindExternal   ErrorKind = "external"
	KindState      ErrorKind = "state"
	KindNotFound   ErrorKind = "not_found"
	KindForbidden  ErrorKind = "forbidden"
)

const (
	CodeMissingField         = "MISSING_FIELD"
	CodeInvalidRange         = "INVALID_RANGE"
	CodePricingMismatch      = "PRICING_MISMATCH"
	CodeDatesUnavailable     = "DATES_UNAVAILABLE"
	CodeResourceNotFound     = "RESOURCE_NOT_FOUND"
	CodeRentalNotFound       = "RENTAL_NOT_FOUND"
	CodePaymentNotFound      = "PAYMENT_NOT_FOUND"
	CodeDamageNotFound       = "DAMAGE_REPORT_NOT_FOUND"
	CodeBlockNotFound        = "BLOCK_NOT_FOUND"
	CodeNotificationNotFound = "NOTIFICATION_NOT_FOUND"
	CodeInvalidTransition    = "INVALID_TRANSITION"
	CodeForbidden            = "FORBIDDEN"
	CodeGatewayUnavailable   = "GATEWAY_UNAVAILABLE"
	CodePaymentState         = "PAYMENT_STATE"
	CodeInvalidField         = "INVALID_FIELD"
	CodeInvalidState         = "INVALID_STATE"
)

// Error is the typed error returned by the reservation core. Two errors are
// equal under errors.Is when their codes match, so the package-level values
// below work as sentinels for the detailed constructors.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string

	Field      string
	ResourceID string
	Range      *DateRange
	From       RentalStatus
	To         RentalStatus

	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrMissingField       = &Error{Kind: KindValidation, Code: CodeMissingField, Message: "required field is missing"}
	ErrInvalidRange       = &Error{Kind: KindValidation, Code: CodeInvalidRange, Message: "end date must be after start date"}
	ErrPricingMismatch    = &Error{Kind: KindConflict, Code: CodePricingMismatch, Message: "submitted price does not match the server quote"}
	ErrDatesUnavailable   = &Error{Kind: KindConflict, Code: CodeDatesUnavailable, Message: "dates are no longer available"}
	ErrResourceNotFound   = &Error{Kind: KindNotFound, Code: CodeResourceNotFound, Message: "resource not found"}
	ErrRentalNotFound     = &Error{Kind: KindNotFound, Code: CodeRentalNotFound, Message: "rental not found"}
	ErrPaymentNotFound    = &Error{Kind: KindNotFound, Code: CodePaymentNotFound, Message: "payment record not found"}
	ErrDamageNotFound     = &Error{Kind: KindNotFound, Code: CodeDamageNotFound, Message: "damage report not found"}
	ErrInvalidTransition  = &Error{Kind: KindState, Code: CodeInvalidTransition, Message: "status transition is not allowed"}
	ErrForbidden          = &Error{Kind: KindForbidden, Code: CodeForbidden, Message: "actor is not allowed to perform this operation"}
	ErrGatewayUnavailable = &Error{Kind: KindExternal, Code: CodeGatewayUnavailable, Message: "payment gateway unavailable"}
	ErrPaymentState       = &Error{Kind: KindState, Code: CodePaymentState, Message: "payment is not in a state that allows this operation"}
)

func NewMissingField(field string) error {
	return &Error{Kind: KindValidation, Code: CodeMissingField, Field: field, Message: fmt.Sprintf("%s is required", field)}
}

func NewInvalidRange(r DateRange) error {
	return &Error{Kind: KindValidation, Code: CodeInvalidRange, Range: &r, Message: fmt.Sprintf("invalid date range %s: end date must be after start date", r)}
}

func NewPricingMismatch(field string, expected, submitted int64) error {
	return &Error{
		Kind:    KindConflict,
		Code:    CodePricingMismatch,
		Field:   field,
		Message: fmt.Sprintf("%s mismatch: expected %d cents, got %d cents", field, expected, submitted),
	}
}

func NewDatesUnavailable(resourceID string, r DateRange) error {
	return &Error{
		Kind:       KindConflict,
		Code:       CodeDatesUnavailable,
		ResourceID: resourceID,
		Range:      &r,
		Message:    fmt.Sprintf("resource %s is not available for %s", resourceID, r),
	}
}

func NewResourceNotFound(id string) error {
	return &Error{Kind: KindNotFound, Code: CodeResourceNotFound, ResourceID: id, Message: fmt.Sprintf("resource %s not found", id)}
}

func NewRentalNotFound(id string) error {
	return &Error{Kind: KindNotFound, Code: CodeRentalNotFound, Message: fmt.Sprintf("rental %s not found", id)}
}

func NewInvalidTransition(from, to RentalStatus) error {
	return &Error{
		Kind:    KindState,
		Code:    CodeInvalidTransition,
		From:    from,
		To:      to,
		Message: fmt.Sprintf("cannot move rental from %s to %s", from, to),
	}
}

func NewForbidden(msg string) error {
	return &Error{Kind: KindForbidden, Code: CodeForbidden, Message: msg}
}

func NewGatewayUnavailable(op string, err error) error {
	return &Error{Kind: KindExternal, Code: CodeGatewayUnavailable, Message: op + " failed", Err: err}
}

func NewPaymentState(msg string) error {
	return &Error{Kind: KindState, Code: CodePaymentState, Message: msg}
}

func NewInvalidField(field, msg string) error {
	return &Error{Kind: KindValidation, Code: CodeInvalidField, Field: field, Message: fmt.Sprintf("%s: %s", field, msg)}
}

func NewInvalidState(msg string) error {
	return &Error{Kind: KindState, Code: CodeInvalidState, Message: msg}
}

// KindOf returns the kind of the first domain error in err's chain, or an
// empty kind for foreign errors.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

package pricing

import (
	"errors"
	"strings"
)

// Kind identifies which validation rule an input broke.
type Kind string

const (
	InvalidProduct    Kind = "InvalidProduct"
	InvalidCost       Kind = "InvalidCost"
	InvalidAdjustment Kind = "InvalidAdjustment"
	InvalidMargin     Kind = "InvalidMargin"
)

var (
	ErrInvalidProduct    = errors.New("invalid product")
	ErrInvalidCost       = errors.New("invalid cost")
	ErrInvalidAdjustment = errors.New("invalid adjustment")
	ErrInvalidMargin     = errors.New("invalid margin")
)

var sentinels = map[Kind]error{
	InvalidProduct:    ErrInvalidProduct,
	InvalidCost:       ErrInvalidCost,
	InvalidAdjustment: ErrInvalidAdjustment,
	InvalidMargin:     ErrInvalidMargin,
}

// FieldError reports one rejected field.
type FieldError struct {
	Kind    Kind
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *FieldError) Unwrap() error {
	return sentinels[e.Kind]
}

// ValidationErrors collects every rejected field of one input.
type ValidationErrors []*FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, fe := range v {
		msgs = append(msgs, fe.Error())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, 0, len(v))
	for _, fe := range v {
		errs = append(errs, fe)
	}
	return errs
}

func (v ValidationErrors) orNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

func (v *ValidationErrors) add(kind Kind, field, message string) {
	*v = append(*v, &FieldError{Kind: kind, Field: field, Message: message})
}

// Fields returns the field errors carried by err, if err is a validation failure.
func Fields(err error) (ValidationErrors, bool) {
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return verrs, true
	}
	return nil, false
}

package validation

import (
	"errors"
	"fmt"
	"strings"
)

// Code tags a field-level validation failure.
type Code string

const (
	CodeNameRequired   Code = "name_required"
	CodeNameTooShort   Code = "name_too_short"
	CodeNameTooLong    Code = "name_too_long"
	CodeStockRequired  Code = "stock_required"
	CodeStockInvalid   Code = "stock_invalid"
	CodePriceRequired  Code = "price_required"
	CodePriceInvalid   Code = "price_invalid"
	CodeInvalidOrder   Code = "invalid_order"
	CodeParentRequired Code = "parent_required"
	CodeParentNotFound Code = "parent_not_found"
	CodeSKUDuplicate   Code = "sku_duplicate"
)

// Field names used for UI binding.
const (
	FieldName          = "name"
	FieldDisplayOrder  = "displayOrder"
	FieldStockQuantity = "stockQuantity"
	FieldPrice         = "price"
	FieldPriceOverride = "priceOverride"
	FieldParent        = "parentCategoryId"
	FieldProduct       = "productId"
	FieldSKU           = "sku"
	FieldIsFeatured    = "isFeatured"
)

// ErrInvalid is matched by every validation failure via errors.Is.
var ErrInvalid = errors.New("validation: invalid input")

// FieldError is one tagged failure bound to the offending field.
type FieldError struct {
	Code  Code
	Field string
}

// Error implements the error interface.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Code)
}

// Is reports ErrInvalid matches.
func (e FieldError) Is(target error) bool {
	return target == ErrInvalid
}

// Errors collects every field failure found in one input.
type Errors []FieldError

// Error implements the error interface.
func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Error())
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Is reports ErrInvalid matches.
func (e Errors) Is(target error) bool {
	return target == ErrInvalid
}

// Fields maps field name to code for the first failure recorded on each field.
func (e Errors) Fields() map[string]Code {
	out := make(map[string]Code, len(e))
	for _, fe := range e {
		if _, ok := out[fe.Field]; !ok {
			out[fe.Field] = fe.Code
		}
	}
	return out
}

// HasCode reports whether err carries a validation failure with the given code.
func HasCode(err error, code Code) bool {
	var list Errors
	if errors.As(err, &list) {
		for _, fe := range list {
			if fe.Code == code {
				return true
			}
		}
		return false
	}
	var single FieldError
	if errors.As(err, &single) {
		return single.Code == code
	}
	return false
}

type collector struct {
	errs Errors
}

func (c *collector) add(field string, code Code) {
	c.errs = append(c.errs, FieldError{Code: code, Field: field})
}

func (c *collector) err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return c.errs
}

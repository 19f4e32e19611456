package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Amount limits. Oversized amounts are rejected from their exponent and
// coefficient length before any arithmetic could expand them.
const (
	maxAmountScale = 4
	// maxAmountIntDigits is the number of integer digits of maxAmount.
	maxAmountIntDigits = 13
	// minAmountExponent bounds trailing fractional zeros, e.g. 1.000...0.
	minAmountExponent = -32
)

var maxAmount = decimal.New(1, 12)

// fieldErrors maps a request field to the sentinel reported when it is invalid.
var fieldErrors = map[string]error{
	"ride_id":    ErrInvalidRideID,
	"amount":     ErrInvalidPaymentAmount,
	"payment_id": ErrInvalidPaymentID,
}

// newValidator returns a validator that reports JSON field names and compares
// decimals by sign, so `gt=0` on a decimal.Decimal means strictly positive.
func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.Sign()
		}
		return nil
	}, decimal.Decimal{})

	v.RegisterStructValidation(authorizeAmountBounds, AuthorizeRequest{})

	return v
}

// authorizeAmountBounds rejects positive amounts above maxAmount or with more
// than maxAmountScale decimal places. Non-positive amounts are left to `gt`.
func authorizeAmountBounds(sl validator.StructLevel) {
	req, ok := sl.Current().Interface().(AuthorizeRequest)
	if !ok || req.Amount.Sign() <= 0 {
		return
	}

	d := req.Amount
	exp := d.Exponent()

	if exp < minAmountExponent {
		sl.ReportError(exp, "amount", "Amount", "amount_scale", fmt.Sprint(maxAmountScale))
		return
	}
	if int64(d.NumDigits())+int64(exp) > maxAmountIntDigits || d.GreaterThan(maxAmount) {
		sl.ReportError(exp, "amount", "Amount", "amount_max", maxAmount.String())
		return
	}
	if !d.Equal(d.Truncate(maxAmountScale)) {
		sl.ReportError(exp, "amount", "Amount", "amount_scale", fmt.Sprint(maxAmountScale))
	}
}

// validateRequest runs a single validation pass over req.
func validateRequest(v *validator.Validate, req any) error {
	err := v.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	vErr := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		field := fe.Field()
		vErr.Fields[field] = fieldMessage(field, fe)
		if vErr.Err == nil {
			vErr.Err = fieldErrors[field]
		}
	}

	return vErr
}

func fieldMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "amount_max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "amount_scale":
		return fmt.Sprintf("%s must have at most %s decimal places", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

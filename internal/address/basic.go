package address

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// BasicValidator performs structural validation only. It checks field
// presence and shape, not deliverability.
type BasicValidator struct {
	validate *validator.Validate
}

var _ Validator = (*BasicValidator)(nil)

// NewBasicValidator creates a new structural address validator.
func NewBasicValidator() *BasicValidator {
	return &BasicValidator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Validate checks field constraints and returns a normalized copy with
// trimmed whitespace and an uppercase country code.
func (v *BasicValidator) Validate(ctx context.Context, addr Address) (*ValidationResult, error) {
	normalized := normalize(addr)

	err := v.validate.StructCtx(ctx, normalized)
	if err == nil {
		return &ValidationResult{IsValid: true, NormalizedAddress: &normalized}, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}

	result := &ValidationResult{NormalizedAddress: &normalized}
	for _, fe := range verrs {
		result.Errors = append(result.Errors, ValidationError{
			Field:   fe.Field(),
			Message: messageFor(fe),
		})
	}
	return result, nil
}

func normalize(addr Address) Address {
	addr.FullName = strings.TrimSpace(addr.FullName)
	addr.Company = strings.TrimSpace(addr.Company)
	addr.AddressLine1 = strings.TrimSpace(addr.AddressLine1)
	addr.AddressLine2 = strings.TrimSpace(addr.AddressLine2)
	addr.City = strings.TrimSpace(addr.City)
	addr.State = strings.TrimSpace(addr.State)
	addr.PostalCode = strings.TrimSpace(addr.PostalCode)
	addr.Country = strings.ToUpper(strings.TrimSpace(addr.Country))
	addr.Phone = strings.TrimSpace(addr.Phone)
	return addr
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "is too long"
	case "iso3166_1_alpha2":
		return "must be a two-letter country code"
	case "e164":
		return "must be an international phone number"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}

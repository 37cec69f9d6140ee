package address

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAddress() Address {
	return Address{
		Type:         "shipping",
		FullName:     "Jamie Doe",
		AddressLine1: "123 Main St",
		City:         "Spokane",
		State:        "WA",
		PostalCode:   "99201",
		Country:      "us",
	}
}

func TestBasicValidatorAccepts(t *testing.T) {
	v := NewBasicValidator()

	result, err := v.Validate(context.Background(), validAddress())
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	require.NotNil(t, result.NormalizedAddress)
	assert.Equal(t, "US", result.NormalizedAddress.Country)
}

func TestBasicValidatorRejects(t *testing.T) {
	v := NewBasicValidator()

	addr := validAddress()
	addr.FullName = ""
	addr.Country = "USA"

	result, err := v.Validate(context.Background(), addr)
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 2)

	fields := []string{result.Errors[0].Field, result.Errors[1].Field}
	assert.Contains(t, fields, "FullName")
	assert.Contains(t, fields, "Country")
}

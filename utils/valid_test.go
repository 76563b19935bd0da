package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeEmail(t *testing.T) {
	email, err := SanitizeEmail("  Retailer@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "retailer@example.com", email)

	_, err = SanitizeEmail("not-an-email")
	assert.Error(t, err)
}

func TestSanitizePhone(t *testing.T) {
	phone, err := SanitizePhone("+1 (555) 123-4567")
	require.NoError(t, err)
	assert.Equal(t, "+15551234567", phone)

	// Optional field, empty passes through
	phone, err = SanitizePhone("")
	require.NoError(t, err)
	assert.Empty(t, phone)

	_, err = SanitizePhone("123")
	assert.Error(t, err)
}

func TestIsValidSimNumber(t *testing.T) {
	assert.True(t, IsValidSimNumber("89014103211118510720"))
	assert.False(t, IsValidSimNumber("12345"))
	assert.False(t, IsValidSimNumber("8901410321111851072X"))
}

func TestGenerateReceiptNumber(t *testing.T) {
	first := GenerateReceiptNumber()
	second := GenerateReceiptNumber()
	assert.Regexp(t, `^NXV-\d{8}-[0-9A-F]{8}$`, first)
	assert.NotEqual(t, first, second)
}

func TestGenerateRechargePIN(t *testing.T) {
	pin, err := GenerateRechargePIN(12)
	require.NoError(t, err)
	assert.Len(t, pin, 12)
	for _, r := range pin {
		assert.True(t, r >= '0' && r <= '9')
	}
}

package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	require.NoError(t, Initialize())

	assert.Equal(t, "Not enough stock", T("en", KeyCartInsufficientStock))
	assert.Equal(t, "Cart item was not found", T("en", KeyCartItemNotFound))
	assert.Equal(t, "Invalid request", T("en", KeyValidationInvalid, "request"))

	// Unknown languages fall back to English, unknown keys to themselves.
	assert.Equal(t, "Cart is empty", T("fr", KeyCartEmpty))
	assert.Equal(t, "no.such.key", T("en", "no.such.key"))
	assert.Contains(t, GetSupportedLanguages(), "en")
}

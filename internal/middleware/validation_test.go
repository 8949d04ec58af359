package middleware

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestValidateUtterance(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateUtterance("How do I treat a burn?"))
	assert.Error(t, ValidateUtterance(""))
	assert.Error(t, ValidateUtterance(strings.Repeat("x", 100001)))
	assert.Error(t, ValidateUtterance(string([]byte{0xff, 0xfe})))
}

func TestValidateConversationID(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateConversationID(uuid.NewString()))
	assert.Error(t, ValidateConversationID("not-a-uuid"))
	assert.Error(t, ValidateConversationID(""))
}

func TestValidateTenantID(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateTenantID("tenant-1"))
	assert.Error(t, ValidateTenantID(""))
	assert.Error(t, ValidateTenantID(strings.Repeat("x", 65)))
}

func TestValidateTitle(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateTitle("Burn care questions"))
	assert.NoError(t, ValidateTitle(""))
	assert.Error(t, ValidateTitle(strings.Repeat("x", 257)))
}

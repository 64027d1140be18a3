package firebase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityFromClaims(t *testing.T) {
	id, err := identityFromClaims("uid-1", map[string]interface{}{"email": "a@example.com", "name": "Alice"})
	require.NoError(t, err)
	assert.Equal(t, &Identity{UID: "uid-1", Email: "a@example.com", Name: "Alice"}, id)

	_, err = identityFromClaims("uid-2", map[string]interface{}{})
	assert.Error(t, err)
}

func TestInitFirebase_MissingCredentials(t *testing.T) {
	_, err := InitFirebase(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = InitFirebase(context.Background(), "/nonexistent/creds.json")
	assert.ErrorContains(t, err, "not found")
}

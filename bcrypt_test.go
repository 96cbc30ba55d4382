package ledgerauth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ledgerline/ledgerauth"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{
			name:     "Valid password",
			password: "securePassword123!",
			wantErr:  false,
		},
		{
			name:     "Empty password",
			password: "",
			wantErr:  true,
		},
		{
			name:     "Short password",
			password: "abc",
			wantErr:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := ledgerauth.HashPassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, hash)
				return
			}
			assert.NoError(t, err)
			assert.NotEmpty(t, hash)
			assert.NotEqual(t, tt.password, hash)
		})
	}
}

func TestComparePasswordAndHash(t *testing.T) {
	password := "securePassword123!"
	hash, err := ledgerauth.HashPassword(password)
	assert.NoError(t, err)

	t.Run("Matching password", func(t *testing.T) {
		assert.NoError(t, ledgerauth.ComparePasswordAndHash(password, hash))
	})

	t.Run("Wrong password", func(t *testing.T) {
		err := ledgerauth.ComparePasswordAndHash("wrongPassword", hash)
		assert.ErrorIs(t, err, ledgerauth.ErrMismatchedHashAndPassword)
	})

	t.Run("Garbage hash", func(t *testing.T) {
		err := ledgerauth.ComparePasswordAndHash(password, "not-a-bcrypt-hash")
		assert.Error(t, err)
	})
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	a, err := ledgerauth.HashPassword("same-password")
	assert.NoError(t, err)

	b, err := ledgerauth.HashPassword("same-password")
	assert.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NoError(t, ledgerauth.ComparePasswordAndHash("same-password", a))
	assert.NoError(t, ledgerauth.ComparePasswordAndHash("same-password", b))
}

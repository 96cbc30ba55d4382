package ledgerauth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ledgerline/ledgerauth"
)

func TestGravatarURL(t *testing.T) {
	t.Run("known digest", func(t *testing.T) {
		// md5 of "janet@example.com"
		assert.Equal(t,
			"https://www.gravatar.com/avatar/e2b56f44a93e97ccf87e11d6bca1c6fa",
			ledgerauth.GravatarURL("janet@example.com"),
		)
	})

	t.Run("normalizes case and whitespace", func(t *testing.T) {
		assert.Equal(t,
			ledgerauth.GravatarURL("janet@example.com"),
			ledgerauth.GravatarURL("  Janet@Example.COM  "),
		)
	})
}

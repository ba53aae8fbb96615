package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "alice@example.com", Normalize("  Alice@Example.COM \n"))
	assert.Equal(t, "", Normalize("   "))
}

func TestValid(t *testing.T) {
	for _, ok := range []string{"a@b.co", "first.last+tag@mail.example.com"} {
		assert.True(t, Valid(ok), ok)
	}
	for _, bad := range []string{"", "alice", "@example.com", "alice@", "a@b@c.com", "alice@localhost", "alice@example.", "al ice@example.com"} {
		assert.False(t, Valid(bad), bad)
	}
}

package idempotency

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "digibank/pkg/domain-errors"
)

func TestUUIDGenerator(t *testing.T) {
	t.Run("keys are accepted by the backend charset", func(t *testing.T) {
		key := UUIDGenerator{}.NewKey()
		require.NoError(t, Validate(key))
		assert.Len(t, key, 36)
	})

	t.Run("keys minted concurrently never collide", func(t *testing.T) {
		const n = 2000
		var (
			mu   sync.Mutex
			seen = make(map[string]struct{}, n)
			wg   sync.WaitGroup
		)
		gen := UUIDGenerator{}
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				k := gen.NewKey()
				mu.Lock()
				seen[k] = struct{}{}
				mu.Unlock()
			}()
		}
		wg.Wait()
		assert.Len(t, seen, n)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"empty", "", true},
		{"space", "abc def", true},
		{"slash", "a/b", true},
		{"too long", strings.Repeat("a", 129), true},
		{"max length", strings.Repeat("a", 128), false},
		{"uuid", "550e8400-e29b-41d4-a716-446655440000", false},
		{"punctuation", "order:42.retry_1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.key)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestGeneratorFunc(t *testing.T) {
	gen := GeneratorFunc(func() string { return "fixed" })
	assert.Equal(t, "fixed", gen.NewKey())
}

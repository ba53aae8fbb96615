package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "digibank/pkg/domain-errors"
)

// TestParseID_Invariants validates the parsing invariant:
// "IDs must be positive base-10 integers that fit in 64 bits"
func TestParseID_Invariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty string", "", true},
		{"whitespace only", "   ", true},
		{"zero", "0", true},
		{"negative", "-4", true},
		{"plus sign", "+4", true},
		{"decimal", "4.0", true},
		{"hex", "0x10", true},
		{"overflow", "9223372036854775808", true},
		{"oversized input", strings.Repeat("9", 100), true},
		{"unicode digit", "٤", true},
		{"padded valid id", " 42 ", false},
		{"max int64", "9223372036854775807", false},
		{"valid", "7", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAccountID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	for _, input := range []string{"", "abc", "0"} {
		t.Run("all reject: "+input, func(t *testing.T) {
			_, errUser := ParseUserID(input)
			_, errAccount := ParseAccountID(input)
			_, errPayee := ParsePayeeID(input)
			_, errTransfer := ParseTransferID(input)

			require.Error(t, errUser)
			require.Error(t, errAccount)
			require.Error(t, errPayee)
			require.Error(t, errTransfer)
		})
	}

	t.Run("all round-trip through String", func(t *testing.T) {
		payee, err := ParsePayeeID("12")
		require.NoError(t, err)
		assert.Equal(t, "12", payee.String())
		assert.False(t, payee.IsNil())
		assert.True(t, PayeeID(0).IsNil())
	})
}

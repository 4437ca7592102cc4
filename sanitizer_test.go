package switchboard_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/switchboard"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeInput_SizeLimit(t *testing.T) {
	limit := 64
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"Under Limit", limit - 1, false},
		{"Exact Limit", limit, false},
		{"Over Limit", limit + 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := switchboard.SanitizeInput(strings.Repeat("a", tt.size), limit)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInputTooLarge)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizeInput_ControlChars(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Normal Text", "Hello World", "Hello World"},
		{"Safe Controls", "Line1\nLine2\tTabbed", "Line1\nLine2\tTabbed"},
		{"ANSI Code", "\x1b[31mRed\x1b[0m", "[31mRed[0m"},
		{"Null Byte", "Null\x00Byte", "NullByte"},
		{"Bell", "Ding\x07", "Ding"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := switchboard.SanitizeInput(tt.input, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeInput_InvalidUTF8(t *testing.T) {
	_, err := switchboard.SanitizeInput("bad \xff byte", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidUTF8)
}

func TestSubmit_RejectsOversizedInput(t *testing.T) {
	eng := newEngine(t, switchboard.WithMaxInputSize(16))
	_, err := eng.Submit(context.Background(), switchboard.SubmitRequest{Input: strings.Repeat("x", 17)})
	assert.ErrorIs(t, err, domain.ErrInputTooLarge)

	ids, err := eng.Sessions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids, "rejected input never creates a session")
}

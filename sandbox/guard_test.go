package sandbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		code string
		ok   bool
	}{
		{"Empty", "", false},
		{"Spaces", "   ", false},
		{"Newlines and tabs", "\n\t\r\n", false},
		{"Unicode space", "\u00a0\u2003", false},
		{"Code", "print('hi')", true},
		{"Code with padding", "  \n x = 1 \n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, ok := Validate(tt.code)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, Outcome{}, outcome)
				return
			}
			assert.Equal(t, Outcome{Error: MsgNoCode, Status: StatusEmpty}, outcome)
			assert.Zero(t, outcome.ExecutionTime)
		})
	}
}

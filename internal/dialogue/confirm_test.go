package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchConfirmation(t *testing.T) {
	tests := []struct {
		text     string
		expected confirmation
	}{
		{"yes", confirmYes},
		{"Yes!", confirmYes},
		{"yes please", confirmYes},
		{"sure", confirmYes},
		{"go ahead", confirmYes},
		{"do it", confirmYes},
		{"ok", confirmYes},
		{"no", confirmNo},
		{"nope", confirmNo},
		{"cancel", confirmNo},
		{"never mind", confirmNo},
		{"forget it", confirmNo},
		{"start over", confirmNo},
		{"yes no", confirmNone},
		{"yes send $40 to someone else", confirmNone},
		{"maybe", confirmNone},
		{"bob smith", confirmNone},
		{"", confirmNone},
	}

	for _, test := range tests {
		t.Run(test.text, func(t *testing.T) {
			assert.Equal(t, test.expected, matchConfirmation(test.text))
		})
	}
}

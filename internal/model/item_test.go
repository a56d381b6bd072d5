package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEntityKind(t *testing.T) {
	t.Run("known kinds", func(t *testing.T) {
		kind, err := ParseEntityKind("plain_line")
		require.NoError(t, err)
		assert.Equal(t, KindPlainLine, kind)

		kind, err = ParseEntityKind("TABLE_CELL")
		require.NoError(t, err)
		assert.Equal(t, KindTableCell, kind)
	})

	t.Run("unknown kind is rejected", func(t *testing.T) {
		_, err := ParseEntityKind("SPLINE")
		assert.Error(t, err)
	})
}

func TestNormalizeSource(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"钢筋", "钢筋"},
		{"  钢筋  ", "钢筋"},
		{"shear   wall", "shear wall"},
		{"a\tb\nc", "a b c"},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeSource(tt.in))
	}
}

func TestFinalText(t *testing.T) {
	item := TextItem{RawContent: "钢筋"}
	assert.Equal(t, "钢筋", item.FinalText())

	item.Translation = &TranslationResult{Text: "rebar"}
	assert.Equal(t, "rebar", item.FinalText())
}

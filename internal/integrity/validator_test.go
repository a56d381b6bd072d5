package integrity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadlingo/cadlingo/internal/model"
)

func snapshot(entities ...model.EntitySnapshot) model.DocumentSnapshot {
	return model.DocumentSnapshot{Entities: entities}
}

func textEntity(id, content string) model.EntitySnapshot {
	return model.EntitySnapshot{ID: id, Kind: "PLAIN_LINE", IsText: true, Content: content, Layer: "0"}
}

func lineEntity(id string, length float64) model.EntitySnapshot {
	return model.EntitySnapshot{ID: id, Kind: "LINE", Layer: "0", Numeric: map[string]float64{"length": length}}
}

func TestValidate(t *testing.T) {
	t.Run("identical snapshots pass", func(t *testing.T) {
		pre := snapshot(textEntity("t1", "钢筋"), lineEntity("l1", 2400))
		post := snapshot(textEntity("t1", "钢筋"), lineEntity("l1", 2400))

		report := Validate(pre, post, nil)
		assert.True(t, report.Passed)
		assert.Empty(t, report.CriticalErrors)
	})

	t.Run("applied translation is an expected diff", func(t *testing.T) {
		pre := snapshot(textEntity("t1", "钢筋"))
		post := snapshot(textEntity("t1", "rebar"))

		report := Validate(pre, post, map[string]string{"t1": "rebar"})
		assert.True(t, report.Passed)
		require.Len(t, report.Diffs, 1)
		assert.False(t, report.Diffs[0].Critical)
		assert.Equal(t, "content", report.Diffs[0].Field)
	})

	t.Run("unexplained text change is critical", func(t *testing.T) {
		pre := snapshot(textEntity("t1", "钢筋"))
		post := snapshot(textEntity("t1", "something else"))

		report := Validate(pre, post, map[string]string{"t1": "rebar"})
		assert.False(t, report.Passed)
		assert.NotEmpty(t, report.CriticalErrors)
	})

	t.Run("entity count change is critical", func(t *testing.T) {
		pre := snapshot(textEntity("t1", "a"), textEntity("t2", "b"))
		post := snapshot(textEntity("t1", "a"))

		report := Validate(pre, post, nil)
		assert.False(t, report.Passed)
	})

	t.Run("added entity is critical", func(t *testing.T) {
		pre := snapshot(textEntity("t1", "a"))
		post := snapshot(textEntity("t1", "a"), textEntity("t9", "ghost"))

		report := Validate(pre, post, nil)
		assert.False(t, report.Passed)
	})

	t.Run("numeric drift beyond tolerance is critical", func(t *testing.T) {
		pre := snapshot(lineEntity("l1", 2400))
		post := snapshot(lineEntity("l1", 2400.5))

		report := Validate(pre, post, nil)
		assert.False(t, report.Passed)
	})

	t.Run("numeric drift within tolerance passes", func(t *testing.T) {
		pre := snapshot(lineEntity("l1", 2400))
		post := snapshot(lineEntity("l1", 2400+1e-9))

		report := Validate(pre, post, nil)
		assert.True(t, report.Passed)
	})

	t.Run("layer change is critical", func(t *testing.T) {
		pre := snapshot(textEntity("t1", "a"))
		moved := textEntity("t1", "a")
		moved.Layer = "annotations"
		post := snapshot(moved)

		report := Validate(pre, post, nil)
		assert.False(t, report.Passed)
	})

	t.Run("non-text content change is critical", func(t *testing.T) {
		pre := snapshot(model.EntitySnapshot{ID: "b1", Kind: "BLOCK", Content: "ref-a"})
		post := snapshot(model.EntitySnapshot{ID: "b1", Kind: "BLOCK", Content: "ref-b"})

		// Even if something claims to have applied it, non-text entities
		// must never change.
		report := Validate(pre, post, map[string]string{"b1": "ref-b"})
		assert.False(t, report.Passed)
	})

	t.Run("string attribute change is critical", func(t *testing.T) {
		pre := snapshot(model.EntitySnapshot{ID: "t1", Kind: "PLAIN_LINE", IsText: true, Attributes: map[string]string{"style": "standard"}})
		post := snapshot(model.EntitySnapshot{ID: "t1", Kind: "PLAIN_LINE", IsText: true, Attributes: map[string]string{"style": "bold"}})

		report := Validate(pre, post, nil)
		assert.False(t, report.Passed)
	})
}

package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cmd(label string) Command {
	return Command{Kind: CommandEdit, Label: label}
}

func TestHistoryRecord(t *testing.T) {
	h := NewHistory()
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())
	assert.Empty(t, h.UndoLabel())
	assert.Empty(t, h.RedoLabel())

	h.Record(cmd("one"))
	h.Record(cmd("two"))
	assert.True(t, h.CanUndo())
	assert.False(t, h.CanRedo())
	assert.Equal(t, "two", h.UndoLabel())
}

func TestHistoryUndoRedoWalk(t *testing.T) {
	h := NewHistory()
	h.Record(cmd("one"))
	h.Record(cmd("two"))

	var seen []string
	replay := func(c Command) error {
		seen = append(seen, c.Label)
		return nil
	}

	require.NoError(t, h.Undo(replay))
	require.NoError(t, h.Undo(replay))
	assert.Equal(t, []string{"two", "one"}, seen)
	assert.False(t, h.CanUndo())
	assert.True(t, h.CanRedo())
	assert.Equal(t, "one", h.RedoLabel())

	require.NoError(t, h.Redo(replay))
	assert.Equal(t, []string{"two", "one", "one"}, seen)
	assert.Equal(t, "one", h.UndoLabel())
	assert.Equal(t, "two", h.RedoLabel())

	t.Run("exhausted undo is a no-op", func(t *testing.T) {
		fresh := NewHistory()
		require.NoError(t, fresh.Undo(replay))
		require.NoError(t, fresh.Redo(replay))
		assert.Equal(t, []string{"two", "one", "one"}, seen)
	})
}

func TestHistoryRecordTruncatesRedoTail(t *testing.T) {
	h := NewHistory()
	h.Record(cmd("one"))
	h.Record(cmd("two"))
	require.NoError(t, h.Undo(func(Command) error { return nil }))
	require.True(t, h.CanRedo())

	h.Record(cmd("three"))
	assert.False(t, h.CanRedo(), "a new entry abandons the redo branch")
	assert.Equal(t, "three", h.UndoLabel())

	require.NoError(t, h.Undo(func(Command) error { return nil }))
	assert.Equal(t, "one", h.UndoLabel())
}

func TestHistoryIgnoresRecordWhileApplying(t *testing.T) {
	h := NewHistory()
	h.Record(cmd("one"))

	require.NoError(t, h.Undo(func(Command) error {
		h.Record(cmd("sneaky"))
		return nil
	}))
	assert.False(t, h.CanUndo())
	require.True(t, h.CanRedo())
	assert.Equal(t, "one", h.RedoLabel())
}

func TestHistoryKeepsCursorOnFailedReplay(t *testing.T) {
	h := NewHistory()
	h.Record(cmd("one"))
	boom := errors.New("boom")

	err := h.Undo(func(Command) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.True(t, h.CanUndo(), "failed undo leaves the entry in place")

	require.NoError(t, h.Undo(func(Command) error { return nil }))
	err = h.Redo(func(Command) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.True(t, h.CanRedo(), "failed redo leaves the entry in place")
}

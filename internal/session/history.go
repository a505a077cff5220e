package session

import "github.com/mesh-intelligence/trestle/pkg/types"

// CommandKind tags what a history entry did to its record.
type CommandKind string

const (
	CommandAdd    CommandKind = "add"
	CommandEdit   CommandKind = "edit"
	CommandDelete CommandKind = "delete"
)

// Command is one reversible record mutation, captured as data. Before and
// After hold full row snapshots taken around the mutation: an add has no
// Before, a delete has no After. Replaying a snapshot through the store
// restores the row's identity and audit timestamps exactly.
type Command struct {
	Kind     CommandKind
	Label    string
	TableID  int64
	RecordID int64
	Before   *types.Record
	After    *types.Record
}

// History is a linear undo/redo log scoped to one table session. The
// cursor sits between the last undoable entry and the next redoable one.
// Recording while a replay is in progress is ignored, so a replay that
// routes through the recording path cannot log itself.
type History struct {
	entries  []Command
	cursor   int
	applying bool
}

func NewHistory() *History {
	return &History{}
}

// Record appends a command at the cursor, discarding any abandoned redo
// branch beyond it.
func (h *History) Record(cmd Command) {
	if h.applying {
		return
	}
	h.entries = append(h.entries[:h.cursor], cmd)
	h.cursor = len(h.entries)
}

func (h *History) CanUndo() bool { return h.cursor > 0 }
func (h *History) CanRedo() bool { return h.cursor < len(h.entries) }

// Len returns the number of recorded entries, undone ones included.
func (h *History) Len() int { return len(h.entries) }

// UndoLabel names the entry Undo would revert, or "" when there is none.
func (h *History) UndoLabel() string {
	if !h.CanUndo() {
		return ""
	}
	return h.entries[h.cursor-1].Label
}

// RedoLabel names the entry Redo would reapply, or "" when there is none.
func (h *History) RedoLabel() string {
	if !h.CanRedo() {
		return ""
	}
	return h.entries[h.cursor].Label
}

// Undo hands the entry before the cursor to revert and steps back. The
// cursor only moves when revert succeeds, so a failed replay can be
// retried. With no entry to undo it does nothing.
func (h *History) Undo(revert func(Command) error) error {
	if !h.CanUndo() {
		return nil
	}
	cmd := h.entries[h.cursor-1]
	h.applying = true
	defer func() { h.applying = false }()
	if err := revert(cmd); err != nil {
		return err
	}
	h.cursor--
	return nil
}

// Redo hands the entry at the cursor to apply and steps forward, moving
// the cursor only on success. With no entry to redo it does nothing.
func (h *History) Redo(apply func(Command) error) error {
	if !h.CanRedo() {
		return nil
	}
	cmd := h.entries[h.cursor]
	h.applying = true
	defer func() { h.applying = false }()
	if err := apply(cmd); err != nil {
		return err
	}
	h.cursor++
	return nil
}

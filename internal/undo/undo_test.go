package undo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a command that logs its replays into a shared trace.
type recorder struct {
	name  string
	trace *[]string
	fail  error
	sig   bool
}

func newRecorder(name string, trace *[]string) *recorder {
	return &recorder{name: name, trace: trace, sig: true}
}

func (r *recorder) Undo() error {
	*r.trace = append(*r.trace, "undo "+r.name)
	return r.fail
}

func (r *recorder) Redo() error {
	*r.trace = append(*r.trace, "redo "+r.name)
	return r.fail
}

func (r *recorder) IsSignificant() bool { return r.sig }
func (r *recorder) String() string      { return r.name }

func TestQueue_UndoRedo(t *testing.T) {
	var trace []string
	q := NewQueue(0)
	q.Push(newRecorder("a", &trace))
	q.Push(newRecorder("b", &trace))

	require.NoError(t, q.Undo())
	require.NoError(t, q.Undo())
	assert.ErrorIs(t, q.Undo(), ErrNothingToUndo)

	require.NoError(t, q.Redo())
	require.NoError(t, q.Redo())
	assert.ErrorIs(t, q.Redo(), ErrNothingToRedo)

	assert.Equal(t, []string{"undo b", "undo a", "redo a", "redo b"}, trace)
	assert.Equal(t, 2, q.UndoLen())
	assert.Equal(t, 0, q.RedoLen())
}

func TestQueue_PushClearsRedo(t *testing.T) {
	var trace []string
	q := NewQueue(0)
	q.Push(newRecorder("a", &trace))
	require.NoError(t, q.Undo())
	require.True(t, q.CanRedo())

	q.Push(newRecorder("b", &trace))
	assert.False(t, q.CanRedo(), "a new push must discard the redo stack")
}

func TestQueue_BatchIsOneEntry(t *testing.T) {
	var trace []string
	q := NewQueue(0)

	q.BeginBatch()
	q.Push(newRecorder("c1", &trace))
	q.Push(newRecorder("c2", &trace))
	require.NoError(t, q.EndBatch())

	assert.Equal(t, 1, q.UndoLen(), "batched commands are a single stack entry")
	require.NoError(t, q.Undo())
	assert.Equal(t, []string{"undo c2", "undo c1"}, trace)
	assert.False(t, q.CanUndo())

	trace = nil
	require.NoError(t, q.Redo())
	assert.Equal(t, []string{"redo c1", "redo c2"}, trace)
}

func TestQueue_NestedBatch(t *testing.T) {
	var trace []string
	q := NewQueue(0)
	pushed := 0
	q.OnPushed(func(Command) { pushed++ })

	q.BeginBatch()
	q.Push(newRecorder("outer", &trace))
	q.BeginBatch()
	q.Push(newRecorder("inner", &trace))
	require.NoError(t, q.EndBatch())
	assert.Equal(t, 0, q.UndoLen(), "inner EndBatch must not push")
	assert.True(t, q.IsBatching())
	require.NoError(t, q.EndBatch())

	assert.Equal(t, 1, q.UndoLen())
	assert.Equal(t, 1, pushed)
	assert.ErrorIs(t, q.EndBatch(), ErrNotBatching)
}

func TestQueue_EmptyBatchNotPushed(t *testing.T) {
	q := NewQueue(0)
	q.BeginBatch()
	require.NoError(t, q.EndBatch())
	assert.False(t, q.CanUndo())
}

func TestQueue_UndoWhileBatching(t *testing.T) {
	var trace []string
	q := NewQueue(0)
	q.Push(newRecorder("a", &trace))
	q.BeginBatch()
	assert.ErrorIs(t, q.Undo(), ErrBatchOpen)
	require.NoError(t, q.EndBatch())
	assert.Empty(t, trace)
}

func TestQueue_MaxLengthEvictsOldest(t *testing.T) {
	var trace []string
	q := NewQueue(2)
	q.Push(newRecorder("a", &trace))
	q.Push(newRecorder("b", &trace))
	q.Push(newRecorder("c", &trace))
	assert.Equal(t, 2, q.UndoLen())

	require.NoError(t, q.Undo())
	require.NoError(t, q.Undo())
	assert.ErrorIs(t, q.Undo(), ErrNothingToUndo)
	assert.Equal(t, []string{"undo c", "undo b"}, trace)

	q.SetMaxLength(1)
	assert.LessOrEqual(t, q.UndoLen(), 1)
}

func TestQueue_PushDuringReplayIsDiscarded(t *testing.T) {
	q := NewQueue(0)
	var inner bool
	c := NewFuncCommand("reentrant",
		func() error {
			inner = q.Push(NewFuncCommand("nested", noop, noop))
			return nil
		},
		noop,
	)
	q.Push(c)
	require.NoError(t, q.Undo())

	assert.False(t, inner, "push while active must be rejected")
	assert.Equal(t, 0, q.UndoLen())
	assert.Equal(t, 1, q.RedoLen())
}

func TestQueue_ReentrantUndoRejected(t *testing.T) {
	q := NewQueue(0)
	var innerErr error
	q.Push(NewFuncCommand("reentrant", func() error {
		innerErr = q.Undo()
		return nil
	}, noop))
	q.Push(NewFuncCommand("other", noop, noop))
	require.NoError(t, q.Undo())
	require.NoError(t, q.Undo())
	assert.ErrorIs(t, innerErr, ErrReplayActive)
}

func TestQueue_Veto(t *testing.T) {
	var trace []string
	q := NewQueue(0)
	q.Push(newRecorder("a", &trace))

	allow := false
	q.OnUndoing(func(Command) bool { return allow })

	assert.ErrorIs(t, q.Undo(), ErrReplayVetoed)
	assert.Empty(t, trace)
	assert.Equal(t, 1, q.UndoLen(), "a vetoed undo leaves the stacks unchanged")

	allow = true
	require.NoError(t, q.Undo())
	assert.Equal(t, 1, q.RedoLen())

	q.OnRedoing(func(Command) bool { return false })
	assert.ErrorIs(t, q.Redo(), ErrReplayVetoed)
	assert.Equal(t, 1, q.RedoLen())
}

func TestQueue_ReplayFailureDropsCommand(t *testing.T) {
	var trace []string
	q := NewQueue(0)
	q.Push(newRecorder("a", &trace))
	bad := newRecorder("bad", &trace)
	bad.fail = errors.New("boom")
	q.Push(bad)

	err := q.Undo()
	var replayErr *ReplayError
	require.ErrorAs(t, err, &replayErr)
	assert.Equal(t, "undo", replayErr.Op)
	assert.Same(t, bad, replayErr.Command)
	assert.EqualError(t, err, "undo bad: boom")

	assert.Equal(t, 1, q.UndoLen(), "the failed command is dropped from the stack")
	assert.Equal(t, 0, q.RedoLen(), "the failed command is not moved to the redo stack")

	require.NoError(t, q.Undo())
	assert.Equal(t, []string{"undo bad", "undo a"}, trace)
}

func TestQueue_PanickingCommandReleasesQueue(t *testing.T) {
	var trace []string
	q := NewQueue(0)
	q.Push(newRecorder("a", &trace))
	q.Push(&FuncCommand{Name: "broken", Significant: true})

	assert.Panics(t, func() { _ = q.Undo() })
	assert.False(t, q.IsActive())
	assert.Equal(t, 1, q.UndoLen(), "the panicking command is dropped")

	require.NoError(t, q.Undo())
	assert.Equal(t, []string{"undo a"}, trace)
}

func TestQueue_Listeners(t *testing.T) {
	var trace []string
	var events []string
	q := NewQueue(0)
	q.OnPushed(func(c Command) { events = append(events, "pushed "+Describe(c)) })
	q.OnUndone(func(c Command) { events = append(events, "undone "+Describe(c)) })
	q.OnRedone(func(c Command) { events = append(events, "redone "+Describe(c)) })
	q.OnReset(func() { events = append(events, "reset") })

	q.Push(newRecorder("a", &trace))
	require.NoError(t, q.Undo())
	require.NoError(t, q.Redo())
	q.Reset()

	assert.Equal(t, []string{"pushed a", "undone a", "redone a", "reset"}, events)
	assert.False(t, q.CanUndo())
}

func TestBatchCommand_Significance(t *testing.T) {
	var trace []string
	quiet := newRecorder("quiet", &trace)
	quiet.sig = false
	loud := newRecorder("loud", &trace)

	assert.False(t, NewBatchCommand(quiet).IsSignificant())
	assert.True(t, NewBatchCommand(quiet, loud).IsSignificant())
	assert.False(t, NewBatchCommand().IsSignificant())
}

func TestBatchCommand_StopsOnFailure(t *testing.T) {
	var trace []string
	bad := newRecorder("bad", &trace)
	bad.fail = errors.New("boom")
	b := NewBatchCommand(newRecorder("a", &trace), bad, newRecorder("c", &trace))

	err := b.Undo()
	require.Error(t, err)
	assert.Equal(t, []string{"undo c", "undo bad"}, trace)
}

func TestPropertyCommand(t *testing.T) {
	value := 1
	get := func() int { return value }
	set := func(v int) { value = v }

	c := NewPropertyCommandValue(get, set, 5)
	assert.Equal(t, 5, value, "the new value is applied on construction")
	assert.Equal(t, 1, c.Old())
	assert.Equal(t, 5, c.New())

	require.NoError(t, c.Undo())
	assert.Equal(t, 1, value)
	require.NoError(t, c.Redo())
	assert.Equal(t, 5, value)

	value = 9
	c2 := NewPropertyCommand(get, set).WithOld(7)
	require.NoError(t, c2.Undo())
	assert.Equal(t, 7, value)
	require.NoError(t, c2.Redo())
	assert.Equal(t, 9, value)
	assert.False(t, c2.Insignificant().IsSignificant())
}

func TestExistenceCommand(t *testing.T) {
	present := map[string]bool{}
	add := func() error { present["n"] = true; return nil }
	remove := func() error { delete(present, "n"); return nil }

	c, err := NewExistenceCommand(ActionAdd, add, remove)
	require.NoError(t, err)
	assert.True(t, present["n"])
	require.NoError(t, c.Undo())
	assert.False(t, present["n"])
	require.NoError(t, c.Redo())
	assert.True(t, present["n"])

	r, err := NewExistenceCommand(ActionRemove, add, remove)
	require.NoError(t, err)
	assert.False(t, present["n"])
	require.NoError(t, r.Undo())
	assert.True(t, present["n"])
	assert.Equal(t, "remove", r.String())
}

func noop() error { return nil }

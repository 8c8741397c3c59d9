package undo

import (
	"log/slog"

	"github.com/heliumproject/editor-go/internal/metrics"
)

// VetoFunc is called before a replay; returning false cancels it.
type VetoFunc func(cmd Command) bool

// Listener is called after a queue transition.
type Listener func(cmd Command)

// Queue holds the undo and redo stacks.
//
// Commands pushed while the queue is replaying (active) are discarded, and
// commands pushed while a batch is open are collected into the pending
// batch until the outermost EndBatch.
type Queue struct {
	undo      []Command
	redo      []Command
	maxLength int

	active     bool
	batchDepth int
	batch      *BatchCommand

	onPushed  []Listener
	onUndoing []VetoFunc
	onRedoing []VetoFunc
	onUndone  []Listener
	onRedone  []Listener
	onReset   []func()
}

// NewQueue creates a queue keeping at most maxLength undo entries
// (0 = unbounded).
func NewQueue(maxLength int) *Queue {
	return &Queue{maxLength: maxLength}
}

func (q *Queue) OnPushed(f Listener)  { q.onPushed = append(q.onPushed, f) }
func (q *Queue) OnUndoing(f VetoFunc) { q.onUndoing = append(q.onUndoing, f) }
func (q *Queue) OnRedoing(f VetoFunc) { q.onRedoing = append(q.onRedoing, f) }
func (q *Queue) OnUndone(f Listener)  { q.onUndone = append(q.onUndone, f) }
func (q *Queue) OnRedone(f Listener)  { q.onRedone = append(q.onRedone, f) }
func (q *Queue) OnReset(f func())     { q.onReset = append(q.onReset, f) }

func (q *Queue) MaxLength() int { return q.maxLength }

// SetMaxLength changes the bound and evicts the oldest entries beyond it.
func (q *Queue) SetMaxLength(n int) {
	q.maxLength = n
	q.evict()
}

func (q *Queue) CanUndo() bool    { return len(q.undo) > 0 }
func (q *Queue) CanRedo() bool    { return len(q.redo) > 0 }
func (q *Queue) UndoLen() int     { return len(q.undo) }
func (q *Queue) RedoLen() int     { return len(q.redo) }
func (q *Queue) IsActive() bool   { return q.active }
func (q *Queue) IsBatching() bool { return q.batchDepth > 0 }

// Push records a command that has already been applied. It returns false
// when the command was discarded because a replay is in flight.
func (q *Queue) Push(c Command) bool {
	if c == nil {
		return false
	}
	if q.active {
		slog.Debug("discarding command pushed during replay", "command", Describe(c))
		return false
	}
	if q.batchDepth > 0 {
		q.batch.Push(c)
		return true
	}

	q.redo = nil
	q.undo = append(q.undo, c)
	q.evict()
	metrics.Commands.WithLabelValues("pushed").Inc()

	for _, f := range q.onPushed {
		f(c)
	}
	return true
}

func (q *Queue) evict() {
	if q.maxLength <= 0 {
		return
	}
	for len(q.undo) > q.maxLength {
		q.undo[0] = nil
		q.undo = q.undo[1:]
		metrics.Commands.WithLabelValues("evicted").Inc()
	}
}

// BeginBatch opens (or nests) a batch.
func (q *Queue) BeginBatch() {
	if q.batchDepth == 0 {
		q.batch = NewBatchCommand()
	}
	q.batchDepth++
}

// EndBatch closes one nesting level. Only the outermost call pushes the
// collected batch, and only when it is non-empty.
func (q *Queue) EndBatch() error {
	if q.batchDepth == 0 {
		return ErrNotBatching
	}
	q.batchDepth--
	if q.batchDepth > 0 {
		return nil
	}
	b := q.batch
	q.batch = nil
	if !b.IsEmpty() {
		q.Push(b)
	}
	return nil
}

// Undo reverts the most recent command.
func (q *Queue) Undo() error {
	return q.replay("undo", &q.undo, &q.redo, q.onUndoing, q.onUndone, ErrNothingToUndo, Command.Undo)
}

// Redo reapplies the most recently undone command.
func (q *Queue) Redo() error {
	return q.replay("redo", &q.redo, &q.undo, q.onRedoing, q.onRedone, ErrNothingToRedo, Command.Redo)
}

func (q *Queue) replay(
	op string,
	from, to *[]Command,
	vetoes []VetoFunc,
	done []Listener,
	empty error,
	apply func(Command) error,
) error {
	if q.active {
		return ErrReplayActive
	}
	if q.batchDepth > 0 {
		return ErrBatchOpen
	}
	if len(*from) == 0 {
		return empty
	}

	c := (*from)[len(*from)-1]
	for _, veto := range vetoes {
		if !veto(c) {
			return ErrReplayVetoed
		}
	}
	(*from)[len(*from)-1] = nil
	*from = (*from)[:len(*from)-1]

	if err := q.run(apply, c); err != nil {
		slog.Warn("replay failed, dropping command", "op", op, "command", Describe(c), "error", err)
		metrics.ReplayFailures.WithLabelValues(op).Inc()
		metrics.Commands.WithLabelValues("dropped").Inc()
		return &ReplayError{Op: op, Command: c, Err: err}
	}

	*to = append(*to, c)
	if op == "undo" {
		metrics.Commands.WithLabelValues("undone").Inc()
	} else {
		metrics.Commands.WithLabelValues("redone").Inc()
	}
	for _, f := range done {
		f(c)
	}
	return nil
}

// run applies c with the queue marked active. A panicking command still
// clears the flag.
func (q *Queue) run(apply func(Command) error, c Command) error {
	q.active = true
	defer func() { q.active = false }()
	return apply(c)
}

// Reset clears both stacks and any open batch.
func (q *Queue) Reset() {
	q.undo = nil
	q.redo = nil
	q.batch = nil
	q.batchDepth = 0
	for _, f := range q.onReset {
		f()
	}
}

// Package undo implements reversible edits and the undo/redo queue.
//
// Every scene edit is expressed as a Command. A Command that fails to replay
// returns an error instead of panicking; the Queue inspects that result and
// drops the failed command.
package undo

import (
	"errors"
	"fmt"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
	ErrReplayVetoed  = errors.New("replay vetoed by listener")
	ErrReplayActive  = errors.New("undo queue is replaying")
	ErrBatchOpen     = errors.New("undo batch is open")
	ErrNotBatching   = errors.New("no undo batch is open")
)

// Command is one reversible edit.
type Command interface {
	// Undo reverts the edit. A non-nil error means the replay failed.
	Undo() error
	// Redo reapplies the edit. A non-nil error means the replay failed.
	Redo() error
	// IsSignificant reports whether the edit changes user-visible data.
	IsSignificant() bool
}

// ReplayError is returned when a command fails during Undo or Redo.
type ReplayError struct {
	Op      string
	Command Command
	Err     error
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, Describe(e.Command), e.Err)
}

func (e *ReplayError) Unwrap() error { return e.Err }

// Describe returns a short label for logs: the command's String() when it
// implements fmt.Stringer, its type otherwise.
func Describe(c Command) string {
	if s, ok := c.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", c)
}

// FuncCommand adapts a pair of closures. The edit is assumed to have been
// applied already when the command is constructed.
type FuncCommand struct {
	Name        string
	UndoFunc    func() error
	RedoFunc    func() error
	Significant bool
}

// NewFuncCommand returns a significant command replaying undo and redo.
func NewFuncCommand(name string, undo, redo func() error) *FuncCommand {
	return &FuncCommand{Name: name, UndoFunc: undo, RedoFunc: redo, Significant: true}
}

func (c *FuncCommand) Undo() error         { return c.UndoFunc() }
func (c *FuncCommand) Redo() error         { return c.RedoFunc() }
func (c *FuncCommand) IsSignificant() bool { return c.Significant }
func (c *FuncCommand) String() string      { return c.Name }

// BatchCommand groups commands into one undo step.
type BatchCommand struct {
	commands []Command
}

// NewBatchCommand returns a batch holding cmds in application order.
func NewBatchCommand(cmds ...Command) *BatchCommand {
	b := &BatchCommand{}
	for _, c := range cmds {
		b.Push(c)
	}
	return b
}

// Push appends a command. Nil commands are ignored.
func (b *BatchCommand) Push(c Command) {
	if c == nil {
		return
	}
	b.commands = append(b.commands, c)
}

func (b *BatchCommand) Len() int      { return len(b.commands) }
func (b *BatchCommand) IsEmpty() bool { return len(b.commands) == 0 }

// Commands returns the children in application order.
func (b *BatchCommand) Commands() []Command {
	return append([]Command(nil), b.commands...)
}

// Undo reverts children last to first.
func (b *BatchCommand) Undo() error {
	for i := len(b.commands) - 1; i >= 0; i-- {
		if err := b.commands[i].Undo(); err != nil {
			return fmt.Errorf("batch undo step %d: %w", i, err)
		}
	}
	return nil
}

// Redo reapplies children first to last.
func (b *BatchCommand) Redo() error {
	for i, c := range b.commands {
		if err := c.Redo(); err != nil {
			return fmt.Errorf("batch redo step %d: %w", i, err)
		}
	}
	return nil
}

// IsSignificant is true when any child is significant.
func (b *BatchCommand) IsSignificant() bool {
	for _, c := range b.commands {
		if c.IsSignificant() {
			return true
		}
	}
	return false
}

func (b *BatchCommand) String() string {
	return fmt.Sprintf("batch(%d)", len(b.commands))
}

package undo

// ExistenceAction is the action an ExistenceCommand originally performed.
type ExistenceAction int

const (
	ActionAdd ExistenceAction = iota
	ActionRemove
)

func (a ExistenceAction) String() string {
	if a == ActionRemove {
		return "remove"
	}
	return "add"
}

// ExistenceCommand adds or removes an object. Undo performs the inverse of
// the original action and Redo repeats it.
type ExistenceCommand struct {
	action ExistenceAction
	add    func() error
	remove func() error
	name   string
}

// NewExistenceCommand performs action once and returns the command.
// If the initial action fails the command is still returned with the error
// so the caller can decide not to push it.
func NewExistenceCommand(action ExistenceAction, add, remove func() error) (*ExistenceCommand, error) {
	c := &ExistenceCommand{action: action, add: add, remove: remove}
	return c, c.Redo()
}

// Named sets the label used in logs.
func (c *ExistenceCommand) Named(name string) *ExistenceCommand {
	c.name = name
	return c
}

func (c *ExistenceCommand) Action() ExistenceAction { return c.action }

func (c *ExistenceCommand) Undo() error {
	if c.action == ActionAdd {
		return c.remove()
	}
	return c.add()
}

func (c *ExistenceCommand) Redo() error {
	if c.action == ActionAdd {
		return c.add()
	}
	return c.remove()
}

func (c *ExistenceCommand) IsSignificant() bool { return true }

func (c *ExistenceCommand) String() string {
	if c.name != "" {
		return c.action.String() + " " + c.name
	}
	return c.action.String()
}

package reconcile

import (
	"fmt"
	"strings"
)

// Action is what a pass does to one column.
type Action uint8

const (
	// ActionNoOp leaves the column untouched.
	ActionNoOp Action = iota
	// ActionAdd creates a default column.
	ActionAdd
	// ActionUpdate recreates a default column with a new definition.
	ActionUpdate
	// ActionRemove drops a default column.
	ActionRemove
)

// IsAdd reports whether a is ActionAdd.
func (a Action) IsAdd() bool { return a == ActionAdd }

// IsUpdate reports whether a is ActionUpdate.
func (a Action) IsUpdate() bool { return a == ActionUpdate }

// IsRemove reports whether a is ActionRemove.
func (a Action) IsRemove() bool { return a == ActionRemove }

// IsNoOp reports whether a is ActionNoOp.
func (a Action) IsNoOp() bool { return a == ActionNoOp }

// Valid reports whether a is a known action.
func (a Action) Valid() bool { return a <= ActionRemove }

func (a Action) String() string {
	switch a {
	case ActionNoOp:
		return "NO_OP"
	case ActionAdd:
		return "ADD"
	case ActionUpdate:
		return "UPDATE"
	case ActionRemove:
		return "REMOVE"
	default:
		return fmt.Sprintf("Action(%d)", uint8(a))
	}
}

// ParseAction parses an action name.
func ParseAction(s string) (Action, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NO_OP", "NOOP", "NO-OP":
		return ActionNoOp, nil
	case "ADD":
		return ActionAdd, nil
	case "UPDATE":
		return ActionUpdate, nil
	case "REMOVE":
		return ActionRemove, nil
	default:
		return ActionNoOp, fmt.Errorf("unknown action %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("unknown action %d", uint8(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(b []byte) error {
	parsed, err := ParseAction(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

package canvas

import (
	"context"
	"strings"
)

// KeyEvent is a key press forwarded by the rendering collaborator.
type KeyEvent struct {
	Key   string `json:"key"`
	Ctrl  bool   `json:"ctrlKey"`
	Meta  bool   `json:"metaKey"`
	Shift bool   `json:"shiftKey"`
	// TargetTag is the tag name of the focused element, e.g. "INPUT".
	TargetTag       string `json:"targetTag"`
	ContentEditable bool   `json:"contentEditable"`
	// Platform is the client platform string; anything containing "mac"
	// uses Meta as the command modifier.
	Platform string `json:"platform"`
}

// KeyAction is what a key press did.
type KeyAction string

// Key actions.
const (
	KeyNone   KeyAction = ""
	KeyDelete KeyAction = "delete"
	KeyUndo   KeyAction = "undo"
	KeyRedo   KeyAction = "redo"
)

// Action maps k to a KeyAction without applying it.
func (k KeyEvent) Action() KeyAction {
	switch strings.ToUpper(k.TargetTag) {
	case "INPUT", "TEXTAREA":
		return KeyNone
	}
	if k.ContentEditable {
		return KeyNone
	}

	mod := k.Ctrl
	if strings.Contains(strings.ToUpper(k.Platform), "MAC") {
		mod = k.Meta
	}

	switch {
	case (k.Key == "Delete" || k.Key == "Backspace") && !mod:
		return KeyDelete
	case mod && strings.EqualFold(k.Key, "z") && !k.Shift:
		return KeyUndo
	case mod && strings.EqualFold(k.Key, "z") && k.Shift:
		return KeyRedo
	}
	return KeyNone
}

// HandleKey applies the edit command bound to k and returns it. The
// command itself may still be a no-op, e.g. undo with no history.
func (s *Session) HandleKey(ctx context.Context, k KeyEvent) KeyAction {
	action := k.Action()
	switch action {
	case KeyDelete:
		s.DeleteSelected(ctx)
	case KeyUndo:
		s.Undo(ctx)
	case KeyRedo:
		s.Redo(ctx)
	}
	return action
}

// Package components renders view-model values into Node trees a shell can
// draw, and describes the Intents a shell sends back on user actions.
package components

import (
	"github.com/anonto42/snapfeed/internal/navigation"
)

// Node is one element of a rendered view tree
type Node struct {
	Type     string         `json:"type"`
	ID       string         `json:"id,omitempty"`
	Props    map[string]any `json:"props,omitempty"`
	Intent   *Intent        `json:"intent,omitempty"`
	Children []Node         `json:"children,omitempty"`
}

// Node types
const (
	TypeScreen  = "screen"
	TypeColumn  = "column"
	TypeRow     = "row"
	TypeText    = "text"
	TypeImage   = "image"
	TypeButton  = "button"
	TypeField   = "field"
	TypeLoading = "loading"
	TypeCard    = "card"
	TypeTopBar  = "top_bar"
	TypeBottom  = "bottom_bar"
	TypeDrawer  = "drawer"
	TypePreview = "camera_preview"
	TypePrompt  = "permission_prompt"
)

// Intent actions
const (
	ActionNavigate    = "navigate"
	ActionBack        = "back"
	ActionInput       = "input"
	ActionSubmit      = "submit"
	ActionToggleLike  = "toggle_like"
	ActionAddFriend   = "add_friend"
	ActionAccept      = "accept"
	ActionReject      = "reject"
	ActionSend        = "send"
	ActionCapture     = "capture"
	ActionSwitchLens  = "switch_lens"
	ActionPermission  = "permission"
	ActionSignOut     = "sign_out"
	ActionUnsupported = "unsupported"
)

// Intent is a user action reported by the shell
type Intent struct {
	Action  string                 `json:"action" validate:"required,oneof=navigate back input submit toggle_like add_friend accept reject send capture switch_lens permission sign_out unsupported"`
	Target  string                 `json:"target,omitempty"`
	Value   string                 `json:"value,omitempty"`
	Options *navigation.NavOptions `json:"options,omitempty"`
}

// NavigateTo builds a navigate intent
func NavigateTo(route string, opts navigation.NavOptions) *Intent {
	return &Intent{Action: ActionNavigate, Target: route, Options: &opts}
}

// Text renders a line of text
func Text(id, text string) Node {
	return Node{Type: TypeText, ID: id, Props: map[string]any{"text": text}}
}

// Image renders an image from a URL or media handle
func Image(id, src, kind string, size int) Node {
	props := map[string]any{"src": src}
	if kind != "" {
		props["kind"] = kind
	}
	if size > 0 {
		props["size"] = size
	}
	return Node{Type: TypeImage, ID: id, Props: props}
}

// Button renders a button emitting intent when pressed
func Button(id, label string, intent *Intent) Node {
	return Node{Type: TypeButton, ID: id, Props: map[string]any{"label": label}, Intent: intent}
}

// Field renders an editable text field. Edits arrive as input intents
// targeting id.
func Field(id, label, value string, secret bool) Node {
	return Node{
		Type:   TypeField,
		ID:     id,
		Props:  map[string]any{"label": label, "value": value, "secret": secret},
		Intent: &Intent{Action: ActionInput, Target: id},
	}
}

// Column stacks children vertically
func Column(id string, children ...Node) Node {
	return Node{Type: TypeColumn, ID: id, Children: children}
}

// Row lays children out horizontally
func Row(id string, children ...Node) Node {
	return Node{Type: TypeRow, ID: id, Children: children}
}

// Loading renders a progress indicator
func Loading(id string) Node {
	return Node{Type: TypeLoading, ID: id}
}

// StatusText renders a status or error line; empty messages render nothing
func StatusText(id, message string, isError bool) []Node {
	if message == "" {
		return nil
	}
	n := Text(id, message)
	if isError {
		n.Props["tone"] = "error"
	}
	return []Node{n}
}

// Find returns the first node with id in a depth-first walk of root
func Find(root Node, id string) (Node, bool) {
	if root.ID == id {
		return root, true
	}
	for _, c := range root.Children {
		if n, ok := Find(c, id); ok {
			return n, true
		}
	}
	return Node{}, false
}

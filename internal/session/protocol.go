package session

import (
	"encoding/json"

	"github.com/FocuswithJustin/ClozeMark/core/dom"
	"github.com/FocuswithJustin/ClozeMark/core/editor"
	"github.com/FocuswithJustin/ClozeMark/core/errors"
	"github.com/FocuswithJustin/ClozeMark/core/selection"
)

// Message types sent by clients.
const (
	TypeInput   = "input"
	TypePaste   = "paste"
	TypeClick   = "click"
	TypeKey     = "key"
	TypeCommand = "command"
	TypeLoad    = "load"
	TypeSave    = "save"
)

// Message types sent by the server.
const (
	TypeHello  = "hello"
	TypeResult = "result"
	TypeError  = "error"
)

// ClientMessage is one event from the editing client.
type ClientMessage struct {
	Type string `json:"type"`

	// Selection is the client's selection when the event fired.
	Selection *selection.Snapshot `json:"selection,omitempty"`
	// Markup replaces the document content before the event is handled.
	Markup string `json:"markup,omitempty"`

	// input
	Text string `json:"text,omitempty"`
	// click
	Path []int `json:"path,omitempty"`
	// key
	Key   string `json:"key,omitempty"`
	Alt   bool   `json:"alt,omitempty"`
	Shift bool   `json:"shift,omitempty"`
	Ctrl  bool   `json:"ctrl,omitempty"`
	// command
	Name string   `json:"name,omitempty"`
	Args []string `json:"args,omitempty"`
	// load, save
	Document string `json:"document,omitempty"`
}

// ServerMessage is the reply to one client message.
type ServerMessage struct {
	Type      string              `json:"type"`
	Session   string              `json:"session"`
	Markup    string              `json:"markup,omitempty"`
	Selection *selection.Snapshot `json:"selection,omitempty"`
	Handled   bool                `json:"handled"`
	Result    any                 `json:"result,omitempty"`
	Error     string              `json:"error,omitempty"`
}

// decode parses a client message.
func decode(data []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ClientMessage{}, errors.NewParse("json", "", err.Error())
	}
	if msg.Type == "" {
		return ClientMessage{}, errors.NewValidation("type", "message type is required")
	}
	return msg, nil
}

// toEvent converts a client message to an engine event.
func toEvent(root dom.Node, msg ClientMessage) (editor.Event, error) {
	switch msg.Type {
	case TypeInput:
		return editor.TextInput{Text: msg.Text}, nil
	case TypePaste:
		return editor.Paste{}, nil
	case TypeClick:
		n, ok := selection.Resolve(root, msg.Path)
		if !ok {
			return nil, errors.NewNotFound("node", "click path")
		}
		return editor.Click{Node: n}, nil
	case TypeKey:
		return editor.KeyPress{Key: msg.Key, Alt: msg.Alt, Shift: msg.Shift, Ctrl: msg.Ctrl}, nil
	case TypeCommand:
		return editor.Command{Name: msg.Name, Args: msg.Args}, nil
	}
	return nil, errors.NewUnsupported("message", msg.Type)
}

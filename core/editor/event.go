package editor

import (
	"fmt"
	"strings"
	"time"

	"github.com/FocuswithJustin/ClozeMark/core/cloze"
	"github.com/FocuswithJustin/ClozeMark/core/dom"
	"github.com/FocuswithJustin/ClozeMark/core/errors"
	"github.com/FocuswithJustin/ClozeMark/internal/logging"
)

// Event is one host callback. The concrete types below are the only
// implementations.
type Event interface {
	Kind() string
	event()
}

// TextInput reports typed text. Typing the marker delimiter triggers
// single-shortcut promotion at the caret.
type TextInput struct {
	Text string
}

// Paste reports pasted content already inserted into the tree.
type Paste struct{}

// Click reports a click on a node.
type Click struct {
	Node dom.Node
}

// KeyPress reports a key chord.
type KeyPress struct {
	Key   string
	Alt   bool
	Shift bool
	Ctrl  bool
}

// Command is a named action from a menu, a palette or a remote client.
type Command struct {
	Name string
	Args []string
}

func (TextInput) Kind() string { return "input" }
func (Paste) Kind() string     { return "paste" }
func (Click) Kind() string     { return "click" }
func (KeyPress) Kind() string  { return "key" }
func (Command) Kind() string   { return "command" }

func (TextInput) event() {}
func (Paste) event()     {}
func (Click) event()     {}
func (KeyPress) event()  {}
func (Command) event()   {}

// String renders the chord as "Alt+Shift+C".
func (k KeyPress) String() string {
	var parts []string
	if k.Ctrl {
		parts = append(parts, "Ctrl")
	}
	if k.Alt {
		parts = append(parts, "Alt")
	}
	if k.Shift {
		parts = append(parts, "Shift")
	}
	return strings.Join(append(parts, k.Key), "+")
}

// Response is what Handle reports back to the host.
type Response struct {
	// Handled is false when the event matched no binding.
	Handled bool `json:"handled"`
	// Result is the operation's report, if it has one.
	Result any `json:"result,omitempty"`
}

// Handle dispatches one event. Events that match nothing return a zero
// Response and no error.
func (e *Engine) Handle(ev Event) (resp Response, err error) {
	start := time.Now()
	kind := "unknown"
	if ev != nil {
		kind = ev.Kind()
	}
	defer func() {
		logging.EventHandled(e.log, kind, time.Since(start), err, "handled", resp.Handled)
	}()

	switch ev := ev.(type) {
	case TextInput:
		return e.handleInput(ev)
	case Paste:
		n, err := e.PromoteAll()
		if err != nil {
			return Response{}, err
		}
		return Response{Handled: true, Result: map[string]any{"promoted": n, "refresh": e.Refresh()}}, nil
	case Click:
		a, ok := cloze.Enclosing(e.root, ev.Node)
		if !ok || !e.root.Contains(ev.Node) {
			return Response{}, nil
		}
		revealed, err := e.Toggle(a)
		if err != nil {
			return Response{}, err
		}
		return Response{Handled: true, Result: map[string]any{"revealed": revealed}}, nil
	case KeyPress:
		return e.handleKey(ev)
	case Command:
		return e.handleCommand(ev)
	}
	return Response{}, errors.NewUnsupported("event", fmt.Sprintf("%T", ev))
}

func (e *Engine) handleInput(ev TextInput) (Response, error) {
	if !strings.ContainsRune(ev.Text, '#') {
		return Response{}, nil
	}
	res, ok, err := e.PromoteAtCaret()
	if err != nil || !ok {
		return Response{}, err
	}
	return Response{Handled: true, Result: summarize(res)}, nil
}

func (e *Engine) handleKey(ev KeyPress) (Response, error) {
	if !ev.Alt || ev.Ctrl {
		return Response{}, nil
	}
	p, link := cloze.DefaultPriority, false
	switch strings.ToLower(ev.Key) {
	case "c":
		link = ev.Shift
	case "1":
		p = cloze.High
	case "2":
		p = cloze.Medium
	case "3":
		p = cloze.Low
	default:
		return Response{}, nil
	}
	res, err := e.CreateFromSelection(p, link)
	if err != nil {
		return Response{}, err
	}
	return Response{Handled: true, Result: summarize(res)}, nil
}

func (e *Engine) handleCommand(ev Command) (Response, error) {
	arg := func(i int) string {
		if i < len(ev.Args) {
			return ev.Args[i]
		}
		return ""
	}

	var result any
	switch ev.Name {
	case "refresh":
		result = e.Refresh()
	case "promote":
		res, ok, err := e.PromoteAtCaret()
		if err != nil {
			return Response{}, err
		}
		if !ok {
			return Response{}, nil
		}
		result = summarize(res)
	case "promote-all":
		n, err := e.PromoteAll()
		if err != nil {
			return Response{}, err
		}
		result = map[string]int{"promoted": n}
	case "iterate":
		result = e.AdvanceIteration()
	case "feedback":
		f, err := cloze.ParseFeedback(arg(0))
		if err != nil || !f.IsGrade() {
			return Response{}, errors.NewValidation("feedback", fmt.Sprintf("invalid grade %q", arg(0)))
		}
		a, ok := e.AnnotationAtCaret()
		if !ok {
			return Response{}, errors.NewSelection(errors.SelectionNoAnnotation)
		}
		if err := e.ApplyFeedback(a, f); err != nil {
			return Response{}, err
		}
		result = map[string]int{"score": a.Score(), "delay": a.RevisionDelay()}
	case "filter":
		s, err := cloze.ParsePrioritySet(arg(0))
		if err != nil {
			return Response{}, errors.NewValidation("priorities", err.Error())
		}
		result = e.SetVisiblePriorities(s)
	case "show-all":
		result = e.SetAllVisible(true)
	case "hide-all":
		result = e.SetAllVisible(false)
	case "create":
		p := cloze.DefaultPriority
		if s := arg(0); s != "" {
			var err error
			if p, err = cloze.ParsePriority(s); err != nil {
				return Response{}, errors.NewValidation("priority", err.Error())
			}
		}
		res, err := e.CreateFromSelection(p, arg(1) == "link")
		if err != nil {
			return Response{}, err
		}
		result = summarize(res)
	case "toggle":
		a, ok := e.AnnotationAtCaret()
		if !ok {
			return Response{}, errors.NewSelection(errors.SelectionNoAnnotation)
		}
		revealed, err := e.Toggle(a)
		if err != nil {
			return Response{}, err
		}
		result = map[string]bool{"revealed": revealed}
	case "stats":
		result = e.Stats()
	default:
		return Response{}, errors.NewUnsupported("command", ev.Name)
	}
	return Response{Handled: true, Result: result}, nil
}

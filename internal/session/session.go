package session

import (
	"context"
	"log/slog"

	"github.com/FocuswithJustin/ClozeMark/core/dom"
	"github.com/FocuswithJustin/ClozeMark/core/editor"
	"github.com/FocuswithJustin/ClozeMark/core/errors"
	"github.com/FocuswithJustin/ClozeMark/core/selection"
	"github.com/FocuswithJustin/ClozeMark/core/store"
	"github.com/FocuswithJustin/ClozeMark/internal/logging"
)

// DocumentStore is the persistence a session needs.
type DocumentStore interface {
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, markup []byte) (store.Entry, bool, error)
}

// Session is one client's editing state: a document, its engine and the
// client's selection.
type Session struct {
	id      string
	name    string
	root    dom.Node
	surface *selection.Static
	engine  *editor.Engine
	opts    editor.Options
	store   DocumentStore
	log     *slog.Logger
}

// New returns a session over an empty document. st may be nil.
func New(ctx context.Context, id string, opts editor.Options, st DocumentStore) *Session {
	s := &Session{
		id:    id,
		opts:  opts,
		store: st,
		log:   logging.LoggerFromContext(logging.WithSessionID(ctx, id)),
	}
	if s.opts.Logger == nil {
		s.opts.Logger = s.log
	}
	s.reset(dom.NewDocument("div").Body(), "")
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Engine returns the session's engine.
func (s *Session) Engine() *editor.Engine { return s.engine }

// Markup renders the current document.
func (s *Session) Markup() string { return dom.Render(s.root) }

func (s *Session) reset(root dom.Node, name string) {
	s.root = root
	s.name = name
	s.surface = &selection.Static{}
	s.engine = editor.New(root, s.surface, s.opts)
	s.engine.Refresh()
}

// Open loads a document from the store and starts a fresh engine on it.
func (s *Session) Open(ctx context.Context, name string) error {
	if s.store == nil {
		return errors.NewUnsupported("load", "no document store configured")
	}
	markup, err := s.store.Load(ctx, name)
	if err != nil {
		return err
	}
	doc, err := dom.Parse(markup)
	if err != nil {
		return err
	}
	s.reset(doc.Body(), name)
	return nil
}

// Save stores the current document.
func (s *Session) Save(ctx context.Context, name string) (store.Entry, bool, error) {
	if s.store == nil {
		return store.Entry{}, false, errors.NewUnsupported("save", "no document store configured")
	}
	if name == "" {
		name = s.name
	}
	if name == "" {
		return store.Entry{}, false, errors.NewValidation("document", "no document name")
	}
	entry, changed, err := s.store.Save(ctx, name, []byte(s.Markup()))
	if err == nil {
		s.name = name
	}
	return entry, changed, err
}

// replaceContent swaps the root's children for those parsed from markup.
// The engine keeps running on the same root.
func (s *Session) replaceContent(markup string) error {
	doc, err := dom.ParseString(markup)
	if err != nil {
		return err
	}
	for _, c := range s.root.Children() {
		c.Remove()
	}
	for _, c := range doc.Body().Children() {
		s.root.AppendChild(c)
	}
	s.surface.Clear()
	s.engine.Refresh()
	return nil
}

// Process handles one client message and builds the reply.
func (s *Session) Process(ctx context.Context, msg ClientMessage) ServerMessage {
	reply := ServerMessage{Type: TypeResult, Session: s.id}
	resp, err := s.process(ctx, msg)
	if err != nil {
		reply.Type = TypeError
		reply.Error = err.Error()
	} else {
		reply.Handled = resp.Handled
		reply.Result = resp.Result
	}
	reply.Markup = s.Markup()
	if r, ok := s.surface.Selection(); ok {
		reply.Selection = selection.Capture(s.root, r)
	}
	return reply
}

func (s *Session) process(ctx context.Context, msg ClientMessage) (editor.Response, error) {
	switch msg.Type {
	case TypeLoad:
		if err := s.Open(ctx, msg.Document); err != nil {
			return editor.Response{}, err
		}
		return editor.Response{Handled: true, Result: map[string]string{"document": s.name}}, nil
	case TypeSave:
		entry, changed, err := s.Save(ctx, msg.Document)
		if err != nil {
			return editor.Response{}, err
		}
		return editor.Response{Handled: true, Result: map[string]any{"entry": entry, "changed": changed}}, nil
	}

	if msg.Markup != "" {
		if err := s.replaceContent(msg.Markup); err != nil {
			return editor.Response{}, err
		}
	}
	if msg.Selection != nil {
		s.surface.SetSelection(selection.Restore(s.root, msg.Selection))
	}
	ev, err := toEvent(s.root, msg)
	if err != nil {
		return editor.Response{}, err
	}
	return s.engine.Handle(ev)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/microcosm-cc/bluemonday"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/delaneyj/stitch/dom"
	"github.com/delaneyj/stitch/host"
	"github.com/delaneyj/stitch/internal/config"
	"github.com/delaneyj/stitch/markup"
	"github.com/delaneyj/stitch/view"
)

var errNoTemplate = errors.New("missing template argument")

// session is one template mounted into a fresh document.
type session struct {
	doc  *dom.Document
	root *dom.Node
	inst *view.Instance
}

func mountSession(tmpl *markup.Template, state map[string]any, logger *zap.Logger) (*session, error) {
	doc := dom.New()
	root := doc.CreateElement("body").(*dom.Node)
	inst, err := view.MountTemplate(doc, root, tmpl, state, view.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return &session{doc: doc, root: root, inst: inst}, nil
}

// dispatch delivers ev to the Index-th element with the event's tag.
func (s *session) dispatch(ev config.Event) error {
	matches := dom.FindAll(s.root, ev.Tag)
	if ev.Index >= len(matches) {
		return fmt.Errorf("event %q: %d <%s> elements", ev, len(matches), ev.Tag)
	}
	target := matches[ev.Index]
	switch {
	case ev.HasValue && ev.Type == "input":
		s.doc.Input(target, ev.Value)
	case ev.HasValue && ev.Type == "change":
		s.doc.Change(target, ev.Value)
	default:
		if ev.HasValue {
			s.doc.SetValue(target, ev.Value)
		}
		s.doc.Dispatch(target, &host.Event{Type: ev.Type})
	}
	return nil
}

func (s *session) html() string {
	return dom.InnerHTML(s.root)
}

func (s *session) close() {
	s.inst.Unmount()
}

// input gathers everything render and stats share.
type input struct {
	tmpl   *markup.Template
	state  map[string]any
	events []config.Event
	logger *zap.Logger
}

func readInput(cmd *cli.Command) (*input, error) {
	path := cmd.Args().First()
	if path == "" {
		return nil, errNoTemplate
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tmpl, err := markup.Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	state, err := config.LoadState(cmd.String(stateKey))
	if err != nil {
		return nil, err
	}

	var events []config.Event
	if script := cmd.String(scriptKey); script != "" {
		if events, err = config.LoadScript(script); err != nil {
			return nil, fmt.Errorf("%s: %w", script, err)
		}
	}
	for _, raw := range cmd.StringSlice(eventKey) {
		ev, err := config.ParseEvent(raw)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}

	logger, err := newLogger(cmd.Bool(verboseKey))
	if err != nil {
		return nil, err
	}
	return &input{tmpl: tmpl, state: state, events: events, logger: logger}, nil
}

// run mounts the input and replays its events.
func (in *input) run() (*session, error) {
	s, err := mountSession(in.tmpl, in.state, in.logger)
	if err != nil {
		return nil, err
	}
	for _, ev := range in.events {
		if err := s.dispatch(ev); err != nil {
			s.close()
			return nil, err
		}
	}
	return s, nil
}

func render(ctx context.Context, cmd *cli.Command) error {
	in, err := readInput(cmd)
	if err != nil {
		return err
	}
	defer in.logger.Sync()

	s, err := in.run()
	if err != nil {
		return err
	}
	defer s.close()

	out := s.html()
	if cmd.Bool(sanitizeKey) {
		out = bluemonday.UGCPolicy().Sanitize(out)
	}
	_, err = fmt.Fprintln(cmd.Root().Writer, out)
	return err
}

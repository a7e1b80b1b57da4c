// Package config loads the inputs the stitch CLI feeds a mounted template:
// initial state documents and scripted events.
package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrEmptyEvent = errors.New("config: empty event")

// LoadState reads a YAML (or JSON) document whose top level is a mapping.
// An empty path yields an empty state.
func LoadState(path string) (map[string]any, error) {
	if path == "" {
		return map[string]any{}, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read state: %w", err)
	}
	return DecodeState(b)
}

func DecodeState(b []byte) (map[string]any, error) {
	state := map[string]any{}
	if len(bytes.TrimSpace(b)) == 0 {
		return state, nil
	}
	if err := yaml.Unmarshal(b, &state); err != nil {
		return nil, fmt.Errorf("config: decode state: %w", err)
	}
	return normalize(state).(map[string]any), nil
}

// normalize turns yaml's map[any]any into map[string]any, all the way
// down, so observed objects can wrap nested mappings.
func normalize(v any) any {
	switch v := v.(type) {
	case map[string]any:
		for k, x := range v {
			v[k] = normalize(x)
		}
		return v
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, x := range v {
			out[fmt.Sprint(k)] = normalize(x)
		}
		return out
	case []any:
		for i, x := range v {
			v[i] = normalize(x)
		}
		return v
	default:
		return v
	}
}

// Event is one scripted interaction: deliver Type to the Index-th element
// with tag Tag, optionally setting its value first.
type Event struct {
	Type     string
	Tag      string
	Index    int
	Value    string
	HasValue bool
}

func (e Event) String() string {
	s := fmt.Sprintf("%s %s:%d", e.Type, e.Tag, e.Index)
	if e.HasValue {
		s += "=" + e.Value
	}
	return s
}

// ParseEvent parses "<type> <tag>[:<index>][=<value>]", for example
// "click button", "click li:2" or "input input=hello world".
func ParseEvent(s string) (Event, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Event{}, ErrEmptyEvent
	}
	typ, target, ok := strings.Cut(s, " ")
	if !ok {
		return Event{}, fmt.Errorf("config: event %q: missing target", s)
	}
	ev := Event{Type: typ}
	target = strings.TrimLeft(target, " ")
	if sel, value, ok := strings.Cut(target, "="); ok {
		target, ev.Value, ev.HasValue = sel, value, true
	}
	target = strings.TrimSpace(target)
	if tag, idx, ok := strings.Cut(target, ":"); ok {
		n, err := strconv.Atoi(idx)
		if err != nil || n < 0 {
			return Event{}, fmt.Errorf("config: event %q: bad index %q", s, idx)
		}
		target, ev.Index = tag, n
	}
	if target == "" || strings.ContainsAny(target, " \t") {
		return Event{}, fmt.Errorf("config: event %q: bad target %q", s, target)
	}
	ev.Tag = strings.ToLower(target)
	return ev, nil
}

// ReadScript reads one event per line. Blank lines and lines starting
// with # are skipped.
func ReadScript(r io.Reader) ([]Event, error) {
	var events []Event
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		ev, err := ParseEvent(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("config: read script: %w", err)
	}
	return events, nil
}

func LoadScript(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open script: %w", err)
	}
	defer f.Close()
	return ReadScript(f)
}

package markup

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/delaneyj/stitch/expr"
)

type DirectiveKind uint8

const (
	DirectiveText DirectiveKind = iota + 1
	DirectiveBind
	DirectiveIf
	DirectiveElseIf
	DirectiveElse
	DirectiveFor
	DirectiveOn
	DirectiveModel
	DirectiveKey
)

func (k DirectiveKind) String() string {
	switch k {
	case DirectiveText:
		return "v-text"
	case DirectiveBind:
		return "v-bind"
	case DirectiveIf:
		return "v-if"
	case DirectiveElseIf:
		return "v-else-if"
	case DirectiveElse:
		return "v-else"
	case DirectiveFor:
		return "v-for"
	case DirectiveOn:
		return "v-on"
	case DirectiveModel:
		return "v-model"
	case DirectiveKey:
		return "key"
	default:
		return fmt.Sprintf("directive(%d)", uint8(k))
	}
}

// Directive is one parsed directive attribute.
type Directive struct {
	Kind DirectiveKind
	// Name is the attribute as written.
	Name string
	// Arg is the bound attribute for v-bind and the event type for v-on.
	Arg       string
	Modifiers []string
	Source    string

	// X is set for every kind except v-on and v-else. For v-for it is the
	// list expression.
	X *expr.Expr
	// Handler is the v-on statement list; nil for a bare modifier-only
	// listener such as @submit.prevent.
	Handler *expr.Program

	Item  string
	Index string
}

func (d *Directive) HasModifier(m string) bool {
	return slices.Contains(d.Modifiers, m)
}

func (d *Directive) String() string {
	return d.Name + `="` + d.Source + `"`
}

var (
	forPattern = regexp.MustCompile(`^\s*(?:\(\s*([A-Za-z_$][\w$]*)\s*(?:,\s*([A-Za-z_$][\w$]*)\s*)?\)|([A-Za-z_$][\w$]*)(?:\s*,\s*([A-Za-z_$][\w$]*))?)\s+(?:in|of)\s+(\S.*)$`)

	eventModifiers = []string{"prevent", "stop", "self", "once"}
	modelModifiers = []string{"lazy", "trim", "number"}
)

// parseDirective classifies one attribute. A nil directive with a nil error
// means the attribute is plain. Errors are expression failures and are
// fatal to the parse.
func parseDirective(name, value string) (*Directive, error) {
	d := &Directive{Name: name, Source: value}

	switch {
	case name == "v-for":
		m := forPattern.FindStringSubmatch(value)
		if m == nil {
			return nil, nil
		}
		d.Kind = DirectiveFor
		d.Item, d.Index = m[1], m[2]
		if d.Item == "" {
			d.Item, d.Index = m[3], m[4]
		}
		return d, compileInto(d, m[5])

	case name == "v-if":
		d.Kind = DirectiveIf
		return d, compileInto(d, value)

	case name == "v-else-if":
		d.Kind = DirectiveElseIf
		return d, compileInto(d, value)

	case name == "v-else":
		d.Kind = DirectiveElse
		return d, nil

	case name == "v-text":
		d.Kind = DirectiveText
		return d, compileInto(d, value)

	case name == "v-model" || strings.HasPrefix(name, "v-model."):
		mods := strings.Split(name, ".")[1:]
		if !allKnown(mods, modelModifiers) {
			return nil, nil
		}
		d.Kind = DirectiveModel
		d.Modifiers = mods
		if err := compileInto(d, value); err != nil {
			return nil, err
		}
		if !d.X.Assignable() {
			return nil, fmt.Errorf("v-model needs an assignable expression, got %q", value)
		}
		return d, nil

	case strings.HasPrefix(name, "@") || strings.HasPrefix(name, "v-on:"):
		rest := strings.TrimPrefix(strings.TrimPrefix(name, "@"), "v-on:")
		parts := strings.Split(rest, ".")
		if parts[0] == "" || !allKnown(parts[1:], eventModifiers) {
			return nil, nil
		}
		d.Kind = DirectiveOn
		d.Arg = parts[0]
		d.Modifiers = parts[1:]
		if strings.TrimSpace(value) == "" {
			return d, nil
		}
		prog, err := expr.CompileStatements(value)
		if err != nil {
			return nil, err
		}
		d.Handler = prog
		return d, nil

	case strings.HasPrefix(name, ":") || strings.HasPrefix(name, "v-bind:"):
		arg := strings.TrimPrefix(strings.TrimPrefix(name, ":"), "v-bind:")
		if arg == "" || strings.ContainsAny(arg, ".:") {
			return nil, nil
		}
		d.Kind = DirectiveBind
		if arg == "key" {
			d.Kind = DirectiveKey
		}
		d.Arg = arg
		return d, compileInto(d, value)
	}
	return nil, nil
}

func compileInto(d *Directive, src string) error {
	x, err := expr.Compile(src)
	if err != nil {
		return err
	}
	d.X = x
	return nil
}

func allKnown(mods, known []string) bool {
	for _, m := range mods {
		if !slices.Contains(known, m) {
			return false
		}
	}
	return true
}

package templates

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// File is one generated accessor file.
type File struct {
	Source  string
	Package string
	Structs []Struct
}

// Struct is a type marked reactive. Fields keep declaration order, which
// fixes their index in signals.Fields.
type Struct struct {
	Name   string
	Fields []Field
}

type Field struct {
	Name  string
	Type  string
	Index int
}

func (s Struct) Receiver() string {
	r, _ := utf8.DecodeRuneInString(s.Name)
	return string(unicode.ToLower(r))
}

func (f Field) Getter() string {
	return exported(f.Name)
}

func (f Field) Setter() string {
	return "Set" + exported(f.Name)
}

func exported(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:]
}

func fieldNames(fields []Field) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return strings.Join(names, ", ")
}

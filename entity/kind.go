package entity

import (
	"github.com/beevik/etree"
)

// Reader extracts a field from a snapshot root. A nil value with a nil error
// means the node is absent and the field default applies.
type Reader func(root *etree.Element) (any, error)

// Writer appends the field's element(s) for value under root.
type Writer func(root *etree.Element, value any) error

type Field struct {
	Name    string
	Read    Reader
	Write   Writer
	Default any
	// Always forces the field into every payload using its effective value.
	Always bool
}

// Kind describes one document vocabulary: its root tag and its fields in
// the element order the server expects.
type Kind struct {
	Tag    string
	fields []Field
	index  map[string]int
}

func NewKind(tag string, fields ...Field) *Kind {
	kind := &Kind{
		Tag:    tag,
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, field := range fields {
		kind.index[field.Name] = len(kind.fields)
		kind.fields = append(kind.fields, field)
	}
	return kind
}

func (k *Kind) Field(name string) (Field, bool) {
	idx, found := k.index[name]
	if !found {
		return Field{}, false
	}
	return k.fields[idx], true
}

func (k *Kind) Fields() []Field {
	fields := make([]Field, len(k.fields))
	copy(fields, k.fields)
	return fields
}

func ReadOnly(field Field) Field {
	field.Write = nil
	return field
}

func Mandatory(field Field) Field {
	field.Always = true
	return field
}

func WithDefault(field Field, value any) Field {
	field.Default = value
	return field
}

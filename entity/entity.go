// Package entity implements the lazily fetched, mutation-tracked proxy that
// every catalog object is built on.
//
// An Entity knows its identity key (the service-relative path of its XML
// document), an optional snapshot fetched on first read, and a set of pending
// field mutations. Reads consult pending mutations first and only then
// materialize the snapshot. Materialize turns pending mutations into the
// payload sent on save.
package entity

import (
	"context"
	"fmt"
	"sort"

	"github.com/beevik/etree"
)

// Fetcher is the read path an entity uses to materialize its snapshot.
type Fetcher interface {
	GetXML(ctx context.Context, key string) (*etree.Document, error)
}

type pendingValue struct {
	cleared bool
	value   any
}

type Entity struct {
	kind       *Kind
	createKind *Kind
	identity   string
	createPath string
	attached   bool
	deleted    bool
	fetcher    Fetcher

	snapshot *etree.Element
	pending  map[string]pendingValue
}

type Option func(*Entity)

// WithCreateKind makes an unsaved entity materialize with a different
// vocabulary than the one it is read with once attached.
func WithCreateKind(kind *Kind) Option {
	return func(e *Entity) {
		e.createKind = kind
	}
}

// WithSnapshot seeds an attached entity with an already parsed document.
func WithSnapshot(root *etree.Element) Option {
	return func(e *Entity) {
		e.snapshot = root
	}
}

// NewAttached builds a proxy for an object that exists on the server.
func NewAttached(kind *Kind, identity string, fetcher Fetcher, opts ...Option) *Entity {
	e := &Entity{
		kind:     kind,
		identity: identity,
		attached: true,
		fetcher:  fetcher,
		pending:  map[string]pendingValue{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewUnsaved builds a proxy for an object that will be created by POSTing to
// createPath. identity is where the object will live once created.
func NewUnsaved(kind *Kind, identity string, createPath string, fetcher Fetcher, opts ...Option) *Entity {
	e := NewAttached(kind, identity, fetcher, opts...)
	e.attached = false
	e.createPath = createPath
	return e
}

func (e *Entity) Identity() string {
	return e.identity
}

func (e *Entity) CreatePath() string {
	return e.createPath
}

func (e *Entity) Kind() *Kind {
	return e.kind
}

func (e *Entity) Attached() bool {
	return e.attached
}

// Deleted reports whether a delete of this object succeeded. A deleted
// entity accepts no further mutations.
func (e *Entity) Deleted() bool {
	return e.deleted
}

func (e *Entity) Dirty() bool {
	return len(e.pending) > 0
}

// PendingFields lists mutated field names in sorted order.
func (e *Entity) PendingFields() []string {
	names := make([]string, 0, len(e.pending))
	for name := range e.pending {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *Entity) Get(ctx context.Context, name string) (any, error) {
	field, found := e.kind.Field(name)
	if !found {
		if e.createKind == nil {
			return nil, interpretationError(fmt.Sprintf("%s has no field %q", e.kind.Tag, name), nil)
		}
		if field, found = e.createKind.Field(name); !found {
			return nil, interpretationError(fmt.Sprintf("%s has no field %q", e.kind.Tag, name), nil)
		}
	}

	if pending, ok := e.pending[name]; ok {
		if pending.cleared {
			return nil, nil
		}
		return pending.value, nil
	}

	root, err := e.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if root == nil || field.Read == nil {
		return field.Default, nil
	}

	value, err := field.Read(root)
	if err != nil {
		return nil, parsingError(fmt.Sprintf("%s field %q of %s", e.kind.Tag, name, e.identity), err)
	}
	if value == nil {
		return field.Default, nil
	}
	return value, nil
}

func (e *Entity) Set(name string, value any) error {
	if err := e.checkWritable(name); err != nil {
		return err
	}
	e.pending[name] = pendingValue{value: value}
	return nil
}

// Unset records an explicit clear: the field is left out of the payload
// instead of being written with its previous value.
func (e *Entity) Unset(name string) error {
	if err := e.checkWritable(name); err != nil {
		return err
	}
	e.pending[name] = pendingValue{cleared: true}
	return nil
}

func (e *Entity) checkWritable(name string) error {
	if e.deleted {
		return interpretationError(fmt.Sprintf("%s was deleted", e.identity), nil)
	}
	field, found := e.writeKind().Field(name)
	if !found {
		return interpretationError(fmt.Sprintf("%s has no field %q", e.writeKind().Tag, name), nil)
	}
	if field.Write == nil {
		return interpretationError(fmt.Sprintf("%s field %q is read-only", e.writeKind().Tag, name), nil)
	}
	return nil
}

func (e *Entity) writeKind() *Kind {
	if !e.attached && e.createKind != nil {
		return e.createKind
	}
	return e.kind
}

// Snapshot returns the fetched document root, fetching it on first use.
// Unsaved entities have no remote document and return nil.
func (e *Entity) Snapshot(ctx context.Context) (*etree.Element, error) {
	if e.snapshot != nil || !e.attached {
		return e.snapshot, nil
	}
	if e.fetcher == nil {
		return nil, nil
	}

	document, err := e.fetcher.GetXML(ctx, e.identity)
	if err != nil {
		return nil, err
	}
	root := document.Root()
	if root == nil {
		return nil, parsingError(fmt.Sprintf("%s has no root element", e.identity), nil)
	}
	if root.Tag != e.kind.Tag {
		return nil, parsingError(
			fmt.Sprintf("%s: expected <%s> document, got <%s>", e.identity, e.kind.Tag, root.Tag),
			nil,
		)
	}
	e.snapshot = root
	return root, nil
}

// Materialize builds the payload for the next save: every written field that
// is pending, plus fields marked Always using their effective value.
func (e *Entity) Materialize(ctx context.Context) ([]byte, error) {
	kind := e.writeKind()

	document := etree.NewDocument()
	root := document.CreateElement(kind.Tag)
	for _, field := range kind.fields {
		if field.Write == nil {
			continue
		}

		var value any
		pending, isPending := e.pending[field.Name]
		switch {
		case isPending && pending.cleared:
			continue
		case isPending:
			value = pending.value
		case field.Always:
			effective, err := e.Get(ctx, field.Name)
			if err != nil {
				return nil, err
			}
			value = effective
		default:
			continue
		}
		if value == nil {
			continue
		}

		if err := field.Write(root, value); err != nil {
			return nil, err
		}
	}

	payload, err := document.WriteToBytes()
	if err != nil {
		return nil, interpretationError("failed to serialize "+kind.Tag, err)
	}
	return payload, nil
}

// Discard drops pending mutations and keeps the snapshot.
func (e *Entity) Discard() {
	e.pending = map[string]pendingValue{}
}

// Refresh drops pending mutations and the snapshot so the next read fetches.
func (e *Entity) Refresh() {
	e.pending = map[string]pendingValue{}
	e.snapshot = nil
}

// MarkSaved records a successful save: the entity is attached, clean, and
// will re-read the server's view lazily.
func (e *Entity) MarkSaved() {
	e.attached = true
	e.Refresh()
}

// MarkDeleted moves the entity to its terminal state.
func (e *Entity) MarkDeleted() {
	e.deleted = true
	e.attached = false
	e.pending = map[string]pendingValue{}
	e.snapshot = nil
}

package catalog

import (
	"fmt"
	"strings"
)

// Named is implemented by every catalog object.
type Named interface {
	Name() string
}

// ResolveName coerces a loose reference into a name: nil resolves to "",
// a string to itself, and a Named value to its name. Anything else is an
// InterpretationError.
func ResolveName(ref any) (string, error) {
	switch typed := ref.(type) {
	case nil:
		return "", nil
	case string:
		return typed, nil
	case Named:
		if isNilNamed(typed) {
			return "", nil
		}
		return typed.Name(), nil
	default:
		return "", interpretationError(fmt.Sprintf("cannot resolve a name from %T", ref), nil)
	}
}

func isNilNamed(value Named) bool {
	switch typed := value.(type) {
	case *Workspace:
		return typed == nil
	case *Store:
		return typed == nil
	case *Resource:
		return typed == nil
	case *Layer:
		return typed == nil
	case *LayerGroup:
		return typed == nil
	case *Style:
		return typed == nil
	default:
		return false
	}
}

// SplitNames flattens filter arguments: each value may itself be a comma
// delimited list. Blank items are dropped.
func SplitNames(values ...string) []string {
	names := make([]string, 0, len(values))
	for _, value := range values {
		for _, item := range strings.Split(value, ",") {
			item = strings.TrimSpace(item)
			if item != "" {
				names = append(names, item)
			}
		}
	}
	return names
}

// nameFilter matches names exactly and case-sensitively. An empty filter
// matches everything.
type nameFilter map[string]struct{}

func newNameFilter(values []string) nameFilter {
	names := SplitNames(values...)
	if len(names) == 0 {
		return nil
	}
	filter := make(nameFilter, len(names))
	for _, name := range names {
		filter[name] = struct{}{}
	}
	return filter
}

func (f nameFilter) match(name string) bool {
	if f == nil {
		return true
	}
	_, found := f[name]
	return found
}

func filterNamed[T Named](items []T, values []string) []T {
	filter := newNameFilter(values)
	if filter == nil {
		return items
	}
	matched := make([]T, 0, len(items))
	for _, item := range items {
		if filter.match(item.Name()) {
			matched = append(matched, item)
		}
	}
	return matched
}

// qualifiedName splits "ws:name" into its parts.
func qualifiedName(value string) (workspace string, name string) {
	if prefix, local, found := strings.Cut(value, ":"); found {
		return prefix, local
	}
	return "", value
}

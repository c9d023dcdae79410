package catalog

import (
	"context"
	"fmt"

	"github.com/planetfederal/gsconfig/transport"
)

type Style struct {
	object
}

func styleCollection(workspace string) string {
	if workspace == "" {
		return "/styles"
	}
	return "/workspaces/" + segment(workspace) + "/styles"
}

func styleKey(workspace string, name string) string {
	return styleCollection(workspace) + "/" + segment(name) + ".xml"
}

func styleBodyKey(workspace string, name string) string {
	return styleCollection(workspace) + "/" + segment(name) + ".sld"
}

func (c *Catalog) newStyle(workspace string, name string) *Style {
	return &Style{object: c.attached(styleKind, styleKey(workspace, name), name, workspace)}
}

// Body returns the style's SLD document as stored on the server.
func (s *Style) Body(ctx context.Context) ([]byte, error) {
	if !s.Attached() {
		return nil, validationError(fmt.Sprintf("style %q has not been created", s.name), nil)
	}
	return s.catalog.getRaw(ctx, styleBodyKey(s.workspace, s.name), transport.MediaTypeSLD)
}

// ListStyles lists global styles and workspace styles, narrowed by the
// workspace and name filters like ListLayerGroups.
func (c *Catalog) ListStyles(ctx context.Context, names []string, workspaces []string) ([]*Style, error) {
	scopes, err := c.scopes(ctx, workspaces)
	if err != nil {
		return nil, err
	}

	styles := []*Style{}
	for _, workspace := range scopes {
		found, err := c.listNames(ctx, styleCollection(workspace)+".xml", "style")
		if err != nil {
			return nil, err
		}
		for _, name := range found {
			styles = append(styles, c.newStyle(workspace, name))
		}
	}
	return filterNamed(styles, names), nil
}

// GetStyle finds a style by name. A "workspace:name" reference or an
// explicit workspace selects a workspace style; otherwise the global style.
func (c *Catalog) GetStyle(ctx context.Context, name string, workspace any) (*Style, error) {
	workspaceName, err := ResolveName(workspace)
	if err != nil {
		return nil, err
	}
	if prefix, local := qualifiedName(name); prefix != "" {
		if workspaceName != "" && workspaceName != prefix {
			return nil, ambiguousRequest(fmt.Sprintf("style %q does not belong to workspace %q", name, workspaceName))
		}
		workspaceName, name = prefix, local
	}

	styles, err := c.ListStyles(ctx, []string{name}, optional(workspaceName))
	if err != nil {
		return nil, err
	}
	styles = inScope(styles, workspaceName)
	if len(styles) == 0 {
		return nil, notFoundError(fmt.Sprintf("style %q not found", name))
	}
	return styles[0], nil
}

// CreateStyle uploads an SLD document as a new style. With overwrite an
// existing style of the same name in scope gets its body replaced instead.
func (c *Catalog) CreateStyle(ctx context.Context, name string, sld []byte, overwrite bool, workspace any) (*Style, error) {
	if name == "" {
		return nil, validationError("style name is required", nil)
	}
	if len(sld) == 0 {
		return nil, validationError(fmt.Sprintf("style %q has an empty SLD body", name), nil)
	}
	workspaceName, err := ResolveName(workspace)
	if err != nil {
		return nil, err
	}

	taken, err := nameTaken(ctx, c, workspaceName, name, c.ListStyles)
	if err != nil {
		return nil, err
	}
	if taken {
		if !overwrite {
			return nil, conflictingData(fmt.Sprintf("style %q already exists", name))
		}
		existing, err := c.GetStyle(ctx, name, workspaceName)
		if err != nil {
			return nil, err
		}
		if err := c.UpdateStyleBody(ctx, existing, sld); err != nil {
			return nil, err
		}
		return existing, nil
	}

	_, err = c.send(ctx, transport.Request{
		Method:      "POST",
		Path:        styleCollection(workspaceName),
		Query:       map[string]string{"name": name},
		ContentType: transport.MediaTypeSLD,
		Body:        sld,
	})
	if err != nil {
		return nil, err
	}
	return c.newStyle(workspaceName, name), nil
}

// UpdateStyleBody replaces the SLD document of an existing style.
func (c *Catalog) UpdateStyleBody(ctx context.Context, style *Style, sld []byte) error {
	if style == nil || !style.Attached() {
		return validationError("style must exist before its body can be replaced", nil)
	}
	_, err := c.send(ctx, transport.Request{
		Method:      "PUT",
		Path:        styleCollection(style.workspace) + "/" + segment(style.name),
		ContentType: transport.MediaTypeSLD,
		Body:        sld,
	})
	if err != nil {
		return err
	}
	style.Refresh()
	return nil
}

type scoped interface {
	Named
	Workspace() string
}

// nameTaken checks whether name is used in the uniqueness scope of styles
// and layer groups: the whole catalog before GeoServer 2.2, the given
// workspace (or the global scope) afterwards.
func nameTaken[T scoped](ctx context.Context, c *Catalog, workspace string, name string, list func(context.Context, []string, []string) ([]T, error)) (bool, error) {
	global, err := c.globalNames(ctx)
	if err != nil {
		return false, err
	}

	if global {
		items, err := list(ctx, []string{name}, nil)
		if err != nil {
			return false, err
		}
		return len(items) > 0, nil
	}

	items, err := list(ctx, []string{name}, optional(workspace))
	if err != nil {
		return false, err
	}
	return len(inScope(items, workspace)) > 0, nil
}

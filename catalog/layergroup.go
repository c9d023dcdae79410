package catalog

import (
	"context"
	"fmt"

	"github.com/planetfederal/gsconfig/entity"
)

// LayerGroup pairs layers[i] with styles[i]; an empty style name means the
// layer's default style. The mutation helpers always change both lists.
type LayerGroup struct {
	object
}

func layerGroupCollection(workspace string) string {
	if workspace == "" {
		return "/layergroups"
	}
	return "/workspaces/" + segment(workspace) + "/layergroups"
}

func layerGroupKey(workspace string, name string) string {
	return layerGroupCollection(workspace) + "/" + segment(name) + ".xml"
}

func (c *Catalog) newLayerGroup(workspace string, name string) *LayerGroup {
	return &LayerGroup{object: c.attached(layerGroupKind, layerGroupKey(workspace, name), name, workspace)}
}

// ListLayerGroups lists global groups and the groups of every workspace
// matching the filter. With a workspace filter only those workspaces are
// listed.
func (c *Catalog) ListLayerGroups(ctx context.Context, names []string, workspaces []string) ([]*LayerGroup, error) {
	scopes, err := c.scopes(ctx, workspaces)
	if err != nil {
		return nil, err
	}

	groups := []*LayerGroup{}
	for _, workspace := range scopes {
		found, err := c.listNames(ctx, layerGroupCollection(workspace)+".xml", "layerGroup")
		if err != nil {
			return nil, err
		}
		for _, name := range found {
			groups = append(groups, c.newLayerGroup(workspace, name))
		}
	}
	return filterNamed(groups, names), nil
}

// scopes returns "" for the global scope followed by the workspace names
// matching the filter, or only the filtered workspaces when one is given.
func (c *Catalog) scopes(ctx context.Context, workspaces []string) ([]string, error) {
	filtered := SplitNames(workspaces...)
	resolved, err := c.ListWorkspaces(ctx, filtered...)
	if err != nil {
		return nil, err
	}

	scopes := make([]string, 0, len(resolved)+1)
	if len(filtered) == 0 {
		scopes = append(scopes, "")
	}
	for _, workspace := range resolved {
		scopes = append(scopes, workspace.Name())
	}
	return scopes, nil
}

func (c *Catalog) GetLayerGroup(ctx context.Context, name string, workspace any) (*LayerGroup, error) {
	workspaceName, err := ResolveName(workspace)
	if err != nil {
		return nil, err
	}
	groups, err := c.ListLayerGroups(ctx, []string{name}, optional(workspaceName))
	if err != nil {
		return nil, err
	}
	if workspaceName == "" {
		groups = inScope(groups, "")
	}
	if len(groups) == 0 {
		return nil, notFoundError(fmt.Sprintf("layer group %q not found", name))
	}
	return groups[0], nil
}

func inScope[T interface{ Workspace() string }](items []T, workspace string) []T {
	matched := []T{}
	for _, item := range items {
		if item.Workspace() == workspace {
			matched = append(matched, item)
		}
	}
	return matched
}

// CreateLayerGroup returns an unsaved group. styles may be nil, in which
// case every layer uses its default style; otherwise it must pair 1:1 with
// layers.
func (c *Catalog) CreateLayerGroup(ctx context.Context, name string, layers []string, styles []string, workspace any) (*LayerGroup, error) {
	if name == "" {
		return nil, validationError("layer group name is required", nil)
	}
	workspaceName, err := ResolveName(workspace)
	if err != nil {
		return nil, err
	}
	if styles == nil {
		styles = make([]string, len(layers))
	}
	if len(layers) != len(styles) {
		return nil, validationError(fmt.Sprintf("layer group %q has %d layers but %d styles", name, len(layers), len(styles)), nil)
	}

	conflict, err := nameTaken(ctx, c, workspaceName, name, c.ListLayerGroups)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, conflictingData(fmt.Sprintf("layer group %q already exists", name))
	}

	group := &LayerGroup{object: c.unsaved(
		layerGroupKind, layerGroupKey(workspaceName, name), layerGroupCollection(workspaceName), name, workspaceName,
	)}
	if err := group.Set("name", name); err != nil {
		return nil, err
	}
	if workspaceName != "" {
		if err := group.Set("workspace", workspaceName); err != nil {
			return nil, err
		}
	}
	if err := group.SetLayers(layers, styles); err != nil {
		return nil, err
	}
	return group, nil
}

// Layers returns the group's layer names and the paired style names. A
// style list shorter than the layer list is padded with default styles.
func (g *LayerGroup) Layers(ctx context.Context) ([]string, []string, error) {
	layers, err := getStrings(ctx, g.Entity, "layers")
	if err != nil {
		return nil, nil, err
	}
	styles, err := getStrings(ctx, g.Entity, "styles")
	if err != nil {
		return nil, nil, err
	}
	for len(styles) < len(layers) {
		styles = append(styles, "")
	}
	return layers, styles[:len(layers)], nil
}

func (g *LayerGroup) SetLayers(layers []string, styles []string) error {
	if len(layers) != len(styles) {
		return validationError(fmt.Sprintf("layer group %q: %d layers but %d styles", g.name, len(layers), len(styles)), nil)
	}
	if err := g.Entity.Set("layers", append([]string{}, layers...)); err != nil {
		return err
	}
	return g.Entity.Set("styles", append([]string{}, styles...))
}

// Set records a pending field value. The layers and styles lists only
// change together, through SetLayers and the other mutation helpers.
func (g *LayerGroup) Set(name string, value any) error {
	if err := checkUnpaired(g, name); err != nil {
		return err
	}
	return g.Entity.Set(name, value)
}

func (g *LayerGroup) Unset(name string) error {
	if err := checkUnpaired(g, name); err != nil {
		return err
	}
	return g.Entity.Unset(name)
}

func checkUnpaired(g *LayerGroup, field string) error {
	if field == "layers" || field == "styles" {
		return validationError(fmt.Sprintf("layer group %q: %s must change through SetLayers", g.name, field), nil)
	}
	return nil
}

// InsertLayer adds layer, drawn with style, at index. An index past the end
// appends.
func (g *LayerGroup) InsertLayer(ctx context.Context, index int, layer any, style any) error {
	layerName, err := ResolveName(layer)
	if err != nil {
		return err
	}
	if layerName == "" {
		return validationError("layer name is required", nil)
	}
	styleName, err := styleNameOf(style)
	if err != nil {
		return err
	}

	layers, styles, err := g.Layers(ctx)
	if err != nil {
		return err
	}
	if index < 0 {
		return validationError(fmt.Sprintf("invalid layer group index %d", index), nil)
	}
	if index > len(layers) {
		index = len(layers)
	}
	layers = append(layers[:index], append([]string{layerName}, layers[index:]...)...)
	styles = append(styles[:index], append([]string{styleName}, styles[index:]...)...)
	return g.SetLayers(layers, styles)
}

// RemoveLayer drops the first occurrence of layer together with its style.
func (g *LayerGroup) RemoveLayer(ctx context.Context, layer any) error {
	layerName, err := ResolveName(layer)
	if err != nil {
		return err
	}
	layers, styles, err := g.Layers(ctx)
	if err != nil {
		return err
	}
	for index, name := range layers {
		if name != layerName {
			continue
		}
		layers = append(layers[:index], layers[index+1:]...)
		styles = append(styles[:index], styles[index+1:]...)
		return g.SetLayers(layers, styles)
	}
	return notFoundError(fmt.Sprintf("layer %q is not in layer group %q", layerName, g.name))
}

// MoveLayer reorders the layer at from to position to.
func (g *LayerGroup) MoveLayer(ctx context.Context, from int, to int) error {
	layers, styles, err := g.Layers(ctx)
	if err != nil {
		return err
	}
	if from < 0 || from >= len(layers) || to < 0 || to >= len(layers) {
		return validationError(fmt.Sprintf("cannot move layer %d to %d in a group of %d", from, to, len(layers)), nil)
	}

	layer, style := layers[from], styles[from]
	layers = append(layers[:from], layers[from+1:]...)
	styles = append(styles[:from], styles[from+1:]...)
	layers = append(layers[:to], append([]string{layer}, layers[to:]...)...)
	styles = append(styles[:to], append([]string{style}, styles[to:]...)...)
	return g.SetLayers(layers, styles)
}

// SetBounds overrides the group's bounds; by default the server computes
// them from its layers.
func (g *LayerGroup) SetBounds(bounds entity.BBox) error {
	return g.Set("bounds", bounds)
}

func styleNameOf(style any) (string, error) {
	if style == nil {
		return "", nil
	}
	if typed, ok := style.(*Style); ok && typed != nil {
		return typed.QualifiedName(), nil
	}
	return ResolveName(style)
}

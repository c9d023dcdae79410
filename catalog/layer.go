package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/planetfederal/gsconfig/entity"
)

type Layer struct {
	object
	ambiguous bool
}

// Ambiguous reports that other layers share this layer's unqualified name
// and were left out of the listing.
func (l *Layer) Ambiguous() bool {
	return l.ambiguous
}

// QualifiedName is the layer name as listed, which already carries the
// workspace prefix when the server reports one.
func (l *Layer) QualifiedName() string {
	return l.name
}

func layerKey(name string) string {
	return "/layers/" + segment(name) + ".xml"
}

func (c *Catalog) newLayer(name string, opts ...entity.Option) *Layer {
	workspace, _ := qualifiedName(name)
	return &Layer{object: c.attached(layerKind, layerKey(name), name, workspace, opts...)}
}

// ListLayers lists every layer, or the layers publishing the given resource
// (a name, "workspace:name" or *Resource). Layers whose unqualified names
// collide are reduced to the first entry, flagged Ambiguous.
func (c *Catalog) ListLayers(ctx context.Context, resource any) ([]*Layer, error) {
	filter, err := resourceFilter(resource)
	if err != nil {
		return nil, err
	}

	found, err := c.listNames(ctx, "/layers.xml", "layer")
	if err != nil {
		return nil, err
	}

	layers := make([]*Layer, 0, len(found))
	byLocalName := map[string]*Layer{}
	for _, name := range found {
		_, local := qualifiedName(name)
		if first, seen := byLocalName[local]; seen {
			first.ambiguous = true
			continue
		}
		layer := c.newLayer(name)
		byLocalName[local] = layer
		layers = append(layers, layer)
	}

	if filter == "" {
		return layers, nil
	}
	matched := []*Layer{}
	for _, layer := range layers {
		resourceName, err := getString(ctx, layer.Entity, "resource")
		if err != nil {
			return nil, err
		}
		if matchesResource(filter, resourceName) {
			matched = append(matched, layer)
		}
	}
	return matched, nil
}

func resourceFilter(resource any) (string, error) {
	if typed, ok := resource.(*Resource); ok && typed != nil {
		return typed.QualifiedName(), nil
	}
	return ResolveName(resource)
}

// matchesResource compares a filter against a layer's resource reference;
// an unqualified filter ignores the workspace prefix.
func matchesResource(filter string, resourceName string) bool {
	if strings.Contains(filter, ":") {
		return filter == resourceName
	}
	_, local := qualifiedName(resourceName)
	return filter == local
}

// GetLayer fetches a layer by its (optionally workspace qualified) name.
func (c *Catalog) GetLayer(ctx context.Context, name string) (*Layer, error) {
	if name == "" {
		return nil, validationError("layer name is required", nil)
	}
	document, err := c.GetXML(ctx, layerKey(name))
	if err != nil {
		return nil, err
	}
	if document.Root().Tag != layerKind.Tag {
		return nil, parsingError(fmt.Sprintf("expected <layer> document for %q, got <%s>", name, document.Root().Tag), nil)
	}
	return c.newLayer(name, entity.WithSnapshot(document.Root())), nil
}

// Resource follows the layer's resource link.
func (l *Layer) Resource(ctx context.Context) (*Resource, error) {
	root, err := l.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, notFoundError(fmt.Sprintf("layer %q has no resource", l.name))
	}
	node := root.SelectElement("resource")
	if node == nil {
		return nil, parsingError(fmt.Sprintf("layer %q has no resource element", l.name), nil)
	}

	spec, known := specForResource(ResourceType(node.SelectAttrValue("class", "")))
	if !known {
		return nil, parsingError(fmt.Sprintf("layer %q references an unknown resource class %q", l.name, node.SelectAttrValue("class", "")), nil)
	}
	link := node.SelectElement("atom:link")
	if link == nil {
		return nil, parsingError(fmt.Sprintf("layer %q resource has no link", l.name), nil)
	}

	workspace, name := qualifiedName(childText(node, "name"))
	key := l.catalog.relativeKey(link.SelectAttrValue("href", ""))
	return &Resource{
		object: l.catalog.attached(spec.kind, key, name, workspace),
		spec:   spec,
		store:  storeFromResourceKey(key),
	}, nil
}

// storeFromResourceKey extracts the store segment of
// /workspaces/{ws}/{stores}/{store}/{resources}/{name}.xml.
func storeFromResourceKey(key string) string {
	parts := strings.Split(strings.TrimPrefix(key, "/"), "/")
	if len(parts) < 4 || parts[0] != "workspaces" {
		return ""
	}
	return parts[3]
}

// SetDefaultStyle points the layer at a style given by name,
// "workspace:name" or *Style.
func (l *Layer) SetDefaultStyle(style any) error {
	ref, err := styleRef(style)
	if err != nil {
		return err
	}
	return l.Set("defaultStyle", ref)
}

// SetStyles replaces the alternate styles.
func (l *Layer) SetStyles(styles ...any) error {
	refs := make([]entity.StyleRef, 0, len(styles))
	for _, style := range styles {
		ref, err := styleRef(style)
		if err != nil {
			return err
		}
		refs = append(refs, ref)
	}
	return l.Set("styles", refs)
}

func styleRef(style any) (entity.StyleRef, error) {
	if typed, ok := style.(*Style); ok && typed != nil {
		return entity.StyleRef{Name: typed.name, Workspace: typed.workspace}, nil
	}
	name, err := ResolveName(style)
	if err != nil {
		return entity.StyleRef{}, err
	}
	if name == "" {
		return entity.StyleRef{}, validationError("style name is required", nil)
	}
	workspace, local := qualifiedName(name)
	return entity.StyleRef{Name: local, Workspace: workspace}, nil
}

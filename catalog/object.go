package catalog

import (
	"context"

	"github.com/beevik/etree"

	"github.com/planetfederal/gsconfig/entity"
)

// Object is any catalog proxy that can be saved or deleted.
type Object interface {
	Named
	base() *entity.Entity
}

type object struct {
	*entity.Entity
	catalog   *Catalog
	name      string
	workspace string
}

func (o *object) Name() string {
	return o.name
}

func (o *object) Workspace() string {
	return o.workspace
}

// QualifiedName is "workspace:name", or the bare name outside a workspace.
func (o *object) QualifiedName() string {
	if o.workspace == "" {
		return o.name
	}
	return o.workspace + ":" + o.name
}

func (o *object) base() *entity.Entity {
	return o.Entity
}

func (c *Catalog) attached(kind *entity.Kind, identity string, name string, workspace string, opts ...entity.Option) object {
	return object{
		Entity:    entity.NewAttached(kind, identity, c, opts...),
		catalog:   c,
		name:      name,
		workspace: workspace,
	}
}

func (c *Catalog) unsaved(kind *entity.Kind, identity string, createPath string, name string, workspace string, opts ...entity.Option) object {
	return object{
		Entity:    entity.NewUnsaved(kind, identity, createPath, c, opts...),
		catalog:   c,
		name:      name,
		workspace: workspace,
	}
}

// getString reads a text field, mapping an absent value to "".
func getString(ctx context.Context, e *entity.Entity, field string) (string, error) {
	value, err := e.Get(ctx, field)
	if err != nil || value == nil {
		return "", err
	}
	text, ok := value.(string)
	if !ok {
		return "", interpretationError("field "+field+" is not text", nil)
	}
	return text, nil
}

func getStrings(ctx context.Context, e *entity.Entity, field string) ([]string, error) {
	value, err := e.Get(ctx, field)
	if err != nil || value == nil {
		return nil, err
	}
	values, ok := value.([]string)
	if !ok {
		return nil, interpretationError("field "+field+" is not a list", nil)
	}
	return append([]string(nil), values...), nil
}

// listNames reads the <name> of each item element of a listing document. A
// listing that does not exist yields no names.
func (c *Catalog) listNames(ctx context.Context, key string, itemTag string) ([]string, error) {
	document, err := c.GetXML(ctx, key)
	if err != nil {
		if isMissing(err) {
			return nil, nil
		}
		return nil, err
	}

	names := []string{}
	for _, item := range document.Root().SelectElements(itemTag) {
		if name := item.SelectElement("name"); name != nil {
			names = append(names, name.Text())
		}
	}
	return names, nil
}

func childText(node *etree.Element, tag string) string {
	if node == nil {
		return ""
	}
	child := node.SelectElement(tag)
	if child == nil {
		return ""
	}
	return child.Text()
}

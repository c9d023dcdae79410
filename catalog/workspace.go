package catalog

import (
	"context"
	"fmt"

	"github.com/beevik/etree"

	"github.com/planetfederal/gsconfig/entity"
	"github.com/planetfederal/gsconfig/transport"
)

const defaultWorkspaceKey = "/workspaces/default.xml"

type Workspace struct {
	object
}

func workspaceKey(name string) string {
	return "/workspaces/" + segment(name) + ".xml"
}

func namespaceKey(name string) string {
	return "/namespaces/" + segment(name) + ".xml"
}

func (c *Catalog) newWorkspace(name string) *Workspace {
	return &Workspace{object: c.attached(workspaceKind, workspaceKey(name), name, name)}
}

// URI reads the namespace URI bound to the workspace.
func (w *Workspace) URI(ctx context.Context) (string, error) {
	if !w.Attached() {
		return getString(ctx, w.Entity, "uri")
	}
	document, err := w.catalog.GetXML(ctx, namespaceKey(w.name))
	if err != nil {
		return "", err
	}
	return childText(document.Root(), "uri"), nil
}

func (c *Catalog) ListWorkspaces(ctx context.Context, names ...string) ([]*Workspace, error) {
	found, err := c.listNames(ctx, "/workspaces.xml", "workspace")
	if err != nil {
		return nil, err
	}

	workspaces := make([]*Workspace, 0, len(found))
	for _, name := range found {
		workspaces = append(workspaces, c.newWorkspace(name))
	}
	return filterNamed(workspaces, names), nil
}

func (c *Catalog) GetWorkspace(ctx context.Context, name string) (*Workspace, error) {
	workspaces, err := c.ListWorkspaces(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(workspaces) == 0 {
		return nil, notFoundError(fmt.Sprintf("workspace %q not found", name))
	}
	return workspaces[0], nil
}

func (c *Catalog) GetDefaultWorkspace(ctx context.Context) (*Workspace, error) {
	document, err := c.GetXML(ctx, defaultWorkspaceKey)
	if err != nil {
		return nil, err
	}
	name := childText(document.Root(), "name")
	if name == "" {
		return nil, parsingError("default workspace document has no name", nil)
	}
	return c.newWorkspace(name), nil
}

// SetDefaultWorkspace accepts a workspace name or *Workspace.
func (c *Catalog) SetDefaultWorkspace(ctx context.Context, ref any) error {
	name, err := ResolveName(ref)
	if err != nil {
		return err
	}
	if name == "" {
		return validationError("default workspace name is required", nil)
	}

	document := etree.NewDocument()
	document.CreateElement("workspace").CreateElement("name").SetText(name)
	payload, err := document.WriteToBytes()
	if err != nil {
		return interpretationError("failed to serialize default workspace", err)
	}

	_, err = c.send(ctx, transport.Request{
		Method:      "PUT",
		Path:        defaultWorkspaceKey,
		ContentType: transport.MediaTypeXML,
		Body:        payload,
	})
	return err
}

// CreateWorkspace returns an unsaved workspace. Saving it POSTs a namespace
// document, which makes the server create the workspace and its namespace
// together.
func (c *Catalog) CreateWorkspace(ctx context.Context, name string, uri string) (*Workspace, error) {
	if name == "" {
		return nil, validationError("workspace name is required", nil)
	}
	existing, err := c.ListWorkspaces(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, conflictingData(fmt.Sprintf("workspace %q already exists", name))
	}

	workspace := &Workspace{object: c.unsaved(
		workspaceKind, workspaceKey(name), "/namespaces", name, name,
		entity.WithCreateKind(namespaceKind),
	)}
	if err := workspace.Set("prefix", name); err != nil {
		return nil, err
	}
	if uri != "" {
		if err := workspace.Set("uri", uri); err != nil {
			return nil, err
		}
	}
	return workspace, nil
}

// resolveWorkspace turns a workspace reference into a name, falling back to
// the server's default workspace.
func (c *Catalog) resolveWorkspace(ctx context.Context, ref any) (string, error) {
	name, err := ResolveName(ref)
	if err != nil {
		return "", err
	}
	if name != "" {
		return name, nil
	}
	workspace, err := c.GetDefaultWorkspace(ctx)
	if err != nil {
		return "", err
	}
	return workspace.Name(), nil
}

package catalog

import (
	"context"
	"fmt"

	"github.com/planetfederal/gsconfig/entity"
)

type StoreType string

const (
	DataStoreType     StoreType = "dataStore"
	CoverageStoreType StoreType = "coverageStore"
	WmsStoreType      StoreType = "wmsStore"
)

type storeSpec struct {
	storeType  StoreType
	collection string
	itemTag    string
	kind       *entity.Kind
	resources  resourceSpec
}

// storeSpecs lists the three store kinds in query order.
var storeSpecs = []storeSpec{
	{storeType: DataStoreType, collection: "datastores", itemTag: "dataStore", kind: dataStoreKind, resources: featureTypeSpec},
	{storeType: CoverageStoreType, collection: "coveragestores", itemTag: "coverageStore", kind: coverageStoreKind, resources: coverageSpec},
	{storeType: WmsStoreType, collection: "wmsstores", itemTag: "wmsStore", kind: wmsStoreKind, resources: wmsLayerSpec},
}

func specForStore(storeType StoreType) storeSpec {
	for _, spec := range storeSpecs {
		if spec.storeType == storeType {
			return spec
		}
	}
	return storeSpecs[0]
}

type Store struct {
	object
	spec storeSpec
}

func (s *Store) Type() StoreType {
	return s.spec.storeType
}

func storeCollection(workspace string, spec storeSpec) string {
	return "/workspaces/" + segment(workspace) + "/" + spec.collection
}

func storeKey(workspace string, spec storeSpec, name string) string {
	return storeCollection(workspace, spec) + "/" + segment(name) + ".xml"
}

func (c *Catalog) newStore(spec storeSpec, workspace string, name string) *Store {
	return &Store{
		object: c.attached(spec.kind, storeKey(workspace, spec, name), name, workspace),
		spec:   spec,
	}
}

// ListStores queries data, coverage and WMS stores in every workspace
// matching the workspace filter (all workspaces when empty) and then applies
// the name filter.
func (c *Catalog) ListStores(ctx context.Context, names []string, workspaces []string) ([]*Store, error) {
	resolved, err := c.ListWorkspaces(ctx, workspaces...)
	if err != nil {
		return nil, err
	}

	stores := []*Store{}
	for _, workspace := range resolved {
		for _, spec := range storeSpecs {
			found, err := c.listNames(ctx, storeCollection(workspace.Name(), spec)+".xml", spec.itemTag)
			if err != nil {
				return nil, err
			}
			for _, name := range found {
				stores = append(stores, c.newStore(spec, workspace.Name(), name))
			}
		}
	}
	return filterNamed(stores, names), nil
}

// GetStore finds a store by name, optionally within a workspace. A name
// shared by several stores is an AmbiguousRequest.
func (c *Catalog) GetStore(ctx context.Context, name string, workspace any) (*Store, error) {
	workspaceName, err := ResolveName(workspace)
	if err != nil {
		return nil, err
	}

	var workspaces []string
	if workspaceName != "" {
		workspaces = []string{workspaceName}
	}
	stores, err := c.ListStores(ctx, []string{name}, workspaces)
	if err != nil {
		return nil, err
	}

	switch len(stores) {
	case 0:
		return nil, notFoundError(fmt.Sprintf("store %q not found", name))
	case 1:
		return stores[0], nil
	default:
		return nil, ambiguousRequest(fmt.Sprintf("%d stores named %q; specify the workspace and store type", len(stores), name))
	}
}

func (c *Catalog) CreateDataStore(ctx context.Context, name string, workspace any, overwrite bool) (*Store, error) {
	return c.createStore(ctx, DataStoreType, name, workspace, overwrite)
}

func (c *Catalog) CreateCoverageStore(ctx context.Context, name string, workspace any, overwrite bool) (*Store, error) {
	return c.createStore(ctx, CoverageStoreType, name, workspace, overwrite)
}

func (c *Catalog) CreateWmsStore(ctx context.Context, name string, workspace any, overwrite bool) (*Store, error) {
	store, err := c.createStore(ctx, WmsStoreType, name, workspace, overwrite)
	if err != nil {
		return nil, err
	}
	if !store.Attached() {
		if err := store.Set("type", "WMS"); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// createStore returns an unsaved store, or with overwrite the existing store
// of the same type so that saving it replaces its configuration.
func (c *Catalog) createStore(ctx context.Context, storeType StoreType, name string, workspace any, overwrite bool) (*Store, error) {
	if name == "" {
		return nil, validationError("store name is required", nil)
	}
	workspaceName, err := c.resolveWorkspace(ctx, workspace)
	if err != nil {
		return nil, err
	}

	spec := specForStore(storeType)
	existing, err := c.findStore(ctx, workspaceName, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if !overwrite || existing.Type() != storeType {
			return nil, conflictingData(fmt.Sprintf("store %q already exists in workspace %q", name, workspaceName))
		}
		return existing, nil
	}

	store := &Store{
		object: c.unsaved(spec.kind, storeKey(workspaceName, spec, name), storeCollection(workspaceName, spec), name, workspaceName),
		spec:   spec,
	}
	if err := store.Set("name", name); err != nil {
		return nil, err
	}
	return store, nil
}

func (c *Catalog) findStore(ctx context.Context, workspace string, name string) (*Store, error) {
	stores, err := c.ListStores(ctx, []string{name}, []string{workspace})
	if err != nil {
		return nil, err
	}
	if len(stores) == 0 {
		return nil, nil
	}
	return stores[0], nil
}

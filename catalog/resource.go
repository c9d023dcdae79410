package catalog

import (
	"context"
	"fmt"

	"github.com/planetfederal/gsconfig/entity"
)

type ResourceType string

const (
	FeatureTypeResource ResourceType = "featureType"
	CoverageResource    ResourceType = "coverage"
	WmsLayerResource    ResourceType = "wmsLayer"
)

type resourceSpec struct {
	resourceType ResourceType
	collection   string
	itemTag      string
	kind         *entity.Kind
}

var (
	featureTypeSpec = resourceSpec{resourceType: FeatureTypeResource, collection: "featuretypes", itemTag: "featureType", kind: featureTypeKind}
	coverageSpec    = resourceSpec{resourceType: CoverageResource, collection: "coverages", itemTag: "coverage", kind: coverageKind}
	wmsLayerSpec    = resourceSpec{resourceType: WmsLayerResource, collection: "wmslayers", itemTag: "wmsLayer", kind: wmsLayerKind}
)

func specForResource(resourceType ResourceType) (resourceSpec, bool) {
	for _, spec := range []resourceSpec{featureTypeSpec, coverageSpec, wmsLayerSpec} {
		if spec.resourceType == resourceType {
			return spec, true
		}
	}
	return resourceSpec{}, false
}

type Resource struct {
	object
	spec  resourceSpec
	store string
}

func (r *Resource) Type() ResourceType {
	return r.spec.resourceType
}

func (r *Resource) StoreName() string {
	return r.store
}

func resourceCollection(store *Store) string {
	return storeCollection(store.workspace, store.spec) + "/" + segment(store.name) + "/" + store.spec.resources.collection
}

func (c *Catalog) newResource(store *Store, name string, opts ...entity.Option) *Resource {
	key := resourceCollection(store) + "/" + segment(name) + ".xml"
	return &Resource{
		object: c.attached(store.spec.resources.kind, key, name, store.workspace, opts...),
		spec:   store.spec.resources,
		store:  store.name,
	}
}

// ListResources lists the resources published from this store.
func (s *Store) ListResources(ctx context.Context) ([]*Resource, error) {
	if !s.Attached() {
		return nil, nil
	}
	found, err := s.catalog.listNames(ctx, resourceCollection(s)+".xml", s.spec.resources.itemTag)
	if err != nil {
		return nil, err
	}

	resources := make([]*Resource, 0, len(found))
	for _, name := range found {
		resources = append(resources, s.catalog.newResource(s, name))
	}
	return resources, nil
}

// ListResources gathers resources from every store matching the store and
// workspace filters. A store whose listing fails is skipped.
func (c *Catalog) ListResources(ctx context.Context, names []string, stores []string, workspaces []string) ([]*Resource, error) {
	resolved, err := c.ListStores(ctx, stores, workspaces)
	if err != nil {
		return nil, err
	}

	resources := []*Resource{}
	for _, store := range resolved {
		found, err := store.ListResources(ctx)
		if err != nil {
			c.log(ctx).Info("skipping store whose resources could not be listed",
				"store", store.QualifiedName(), "error", err.Error())
			continue
		}
		resources = append(resources, found...)
	}
	return filterNamed(resources, names), nil
}

// GetResource finds a resource by name. store and workspace narrow the
// search and accept names or objects.
func (c *Catalog) GetResource(ctx context.Context, name string, store any, workspace any) (*Resource, error) {
	workspaceName, err := ResolveName(workspace)
	if err != nil {
		return nil, err
	}
	storeName, err := ResolveName(store)
	if err != nil {
		return nil, err
	}
	if typed, ok := store.(*Store); ok && typed != nil && workspaceName == "" {
		workspaceName = typed.workspace
	}

	resources, err := c.ListResources(ctx, []string{name}, optional(storeName), optional(workspaceName))
	if err != nil {
		return nil, err
	}
	switch len(resources) {
	case 0:
		return nil, notFoundError(fmt.Sprintf("resource %q not found", name))
	case 1:
		return resources[0], nil
	default:
		return nil, ambiguousRequest(fmt.Sprintf("%d resources named %q; specify the store or workspace", len(resources), name))
	}
}

// PublishFeatureType configures a new feature type on a data store and
// saves it immediately. srs defaults to nativeCRS.
func (c *Catalog) PublishFeatureType(ctx context.Context, name string, store *Store, nativeCRS string, srs string, virtualTable *entity.VirtualTable) (*Resource, error) {
	if store == nil || store.Type() != DataStoreType {
		return nil, interpretationError("feature types can only be published from a data store", nil)
	}
	if name == "" {
		return nil, validationError("feature type name is required", nil)
	}
	if nativeCRS == "" {
		return nil, validationError("native CRS is required to publish a feature type", nil)
	}
	if srs == "" {
		srs = nativeCRS
	}

	existing, err := c.ListResources(ctx, []string{name}, nil, []string{store.workspace})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, conflictingData(fmt.Sprintf("resource %q already exists in workspace %q", name, store.workspace))
	}

	resource := &Resource{
		object: c.unsaved(featureTypeKind,
			resourceCollection(store)+"/"+segment(name)+".xml",
			resourceCollection(store),
			name, store.workspace),
		spec:  featureTypeSpec,
		store: store.name,
	}

	nativeName := name
	if virtualTable != nil && virtualTable.Name != "" {
		nativeName = virtualTable.Name
	}
	values := map[string]any{
		"name":       name,
		"nativeName": nativeName,
		"srs":        srs,
		"nativeCRS":  nativeCRS,
	}
	if virtualTable != nil {
		values["metadata"] = entity.Metadata{"JDBC_VIRTUAL_TABLE": virtualTable}
	}
	for field, value := range values {
		if err := resource.Set(field, value); err != nil {
			return nil, err
		}
	}

	if err := c.Save(ctx, resource); err != nil {
		return nil, err
	}
	return resource, nil
}

func optional(name string) []string {
	if name == "" {
		return nil
	}
	return []string{name}
}

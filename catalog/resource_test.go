package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/planetfederal/gsconfig/entity"
	"github.com/planetfederal/gsconfig/faults"
)

func TestListResourcesSkipsFailingStore(t *testing.T) {
	t.Parallel()

	fake := newFakeGeoServer(t)
	fake.addWorkspace("ws1")
	fake.put("/workspaces/ws1/datastores/good.xml", "<dataStore><name>good</name></dataStore>")
	fake.put("/workspaces/ws1/datastores/bad.xml", "<dataStore><name>bad</name></dataStore>")
	fake.put("/workspaces/ws1/datastores/good/featuretypes/roads.xml", "<featureType><name>roads</name></featureType>")
	fake.put("/workspaces/ws1/coveragestores/dem.xml", "<coverageStore><name>dem</name></coverageStore>")
	fake.put("/workspaces/ws1/coveragestores/dem/coverages/dem.xml", "<coverage><name>dem</name></coverage>")
	fake.fail("/workspaces/ws1/datastores/bad/featuretypes.xml", 500)
	c := newTestCatalog(t, fake)
	ctx := context.Background()

	resources, err := c.ListResources(ctx, nil, nil, nil)
	if err != nil {
		t.Fatalf("ListResources returned error: %v", err)
	}
	got := names(resources)
	if len(got) != 2 || got[0] != "roads" || got[1] != "dem" {
		t.Fatalf("expected roads and dem, got %v", got)
	}
	if resources[1].Type() != CoverageResource || resources[1].StoreName() != "dem" {
		t.Fatalf("unexpected coverage %s from %s", resources[1].Type(), resources[1].StoreName())
	}

	resource, err := c.GetResource(ctx, "roads", "good", "ws1")
	if err != nil {
		t.Fatalf("GetResource returned error: %v", err)
	}
	if resource.Identity() != "/workspaces/ws1/datastores/good/featuretypes/roads.xml" {
		t.Fatalf("unexpected identity %s", resource.Identity())
	}
	if _, err := c.GetResource(ctx, "rivers", nil, nil); !faults.IsCategory(err, faults.NotFoundError) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestPublishFeatureType(t *testing.T) {
	t.Parallel()

	fake := newFakeGeoServer(t)
	fake.addWorkspace("ws1")
	fake.put("/workspaces/ws1/datastores/pg.xml", "<dataStore><name>pg</name></dataStore>")
	c := newTestCatalog(t, fake)
	ctx := context.Background()

	store, err := c.GetStore(ctx, "pg", "ws1")
	if err != nil {
		t.Fatalf("GetStore returned error: %v", err)
	}

	table := &entity.VirtualTable{
		Name:     "busy_roads",
		SQL:      "select * from roads where traffic > %min%",
		Geometry: &entity.VirtualTableGeometry{Name: "geom", Type: "LineString", SRID: "4326"},
		Parameters: []entity.VirtualTableParameter{
			{Name: "min", DefaultValue: "100", RegexpValidator: `^\d+$`},
		},
	}
	resource, err := c.PublishFeatureType(ctx, "busy", store, "EPSG:4326", "", table)
	if err != nil {
		t.Fatalf("PublishFeatureType returned error: %v", err)
	}
	if !resource.Attached() {
		t.Fatal("expected the published feature type to be attached")
	}

	posted := fake.mutations()[0]
	if posted.Path != "/workspaces/ws1/datastores/pg/featuretypes" {
		t.Fatalf("unexpected POST path %s", posted.Path)
	}
	body := string(posted.Body)
	for _, fragment := range []string{
		"<name>busy</name>",
		"<nativeName>busy_roads</nativeName>",
		"<nativeCRS>EPSG:4326</nativeCRS><srs>EPSG:4326</srs>",
		`<entry key="JDBC_VIRTUAL_TABLE"><virtualTable><name>busy_roads</name>`,
		"<parameter><name>min</name><defaultValue>100</defaultValue>",
	} {
		if !strings.Contains(body, fragment) {
			t.Fatalf("payload %s is missing %s", body, fragment)
		}
	}

	_, err = c.PublishFeatureType(ctx, "busy", store, "EPSG:4326", "", nil)
	if !faults.IsCategory(err, faults.ConflictingData) {
		t.Fatalf("expected ConflictingData on republish, got %v", err)
	}
	_, err = c.PublishFeatureType(ctx, "other", store, "", "", nil)
	if !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected ValidationError without a native CRS, got %v", err)
	}
}

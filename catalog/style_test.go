package catalog

import (
	"context"
	"testing"

	"github.com/planetfederal/gsconfig/faults"
)

const sampleSLD = `<StyledLayerDescriptor version="1.0.0"><NamedLayer><Name>line</Name></NamedLayer></StyledLayerDescriptor>`

func TestCreateStyleAndReadBody(t *testing.T) {
	t.Parallel()

	fake := newFakeGeoServer(t)
	fake.setVersion("2.22.0")
	fake.addWorkspace("ws1")
	c := newTestCatalog(t, fake)
	ctx := context.Background()

	style, err := c.CreateStyle(ctx, "line", []byte(sampleSLD), false, "ws1")
	if err != nil {
		t.Fatalf("CreateStyle returned error: %v", err)
	}
	posted := fake.mutations()[0]
	if posted.Path != "/workspaces/ws1/styles" || posted.Query.Get("name") != "line" {
		t.Fatalf("unexpected style upload %s %v", posted.Path, posted.Query)
	}

	body, err := style.Body(ctx)
	if err != nil {
		t.Fatalf("Body returned error: %v", err)
	}
	if string(body) != sampleSLD {
		t.Fatalf("unexpected body %s", body)
	}
	filename, err := style.Get(ctx, "filename")
	if err != nil || filename != "line.sld" {
		t.Fatalf("expected filename line.sld, got %v (%v)", filename, err)
	}

	if _, err := c.CreateStyle(ctx, "line", []byte(sampleSLD), false, "ws1"); !faults.IsCategory(err, faults.ConflictingData) {
		t.Fatalf("expected ConflictingData, got %v", err)
	}
	if _, err := c.CreateStyle(ctx, "line", []byte(sampleSLD), false, nil); err != nil {
		t.Fatalf("expected a global style with the same name to be allowed, got %v", err)
	}

	updated := `<StyledLayerDescriptor version="1.0.0"/>`
	again, err := c.CreateStyle(ctx, "line", []byte(updated), true, "ws1")
	if err != nil {
		t.Fatalf("CreateStyle with overwrite returned error: %v", err)
	}
	body, err = again.Body(ctx)
	if err != nil {
		t.Fatalf("Body returned error: %v", err)
	}
	if string(body) != updated {
		t.Fatalf("expected the replaced body, got %s", body)
	}
}

func TestGetStyle(t *testing.T) {
	t.Parallel()

	fake := newFakeGeoServer(t)
	fake.addWorkspace("ws1")
	fake.put("/styles/line.xml", "<style><name>line</name></style>")
	fake.put("/workspaces/ws1/styles/line.xml", "<style><name>line</name></style>")
	c := newTestCatalog(t, fake)
	ctx := context.Background()

	global, err := c.GetStyle(ctx, "line", nil)
	if err != nil {
		t.Fatalf("GetStyle returned error: %v", err)
	}
	if global.Workspace() != "" {
		t.Fatalf("expected the global style, got workspace %q", global.Workspace())
	}

	scoped, err := c.GetStyle(ctx, "ws1:line", nil)
	if err != nil {
		t.Fatalf("GetStyle returned error: %v", err)
	}
	if scoped.Identity() != "/workspaces/ws1/styles/line.xml" {
		t.Fatalf("unexpected identity %s", scoped.Identity())
	}

	styles, err := c.ListStyles(ctx, nil, nil)
	if err != nil {
		t.Fatalf("ListStyles returned error: %v", err)
	}
	if len(styles) != 2 {
		t.Fatalf("expected global and workspace styles, got %d", len(styles))
	}

	if _, err := c.GetStyle(ctx, "ws1:line", "ws2"); !faults.IsCategory(err, faults.AmbiguousRequest) {
		t.Fatalf("expected AmbiguousRequest for conflicting workspaces, got %v", err)
	}
	if err := c.Delete(ctx, scoped, DeleteOptions{Purge: true}); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := c.GetStyle(ctx, "ws1:line", nil); !faults.IsCategory(err, faults.NotFoundError) {
		t.Fatalf("expected NotFoundError after delete, got %v", err)
	}
}

package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/planetfederal/gsconfig/config"
	"github.com/planetfederal/gsconfig/faults"
)

const workspacesXML = `<workspaces><workspace><name>topp</name></workspace><workspace><name>sf</name></workspace></workspaces>`

func TestRequiredCommandPathsRegistered(t *testing.T) {
	t.Parallel()

	requiredPaths := []string{
		"workspace list",
		"workspace get",
		"workspace create",
		"workspace delete",
		"workspace default get",
		"workspace default set",
		"store list",
		"store create",
		"store delete",
		"store upload-shapefile",
		"store upload-coverage",
		"resource list",
		"resource get",
		"resource publish",
		"layer list",
		"layer get",
		"layer set-style",
		"layergroup list",
		"layergroup get",
		"layergroup create",
		"layergroup delete",
		"style list",
		"style body",
		"style create",
		"style delete",
		"xml get",
		"server version",
		"server reload",
		"server reset",
		"profile list",
		"profile current",
		"profile use",
		"profile add",
		"profile delete",
		"profile resolve",
		"version",
	}

	pathSet := make(map[string]struct{})
	for _, path := range registeredPaths(NewRootCommand(Dependencies{}), nil) {
		pathSet[joinPath(path)] = struct{}{}
	}

	for _, required := range requiredPaths {
		if _, ok := pathSet[required]; !ok {
			t.Fatalf("expected command path %q to be registered", required)
		}
	}
}

func TestWorkspaceListOutput(t *testing.T) {
	t.Parallel()

	fake := newFakeServer(t)
	fake.doc("/workspaces.xml", workspacesXML)

	testCases := []struct {
		name string
		args []string
		want string
	}{
		{name: "text", args: []string{"workspace", "list"}, want: "topp\nsf\n"},
		{name: "filtered", args: []string{"workspace", "list", "sf"}, want: "sf\n"},
		{name: "json", args: []string{"workspace", "list", "-o", "json"}, want: "[\n  {\n    \"name\": \"topp\"\n  },\n  {\n    \"name\": \"sf\"\n  }\n]\n"},
		{name: "jq", args: []string{"workspace", "list", "--jq", ".[1].name"}, want: "sf\n"},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			output, err := executeForTest(fake.deps(), "", testCase.args...)
			if err != nil {
				t.Fatalf("execute returned error: %v", err)
			}
			if output != testCase.want {
				t.Fatalf("unexpected output\n got: %q\nwant: %q", output, testCase.want)
			}
		})
	}
}

func TestWorkspaceCreatePostsNamespace(t *testing.T) {
	t.Parallel()

	fake := newFakeServer(t)
	fake.doc("/workspaces.xml", workspacesXML)

	if _, err := executeForTest(fake.deps(), "", "workspace", "create", "nurc", "--uri", "http://nurc.example.com"); err != nil {
		t.Fatalf("workspace create returned error: %v", err)
	}

	mutations := fake.recorded()
	if len(mutations) != 1 {
		t.Fatalf("expected one mutation, got %#v", mutations)
	}
	request := mutations[0]
	if request.Method != http.MethodPost || request.Path != "/namespaces" {
		t.Fatalf("expected POST /namespaces, got %s %s", request.Method, request.Path)
	}
	for _, fragment := range []string{"<namespace>", "<prefix>nurc</prefix>", "<uri>http://nurc.example.com</uri>"} {
		if !strings.Contains(request.Body, fragment) {
			t.Fatalf("expected payload to contain %q, got %s", fragment, request.Body)
		}
	}
}

func TestWorkspaceCreateRejectsExistingName(t *testing.T) {
	t.Parallel()

	fake := newFakeServer(t)
	fake.doc("/workspaces.xml", workspacesXML)

	_, err := executeForTest(fake.deps(), "", "workspace", "create", "topp")
	if !faults.IsCategory(err, faults.ConflictingData) {
		t.Fatalf("expected ConflictingData, got %v", err)
	}
	if got := len(fake.recorded()); got != 0 {
		t.Fatalf("expected no mutation, got %d", got)
	}
}

func TestStoreDelete(t *testing.T) {
	t.Parallel()

	newStoreServer := func(t *testing.T) *fakeServer {
		fake := newFakeServer(t)
		fake.doc("/workspaces.xml", `<workspaces><workspace><name>topp</name></workspace></workspaces>`)
		fake.doc("/workspaces/topp/datastores.xml", `<dataStores><dataStore><name>roads</name></dataStore></dataStores>`)
		return fake
	}

	t.Run("requires_confirmation_without_terminal", func(t *testing.T) {
		t.Parallel()

		fake := newStoreServer(t)
		_, err := executeForTest(fake.deps(), "", "store", "delete", "roads")
		if !faults.IsCategory(err, faults.ValidationError) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if got := len(fake.recorded()); got != 0 {
			t.Fatalf("expected no mutation, got %d", got)
		}
	})

	t.Run("declined_prompt", func(t *testing.T) {
		t.Parallel()

		fake := newStoreServer(t)
		fake.prompter.interactive = true
		if _, err := executeForTest(fake.deps(), "", "store", "delete", "roads"); err != nil {
			t.Fatalf("declined delete returned error: %v", err)
		}
		if len(fake.prompter.asked) != 1 || !strings.Contains(fake.prompter.asked[0], `"roads"`) {
			t.Fatalf("expected one confirmation prompt, got %#v", fake.prompter.asked)
		}
		if got := len(fake.recorded()); got != 0 {
			t.Fatalf("expected no mutation, got %d", got)
		}
	})

	t.Run("confirmed_with_flag", func(t *testing.T) {
		t.Parallel()

		fake := newStoreServer(t)
		if _, err := executeForTest(fake.deps(), "", "store", "delete", "roads", "--yes", "--recurse"); err != nil {
			t.Fatalf("store delete returned error: %v", err)
		}
		mutations := fake.recorded()
		if len(mutations) != 1 {
			t.Fatalf("expected one mutation, got %#v", mutations)
		}
		if mutations[0].Method != http.MethodDelete || mutations[0].Path != "/workspaces/topp/datastores/roads.xml" {
			t.Fatalf("unexpected request %s %s", mutations[0].Method, mutations[0].Path)
		}
		if mutations[0].Query != "recurse=true" {
			t.Fatalf("expected recurse=true query, got %q", mutations[0].Query)
		}
	})

	t.Run("already_absent_is_success", func(t *testing.T) {
		t.Parallel()

		fake := newStoreServer(t)
		fake.status(http.MethodDelete, "/workspaces/topp/datastores/roads.xml", http.StatusNotFound)
		if _, err := executeForTest(fake.deps(), "", "store", "delete", "roads", "-y"); err != nil {
			t.Fatalf("expected missing store delete to succeed, got %v", err)
		}
	})

	t.Run("server_error_is_reported", func(t *testing.T) {
		t.Parallel()

		fake := newStoreServer(t)
		fake.status(http.MethodDelete, "/workspaces/topp/datastores/roads.xml", http.StatusInternalServerError)
		_, err := executeForTest(fake.deps(), "", "store", "delete", "roads", "-y")
		if !faults.IsCategory(err, faults.FailedRequest) || faults.StatusCode(err) != http.StatusInternalServerError {
			t.Fatalf("expected FailedRequest 500, got %v", err)
		}
	})
}

func TestStoreCreateDataStoreWithConnectionParameters(t *testing.T) {
	t.Parallel()

	fake := newFakeServer(t)
	fake.doc("/workspaces.xml", workspacesXML)

	_, err := executeForTest(fake.deps(), "",
		"store", "create", "pg", "-w", "topp", "--param", "dbtype=postgis", "--param", "host=db")
	if err != nil {
		t.Fatalf("store create returned error: %v", err)
	}

	mutations := fake.recorded()
	if len(mutations) != 1 || mutations[0].Method != http.MethodPost || mutations[0].Path != "/workspaces/topp/datastores" {
		t.Fatalf("expected POST to the topp datastores collection, got %#v", mutations)
	}
	body := mutations[0].Body
	for _, fragment := range []string{"<name>pg</name>", `<entry key="dbtype">postgis</entry>`, `<entry key="host">db</entry>`} {
		if !strings.Contains(body, fragment) {
			t.Fatalf("expected payload to contain %q, got %s", fragment, body)
		}
	}
}

func TestStyleCreateReadsSLDFromStdin(t *testing.T) {
	t.Parallel()

	fake := newFakeServer(t)
	const sld = `<StyledLayerDescriptor version="1.0.0"/>`

	if _, err := executeForTest(fake.deps(), sld, "style", "create", "point", "-f", "-"); err != nil {
		t.Fatalf("style create returned error: %v", err)
	}

	mutations := fake.recorded()
	if len(mutations) != 1 {
		t.Fatalf("expected one mutation, got %#v", mutations)
	}
	request := mutations[0]
	if request.Method != http.MethodPost || request.Path != "/styles" || request.Query != "name=point" {
		t.Fatalf("unexpected request %s %s?%s", request.Method, request.Path, request.Query)
	}
	if request.Body != sld {
		t.Fatalf("expected SLD body to be sent unchanged, got %q", request.Body)
	}
}

func TestStyleBodyPrintsSLD(t *testing.T) {
	t.Parallel()

	fake := newFakeServer(t)
	fake.doc("/styles.xml", `<styles><style><name>line</name></style></styles>`)
	fake.doc("/styles/line.sld", `<StyledLayerDescriptor/>`)

	output, err := executeForTest(fake.deps(), "", "style", "body", "line")
	if err != nil {
		t.Fatalf("style body returned error: %v", err)
	}
	if output != `<StyledLayerDescriptor/>` {
		t.Fatalf("unexpected body %q", output)
	}
}

func TestLayerGroupCreateRejectsUnpairedStyles(t *testing.T) {
	t.Parallel()

	fake := newFakeServer(t)
	_, err := executeForTest(fake.deps(), "", "layergroup", "create", "base", "--layers", "a,b", "--styles", "x")
	if !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if got := len(fake.recorded()); got != 0 {
		t.Fatalf("expected no mutation, got %d", got)
	}
}

func TestLayerSetStyleRequiresAChange(t *testing.T) {
	t.Parallel()

	fake := newFakeServer(t)
	_, err := executeForTest(fake.deps(), "", "layer", "set-style", "topp:roads")
	if !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestXMLGet(t *testing.T) {
	t.Parallel()

	fake := newFakeServer(t)
	fake.doc("/workspaces.xml", workspacesXML)

	output, err := executeForTest(fake.deps(), "", "xml", "get", "/workspaces.xml")
	if err != nil {
		t.Fatalf("xml get returned error: %v", err)
	}
	if !strings.Contains(output, "<name>topp</name>") {
		t.Fatalf("expected document output, got %q", output)
	}

	if _, err := executeForTest(fake.deps(), "", "xml", "get", "/workspaces.xml", "-o", "json"); !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected json output to be rejected, got %v", err)
	}

	_, err = executeForTest(fake.deps(), "", "xml", "get", "/missing.xml")
	if !faults.IsNotFound(err) {
		t.Fatalf("expected a 404 FailedRequest, got %v", err)
	}
}

func TestServerVersion(t *testing.T) {
	t.Parallel()

	fake := newFakeServer(t)
	fake.doc("/about/version.xml", `<about><resource name="GeoServer"><Version>2.24.1</Version></resource></about>`)

	output, err := executeForTest(fake.deps(), "", "server", "version", "--jq", ".version")
	if err != nil {
		t.Fatalf("server version returned error: %v", err)
	}
	if output != "2.24.1\n" {
		t.Fatalf("unexpected version output %q", output)
	}
}

func TestProfileCommands(t *testing.T) {
	t.Parallel()

	fake := newFakeServer(t)
	deps := fake.deps()

	if _, err := executeForTest(deps, "", "profile", "add", "local",
		"--url", "http://localhost:8080/geoserver/rest", "--username", "admin", "--password", "geoserver"); err != nil {
		t.Fatalf("profile add returned error: %v", err)
	}
	if _, err := executeForTest(deps, "", "profile", "add", "prod",
		"--url", "https://maps.example.com/geoserver/rest", "--token", "s3cret"); err != nil {
		t.Fatalf("profile add returned error: %v", err)
	}

	output, err := executeForTest(deps, "", "profile", "list")
	if err != nil {
		t.Fatalf("profile list returned error: %v", err)
	}
	want := "* local\thttp://localhost:8080/geoserver/rest\n  prod\thttps://maps.example.com/geoserver/rest\n"
	if output != want {
		t.Fatalf("unexpected list output\n got: %q\nwant: %q", output, want)
	}

	if _, err := executeForTest(deps, "", "profile", "use", "prod"); err != nil {
		t.Fatalf("profile use returned error: %v", err)
	}
	output, err = executeForTest(deps, "", "profile", "current")
	if err != nil || output != "prod\n" {
		t.Fatalf("expected current profile prod, got %q (err=%v)", output, err)
	}

	output, err = executeForTest(deps, "", "profile", "resolve", "-o", "yaml")
	if err != nil {
		t.Fatalf("profile resolve returned error: %v", err)
	}
	if strings.Contains(output, "s3cret") || !strings.Contains(output, "********") {
		t.Fatalf("expected token to be redacted, got %s", output)
	}

	if _, err := executeForTest(deps, "", "profile", "add", "mixed", "--token", "t", "--username", "u"); !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected mixed credentials to be rejected, got %v", err)
	}
}

func TestInvalidOutputFormatRejected(t *testing.T) {
	t.Parallel()

	_, err := executeForTest(Dependencies{}, "", "version", "-o", "xml")
	if !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestProfileAddPromptsForMissingPassword(t *testing.T) {
	t.Parallel()

	fake := newFakeServer(t)
	fake.prompter.interactive = true
	fake.prompter.secret = "geoserver"

	if _, err := executeForTest(fake.deps(), "", "profile", "add", "local", "--username", "admin"); err != nil {
		t.Fatalf("profile add returned error: %v", err)
	}
	if len(fake.prompter.asked) != 1 || fake.prompter.asked[0] != "Password for admin" {
		t.Fatalf("expected one password prompt, got %#v", fake.prompter.asked)
	}

	profile, err := fake.profiles.ResolveProfile(context.Background(), config.ProfileSelection{Name: "local"})
	if err != nil {
		t.Fatalf("resolve returned error: %v", err)
	}
	if profile.Service.Auth == nil || profile.Service.Auth.BasicAuth == nil || profile.Service.Auth.BasicAuth.Password != "geoserver" {
		t.Fatalf("expected prompted password to be stored, got %#v", profile.Service.Auth)
	}
}

func TestUsagePrintedOnlyForMissingPositionalArgs(t *testing.T) {
	t.Parallel()

	run := func(args ...string) (string, error) {
		fake := newFakeServer(t)
		root := NewRootCommand(fake.deps())
		stderr := &bytes.Buffer{}
		root.SetOut(io.Discard)
		root.SetErr(stderr)
		root.SetIn(strings.NewReader(""))
		root.SetArgs(args)
		err := root.Execute()
		return stderr.String(), err
	}

	stderr, err := run("workspace", "create")
	if err == nil {
		t.Fatal("expected an argument count error")
	}
	if !strings.Contains(stderr, "Usage:") || !strings.Contains(stderr, "workspace create <name>") {
		t.Fatalf("expected usage for workspace create, got %q", stderr)
	}

	stderr, err = run("layergroup", "create", "base")
	if !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if strings.Contains(stderr, "Usage:") {
		t.Fatalf("usage must not accompany a missing flag, got %q", stderr)
	}
}

package catalog

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/beevik/etree"

	"github.com/planetfederal/gsconfig/transport"
)

const restPrefix = "/geoserver/rest"

// fakeGeoServer keeps XML documents by REST path and derives listings from
// the documents stored below a collection.
type fakeGeoServer struct {
	mu               sync.Mutex
	docs             map[string]string
	failures         map[string]int
	defaultWorkspace string
	requests         []recordedRequest
	server           *httptest.Server
}

type recordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
}

func newFakeGeoServer(t *testing.T) *fakeGeoServer {
	t.Helper()

	fake := &fakeGeoServer{
		docs:     map[string]string{},
		failures: map[string]int{},
	}
	fake.server = httptest.NewServer(http.HandlerFunc(fake.handle))
	t.Cleanup(fake.server.Close)
	return fake
}

func (f *fakeGeoServer) put(key string, document string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[key] = document
}

func (f *fakeGeoServer) fail(key string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[key] = status
}

func (f *fakeGeoServer) doc(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	document, found := f.docs[key]
	return document, found
}

func (f *fakeGeoServer) count(method string, key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, request := range f.requests {
		if request.Method == method && request.Path == key {
			total++
		}
	}
	return total
}

func (f *fakeGeoServer) mutations() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var found []recordedRequest
	for _, request := range f.requests {
		if request.Method != http.MethodGet {
			found = append(found, request)
		}
	}
	return found
}

func (f *fakeGeoServer) addWorkspace(name string) {
	f.put("/workspaces/"+name+".xml", "<workspace><name>"+name+"</name></workspace>")
	f.put("/namespaces/"+name+".xml", "<namespace><prefix>"+name+"</prefix><uri>http://example.com/"+name+"</uri></namespace>")
}

func (f *fakeGeoServer) setVersion(version string) {
	f.put("/about/version.xml", `<about><resource name="GeoServer"><Version>`+version+`</Version></resource></about>`)
}

func (f *fakeGeoServer) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	key := strings.TrimPrefix(r.URL.Path, restPrefix)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, recordedRequest{Method: r.Method, Path: key, Query: r.URL.Query(), Body: body})

	if status, failing := f.failures[key]; failing {
		w.WriteHeader(status)
		_, _ = w.Write([]byte("forced failure"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		f.get(w, key)
	case http.MethodPost:
		f.post(w, r, key, body)
	case http.MethodPut:
		f.update(w, key, body)
	case http.MethodDelete:
		f.remove(w, r, key)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeGeoServer) get(w http.ResponseWriter, key string) {
	if key == "/workspaces/default.xml" {
		if f.defaultWorkspace == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("<workspace><name>" + f.defaultWorkspace + "</name></workspace>"))
		return
	}
	if document, found := f.docs[key]; found {
		_, _ = w.Write([]byte(document))
		return
	}
	if !strings.HasSuffix(key, ".xml") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	collection := strings.TrimSuffix(key, ".xml") + "/"
	children := []string{}
	for candidate := range f.docs {
		rest, below := strings.CutPrefix(candidate, collection)
		if below && !strings.Contains(rest, "/") && strings.HasSuffix(rest, ".xml") {
			children = append(children, candidate)
		}
	}
	if len(children) == 0 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	sort.Strings(children)

	listing := etree.NewDocument()
	root := listing.CreateElement("list")
	for _, child := range children {
		document := etree.NewDocument()
		_ = document.ReadFromString(f.docs[child])
		tag := "item"
		if document.Root() != nil {
			tag = document.Root().Tag
		}
		item := root.CreateElement(tag)
		item.CreateElement("name").SetText(strings.TrimSuffix(path.Base(child), ".xml"))
	}
	text, _ := listing.WriteToString()
	_, _ = w.Write([]byte(text))
}

func (f *fakeGeoServer) post(w http.ResponseWriter, r *http.Request, key string, body []byte) {
	switch key {
	case "/reload", "/reset":
		w.WriteHeader(http.StatusOK)
		return
	}

	if strings.HasSuffix(key, "/styles") || key == "/styles" {
		name := r.URL.Query().Get("name")
		if name == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.docs[key+"/"+name+".xml"] = "<style><name>" + name + "</name><filename>" + name + ".sld</filename></style>"
		f.docs[key+"/"+name+".sld"] = string(body)
		w.WriteHeader(http.StatusCreated)
		return
	}

	document := etree.NewDocument()
	if err := document.ReadFromBytes(body); err != nil || document.Root() == nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	root := document.Root()
	name := childText(root, "name")
	if root.Tag == "namespace" {
		name = childText(root, "prefix")
		f.docs["/workspaces/"+name+".xml"] = "<workspace><name>" + name + "</name></workspace>"
	}
	if name == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if _, exists := f.docs[key+"/"+name+".xml"]; exists {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("already exists"))
		return
	}
	f.docs[key+"/"+name+".xml"] = string(body)
	w.WriteHeader(http.StatusCreated)
}

func (f *fakeGeoServer) update(w http.ResponseWriter, key string, body []byte) {
	switch {
	case key == "/workspaces/default.xml":
		document := etree.NewDocument()
		if err := document.ReadFromBytes(body); err != nil || document.Root() == nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.defaultWorkspace = childText(document.Root(), "name")
		w.WriteHeader(http.StatusOK)
		return
	case strings.HasPrefix(path.Base(key), "file."):
		storeDir := path.Dir(key)
		tag := "dataStore"
		if strings.Contains(storeDir, "/coveragestores/") {
			tag = "coverageStore"
		}
		f.docs[storeDir+".xml"] = "<" + tag + "><name>" + path.Base(storeDir) + "</name></" + tag + ">"
		w.WriteHeader(http.StatusCreated)
		return
	}

	if _, isStyle := f.docs[key+".xml"]; isStyle && strings.Contains(key, "styles/") {
		f.docs[key+".sld"] = string(body)
		w.WriteHeader(http.StatusOK)
		return
	}

	stored, found := f.docs[key]
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	current := etree.NewDocument()
	incoming := etree.NewDocument()
	if current.ReadFromString(stored) != nil || incoming.ReadFromBytes(body) != nil || incoming.Root() == nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	for _, child := range incoming.Root().ChildElements() {
		if previous := current.Root().SelectElement(child.Tag); previous != nil {
			current.Root().RemoveChild(previous)
		}
		current.Root().AddChild(child.Copy())
	}
	merged, _ := current.WriteToString()
	f.docs[key] = merged
	w.WriteHeader(http.StatusOK)
}

func (f *fakeGeoServer) remove(w http.ResponseWriter, r *http.Request, key string) {
	if _, found := f.docs[key]; !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	delete(f.docs, key)
	if r.URL.Query().Get("recurse") == "true" {
		prefix := strings.TrimSuffix(key, ".xml") + "/"
		for candidate := range f.docs {
			if strings.HasPrefix(candidate, prefix) {
				delete(f.docs, candidate)
			}
		}
	}
	w.WriteHeader(http.StatusOK)
}

// testChannel is a minimal transport without credentials or retries.
type testChannel struct {
	base string
}

func (c testChannel) ServiceURL() string {
	return c.base
}

func (c testChannel) Do(ctx context.Context, request transport.Request) (*transport.Response, error) {
	target := request.Path
	if !strings.HasPrefix(target, "http") {
		target = c.base + target
	}
	parsed, err := url.Parse(target)
	if err != nil {
		return nil, err
	}
	query := parsed.Query()
	for key, value := range request.Query {
		query.Set(key, value)
	}
	parsed.RawQuery = query.Encode()

	httpRequest, err := http.NewRequestWithContext(ctx, request.Method, parsed.String(), bytes.NewReader(request.Body))
	if err != nil {
		return nil, err
	}
	if request.ContentType != "" {
		httpRequest.Header.Set("Content-Type", request.ContentType)
	}
	response, err := http.DefaultClient.Do(httpRequest)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}
	return &transport.Response{StatusCode: response.StatusCode, Header: response.Header, Body: body}, nil
}

func newTestCatalog(t *testing.T, fake *fakeGeoServer, opts ...Option) *Catalog {
	t.Helper()

	c, err := New(testChannel{base: fake.server.URL + restPrefix}, opts...)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return c
}

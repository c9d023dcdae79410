package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"

	"github.com/planetfederal/gsconfig/catalog"
	"github.com/planetfederal/gsconfig/config"
	"github.com/planetfederal/gsconfig/faults"
	httptransport "github.com/planetfederal/gsconfig/internal/providers/transport/http"
)

const restRoot = "/geoserver/rest"

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   string
}

// fakeServer answers GETs from a path-keyed document table and records every
// other request. Mutation statuses can be forced per method and path.
type fakeServer struct {
	mu        sync.Mutex
	docs      map[string]string
	statuses  map[string]int
	mutations []recordedRequest
	server    *httptest.Server
	profiles  *memoryProfiles
	prompter  *fakePrompter
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()

	fake := &fakeServer{
		docs:     map[string]string{},
		statuses: map[string]int{},
		profiles: newMemoryProfiles(),
		prompter: &fakePrompter{},
	}
	fake.server = httptest.NewServer(http.HandlerFunc(fake.serve))
	t.Cleanup(fake.server.Close)
	return fake
}

func (f *fakeServer) serve(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, restRoot)
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Method == http.MethodGet {
		doc, found := f.docs[path]
		if !found {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, doc)
		return
	}

	f.mutations = append(f.mutations, recordedRequest{Method: r.Method, Path: path, Query: r.URL.RawQuery, Body: string(body)})
	if status, forced := f.statuses[r.Method+" "+path]; forced {
		w.WriteHeader(status)
		return
	}
	if r.Method == http.MethodPost {
		w.WriteHeader(http.StatusCreated)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (f *fakeServer) doc(path string, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[path] = body
}

func (f *fakeServer) status(method string, path string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[method+" "+path] = status
}

func (f *fakeServer) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.mutations...)
}

func (f *fakeServer) deps() Dependencies {
	return Dependencies{
		Profiles: func(string) config.ProfileService { return f.profiles },
		OpenCatalog: func(_ context.Context, _ string, selection config.ProfileSelection) (*catalog.Catalog, func() error, error) {
			channel, err := httptransport.NewChannel(config.Profile{
				Name:    selection.Name,
				Service: config.Service{URL: f.server.URL + restRoot},
			})
			if err != nil {
				return nil, nil, err
			}
			opened, err := catalog.New(channel)
			return opened, nil, err
		},
		Prompter: f.prompter,
	}
}

type fakePrompter struct {
	interactive bool
	answer      bool
	secret      string
	asked       []string
}

func (p *fakePrompter) IsInteractive(*cobra.Command) bool {
	return p.interactive
}

func (p *fakePrompter) Confirm(_ *cobra.Command, prompt string, _ bool) (bool, error) {
	p.asked = append(p.asked, prompt)
	return p.answer, nil
}

func (p *fakePrompter) Secret(_ *cobra.Command, prompt string) (string, error) {
	p.asked = append(p.asked, prompt)
	return p.secret, nil
}

// memoryProfiles is an in-memory ProfileService with no override support.
type memoryProfiles struct {
	mu       sync.Mutex
	profiles map[string]config.Profile
	current  string
}

func newMemoryProfiles() *memoryProfiles {
	return &memoryProfiles{profiles: map[string]config.Profile{}}
}

func (m *memoryProfiles) Create(_ context.Context, profile config.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.profiles[profile.Name]; exists {
		return faults.NewTypedError(faults.ValidationError, "profile exists", nil)
	}
	m.profiles[profile.Name] = profile
	if m.current == "" {
		m.current = profile.Name
	}
	return nil
}

func (m *memoryProfiles) Update(_ context.Context, profile config.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[profile.Name] = profile
	return nil
}

func (m *memoryProfiles) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.profiles[name]; !exists {
		return faults.NewTypedError(faults.NotFoundError, "profile not found", nil)
	}
	delete(m.profiles, name)
	if m.current == name {
		m.current = ""
	}
	return nil
}

func (m *memoryProfiles) SetCurrent(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.profiles[name]; !exists {
		return faults.NewTypedError(faults.NotFoundError, "profile not found", nil)
	}
	m.current = name
	return nil
}

func (m *memoryProfiles) List(context.Context) ([]config.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.profiles))
	for name := range m.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	items := make([]config.Profile, 0, len(names))
	for _, name := range names {
		items = append(items, m.profiles[name])
	}
	return items, nil
}

func (m *memoryProfiles) GetCurrent(context.Context) (config.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, exists := m.profiles[m.current]
	if !exists {
		return config.Profile{}, faults.NewTypedError(faults.NotFoundError, "no current profile", nil)
	}
	return profile, nil
}

func (m *memoryProfiles) ResolveProfile(ctx context.Context, selection config.ProfileSelection) (config.Profile, error) {
	if selection.Name == "" {
		return m.GetCurrent(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, exists := m.profiles[selection.Name]
	if !exists {
		return config.Profile{}, faults.NewTypedError(faults.NotFoundError, "profile not found", nil)
	}
	return profile, nil
}

// executeForTest runs a fresh root command, so parallel tests share no cobra state.
func executeForTest(deps Dependencies, stdin string, args ...string) (string, error) {
	root := NewRootCommand(deps)
	stdout := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), err
}

func registeredPaths(command *cobra.Command, prefix []string) [][]string {
	paths := [][]string{}
	for _, child := range command.Commands() {
		name := child.Name()
		if name == "help" || strings.HasPrefix(name, "__") {
			continue
		}
		current := append(append([]string{}, prefix...), name)
		paths = append(paths, current)
		paths = append(paths, registeredPaths(child, current)...)
	}
	return paths
}

func joinPath(path []string) string {
	if len(path) == 0 {
		return "root"
	}
	return strings.Join(path, " ")
}

package chunk_loading

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/specialistvlad/modrt/internal/app"
	"github.com/specialistvlad/modrt/internal/chunk"
	"github.com/specialistvlad/modrt/internal/fetcher"
	"github.com/specialistvlad/modrt/internal/hcl_adapter"
	"github.com/specialistvlad/modrt/internal/interop"
	"github.com/specialistvlad/modrt/internal/modsys"
	"github.com/specialistvlad/modrt/internal/resolver"
	"github.com/specialistvlad/modrt/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkServer serves files from memory and counts requests per path.
type chunkServer struct {
	mu    sync.Mutex
	hits  map[string]int
	files map[string]string
	delay time.Duration
}

func (s *chunkServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.hits[r.URL.Path]++
	body, ok := s.files[r.URL.Path]
	s.mu.Unlock()
	time.Sleep(s.delay)
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write([]byte(body))
}

func (s *chunkServer) count(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// Test for: concurrent requires of a code-split module fetch its chunk once.
func TestChunkLoading_ConcurrentRequiresShareOneFetch(t *testing.T) {
	srv := &chunkServer{
		hits:  map[string]int{},
		delay: 20 * time.Millisecond,
		files: map[string]string{
			"/chunk-1.json": `{"id": "chunk-1", "modules": [
				{"id": "M", "data": {"greeting": "hello"}, "es_module": true}
			]}`,
		},
	}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	f := fetcher.NewHTTP(ts.URL, time.Second, chunk.NewTable())
	defer f.Close()

	ctx, _ := testutil.Context(t)
	sys := modsys.New(ctx, modsys.Options{Fetcher: f})
	require.NoError(t, sys.SetDynamicModuleResourcesMap(
		[]resolver.Resource{{Path: "chunk-1.json"}},
		map[string][]int{"M": {0}},
	))
	require.NoError(t, sys.Bootstrap(ctx))

	const callers = 16
	results := make([]any, callers)
	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			waitCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			v, err := sys.DynamicRequire("M").Await(waitCtx)
			if err != nil {
				failures.Add(1)
				return
			}
			results[i] = v
		}()
	}
	wg.Wait()

	require.Zero(t, failures.Load())
	assert.Equal(t, 1, srv.count("/chunk-1.json"))
	for _, v := range results {
		assert.Same(t, results[0], v)
	}
	m := results[0].(*interop.Object)
	assert.True(t, m.IsESModule())
	assert.Equal(t, "hello", m.Value("greeting"))
}

// Test for: a failed chunk fetch fails the require and a later require retries.
func TestChunkLoading_FailedFetchIsRetriedByNextRequire(t *testing.T) {
	srv := &chunkServer{hits: map[string]int{}, files: map[string]string{}}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	f := fetcher.NewHTTP(ts.URL, time.Second, chunk.NewTable())
	defer f.Close()

	ctx, _ := testutil.Context(t)
	sys := modsys.New(ctx, modsys.Options{Fetcher: f})
	require.NoError(t, sys.SetDynamicModuleResourcesMap(
		[]resolver.Resource{{Path: "late.yaml"}},
		map[string][]int{"late": {0}},
	))
	require.NoError(t, sys.Bootstrap(ctx))

	_, err := sys.Require("late").Await(ctx)
	require.ErrorIs(t, err, resolver.ErrResourceLoad)
	assert.False(t, sys.IsResourceLoaded("late.yaml"))

	srv.mu.Lock()
	srv.files["/late.yaml"] = "id: late\nmodules:\n  - id: late\n    data: 42\n"
	srv.mu.Unlock()

	v, err := sys.Require("late").Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)
	assert.Equal(t, 2, srv.count("/late.yaml"))
}

// Test for: the CLI host boots a manifest whose chunks come from an HTTP origin.
func TestChunkLoading_AppOverHTTP(t *testing.T) {
	srv := &chunkServer{
		hits: map[string]int{},
		files: map[string]string{
			"/assets/index.json": `{"id": "index", "modules": [
				{"id": "main", "factory": "print", "options": {"require": ["page"]}}
			]}`,
			"/assets/page.toml": "id = \"page\"\n\n[[modules]]\nid = \"page\"\n\n[modules.data]\ntitle = \"Home\"\n",
			"/assets/page.css":  "body {}",
		},
	}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	dir := testutil.WriteFiles(t, map[string]string{
		"manifest.hcl": `
			initial_resources = ["index.json"]
			entries           = ["main"]

			resource {
			  path = "page.css"
			  type = "css"
			}
			resource {
			  path = "page.toml"
			}
			dynamic_modules = { page = [0, 1] }
		`,
	})

	cfg, err := app.NewConfig(app.Config{ManifestPath: dir, BaseURL: ts.URL + "/assets/"})
	require.NoError(t, err)
	out := &strings.Builder{}
	a, err := app.NewApp(out, &testutil.SafeBuffer{}, cfg, hcl_adapter.NewLoader())
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, out.String(), "page = {\"title\":\"Home\"}\n")
	assert.Equal(t, []string{"index.json", "page.css", "page.toml"}, a.System().LoadedResources())
	assert.Equal(t, 1, srv.count("/assets/page.css"))
}

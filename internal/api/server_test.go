package api

import (
	"context"
	"encoding/json"
	"io"
	"iter"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vivahvendors/vendor-crawler/internal/catalog"
	"github.com/vivahvendors/vendor-crawler/internal/metrics"
	"github.com/vivahvendors/vendor-crawler/internal/model"
	"github.com/vivahvendors/vendor-crawler/internal/pipeline"
	"github.com/vivahvendors/vendor-crawler/internal/source"
)

type namedAdapter string

func (n namedAdapter) Name() string { return string(n) }
func (n namedAdapter) Active() bool { return true }
func (n namedAdapter) Scrape(context.Context, source.ScrapeConfig) iter.Seq[model.RawVendor] {
	return func(func(model.RawVendor) bool) {}
}

type fakeRunner struct {
	mu      sync.Mutex
	calls   []pipeline.RunOpts
	release chan struct{}
}

func (f *fakeRunner) Run(ctx context.Context, opts pipeline.RunOpts) (*pipeline.RunResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, opts)
	f.mu.Unlock()
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &pipeline.RunResult{RunID: "r1", Status: catalog.RunCompleted}, nil
}

func (f *fakeRunner) Calls() []pipeline.RunOpts {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]pipeline.RunOpts(nil), f.calls...)
}

type testEnv struct {
	srv    *httptest.Server
	api    *Server
	store  *catalog.SQLiteStore
	runner *fakeRunner
}

func newTestEnv(t *testing.T, runner *fakeRunner) *testEnv {
	t.Helper()
	st, err := catalog.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	reg := source.NewRegistry(namedAdapter("google-places"), namedAdapter("wedmegood"))
	s := NewServer(context.Background(), st, reg, runner, Options{
		Defaults:    pipeline.RunOpts{Source: "google-places", Region: "IN", City: "Mumbai", MaxResults: 20},
		CORSOrigins: []string{"*"},
		Recorder:    metrics.NewRecorder(),
	})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, api: s, store: st, runner: runner}
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func post(t *testing.T, url, body string) (int, map[string]string) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, &fakeRunner{})

	var body map[string]string
	assert.Equal(t, http.StatusOK, getJSON(t, env.srv.URL+"/health", &body))
	assert.Equal(t, "ok", body["status"])
}

func TestHealth_StoreDown(t *testing.T) {
	env := newTestEnv(t, &fakeRunner{})
	require.NoError(t, env.store.Close())

	var body map[string]string
	assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, env.srv.URL+"/health", &body))
	assert.Equal(t, "unavailable", body["status"])
}

func TestRuns_ListAndGet(t *testing.T) {
	env := newTestEnv(t, &fakeRunner{})
	ctx := context.Background()

	run, err := env.store.StartRun(ctx, "google-places | IN/Chennai")
	require.NoError(t, err)
	require.NoError(t, env.store.FinishRun(ctx, run.ID, catalog.RunCompleted, catalog.RunCounts{Found: 3, Created: 2, Skipped: 1}))
	_, err = env.store.StartRun(ctx, "wedmegood | IN/Delhi")
	require.NoError(t, err)

	var list struct {
		Runs []catalog.CrawlRun `json:"runs"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, env.srv.URL+"/runs?limit=1", &list))
	require.Len(t, list.Runs, 1)
	assert.Equal(t, "wedmegood | IN/Delhi", list.Runs[0].Source)

	var got catalog.CrawlRun
	assert.Equal(t, http.StatusOK, getJSON(t, env.srv.URL+"/runs/"+run.ID, &got))
	assert.Equal(t, catalog.RunCompleted, got.Status)
	assert.Equal(t, 2, got.Created)
	assert.NotNil(t, got.CompletedAt)
}

func TestRuns_EmptyListIsArray(t *testing.T) {
	env := newTestEnv(t, &fakeRunner{})

	resp, err := http.Get(env.srv.URL + "/runs")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"runs":[]}`, string(body))
}

func TestRuns_BadLimitAndMissingRun(t *testing.T) {
	env := newTestEnv(t, &fakeRunner{})

	assert.Equal(t, http.StatusBadRequest, getJSON(t, env.srv.URL+"/runs?limit=abc", nil))
	assert.Equal(t, http.StatusNotFound, getJSON(t, env.srv.URL+"/runs/nope", nil))
}

func TestProfileSources(t *testing.T) {
	env := newTestEnv(t, &fakeRunner{})
	ctx := context.Background()

	now := time.Now().UTC()
	nv := &catalog.NewVendor{
		OwnerID:    "u1",
		OwnerEmail: "unclaimed-rajesh@vivahvendors.placeholder",
		OwnerName:  "Rajesh",
		Profile: catalog.Profile{
			ID: "p1", BusinessName: "Rajesh Photography Studio", Slug: "rajesh-photography-studio", City: "Chennai",
		},
		ListingID:    "l1",
		ListingSlug:  "rajesh-photography-studio-services",
		ListingTitle: "Rajesh Photography Studio — Wedding Services",
		PriceType:    catalog.PriceOnRequest,
		Link: catalog.SourceLink{
			SourceName: "google-places", SourceURL: "https://maps.google.com/?q=Rajesh", ExternalID: "place-1", LastScrapedAt: now,
		},
	}
	require.NoError(t, env.store.CreateVendor(ctx, nv))

	var body struct {
		ProfileID string               `json:"profile_id"`
		Sources   []catalog.SourceLink `json:"sources"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, env.srv.URL+"/profiles/p1/sources", &body))
	assert.Equal(t, "p1", body.ProfileID)
	require.Len(t, body.Sources, 1)
	assert.Equal(t, "place-1", body.Sources[0].ExternalID)

	assert.Equal(t, http.StatusNotFound, getJSON(t, env.srv.URL+"/profiles/missing/sources", nil))
}

func TestStartRun_UsesDefaultsAndRejectsConcurrent(t *testing.T) {
	runner := &fakeRunner{release: make(chan struct{})}
	env := newTestEnv(t, runner)

	status, body := post(t, env.srv.URL+"/runs", `{"city":"Chennai","category":"photographer","seed":true}`)
	assert.Equal(t, http.StatusAccepted, status)
	assert.Equal(t, "google-places | IN/Chennai", body["source"])

	status, body = post(t, env.srv.URL+"/runs", `{}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, body["error"], "already running")

	close(runner.release)
	env.api.Wait()

	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, pipeline.RunOpts{
		Source: "google-places", Region: "IN", City: "Chennai", Category: "photographer", MaxResults: 20, Seed: true,
	}, calls[0])

	// Free again once the first crawl finished.
	status, _ = post(t, env.srv.URL+"/runs", ``)
	assert.Equal(t, http.StatusAccepted, status)
	env.api.Wait()
	assert.Len(t, runner.Calls(), 2)
}

func TestStartRun_UnknownSource(t *testing.T) {
	runner := &fakeRunner{}
	env := newTestEnv(t, runner)

	status, body := post(t, env.srv.URL+"/runs", `{"source":"yelp"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"], "google-places, wedmegood, all")
	assert.Empty(t, runner.Calls())
}

func TestStartRun_BadBody(t *testing.T) {
	env := newTestEnv(t, &fakeRunner{})
	status, _ := post(t, env.srv.URL+"/runs", `{not json`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, &fakeRunner{})

	resp, err := http.Get(env.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, &fakeRunner{})

	req, err := http.NewRequest(http.MethodOptions, env.srv.URL+"/runs", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://ops.vivahvendors.in")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

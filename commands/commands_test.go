package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"sjsage522/contactmerge/config"
	"sjsage522/contactmerge/helpers"
	"sjsage522/contactmerge/internal"
	"sjsage522/contactmerge/internal/dataset"
	"sjsage522/contactmerge/services/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockPublisher records published messages per key
type MockPublisher struct {
	mu       sync.Mutex
	messages map[string][][]byte
}

func (m *MockPublisher) Publish(key string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.messages == nil {
		m.messages = make(map[string][][]byte)
	}
	m.messages[key] = append(m.messages[key], append([]byte(nil), message...))
	return nil
}

func (m *MockPublisher) TrimStreams() error { return nil }

func (m *MockPublisher) Close() error { return nil }

func testEnv(t *testing.T) (*environment, *MockPublisher) {
	pub := &MockPublisher{}
	cfg := &config.Config{
		RedisStream:          "contacts",
		RedisStreamCount:     1,
		RedisStreamMaxLength: 10,
		CacheTTL:             time.Hour,
		HTTPTimeout:          5 * time.Second,
		RateLimitBlock:       time.Minute,
		NameMatchThreshold:   1,
		WorkerConcurrency:    2,
		ErrorLogFile:         filepath.Join(t.TempDir(), "errors.log"),
	}
	return &environment{
		cfg: cfg,
		deps: internal.Dependencies{
			Cache:     cache.NewMemoryCache(),
			Publisher: pub,
			Journal:   helpers.NopJournal{},
		},
	}, pub
}

func run(t *testing.T, env *environment, args ...string) (string, error) {
	var out bytes.Buffer
	root := newRootCommand(env)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestAggregateMergesIntoExisting(t *testing.T) {
	env, pub := testEnv(t)
	dir := t.TempDir()

	existing := writeFile(t, dir, "curators.csv",
		"curator_name,steam_profile,followers,reviews,about_me,email,game\n"+
			"Deck Lovers,https://store.steampowered.com/curator/1,1200,45,We love deckbuilders,,Balatro\n")
	observations := writeFile(t, dir, "run.csv",
		"curator_name,steam_profile,followers,reviews,about_me,email,game\n"+
			"Deck Lovers,https://store.steampowered.com/curator/1,1300,46,,hello@decklovers.gg,Hades\n"+
			"Fresh Picks,https://store.steampowered.com/curator/9,10,2,Fresh stuff,,Hades\n"+
			"N/A,,,,,,Hades\n")

	out, err := run(t, env, "aggregate", "--input-csv", existing, observations, "--publish")
	require.NoError(t, err)
	assert.Contains(t, out, "Curators")

	result, err := dataset.ReadFile(existing)
	require.NoError(t, err)
	require.Equal(t, 2, result.Len())
	assert.Equal(t, "Balatro;Hades", result.Rows[0]["game"])
	assert.Equal(t, "hello@decklovers.gg", result.Rows[0]["email"])
	assert.Equal(t, "1", result.Rows[0]["has_email"])
	assert.Equal(t, "Fresh Picks", result.Rows[1]["curator_name"])
	assert.Equal(t, "Fresh stuff", result.Rows[1]["about_me"])

	require.Len(t, pub.messages[curatorStreamKey], 1)
	var published map[string]interface{}
	require.NoError(t, json.Unmarshal(pub.messages[curatorStreamKey][0], &published))
	assert.Equal(t, "Fresh Picks", published["curator_name"])
}

func TestAggregateExportNewOnly(t *testing.T) {
	env, _ := testEnv(t)
	dir := t.TempDir()

	existing := writeFile(t, dir, "curators.csv",
		"curator_name,steam_profile,game\nDeck Lovers,p1,Balatro\n")
	observations := writeFile(t, dir, "run.csv",
		"curator_name,steam_profile,game\nDeck Lovers,p1,Hades\nFresh Picks,p9,Hades\n")
	output := filepath.Join(dir, "new.csv")

	_, err := run(t, env, "aggregate", "--input-csv", existing, "--output", output, "--export-new-only", observations)
	require.NoError(t, err)

	result, err := dataset.ReadFile(output)
	require.NoError(t, err)
	require.Equal(t, 1, result.Len())
	assert.Equal(t, "Fresh Picks", result.Rows[0]["curator_name"])
}

func TestAggregateExportNewOnlyKeepsInput(t *testing.T) {
	env, _ := testEnv(t)
	dir := t.TempDir()

	existing := writeFile(t, dir, "curators.csv",
		"curator_name,steam_profile,game\nDeck Lovers,p1,Balatro\nOld Friend,p2,Balatro\n")
	observations := writeFile(t, dir, "run.csv",
		"curator_name,steam_profile,game\nFresh Picks,p9,Hades\n")

	out, err := run(t, env, "aggregate", "--input-csv", existing, "--export-new-only", observations)
	require.NoError(t, err)
	assert.Contains(t, out, "curators_new.csv")

	kept, err := dataset.ReadFile(existing)
	require.NoError(t, err)
	require.Equal(t, 2, kept.Len())
	assert.Equal(t, "Deck Lovers", kept.Rows[0]["curator_name"])
	assert.Equal(t, "Old Friend", kept.Rows[1]["curator_name"])

	fresh, err := dataset.ReadFile(filepath.Join(dir, "curators_new.csv"))
	require.NoError(t, err)
	require.Equal(t, 1, fresh.Len())
	assert.Equal(t, "Fresh Picks", fresh.Rows[0]["curator_name"])
}

func TestAggregateResolvesAppIDs(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, `{"2379780":{"success":true,"data":{"name":"Balatro"}}}`)
	}))
	defer server.Close()

	env, _ := testEnv(t)
	env.cfg.SteamStoreURL = server.URL
	dir := t.TempDir()

	observations := writeFile(t, dir, "run.csv",
		"curator_name,steam_profile,appid\nA,p1,2379780\nB,p2,\n")
	output := filepath.Join(dir, "out.csv")

	_, err := run(t, env, "aggregate", "--appid", "2379780", "--output", output, observations)
	require.NoError(t, err)

	result, err := dataset.ReadFile(output)
	require.NoError(t, err)
	require.Equal(t, 2, result.Len())
	assert.Equal(t, "Balatro", result.Rows[0]["game"])
	assert.Equal(t, "Balatro", result.Rows[1]["game"], "rows without appid use the single game id")
	assert.Equal(t, int32(1), calls)
}

func TestMergeRunsCommand(t *testing.T) {
	env, _ := testEnv(t)
	dir := t.TempDir()

	run1 := writeFile(t, dir, "run1.csv", "channel_id,channel_name,emails\nUC1,First,\n")
	run2 := writeFile(t, dir, "run2.csv", "channel_id,channel_name,emails\nUC1,Other,a@b.io\nUC2,Second,\n")
	output := filepath.Join(dir, "merged.csv")

	out, err := run(t, env, "merge-runs", run1, filepath.Join(dir, "missing.csv"), run2, "--output", output)
	require.NoError(t, err)
	assert.Contains(t, out, "Duplicates")

	merged, err := dataset.ReadFile(output)
	require.NoError(t, err)
	require.Equal(t, 2, merged.Len())
	assert.Equal(t, "First", merged.Rows[0]["channel_name"])
	assert.Equal(t, "a@b.io", merged.Rows[0]["emails"])

	_, err = run(t, env, "merge-runs", filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func TestLinksPipeline(t *testing.T) {
	env, _ := testEnv(t)
	dir := t.TempDir()

	contacts := writeFile(t, dir, "contacts.csv",
		"channel_url,video_url,description\n"+
			"https://www.youtube.com/@maker,https://www.youtube.com/watch?v=1,Biz: https://twitter.com/maker\n"+
			"https://www.youtube.com/@other,https://www.youtube.com/watch?v=2,https://x.com/maker/ and https://maker.io\n")
	extracted := filepath.Join(dir, "extracted.csv")
	uniform := filepath.Join(dir, "uniform.csv")
	final := filepath.Join(dir, "final.csv")

	_, err := run(t, env, "extract-links", "--input", contacts, "--output", extracted)
	require.NoError(t, err)
	_, err = run(t, env, "uniformize", "--input", extracted, "--output", uniform)
	require.NoError(t, err)
	_, err = run(t, env, "pivot", "--rows", contacts, "--uniform", uniform, "--output", final)
	require.NoError(t, err)

	result, err := dataset.ReadFile(final)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"channel_url", "video_url", "description",
		"twitter", "website", "youtube", "website_1", "website_2",
	}, result.Header)
	assert.Equal(t, "twitter:maker", result.Rows[0]["twitter"])
	assert.Equal(t, "twitter:maker", result.Rows[1]["twitter"])
	assert.Equal(t, "youtube:@maker", result.Rows[0]["youtube"])
	assert.Equal(t, "https://maker.io", result.Rows[1]["website_2"])
}

func TestCleanCommand(t *testing.T) {
	env, _ := testEnv(t)
	dir := t.TempDir()

	input := writeFile(t, dir, "yt.csv",
		"channel_url,links,empty\n"+
			"https://www.youtube.com/@maker,https://www.youtube.com/@maker|https://maker.io/?utm_source=x,\n")
	output := filepath.Join(dir, "clean.csv")

	out, err := run(t, env, "clean", "--input", input, "--output", output, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Would write 1 rows and 2 columns")
	assert.NoFileExists(t, output)

	_, err = run(t, env, "clean", "--input", input, "--output", output)
	require.NoError(t, err)
	result, err := dataset.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, []string{"channel_url", "links"}, result.Header)
	assert.Equal(t, "https://maker.io/", result.Rows[0]["links"])
}

func TestFillAboutAndExtractEmails(t *testing.T) {
	env, _ := testEnv(t)
	dir := t.TempDir()

	curators := writeFile(t, dir, "curators.csv",
		"curator_name,steam_profile,about_me,email\nA,p1,,\nB,p2,Contact b@b.io,\n")
	results := writeFile(t, dir, "about.csv", "steam_profile,about_me,email\np1,A about,a@a.io\n")

	_, err := run(t, env, "fill-about", "--input", curators, "--results", results)
	require.NoError(t, err)

	filled, err := dataset.ReadFile(curators)
	require.NoError(t, err)
	assert.Equal(t, "A about", filled.Rows[0]["about_me"])
	assert.Equal(t, "a@a.io", filled.Rows[0]["email"])
	assert.Equal(t, "b@b.io", filled.Rows[1]["email"])

	plain := writeFile(t, dir, "plain.csv", "curator_name,about_me\nC,write to c@c.io\n")
	_, err = run(t, env, "extract-emails", "--input", plain)
	require.NoError(t, err)

	withEmails, err := dataset.ReadFile(filepath.Join(dir, "plain_emails.csv"))
	require.NoError(t, err)
	assert.Equal(t, "c@c.io", withEmails.Rows[0]["email"])
	assert.Equal(t, "1", withEmails.Rows[0]["has_email"])
}

func TestDiscoverCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			fmt.Fprint(w, `{"items":[{"snippet":{"channelId":"UC1","channelTitle":"Deck Talk"}}]}`)
		case "/channels":
			fmt.Fprint(w, `{"items":[{"snippet":{"description":"mail deck@talk.tv"}}]}`)
		}
	}))
	defer server.Close()

	env, pub := testEnv(t)
	env.cfg.YouTubeAPIURL = server.URL
	env.cfg.YouTubeAPIKey = "key"
	output := filepath.Join(t.TempDir(), "out", "channels.csv")

	out, err := run(t, env, "discover", "--query", "balatro", "--output", output, "--publish")
	require.NoError(t, err)
	assert.Contains(t, out, "Channels with email")

	result, err := dataset.ReadFile(output)
	require.NoError(t, err)
	require.Equal(t, 1, result.Len())
	assert.Equal(t, "deck@talk.tv", result.Rows[0]["emails"])
	assert.Len(t, pub.messages[channelStreamKey], 1)
}

func TestDiscoverRequiresKey(t *testing.T) {
	env, _ := testEnv(t)
	_, err := run(t, env, "discover", "--output", filepath.Join(t.TempDir(), "x.csv"))
	assert.Error(t, err)
}

func TestAnnotateAndSummary(t *testing.T) {
	env, _ := testEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "contacts.csv", "channel_id,emails\nUC1,a@b.io\nUC2,\n")

	out, err := run(t, env, "annotate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "contacts.csv: annotated")

	out, err = run(t, env, "annotate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "already annotated")

	out, err = run(t, env, "summary", path)
	require.NoError(t, err)
	assert.Contains(t, out, "With email")
	assert.Contains(t, out, "contacts.csv")
}

func TestWithSuffix(t *testing.T) {
	assert.Equal(t, "data/curators_emails.csv", withSuffix("data/curators.csv", "_emails"))
	assert.Equal(t, "list_emails.csv", withSuffix("list", "_emails"))
}

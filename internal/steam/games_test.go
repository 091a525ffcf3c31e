package steam

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"sjsage522/contactmerge/services/cache"

	"github.com/stretchr/testify/assert"
)

func TestParseGameIDs(t *testing.T) {
	testCases := []struct {
		name     string
		lines    []string
		expected []string
	}{
		{"one per line", []string{"# demo list", "2379780", "", " 1145360 "}, []string{"2379780", "1145360"}},
		{"single comma list", []string{"2379780, 1145360,,646570"}, []string{"2379780", "1145360", "646570"}},
		{"store urls", []string{"https://store.steampowered.com/app/1145360/Hades/"}, []string{"1145360"}},
		{"empty", []string{"#", " "}, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParseGameIDs(tc.lines))
		})
	}
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "curators_2379780_1145360_full.csv", OutputName([]string{"2379780", "1145360"}, false))
	assert.Equal(t, "curators_a_b_test.csv", OutputName([]string{"a/b"}, true))
}

func TestAppName(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		switch r.URL.Query().Get("appids") {
		case "2379780":
			fmt.Fprint(w, `{"2379780":{"success":true,"data":{"name":"Balatro"}}}`)
		case "1":
			fmt.Fprint(w, `{"1":{"success":false}}`)
		default:
			w.WriteHeader(http.StatusTooManyRequests)
		}
	}))
	defer server.Close()

	c := cache.NewMemoryCache()
	client := NewClient(server.URL, c, time.Hour, time.Minute)
	ctx := context.Background()

	assert.Equal(t, "Balatro", client.AppName(ctx, "2379780"))
	assert.Equal(t, "Balatro", client.AppName(ctx, "2379780"))
	assert.Equal(t, int32(1), calls, "second lookup is cached")

	assert.Equal(t, "Unknown (1)", client.AppName(ctx, "1"))

	assert.Equal(t, "Unknown (99)", client.AppName(ctx, "99"))
	assert.True(t, cache.IsBlocked(c, blockKey))
	before := atomic.LoadInt32(&calls)
	assert.Equal(t, "Unknown (98)", client.AppName(ctx, "98"))
	assert.Equal(t, before, atomic.LoadInt32(&calls), "blocked lookups skip the API")
}

func TestAppNameEscapesID(t *testing.T) {
	var got []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.URL.Query().Get("appids"), r.URL.Query().Get("cc"))
		fmt.Fprint(w, `{"12&cc=us#x":{"success":true,"data":{"name":"Odd Game"}}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, cache.NewMemoryCache(), time.Hour, time.Minute)

	assert.Equal(t, "Odd Game", client.AppName(context.Background(), "12&cc=us#x"))
	assert.Equal(t, []string{"12&cc=us#x", ""}, got)
}

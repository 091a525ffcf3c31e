package youtube

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"sjsage522/contactmerge/helpers"
	"sjsage522/contactmerge/internal/contact"
	"sjsage522/contactmerge/internal/dataset"
	"sjsage522/contactmerge/logger"
	pkgerrors "sjsage522/contactmerge/pkg/errors"
	"sjsage522/contactmerge/services/cache"
	"sjsage522/contactmerge/services/worker"
)

const (
	stage = "discover"

	// maxResults is the largest page search.list accepts
	maxResults = 50

	blockKey = "yt_api_blocked"
)

// DefaultQueries are searched when no query is given
var DefaultQueries = []string{
	"hearthstone", "magic the gathering", "pokemon card game",
	"slay the spire", "balatro", "hades game", "binding of isaac",
	"steam next fest", "indie games", "demo games", "new games",
}

// Columns is the header of a discovery table
var Columns = []string{"channel_id", "channel_name", "channel_url", "channel_description", "emails"}

// Channel is a channel found by a search
type Channel struct {
	ID          string   `json:"channel_id"`
	Name        string   `json:"channel_name"`
	URL         string   `json:"channel_url"`
	Description string   `json:"channel_description"`
	Emails      []string `json:"emails"`
}

// Options configures a Client
type Options struct {
	BaseURL   string
	APIKey    string
	Cache     cache.CacheService
	CacheTTL  time.Duration
	BlockTime time.Duration
}

// Client talks to the YouTube Data API v3
type Client struct {
	baseURL   string
	apiKey    string
	cache     cache.CacheService
	cacheTTL  time.Duration
	blockTime time.Duration
}

type searchResponse struct {
	Items []struct {
		Snippet struct {
			ChannelID    string `json:"channelId"`
			ChannelTitle string `json:"channelTitle"`
		} `json:"snippet"`
	} `json:"items"`
}

type channelsResponse struct {
	Items []struct {
		Snippet struct {
			Description string `json:"description"`
		} `json:"snippet"`
	} `json:"items"`
}

// NewClient creates a client. An API key is required.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, pkgerrors.NewConfiguration("YOUTUBE_API_KEY is required for discovery", nil)
	}
	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		apiKey:    opts.APIKey,
		cache:     opts.Cache,
		cacheTTL:  opts.CacheTTL,
		blockTime: opts.BlockTime,
	}, nil
}

// get performs one API call, honouring and recording rate limit blocks
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, v interface{}) error {
	if cache.IsBlocked(c.cache, blockKey) {
		return pkgerrors.NewRateLimit(stage, c.blockTime)
	}

	params.Set("key", c.apiKey)
	err := helpers.FetchJSON(ctx, c.baseURL+"/"+endpoint+"?"+params.Encode(), v)
	if pkgerrors.Is(err, pkgerrors.ErrorTypeRateLimit) {
		if blockErr := cache.Block(c.cache, blockKey, c.blockTime); blockErr != nil {
			logger.ForCache().Warn().Err(blockErr).Msg("Failed to store rate limit block")
		}
	}
	return err
}

// Search returns the channels behind the videos matching query, in result
// order and without duplicates
func (c *Client) Search(ctx context.Context, query string, max int) ([]Channel, error) {
	if max <= 0 || max > maxResults {
		max = maxResults
	}
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("order", "relevance")
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(max))

	var resp searchResponse
	if err := c.get(ctx, "search", params, &resp); err != nil {
		return nil, err
	}

	var out []Channel
	seen := make(map[string]struct{})
	for _, item := range resp.Items {
		id := item.Snippet.ChannelID
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, Channel{
			ID:   id,
			Name: item.Snippet.ChannelTitle,
			URL:  ChannelURL(id),
		})
	}
	return out, nil
}

// Description returns a channel's about text, cached per channel
func (c *Client) Description(ctx context.Context, channelID string) (string, error) {
	data, err := cache.Remember(c.cache, "yt_channel_"+channelID, c.cacheTTL, func() ([]byte, error) {
		params := url.Values{}
		params.Set("part", "snippet")
		params.Set("id", channelID)

		var resp channelsResponse
		if err := c.get(ctx, "channels", params, &resp); err != nil {
			return nil, err
		}
		description := ""
		if len(resp.Items) > 0 {
			description = resp.Items[0].Snippet.Description
		}
		return json.Marshal(description)
	})
	if err != nil {
		return "", err
	}

	var description string
	if err := json.Unmarshal(data, &description); err != nil {
		return "", pkgerrors.NewParsing(stage, "cached description for "+channelID, err)
	}
	return description, nil
}

// Discover searches every query, collects the unique channels in first-seen
// order and then fetches their descriptions through w. A failed query or
// description is logged and skipped.
func (c *Client) Discover(ctx context.Context, w *worker.Worker, queries []string, maxPerQuery int) []Channel {
	log := logger.FromContext(ctx).WithField("stage", stage)

	var channels []Channel
	index := make(map[string]int)
	for _, q := range queries {
		found, err := c.Search(ctx, q, maxPerQuery)
		if err != nil {
			log.Warn().Err(err).Str("query", q).Msg("Search failed")
			continue
		}
		added := 0
		for _, ch := range found {
			if _, ok := index[ch.ID]; ok {
				continue
			}
			index[ch.ID] = len(channels)
			channels = append(channels, ch)
			added++
		}
		log.Debug().Str("query", q).Int("channels", added).Msg("Search done")
	}

	var mu sync.Mutex
	jobs := make([]worker.Job, len(channels))
	for i := range channels {
		id := channels[i].ID
		jobs[i] = worker.Job{
			Name: stage + ":" + id,
			Run: func(ctx context.Context) error {
				description, err := c.Description(ctx, id)
				if err != nil {
					return err
				}
				mu.Lock()
				defer mu.Unlock()
				ch := &channels[index[id]]
				ch.Description = description
				ch.Emails = contact.FindAll(description)
				return nil
			},
		}
	}
	if failed := w.Run(jobs); failed > 0 {
		log.Warn().Int("failed", failed).Msg("Some channel descriptions could not be fetched")
	}
	return channels
}

// ChannelURL returns the canonical page of a channel id
func ChannelURL(id string) string {
	return "https://www.youtube.com/channel/" + id
}

// Table renders channels in discovery order
func Table(channels []Channel) *dataset.Table {
	t := dataset.NewTable(Columns...)
	for _, ch := range channels {
		t.Rows = append(t.Rows, dataset.Row{
			"channel_id":          ch.ID,
			"channel_name":        ch.Name,
			"channel_url":         ch.URL,
			"channel_description": ch.Description,
			"emails":              strings.Join(ch.Emails, ";"),
		})
	}
	return t
}

package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"sjsage522/contactmerge/helpers"
	"sjsage522/contactmerge/logger"
	pkgerrors "sjsage522/contactmerge/pkg/errors"
	"sjsage522/contactmerge/services/cache"
)

const (
	stage    = "steam"
	blockKey = "steam_api_blocked"
)

// ParseGameIDs normalizes a list of game ids. Blank lines and lines
// starting with # are dropped, store URLs are reduced to their app id, and
// a single comma separated entry is split.
func ParseGameIDs(lines []string) []string {
	var ids []string
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" || strings.HasPrefix(l, "#") {
			continue
		}
		ids = append(ids, l)
	}
	if len(ids) == 1 && strings.Contains(ids[0], ",") {
		ids = helpers.SplitList(ids[0], ",")
	}
	for i, id := range ids {
		ids[i] = appIDFromURL(id)
	}
	return ids
}

// appIDFromURL reduces a store URL such as /app/1145360/Hades/ to its id
func appIDFromURL(id string) string {
	if !strings.Contains(id, "/app/") {
		return id
	}
	rest, err := helpers.GetSplitPart(id, "/app/", 1)
	if err != nil {
		return id
	}
	appid, err := helpers.GetSplitPart(rest, "/", 0)
	if err != nil || appid == "" {
		return id
	}
	return appid
}

// OutputName is the default aggregate file for a set of game ids
func OutputName(ids []string, test bool) string {
	safe := make([]string, len(ids))
	for i, id := range ids {
		safe[i] = strings.ReplaceAll(id, "/", "_")
	}
	mode := "full"
	if test {
		mode = "test"
	}
	return fmt.Sprintf("curators_%s_%s.csv", strings.Join(safe, "_"), mode)
}

// UnknownName is the placeholder used when a game name cannot be resolved
func UnknownName(appid string) string {
	return fmt.Sprintf("Unknown (%s)", appid)
}

// Client resolves app ids through the store's appdetails API
type Client struct {
	baseURL   string
	cache     cache.CacheService
	cacheTTL  time.Duration
	blockTime time.Duration
}

// NewClient creates a store client
func NewClient(baseURL string, c cache.CacheService, cacheTTL, blockTime time.Duration) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		cache:     c,
		cacheTTL:  cacheTTL,
		blockTime: blockTime,
	}
}

type appDetails map[string]struct {
	Success bool `json:"success"`
	Data    struct {
		Name string `json:"name"`
	} `json:"data"`
}

// AppName returns the store name of appid, or Unknown (appid) when the
// store cannot tell
func (c *Client) AppName(ctx context.Context, appid string) string {
	appid = strings.TrimSpace(appid)
	name, err := c.lookup(ctx, appid)
	if err != nil {
		logger.ForStage(stage).Warn().Err(err).Str("appid", appid).Msg("Game name lookup failed")
		return UnknownName(appid)
	}
	if name == "" {
		return UnknownName(appid)
	}
	return name
}

func (c *Client) lookup(ctx context.Context, appid string) (string, error) {
	data, err := cache.Remember(c.cache, "steam_app_"+appid, c.cacheTTL, func() ([]byte, error) {
		if cache.IsBlocked(c.cache, blockKey) {
			return nil, pkgerrors.NewRateLimit(stage, c.blockTime)
		}

		var details appDetails
		params := url.Values{}
		params.Set("appids", appid)
		err := helpers.FetchJSON(ctx, c.baseURL+"/api/appdetails?"+params.Encode(), &details)
		if pkgerrors.Is(err, pkgerrors.ErrorTypeRateLimit) {
			_ = cache.Block(c.cache, blockKey, c.blockTime)
		}
		if err != nil {
			return nil, err
		}

		entry, ok := details[appid]
		if !ok || !entry.Success || entry.Data.Name == "" {
			return nil, pkgerrors.NewValidation(stage, "no store entry for app "+appid)
		}
		return json.Marshal(entry.Data.Name)
	})
	if err != nil {
		return "", err
	}

	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return "", pkgerrors.NewParsing(stage, "cached name for app "+appid, err)
	}
	return name, nil
}

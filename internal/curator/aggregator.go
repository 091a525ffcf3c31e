package curator

import (
	"slices"
	"strconv"
	"strings"

	"sjsage522/contactmerge/internal/contact"
	"sjsage522/contactmerge/internal/dataset"
	"sjsage522/contactmerge/logger"
	"sjsage522/contactmerge/pkg/errors"

	"dario.cat/mergo"
	"github.com/antzucaro/matchr"
)

// Columns is the header of an aggregated curator CSV
var Columns = []string{
	"curator_name", "steam_profile", "followers", "reviews", "external_site",
	"about_me", "sample_review", "email", "has_email", "game",
}

// notAvailable is the placeholder scrapers write for a missing name or count
const notAvailable = "N/A"

// Curator holds the facts known about one curator
type Curator struct {
	Name         string `json:"curator_name"`
	Profile      string `json:"steam_profile"`
	Followers    string `json:"followers"`
	Reviews      int    `json:"reviews"`
	ExternalSite string `json:"external_site"`
	AboutMe      string `json:"about_me"`
	SampleReview string `json:"sample_review"`
	Email        string `json:"email"`
}

// Key is the identity used to deduplicate curators: the profile URL when
// known, the normalized name otherwise
func (c Curator) Key() string {
	if p := strings.TrimSpace(c.Profile); p != "" {
		return p
	}
	return normalizeName(c.Name)
}

// FromRow reads a curator from a CSV row
func FromRow(r dataset.Row) Curator {
	return Curator{
		Name:         r.Get("curator_name"),
		Profile:      r.Get("steam_profile"),
		Followers:    r.Get("followers"),
		Reviews:      parseCount(r.Get("reviews")),
		ExternalSite: r.Get("external_site"),
		AboutMe:      r.Get("about_me"),
		SampleReview: r.Get("sample_review"),
		Email:        r.Get("email"),
	}
}

// SplitGames splits a ';' separated game field
func SplitGames(field string) []string {
	var out []string
	for _, g := range strings.Split(field, ";") {
		if g = strings.TrimSpace(g); g != "" {
			out = append(out, g)
		}
	}
	return out
}

func parseCount(s string) int {
	n, err := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if err != nil {
		return 0
	}
	return n
}

type entry struct {
	key   string
	data  Curator
	games map[string]struct{}
	isNew bool
}

// Stats counts what happened to observed records
type Stats struct {
	Loaded     int
	New        int
	Merged     int
	Reconciled int
	Skipped    int
}

// Aggregator builds one row per curator across runs, games and keys
type Aggregator struct {
	entries   map[string]*entry
	order     []*entry
	threshold float64
	stats     Stats
	log       *logger.Logger
}

// NewAggregator creates an aggregator. threshold is the minimum Jaro-Winkler
// similarity for two names to denote the same curator; 1 requires equality.
func NewAggregator(threshold float64) *Aggregator {
	if threshold <= 0 || threshold > 1 {
		threshold = 1
	}
	return &Aggregator{
		entries:   make(map[string]*entry),
		threshold: threshold,
		log:       logger.ForStage("aggregate"),
	}
}

// Len returns the number of distinct curators
func (a *Aggregator) Len() int {
	return len(a.order)
}

// Stats returns the counters accumulated so far
func (a *Aggregator) Stats() Stats {
	return a.stats
}

// LoadExisting seeds the aggregator with a previously written CSV. Loaded
// curators are never reported as new.
func (a *Aggregator) LoadExisting(t *dataset.Table) int {
	loaded := 0
	for _, r := range t.Rows {
		c := FromRow(r)
		if c.Name == "" {
			c.Name = notAvailable
		}
		if c.Followers == "" {
			c.Followers = notAvailable
		}
		if _, err := a.observe(c, SplitGames(r["game"]), false); err != nil {
			a.stats.Skipped++
			continue
		}
		loaded++
	}
	a.stats.Loaded += loaded
	return loaded
}

// Observe merges one scraped record. It returns true when the curator was not
// known before.
func (a *Aggregator) Observe(c Curator, games ...string) (bool, error) {
	isNew, err := a.observe(c, games, true)
	if err != nil {
		a.stats.Skipped++
	}
	return isNew, err
}

func (a *Aggregator) observe(c Curator, games []string, markNew bool) (bool, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Profile = strings.TrimSpace(c.Profile)

	key := c.Key()
	if key == "" {
		return false, errors.NewValidation("aggregate", "record has neither profile nor name")
	}

	if e := a.lookup(c); e != nil {
		if c.Profile != "" && e.data.Profile == "" {
			a.rekey(e, c.Profile)
		}
		mergeInto(&e.data, c)
		addGames(e, games)
		a.stats.Merged++
		return false, nil
	}

	e := &entry{key: key, data: c, games: make(map[string]struct{}), isNew: markNew}
	if e.data.Name == "" {
		e.data.Name = notAvailable
	}
	if e.data.Followers == "" {
		e.data.Followers = notAvailable
	}
	addGames(e, games)
	a.entries[key] = e
	a.order = append(a.order, e)
	if markNew {
		a.stats.New++
	}
	return markNew, nil
}

// lookup finds the entry an observation belongs to. A profile observation may
// adopt an entry that so far was only known by name; a name-only observation
// may join an entry that already has a profile.
func (a *Aggregator) lookup(c Curator) *entry {
	if c.Profile != "" {
		if e, ok := a.entries[c.Profile]; ok {
			return e
		}
		if e := a.matchName(c.Name, false); e != nil {
			return e
		}
		return nil
	}
	if e, ok := a.entries[c.Key()]; ok && e.data.Profile == "" {
		return e
	}
	if e := a.matchName(c.Name, true); e != nil {
		return e
	}
	if a.threshold < 1 {
		return a.matchName(c.Name, false)
	}
	return nil
}

// matchName returns the unique best entry whose name matches, restricted to
// entries with (withProfile) or without a profile URL
func (a *Aggregator) matchName(name string, withProfile bool) *entry {
	norm := normalizeName(name)
	if norm == "" {
		return nil
	}

	var best *entry
	bestScore := 0.0
	ambiguous := false
	for _, e := range a.order {
		if (e.data.Profile != "") != withProfile {
			continue
		}
		other := normalizeName(e.data.Name)
		if other == "" {
			continue
		}
		score := 0.0
		if other == norm {
			score = 1
		} else if a.threshold < 1 {
			score = matchr.JaroWinkler(norm, other, false)
		}
		if score < a.threshold {
			continue
		}
		switch {
		case score > bestScore:
			best, bestScore, ambiguous = e, score, false
		case score == bestScore:
			ambiguous = true
		}
	}
	if ambiguous {
		a.log.Debug().Str("name", name).Msg("Ambiguous name match, keeping records apart")
		return nil
	}
	return best
}

func (a *Aggregator) rekey(e *entry, profile string) {
	delete(a.entries, e.key)
	a.log.Debug().
		Str("from", e.key).
		Str("to", profile).
		Msg("Reconciled name-keyed curator with profile")
	e.key = profile
	e.data.Profile = profile
	a.entries[profile] = e
	a.stats.Reconciled++
}

func normalizeName(name string) string {
	name = strings.ToLower(strings.Join(strings.Fields(name), " "))
	if name == "" || name == strings.ToLower(notAvailable) {
		return ""
	}
	return name
}

func addGames(e *entry, games []string) {
	for _, g := range games {
		if g = strings.TrimSpace(g); g != "" {
			e.games[g] = struct{}{}
		}
	}
}

// mergeInto fills facts missing from dst with those of src. Known values are
// kept, except placeholders and an email that is not an address.
func mergeInto(dst *Curator, src Curator) {
	if dst.Name == notAvailable {
		dst.Name = ""
	}
	if dst.Followers == notAvailable {
		dst.Followers = ""
	}
	if dst.AboutMe == AboutErrorMarker {
		dst.AboutMe = ""
	}
	if src.Name == notAvailable {
		src.Name = ""
	}
	if src.Followers == notAvailable {
		src.Followers = ""
	}
	if src.AboutMe == AboutErrorMarker {
		src.AboutMe = ""
	}
	if !contact.HasAddress(dst.Email) && contact.HasAddress(src.Email) {
		dst.Email = src.Email
	}

	// Curator only holds strings and ints, so Merge cannot fail
	_ = mergo.Merge(dst, src)

	if dst.Name == "" {
		dst.Name = notAvailable
	}
	if dst.Followers == "" {
		dst.Followers = notAvailable
	}
}

func (e *entry) row() dataset.Row {
	games := make([]string, 0, len(e.games))
	for g := range e.games {
		games = append(games, g)
	}
	slices.Sort(games)

	email := strings.TrimSpace(e.data.Email)
	hasEmail := "0"
	if email != "" && contact.HasAddress(email) {
		hasEmail = "1"
	} else {
		email = ""
	}

	return dataset.Row{
		"curator_name":  e.data.Name,
		"steam_profile": e.data.Profile,
		"followers":     e.data.Followers,
		"reviews":       strconv.Itoa(e.data.Reviews),
		"external_site": e.data.ExternalSite,
		"about_me":      finalAbout(e.data.AboutMe),
		"sample_review": e.data.SampleReview,
		"email":         email,
		"has_email":     hasEmail,
		"game":          strings.Join(games, ";"),
	}
}

// Rows returns every curator in first-seen order
func (a *Aggregator) Rows() *dataset.Table {
	t := dataset.NewTable(Columns...)
	for _, e := range a.order {
		t.Rows = append(t.Rows, e.row())
	}
	return t
}

// NewRows returns only curators first observed after loading
func (a *Aggregator) NewRows() *dataset.Table {
	t := dataset.NewTable(Columns...)
	for _, e := range a.order {
		if e.isNew {
			t.Rows = append(t.Rows, e.row())
		}
	}
	return t
}

// NewCurators returns the curators first observed after loading
func (a *Aggregator) NewCurators() []Curator {
	var out []Curator
	for _, e := range a.order {
		if e.isNew {
			out = append(out, e.data)
		}
	}
	return out
}

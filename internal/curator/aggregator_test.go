package curator

import (
	"testing"

	"sjsage522/contactmerge/internal/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func existingTable() *dataset.Table {
	t := dataset.NewTable(Columns...)
	t.Rows = []dataset.Row{
		{
			"curator_name":  "Deck Lovers",
			"steam_profile": "https://store.steampowered.com/curator/1",
			"followers":     "1,200",
			"reviews":       "45",
			"about_me":      "We love deckbuilders",
			"email":         "",
			"game":          "Balatro; Slay the Spire",
		},
		{
			"curator_name": "Name Only",
			"followers":    "",
			"reviews":      "oops",
			"game":         "Balatro",
		},
		{
			"curator_name": "",
			"game":         "Balatro",
		},
	}
	return t
}

func TestLoadExisting(t *testing.T) {
	agg := NewAggregator(1)
	loaded := agg.LoadExisting(existingTable())

	assert.Equal(t, 2, loaded)
	assert.Equal(t, 2, agg.Len())
	assert.Equal(t, 1, agg.Stats().Skipped)

	rows := agg.Rows()
	assert.Equal(t, Columns, rows.Header)
	assert.Equal(t, "Balatro;Slay the Spire", rows.Rows[0]["game"])
	assert.Equal(t, "45", rows.Rows[0]["reviews"])
	assert.Equal(t, "0", rows.Rows[0]["has_email"])
	assert.Equal(t, "N/A", rows.Rows[1]["followers"])
	assert.Equal(t, "0", rows.Rows[1]["reviews"])
	assert.Equal(t, AboutErrorMarker, rows.Rows[1]["about_me"])

	assert.Equal(t, 0, agg.NewRows().Len(), "loaded curators are never new")
}

func TestObserveAddsGameToKnownCurator(t *testing.T) {
	agg := NewAggregator(1)
	agg.LoadExisting(existingTable())

	isNew, err := agg.Observe(Curator{
		Name:    "Deck Lovers",
		Profile: "https://store.steampowered.com/curator/1",
		Email:   "hello@decklovers.gg",
		AboutMe: "replacement text that must not win",
	}, "Hades")
	require.NoError(t, err)
	assert.False(t, isNew)

	row := agg.Rows().Rows[0]
	assert.Equal(t, "Balatro;Hades;Slay the Spire", row["game"])
	assert.Equal(t, "hello@decklovers.gg", row["email"], "blank email is filled")
	assert.Equal(t, "1", row["has_email"])
	assert.Equal(t, "We love deckbuilders", row["about_me"], "known facts are kept")
}

func TestObserveNewCurator(t *testing.T) {
	agg := NewAggregator(1)
	agg.LoadExisting(existingTable())

	isNew, err := agg.Observe(Curator{Name: "Fresh", Profile: "https://store.steampowered.com/curator/9"}, "Hades")
	require.NoError(t, err)
	assert.True(t, isNew)

	newRows := agg.NewRows()
	require.Equal(t, 1, newRows.Len())
	assert.Equal(t, "Fresh", newRows.Rows[0]["curator_name"])
	assert.Equal(t, "N/A", newRows.Rows[0]["followers"])
	assert.Equal(t, 3, agg.Rows().Len())
	assert.Len(t, agg.NewCurators(), 1)
}

func TestObserveWithoutKey(t *testing.T) {
	agg := NewAggregator(1)
	_, err := agg.Observe(Curator{Name: "N/A"})
	assert.Error(t, err)
	assert.Equal(t, 1, agg.Stats().Skipped)
}

func TestProfileAdoptsNameKeyedEntry(t *testing.T) {
	agg := NewAggregator(1)
	agg.LoadExisting(existingTable())

	isNew, err := agg.Observe(Curator{
		Name:      "name  only",
		Profile:   "https://store.steampowered.com/curator/2",
		Followers: "300",
	}, "Hades")
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, 2, agg.Len())
	assert.Equal(t, 1, agg.Stats().Reconciled)

	row := agg.Rows().Rows[1]
	assert.Equal(t, "Name Only", row["curator_name"])
	assert.Equal(t, "https://store.steampowered.com/curator/2", row["steam_profile"])
	assert.Equal(t, "300", row["followers"], "placeholder follower count is replaced")
	assert.Equal(t, "Balatro;Hades", row["game"])

	isNew, err = agg.Observe(Curator{Profile: "https://store.steampowered.com/curator/2"}, "Celeste")
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, "Balatro;Celeste;Hades", agg.Rows().Rows[1]["game"])
}

func TestNameOnlyJoinsProfileEntry(t *testing.T) {
	agg := NewAggregator(1)
	agg.LoadExisting(existingTable())

	isNew, err := agg.Observe(Curator{Name: "Deck Lovers"}, "Celeste")
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, 2, agg.Len())
	assert.Contains(t, agg.Rows().Rows[0]["game"], "Celeste")
}

func TestNameOnlyMatchesIgnoringCase(t *testing.T) {
	agg := NewAggregator(1)

	_, err := agg.Observe(Curator{Name: "Deck Lovers"}, "Balatro")
	require.NoError(t, err)
	isNew, err := agg.Observe(Curator{Name: "deck  lovers"}, "Hades")
	require.NoError(t, err)

	assert.False(t, isNew)
	require.Equal(t, 1, agg.Len())
	assert.Equal(t, "Deck Lovers", agg.Rows().Rows[0]["curator_name"])
	assert.Equal(t, "Balatro;Hades", agg.Rows().Rows[0]["game"])
}

func TestAmbiguousNameStaysApart(t *testing.T) {
	agg := NewAggregator(1)
	_, _ = agg.Observe(Curator{Name: "Twins", Profile: "p1"})
	_, _ = agg.Observe(Curator{Name: "Twins", Profile: "p2"})

	isNew, err := agg.Observe(Curator{Name: "Twins"})
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, 3, agg.Len())
}

func TestFuzzyNameThreshold(t *testing.T) {
	strict := NewAggregator(1)
	_, _ = strict.Observe(Curator{Name: "Indie Game Curators"})
	isNew, _ := strict.Observe(Curator{Name: "Indie Game Curator", Profile: "p"})
	assert.True(t, isNew)

	fuzzy := NewAggregator(0.9)
	_, _ = fuzzy.Observe(Curator{Name: "Indie Game Curators"})
	isNew, _ = fuzzy.Observe(Curator{Name: "Indie Game Curator", Profile: "p"})
	assert.False(t, isNew)
	assert.Equal(t, 1, fuzzy.Len())
	assert.Equal(t, "p", fuzzy.Rows().Rows[0]["steam_profile"])
}

func TestInvalidEmailIsClearedAndReplaced(t *testing.T) {
	agg := NewAggregator(1)
	_, _ = agg.Observe(Curator{Name: "A", Profile: "p", Email: "https://youtube.com/@a"})
	row := agg.Rows().Rows[0]
	assert.Equal(t, "", row["email"])
	assert.Equal(t, "0", row["has_email"])

	_, _ = agg.Observe(Curator{Name: "A", Profile: "p", Email: "a@site.io"})
	row = agg.Rows().Rows[0]
	assert.Equal(t, "a@site.io", row["email"])
	assert.Equal(t, "1", row["has_email"])
}

func TestFinalAboutCleaning(t *testing.T) {
	agg := NewAggregator(1)
	_, _ = agg.Observe(Curator{
		Name:    "A",
		Profile: "p",
		AboutMe: "Cozy   games only\n12,345 CURATOR FOLLOWERS and more",
	})
	assert.Equal(t, "Cozy games only", agg.Rows().Rows[0]["about_me"])
}

package main

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/travel-journal/backend/internal/models"
)

func TestStars(t *testing.T) {
	four := 4
	seven := 7
	assert.Equal(t, "", stars(nil))
	assert.Equal(t, "★★★★☆", stars(&four))
	assert.Equal(t, "★★★★★", stars(&seven))
}

func TestRenderCard(t *testing.T) {
	start, err := models.ParseDate("2025-05-01")
	require.NoError(t, err)
	out := renderCard(models.Journal{
		ID:        "j1",
		Name:      "Lisbon Week",
		Locations: []string{"Lisbon", "Sintra"},
		StartDate: &start,
		AISummary: "Sunny days.",
	})
	assert.Contains(t, out, "Lisbon Week")
	assert.Contains(t, out, "Lisbon, Sintra")
	assert.Contains(t, out, "from 2025-05-01")
	assert.Contains(t, out, "Sunny days.")
	assert.NotContains(t, out, "highlights")
}

func TestRenderListEmpty(t *testing.T) {
	assert.Contains(t, renderList(nil), "no entries yet")
}

func TestEntryFlagsPatchOnlyChanged(t *testing.T) {
	var f entryFlags
	fs := pflag.NewFlagSet("update", pflag.ContinueOnError)
	f.register(fs)
	require.NoError(t, fs.Parse([]string{"--name", "Porto", "--rating", "0", "--start", ""}))

	p, err := f.patch(fs)
	require.NoError(t, err)

	name, ok := p.Name.Get()
	assert.True(t, ok)
	assert.Equal(t, "Porto", name)

	rating, ok := p.Rating.Get()
	assert.True(t, ok)
	assert.Nil(t, rating)

	start, ok := p.StartDate.Get()
	assert.True(t, ok)
	assert.Nil(t, start)

	assert.False(t, p.Locations.Set)
	assert.False(t, p.Summary.Set)
}

func TestEntryFlagsInputBadDate(t *testing.T) {
	f := entryFlags{start: "May 1st"}
	_, err := f.input()
	assert.Error(t, err)
}

package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gouthamve/bookfetch/pkg/models"
)

var catalog = []models.Book{
	{ISBN: "9780131103627", Title: "The C Programming Language", Authors: []string{"Brian Kernighan", "Dennis Ritchie"}},
	{ISBN: "9780262033848", Title: "Introduction to Algorithms", Authors: []string{"Thomas Cormen"}},
	{ISBN: "9780441172719", Title: "Dune", Authors: []string{"Frank Herbert"}, Categories: []string{"Fiction"}},
}

func isbns(books []models.Book) []string {
	out := make([]string, 0, len(books))
	for _, b := range books {
		out = append(out, b.ISBN)
	}
	return out
}

func TestSearch(t *testing.T) {
	idx, err := NewIndex()
	require.NoError(t, err)
	require.NoError(t, idx.Replace(catalog))
	assert.Equal(t, 3, idx.Len())

	got, err := idx.Search("algorithms", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"9780262033848"}, isbns(got))

	// One typo still matches.
	got, err = idx.Search("herbrt", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"9780441172719"}, isbns(got))

	got, err = idx.Search("   ", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAddAndRemove(t *testing.T) {
	idx, err := NewIndex()
	require.NoError(t, err)

	require.NoError(t, idx.Add(catalog[2]))
	got, err := idx.Search("dune", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"9780441172719"}, isbns(got))

	require.NoError(t, idx.Remove("9780441172719"))
	got, err = idx.Search("dune", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, idx.Len())
}

func TestRebuildKeepsConcurrentChanges(t *testing.T) {
	idx, err := NewIndex()
	require.NoError(t, err)
	require.NoError(t, idx.Replace(catalog[:2]))

	snapshot := catalog[:2]
	err = idx.Rebuild(func() ([]models.Book, error) {
		// Changes made while the snapshot is being read.
		require.NoError(t, idx.Add(catalog[2]))
		require.NoError(t, idx.Remove("9780262033848"))
		return snapshot, nil
	})
	require.NoError(t, err)

	assert.Equal(t, 2, idx.Len())

	got, err := idx.Search("dune", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"9780441172719"}, isbns(got))

	got, err = idx.Search("algorithms", 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	// Changes after the rebuild are not journaled.
	require.NoError(t, idx.Add(catalog[1]))
	assert.Nil(t, idx.journal)
}

func TestRebuildLoadError(t *testing.T) {
	idx, err := NewIndex()
	require.NoError(t, err)
	require.NoError(t, idx.Replace(catalog))

	err = idx.Rebuild(func() ([]models.Book, error) {
		return nil, assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 3, idx.Len())
	assert.Nil(t, idx.journal)
}

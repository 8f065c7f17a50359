package index

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/easearch/internal/document"
	ferrors "git.home.luguber.info/inful/easearch/internal/foundation/errors"
)

func TestBuilderAssignsDenseSequentialIDs(t *testing.T) {
	b := NewBuilder()
	require.Equal(t, 0, b.Len())
	require.Empty(t, b.Records())

	for i, url := range []string{"EARoot/a.htm", "EARoot/b.htm", "EARoot/c.htm"} {
		rec, err := b.Add("t", "c", url, document.TypeUnknown)
		require.NoError(t, err)
		require.Equal(t, []string{"1", "2", "3"}[i], rec.ID)
	}
	require.Equal(t, 3, b.Len())
}

func TestBuilderRejectsDuplicateURL(t *testing.T) {
	b := NewBuilder()
	_, err := b.Add("A", "", "EARoot/a.htm", document.TypeClass)
	require.NoError(t, err)

	_, err = b.Add("A again", "", "EARoot/a.htm", document.TypeClass)
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryInternal))

	// The rejected page does not consume an id.
	rec, err := b.Add("B", "", "EARoot/b.htm", document.TypeUnknown)
	require.NoError(t, err)
	require.Equal(t, "2", rec.ID)
}

func TestBuilderRecordsIsACopy(t *testing.T) {
	b := NewBuilder()
	_, err := b.Add("A", "x", "EARoot/a.htm", document.TypeClass)
	require.NoError(t, err)

	recs := b.Records()
	recs[0].Title = "mutated"
	require.Equal(t, "A", b.Records()[0].Title)
}

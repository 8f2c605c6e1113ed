package frontier

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrontier_PopIsLIFO(t *testing.T) {
	t.Parallel()

	f := New("https://a.test/", "https://b.test/")
	f.Push("https://c.test/")

	url, ok := f.Pop()
	require.True(t, ok)
	require.Equal(t, "https://c.test/", url)

	url, ok = f.Pop()
	require.True(t, ok)
	require.Equal(t, "https://b.test/", url)

	url, ok = f.Pop()
	require.True(t, ok)
	require.Equal(t, "https://a.test/", url)

	_, ok = f.Pop()
	require.False(t, ok)
}

func TestFrontier_PushDoesNotDeduplicate(t *testing.T) {
	t.Parallel()

	f := New()
	f.Push("https://a.test/doc.pdf")
	f.Push("https://a.test/doc.pdf")
	require.Equal(t, 2, f.Len())

	// Dedup is the popper's job, via the visited set.
	f.MarkVisited("https://a.test/doc.pdf")
	require.True(t, f.IsVisited("https://a.test/doc.pdf"))
	require.Equal(t, 2, f.Len())
}

func TestFrontier_VisitedOnlyGrows(t *testing.T) {
	t.Parallel()

	f := New("https://a.test/")
	require.Equal(t, 0, f.VisitedCount())

	f.MarkVisited("https://a.test/")
	f.MarkVisited("https://a.test/")
	f.MarkVisited("https://b.test/")
	require.Equal(t, 2, f.VisitedCount())
	require.False(t, f.IsVisited("https://c.test/"))
}

func TestFrontier_EmptySeedList(t *testing.T) {
	t.Parallel()

	f := New()
	require.Equal(t, 0, f.Len())
	_, ok := f.Pop()
	require.False(t, ok)
}

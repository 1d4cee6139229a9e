package registry

import (
	"context"
	"errors"
	"testing"

	"causawatch-backend/lib/htmlutil"

	"github.com/stretchr/testify/require"
)

func collectPages(t *testing.T, total int, change PageChanger) []int {
	t.Helper()
	var pages []int
	for p := range Pages(context.Background(), total, change) {
		pages = append(pages, p)
	}
	return pages
}

func TestPagesSinglePage(t *testing.T) {
	for total := 0; total <= 15; total++ {
		require.Equal(t, []int{1}, collectPages(t, total, nil), "total=%d", total)
	}
}

func TestPagesBoundaries(t *testing.T) {
	require.Equal(t, []int{1, 2}, collectPages(t, 16, nil))
	require.Equal(t, []int{1, 2}, collectPages(t, 30, nil))
	require.Equal(t, []int{1, 2, 3}, collectPages(t, 31, nil))
}

func TestPagesInvokesChangerAfterFirst(t *testing.T) {
	var changed []int
	change := func(ctx context.Context, page int) error {
		changed = append(changed, page)
		return nil
	}
	require.Equal(t, []int{1, 2, 3}, collectPages(t, 45, change))
	require.Equal(t, []int{2, 3}, changed)
}

func TestPagesSkipsFailedChange(t *testing.T) {
	change := func(ctx context.Context, page int) error {
		if page == 2 {
			return errors.New("control not visible")
		}
		return nil
	}
	require.Equal(t, []int{1, 3}, collectPages(t, 45, change))
}

func TestPagesRestartable(t *testing.T) {
	seq := Pages(context.Background(), 16, nil)
	var first, second []int
	for p := range seq {
		first = append(first, p)
	}
	for p := range seq {
		second = append(second, p)
	}
	require.Equal(t, []int{1, 2}, first)
	require.Equal(t, first, second)
}

func TestReadTotal(t *testing.T) {
	doc, err := htmlutil.Parse(`<div class="loadTotalCiv">Total: <b>31 registros</b></div>`)
	require.NoError(t, err)
	require.Equal(t, 31, ReadTotal(doc, ".loadTotalCiv b"))

	// missing counter degrades to 0, which the walker treats as one page
	require.Equal(t, 0, ReadTotal(doc, ".loadTotalCob b"))

	doc, err = htmlutil.Parse(`<div class="loadTotalCiv"><b>sin causas</b></div>`)
	require.NoError(t, err)
	require.Equal(t, 0, ReadTotal(doc, ".loadTotalCiv b"))
}

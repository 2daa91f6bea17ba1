package fetch

import (
	"context"
	"errors"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const historyBase = "https://myactivity.google.com/product/youtube?restrict=youtube"

func TestHistoryURL(t *testing.T) {
	got, err := HistoryURL(historyBase, "", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, historyBase, got)

	got, err = HistoryURL(historyBase, "2024/03/05", time.UTC)
	require.NoError(t, err)
	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "youtube", u.Query().Get("restrict"))
	// 2024-03-05T23:59:59.999Z
	assert.Equal(t, "1709683199999000", u.Query().Get("max"))

	loc := time.FixedZone("UTC+8", 8*3600)
	got, err = HistoryURL(historyBase, "2024/03/05", loc)
	require.NoError(t, err)
	u, err = url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "1709654399999000", u.Query().Get("max"))

	_, err = HistoryURL(historyBase, "05.03.2024", time.UTC)
	assert.Error(t, err)
}

func TestMockPage(t *testing.T) {
	ctx := context.Background()
	m := NewMockPage([]string{"<a>1</a>"}, []string{"<a>2</a>", "<a>3</a>"})

	elements, err := m.ListElements(ctx)
	require.NoError(t, err)
	assert.Len(t, elements, 1)

	grew, err := m.TriggerScroll(ctx)
	require.NoError(t, err)
	assert.True(t, grew)
	elements, err = m.ListElements(ctx)
	require.NoError(t, err)
	require.Len(t, elements, 3)
	assert.Equal(t, "<a>3</a>", elements[2].HTML)

	grew, err = m.TriggerScroll(ctx)
	require.NoError(t, err)
	assert.False(t, grew)
	assert.Equal(t, 2, m.Scrolls)

	m.ListErr = errors.New("tab crashed")
	_, err = m.ListElements(ctx)
	assert.Error(t, err)
}

func TestWriteHTMLToFile(t *testing.T) {
	dir := t.TempDir()
	filename := WriteHTMLToFile(context.Background(), "element", "<div>x</div>", dir)
	require.NotEmpty(t, filename)

	content, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Equal(t, "<div>x</div>", string(content))
}

func TestBrowserNotOpened(t *testing.T) {
	b := NewBrowser(&FetcherConfig{Headless: true})
	defer b.Cancel()

	_, err := b.TriggerScroll(context.Background())
	assert.ErrorIs(t, err, ErrNotOpened)
	_, err = b.ListElements(context.Background())
	assert.ErrorIs(t, err, ErrNotOpened)
}

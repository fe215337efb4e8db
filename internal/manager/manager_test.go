package manager_test

import (
	"sync"
	"testing"

	"leafls/internal/analysis"
	"leafls/internal/cache"
	"leafls/internal/manager"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/commonlog"
)

type countingResolver struct {
	mu    sync.Mutex
	calls int
}

func (r *countingResolver) Resolve(text string) *analysis.Program {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return &analysis.Program{}
}

func newManager(t *testing.T, cacheSize int, onChange manager.ChangeHandler) (*manager.DocumentManager, *countingResolver) {
	t.Helper()
	r := &countingResolver{}
	return manager.NewDocumentManager(r, cache.NewPrograms(cacheSize), onChange, commonlog.GetLogger("test")), r
}

func TestOpenAndGet(t *testing.T) {
	dm, _ := newManager(t, 0, nil)
	dm.Open("file:///a.leaf", "leaf", 1, "one")

	doc, err := dm.Get("file:///a.leaf")
	require.NoError(t, err)
	assert.Equal(t, manager.Document{URI: "file:///a.leaf", LanguageID: "leaf", Version: 1, Text: "one"}, doc)

	dm.Open("file:///a.leaf", "leaf", 0, "again")
	doc, err = dm.Get("file:///a.leaf")
	require.NoError(t, err)
	assert.Equal(t, "again", doc.Text, "open replaces silently")

	_, err = dm.Get("file:///missing.leaf")
	assert.ErrorIs(t, err, manager.ErrUnknownDocument)
}

func TestChangeNotifiesAfterUpdate(t *testing.T) {
	var seen []manager.Document
	var dm *manager.DocumentManager
	dm, _ = newManager(t, 0, func(doc manager.Document) {
		current, err := dm.Get(doc.URI)
		require.NoError(t, err)
		assert.Equal(t, doc, current, "handler sees the stored revision")
		seen = append(seen, doc)
	})

	dm.Open("file:///a.leaf", "leaf", 1, "one")
	assert.Empty(t, seen, "open does not notify")

	require.NoError(t, dm.Change("file:///a.leaf", 2, "two"))
	require.Len(t, seen, 1)
	assert.Equal(t, int32(2), seen[0].Version)
	assert.Equal(t, "two", seen[0].Text)
	assert.Equal(t, "leaf", seen[0].LanguageID, "changes keep the language id")
}

func TestChangeRejectsUnknownAndStale(t *testing.T) {
	calls := 0
	dm, _ := newManager(t, 0, func(manager.Document) { calls++ })

	err := dm.Change("file:///a.leaf", 1, "x")
	assert.ErrorIs(t, err, manager.ErrUnknownDocument)

	dm.Open("file:///a.leaf", "leaf", 5, "five")
	assert.ErrorIs(t, dm.Change("file:///a.leaf", 5, "same"), manager.ErrStaleVersion)
	assert.ErrorIs(t, dm.Change("file:///a.leaf", 4, "older"), manager.ErrStaleVersion)
	assert.Zero(t, calls)

	doc, err := dm.Get("file:///a.leaf")
	require.NoError(t, err)
	assert.Equal(t, "five", doc.Text)
}

func TestCloseAndSnapshot(t *testing.T) {
	dm, _ := newManager(t, 0, nil)
	dm.Open("file:///b.leaf", "leaf", 1, "b")
	dm.Open("file:///a.leaf", "leaf", 1, "a")

	snap := dm.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "file:///a.leaf", snap[0].URI)
	assert.Equal(t, "file:///b.leaf", snap[1].URI)

	assert.True(t, dm.Close("file:///a.leaf"))
	assert.False(t, dm.Close("file:///a.leaf"))
	assert.Len(t, snap, 2, "snapshots are independent of later changes")
	assert.Len(t, dm.Snapshot(), 1)
}

func TestProgramUsesCache(t *testing.T) {
	dm, r := newManager(t, 4, nil)
	dm.Open("file:///a.leaf", "leaf", 1, "func a() {}")

	first, err := dm.Program("file:///a.leaf")
	require.NoError(t, err)
	second, err := dm.Program("file:///a.leaf")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, r.calls)

	require.NoError(t, dm.Change("file:///a.leaf", 2, "func b() {}"))
	_, err = dm.Program("file:///a.leaf")
	require.NoError(t, err)
	assert.Equal(t, 2, r.calls)

	_, err = dm.Program("file:///missing.leaf")
	assert.ErrorIs(t, err, manager.ErrUnknownDocument)
}

func TestProgramWithoutCacheResolvesEachTime(t *testing.T) {
	dm, r := newManager(t, 0, nil)
	dm.Open("file:///a.leaf", "leaf", 1, "x")
	_, _ = dm.Program("file:///a.leaf")
	_, _ = dm.Program("file:///a.leaf")
	assert.Equal(t, 2, r.calls)
}

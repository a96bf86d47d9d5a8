package repository

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/tableviz/internal/database"
	"github.com/jengzang/tableviz/internal/models"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(database.Config{Path: database.MemoryPath})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDatasetCRUD(t *testing.T) {
	repo := NewDatasetRepository(newTestDB(t))

	ds := &models.Dataset{ID: "a1", Name: "sites", Content: "lat,lon\n1,2\n", StyleJSON: `{"scale":1}`, RowCount: 1}
	require.NoError(t, repo.Create(ds))
	assert.False(t, ds.CreatedAt.IsZero())

	got, err := repo.GetByID("a1")
	require.NoError(t, err)
	assert.Equal(t, "sites", got.Name)
	assert.Equal(t, "lat,lon\n1,2\n", got.Content)
	assert.Equal(t, 1, got.RowCount)
	assert.WithinDuration(t, ds.CreatedAt, got.CreatedAt, time.Second)

	require.NoError(t, repo.UpdateContent("a1", "lat,lon\n1,2\n3,4\n", 2))
	require.NoError(t, repo.UpdateStyle("a1", `{"scale":2}`))
	got, err = repo.GetByID("a1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.RowCount)
	assert.Equal(t, `{"scale":2}`, got.StyleJSON)

	require.NoError(t, repo.Delete("a1"))
	_, err = repo.GetByID("a1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMissingDataset(t *testing.T) {
	repo := NewDatasetRepository(newTestDB(t))

	_, err := repo.GetByID("nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.UpdateStyle("nope", "{}"), ErrNotFound)
	assert.ErrorIs(t, repo.UpdateContent("nope", "", 0), ErrNotFound)
	assert.ErrorIs(t, repo.Delete("nope"), ErrNotFound)
}

func TestListPaginates(t *testing.T) {
	repo := NewDatasetRepository(newTestDB(t))
	for i := 0; i < 5; i++ {
		name := fmt.Sprintf("set-%d", i)
		if i == 4 {
			name = "other"
		}
		require.NoError(t, repo.Create(&models.Dataset{ID: fmt.Sprintf("id-%d", i), Name: name, Content: "x"}))
	}

	page, total, err := repo.List(models.DatasetFilter{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, page, 2)
	assert.Empty(t, page[0].Content, "content is not listed")

	page, total, err = repo.List(models.DatasetFilter{Page: 3, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, page, 1)

	page, total, err = repo.List(models.DatasetFilter{Name: "set", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, page, 4)
}

func TestListWithURL(t *testing.T) {
	repo := NewDatasetRepository(newTestDB(t))
	require.NoError(t, repo.Create(&models.Dataset{ID: "u", Name: "remote", SourceURL: "http://example.com/a.csv"}))
	require.NoError(t, repo.Create(&models.Dataset{ID: "l", Name: "local"}))

	urls, err := repo.ListWithURL()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"u": "http://example.com/a.csv"}, urls)
}

func TestLoadEvents(t *testing.T) {
	repo := NewDatasetRepository(newTestDB(t))
	require.NoError(t, repo.Create(&models.Dataset{ID: "a", Name: "a"}))

	for _, status := range []string{models.LoadStatusCompleted, models.LoadStatusFailed} {
		ev := &models.LoadEvent{DatasetID: "a", Source: models.LoadSourceURL, Status: status}
		require.NoError(t, repo.RecordLoad(ev))
		assert.NotZero(t, ev.ID)
	}

	events, err := repo.ListLoads("a", 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.LoadStatusFailed, events[0].Status, "newest first")

	require.NoError(t, repo.Delete("a"))
	events, err = repo.ListLoads("a", 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

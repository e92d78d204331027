package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunRunStoreContract runs a suite of tests to verify that a RunStore implementation
// adheres to the defined interface contract.
func RunRunStoreContract(t *testing.T, store RunStore) {
	ctx := context.Background()
	prefix := "contract-" + time.Now().Format("20060102150405")
	base := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	record := func(id string, finished time.Time) *domain.RunRecord {
		return &domain.RunRecord{
			ID:         id,
			Workflow:   "support",
			Status:     domain.RunSucceeded,
			Input:      map[string]any{"message": "hi"},
			Output:     map[string]any{"category": "product", "escalate": false},
			History:    []string{"analyze_sentiment", "categorize"},
			StartedAt:  finished.Add(-time.Second),
			FinishedAt: finished,
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		id := prefix + "-save"
		rec := record(id, base)
		require.NoError(t, store.Save(ctx, rec), "Save should not return error")

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, rec.ID, loaded.ID)
		assert.Equal(t, rec.Workflow, loaded.Workflow)
		assert.Equal(t, rec.Status, loaded.Status)
		assert.Equal(t, rec.History, loaded.History)
		assert.Equal(t, "product", loaded.Output["category"])
		assert.Equal(t, false, loaded.Output["escalate"])
		assert.True(t, rec.FinishedAt.Equal(loaded.FinishedAt))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+prefix)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		id := prefix + "-delete"
		require.NoError(t, store.Save(ctx, record(id, base)))
		require.NoError(t, store.Delete(ctx, id), "Delete should not return error")

		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Load after Delete should return ErrRunNotFound")
		assert.NoError(t, store.Delete(ctx, id), "deleting twice is not an error")
	})

	t.Run("List newest first", func(t *testing.T) {
		older := prefix + "-older"
		newer := prefix + "-newer"
		require.NoError(t, store.Save(ctx, record(older, base.Add(time.Minute))))
		require.NoError(t, store.Save(ctx, record(newer, base.Add(time.Hour))))
		defer func() {
			_ = store.Delete(ctx, older)
			_ = store.Delete(ctx, newer)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)

		pos := func(id string) int {
			for i, v := range ids {
				if v == id {
					return i
				}
			}
			return -1
		}
		require.NotEqual(t, -1, pos(older))
		require.NotEqual(t, -1, pos(newer))
		assert.Less(t, pos(newer), pos(older))
	})
}

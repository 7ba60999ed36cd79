package download

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drop-oss/dropd/internal/domain"
)

func TestQueueFIFOOrder(t *testing.T) {
	q := NewQueue()
	assert.True(t, q.Empty())

	q.Append(&domain.QueuedGame{ID: "a", Status: domain.StatusQueued})
	q.Append(&domain.QueuedGame{ID: "b", Status: domain.StatusQueued})
	q.Append(&domain.QueuedGame{ID: "c", Status: domain.StatusQueued})

	front, ok := q.Front()
	require.True(t, ok)
	assert.Equal(t, "a", front.ID)

	assert.Equal(t, "a", q.PopFront().ID)
	assert.Equal(t, "b", q.PopFront().ID)
	assert.Equal(t, "c", q.PopFront().ID)
	assert.Nil(t, q.PopFront())
	assert.True(t, q.Empty())
}

func TestQueueRemoveAnywhere(t *testing.T) {
	q := NewQueue()
	for _, id := range []string{"a", "b", "c"} {
		q.Append(&domain.QueuedGame{ID: id, Status: domain.StatusQueued})
	}

	assert.True(t, q.Remove("b"))
	assert.False(t, q.Remove("b"))
	assert.False(t, q.Remove("nope"))

	items := q.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, "c", items[1].ID)
}

func TestQueueFrontIsSnapshot(t *testing.T) {
	q := NewQueue()
	q.Append(&domain.QueuedGame{ID: "a", Status: domain.StatusQueued})

	front, ok := q.Front()
	require.True(t, ok)

	// Later mutation must not leak into the snapshot
	q.SetStatus("a", domain.StatusDownloading)
	assert.Equal(t, domain.StatusQueued, front.Status)

	updated, ok := q.Front()
	require.True(t, ok)
	assert.Equal(t, domain.StatusDownloading, updated.Status)
}

func TestQueueSetStatus(t *testing.T) {
	q := NewQueue()
	q.Append(&domain.QueuedGame{ID: "a", Status: domain.StatusQueued})

	assert.True(t, q.SetStatus("a", domain.StatusError))
	assert.False(t, q.SetStatus("ghost", domain.StatusError))
	assert.Equal(t, domain.StatusError, q.Items()[0].Status)
}

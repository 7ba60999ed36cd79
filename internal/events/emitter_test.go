package events

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drop-oss/dropd/internal/domain"
)

func TestEmitStampsAndRetains(t *testing.T) {
	e := NewEmitter()

	e.Emit(domain.StatusEvent{GameID: "g1", Status: domain.StatusQueued})
	e.Emit(domain.StatusEvent{GameID: "g1", Status: domain.StatusDownloading})

	recent := e.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, domain.StatusQueued, recent[0].Status)
	assert.Equal(t, domain.StatusDownloading, recent[1].Status)

	assert.NotEmpty(t, recent[0].ID)
	assert.NotEqual(t, recent[0].ID, recent[1].ID)
	assert.False(t, recent[0].Time.IsZero())
}

func TestHistoryIsBounded(t *testing.T) {
	e := NewEmitter()

	for i := range historySize + 50 {
		e.Emit(domain.StatusEvent{GameID: fmt.Sprintf("g%d", i), Status: domain.StatusQueued})
	}

	recent := e.Recent()
	require.Len(t, recent, historySize)
	// Oldest retained event is the 51st
	assert.Equal(t, "g50", recent[0].GameID)
}

func TestSubscriberReceivesEvents(t *testing.T) {
	e := NewEmitter()
	ch := e.Subscribe()
	defer e.Unsubscribe(ch)

	e.Emit(domain.StatusEvent{GameID: "g1", Status: domain.StatusInstalled})

	select {
	case ev := <-ch:
		assert.Equal(t, "g1", ev.GameID)
		assert.Equal(t, domain.StatusInstalled, ev.Status)
	case <-time.After(time.Second):
		t.Fatal("subscriber never received the event")
	}
}

func TestSlowSubscriberNeverBlocksEmit(t *testing.T) {
	e := NewEmitter()
	ch := e.Subscribe()
	defer e.Unsubscribe(ch)

	// Nobody reads ch; Emit must keep returning anyway
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range 100 {
			e.Emit(domain.StatusEvent{GameID: fmt.Sprintf("g%d", i), Status: domain.StatusQueued})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked on a slow subscriber")
	}

	assert.Len(t, e.Recent(), 100)
}

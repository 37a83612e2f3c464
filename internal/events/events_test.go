package events

import (
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_PublishJSON(t *testing.T) {
	logger := zerolog.New(io.Discard)
	bus := NewEventBus(&logger)

	var received []Event
	bus.Subscribe(ReservationAccepted, func(e Event) error {
		received = append(received, e)
		return nil
	})
	// a failing handler does not stop the others
	bus.Subscribe(ReservationAccepted, func(Event) error { return errors.New("boom") })
	bus.Subscribe("other", func(Event) error {
		t.Fatal("unexpected event type")
		return nil
	})

	require.NoError(t, bus.PublishJSON(ReservationAccepted, map[string]int{"id": 7}))

	require.Len(t, received, 1)
	assert.NotEmpty(t, received[0].ID)
	assert.False(t, received[0].CreatedAt.IsZero())

	var payload map[string]int
	require.NoError(t, received[0].Decode(&payload))
	assert.Equal(t, 7, payload["id"])
}

func TestEventBus_PublishJSONMarshalError(t *testing.T) {
	logger := zerolog.New(io.Discard)
	bus := NewEventBus(&logger)
	assert.Error(t, bus.PublishJSON(ReservationAccepted, make(chan int)))
}

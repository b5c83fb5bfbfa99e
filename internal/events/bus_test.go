package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_DispatchesByType(t *testing.T) {
	bus := NewBus()

	var got []EventType
	bus.Subscribe(func(e Event) error {
		got = append(got, e.Type)
		return nil
	}, EventBook, EventLastTradePrice)

	bus.Publish(Event{Type: EventBook})
	bus.Publish(Event{Type: EventPriceChange})
	bus.Publish(Event{Type: EventLastTradePrice})

	assert.Equal(t, []EventType{EventBook, EventLastTradePrice}, got)
}

func TestBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := NewBus()

	calls := 0
	bus.Subscribe(func(Event) error { calls++; return errors.New("boom") }, EventBook)
	bus.Subscribe(func(Event) error { calls++; return nil }, EventBook)

	bus.Publish(Event{Type: EventBook})
	assert.Equal(t, 2, calls)
}

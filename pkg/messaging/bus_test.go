package messaging

import (
	"testing"

	"github.com/gooseworks/highlighter/pkg/testutil"
	"github.com/gooseworks/highlighter/pkg/types"
)

func TestBus_FanOut(t *testing.T) {
	bus := NewBus()
	var a, b testutil.MessageRecorder
	bus.Subscribe(a.Record)
	bus.Subscribe(b.Record)

	bus.Publish(types.Message{Type: types.WordListUpdated})

	for name, rec := range map[string]*testutil.MessageRecorder{"a": &a, "b": &b} {
		msgs := rec.Messages()
		if len(msgs) != 1 || msgs[0].Type != types.WordListUpdated {
			t.Errorf("subscriber %s got %+v", name, msgs)
		}
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	var rec testutil.MessageRecorder
	unsubscribe := bus.Subscribe(rec.Record)

	bus.Publish(types.Message{Type: types.WordListUpdated})
	unsubscribe()
	bus.Publish(types.Message{Type: types.ExceptionsListUpdated})

	if got := len(rec.Messages()); got != 1 {
		t.Errorf("got %d messages, want 1 (delivery after unsubscribe)", got)
	}
}

func TestBus_PanickingRecipientSkipped(t *testing.T) {
	bus := NewBus()
	var rec testutil.MessageRecorder
	bus.Subscribe(func(types.Message) { panic("recipient gone") })
	bus.Subscribe(rec.Record)

	bus.Publish(types.Message{Type: types.GlobalToggleUpdated, Enabled: true})

	msgs := rec.Messages()
	if len(msgs) != 1 || !msgs[0].Enabled {
		t.Errorf("healthy subscriber got %+v after peer panic", msgs)
	}
}

func TestBus_PublishWithoutSubscribers(t *testing.T) {
	bus := NewBus()
	// Must not block or panic.
	bus.Publish(types.Message{Type: types.WordListUpdated})
}

package network

import (
	"os"
	"testing"

	"github.com/hunomina/wave-function-collapse/pkg/api"
	"github.com/hunomina/wave-function-collapse/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func TestBroadcaster_RegisterAndBroadcast(t *testing.T) {
	b := NewBroadcaster()
	a := b.Register("a")
	c := b.Register("c")

	if b.SubscriberCount() != 2 {
		t.Fatalf("SubscriberCount() = %d, want 2", b.SubscriberCount())
	}

	b.Broadcast(api.ServerResponse{Type: api.TypeUpdate, Step: 1})

	for name, ch := range map[string]chan api.ServerResponse{"a": a, "c": c} {
		select {
		case msg := <-ch:
			if msg.Step != 1 {
				t.Errorf("%s: Step = %d, want 1", name, msg.Step)
			}
		default:
			t.Errorf("%s: no message delivered", name)
		}
	}
}

func TestBroadcaster_SendTo(t *testing.T) {
	b := NewBroadcaster()
	a := b.Register("a")
	c := b.Register("c")

	b.SendTo("a", api.ServerResponse{Step: 7})
	b.SendTo("missing", api.ServerResponse{Step: 8})

	if len(a) != 1 {
		t.Errorf("a should have 1 message, got %d", len(a))
	}
	if len(c) != 0 {
		t.Errorf("c should have no messages, got %d", len(c))
	}
}

func TestBroadcaster_ReRegisterClosesOldChannel(t *testing.T) {
	b := NewBroadcaster()
	old := b.Register("a")
	fresh := b.Register("a")

	if _, ok := <-old; ok {
		t.Error("old channel should be closed")
	}
	if b.SubscriberCount() != 1 {
		t.Errorf("SubscriberCount() = %d, want 1", b.SubscriberCount())
	}

	b.Unregister("a")
	if _, ok := <-fresh; ok {
		t.Error("channel should be closed after Unregister")
	}
	if b.HasSubscriber("a") {
		t.Error("subscriber should be gone")
	}

	// Повторный Unregister не паникует
	b.Unregister("a")
}

func TestBroadcaster_SlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Register("slow")

	for i := 0; i < SubscriberBuffer+5; i++ {
		b.Broadcast(api.ServerResponse{Step: i})
	}

	if len(ch) != SubscriberBuffer {
		t.Errorf("buffered = %d, want %d", len(ch), SubscriberBuffer)
	}
	if b.Dropped() != 5 {
		t.Errorf("Dropped() = %d, want 5", b.Dropped())
	}
}

package bridge

import (
	"sync"
	"testing"
	"time"
)

func recv(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case evt := <-ch:
		return evt
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestReadyReachesAllSubscribers(t *testing.T) {
	b := New()
	a := b.Subscribe()
	c := b.Subscribe()

	b.Ready()

	for _, ch := range []<-chan Event{a, c} {
		evt := recv(t, ch)
		if evt.Name != BackendReady {
			t.Errorf("event name = %q, want %q", evt.Name, BackendReady)
		}
		if evt.Message != "" {
			t.Errorf("ready event should carry no message, got %q", evt.Message)
		}
	}
}

func TestErrorCarriesMessage(t *testing.T) {
	b := New()
	ch := b.Subscribe()

	b.Error("backend exploded")

	evt := recv(t, ch)
	if evt.Name != BackendError {
		t.Errorf("event name = %q, want %q", evt.Name, BackendError)
	}
	if evt.Message != "backend exploded" {
		t.Errorf("message = %q", evt.Message)
	}
}

func TestPublishNeverBlocksOnFullSubscriber(t *testing.T) {
	b := New()
	b.Subscribe() // never drained

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Ready()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
}

func TestPublishNoSubscribers(t *testing.T) {
	b := New()
	b.Ready() // must not panic or block
}

func TestConcurrentSubscribeAndPublish(t *testing.T) {
	b := New()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			b.Subscribe()
		}()
		go func() {
			defer wg.Done()
			b.Error("boom")
		}()
	}
	wg.Wait()
}

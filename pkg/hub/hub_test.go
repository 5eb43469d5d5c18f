package hub

import (
	"context"
	"testing"
	"time"
)

type fakeSink struct {
	ch chan Message
}

func newFakeSink(size int) *fakeSink {
	return &fakeSink{ch: make(chan Message, size)}
}

func (f *fakeSink) queue() chan Message {
	return f.ch
}

func startHub(t *testing.T, replayLast bool) *Hub {
	t.Helper()
	h := New("test", replayLast)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)
	return h
}

func receive(t *testing.T, s *fakeSink) (Message, bool) {
	t.Helper()
	select {
	case msg, ok := <-s.ch:
		return msg, ok
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}, false
	}
}

func waitForCount(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for h.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount = %d, want %d", h.ClientCount(), n)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestHub_BroadcastReachesAllClients(t *testing.T) {
	h := startHub(t, false)
	a, b := newFakeSink(4), newFakeSink(4)
	h.add(a)
	h.add(b)
	waitForCount(t, h, 2)

	if err := h.BroadcastJSON(map[string]string{"state": "open"}); err != nil {
		t.Fatalf("BroadcastJSON: %v", err)
	}

	for _, s := range []*fakeSink{a, b} {
		msg, ok := receive(t, s)
		if !ok {
			t.Fatal("client queue closed")
		}
		if msg.Type != JSONMessage || string(msg.Data) != `{"state":"open"}` {
			t.Errorf("got %v %s", msg.Type, msg.Data)
		}
	}
}

func TestHub_ReplayLastToNewClient(t *testing.T) {
	h := startHub(t, true)
	first := newFakeSink(4)
	h.add(first)
	h.BroadcastBinary([]byte{0xff, 0xd8})
	receive(t, first)

	late := newFakeSink(4)
	h.add(late)
	msg, ok := receive(t, late)
	if !ok || msg.Type != BinaryMessage || len(msg.Data) != 2 {
		t.Errorf("late client got %+v, ok %v", msg, ok)
	}
}

func TestHub_DropsSlowClient(t *testing.T) {
	h := startHub(t, false)
	slow := newFakeSink(1)
	h.add(slow)
	waitForCount(t, h, 1)

	h.BroadcastBinary([]byte{1})
	h.BroadcastBinary([]byte{2})
	waitForCount(t, h, 0)

	if _, ok := receive(t, slow); !ok {
		t.Fatal("first message should have been queued")
	}
	if _, ok := receive(t, slow); ok {
		t.Error("slow client queue should be closed")
	}
}

func TestHub_Unregister(t *testing.T) {
	h := startHub(t, false)
	s := newFakeSink(1)
	h.add(s)
	waitForCount(t, h, 1)

	h.remove(s)
	waitForCount(t, h, 0)
	if _, ok := receive(t, s); ok {
		t.Error("queue should be closed after unregister")
	}
}

func TestHub_StopClosesClients(t *testing.T) {
	h := New("stop", false)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()

	s := newFakeSink(1)
	h.add(s)
	cancel()
	<-stopped

	if _, ok := receive(t, s); ok {
		t.Error("queue should be closed when the hub stops")
	}
	if h.add(newFakeSink(1)) {
		t.Error("add should fail after the hub stopped")
	}
	h.remove(s) // must not block
}

package hub

import (
	"context"
	"testing"
	"time"

	"github.com/virtbet/vleague/internal/store"
)

func recv(t *testing.T, ch chan Message) Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for broadcast")
		return Message{}
	}
}

func TestBroadcastReachesClients(t *testing.T) {
	h := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	a := &Client{ID: "a", Send: make(chan Message, 4)}
	b := &Client{ID: "b", Send: make(chan Message, 4)}
	h.Register(a)
	h.Register(b)

	h.StateChanged(store.GlobalState{ID: store.GlobalStateID, CurrentWeek: 2, MatchState: store.PhasePlaying})

	for _, c := range []*Client{a, b} {
		msg := recv(t, c.Send)
		if msg.Type != "state" {
			t.Fatalf("client %s got type %q", c.ID, msg.Type)
		}
		s, ok := msg.Payload.(store.GlobalState)
		if !ok || s.CurrentWeek != 2 {
			t.Fatalf("client %s got payload %+v", c.ID, msg.Payload)
		}
	}
}

func TestResultChangedEnvelope(t *testing.T) {
	h := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	c := &Client{ID: "c", Send: make(chan Message, 1)}
	h.Register(c)

	h.ResultChanged(store.MatchResult{MatchID: "m-1", Result: "2-1", Winner: "home"})
	msg := recv(t, c.Send)
	if msg.Type != "result" {
		t.Fatalf("got type %q", msg.Type)
	}
}

func TestUnregisterClosesSend(t *testing.T) {
	h := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	c := &Client{ID: "c", Send: make(chan Message, 1)}
	h.Register(c)
	h.Unregister(c)

	select {
	case _, ok := <-c.Send:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("send channel not closed on unregister")
	}
}

func TestRegisterAfterShutdownReturns(t *testing.T) {
	h := New()
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	cancel()

	finished := make(chan struct{})
	go func() {
		c := &Client{ID: "late", Send: make(chan Message, 1)}
		h.Register(c)
		h.Unregister(c)
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("register/unregister blocked after shutdown")
	}
}

func TestSlowClientDoesNotBlockHub(t *testing.T) {
	h := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	slow := &Client{ID: "slow", Send: make(chan Message)} // unbuffered, never read
	fast := &Client{ID: "fast", Send: make(chan Message, 8)}
	h.Register(slow)
	h.Register(fast)

	for i := 0; i < 5; i++ {
		h.Broadcast(Message{Type: "state", Payload: i})
	}
	// The fast client still gets messages even though the slow one stalls.
	if msg := recv(t, fast.Send); msg.Type != "state" {
		t.Fatalf("got %+v", msg)
	}
}

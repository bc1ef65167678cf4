package broadcast

import (
	"strings"
	"sync"
	"testing"
)

func TestPublishReachesEverySubscriber(t *testing.T) {
	h := NewHub()
	a := h.Register("a")
	b := h.Register("b")

	h.Publish(Message{EventType: RoomMessage, RoomID: 3})

	for name, ch := range map[string]<-chan []byte{"a": a, "b": b} {
		select {
		case payload := <-ch:
			msg, err := Decode(payload)
			if err != nil {
				t.Fatalf("%s: decode: %v", name, err)
			}
			if msg.EventType != RoomMessage || msg.RoomID != 3 {
				t.Fatalf("%s: unexpected message %+v", name, msg)
			}
		default:
			t.Fatalf("%s: expected a delivery", name)
		}
	}
}

func TestMessageOmitsZeroIDs(t *testing.T) {
	h := NewHub()
	ch := h.Register("a")
	h.Publish(Message{EventType: AnonLogout})

	payload := string(<-ch)
	if payload != `{"event_type":"anon_logout"}` {
		t.Fatalf("unexpected payload %s", payload)
	}
	if strings.Contains(payload, "user_id") {
		t.Fatalf("anon_logout must not carry a user id")
	}
}

func TestUnregisterClosesChannel(t *testing.T) {
	h := NewHub()
	ch := h.Register("a")
	h.Unregister("a")
	h.Unregister("a")

	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel")
	}
	if h.Count() != 0 {
		t.Fatalf("expected no subscribers, got %d", h.Count())
	}
	// Publishing with nobody registered is a no-op.
	h.Publish(Message{EventType: Logout, UserID: 1})
}

func TestFullSubscriberDoesNotBlockOthers(t *testing.T) {
	h := NewHub()
	slow := h.Register("slow")
	fast := h.Register("fast")

	for i := 0; i < subscriberBuffer+10; i++ {
		h.Publish(Message{EventType: RoomJoin, RoomID: int64(i + 1)})
		<-fast
	}
	if len(slow) != subscriberBuffer {
		t.Fatalf("expected slow queue capped at %d, got %d", subscriberBuffer, len(slow))
	}
}

func TestPublishOrderIsConsistent(t *testing.T) {
	h := NewHub()
	a := h.Register("a")
	b := h.Register("b")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h.Publish(Message{EventType: RoomMessage, RoomID: int64(i + 1)})
		}(i)
	}
	wg.Wait()

	for i := 0; i < 50; i++ {
		ma, _ := Decode(<-a)
		mb, _ := Decode(<-b)
		if ma.RoomID != mb.RoomID {
			t.Fatalf("subscribers observed different order at %d: %d vs %d", i, ma.RoomID, mb.RoomID)
		}
	}
}

func TestShutdownClosesAll(t *testing.T) {
	h := NewHub()
	a := h.Register("a")
	h.Shutdown()
	h.Shutdown()

	if _, ok := <-a; ok {
		t.Fatalf("expected closed channel after shutdown")
	}
	late := h.Register("late")
	if _, ok := <-late; ok {
		t.Fatalf("registration after shutdown must yield a closed channel")
	}
}

func TestDroppedLogoutStillEndsFeedOnUnregister(t *testing.T) {
	h := NewHub()
	feed := h.Register("s1")

	for i := 0; i < subscriberBuffer; i++ {
		h.Publish(Message{EventType: RoomMessage, RoomID: 1})
	}
	h.Publish(Message{EventType: Logout, UserID: 7})
	h.Unregister("s1")

	n := 0
	for payload := range feed {
		msg, err := Decode(payload)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if msg.EventType == Logout {
			t.Fatalf("logout should have been dropped on a full queue")
		}
		n++
	}
	if n != subscriberBuffer {
		t.Fatalf("expected %d queued events before close, got %d", subscriberBuffer, n)
	}
}

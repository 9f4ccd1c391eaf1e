package stream

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
)

// fakeConn records written updates and can be told to fail.
type fakeConn struct {
	mu      sync.Mutex
	written []Update
	failAt  int
	writes  int
	closed  bool
}

func (f *fakeConn) WriteJSON(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	if f.failAt > 0 && f.writes >= f.failAt {
		return errors.New("broken pipe")
	}
	f.written = append(f.written, v.(Update))
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) snapshot() []Update {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Update, len(f.written))
	copy(out, f.written)
	return out
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestHubBroadcast(t *testing.T) {
	convey.Convey("Given a hub with two subscribed listeners", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		h := NewHub()
		a := &fakeConn{}
		b := &fakeConn{}
		offA := h.Subscribe(ctx, a)
		offB := h.Subscribe(ctx, b)
		defer offA()
		defer offB()

		convey.Convey("Both listeners receive a broadcast update", func() {
			u := Update{EventID: "evt-1", Rating: 5, Timestamp: time.Now().UTC()}
			h.Broadcast(ctx, u)

			waitFor(t, func() bool { return len(a.snapshot()) == 1 && len(b.snapshot()) == 1 })
			convey.So(a.snapshot()[0].EventID, convey.ShouldEqual, "evt-1")
			convey.So(b.snapshot()[0].Rating, convey.ShouldEqual, 5)
		})

		convey.Convey("Unsubscribing a listener stops its delivery", func() {
			offA()
			waitFor(t, func() bool { return h.Len() == 1 })

			h.Broadcast(ctx, Update{EventID: "evt-2", Rating: 4})
			waitFor(t, func() bool { return len(b.snapshot()) == 1 })

			convey.So(a.snapshot(), convey.ShouldBeEmpty)
			convey.So(a.isClosed(), convey.ShouldBeTrue)
		})
	})
}

func TestHubFailedWriterDetaches(t *testing.T) {
	convey.Convey("Given a listener whose connection fails on write", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		h := NewHub()
		c := &fakeConn{failAt: 1}
		off := h.Subscribe(ctx, c)
		defer off()

		convey.Convey("The first broadcast detaches and closes it", func() {
			h.Broadcast(ctx, Update{EventID: "evt-1", Rating: 3})

			waitFor(t, func() bool { return h.Len() == 0 })
			convey.So(c.isClosed(), convey.ShouldBeTrue)

			convey.Convey("And further broadcasts do not panic", func() {
				h.Broadcast(ctx, Update{EventID: "evt-2", Rating: 4})
				convey.So(h.Len(), convey.ShouldEqual, 0)
			})
		})
	})
}

func TestHubStop(t *testing.T) {
	convey.Convey("Given a hub with a subscribed listener", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		h := NewHub()
		c := &fakeConn{}
		h.Subscribe(ctx, c)

		convey.Convey("Stop closes every client", func() {
			h.Stop()
			convey.So(h.Len(), convey.ShouldEqual, 0)
			convey.So(c.isClosed(), convey.ShouldBeTrue)

			convey.Convey("And later subscribes are refused", func() {
				late := &fakeConn{}
				h.Subscribe(ctx, late)
				convey.So(h.Len(), convey.ShouldEqual, 0)
				convey.So(late.isClosed(), convey.ShouldBeTrue)
			})
		})
	})
}

func TestHubConcurrentChurn(t *testing.T) {
	convey.Convey("Given concurrent subscribe, broadcast, and unsubscribe", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		h := NewHub(WithSendBuffer(4))

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					off := h.Subscribe(ctx, &fakeConn{})
					h.Broadcast(ctx, Update{EventID: "evt", Rating: 1})
					off()
				}
			}()
		}
		wg.Wait()

		convey.Convey("The registry drains back to empty", func() {
			convey.So(h.Len(), convey.ShouldEqual, 0)
		})
	})
}

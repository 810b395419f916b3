package pubsub

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type build struct {
	RunID string
	Class string
}

func receive[T any](t *testing.T, ch <-chan Event[T]) Event[T] {
	t.Helper()
	select {
	case e, ok := <-ch:
		require.True(t, ok, "channel closed")
		return e
	case <-time.After(time.Second):
		require.FailNow(t, "timeout waiting for event")
	}
	return Event[T]{}
}

func TestBroker_Publish(t *testing.T) {
	b := NewBroker[build](0)
	defer b.Close()

	ch := b.Subscribe(context.Background())
	n := b.Publish(MadeEvent, build{RunID: "r1", Class: "int"})
	require.Equal(t, 1, n)

	e := receive(t, ch)
	require.Equal(t, MadeEvent, e.Type)
	require.Equal(t, "r1", e.Payload.RunID)
	require.False(t, e.Time.IsZero())
}

func TestBroker_FanOut(t *testing.T) {
	b := NewBroker[int](0)
	defer b.Close()

	subs := []<-chan Event[int]{
		b.Subscribe(context.Background()),
		b.Subscribe(context.Background()),
		b.Subscribe(context.Background()),
	}
	require.Equal(t, 3, b.Len())
	require.Equal(t, 3, b.Publish(FailedEvent, 7))

	for _, ch := range subs {
		e := receive(t, ch)
		require.Equal(t, 7, e.Payload)
		require.Equal(t, FailedEvent, e.Type)
	}
}

func TestBroker_NoSubscribers(t *testing.T) {
	b := NewBroker[int](0)
	defer b.Close()
	require.Zero(t, b.Publish(MadeEvent, 1))
	require.Zero(t, b.Dropped())
}

func TestBroker_Unsubscribe(t *testing.T) {
	b := NewBroker[string](0)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := b.Subscribe(ctx)
	require.Equal(t, 1, b.Len())

	cancel()
	require.Eventually(t, func() bool { return b.Len() == 0 }, time.Second, 5*time.Millisecond)

	_, ok := <-ch
	require.False(t, ok)
}

func TestBroker_FullBufferDrops(t *testing.T) {
	b := NewBroker[int](1)
	defer b.Close()

	ch := b.Subscribe(context.Background())
	require.Equal(t, 1, b.Publish(MadeEvent, 1))

	var delivered int
	done := make(chan struct{})
	go func() {
		defer close(done)
		delivered = b.Publish(MadeEvent, 2) + b.Publish(MadeEvent, 3)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		require.FailNow(t, "Publish blocked")
	}
	require.Zero(t, delivered)

	require.Equal(t, int64(2), b.Dropped())
	require.Equal(t, 1, receive(t, ch).Payload)
}

func TestBroker_Close(t *testing.T) {
	b := NewBroker[string](0)
	ch1 := b.Subscribe(context.Background())
	ch2 := b.Subscribe(context.Background())

	b.Close()
	b.Close()

	_, ok1 := <-ch1
	_, ok2 := <-ch2
	require.False(t, ok1)
	require.False(t, ok2)
	require.Zero(t, b.Len())

	late := b.Subscribe(context.Background())
	_, ok := <-late
	require.False(t, ok, "subscription after close is closed")
	require.Zero(t, b.Publish(MadeEvent, "ignored"))
}

func TestBroker_ConcurrentPublish(t *testing.T) {
	b := NewBroker[int](1000)
	defer b.Close()
	ch := b.Subscribe(context.Background())

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 50 {
				b.Publish(MadeEvent, i*100+j)
			}
		}()
	}
	wg.Wait()

	require.Len(t, ch, 500)
	require.Zero(t, b.Dropped())
}

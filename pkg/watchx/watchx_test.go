package watchx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValueGetSet(t *testing.T) {
	t.Parallel()

	v := NewValue(1)
	require.Equal(t, 1, v.Get())

	v.Set(2)
	require.Equal(t, 2, v.Get())
}

func TestValueSubscribeReceivesCurrentThenUpdates(t *testing.T) {
	t.Parallel()

	v := NewValue("a")
	ch, cancel := v.Subscribe()
	defer cancel()

	require.Equal(t, "a", <-ch)

	v.Set("b")
	require.Equal(t, "b", <-ch)
}

func TestValueSlowSubscriberSeesLatest(t *testing.T) {
	t.Parallel()

	v := NewValue(0)
	ch, cancel := v.Subscribe()
	defer cancel()

	// Nobody reads while three replacements happen; the subscriber must
	// converge on the newest value, not block the publisher.
	v.Set(1)
	v.Set(2)
	v.Set(3)

	require.Equal(t, 3, <-ch)
}

func TestValueCancelStopsDelivery(t *testing.T) {
	t.Parallel()

	v := NewValue(0)
	ch, cancel := v.Subscribe()
	require.Equal(t, 0, <-ch)

	cancel()
	v.Set(1)

	select {
	case got := <-ch:
		t.Fatalf("expected no delivery after cancel, got %d", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLatchSettlesOnce(t *testing.T) {
	t.Parallel()

	l := NewLatch()
	require.False(t, l.IsSet())

	l.Settle()
	l.Settle() // second call is a no-op
	require.True(t, l.IsSet())

	require.NoError(t, l.Wait(context.Background()))
}

func TestLatchWaitHonoursContext(t *testing.T) {
	t.Parallel()

	l := NewLatch()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	require.ErrorIs(t, l.Wait(ctx), context.DeadlineExceeded)
}

func TestLatchWaitUnblocksOnSettle(t *testing.T) {
	t.Parallel()

	l := NewLatch()
	go func() {
		time.Sleep(10 * time.Millisecond)
		l.Settle()
	}()

	require.NoError(t, l.Wait(context.Background()))
}

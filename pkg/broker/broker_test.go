package broker

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, b *Broker) []Event {
	t.Helper()
	var events []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-b.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("events channel never closed")
			return nil
		}
	}
}

func bySource(events []Event) map[int][]string {
	out := make(map[int][]string)
	for _, ev := range events {
		if ev.Err == nil {
			out[ev.Source] = append(out[ev.Source], ev.Line)
		}
	}
	return out
}

func TestBroker_DeliversAllLinesInSourceOrder_When_Sealed(t *testing.T) {
	t.Parallel()

	b := New(context.Background(), nil)
	var want0, want1 []string
	for i := 0; i < 200; i++ {
		want0 = append(want0, fmt.Sprintf("zero %d", i))
		want1 = append(want1, fmt.Sprintf("one %d", i))
	}
	_, err := b.AddReader(0, strings.NewReader(strings.Join(want0, "\n")+"\n"))
	require.NoError(t, err)
	_, err = b.AddReader(1, strings.NewReader(strings.Join(want1, "\n")))
	require.NoError(t, err)
	b.Seal()

	got := bySource(collect(t, b))
	assert.Equal(t, want0, got[0])
	assert.Equal(t, want1, got[1])
	assert.NoError(t, b.Shutdown())
}

func TestBroker_MergesStreamsOfOneSource(t *testing.T) {
	t.Parallel()

	b := New(context.Background(), nil)
	_, err := b.AddReader(3, strings.NewReader("out\n"))
	require.NoError(t, err)
	_, err = b.AddReader(3, strings.NewReader("err\n"))
	require.NoError(t, err)
	b.Seal()

	assert.ElementsMatch(t, []string{"out", "err"}, bySource(collect(t, b))[3])
}

func TestBroker_ForwardsReadErrorOnce_When_ReaderFails(t *testing.T) {
	t.Parallel()

	b := New(context.Background(), nil)
	r := io.MultiReader(strings.NewReader("a\nb\n"), iotest.ErrReader(assert.AnError))
	_, err := b.AddReader(0, r)
	require.NoError(t, err)
	b.Seal()

	events := collect(t, b)
	require.Len(t, events, 3)
	assert.Equal(t, "a", events[0].Line)
	assert.Equal(t, "b", events[1].Line)
	assert.ErrorIs(t, events[2].Err, assert.AnError)

	assert.ErrorIs(t, b.Shutdown(), assert.AnError)
}

func TestBroker_StopsOneReader_When_ItsCancelIsCalled(t *testing.T) {
	t.Parallel()

	b := New(context.Background(), nil)
	pr, pw := io.Pipe()
	cancel, err := b.AddReader(0, pr)
	require.NoError(t, err)
	_, err = b.AddReader(1, strings.NewReader("other\n"))
	require.NoError(t, err)

	_, err = io.WriteString(pw, "before\n")
	require.NoError(t, err)
	ev := <-b.Events()
	if ev.Source == 1 {
		ev = <-b.Events()
	}
	assert.Equal(t, Event{Source: 0, Line: "before"}, ev)

	cancel()
	require.Eventually(t, func() bool {
		_, err := io.WriteString(pw, "after\n")
		return err != nil
	}, 2*time.Second, 5*time.Millisecond, "cancel should close the pipe")

	b.Seal()
	for _, ev := range collect(t, b) {
		assert.NotEqual(t, "after", ev.Line)
	}
	assert.NoError(t, b.Shutdown())
}

func TestBroker_Shutdown_JoinsBlockedReaders(t *testing.T) {
	t.Parallel()

	b := New(context.Background(), nil)
	pr1, _ := io.Pipe()
	pr2, _ := io.Pipe()
	_, err := b.AddReader(0, pr1)
	require.NoError(t, err)
	_, err = b.AddReader(1, pr2)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- b.Shutdown() }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Shutdown did not return")
	}

	_, ok := <-b.Events()
	assert.False(t, ok, "events channel closed after shutdown")
}

func TestBroker_AddReader_Fails_When_Sealed(t *testing.T) {
	t.Parallel()

	b := New(context.Background(), nil)
	b.Seal()

	_, err := b.AddReader(0, strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrSealed)
	assert.Empty(t, collect(t, b))
}

func TestBroker_ReadersNeverWaitOnConsumer(t *testing.T) {
	t.Parallel()

	b := New(context.Background(), nil)
	text := strings.Repeat("line\n", 10000)
	_, err := b.AddReader(0, strings.NewReader(text))
	require.NoError(t, err)

	finished := make(chan struct{})
	go func() {
		_ = b.group.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("reader blocked on an idle consumer")
	}

	b.Seal()
	assert.Len(t, collect(t, b), 10000)
}

func TestBroker_StopsReaders_When_ParentCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	b := New(ctx, nil)
	pr, _ := io.Pipe()
	_, err := b.AddReader(0, pr)
	require.NoError(t, err)
	b.Seal()

	cancel()
	assert.Empty(t, collect(t, b))
	assert.NoError(t, b.Shutdown())
}

package sensorlink

import (
	"context"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"picframe/protocol"
	"picframe/touch"
)

type linkFixture struct {
	link    *Link
	src     *touch.Source
	motions atomic.Int32
}

func newLinkFixture(t *testing.T, port io.Reader) *linkFixture {
	t.Helper()
	if port == nil {
		port = strings.NewReader("")
	}
	logger, _ := test.NewNullLogger()
	f := &linkFixture{src: touch.NewSource()}
	l, err := New(Config{
		Port:   port,
		Touch:  f.src,
		Motion: func() { f.motions.Add(1) },
		Logger: logger,
	})
	require.NoError(t, err)
	f.link = l
	return f
}

func event(t *testing.T, seq uint8, code EventCode) []byte {
	t.Helper()
	b, err := AppendEvent(nil, seq, code)
	require.NoError(t, err)
	return b
}

func TestNewValidates(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestFeedDispatchesEvents(t *testing.T) {
	f := newLinkFixture(t, nil)

	f.link.Feed(event(t, 0, EventMotion))
	f.link.Feed(event(t, 1, EventTouchLeft))

	assert.Equal(t, int32(1), f.motions.Load())
	ev, ok, err := f.src.Next(context.Background(), time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, touch.Event{Left: true}, ev)
	assert.Equal(t, uint64(2), f.link.Stats().Events)
}

func TestFeedMultipleCodesInOneFrame(t *testing.T) {
	f := newLinkFixture(t, nil)

	payload := protocol.AppendVLQUint(protocol.AppendVLQUint(nil, uint32(EventMotion)), uint32(EventMotion))
	frame, err := protocol.AppendFrame(nil, 0, payload)
	require.NoError(t, err)
	f.link.Feed(frame)

	assert.Equal(t, int32(2), f.motions.Load())
}

func TestFeedCountsDiscardedTouches(t *testing.T) {
	f := newLinkFixture(t, nil)

	f.link.Feed(event(t, 0, EventTouchRight))
	f.link.Feed(event(t, 1, EventTouchLeft))

	assert.Equal(t, uint64(1), f.link.Stats().Discarded)
	ev, ok, err := f.src.Next(context.Background(), time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, touch.Event{Right: true}, ev, "first touch wins")
}

func TestFeedUnknownEvent(t *testing.T) {
	f := newLinkFixture(t, nil)
	f.link.Feed(event(t, 0, EventCode(99)))

	stats := f.link.Stats()
	assert.Equal(t, uint64(1), stats.Unknown)
	assert.Zero(t, stats.Events)
}

func TestFeedSurvivesLineNoise(t *testing.T) {
	f := newLinkFixture(t, nil)

	stream := []byte{0x00, 0x99, protocol.SyncByte}
	stream = append(stream, event(t, 0, EventMotion)...)
	f.link.Feed(stream)

	assert.Equal(t, int32(1), f.motions.Load())
	assert.Equal(t, uint64(1), f.link.Stats().Decoder.Resyncs)
}

func TestRunReadsPort(t *testing.T) {
	pr, pw := io.Pipe()
	f := newLinkFixture(t, pr)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.link.Run(ctx) }()

	frame := event(t, 0, EventTouchRight)
	_, err := pw.Write(frame[:3])
	require.NoError(t, err)
	_, err = pw.Write(frame[3:])
	require.NoError(t, err)

	ev, ok, err := f.src.Next(ctx, time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, touch.Event{Right: true}, ev)

	cancel()
	pw.Close()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("link did not stop")
	}
}

func TestEventCodeString(t *testing.T) {
	assert.Equal(t, "motion", EventMotion.String())
	assert.Equal(t, "event(7)", EventCode(7).String())
}

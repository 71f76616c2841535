package touch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"picframe/core"
)

// MockGPIODriver is a test implementation of core.GPIODriver
type MockGPIODriver struct {
	mu      sync.Mutex
	pins    map[core.GPIOPin]bool
	inputs  map[core.GPIOPin]bool
	readErr error
}

func NewMockGPIODriver() *MockGPIODriver {
	return &MockGPIODriver{
		pins:   make(map[core.GPIOPin]bool),
		inputs: make(map[core.GPIOPin]bool),
	}
}

func (m *MockGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pins[pin] = false
	return nil
}

func (m *MockGPIODriver) ConfigureInputPullDown(pin core.GPIOPin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs[pin] = true
	m.pins[pin] = false
	return nil
}

func (m *MockGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pins[pin] = value
	return nil
}

func (m *MockGPIODriver) GetPin(pin core.GPIOPin) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return false, m.readErr
	}
	return m.pins[pin], nil
}

func (m *MockGPIODriver) SetInterrupt(pin core.GPIOPin, edge core.GPIOEdge, handler func()) error {
	return errors.New("mock: interrupts not supported")
}

const (
	leftPad  core.GPIOPin = 6
	rightPad core.GPIOPin = 7
)

func newSampler(t *testing.T) (*Sampler, *MockGPIODriver, *Source) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	drv := NewMockGPIODriver()
	src := NewSource()
	s, err := NewSampler(SamplerConfig{
		Driver:   drv,
		Left:     leftPad,
		Right:    rightPad,
		Interval: time.Millisecond,
		Source:   src,
		Logger:   logger,
	})
	require.NoError(t, err)
	return s, drv, src
}

func TestSourceNextTimesOut(t *testing.T) {
	src := NewSource()
	start := time.Now()
	_, ok, err := src.Next(context.Background(), 10*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestSourceDepthOne(t *testing.T) {
	src := NewSource()
	assert.True(t, src.TryPublish(Event{Right: true}))
	assert.False(t, src.TryPublish(Event{Left: true}), "second event must not fit")

	ev, ok, err := src.Next(context.Background(), time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Event{Right: true}, ev)

	_, ok, err = src.Next(context.Background(), time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok, "event is consumed at most once")
}

func TestSourceNextCancelled(t *testing.T) {
	src := NewSource()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := src.Next(ctx, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewSamplerValidates(t *testing.T) {
	_, err := NewSampler(SamplerConfig{Source: NewSource(), Interval: time.Millisecond})
	assert.Error(t, err)
	_, err = NewSampler(SamplerConfig{Driver: NewMockGPIODriver(), Interval: time.Millisecond})
	assert.Error(t, err)
	_, err = NewSampler(SamplerConfig{Driver: NewMockGPIODriver(), Source: NewSource()})
	assert.Error(t, err)
}

func TestSamplerConfiguresPads(t *testing.T) {
	_, drv, _ := newSampler(t)
	assert.True(t, drv.inputs[leftPad])
	assert.True(t, drv.inputs[rightPad])
}

func TestSamplerRisingEdge(t *testing.T) {
	s, drv, src := newSampler(t)

	_, published, err := s.SampleOnce()
	require.NoError(t, err)
	assert.False(t, published, "idle pads publish nothing")

	require.NoError(t, drv.SetPin(rightPad, true))
	ev, published, err := s.SampleOnce()
	require.NoError(t, err)
	assert.True(t, published)
	assert.Equal(t, Event{Right: true}, ev)

	// Held pad does not repeat
	_, published, err = s.SampleOnce()
	require.NoError(t, err)
	assert.False(t, published)

	got, ok, err := src.Next(context.Background(), time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Event{Right: true}, got)
}

func TestSamplerDiscardsWhenFull(t *testing.T) {
	s, drv, _ := newSampler(t)

	require.NoError(t, drv.SetPin(leftPad, true))
	_, published, err := s.SampleOnce()
	require.NoError(t, err)
	require.True(t, published)

	require.NoError(t, drv.SetPin(leftPad, false))
	_, _, err = s.SampleOnce()
	require.NoError(t, err)
	require.NoError(t, drv.SetPin(leftPad, true))
	_, published, err = s.SampleOnce()
	require.NoError(t, err)
	assert.False(t, published)
	assert.Equal(t, uint64(1), s.Discarded())
}

func TestSamplerReadError(t *testing.T) {
	s, drv, _ := newSampler(t)
	drv.readErr = errors.New("bus")
	_, _, err := s.SampleOnce()
	assert.Error(t, err)
}

func TestSamplerRun(t *testing.T) {
	s, drv, src := newSampler(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	require.NoError(t, drv.SetPin(leftPad, true))
	ev, ok, err := src.Next(ctx, time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Event{Left: true}, ev)
}

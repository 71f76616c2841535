// Package sensorlink feeds touch and motion events from a serial-attached
// sensor board into the carousel and the power controller.
package sensorlink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"picframe/protocol"
	"picframe/touch"
)

// EventCode is the first VLQ of a frame payload
type EventCode uint32

const (
	EventTouchLeft  EventCode = 1
	EventTouchRight EventCode = 2
	EventMotion     EventCode = 3
)

func (c EventCode) String() string {
	switch c {
	case EventTouchLeft:
		return "touch_left"
	case EventTouchRight:
		return "touch_right"
	case EventMotion:
		return "motion"
	default:
		return fmt.Sprintf("event(%d)", uint32(c))
	}
}

// AppendEvent appends a frame carrying code to dst
func AppendEvent(dst []byte, seq uint8, code EventCode) ([]byte, error) {
	return protocol.AppendFrame(dst, seq, protocol.AppendVLQUint(nil, uint32(code)))
}

// Config wires the link to its consumers
type Config struct {
	Port   io.Reader
	Touch  *touch.Source
	Motion func() // motion interrupt entry point
	Logger logrus.FieldLogger
}

// Stats counts link activity
type Stats struct {
	Events    uint64
	Discarded uint64 // touches dropped because the previous one was pending
	Unknown   uint64
	Decoder   protocol.DecoderStats
}

// Link decodes frames from Port and dispatches events
type Link struct {
	cfg     Config
	log     logrus.FieldLogger
	decoder *protocol.Decoder

	events    atomic.Uint64
	discarded atomic.Uint64
	unknown   atomic.Uint64
}

// New creates a link. Call Run to start reading.
func New(cfg Config) (*Link, error) {
	if cfg.Port == nil {
		return nil, errors.New("sensorlink: port required")
	}
	if cfg.Touch == nil {
		return nil, errors.New("sensorlink: touch source required")
	}
	if cfg.Motion == nil {
		return nil, errors.New("sensorlink: motion handler required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Link{
		cfg:     cfg,
		log:     cfg.Logger.WithField("task", "sensorlink"),
		decoder: protocol.NewDecoder(),
	}, nil
}

// Run reads until ctx ends. Read errors, including the io.EOF a serial
// port returns on read timeout, back off briefly and retry.
func (l *Link) Run(ctx context.Context) error {
	buf := make([]byte, 256)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := l.cfg.Port.Read(buf)
		if n > 0 {
			l.Feed(buf[:n])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				l.log.WithError(err).Debug("Serial read failed")
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(10 * time.Millisecond):
			}
		}
	}
}

// Feed decodes raw bytes and dispatches every complete frame.
// Run uses it; it is exported for links fed from another reader.
func (l *Link) Feed(data []byte) {
	l.decoder.Feed(data, func(f protocol.Frame) {
		payload := f.Payload
		for len(payload) > 0 {
			code, err := protocol.DecodeVLQUint(&payload)
			if err != nil {
				l.log.WithError(err).Warn("Malformed event frame")
				return
			}
			l.dispatch(EventCode(code))
		}
	})
}

// Stats returns the link counters. Decoder stats are only consistent when
// read from the goroutine running the link or after it stopped.
func (l *Link) Stats() Stats {
	return Stats{
		Events:    l.events.Load(),
		Discarded: l.discarded.Load(),
		Unknown:   l.unknown.Load(),
		Decoder:   l.decoder.Stats(),
	}
}

func (l *Link) dispatch(code EventCode) {
	switch code {
	case EventTouchLeft:
		l.touch(touch.Event{Left: true})
	case EventTouchRight:
		l.touch(touch.Event{Right: true})
	case EventMotion:
		l.cfg.Motion()
	default:
		l.unknown.Add(1)
		l.log.WithField("event", code.String()).Warn("Unknown sensor event")
		return
	}
	l.events.Add(1)
	l.log.WithField("event", code.String()).Debug("Sensor event")
}

func (l *Link) touch(ev touch.Event) {
	if !l.cfg.Touch.TryPublish(ev) {
		l.discarded.Add(1)
	}
}

package carousel

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"picframe/core"
	"picframe/display"
	"picframe/storage"
	"picframe/touch"
)

// Config holds the controller's collaborators and constants
type Config struct {
	Requester storage.Requester
	Surface   display.Surface
	Touch     *touch.Source
	Task      *core.Task // suspended by the power controller

	Images       int // catalog size N
	BufferBytes  int // largest stored object
	TouchTimeout time.Duration
	LabelX       int16
	LabelY       int16

	Logger logrus.FieldLogger
}

// Stats counts what the controller has done
type Stats struct {
	Renders  uint64
	Failures uint64
	Touches  uint64
	Timeouts uint64
}

// Controller owns the current index and the image buffer
type Controller struct {
	cfg   Config
	log   logrus.FieldLogger
	buf   []byte
	index atomic.Int64

	renders  atomic.Uint64
	failures atomic.Uint64
	touches  atomic.Uint64
	timeouts atomic.Uint64
}

// New creates a controller starting at index 0
func New(cfg Config) (*Controller, error) {
	if cfg.Requester == nil {
		return nil, errors.New("carousel: requester required")
	}
	if cfg.Surface == nil {
		return nil, errors.New("carousel: surface required")
	}
	if cfg.Touch == nil {
		return nil, errors.New("carousel: touch source required")
	}
	if cfg.Task == nil {
		return nil, errors.New("carousel: task handle required")
	}
	if cfg.Images <= 0 {
		return nil, errors.New("carousel: catalog size must be > 0")
	}
	if cfg.BufferBytes <= 0 {
		return nil, errors.New("carousel: buffer size must be > 0")
	}
	if cfg.TouchTimeout <= 0 {
		return nil, errors.New("carousel: touch timeout must be > 0")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	return &Controller{
		cfg: cfg,
		log: cfg.Logger.WithField("task", "carousel"),
		buf: make([]byte, cfg.BufferBytes),
	}, nil
}

// Index returns the index the next Step will show
func (c *Controller) Index() int {
	return int(c.index.Load())
}

// Stats returns the controller counters
func (c *Controller) Stats() Stats {
	return Stats{
		Renders:  c.renders.Load(),
		Failures: c.failures.Load(),
		Touches:  c.touches.Load(),
		Timeouts: c.timeouts.Load(),
	}
}

// Run steps forever. It returns only when ctx ends.
func (c *Controller) Run(ctx context.Context) error {
	for {
		if err := c.Step(ctx); err != nil {
			return err
		}
	}
}

// Step runs one iteration: read the current image, show it, wait for a
// touch, move the index. A failed read moves forward without rendering.
func (c *Controller) Step(ctx context.Context) error {
	if err := c.cfg.Task.Checkpoint(ctx); err != nil {
		return err
	}

	n := c.cfg.Images
	i := c.Index()

	ok, err := c.cfg.Requester.Call(ctx, storage.Command{
		Op:     storage.OpRead,
		Index:  i,
		Buffer: c.buf,
		Size:   len(c.buf),
	})
	if err != nil {
		return err
	}

	next := Advance(i, n)
	if ok {
		next, err = c.show(ctx, i)
		if err != nil {
			return err
		}
	} else {
		c.failures.Add(1)
		c.log.WithField("index", i).Debug("Read failed, skipping image")
	}

	c.index.Store(int64(Normalize(next, n)))
	return nil
}

// show renders image i and returns the index chosen by touch input
func (c *Controller) show(ctx context.Context, i int) (int, error) {
	// The power controller may have put the panel to sleep during the read
	if err := c.cfg.Task.Checkpoint(ctx); err != nil {
		return i, err
	}

	n := c.cfg.Images
	s := c.cfg.Surface
	s.Clear()
	s.DrawImage(c.buf, 0, 0)
	s.DrawText(strconv.Itoa(i+1)+"/"+strconv.Itoa(n), c.cfg.LabelX, c.cfg.LabelY)
	c.renders.Add(1)

	ev, got, err := c.cfg.Touch.Next(ctx, c.cfg.TouchTimeout)
	if err != nil {
		return i, err
	}
	if !got {
		c.timeouts.Add(1)
		return Advance(i, n), nil
	}

	c.touches.Add(1)
	if ev.Left {
		return Retreat(i, n), nil
	}
	return Advance(i, n), nil
}

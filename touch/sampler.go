package touch

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"picframe/core"
)

// SamplerConfig is the runtime config of a touch pad sampler
type SamplerConfig struct {
	Driver   core.GPIODriver
	Left     core.GPIOPin
	Right    core.GPIOPin
	Interval time.Duration
	Source   *Source
	Logger   logrus.FieldLogger
}

// Sampler polls two digital touch pads and publishes an event on each
// press (rising edge). Holding a pad publishes once.
type Sampler struct {
	cfg   SamplerConfig
	log   logrus.FieldLogger
	left  bool
	right bool

	discarded uint64
}

// NewSampler configures both pads as pulled-down inputs
func NewSampler(cfg SamplerConfig) (*Sampler, error) {
	if cfg.Driver == nil {
		return nil, errors.New("touch: gpio driver required")
	}
	if cfg.Source == nil {
		return nil, errors.New("touch: source required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("touch: interval must be > 0")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	for _, pin := range []core.GPIOPin{cfg.Left, cfg.Right} {
		if err := cfg.Driver.ConfigureInputPullDown(pin); err != nil {
			return nil, err
		}
	}
	return &Sampler{cfg: cfg, log: cfg.Logger.WithField("task", "touch")}, nil
}

// SampleOnce reads both pads once and publishes a press if one started.
// Left wins if both pads go down in the same sample.
func (s *Sampler) SampleOnce() (Event, bool, error) {
	left, err := s.cfg.Driver.GetPin(s.cfg.Left)
	if err != nil {
		return Event{}, false, err
	}
	right, err := s.cfg.Driver.GetPin(s.cfg.Right)
	if err != nil {
		return Event{}, false, err
	}

	var ev Event
	switch {
	case left && !s.left:
		ev.Left = true
	case right && !s.right:
		ev.Right = true
	}
	s.left, s.right = left, right

	if !ev.Left && !ev.Right {
		return Event{}, false, nil
	}
	if !s.cfg.Source.TryPublish(ev) {
		s.discarded++
		s.log.Debug("Touch event discarded, previous one not consumed yet")
		return ev, false, nil
	}
	return ev, true, nil
}

// Discarded returns how many presses were dropped because the queue was full
func (s *Sampler) Discarded() uint64 {
	return s.discarded
}

// Run samples at the configured interval until ctx ends. Read errors are
// logged and the sample is skipped.
func (s *Sampler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, _, err := s.SampleOnce(); err != nil {
				s.log.WithError(err).Warn("Touch pad read failed")
			}
		}
	}
}

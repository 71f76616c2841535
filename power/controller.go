// Package power puts the display and the carousel to sleep when no motion
// has been seen for a while, and wakes them from the motion interrupt.
package power

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"picframe/core"
)

// State is the binary power state
type State uint32

const (
	Awake State = iota
	Sleeping
)

func (s State) String() string {
	if s == Sleeping {
		return "sleeping"
	}
	return "awake"
}

// Hardware is the display side the monitor drives
type Hardware interface {
	// SetActive switches the panel and indicators between full power and lowest idle
	SetActive(active bool) error
}

// Config is the controller's runtime config
type Config struct {
	Hardware  Hardware
	Consumer  *core.Task // carousel
	Self      *core.Task // the monitor's own task
	Countdown uint32     // ticks without motion before sleeping
	Interval  time.Duration
	Trace     *core.Trace
	Logger    logrus.FieldLogger
}

// Snapshot is a point-in-time view of the controller
type Snapshot struct {
	State             State
	Countdown         uint32
	ConsumerSuspended bool
	SelfSuspended     bool
	Motions           uint64
	Sleeps            uint64
}

// Controller owns the countdown and the power state.
//
// Two contexts write them: the periodic monitor (Tick, Run) and the motion
// interrupt (HandleMotion). The countdown only moves down through CAS so a
// reset from the interrupt is never overwritten, and a motion generation
// counter lets the monitor notice an interrupt that fired while it was
// putting the system to sleep.
type Controller struct {
	cfg Config
	log logrus.FieldLogger

	countdown atomic.Uint32
	state     atomic.Uint32
	motionGen atomic.Uint64
	motions   atomic.Uint64
	sleeps    atomic.Uint64

	active bool // last level sent to Hardware; monitor only
}

// New creates an Awake controller with a full countdown
func New(cfg Config) (*Controller, error) {
	if cfg.Hardware == nil {
		return nil, errors.New("power: hardware required")
	}
	if cfg.Consumer == nil || cfg.Self == nil {
		return nil, errors.New("power: consumer and self task handles required")
	}
	if cfg.Countdown == 0 {
		return nil, errors.New("power: countdown must be > 0")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("power: interval must be > 0")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	c := &Controller{
		cfg:    cfg,
		log:    cfg.Logger.WithField("task", "power"),
		active: true,
	}
	c.countdown.Store(cfg.Countdown)
	c.state.Store(uint32(Awake))
	return c, nil
}

// State returns the current power state
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Snapshot returns the current counters and flags
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		State:             c.State(),
		Countdown:         c.countdown.Load(),
		ConsumerSuspended: c.cfg.Consumer.Suspended(),
		SelfSuspended:     c.cfg.Self.Suspended(),
		Motions:           c.motions.Load(),
		Sleeps:            c.sleeps.Load(),
	}
}

// HandleMotion is the motion interrupt handler. It resets the countdown,
// forces Awake and resumes both tasks. It never blocks and does not log.
func (c *Controller) HandleMotion() {
	c.countdown.Store(c.cfg.Countdown)
	c.motionGen.Add(1)
	c.motions.Add(1)
	prev := State(c.state.Swap(uint32(Awake)))

	c.cfg.Consumer.Resume()
	c.cfg.Self.Resume()

	c.cfg.Trace.Record(core.EvtMotion, "power", c.cfg.Countdown)
	if prev == Sleeping {
		c.cfg.Trace.Record(core.EvtWake, "power", 0)
	}
}

// Tick is one monitor period. The tick that takes the countdown to zero
// idles the hardware and suspends the consumer and the monitor itself.
func (c *Controller) Tick() State {
	seen := c.motionGen.Load()

	for {
		n := c.countdown.Load()
		if n == 0 {
			break
		}
		if !c.countdown.CompareAndSwap(n, n-1) {
			continue
		}
		if n > 1 {
			c.setActive(true)
			return Awake
		}
		break
	}

	if c.State() == Sleeping {
		return Sleeping
	}
	return c.sleep(seen)
}

// Run ticks every interval until ctx ends, parking while suspended
func (c *Controller) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if c.Tick() == Sleeping {
			if err := c.cfg.Self.Checkpoint(ctx); err != nil {
				return err
			}
			c.log.Info("Motion detected, waking up")
			ticker.Reset(c.cfg.Interval)
		}

		// Motion may have landed after this tick took the hardware down
		if c.State() == Awake {
			c.setActive(true)
		}
	}
}

func (c *Controller) sleep(seen uint64) State {
	c.setActive(false)
	c.state.Store(uint32(Sleeping))
	c.cfg.Consumer.Suspend()
	c.cfg.Self.Suspend()

	if c.motionGen.Load() != seen {
		// Motion fired while going down; its resumes may have run before our suspends
		c.cfg.Consumer.Resume()
		c.cfg.Self.Resume()
		c.state.Store(uint32(Awake))
		c.setActive(true)
		return Awake
	}

	c.sleeps.Add(1)
	c.cfg.Trace.Record(core.EvtSleep, "power", 0)
	c.log.WithField("suspended", c.cfg.Consumer.Name()).Info("No motion, going to sleep")
	return Sleeping
}

func (c *Controller) setActive(active bool) {
	if c.active == active {
		return
	}
	if err := c.cfg.Hardware.SetActive(active); err != nil {
		c.log.WithError(err).WithField("active", active).Warn("Unable to switch display power")
		return
	}
	c.active = active
}

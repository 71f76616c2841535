//go:build rp2040 || rp2350

package main

import (
	"context"
	"machine"

	"github.com/sirupsen/logrus"
	"tinygo.org/x/drivers/st7789"

	"picframe/carousel"
	"picframe/config"
	"picframe/core"
	"picframe/display"
	"picframe/power"
	"picframe/storage"
	"picframe/storage/medium"
	"picframe/touch"
)

// panelPower switches the panel, its backlight and the status LED together
type panelPower struct {
	panel *st7789.Device
	gpio  core.GPIODriver
}

func (p *panelPower) SetActive(active bool) error {
	p.panel.EnableBacklight(active)
	if err := p.gpio.SetPin(pinStatusLED, active); err != nil {
		return err
	}
	return p.panel.Sleep(!active)
}

func main() {
	// Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	debug := initDebugUART()

	log := logrus.New()
	log.SetOutput(debug)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})

	cfg := config.Default()
	trace := core.NewTrace()
	gpio := NewRPGPIODriver()
	gpio.ConfigureOutput(pinStatusLED)
	gpio.SetPin(pinStatusLED, true)

	// Panel
	bus, busName, err := openPanelBus(panelBus, panelRate)
	if err != nil {
		log.WithError(err).Error("Panel bus unavailable")
		core.HaltSpin("panel bus", err)
	}
	lcd := st7789.New(bus, pinPanelReset, pinPanelDC, pinPanelCS, pinPanelBL)
	lcd.Configure(st7789.Config{
		Width:    panelWidth,
		Height:   panelHeight,
		Rotation: st7789.ROTATION_90,
	})
	panel := display.NewPanel(&lcd, display.PanelConfig{Logger: log})
	log.WithField("bus", busName).Info("Panel ready")

	shutdown := core.NewShutdown(core.HaltSpin, trace)
	shutdown.OnShutdown(func() {
		lcd.EnableBacklight(false)
		gpio.SetPin(pinStatusLED, false)
	})
	shutdown.OnShutdown(func() {
		trace.Dump(debug.Println)
	})

	// Storage
	catalog := storage.Catalog(cfg.Catalog.Names)
	slots, err := medium.NewSlots(machine.Flash, catalog, int64(cfg.Catalog.MaxObjectBytes))
	if err != nil {
		shutdown.Try("Flash too small for catalog", err)
	}
	channel := storage.NewChannel(trace)
	worker, err := storage.NewWorker(storage.WorkerConfig{
		Channel:  channel,
		Medium:   slots,
		Catalog:  catalog,
		Shutdown: shutdown,
		Logger:   log,
	})
	if err != nil {
		shutdown.Try("Storage setup", err)
	}

	// Touch
	source := touch.NewSource()
	sampler, err := touch.NewSampler(touch.SamplerConfig{
		Driver:   gpio,
		Left:     pinTouchLeft,
		Right:    pinTouchRight,
		Interval: touchSampleInterval,
		Source:   source,
		Logger:   log,
	})
	if err != nil {
		shutdown.Try("Touch setup", err)
	}

	// Carousel and power
	carouselTask := core.NewTask("carousel", trace)
	powerTask := core.NewTask("power", trace)

	labelX, labelY := cfg.Carousel.Label()
	frame, err := carousel.New(carousel.Config{
		Requester:    channel,
		Surface:      panel,
		Touch:        source,
		Task:         carouselTask,
		Images:       catalog.Len(),
		BufferBytes:  cfg.Catalog.MaxObjectBytes,
		TouchTimeout: cfg.Carousel.TouchTimeout(),
		LabelX:       labelX,
		LabelY:       labelY,
		Logger:       log,
	})
	if err != nil {
		shutdown.Try("Carousel setup", err)
	}

	monitor, err := power.New(power.Config{
		Hardware:  &panelPower{panel: &lcd, gpio: gpio},
		Consumer:  carouselTask,
		Self:      powerTask,
		Countdown: cfg.Power.DisplayOnSeconds,
		Interval:  cfg.Power.Tick(),
		Trace:     trace,
		Logger:    log,
	})
	if err != nil {
		shutdown.Try("Power setup", err)
	}

	if err := gpio.ConfigureInputPullDown(pinMotion); err != nil {
		shutdown.Try("Motion sensor setup", err)
	}
	if err := gpio.SetInterrupt(pinMotion, core.EdgeRising, monitor.HandleMotion); err != nil {
		shutdown.Try("Motion sensor setup", err)
	}

	ctx := context.Background()
	go worker.Run(ctx)
	go sampler.Run(ctx)
	go monitor.Run(ctx)

	frame.Run(ctx)
}

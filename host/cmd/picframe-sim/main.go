package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"picframe/carousel"
	"picframe/config"
	"picframe/core"
	"picframe/display"
	"picframe/host/sensorlink"
	"picframe/host/serial"
	"picframe/power"
	"picframe/storage"
	"picframe/storage/medium"
	"picframe/touch"
)

const (
	panelWidth  = 320
	panelHeight = 240
)

var (
	configPath = flag.String("config", "", "YAML config file (defaults when empty)")
	snapshot   = flag.String("snapshot", "picframe.png", "PNG written by the 'png' command")
	seed       = flag.Bool("seed", false, "Write generated test images to every catalog slot at start (always on for the memory medium)")
)

// frame bundles the running device so commands can reach it
type frame struct {
	log      *logrus.Logger
	trace    *core.Trace
	channel  *storage.Channel
	worker   *storage.Worker
	fb       *display.Framebuffer
	panel    *display.Panel
	touch    *touch.Source
	carousel *carousel.Controller
	power    *power.Controller
	link     *sensorlink.Link
	shutdown *core.Shutdown
	catalog  storage.Catalog
	maxBytes int
}

// panelPower drives the simulated panel's sleep mode
type panelPower struct {
	fb *display.Framebuffer
}

func (p panelPower) SetActive(active bool) error {
	return p.fb.Sleep(!active)
}

func main() {
	flag.Parse()

	fmt.Println("Picframe Simulator - motion-aware image carousel")
	fmt.Println("================================================")

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log := logrus.New()
	level, _ := logrus.ParseLevel(cfg.Log.Level)
	log.SetLevel(level)

	m, closeMedium, err := openMedium(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open storage: %v\n", err)
		os.Exit(1)
	}
	defer closeMedium()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f, err := build(cfg, m, closeMedium, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var wg sync.WaitGroup
	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil && ctx.Err() == nil {
				log.WithError(err).WithField("task", name).Error("Task stopped")
			}
		}()
	}

	run("storage", f.worker.Run)
	if *seed || cfg.Storage.Medium == config.MediumMemory {
		if err := f.seedImages(ctx); err != nil {
			log.WithError(err).Warn("Seeding failed")
		}
	}
	run("carousel", f.carousel.Run)
	run("power", f.power.Run)

	if cfg.SensorLink.Device != "" {
		sc := serial.DefaultConfig(cfg.SensorLink.Device)
		sc.Baud = cfg.SensorLink.Baud
		port, err := serial.Open(sc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to open sensor link: %v\n", err)
			os.Exit(1)
		}
		defer port.Close()

		f.link, err = sensorlink.New(sensorlink.Config{
			Port:   port,
			Touch:  f.touch,
			Motion: f.power.HandleMotion,
			Logger: log,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		run("sensorlink", f.link.Run)
		fmt.Printf("Sensor link on %s\n", cfg.SensorLink.Device)
	}

	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	f.repl(ctx, bufio.NewScanner(os.Stdin))

	cancel()
	wg.Wait()
}

func loadConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	config.Normalize(cfg)
	return cfg, nil
}

func openMedium(cfg *config.Config) (storage.Medium, func(), error) {
	switch cfg.Storage.Medium {
	case config.MediumDir:
		catalog := storage.Catalog(cfg.Catalog.Names)
		return medium.NewDir(cfg.Storage.Path, catalog, cfg.Storage.MinimumFreeBytes()), func() {}, nil
	case config.MediumBadger:
		b, err := medium.OpenBadger(cfg.Storage.Path)
		if err != nil {
			return nil, nil, err
		}
		var once sync.Once
		return b, func() { once.Do(func() { b.Close() }) }, nil
	default:
		volume := uint64(len(cfg.Catalog.Names)*cfg.Catalog.MaxObjectBytes) * 2
		return medium.NewBlankMemory(volume), func() {}, nil
	}
}

// build wires the device. closeMedium also runs on a fatal halt, where
// deferred calls in main are skipped.
func build(cfg *config.Config, m storage.Medium, closeMedium func(), log *logrus.Logger) (*frame, error) {
	f := &frame{
		log:      log,
		trace:    core.NewTrace(),
		catalog:  storage.Catalog(cfg.Catalog.Names),
		maxBytes: cfg.Catalog.MaxObjectBytes,
		touch:    touch.NewSource(),
	}
	f.channel = storage.NewChannel(f.trace)
	f.fb = display.NewFramebuffer(panelWidth, panelHeight)
	f.panel = display.NewPanel(f.fb, display.PanelConfig{Logger: log})

	shutdown := core.NewShutdown(func(reason string, err error) {
		log.WithError(err).Fatal(reason)
	}, f.trace)
	shutdown.OnShutdown(func() {
		f.fb.Sleep(true)
	})
	shutdown.OnShutdown(func() {
		f.trace.Dump(func(s string) { log.Error(s) })
	})
	shutdown.OnShutdown(closeMedium)
	f.shutdown = shutdown

	var err error
	f.worker, err = storage.NewWorker(storage.WorkerConfig{
		Channel:  f.channel,
		Medium:   m,
		Catalog:  f.catalog,
		Shutdown: shutdown,
		Logger:   log,
	})
	if err != nil {
		return nil, err
	}

	carouselTask := core.NewTask("carousel", f.trace)
	powerTask := core.NewTask("power", f.trace)

	labelX, labelY := cfg.Carousel.Label()
	f.carousel, err = carousel.New(carousel.Config{
		Requester:    f.channel,
		Surface:      f.panel,
		Touch:        f.touch,
		Task:         carouselTask,
		Images:       f.catalog.Len(),
		BufferBytes:  f.maxBytes,
		TouchTimeout: cfg.Carousel.TouchTimeout(),
		LabelX:       labelX,
		LabelY:       labelY,
		Logger:       log,
	})
	if err != nil {
		return nil, err
	}

	f.power, err = power.New(power.Config{
		Hardware:  panelPower{fb: f.fb},
		Consumer:  carouselTask,
		Self:      powerTask,
		Countdown: cfg.Power.DisplayOnSeconds,
		Interval:  cfg.Power.Tick(),
		Trace:     f.trace,
		Logger:    log,
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (f *frame) repl(ctx context.Context, scanner *bufio.Scanner) {
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch parts := strings.Fields(line); parts[0] {
		case "quit", "exit", "q":
			fmt.Println("Goodbye!")
			return

		case "help", "?":
			printHelp()

		case "l", "left":
			f.press(touch.Event{Left: true})

		case "r", "right":
			f.press(touch.Event{Right: true})

		case "m", "motion":
			f.power.HandleMotion()

		case "seed":
			if err := f.seedImages(ctx); err != nil {
				fmt.Printf("Error: %v\n", err)
			}

		case "format":
			ok, err := f.channel.Call(ctx, storage.Command{Op: storage.OpForceFormat})
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			fmt.Printf("Format ok: %v\n", ok)

		case "status", "s":
			f.printStatus()

		case "trace":
			f.trace.Dump(func(s string) { fmt.Println(s) })

		case "png":
			path := *snapshot
			if len(parts) > 1 {
				path = parts[1]
			}
			if err := f.writePNG(path); err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			fmt.Printf("Wrote %s\n", path)

		default:
			fmt.Printf("Unknown command: %s (type 'help' for available commands)\n", parts[0])
		}
	}
}

func (f *frame) press(ev touch.Event) {
	if !f.touch.TryPublish(ev) {
		fmt.Println("Touch discarded, previous one still pending")
	}
}

func (f *frame) writePNG(path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := f.fb.WritePNG(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (f *frame) printStatus() {
	p := f.power.Snapshot()
	ch := f.channel.Stats()
	c := f.carousel.Stats()

	fmt.Println("\nPower:")
	fmt.Printf("  State:      %s\n", p.State)
	fmt.Printf("  Countdown:  %d\n", p.Countdown)
	fmt.Printf("  Suspended:  carousel=%v power=%v\n", p.ConsumerSuspended, p.SelfSuspended)
	fmt.Printf("  Motions:    %d  Sleeps: %d\n", p.Motions, p.Sleeps)
	fmt.Printf("  Panel:      asleep=%v\n", f.fb.Asleep())

	fmt.Println("\nCarousel:")
	fmt.Printf("  Index:      %d/%d\n", f.carousel.Index()+1, f.catalog.Len())
	fmt.Printf("  Renders:    %d  Failures: %d\n", c.Renders, c.Failures)
	fmt.Printf("  Touches:    %d  Timeouts: %d\n", c.Touches, c.Timeouts)
	fmt.Printf("  Bad images: %d\n", f.panel.BadImages())

	fmt.Println("\nStorage:")
	fmt.Printf("  Served:     %d\n", f.worker.Served())
	fmt.Printf("  Submitted:  %d  Completed: %d\n", ch.Submitted, ch.Completed)
	fmt.Printf("  Dropped:    %d  Stale: %d\n", ch.Dropped, ch.Stale)

	if f.link != nil {
		l := f.link.Stats()
		fmt.Println("\nSensor link:")
		fmt.Printf("  Events:     %d  Discarded: %d  Unknown: %d\n", l.Events, l.Discarded, l.Unknown)
		fmt.Printf("  Frames:     %d  Resyncs: %d  Bad CRC: %d\n", l.Decoder.Frames, l.Decoder.Resyncs, l.Decoder.BadCRC)
	}
	fmt.Println()
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  l, left      - Press the left touch pad (previous image)")
	fmt.Println("  r, right     - Press the right touch pad (next image)")
	fmt.Println("  m, motion    - Fire the motion sensor")
	fmt.Println("  seed         - Write generated test images to every slot")
	fmt.Println("  format       - Force a high-level format of the volume")
	fmt.Println("  status, s    - Show power, carousel and storage counters")
	fmt.Println("  trace        - Dump the event trace")
	fmt.Println("  png [path]   - Save the panel contents as PNG")
	fmt.Println("  help, ?      - Show this help")
	fmt.Println("  quit, q      - Exit the simulator")
	fmt.Println()
}

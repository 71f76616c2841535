package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"picframe/core"
)

// opHandler serves one command. ok is the completion value; a non-nil
// error is fatal and halts the device.
type opHandler func(cmd Command) (ok bool, err error)

// opEntry is one registered operation
type opEntry struct {
	Name    string
	Handler opHandler
}

// WorkerConfig holds the worker's collaborators
type WorkerConfig struct {
	Channel  *Channel
	Medium   Medium
	Catalog  Catalog
	Shutdown *core.Shutdown
	Logger   logrus.FieldLogger
}

// Worker owns the storage medium and serves commands one at a time, FIFO
type Worker struct {
	ch       *Channel
	medium   Medium
	catalog  Catalog
	shutdown *core.Shutdown
	log      logrus.FieldLogger

	handlers map[Operation]*opEntry
	halted   bool
	served   atomic.Uint64
}

// NewWorker creates a worker. Call Run to mount the medium and start serving.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Channel == nil {
		return nil, errors.New("storage: channel required")
	}
	if cfg.Medium == nil {
		return nil, errors.New("storage: medium required")
	}
	if cfg.Catalog.Len() == 0 {
		return nil, errors.New("storage: catalog is empty")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Shutdown == nil {
		cfg.Shutdown = core.NewShutdown(nil, nil)
	}

	w := &Worker{
		ch:       cfg.Channel,
		medium:   cfg.Medium,
		catalog:  cfg.Catalog,
		shutdown: cfg.Shutdown,
		log:      cfg.Logger.WithField("task", "storage"),
		handlers: make(map[Operation]*opEntry),
	}

	w.register(OpRead, "read", w.handleRead)
	w.register(OpWrite, "write", w.handleWrite)
	w.register(OpForceFormat, "force_format", w.handleForceFormat)

	return w, nil
}

// register adds an operation handler
func (w *Worker) register(op Operation, name string, handler opHandler) {
	w.handlers[op] = &opEntry{Name: name, Handler: handler}
}

// Run mounts the medium, then serves commands until ctx ends or a fatal error halts the device
func (w *Worker) Run(ctx context.Context) error {
	if err := w.Mount(); err != nil {
		return err
	}
	return w.Serve(ctx)
}

// Mount runs the one-shot startup sequence: low-level format if required,
// high-level format if the volume is unformatted, then a volume size check.
// Every failure here is fatal.
func (w *Worker) Mount() error {
	if err := w.medium.LowLevelFormatIfRequired(); err != nil {
		return w.fatal("Error in low-level formatting", "", err)
	}

	formatted, err := w.medium.IsFormatted()
	if err != nil {
		return w.fatal("Error in checking if volume is high-level formatted", "", err)
	}
	if !formatted {
		w.log.Info("Perform high-level format")
		if err := w.medium.Format(); err != nil {
			return w.fatal("Error in high-level formatting", "", err)
		}
	}

	size, err := w.medium.VolumeSize()
	if err != nil {
		return w.fatal("Error in checking the volume size", "", err)
	}
	if size == 0 {
		return w.fatal("Error in checking the volume size", "", errors.New("volume size is 0"))
	}
	w.log.WithField("volume_kb", size/1024).Info("Volume mounted")
	return nil
}

// Serve blocks on the channel and dispatches commands until ctx ends
func (w *Worker) Serve(ctx context.Context) error {
	for {
		if w.halted {
			return ErrHalted
		}

		cmd, err := w.ch.Receive(ctx)
		if err != nil {
			return err
		}

		ok, err := w.dispatch(cmd)
		if err != nil {
			// Device is going down; the requester is never answered
			return err
		}
		w.served.Add(1)
		w.ch.Complete(cmd, ok)
	}
}

// Served returns the number of commands answered so far
func (w *Worker) Served() uint64 {
	return w.served.Load()
}

// dispatch calls the handler registered for cmd.Op.
// It returns ErrHalted if the handler hit a fatal condition.
func (w *Worker) dispatch(cmd Command) (bool, error) {
	entry, ok := w.handlers[cmd.Op]
	if !ok {
		w.log.WithField("op", cmd.Op.String()).Warn("Unknown storage operation")
		return false, nil
	}

	ok, err := entry.Handler(cmd)
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (w *Worker) handleRead(cmd Command) (bool, error) {
	name, valid := w.validate(cmd)
	if !valid {
		return false, nil
	}

	log := w.log.WithField("object", name)
	log.Debug("Opening the file for reading...")

	obj, err := w.medium.Open(name, ModeRead)
	if err != nil {
		if errors.Is(err, ErrNotExist) {
			log.Warn("Unable to read. File not found.")
		} else {
			log.WithError(err).Warn("Unable to open the file for reading")
		}
		return false, nil
	}

	size, err := obj.Size()
	if err != nil {
		return false, w.fatal("Error in getting the file size", name, err)
	}

	want := int64(cmd.Size)
	if size < want {
		log.Debugf("File size is less than %d", cmd.Size)
		want = size
	}

	log.Debugf("Reading %d bytes from the file.", want)
	if _, err := io.ReadFull(obj, cmd.Buffer[:want]); err != nil {
		return false, w.fatal("Error in reading from the file", name, err)
	}

	if err := obj.Close(); err != nil {
		return false, w.fatal("Error in closing the file", name, err)
	}
	return true, nil
}

func (w *Worker) handleWrite(cmd Command) (bool, error) {
	name, valid := w.validate(cmd)
	if !valid {
		return false, nil
	}

	log := w.log.WithField("object", name)
	log.Debug("Opening the file for writing...")

	obj, err := w.medium.Open(name, ModeWrite)
	if err != nil {
		log.WithError(err).Warn("Unable to open the file for writing!")
		return false, nil
	}

	n, err := obj.Write(cmd.Buffer[:cmd.Size])
	if err == nil && n != cmd.Size {
		err = fmt.Errorf("short write: %d of %d bytes", n, cmd.Size)
	}
	if err != nil {
		return false, w.fatal("Error in writing to the file", name, err)
	}

	log.Debug("File has been written")
	if err := obj.Close(); err != nil {
		return false, w.fatal("Error in closing the file", name, err)
	}
	return true, nil
}

func (w *Worker) handleForceFormat(cmd Command) (bool, error) {
	if err := w.medium.Format(); err != nil {
		return false, w.fatal("Error in high-level formatting", "", err)
	}
	w.log.Info("Volume force-formatted")
	return true, nil
}

// validate checks the parts of cmd that are recoverable failures
func (w *Worker) validate(cmd Command) (string, bool) {
	name, ok := w.catalog.Name(cmd.Index)
	if !ok {
		w.log.WithField("index", cmd.Index).Warn("Invalid File Index.")
		return "", false
	}
	if cmd.Size < 0 || cmd.Size > len(cmd.Buffer) {
		w.log.WithFields(logrus.Fields{
			"size":   cmd.Size,
			"buffer": len(cmd.Buffer),
		}).Warn("Requested size does not fit the buffer")
		return "", false
	}
	return name, true
}

// fatal halts the device and marks the worker halted
func (w *Worker) fatal(msg, object string, err error) error {
	ferr := &FatalError{Op: msg, Object: object, Err: err}
	w.log.WithError(err).WithField("object", object).Error("FAIL: " + msg)
	w.halted = true
	w.shutdown.Try(msg, ferr)
	return fmt.Errorf("%w: %w", ErrHalted, ferr)
}

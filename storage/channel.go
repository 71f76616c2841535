package storage

import (
	"context"
	"sync/atomic"

	"picframe/core"
)

// Completion is the worker's answer to one command
type Completion struct {
	Seq uint64
	OK  bool
}

// Requester issues a command and blocks until its completion
type Requester interface {
	Call(ctx context.Context, cmd Command) (bool, error)
}

// Ticket identifies a submitted command that has not been awaited yet
type Ticket struct {
	seq uint64
}

// ChannelStats is a snapshot of channel counters
type ChannelStats struct {
	Submitted uint64 // commands enqueued
	Completed uint64 // completions posted by the worker
	Dropped   uint64 // completions overwritten before being consumed
	Stale     uint64 // completions discarded because they answered an older command
}

// Channel is the depth-1 command queue between requesters and the storage
// worker, plus the completion mailbox back to the requester.
//
// At most one command is outstanding: Submit takes an in-flight token that
// is only returned by Await, so a second Submit blocks until the first
// command's completion has been consumed.
type Channel struct {
	queue    chan Command
	inflight chan struct{} // capacity 1
	done     *core.Mailbox[Completion]
	trace    *core.Trace

	nextSeq   atomic.Uint64
	submitted atomic.Uint64
	stale     atomic.Uint64
}

// NewChannel creates an empty channel. trace may be nil.
func NewChannel(trace *core.Trace) *Channel {
	return &Channel{
		queue:    make(chan Command, 1),
		inflight: make(chan struct{}, 1),
		done:     core.NewMailbox[Completion](),
		trace:    trace,
	}
}

// Submit enqueues cmd. It blocks while another command is in flight.
func (c *Channel) Submit(ctx context.Context, cmd Command) (Ticket, error) {
	select {
	case c.inflight <- struct{}{}:
	case <-ctx.Done():
		return Ticket{}, ctx.Err()
	}

	cmd.seq = c.nextSeq.Add(1)

	select {
	case c.queue <- cmd:
	case <-ctx.Done():
		<-c.inflight
		return Ticket{}, ctx.Err()
	}

	c.submitted.Add(1)
	c.trace.Record(core.EvtSubmit, cmd.Op.String(), uint32(cmd.seq))
	return Ticket{seq: cmd.seq}, nil
}

// Await blocks until the completion for t arrives and returns the in-flight
// token. Completions for older commands are discarded.
func (c *Channel) Await(ctx context.Context, t Ticket) (bool, error) {
	defer func() { <-c.inflight }()

	for {
		done, err := c.done.Wait(ctx)
		if err != nil {
			return false, err
		}
		if done.Seq == t.seq {
			return done.OK, nil
		}
		c.stale.Add(1)
	}
}

// Call submits cmd and waits for its completion
func (c *Channel) Call(ctx context.Context, cmd Command) (bool, error) {
	t, err := c.Submit(ctx, cmd)
	if err != nil {
		return false, err
	}
	return c.Await(ctx, t)
}

// Receive blocks until a command is available (worker side)
func (c *Channel) Receive(ctx context.Context) (Command, error) {
	select {
	case cmd := <-c.queue:
		return cmd, nil
	case <-ctx.Done():
		return Command{}, ctx.Err()
	}
}

// Complete posts the outcome of cmd to the requester (worker side).
// An unconsumed earlier completion is overwritten.
func (c *Channel) Complete(cmd Command, ok bool) {
	v := uint32(0)
	if ok {
		v = 1
	}
	if c.done.Post(Completion{Seq: cmd.seq, OK: ok}) {
		c.trace.Record(core.EvtDropped, cmd.Op.String(), uint32(cmd.seq))
	}
	c.trace.Record(core.EvtComplete, cmd.Op.String(), v)
}

// Stats returns the channel counters
func (c *Channel) Stats() ChannelStats {
	return ChannelStats{
		Submitted: c.submitted.Load(),
		Completed: c.done.Posted(),
		Dropped:   c.done.Dropped(),
		Stale:     c.stale.Load(),
	}
}

// Package dispatch drains the inbound whisper queue one message at a time
// and routes commands. Mutating commands share a single non-blocking
// exclusivity gate; read-only queries bypass it entirely.
package dispatch

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/loathers/cagebot/internal/app/cage"
	"github.com/loathers/cagebot/internal/app/diet"
	"github.com/loathers/cagebot/internal/app/explore"
	"github.com/loathers/cagebot/internal/app/ports"
	"github.com/loathers/cagebot/internal/app/replies"
	"github.com/loathers/cagebot/internal/app/status"
	"github.com/loathers/cagebot/internal/app/uncage"
	"github.com/loathers/cagebot/internal/domain/sewer"
)

// Message is one inbound whisper, with the reply channel bound to its
// sender. API is set when the command carried the ".api" suffix.
type Message struct {
	Who   sewer.Player
	Text  string
	API   bool
	Reply ports.Reply
}

// Metrics is the optional command-outcome counter; nil disables counting.
type Metrics interface {
	RecordHandled(command string)
	RecordBusy()
	RecordFailure()
}

type Dispatcher struct {
	Status  *status.UseCase
	Diet    *diet.UseCase
	Explore *explore.UseCase
	Uncage  *uncage.UseCase
	Keeper  *cage.Keeper
	Metrics Metrics

	// IdleDelay is the poll interval when the inbox is empty.
	IdleDelay time.Duration

	mu    sync.Mutex
	inbox []Message

	gate sync.Mutex
}

// Enqueue appends a message to the FIFO inbox. Safe to call from the chat
// poll goroutine while the dispatch loop is draining.
func (d *Dispatcher) Enqueue(msg Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inbox = append(d.inbox, msg)
}

func (d *Dispatcher) pop() (Message, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.inbox) == 0 {
		return Message{}, false
	}
	msg := d.inbox[0]
	d.inbox = d.inbox[1:]
	return msg, true
}

func (d *Dispatcher) idleDelay() time.Duration {
	if d.IdleDelay > 0 {
		return d.IdleDelay
	}
	return time.Second
}

// Run drains the inbox until the context is canceled: continuous drain
// while non-empty, fixed-delay poll when empty.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		msg, ok := d.pop()
		if !ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d.idleDelay()):
			}
			continue
		}
		d.Handle(ctx, msg)
	}
}

// Handle routes one message. Longer command names are matched before their
// prefixes ("status" before "cage" catches "status.api" first).
func (d *Dispatcher) Handle(ctx context.Context, msg Message) {
	log.Printf("Processing whisper from %s (#%s)", msg.Who.Name, msg.Who.ID)
	text := strings.ToLower(msg.Text)

	var err error
	switch {
	case strings.HasPrefix(text, "status.api"):
		d.maybeProbeCage(ctx)
		err = d.Status.ReportAPI(ctx, msg.Who, msg.Reply)
	case strings.HasPrefix(text, "diet.api"):
		err = d.Diet.Report(ctx, true, msg.Reply)
	case strings.HasPrefix(text, "cage.api"):
		err = d.runExclusive(ctx, msg, true, func() error {
			return d.Explore.BecomeCaged(ctx, msg.Who, msg.Text, true, msg.Reply)
		})
	case strings.HasPrefix(text, "release.api"):
		err = d.runExclusive(ctx, msg, true, func() error {
			return d.Uncage.Release(ctx, msg.Who, true, msg.Reply)
		})
	case strings.HasPrefix(text, "escape.api"):
		err = d.runExclusive(ctx, msg, true, func() error {
			return d.Uncage.Escape(ctx, msg.Who, true, msg.Reply)
		})
	case strings.HasPrefix(text, "status"):
		d.maybeProbeCage(ctx)
		err = d.Status.Report(ctx, msg.Who, msg.Reply)
	case strings.HasPrefix(text, "cage"):
		err = d.runExclusive(ctx, msg, false, func() error {
			return d.Explore.BecomeCaged(ctx, msg.Who, msg.Text, false, msg.Reply)
		})
	case strings.HasPrefix(text, "escape"):
		err = d.runExclusive(ctx, msg, false, func() error {
			return d.Uncage.Escape(ctx, msg.Who, false, msg.Reply)
		})
	case strings.HasPrefix(text, "release"):
		err = d.runExclusive(ctx, msg, false, func() error {
			return d.Uncage.Release(ctx, msg.Who, false, msg.Reply)
		})
	case strings.HasPrefix(text, "help"):
		err = d.Status.Help(ctx, msg.Reply)
	case strings.HasPrefix(text, "diet"):
		err = d.Diet.Report(ctx, false, msg.Reply)
	default:
		err = d.Status.DidntUnderstand(ctx, msg.Who, msg.Reply)
	}

	switch {
	case errors.Is(err, ports.ErrBusy):
		if d.Metrics != nil {
			d.Metrics.RecordBusy()
		}
	case err != nil:
		if d.Metrics != nil {
			d.Metrics.RecordFailure()
		}
		log.Printf("Handling %q from %s (#%s) failed: %v", text, msg.Who.Name, msg.Who.ID, err)
	default:
		if d.Metrics != nil {
			command, _, _ := strings.Cut(text, " ")
			d.Metrics.RecordHandled(strings.TrimSuffix(command, ".api"))
		}
	}
}

// runExclusive runs a mutating command under the gate. Contention is not
// queued: callers get a busy reply and must re-request.
func (d *Dispatcher) runExclusive(ctx context.Context, msg Message, api bool, fn func() error) error {
	if d.Keeper.Busy() || !d.gate.TryLock() {
		text := "Sorry, I am currently busy processing a request. Please wait, or send a status request."
		if api {
			text = replies.NotifyJSON(replies.StatusBusy, "already_in_use")
		}
		if err := msg.Reply(ctx, text); err != nil {
			return err
		}
		return ports.ErrBusy
	}
	defer d.gate.Unlock()
	return fn()
}

// maybeProbeCage runs the rate-limited third-party uncage check when a
// status query arrives while we believe ourselves caged and idle.
func (d *Dispatcher) maybeProbeCage(ctx context.Context) {
	if !d.Keeper.ShouldProbe() || !d.gate.TryLock() {
		return
	}
	defer d.gate.Unlock()
	if err := d.Keeper.RefreshCagedState(ctx); err != nil {
		log.Printf("Third-party uncage probe failed: %v", err)
	}
}

package bookauth

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
)

// mailOutbox is the fire-and-forget dispatch path for notifications. The
// request goroutine only enqueues; one worker drains the buffer and calls
// the Mailer. Send failures are logged and counted, never surfaced to the
// authentication caller, so a slow or failing gateway cannot stall login
// or signup responses.
type mailOutbox struct {
	cfg       OutboxConfig
	mailer    Mailer
	ch        chan Message
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	failed    atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

func newMailOutbox(cfg OutboxConfig, mailer Mailer) *mailOutbox {
	if mailer == nil {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}

	o := &mailOutbox{
		cfg:    cfg,
		mailer: mailer,
		ch:     make(chan Message, cfg.BufferSize),
		done:   make(chan struct{}),
	}

	o.wg.Add(1)
	go o.run()

	return o
}

func (o *mailOutbox) run() {
	defer o.wg.Done()

	for {
		select {
		case msg := <-o.ch:
			o.deliver(msg)
		case <-o.done:
			for {
				select {
				case msg := <-o.ch:
					o.deliver(msg)
				default:
					return
				}
			}
		}
	}
}

func (o *mailOutbox) deliver(msg Message) {
	if err := o.mailer.Send(context.Background(), msg); err != nil {
		o.failed.Add(1)
		log.Printf("bookauth: mail delivery failed for message %s", msg.ID)
	}
}

// Enqueue submits a message without waiting for delivery. When the buffer
// is full and DropIfFull is set, the message is dropped and counted; the
// user can always request a resend.
func (o *mailOutbox) Enqueue(ctx context.Context, msg Message) {
	if o == nil || o.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if o.cfg.DropIfFull {
		select {
		case o.ch <- msg:
		case <-o.done:
		default:
			o.dropped.Add(1)
		}
		return
	}

	select {
	case o.ch <- msg:
	case <-ctx.Done():
	case <-o.done:
	}
}

func (o *mailOutbox) Close() {
	if o == nil {
		return
	}
	o.closeOnce.Do(func() {
		o.closed.Store(true)
		close(o.done)
		o.wg.Wait()
	})
}

func (o *mailOutbox) Dropped() uint64 {
	if o == nil {
		return 0
	}
	return o.dropped.Load()
}

func (o *mailOutbox) Failed() uint64 {
	if o == nil {
		return 0
	}
	return o.failed.Load()
}

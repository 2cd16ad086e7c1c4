package progress

import (
	"context"
	"errors"
	"math"
	"sync"
)

const defaultBuffer = 32

// Channel is the producer side of an event stream. It is safe for concurrent
// use; the first terminal call wins and later calls are ignored.
type Channel struct {
	mu       sync.Mutex
	ch       chan Event
	closed   bool
	fraction float64
}

// NewChannel creates a channel with the given buffer size.
func NewChannel(buffer int) *Channel {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Channel{ch: make(chan Event, buffer)}
}

// Events returns the receive side.
func (c *Channel) Events() <-chan Event {
	return c.ch
}

// Fraction returns the last fraction published.
func (c *Channel) Fraction() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fraction
}

// Closed reports whether a terminal event has been sent.
func (c *Channel) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Progress publishes a completion fraction. It returns false once the
// channel is closed.
func (c *Channel) Progress(fraction float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.fraction = c.advance(fraction)
	return c.trySend(Event{Kind: KindProgress, Fraction: c.fraction})
}

// Transfer publishes byte-level progress. With a known total the fraction is
// done/total; otherwise only the raw byte count changes.
func (c *Channel) Transfer(done, total int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	if total > 0 {
		c.fraction = c.advance(float64(done) / float64(total))
	} else {
		total = 0
	}
	return c.trySend(Event{Kind: KindProgress, Fraction: c.fraction, Bytes: done, Total: total})
}

// Succeed sends the success terminal event and closes the channel.
func (c *Channel) Succeed(outputPath string) bool {
	return c.finish(Event{Kind: KindSuccess, Fraction: 1, OutputPath: outputPath})
}

// Fail sends a failure terminal event whose message is err's text.
func (c *Channel) Fail(err error) bool {
	if err == nil {
		err = errors.New("unknown failure")
	}
	return c.FailMessage(err.Error(), err)
}

// FailMessage sends a failure terminal event with an explicit message.
func (c *Channel) FailMessage(message string, err error) bool {
	return c.finish(Event{Kind: KindFailure, Message: message, Err: err})
}

// Cancelled sends the cancellation terminal event.
func (c *Channel) Cancelled() bool {
	return c.finish(Event{Kind: KindCancelled, Message: "cancelled"})
}

func (c *Channel) finish(ev Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.closed = true
	if ev.Kind != KindSuccess {
		ev.Fraction = c.fraction
	}
	// Never blocks: the oldest pending progress update is discarded when the
	// buffer is full.
	for {
		select {
		case c.ch <- ev:
			close(c.ch)
			return true
		default:
		}
		select {
		case <-c.ch:
		default:
		}
	}
}

func (c *Channel) advance(fraction float64) float64 {
	if math.IsNaN(fraction) {
		return c.fraction
	}
	fraction = max(0, min(1, fraction))
	return max(fraction, c.fraction)
}

// trySend never blocks. With a full buffer the oldest pending update is
// discarded so the newest fraction always reaches the consumer. Callers hold
// c.mu, so only progress events can be pending.
func (c *Channel) trySend(ev Event) bool {
	for {
		select {
		case c.ch <- ev:
			return true
		default:
		}
		select {
		case <-c.ch:
		default:
		}
	}
}

// Forward drains events into deliver until the stream ends or ctx is done. It
// returns the terminal event, or a zero Event and ctx's error when the context
// ends first. UIs wrap deliver to hop onto their own thread.
func Forward(ctx context.Context, events <-chan Event, deliver func(Event)) (Event, error) {
	for {
		select {
		case <-ctx.Done():
			return Event{}, ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return Event{}, errors.New("progress stream closed without a terminal event")
			}
			if deliver != nil {
				deliver(ev)
			}
			if ev.Terminal() {
				return ev, nil
			}
		}
	}
}

package cart

import (
	"context"
	log "github.com/sirupsen/logrus"
	"sync/atomic"
	"time"
)

// flusher coalesces snapshot writes: each schedule call restarts the delay,
// and one write happens once the delay passes without another schedule.
type flusher struct {
	delay  time.Duration
	write  func(ctx context.Context) error
	logger *log.Entry

	dirty   atomic.Bool
	kick    chan struct{}
	flushes chan flushRequest
	done    chan struct{}
	stopped chan struct{}
}

type flushRequest struct {
	ctx   context.Context
	reply chan error
}

func newFlusher(delay time.Duration, write func(ctx context.Context) error, logger *log.Entry) *flusher {
	f := &flusher{
		delay:   delay,
		write:   write,
		logger:  logger,
		kick:    make(chan struct{}, 1),
		flushes: make(chan flushRequest),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go f.run()
	return f
}

func (f *flusher) schedule() {
	f.dirty.Store(true)
	select {
	case f.kick <- struct{}{}:
	default:
	}
}

func (f *flusher) flush(ctx context.Context) error {
	req := flushRequest{ctx: ctx, reply: make(chan error, 1)}

	select {
	case f.flushes <- req:
	case <-f.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close flushes and stops the loop. Must be called once.
func (f *flusher) close(ctx context.Context) error {
	err := f.flush(ctx)
	close(f.done)
	<-f.stopped
	return err
}

func (f *flusher) run() {
	defer close(f.stopped)

	timer := time.NewTimer(f.delay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-f.kick:
			timer.Reset(f.delay)
		case <-timer.C:
			if err := f.writePending(context.Background()); err != nil {
				f.logger.WithError(err).Error("debounced cart snapshot write failed")
			}
		case req := <-f.flushes:
			timer.Stop()
			req.reply <- f.writePending(req.ctx)
		case <-f.done:
			return
		}
	}
}

func (f *flusher) writePending(ctx context.Context) error {
	if !f.dirty.Swap(false) {
		return nil
	}
	if err := f.write(ctx); err != nil {
		f.dirty.Store(true)
		return err
	}
	return nil
}

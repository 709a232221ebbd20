package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	contribsse "github.com/gin-contrib/sse"

	goerrors "github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/flow"
	"github.com/kbukum/flowkit/logger"
)

// DefaultKeepAlive is the interval between keep-alive comments. It stays below
// the idle timeout of common proxies.
const DefaultKeepAlive = 15 * time.Second

// Encoder renders one value as the data of an SSE event.
type Encoder[T any] func(T) (string, error)

// JSON encodes values with encoding/json.
func JSON[T any](v T) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Text encodes values with fmt.Sprint.
func Text[T any](v T) (string, error) {
	return fmt.Sprint(v), nil
}

type options struct {
	keepAlive time.Duration
	event     string
	retry     uint
	ids       bool
}

// Option configures Stream.
type Option func(*options)

// WithKeepAlive sets the keep-alive interval. d <= 0 disables keep-alives.
func WithKeepAlive(d time.Duration) Option {
	return func(o *options) { o.keepAlive = d }
}

// WithEventName sets the event name of value frames.
func WithEventName(name string) Option {
	return func(o *options) { o.event = name }
}

// WithRetry advertises the client reconnection delay.
func WithRetry(d time.Duration) Option {
	return func(o *options) { o.retry = uint(d.Milliseconds()) }
}

// WithoutIDs omits the id field of value frames.
func WithoutIDs() Option {
	return func(o *options) { o.ids = false }
}

// Stream collects f once and writes every value to w as an SSE event,
// followed by a complete or error frame. Cancelling ctx, which for HTTP
// handlers happens when the client disconnects, cancels the collection; the
// stream then ends without a terminal frame and Stream returns nil.
//
// The returned error is the flow's failure, or a failure to write to w.
func Stream[T any](ctx context.Context, w http.ResponseWriter, f *flow.Flow[T], encode Encoder[T], opts ...Option) error {
	o := options{keepAlive: DefaultKeepAlive, event: EventMessage, ids: true}
	for _, opt := range opts {
		opt(&o)
	}
	log := logger.Get("sse").WithContext(ctx)

	flusher, ok := w.(http.Flusher)
	if !ok {
		err := goerrors.New(goerrors.ErrCodeInternal, "Streaming is not supported by the response writer.", http.StatusInternalServerError)
		http.Error(w, err.Message, err.HTTPStatus)
		return err
	}
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		log.Debug("could not lift write deadline", logger.Fields(logger.FieldError, err.Error()))
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	sw := &frameWriter{w: w, flusher: flusher}
	if o.retry > 0 {
		if err := sw.raw(fmt.Sprintf("retry:%d\n\n", o.retry)); err != nil {
			return err
		}
	} else {
		flusher.Flush()
	}

	stop := sw.keepAlive(o.keepAlive)
	var count int
	var writeErr error
	err := flow.Run(ctx, f, flow.Collector[T]{OnValue: func(_ context.Context, v T) error {
		data, err := encode(v)
		if err != nil {
			return err
		}
		ev := contribsse.Event{Event: o.event, Data: data}
		if o.ids {
			ev.Id = strconv.Itoa(count)
		}
		count++
		if err := sw.event(ev); err != nil {
			writeErr = err
			return err
		}
		return nil
	}})
	stop()

	switch {
	case ctx.Err() != nil:
		log.Debug("stream cancelled", logger.Fields(logger.FieldCount, count))
		return nil
	case writeErr != nil:
		log.Debug("stream write failed", logger.Fields(logger.FieldError, writeErr.Error()))
		return writeErr
	case err != nil:
		payload, _ := json.Marshal(goerrors.Normalize(err).ToResponse())
		if werr := sw.event(contribsse.Event{Event: EventError, Data: string(payload)}); werr != nil {
			return werr
		}
		return err
	}
	payload, _ := json.Marshal(CompleteEvent{Count: count})
	return sw.event(contribsse.Event{Event: EventComplete, Data: string(payload)})
}

// frameWriter serializes frames from the collector and the keep-alive ticker.
type frameWriter struct {
	mu      sync.Mutex
	w       io.Writer
	flusher http.Flusher
	err     error
}

func (fw *frameWriter) event(ev contribsse.Event) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.err != nil {
		return fw.err
	}
	if err := contribsse.Encode(fw.w, ev); err != nil {
		fw.err = err
		return err
	}
	fw.flusher.Flush()
	return nil
}

func (fw *frameWriter) raw(s string) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.err != nil {
		return fw.err
	}
	if _, err := io.WriteString(fw.w, s); err != nil {
		fw.err = err
		return err
	}
	fw.flusher.Flush()
	return nil
}

// keepAlive writes comments every d until the returned stop is called.
// stop waits for the ticker goroutine to exit.
func (fw *frameWriter) keepAlive(d time.Duration) (stop func()) {
	if d <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if fw.raw(keepAliveComment) != nil {
					return
				}
			}
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}

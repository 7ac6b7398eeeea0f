package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	sse "github.com/tmaxmax/go-sse"

	"github.com/five82/scribe/internal/notes"
)

const (
	subscriptionBuffer = 16
	maxEventSize       = 1 << 20
)

// SubscribeOnCreate opens the server-sent event stream of created notes.
// The stream stays open until Close is called or ctx ends.
func (c *Client) SubscribeOnCreate(ctx context.Context) (Subscription, error) {
	streamCtx, cancel := context.WithCancel(ctx)

	rel := &url.URL{Path: eventsPath}
	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, c.baseURL.ResolveReference(rel).String(), nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.stream.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open event stream: %w", err)
	}
	if err := statusError(rel.Path, resp.StatusCode); err != nil {
		_ = resp.Body.Close()
		cancel()
		return nil, err
	}

	sub := &streamSubscription{
		ctx:    streamCtx,
		cancel: cancel,
		body:   resp.Body,
		out:    make(chan notes.Note, subscriptionBuffer),
		done:   make(chan struct{}),
	}
	go sub.run()
	return sub, nil
}

type streamSubscription struct {
	ctx    context.Context
	cancel context.CancelFunc
	body   io.ReadCloser
	out    chan notes.Note
	done   chan struct{}
	once   sync.Once
}

func (s *streamSubscription) Notes() <-chan notes.Note { return s.out }

// Close ends the stream and waits for the reader to exit.
func (s *streamSubscription) Close() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		err = s.body.Close()
	})
	<-s.done
	return err
}

func (s *streamSubscription) run() {
	defer close(s.done)
	defer close(s.out)
	_ = readNotes(s.body, func(note notes.Note) bool {
		select {
		case s.out <- note:
			return true
		case <-s.ctx.Done():
			return false
		}
	})
}

// readNotes decodes the note carried by each event of the stream. Events whose
// data is not a note are skipped. emit returning false stops the read.
func readNotes(r io.Reader, emit func(notes.Note) bool) error {
	for ev, err := range sse.Read(r, &sse.ReadConfig{MaxEventSize: maxEventSize}) {
		if err != nil {
			return fmt.Errorf("read event stream: %w", err)
		}
		var note notes.Note
		if err := json.Unmarshal([]byte(ev.Data), &note); err != nil || note.ID == "" {
			continue
		}
		if !emit(note) {
			return nil
		}
	}
	return nil
}

package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/five82/scribe/internal/notes"
	"github.com/five82/scribe/internal/remote"
)

var (
	// ErrClosed is returned by intents issued after Close or after the start
	// context ended.
	ErrClosed = errors.New("sync core closed")
	// ErrNotStarted is returned by intents issued before Start.
	ErrNotStarted = errors.New("sync core not started")
)

const (
	defaultPlaceholder  = "Hi there!"
	defaultWriteTimeout = 10 * time.Second
)

// Options configure a Core.
type Options struct {
	Origin               notes.OriginTag
	Remote               remote.Store
	Logger               log.FieldLogger
	Placeholder          string // name of the seeded note; empty uses "Hi there!"
	RollbackOnWriteError bool
	WriteTimeout         time.Duration
	NewID                func() string // nil uses notes.NewID
}

// Core owns the canonical note list. All mutations run on one event loop
// goroutine; network calls run beside it and hand their results back to the
// loop, so no two steps ever touch the list at the same time.
type Core struct {
	origin          notes.OriginTag
	remote          remote.Store
	log             log.FieldLogger
	rollback        bool
	writeTimeout    time.Duration
	newID           func() string
	placeholderName string

	lifecycle sync.Mutex
	started   atomic.Bool
	closed    bool
	ctx       context.Context
	cancel    context.CancelFunc
	ops       chan func()
	stopped   chan struct{}
	wg        sync.WaitGroup
	sub       remote.Subscription

	mu   sync.RWMutex
	snap Snapshot

	broker *broker

	// Owned by the loop goroutine.
	list         []notes.Note
	phase        Phase
	fetchErr     error
	lastWriteErr error
	failedWrites int
	placeholder  string
	deleted      map[string]struct{}
	writes       map[string]uint64
	inflight     map[string]chan struct{} // done channel of the last write issued per note
	writeSeq     uint64
	version      uint64
}

// New builds a Core. Start must be called before any intent.
func New(opts Options) (*Core, error) {
	if opts.Remote == nil {
		return nil, fmt.Errorf("sync core requires a remote store")
	}
	if opts.Origin == "" {
		return nil, fmt.Errorf("sync core requires an origin tag")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	newID := opts.NewID
	if newID == nil {
		newID = notes.NewID
	}
	timeout := opts.WriteTimeout
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}
	placeholder := opts.Placeholder
	if placeholder == "" {
		placeholder = defaultPlaceholder
	}
	return &Core{
		origin:          opts.Origin,
		remote:          opts.Remote,
		log:             logger.WithField("origin", string(opts.Origin)),
		rollback:        opts.RollbackOnWriteError,
		writeTimeout:    timeout,
		newID:           newID,
		placeholderName: placeholder,
		ops:             make(chan func()),
		stopped:         make(chan struct{}),
		broker:          newBroker(),
		deleted:         make(map[string]struct{}),
		writes:          make(map[string]uint64),
		inflight:        make(map[string]chan struct{}),
	}, nil
}

// Origin returns the tag stamped on notes this instance creates.
func (c *Core) Origin() notes.OriginTag {
	return c.origin
}

// Start publishes the placeholder snapshot, opens the push subscription and
// issues the one bulk fetch. It returns without waiting for the network.
func (c *Core) Start(ctx context.Context) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.started.Load() {
		return fmt.Errorf("sync core already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)

	seed := notes.Note{ID: c.newID(), Name: c.placeholderName}
	c.placeholder = seed.ID
	c.list = []notes.Note{seed}
	c.phase = PhaseLoading
	c.publish()

	sub, err := c.remote.SubscribeOnCreate(c.ctx)
	if err != nil {
		c.log.WithError(err).Warn("push subscription unavailable; changes from other clients will not appear")
	} else {
		c.sub = sub
		c.wg.Add(1)
		go c.forward(sub)
	}

	c.wg.Add(1)
	go c.fetch()

	go c.loop()
	c.started.Store(true)
	return nil
}

// Close stops the loop and releases the push subscription. Writes already
// issued are allowed to finish; their results are dropped. Safe to call more
// than once.
func (c *Core) Close() error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if !c.started.Load() {
		return nil
	}

	c.cancel()
	<-c.stopped

	var err error
	if c.sub != nil {
		if cerr := c.sub.Close(); cerr != nil {
			err = fmt.Errorf("close subscription: %w", cerr)
		}
	}
	c.wg.Wait()
	return err
}

// Snapshot returns a copy of the current state.
func (c *Core) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := c.snap
	snap.Notes = notes.Clone(c.snap.Notes)
	return snap
}

// Subscribe returns a channel signalled after every published change and a
// function that cancels the subscription.
func (c *Core) Subscribe() (<-chan struct{}, func()) {
	ch := c.broker.subscribe()
	return ch, func() { c.broker.unsubscribe(ch) }
}

func (c *Core) loop() {
	defer close(c.stopped)
	for {
		select {
		case <-c.ctx.Done():
			return
		case op := <-c.ops:
			op()
		}
	}
}

// do runs fn on the loop and waits for it to finish.
func (c *Core) do(fn func()) error {
	if !c.started.Load() {
		return ErrNotStarted
	}
	done := make(chan struct{})
	select {
	case c.ops <- func() { fn(); close(done) }:
	case <-c.stopped:
		return ErrClosed
	}
	<-done
	return nil
}

// post queues fn on the loop without waiting for it to run.
func (c *Core) post(fn func()) error {
	select {
	case c.ops <- fn:
		return nil
	case <-c.stopped:
		return ErrClosed
	}
}

func (c *Core) fetch() {
	defer c.wg.Done()
	items, err := c.remote.List(c.ctx)
	_ = c.post(func() { c.applyFetch(items, err) })
}

func (c *Core) forward(sub remote.Subscription) {
	defer c.wg.Done()
	for {
		select {
		case <-c.ctx.Done():
			return
		case note, ok := <-sub.Notes():
			if !ok {
				if c.ctx.Err() == nil {
					c.log.Warn("push subscription ended")
				}
				return
			}
			if c.post(func() { c.applyRemoteEvent(note) }) != nil {
				return
			}
		}
	}
}

// goWrite issues a remote write beside the loop. Writes for the same note
// reach the store one at a time in the order they were issued; each waits for
// the previous one to return before it starts. Once issued a write is not
// cancelled; it runs until it returns or the write timeout expires.
func (c *Core) goWrite(op, id string, gen uint64, call func(context.Context) error, undo func()) {
	prev := c.inflight[id]
	done := make(chan struct{})
	c.inflight[id] = done

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if prev != nil {
			<-prev
		}
		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.ctx), c.writeTimeout)
		err := call(ctx)
		cancel()
		close(done)
		_ = c.post(func() {
			if c.inflight[id] == done {
				delete(c.inflight, id)
			}
			c.finishWrite(op, id, gen, err, undo)
		})
	}()
}

func (c *Core) publish() {
	c.version++
	snap := Snapshot{
		Notes:        c.list,
		Phase:        c.phase,
		Err:          c.fetchErr,
		LastWriteErr: c.lastWriteErr,
		FailedWrites: c.failedWrites,
		Version:      c.version,
	}
	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()
	c.broker.notify()
}

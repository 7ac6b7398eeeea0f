package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/five82/scribe/internal/notes"
	"github.com/five82/scribe/internal/remote"
)

const (
	defaultKeyPrefix = "scribe:"
	subscribeBuffer  = 64
	maxWatchRetries  = 5
)

var _ remote.Store = (*Store)(nil)

// createScript stores, orders and announces a note in one step. LPUSH runs
// before HSET so a failing order list leaves the hash untouched.
var createScript = redis.NewScript(`
if redis.call("HEXISTS", KEYS[1], ARGV[1]) == 1 then
	return 0
end
redis.call("LPUSH", KEYS[2], ARGV[1])
redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
redis.call("PUBLISH", KEYS[3], ARGV[2])
return 1
`)

// Options describe how to reach Redis.
type Options struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// Store keeps notes in Redis and announces creates over Pub/Sub.
type Store struct {
	client *redis.Client
	log    log.FieldLogger

	notesKey   string
	orderKey   string
	createdKey string
}

// Open connects to Redis and verifies the connection with PING.
func Open(ctx context.Context, opts Options, logger log.FieldLogger) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opts.Addr, err)
	}
	return New(client, opts.KeyPrefix, logger), nil
}

// New wraps an existing client. An empty prefix uses "scribe:".
func New(client *redis.Client, prefix string, logger log.FieldLogger) *Store {
	if strings.TrimSpace(prefix) == "" {
		prefix = defaultKeyPrefix
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Store{
		client:     client,
		log:        logger.WithField("component", "redisstore"),
		notesKey:   prefix + "notes",
		orderKey:   prefix + "order",
		createdKey: prefix + "created",
	}
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// List returns notes newest first. Ids in the order list without a stored
// note are skipped.
func (s *Store) List(ctx context.Context) ([]notes.Note, error) {
	ids, err := s.client.LRange(ctx, s.orderKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read note order: %w", err)
	}
	if len(ids) == 0 {
		return []notes.Note{}, nil
	}
	values, err := s.client.HMGet(ctx, s.notesKey, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("read notes: %w", err)
	}

	items := make([]notes.Note, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var n notes.Note
		if err := sonic.Unmarshal([]byte(raw), &n); err != nil {
			s.log.WithError(err).WithField("note", ids[i]).Warn("skipping unreadable note")
			continue
		}
		items = append(items, n)
	}
	return items, nil
}

// Create stores note and publishes it. A reused id yields remote.ErrConflict.
func (s *Store) Create(ctx context.Context, note notes.Note) error {
	if note.ID == "" {
		return fmt.Errorf("create note: id is required")
	}
	data, err := sonic.Marshal(note)
	if err != nil {
		return fmt.Errorf("encode note: %w", err)
	}
	keys := []string{s.notesKey, s.orderKey, s.createdKey}
	added, err := createScript.Run(ctx, s.client, keys, note.ID, data).Int()
	if err != nil {
		return fmt.Errorf("store note %s: %w", note.ID, err)
	}
	if added == 0 {
		return fmt.Errorf("create %s: %w", note.ID, remote.ErrConflict)
	}
	return nil
}

// Delete removes the note with id.
func (s *Store) Delete(ctx context.Context, id string) error {
	var removed *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.HDel(ctx, s.notesKey, id)
		pipe.LRem(ctx, s.orderKey, 0, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete note %s: %w", id, err)
	}
	if removed.Val() == 0 {
		return fmt.Errorf("delete %s: %w", id, remote.ErrNotFound)
	}
	return nil
}

// Update applies patch with an optimistic WATCH transaction, retrying when a
// concurrent writer touches the hash.
func (s *Store) Update(ctx context.Context, id string, patch notes.Patch) error {
	txf := func(tx *redis.Tx) error {
		raw, err := tx.HGet(ctx, s.notesKey, id).Result()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("update %s: %w", id, remote.ErrNotFound)
		}
		if err != nil {
			return err
		}
		var n notes.Note
		if err := sonic.Unmarshal([]byte(raw), &n); err != nil {
			return fmt.Errorf("decode note %s: %w", id, err)
		}
		data, err := sonic.Marshal(patch.Apply(n))
		if err != nil {
			return fmt.Errorf("encode note %s: %w", id, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, s.notesKey, id, data)
			return nil
		})
		return err
	}

	for range maxWatchRetries {
		err := s.client.Watch(ctx, txf, s.notesKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil && !errors.Is(err, remote.ErrNotFound) {
			return fmt.Errorf("update note %s: %w", id, err)
		}
		return err
	}
	return fmt.Errorf("update note %s: too much contention", id)
}

// SubscribeOnCreate subscribes to the created channel. The subscription is
// confirmed by Redis before this returns, so no create published afterwards
// is missed.
func (s *Store) SubscribeOnCreate(ctx context.Context) (remote.Subscription, error) {
	ps := s.client.Subscribe(ctx, s.createdKey)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", s.createdKey, err)
	}

	sub := &subscription{
		ps:   ps,
		log:  s.log,
		out:  make(chan notes.Note, subscribeBuffer),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go sub.run(ctx, ps.Channel())
	return sub, nil
}

type subscription struct {
	ps   *redis.PubSub
	log  log.FieldLogger
	out  chan notes.Note
	stop chan struct{}
	done chan struct{}

	once sync.Once
	err  error
}

func (s *subscription) Notes() <-chan notes.Note { return s.out }

func (s *subscription) Close() error {
	s.once.Do(func() {
		close(s.stop)
		s.err = s.ps.Close()
	})
	<-s.done
	return s.err
}

func (s *subscription) run(ctx context.Context, msgs <-chan *redis.Message) {
	defer close(s.done)
	defer close(s.out)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var n notes.Note
			if err := sonic.Unmarshal([]byte(msg.Payload), &n); err != nil || n.ID == "" {
				s.log.WithField("payload", msg.Payload).Warn("skipping malformed create event")
				continue
			}
			select {
			case s.out <- n:
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			}
		}
	}
}

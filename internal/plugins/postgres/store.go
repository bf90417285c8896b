package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"ghostsignal/internal/core/contracts"
	"ghostsignal/internal/core/domain"
)

// Store is the remote message backend: postgres holds the bounded log, the
// change notifier fans writes out so every instance refreshes its local
// subscribers. Send returns only after the insert (and any eviction) has
// committed.
type Store struct {
	db       *sql.DB
	capacity int
	notifier contracts.ChangeNotifier
	log      *slog.Logger

	notifyMu sync.Mutex
	mu       sync.Mutex
	subs     map[int]*subscriber
	nextSub  int
	evictFns []func(id string)
}

type subscriber struct {
	fn     func([]domain.Message)
	closed bool
}

func NewStore(log *slog.Logger, db *sql.DB, capacity int, notifier contracts.ChangeNotifier) *Store {
	if capacity <= 0 {
		capacity = 50
	}
	return &Store{
		db:       db,
		capacity: capacity,
		notifier: notifier,
		log:      log,
		subs:     make(map[int]*subscriber),
	}
}

// Start opens the change-event subscription. Every event, including this
// instance's own writes, triggers a snapshot reload and fan-out, which is
// what keeps all instances' subscribers in step.
func (s *Store) Start(ctx context.Context) error {
	return s.notifier.Listen(ctx, func(evt contracts.ChangeEvent) {
		if evt.Op == contracts.ChangeEvict {
			s.mu.Lock()
			fns := append([]func(string){}, s.evictFns...)
			s.mu.Unlock()
			for _, fn := range fns {
				fn(evt.ID)
			}
			return
		}
		snap, err := s.Snapshot(ctx)
		if err != nil {
			s.log.ErrorContext(ctx, "store - change event - snapshot reload failed", "op", evt.Op, "err", err)
			return
		}
		s.notifyMu.Lock()
		s.deliver(snap)
		s.notifyMu.Unlock()
	})
}

func (s *Store) Send(ctx context.Context, msg domain.Message) error {
	var evicted []string
	err := withTx(ctx, s.db, func(txCtx context.Context) error {
		exec := GetExecutor(txCtx, s.db)
		var blur, duration any
		if msg.BlurLevel != nil {
			blur = *msg.BlurLevel
		}
		if msg.Duration != nil {
			duration = *msg.Duration
		}
		var media any
		if msg.MediaURL != "" {
			media = msg.MediaURL
		}
		if _, err := exec.ExecContext(txCtx, `
			INSERT INTO messages (id, sender_id, type, content, ts, ephemeral, viewed, media_url, blur_level, duration_ms)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, msg.ID, msg.SenderID, string(msg.Type), msg.Content, msg.Timestamp, msg.Ephemeral, msg.Viewed, media, blur, duration); err != nil {
			return err
		}
		// Trim to the window inside the same transaction so the bound
		// holds for every reader.
		rows, err := exec.QueryContext(txCtx, `
			DELETE FROM messages WHERE seq IN (
				SELECT seq FROM messages ORDER BY ts DESC, seq DESC OFFSET $1
			) RETURNING id
		`, s.capacity)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return err
			}
			evicted = append(evicted, id)
		}
		return rows.Err()
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	// The append is durable; notification failures degrade liveness, not
	// correctness, so they are logged and not surfaced.
	for _, id := range evicted {
		if err := s.notifier.Publish(ctx, contracts.ChangeEvent{Op: contracts.ChangeEvict, ID: id}); err != nil {
			s.log.ErrorContext(ctx, "store - send - publish evict failed", "message_id", id, "err", err)
		}
	}
	if err := s.notifier.Publish(ctx, contracts.ChangeEvent{Op: contracts.ChangeAppend, ID: msg.ID}); err != nil {
		s.log.ErrorContext(ctx, "store - send - publish append failed", "message_id", msg.ID, "err", err)
	}
	return nil
}

func (s *Store) Snapshot(ctx context.Context) ([]domain.Message, error) {
	exec := GetExecutor(ctx, s.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT id, sender_id, type, content, ts, ephemeral, viewed, media_url, blur_level, duration_ms
		FROM messages ORDER BY ts DESC, seq DESC LIMIT $1
	`, s.capacity)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	defer rows.Close()
	var msgs []domain.Message
	for rows.Next() {
		var m domain.Message
		var typ string
		var media sql.NullString
		var blur, duration sql.NullInt64
		if err := rows.Scan(&m.ID, &m.SenderID, &typ, &m.Content, &m.Timestamp, &m.Ephemeral, &m.Viewed, &media, &blur, &duration); err != nil {
			return nil, err
		}
		m.Type = domain.MessageType(typ)
		if media.Valid {
			m.MediaURL = media.String
		}
		if blur.Valid {
			lvl := int(blur.Int64)
			m.BlurLevel = &lvl
		}
		if duration.Valid {
			d := duration.Int64
			m.Duration = &d
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Newest-first from the query; oldest-first on the contract.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (s *Store) Mutate(ctx context.Context, id string, patch domain.MessagePatch) error {
	set := make([]string, 0, 6)
	args := make([]any, 0, 6)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if patch.Type != nil {
		set = append(set, "type = "+arg(string(*patch.Type)))
	}
	if patch.Content != nil {
		set = append(set, "content = "+arg(*patch.Content))
	}
	if patch.Viewed != nil {
		set = append(set, "viewed = "+arg(*patch.Viewed))
	}
	if patch.BlurLevel != nil {
		set = append(set, "blur_level = "+arg(*patch.BlurLevel))
	}
	if patch.ClearBlur {
		set = append(set, "blur_level = NULL")
	}
	if patch.ClearMedia {
		set = append(set, "media_url = NULL")
	}
	if len(set) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
		UPDATE messages SET %s
		WHERE seq = (SELECT seq FROM messages WHERE id = %s ORDER BY seq DESC LIMIT 1)
	`, strings.Join(set, ", "), arg(id))
	exec := GetExecutor(ctx, s.db)
	res, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		// Scrolled out of the window; defined as a no-op.
		return nil
	}
	if err := s.notifier.Publish(ctx, contracts.ChangeEvent{Op: contracts.ChangeMutate, ID: id}); err != nil {
		s.log.ErrorContext(ctx, "store - mutate - publish failed", "message_id", id, "err", err)
	}
	return nil
}

func (s *Store) Subscribe(ctx context.Context, fn func([]domain.Message)) (domain.Unsubscribe, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	s.notifyMu.Lock()
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	sub := &subscriber{fn: fn}
	s.subs[id] = sub
	s.mu.Unlock()
	fn(snap)
	s.notifyMu.Unlock()

	unsub := func() {
		s.mu.Lock()
		sub.closed = true
		delete(s.subs, id)
		s.mu.Unlock()
	}
	return unsub, nil
}

func (s *Store) OnEvict(fn func(id string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictFns = append(s.evictFns, fn)
}

// deliver fans a snapshot out, re-checking each subscriber's closed flag at
// delivery time. Callers hold notifyMu.
func (s *Store) deliver(snap []domain.Message) {
	s.mu.Lock()
	targets := make([]*subscriber, 0, len(s.subs))
	for _, sub := range s.subs {
		targets = append(targets, sub)
	}
	s.mu.Unlock()

	for _, sub := range targets {
		s.mu.Lock()
		closed := sub.closed
		s.mu.Unlock()
		if closed {
			continue
		}
		sub.fn(append([]domain.Message(nil), snap...))
	}
}

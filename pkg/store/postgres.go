package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voxwire-ai/voxwire/pkg/orchestrator"
)

const schema = `
CREATE TABLE IF NOT EXISTS call_sessions (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	call_sid TEXT UNIQUE NOT NULL,
	stream_sid TEXT,
	direction TEXT NOT NULL DEFAULT 'inbound',
	from_number TEXT,
	to_number TEXT,
	status TEXT NOT NULL DEFAULT 'initiated',
	system_prompt TEXT,
	context_url TEXT,
	context_headers JSONB,
	context_data JSONB,
	started_at TIMESTAMPTZ,
	ended_at TIMESTAMPTZ,
	duration_ms BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS conversation_messages (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	call_sid TEXT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS conversation_messages_call_idx ON conversation_messages (call_sid, created_at);

CREATE TABLE IF NOT EXISTS call_events (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	call_sid TEXT NOT NULL,
	kind TEXT NOT NULL,
	detail TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS call_events_call_idx ON call_events (call_sid, created_at);
`

// PostgresStore persists sessions in Postgres via a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Repository = (*PostgresStore)(nil)

// NewPostgresStore connects and ensures the schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (p *PostgresStore) Close() {
	p.pool.Close()
}

func (p *PostgresStore) CreateCall(ctx context.Context, call NewCall) (Session, error) {
	if call.CallSID == "" {
		return Session{}, fmt.Errorf("call sid required")
	}
	headers, err := json.Marshal(call.ContextHeaders)
	if err != nil {
		return Session{}, err
	}
	var s Session
	err = p.pool.QueryRow(ctx, `
		INSERT INTO call_sessions (call_sid, direction, from_number, to_number, system_prompt, context_url, context_headers)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		call.CallSID, call.Direction, call.FromNumber, call.ToNumber,
		call.SystemPrompt, call.ContextURL, headers,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return Session{}, fmt.Errorf("create call session: %w", err)
	}
	s.CallSID = call.CallSID
	s.Direction = call.Direction
	s.FromNumber = call.FromNumber
	s.ToNumber = call.ToNumber
	s.Status = orchestrator.StatusInitiated
	s.SystemPrompt = call.SystemPrompt
	s.ContextURL = call.ContextURL
	s.ContextHeaders = call.ContextHeaders
	return s, nil
}

func (p *PostgresStore) LoadOrCreateSession(ctx context.Context, callID, streamID string) (orchestrator.CallRecord, error) {
	var (
		rec     orchestrator.CallRecord
		headers []byte
		prompt  *string
		ctxURL  *string
		ctxData []byte
		started *time.Time
	)
	err := p.pool.QueryRow(ctx, `
		UPDATE call_sessions
		SET stream_sid = $2, status = $3, started_at = COALESCE(started_at, now())
		WHERE call_sid = $1
		RETURNING id, system_prompt, context_url, context_headers, context_data, started_at`,
		callID, streamID, orchestrator.StatusInProgress,
	).Scan(&rec.ID, &prompt, &ctxURL, &headers, &ctxData, &started)
	if errors.Is(err, pgx.ErrNoRows) {
		// Inbound call with no pre-created row.
		err = p.pool.QueryRow(ctx, `
			INSERT INTO call_sessions (call_sid, stream_sid, direction, status, started_at)
			VALUES ($1, $2, $3, $4, now())
			RETURNING id, started_at`,
			callID, streamID, DirectionInbound, orchestrator.StatusInProgress,
		).Scan(&rec.ID, &started)
	}
	if err != nil {
		return orchestrator.CallRecord{}, fmt.Errorf("load session: %w", err)
	}

	rec.CallID = callID
	rec.StreamID = streamID
	rec.Status = orchestrator.StatusInProgress
	if prompt != nil {
		rec.SystemPrompt = *prompt
	}
	if ctxURL != nil {
		rec.ContextURL = *ctxURL
	}
	if len(headers) > 0 {
		_ = json.Unmarshal(headers, &rec.ContextHeaders)
	}
	rec.ContextData = ctxData
	if started != nil {
		rec.StartedAt = *started
	}
	return rec, nil
}

func (p *PostgresStore) AppendMessage(ctx context.Context, callID, role, text string) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO conversation_messages (call_sid, role, content) VALUES ($1, $2, $3)`,
		callID, role, text)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

func (p *PostgresStore) LogEvent(ctx context.Context, callID, kind, detail string) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO call_events (call_sid, kind, detail) VALUES ($1, $2, $3)`,
		callID, kind, detail)
	if err != nil {
		return fmt.Errorf("log event: %w", err)
	}
	return nil
}

func (p *PostgresStore) MarkEnded(ctx context.Context, callID, status string, duration time.Duration) error {
	_, err := p.pool.Exec(ctx, `
		UPDATE call_sessions
		SET status = $2, ended_at = now(), duration_ms = $3
		WHERE call_sid = $1`,
		callID, status, duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("mark ended: %w", err)
	}
	return nil
}

func (p *PostgresStore) UpdateStatus(ctx context.Context, callSID, status string) error {
	_, err := p.pool.Exec(ctx, `
		UPDATE call_sessions SET status = $2
		WHERE call_sid = $1 AND status NOT IN ($3, $4, $5)`,
		callSID, status,
		orchestrator.StatusCompleted, orchestrator.StatusFailed, orchestrator.StatusNoAnswer)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return nil
}

func (p *PostgresStore) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.pool.Query(ctx, `
		SELECT id, call_sid, COALESCE(stream_sid, ''), direction,
		       COALESCE(from_number, ''), COALESCE(to_number, ''), status,
		       COALESCE(system_prompt, ''), COALESCE(context_url, ''),
		       started_at, ended_at, duration_ms, created_at
		FROM call_sessions ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var (
			s          Session
			started    *time.Time
			durationMS int64
		)
		if err := rows.Scan(&s.ID, &s.CallSID, &s.StreamSID, &s.Direction,
			&s.FromNumber, &s.ToNumber, &s.Status, &s.SystemPrompt, &s.ContextURL,
			&started, &s.EndedAt, &durationMS, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if started != nil {
			s.StartedAt = *started
		}
		s.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *PostgresStore) GetSession(ctx context.Context, callSID string) (Session, []MessageRecord, []EventRecord, error) {
	var (
		s          Session
		started    *time.Time
		durationMS int64
		ctxData    []byte
	)
	err := p.pool.QueryRow(ctx, `
		SELECT id, call_sid, COALESCE(stream_sid, ''), direction,
		       COALESCE(from_number, ''), COALESCE(to_number, ''), status,
		       COALESCE(system_prompt, ''), COALESCE(context_url, ''), context_data,
		       started_at, ended_at, duration_ms, created_at
		FROM call_sessions WHERE call_sid = $1`, callSID,
	).Scan(&s.ID, &s.CallSID, &s.StreamSID, &s.Direction,
		&s.FromNumber, &s.ToNumber, &s.Status, &s.SystemPrompt, &s.ContextURL, &ctxData,
		&started, &s.EndedAt, &durationMS, &s.CreatedAt)
	if err != nil {
		return Session{}, nil, nil, fmt.Errorf("get session: %w", err)
	}
	if started != nil {
		s.StartedAt = *started
	}
	s.Duration = time.Duration(durationMS) * time.Millisecond
	s.ContextData = ctxData

	msgs, err := p.sessionMessages(ctx, callSID)
	if err != nil {
		return Session{}, nil, nil, err
	}
	evs, err := p.sessionEvents(ctx, callSID)
	if err != nil {
		return Session{}, nil, nil, err
	}
	return s, msgs, evs, nil
}

func (p *PostgresStore) sessionMessages(ctx context.Context, callSID string) ([]MessageRecord, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, call_sid, role, content, created_at
		FROM conversation_messages WHERE call_sid = $1 ORDER BY created_at`, callSID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()
	var out []MessageRecord
	for rows.Next() {
		var m MessageRecord
		if err := rows.Scan(&m.ID, &m.CallSID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (p *PostgresStore) sessionEvents(ctx context.Context, callSID string) ([]EventRecord, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, call_sid, kind, COALESCE(detail, ''), created_at
		FROM call_events WHERE call_sid = $1 ORDER BY created_at`, callSID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	var out []EventRecord
	for rows.Next() {
		var e EventRecord
		if err := rows.Scan(&e.ID, &e.CallSID, &e.Kind, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

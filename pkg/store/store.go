// Package store persists call sessions, their conversation transcripts, and
// lifecycle events. The in-memory store backs tests and single-process
// deployments; the Postgres store backs everything else.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/voxwire-ai/voxwire/pkg/orchestrator"
)

// Session is one phone call, inbound or outbound.
type Session struct {
	ID             string            `json:"id"`
	CallSID        string            `json:"call_sid"`
	StreamSID      string            `json:"stream_sid,omitempty"`
	Direction      string            `json:"direction"`
	FromNumber     string            `json:"from_number,omitempty"`
	ToNumber       string            `json:"to_number,omitempty"`
	Status         string            `json:"status"`
	SystemPrompt   string            `json:"system_prompt,omitempty"`
	ContextURL     string            `json:"context_url,omitempty"`
	ContextHeaders map[string]string `json:"context_headers,omitempty"`
	ContextData    json.RawMessage   `json:"context_data,omitempty"`
	StartedAt      time.Time         `json:"started_at,omitempty"`
	EndedAt        *time.Time        `json:"ended_at,omitempty"`
	Duration       time.Duration     `json:"duration,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// MessageRecord is one conversation turn.
type MessageRecord struct {
	ID        string    `json:"id"`
	CallSID   string    `json:"call_sid"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// EventRecord is one lifecycle event.
type EventRecord struct {
	ID        string    `json:"id"`
	CallSID   string    `json:"call_sid"`
	Kind      string    `json:"kind"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCall describes a session to create before the call is placed or
// answered.
type NewCall struct {
	CallSID        string
	Direction      string
	FromNumber     string
	ToNumber       string
	SystemPrompt   string
	ContextURL     string
	ContextHeaders map[string]string
}

// Repository is the full persistence surface. It embeds the narrow Store
// interface the pipeline depends on and adds what the HTTP API needs.
type Repository interface {
	orchestrator.Store

	CreateCall(ctx context.Context, call NewCall) (Session, error)
	UpdateStatus(ctx context.Context, callSID, status string) error
	ListSessions(ctx context.Context, limit int) ([]Session, error)
	GetSession(ctx context.Context, callSID string) (Session, []MessageRecord, []EventRecord, error)
}

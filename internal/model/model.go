package model

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Email     *string   `bun:"email,unique" json:"email,omitempty"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// Campaign is immutable once created.
type Campaign struct {
	bun.BaseModel `bun:"table:campaigns,alias:c"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID      int64     `bun:"user_id,notnull" json:"user_id"`
	Name        string    `bun:"name,notnull" json:"name"`
	Description *string   `bun:"description" json:"description"`
	TargetRole  *string   `bun:"target_role" json:"target_role"`
	Industry    *string   `bun:"industry" json:"industry"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// SequenceDocument maps a step name (step1, step2, ...) to its step body.
// Documents produced from unparseable model output carry an "error" key instead.
type SequenceDocument map[string]any

// Failed reports whether the document is the embedded-error form.
func (d SequenceDocument) Failed() bool {
	_, ok := d["error"]
	return ok
}

// OutreachSequence rows are append-only: an edit inserts version+1.
type OutreachSequence struct {
	bun.BaseModel `bun:"table:outreach_sequences,alias:s"`

	ID           int64            `bun:"id,pk,autoincrement" json:"id"`
	CampaignID   int64            `bun:"campaign_id,notnull" json:"campaign_id"`
	SequenceData SequenceDocument `bun:"sequence_data,type:jsonb,notnull" json:"sequence_data"`
	Version      int              `bun:"version,notnull,default:1" json:"version"`
	CreatedAt    time.Time        `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one chat message. Content holds a JSON string for user turns and a
// JSON object (the answer envelope) for assistant turns.
type Turn struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// Text returns the turn content as plain text; structured content is
// returned as its compact JSON encoding.
func (t Turn) Text() string {
	var s string
	if err := json.Unmarshal(t.Content, &s); err == nil {
		return s
	}
	return string(t.Content)
}

type Conversation struct {
	bun.BaseModel `bun:"table:conversations,alias:cv"`

	ID         int64     `bun:"id,pk,autoincrement" json:"conversation_id"`
	UserID     int64     `bun:"user_id,notnull" json:"user_id"`
	CampaignID *int64    `bun:"campaign_id" json:"campaign_id"`
	Messages   []Turn    `bun:"messages,type:jsonb,notnull" json:"messages"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

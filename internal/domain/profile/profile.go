package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/provenpro/internal/domain/collection"
)

const (
	FieldID               = "id"
	FieldSubscriptionType = "subscription_type"
)

// Snapshot is the profile as last confirmed by the profile service. Fields
// keep the server's raw JSON so untouched fields stay byte-identical.
type Snapshot struct {
	Fields    map[string]json.RawMessage
	Version   uint64
	UpdatedAt time.Time
}

func Empty() Snapshot {
	return Snapshot{Fields: map[string]json.RawMessage{}}
}

func ParseSnapshot(body []byte) (Snapshot, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return Snapshot{}, fmt.Errorf("decode profile: %w", err)
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}
	return Snapshot{Fields: fields}, nil
}

func (s Snapshot) IsEmpty() bool {
	return len(s.Fields) == 0
}

func (s Snapshot) Field(name string) json.RawMessage {
	return s.Fields[name]
}

func (s Snapshot) ID() string {
	return s.stringField(FieldID)
}

func (s Snapshot) SubscriptionType() string {
	return s.stringField(FieldSubscriptionType)
}

func (s Snapshot) stringField(name string) string {
	raw, ok := s.Fields[name]
	if !ok {
		return ""
	}
	var str string
	if json.Unmarshal(raw, &str) == nil {
		return str
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if dec.Decode(&n) == nil {
		return n.String()
	}
	return ""
}

// Collection decodes the field that holds kind's items.
func (s Snapshot) Collection(kind collection.Kind) (collection.Collection, error) {
	return kind.Decode(s.Fields[kind.Field])
}

func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Fields:    make(map[string]json.RawMessage, len(s.Fields)),
		Version:   s.Version,
		UpdatedAt: s.UpdatedAt,
	}
	for k, v := range s.Fields {
		out.Fields[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	if s.Fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s.Fields)
}

// Payload is an outgoing profile write. Strings are sent as-is; every other
// value is JSON-encoded into its form field.
type Payload map[string]any

type DeleteResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Gateway is the remote profile API.
type Gateway interface {
	Fetch(ctx context.Context, profileID string) (Snapshot, error)
	Update(ctx context.Context, payload Payload) (Snapshot, error)
	Create(ctx context.Context, payload Payload) (Snapshot, error)
	DeleteItem(ctx context.Context, kind, id string) (DeleteResult, error)
}

type EventType string

const (
	EventFieldSynced      EventType = "field_synced"
	EventItemDeleted      EventType = "item_deleted"
	EventSnapshotReplaced EventType = "snapshot_replaced"
	EventReset            EventType = "reset"
)

// Event is published after every confirmed change of the shared snapshot.
type Event struct {
	EventID    uuid.UUID       `json:"event_id"`
	EventType  EventType       `json:"event_type"`
	ProfileID  string          `json:"profile_id"`
	Field      string          `json:"field,omitempty"`
	ItemID     string          `json:"item_id,omitempty"`
	Version    uint64          `json:"version"`
	Value      json.RawMessage `json:"value,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func NewEvent(t EventType, profileID, field string, version uint64, value json.RawMessage) Event {
	return Event{
		EventID:    uuid.New(),
		EventType:  t,
		ProfileID:  profileID,
		Field:      field,
		Version:    version,
		Value:      value,
		OccurredAt: time.Now().UTC(),
	}
}

// HistoryEntry is one archived server-confirmed value of a profile field.
type HistoryEntry struct {
	ID         uuid.UUID       `json:"id"`
	EventID    uuid.UUID       `json:"event_id"`
	EventType  EventType       `json:"event_type"`
	ProfileID  string          `json:"profile_id"`
	Field      string          `json:"field"`
	Version    uint64          `json:"version"`
	Value      json.RawMessage `json:"value"`
	RecordedAt time.Time       `json:"recorded_at"`
}

type HistoryRepository interface {
	Save(ctx context.Context, entry *HistoryEntry) error
	ListByField(ctx context.Context, profileID, field string, limit int) ([]*HistoryEntry, error)
}

// TokenStore is the persisted client storage holding the bearer token.
type TokenStore interface {
	Get(ctx context.Context) (string, error)
	Save(ctx context.Context, token string, ttl time.Duration) error
	Clear(ctx context.Context) error
}

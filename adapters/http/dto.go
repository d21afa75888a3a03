package http

import (
	"encoding/json"
	"time"

	"github.com/khoahotran/provenpro/internal/domain/collection"
	"github.com/khoahotran/provenpro/internal/domain/profile"
)

// Session DTOs
type SaveTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

type SessionDTO struct {
	Subject   string     `json:"subject"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Profile DTOs
type SnapshotDTO struct {
	Version   uint64          `json:"version"`
	UpdatedAt time.Time       `json:"updated_at"`
	Fresh     bool            `json:"fresh"`
	Profile   json.RawMessage `json:"profile"`
}

type SubmitStepRequest struct {
	Fields map[string]any `json:"fields" binding:"required"`
}

type HistoryEntryDTO struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	Version    uint64          `json:"version"`
	Value      json.RawMessage `json:"value"`
	RecordedAt time.Time       `json:"recorded_at"`
}

func ToSnapshotDTO(s profile.Snapshot, fresh bool) SnapshotDTO {
	body, err := json.Marshal(s)
	if err != nil {
		body = []byte("{}")
	}
	return SnapshotDTO{Version: s.Version, UpdatedAt: s.UpdatedAt, Fresh: fresh, Profile: body}
}

func ToHistoryDTOs(entries []*profile.HistoryEntry) []HistoryEntryDTO {
	out := make([]HistoryEntryDTO, len(entries))
	for i, e := range entries {
		out[i] = HistoryEntryDTO{
			EventID:    e.EventID.String(),
			EventType:  string(e.EventType),
			Version:    e.Version,
			Value:      e.Value,
			RecordedAt: e.RecordedAt,
		}
	}
	return out
}

// Draft DTOs
type DraftDTO struct {
	Kind        string                `json:"kind"`
	Field       string                `json:"field"`
	Working     collection.Collection `json:"working"`
	Buffer      *collection.Item      `json:"buffer,omitempty"`
	DeleteState string                `json:"delete_state"`
}

// BeginEditRequest opens the buffer on an existing item, by server id or by
// position for items that were never synced. An empty body starts a new item.
type BeginEditRequest struct {
	ItemID string `json:"item_id"`
	Index  *int   `json:"index"`
}

type CommitEditRequest struct {
	Fields map[string]any `json:"fields"`
}

type SyncRequest struct {
	Patch map[string]any `json:"patch"`
}

type SyncResponse struct {
	Applied  bool                  `json:"applied"`
	Items    collection.Collection `json:"items"`
	Snapshot SnapshotDTO           `json:"snapshot"`
}

type DeleteResponse struct {
	Success  bool        `json:"success"`
	Message  string      `json:"message"`
	Snapshot SnapshotDTO `json:"snapshot"`
}

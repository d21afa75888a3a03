package service

import (
	"context"

	"github.com/khoahotran/provenpro/internal/domain/profile"
)

// SnapshotMirror persists the shared snapshot outside the process so a
// restarted companion comes back with the last confirmed profile.
type SnapshotMirror interface {
	Save(ctx context.Context, s profile.Snapshot) error
	Load(ctx context.Context) (profile.Snapshot, bool, error)
	Clear(ctx context.Context) error
}

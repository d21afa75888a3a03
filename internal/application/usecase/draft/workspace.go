package draft

import (
	"fmt"
	"sync"

	"github.com/khoahotran/provenpro/internal/domain/collection"
	"github.com/khoahotran/provenpro/internal/domain/profile"
)

type SnapshotSource interface {
	Get() profile.Snapshot
}

// Workspace holds the draft stores of one UI session, one per kind, each
// seeded from the shared snapshot on first use.
type Workspace struct {
	mu        sync.Mutex
	stores    map[string]*Store
	source    SnapshotSource
	validator *Validator
}

func NewWorkspace(source SnapshotSource, v *Validator) *Workspace {
	return &Workspace{stores: map[string]*Store{}, source: source, validator: v}
}

func (w *Workspace) Store(kind collection.Kind) (*Store, error) {
	if kind.Media {
		return nil, fmt.Errorf("%s is not a collection", kind.Name)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if s, ok := w.stores[kind.Name]; ok {
		return s, nil
	}
	initial, err := w.source.Get().Collection(kind)
	if err != nil {
		return nil, err
	}
	s := NewStore(kind, w.validator)
	s.Load(initial)
	w.stores[kind.Name] = s
	return s, nil
}

// Existing returns the store for kind only if one was already opened.
func (w *Workspace) Existing(kind string) (*Store, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.stores[kind]
	return s, ok
}

// Reset closes every store. The next Store call reseeds from the snapshot.
func (w *Workspace) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, s := range w.stores {
		s.Close()
	}
	w.stores = map[string]*Store{}
}

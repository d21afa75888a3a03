package collection

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/khoahotran/provenpro/internal/application/profilecache"
	"github.com/khoahotran/provenpro/internal/application/usecase/draft"
	"github.com/khoahotran/provenpro/internal/domain/profile"
	"github.com/khoahotran/provenpro/pkg/logger"
	"github.com/khoahotran/provenpro/pkg/metrics"
)

type fakeGateway struct {
	mu       sync.Mutex
	updates  []profile.Payload
	deletes  []string
	fetches  int
	updateFn func(ctx context.Context, p profile.Payload) (profile.Snapshot, error)
	deleteFn func(kind, id string) (profile.DeleteResult, error)
	fetchFn  func() (profile.Snapshot, error)
}

func (g *fakeGateway) Fetch(_ context.Context, _ string) (profile.Snapshot, error) {
	g.mu.Lock()
	g.fetches++
	fn := g.fetchFn
	g.mu.Unlock()
	if fn == nil {
		return profile.Empty(), nil
	}
	return fn()
}

func (g *fakeGateway) Update(ctx context.Context, p profile.Payload) (profile.Snapshot, error) {
	g.mu.Lock()
	g.updates = append(g.updates, p)
	fn := g.updateFn
	g.mu.Unlock()
	if fn == nil {
		return echo(p), nil
	}
	return fn(ctx, p)
}

func (g *fakeGateway) Create(ctx context.Context, p profile.Payload) (profile.Snapshot, error) {
	return g.Update(ctx, p)
}

func (g *fakeGateway) DeleteItem(_ context.Context, kind, id string) (profile.DeleteResult, error) {
	g.mu.Lock()
	g.deletes = append(g.deletes, kind+"/"+id)
	fn := g.deleteFn
	g.mu.Unlock()
	if fn == nil {
		return profile.DeleteResult{Success: true, Message: "deleted"}, nil
	}
	return fn(kind, id)
}

func (g *fakeGateway) updateCalls() []profile.Payload {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]profile.Payload(nil), g.updates...)
}

func (g *fakeGateway) deleteCalls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.deletes...)
}

// echo answers an update the way the profile service does when it accepts
// every field unchanged.
func echo(p profile.Payload) profile.Snapshot {
	s := profile.Empty()
	for k, v := range p {
		switch val := v.(type) {
		case json.RawMessage:
			s.Fields[k] = val
		default:
			b, _ := json.Marshal(val)
			s.Fields[k] = b
		}
	}
	return s
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []profile.Event
}

func (p *recordingPublisher) PublishProfileEvent(_ context.Context, evt profile.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) all() []profile.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]profile.Event(nil), p.events...)
}

type harness struct {
	gateway   *fakeGateway
	cache     *profilecache.Cache
	workspace *draft.Workspace
	publisher *recordingPublisher
	sync      *SyncUseCase
	delete    *DeleteItemUseCase
}

func newHarness(ordering profilecache.Ordering) *harness {
	log := logger.NewNop()
	gw := &fakeGateway{}
	cache := profilecache.New(ordering, nil, log)
	ws := draft.NewWorkspace(cache, draft.NewValidator())
	pub := &recordingPublisher{}
	rec := metrics.NewRecorder()
	syncUC := NewSyncUseCase(gw, cache, ws, pub, rec, "free", log)
	return &harness{
		gateway:   gw,
		cache:     cache,
		workspace: ws,
		publisher: pub,
		sync:      syncUC,
		delete:    NewDeleteItemUseCase(gw, cache, syncUC, rec, log),
	}
}

const eventually = time.Second

package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ewilliams-labs/undertow/internal/core/domain"
	"github.com/ewilliams-labs/undertow/internal/core/ports"
	"github.com/ewilliams-labs/undertow/internal/logger"
)

// mapStore is an in-memory stand-in for the sqlite tier.
type mapStore struct {
	mu        sync.Mutex
	profiles  map[string]domain.ArtistProfile
	related   map[string][]string
	relatedAt map[string]time.Time
	saves     int
}

func newMapStore() *mapStore {
	return &mapStore{
		profiles:  make(map[string]domain.ArtistProfile),
		related:   make(map[string][]string),
		relatedAt: make(map[string]time.Time),
	}
}

func (s *mapStore) GetArtistProfile(_ context.Context, id string) (domain.ArtistProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return domain.ArtistProfile{}, domain.ErrNotFound
	}
	return p, nil
}

func (s *mapStore) SaveArtistProfile(_ context.Context, p domain.ArtistProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
	s.saves++
	return nil
}

func (s *mapStore) GetRelatedIDs(_ context.Context, id string) ([]string, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids, ok := s.related[id]
	if !ok {
		return nil, time.Time{}, domain.ErrNotFound
	}
	return ids, s.relatedAt[id], nil
}

func (s *mapStore) SaveRelatedIDs(_ context.Context, id string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.related[id] = ids
	s.relatedAt[id] = time.Now()
	return nil
}

func (s *mapStore) GetTopTracks(_ context.Context, _ string) ([]domain.Track, time.Time, error) {
	return nil, time.Time{}, domain.ErrNotFound
}

func (s *mapStore) SaveTopTracks(_ context.Context, _ string, _ []domain.Track) error { return nil }

// stubCatalog counts calls and can be switched off.
type stubCatalog struct {
	mu       sync.Mutex
	profiles map[string]domain.ArtistProfile
	down     bool
	calls    int
}

func (c *stubCatalog) get(id string) (domain.ArtistProfile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.down {
		return domain.ArtistProfile{}, errors.New("catalog unavailable")
	}
	p, ok := c.profiles[id]
	if !ok {
		return domain.ArtistProfile{}, domain.ErrNotFound
	}
	return p, nil
}

func (c *stubCatalog) SearchArtist(_ context.Context, name string) (domain.ArtistProfile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	for _, p := range c.profiles {
		if domain.SameArtistName(p.Name, name) {
			return p, nil
		}
	}
	return domain.ArtistProfile{}, domain.ErrNotFound
}

func (c *stubCatalog) GetArtist(_ context.Context, id string) (domain.ArtistProfile, error) {
	return c.get(id)
}

func (c *stubCatalog) GetSeveralArtists(_ context.Context, ids []string) ([]domain.ArtistProfile, error) {
	var out []domain.ArtistProfile
	for _, id := range ids {
		if p, err := c.get(id); err == nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *stubCatalog) GetRelatedArtists(_ context.Context, id string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return nil, domain.ErrNotFound
}

func (c *stubCatalog) GetArtistTopTracks(_ context.Context, id string) ([]domain.Track, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return nil, domain.ErrNotFound
}

func (c *stubCatalog) SampleArtists(_ context.Context, limit int) ([]string, error) {
	return nil, nil
}

// recordingHealer captures enqueued tasks.
type recordingHealer struct {
	mu    sync.Mutex
	tasks []ports.BackfillTask
}

func (h *recordingHealer) Enqueue(task ports.BackfillTask) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tasks = append(h.tasks, task)
	return true
}

func (h *recordingHealer) recorded() []ports.BackfillTask {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]ports.BackfillTask(nil), h.tasks...)
}

func TestTieredPromotesToMemory(t *testing.T) {
	store := newMapStore()
	catalog := &stubCatalog{profiles: map[string]domain.ArtistProfile{
		"a": {ID: "a", Name: "A", Genres: []string{"rock"}},
	}}
	tiered := NewTiered(store, catalog, ports.NopHealer{}, logger.NewNop(), time.Minute, time.Hour)
	ctx := context.Background()

	// First lookup falls all the way through to the catalog.
	if _, ok := tiered.ArtistProfile(ctx, "a"); !ok {
		t.Fatal("lookup failed with the profile in the catalog")
	}
	if catalog.calls != 1 {
		t.Fatalf("catalog called %d times, want 1", catalog.calls)
	}
	if store.saves != 1 {
		t.Errorf("store saves = %d, want a write-back", store.saves)
	}

	// Second lookup is answered in process.
	if _, ok := tiered.ArtistProfile(ctx, "a"); !ok {
		t.Fatal("second lookup failed")
	}
	if catalog.calls != 1 {
		t.Errorf("catalog called %d times after promotion, want still 1", catalog.calls)
	}

	stats := tiered.Stats()
	if stats.MemoryHits != 1 || stats.CatalogHits != 1 {
		t.Errorf("stats = %+v, want one memory hit and one catalog hit", stats)
	}
}

func TestTieredServesFreshStoreRows(t *testing.T) {
	store := newMapStore()
	store.profiles["a"] = domain.ArtistProfile{ID: "a", Name: "A", FetchedAt: time.Now()}
	catalog := &stubCatalog{profiles: map[string]domain.ArtistProfile{}}
	tiered := NewTiered(store, catalog, ports.NopHealer{}, logger.NewNop(), time.Minute, time.Hour)

	if _, ok := tiered.ArtistProfile(context.Background(), "a"); !ok {
		t.Fatal("lookup missed a fresh store row")
	}
	if catalog.calls != 0 {
		t.Errorf("catalog called %d times, want 0 for a fresh row", catalog.calls)
	}
}

func TestTieredRefreshesStaleStoreRows(t *testing.T) {
	store := newMapStore()
	store.profiles["a"] = domain.ArtistProfile{ID: "a", Name: "Old A", FetchedAt: time.Now().Add(-48 * time.Hour)}
	catalog := &stubCatalog{profiles: map[string]domain.ArtistProfile{
		"a": {ID: "a", Name: "New A"},
	}}
	tiered := NewTiered(store, catalog, ports.NopHealer{}, logger.NewNop(), time.Minute, time.Hour)

	p, ok := tiered.ArtistProfile(context.Background(), "a")
	if !ok || p.Name != "New A" {
		t.Errorf("got %+v, want the refreshed catalog profile", p)
	}
}

func TestTieredFallsBackToStaleRowWhenCatalogDown(t *testing.T) {
	store := newMapStore()
	store.profiles["a"] = domain.ArtistProfile{ID: "a", Name: "Stale A", FetchedAt: time.Now().Add(-48 * time.Hour)}
	catalog := &stubCatalog{down: true}
	tiered := NewTiered(store, catalog, ports.NopHealer{}, logger.NewNop(), time.Minute, time.Hour)

	p, ok := tiered.ArtistProfile(context.Background(), "a")
	if !ok || p.Name != "Stale A" {
		t.Errorf("got %+v, want the stale store row", p)
	}
}

func TestTieredTotalMissEnqueuesHealing(t *testing.T) {
	healer := &recordingHealer{}
	catalog := &stubCatalog{profiles: map[string]domain.ArtistProfile{}}
	tiered := NewTiered(newMapStore(), catalog, healer, logger.NewNop(), time.Minute, time.Hour)

	if _, ok := tiered.ArtistProfile(context.Background(), "ghost"); ok {
		t.Fatal("lookup hit for an artist no tier knows")
	}

	tasks := healer.recorded()
	if len(tasks) != 1 {
		t.Fatalf("healer recorded %d tasks, want 1", len(tasks))
	}
	if tasks[0].Kind != ports.BackfillArtistProfile || tasks[0].ArtistID != "ghost" {
		t.Errorf("task = %+v", tasks[0])
	}
	if tiered.Stats().Misses != 1 {
		t.Errorf("misses = %d, want 1", tiered.Stats().Misses)
	}
}

func TestTieredBatchDropsUnknownAndHeals(t *testing.T) {
	healer := &recordingHealer{}
	catalog := &stubCatalog{profiles: map[string]domain.ArtistProfile{
		"a": {ID: "a", Name: "A"},
	}}
	tiered := NewTiered(newMapStore(), catalog, healer, logger.NewNop(), time.Minute, time.Hour)

	got := tiered.SeveralArtistProfiles(context.Background(), []string{"a", "ghost"})
	if len(got) != 1 {
		t.Fatalf("resolved %d profiles, want 1", len(got))
	}
	if _, ok := got["a"]; !ok {
		t.Error("known profile missing from the batch result")
	}
	tasks := healer.recorded()
	if len(tasks) != 1 || tasks[0].ArtistID != "ghost" {
		t.Errorf("healer tasks = %+v, want one for ghost", tasks)
	}
}

func TestTieredRequestBackfill(t *testing.T) {
	healer := &recordingHealer{}
	tiered := NewTiered(newMapStore(), &stubCatalog{}, healer, logger.NewNop(), time.Minute, time.Hour)

	tiered.RequestBackfill(ports.BackfillTopTracks, "a", "no-eligible-tracks")
	tasks := healer.recorded()
	if len(tasks) != 1 || tasks[0].Kind != ports.BackfillTopTracks || tasks[0].Reason != "no-eligible-tracks" {
		t.Errorf("tasks = %+v", tasks)
	}
}

package logbook

import (
	"context"
	"errors"
	"time"

	"github.com/jbrucker/home-log/internal/domain"
)

// fakeSourceRepo is an in-memory ports.SourceRepository.
type fakeSourceRepo struct {
	sources map[domain.SourceID]*domain.Source
}

func newFakeSourceRepo() *fakeSourceRepo {
	return &fakeSourceRepo{sources: make(map[domain.SourceID]*domain.Source)}
}

func (f *fakeSourceRepo) Create(_ context.Context, source *domain.Source) error {
	cp := *source
	f.sources[source.ID] = &cp
	return nil
}

func (f *fakeSourceRepo) GetByID(_ context.Context, ownerID domain.UserID, id domain.SourceID) (*domain.Source, error) {
	s, ok := f.sources[id]
	if !ok || s.OwnerID != ownerID {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSourceRepo) List(_ context.Context, ownerID domain.UserID, limit, offset int) ([]domain.SourceListItem, error) {
	var items []domain.SourceListItem
	for _, s := range f.sources {
		if s.OwnerID == ownerID {
			items = append(items, domain.SourceListItem{ID: s.ID, Name: s.Name, Type: s.Type})
		}
	}
	return items, nil
}

func (f *fakeSourceRepo) Update(_ context.Context, source *domain.Source) error {
	cp := *source
	f.sources[source.ID] = &cp
	return nil
}

func (f *fakeSourceRepo) Delete(_ context.Context, ownerID domain.UserID, id domain.SourceID) (bool, error) {
	s, ok := f.sources[id]
	if !ok || s.OwnerID != ownerID {
		return false, nil
	}
	delete(f.sources, id)
	return true, nil
}

// fakeReadingRepo is an in-memory ports.ReadingRepository. It records audit
// entries alongside readings and can be told to fail UpdateWithAudit.
type fakeReadingRepo struct {
	readings  map[domain.ReadingID]*domain.Reading
	changes   []*domain.ChangeEntry
	updateErr error
}

func newFakeReadingRepo() *fakeReadingRepo {
	return &fakeReadingRepo{readings: make(map[domain.ReadingID]*domain.Reading)}
}

func (f *fakeReadingRepo) Create(_ context.Context, reading *domain.Reading) error {
	cp := *reading
	f.readings[reading.ID] = &cp
	return nil
}

func (f *fakeReadingRepo) GetByID(_ context.Context, sourceID domain.SourceID, id domain.ReadingID) (*domain.Reading, error) {
	r, ok := f.readings[id]
	if !ok || r.SourceID != sourceID {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (f *fakeReadingRepo) List(_ context.Context, sourceID domain.SourceID, since, until time.Time, limit, offset int) ([]*domain.Reading, error) {
	var out []*domain.Reading
	for _, r := range f.readings {
		if r.SourceID == sourceID && !r.RecordedAt.Before(since) && !r.RecordedAt.After(until) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeReadingRepo) UpdateWithAudit(_ context.Context, reading *domain.Reading, entry *domain.ChangeEntry) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.readings[reading.ID]; !ok {
		return errors.New("no such reading")
	}
	cp := *reading
	f.readings[reading.ID] = &cp
	ce := *entry
	f.changes = append(f.changes, &ce)
	return nil
}

func (f *fakeReadingRepo) ListChanges(_ context.Context, sourceID domain.SourceID, limit, offset int) ([]*domain.ChangeEntry, error) {
	var out []*domain.ChangeEntry
	for _, c := range f.changes {
		if c.SourceID == sourceID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

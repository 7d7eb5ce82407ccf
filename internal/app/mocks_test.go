package app

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/souvik017/livefeed/internal/domain"
)

// --- Mock implementations ---

type mockPostRepo struct {
	createFn       func(ctx context.Context, post *domain.Post) (*domain.Post, error)
	getByIDFn      func(ctx context.Context, id uuid.UUID) (*domain.Post, error)
	updateFn       func(ctx context.Context, post *domain.Post) (*domain.Post, error)
	deleteFn       func(ctx context.Context, id uuid.UUID) error
	listRecentFn   func(ctx context.Context, limit int) ([]domain.Post, error)
	listByAuthorFn func(ctx context.Context, authorID uuid.UUID) ([]domain.Post, error)
}

func (m *mockPostRepo) Create(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	if m.createFn != nil {
		return m.createFn(ctx, post)
	}
	return nil, errors.New("not implemented")
}

func (m *mockPostRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrPostNotFound
}

func (m *mockPostRepo) Update(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, post)
	}
	return nil, errors.New("not implemented")
}

func (m *mockPostRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return errors.New("not implemented")
}

func (m *mockPostRepo) ListRecent(ctx context.Context, limit int) ([]domain.Post, error) {
	if m.listRecentFn != nil {
		return m.listRecentFn(ctx, limit)
	}
	return nil, errors.New("not implemented")
}

func (m *mockPostRepo) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]domain.Post, error) {
	if m.listByAuthorFn != nil {
		return m.listByAuthorFn(ctx, authorID)
	}
	return nil, errors.New("not implemented")
}

type mockUserRepo struct {
	getByUIDFn func(ctx context.Context, uid string) (*domain.User, error)
	upsertFn   func(ctx context.Context, claims domain.IdentityClaims) (*domain.User, error)
}

func (m *mockUserRepo) GetByUID(ctx context.Context, uid string) (*domain.User, error) {
	if m.getByUIDFn != nil {
		return m.getByUIDFn(ctx, uid)
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockUserRepo) Upsert(ctx context.Context, claims domain.IdentityClaims) (*domain.User, error) {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, claims)
	}
	return nil, errors.New("not implemented")
}

// mockFeedCache records call order so tests can assert the mutation
// pipeline sequencing.
type mockFeedCache struct {
	mu    sync.Mutex
	calls []string

	getFn        func(ctx context.Context) ([]domain.Post, bool, error)
	populateFn   func(ctx context.Context, posts []domain.Post) error
	invalidateFn func(ctx context.Context) error
}

func (m *mockFeedCache) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockFeedCache) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockFeedCache) Get(ctx context.Context) ([]domain.Post, bool, error) {
	m.record("get")
	if m.getFn != nil {
		return m.getFn(ctx)
	}
	return nil, false, nil
}

func (m *mockFeedCache) Populate(ctx context.Context, posts []domain.Post) error {
	m.record("populate")
	if m.populateFn != nil {
		return m.populateFn(ctx, posts)
	}
	return nil
}

func (m *mockFeedCache) Invalidate(ctx context.Context) error {
	m.record("invalidate")
	if m.invalidateFn != nil {
		return m.invalidateFn(ctx)
	}
	return nil
}

type mockChangeBus struct {
	mu        sync.Mutex
	published []domain.ChangeEvent

	publishFn   func(ctx context.Context, event domain.ChangeEvent) error
	subscribeFn func(ctx context.Context) (domain.ChangeSubscription, error)
}

func (m *mockChangeBus) Publish(ctx context.Context, event domain.ChangeEvent) error {
	m.mu.Lock()
	m.published = append(m.published, event)
	m.mu.Unlock()
	if m.publishFn != nil {
		return m.publishFn(ctx, event)
	}
	return nil
}

func (m *mockChangeBus) Subscribe(ctx context.Context) (domain.ChangeSubscription, error) {
	if m.subscribeFn != nil {
		return m.subscribeFn(ctx)
	}
	return nil, errors.New("not implemented")
}

func (m *mockChangeBus) Published() []domain.ChangeEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ChangeEvent(nil), m.published...)
}

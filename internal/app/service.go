// Package app holds the application layer: feed reads through the cache
// and the mutation pipeline that keeps cache and clients consistent.
package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/souvik017/livefeed/internal/domain"
	apperrors "github.com/souvik017/livefeed/internal/errors"
)

const (
	// feedLimit caps the recent-feed snapshot size.
	feedLimit = 200

	// sideEffectTimeout bounds the post-persist invalidate and publish
	// steps once they are detached from the request context.
	sideEffectTimeout = 2 * time.Second

	maxContentLength = 5000
)

// Service implements domain.FeedService. Mutations follow a strict order:
// validate, persist, invalidate, publish. Persistence is the commit point;
// invalidation and publication are best effort and never fail the call.
type Service struct {
	posts domain.PostRepository
	users domain.UserRepository
	cache domain.FeedCache
	bus   domain.ChangeBus
}

func NewService(posts domain.PostRepository, users domain.UserRepository, cache domain.FeedCache, bus domain.ChangeBus) *Service {
	return &Service{posts: posts, users: users, cache: cache, bus: bus}
}

// GetFeed serves the recent feed read-through: cache hit wins, a miss
// falls back to the store and repopulates the cache. Concurrent misses
// may each query the store; last repopulation wins and all are equally
// valid snapshots.
func (s *Service) GetFeed(ctx context.Context) (*domain.FeedResult, error) {
	posts, ok, err := s.cache.Get(ctx)
	if err != nil {
		slog.Warn("Feed cache read failed, falling back to store", "error", err)
	}
	if ok {
		return &domain.FeedResult{Posts: posts, Source: "cache"}, nil
	}

	posts, err = s.posts.ListRecent(ctx, feedLimit)
	if err != nil {
		return nil, apperrors.StoreError("failed to load feed", err)
	}

	// Unlike the mutation path, a cache failure here is surfaced: no
	// durable write is at risk, so failing loudly is safe.
	if err := s.cache.Populate(ctx, posts); err != nil {
		return nil, apperrors.CacheError("failed to populate feed cache", err)
	}

	return &domain.FeedResult{Posts: posts, Source: "db"}, nil
}

// GetUserFeed lists a single author's posts. This path never touches the
// cache in either direction.
func (s *Service) GetUserFeed(ctx context.Context, uid string) ([]domain.Post, error) {
	user, err := s.users.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, apperrors.StoreError("failed to load user", err)
	}

	posts, err := s.posts.ListByAuthor(ctx, user.ID)
	if err != nil {
		return nil, apperrors.StoreError("failed to load user feed", err)
	}
	return posts, nil
}

func (s *Service) CreatePost(ctx context.Context, actor *domain.User, in domain.CreatePostInput) (*domain.Post, error) {
	if actor == nil {
		return nil, domain.ErrUnauthenticated
	}

	// Empty content is a valid post; only length is bounded.
	content := strings.TrimSpace(in.Content)
	if len(content) > maxContentLength {
		return nil, apperrors.ValidationError("content is too long").WithField("max", maxContentLength)
	}

	post := &domain.Post{
		AuthorID: actor.ID,
		Content:  content,
	}
	applyMedia(post, in.MediaType, in.ImageURL, in.VideoURL)

	created, err := s.posts.Create(ctx, post)
	if err != nil {
		return nil, apperrors.StoreError("failed to create post", err)
	}

	s.afterMutation(ctx, domain.ChangeEvent{
		Kind: domain.EventPostCreated,
		ID:   created.ID,
		Post: created,
	})

	return created, nil
}

func (s *Service) UpdatePost(ctx context.Context, actor *domain.User, postID uuid.UUID, in domain.UpdatePostInput) (*domain.Post, error) {
	if actor == nil {
		return nil, domain.ErrUnauthenticated
	}

	existing, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, domain.ErrPostNotFound) {
			return nil, err
		}
		return nil, apperrors.StoreError("failed to load post", err)
	}
	if existing.AuthorID != actor.ID {
		return nil, domain.ErrNotPostOwner
	}

	if in.Content != nil {
		content := strings.TrimSpace(*in.Content)
		if len(content) > maxContentLength {
			return nil, apperrors.ValidationError("content is too long").WithField("max", maxContentLength)
		}
		existing.Content = content
	}

	if in.MediaType != "" {
		// Carry the stored URL forward when the kind is unchanged and no
		// replacement was sent; a kind switch clears the other slot.
		imageURL := in.ImageURL
		videoURL := in.VideoURL
		kind := normalizeMedia(in.MediaType)
		if imageURL == "" && kind == domain.MediaImage && existing.MediaType == domain.MediaImage {
			imageURL = existing.ImageURL
		}
		if videoURL == "" && kind == domain.MediaVideo && existing.MediaType == domain.MediaVideo {
			videoURL = existing.VideoURL
		}
		applyMedia(existing, in.MediaType, imageURL, videoURL)
	}

	updated, err := s.posts.Update(ctx, existing)
	if err != nil {
		if errors.Is(err, domain.ErrPostNotFound) {
			return nil, err
		}
		return nil, apperrors.StoreError("failed to update post", err)
	}

	s.afterMutation(ctx, domain.ChangeEvent{
		Kind: domain.EventPostUpdated,
		ID:   updated.ID,
		Post: updated,
	})

	return updated, nil
}

func (s *Service) DeletePost(ctx context.Context, actor *domain.User, postID uuid.UUID) error {
	if actor == nil {
		return domain.ErrUnauthenticated
	}

	existing, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, domain.ErrPostNotFound) {
			return err
		}
		return apperrors.StoreError("failed to load post", err)
	}
	if existing.AuthorID != actor.ID {
		return domain.ErrNotPostOwner
	}

	if err := s.posts.Delete(ctx, postID); err != nil {
		if errors.Is(err, domain.ErrPostNotFound) {
			return err
		}
		return apperrors.StoreError("failed to delete post", err)
	}

	s.afterMutation(ctx, domain.ChangeEvent{
		Kind: domain.EventPostDeleted,
		ID:   postID,
	})

	return nil
}

// afterMutation runs the invalidate-then-publish tail of a committed
// mutation. It detaches from the request context so a client disconnect
// cannot skip the steps, and it logs failures instead of returning them:
// the write already succeeded and the cache TTL bounds any staleness.
func (s *Service) afterMutation(ctx context.Context, event domain.ChangeEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if err := s.cache.Invalidate(ctx); err != nil {
		slog.Warn("Failed to invalidate feed cache after mutation",
			"event", event.Kind, "post_id", event.ID, "error", err)
	}

	if err := s.bus.Publish(ctx, event); err != nil {
		slog.Warn("Failed to publish change event",
			"event", event.Kind, "post_id", event.ID, "error", err)
	}
}

// applyMedia sets the media kind and URL slots. Unrecognized kinds fall
// back to plain text, and only the slot matching the kind survives.
func applyMedia(post *domain.Post, kind, imageURL, videoURL string) {
	post.MediaType = normalizeMedia(kind)
	post.ImageURL = ""
	post.VideoURL = ""

	switch post.MediaType {
	case domain.MediaImage:
		post.ImageURL = imageURL
	case domain.MediaVideo:
		post.VideoURL = videoURL
	}
}

func normalizeMedia(kind string) domain.MediaType {
	switch domain.MediaType(kind) {
	case domain.MediaImage:
		return domain.MediaImage
	case domain.MediaVideo:
		return domain.MediaVideo
	default:
		return domain.MediaText
	}
}

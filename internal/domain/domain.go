package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// --- Model types ---

// MediaType classifies what a post carries besides text.
// "text" is the wire name for plain posts without media.
type MediaType string

const (
	MediaText  MediaType = "text"
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

type User struct {
	ID        uuid.UUID `json:"id"`
	UID       string    `json:"uid"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Post struct {
	ID        uuid.UUID `json:"id"`
	AuthorID  uuid.UUID `json:"authorId"`
	Content   string    `json:"content"`
	MediaType MediaType `json:"mediaType"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	VideoURL  string    `json:"videoUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Author is inlined on feed reads and on broadcast payloads.
	Author *User `json:"user,omitempty"`
}

// IdentityClaims are the verified claims of an external identity token.
// Local user records are upserted from these, never from request bodies.
type IdentityClaims struct {
	UID    string
	Name   string
	Email  string
	Avatar string
}

// --- Change events ---

type EventKind string

const (
	EventPostCreated EventKind = "post:created"
	EventPostUpdated EventKind = "post:updated"
	EventPostDeleted EventKind = "post:deleted"
)

// ChangeEvent is the transient message published on the bus after a
// successful mutation. Post is set for created/updated, nil for deleted.
// Consumers apply events by ID (idempotent upsert/remove), never by append,
// because the bus may redeliver.
type ChangeEvent struct {
	Kind EventKind `json:"event"`
	ID   uuid.UUID `json:"id"`
	Post *Post     `json:"post,omitempty"`
}

// --- Interfaces ---

// PostRepository abstracts post persistence in the durable store.
// All single-post reads and list reads return posts with Author inlined.
type PostRepository interface {
	Create(ctx context.Context, post *Post) (*Post, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Post, error)
	Update(ctx context.Context, post *Post) (*Post, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListRecent(ctx context.Context, limit int) ([]Post, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]Post, error)
}

// UserRepository abstracts user persistence.
type UserRepository interface {
	GetByUID(ctx context.Context, uid string) (*User, error)
	Upsert(ctx context.Context, claims IdentityClaims) (*User, error)
}

// FeedCache is the read-through cache over the recent-feed snapshot.
// It is a derived, disposable view: it has no authority over correctness
// and a lost entry only costs one extra store query.
type FeedCache interface {
	// Get returns the cached snapshot, or ok=false on miss or expiry.
	Get(ctx context.Context) (posts []Post, ok bool, err error)
	// Populate stores a snapshot with the configured TTL, overwriting
	// any existing entry (last write wins).
	Populate(ctx context.Context, posts []Post) error
	// Invalidate removes the entry unconditionally.
	Invalidate(ctx context.Context) error
}

// ChangeBus is the shared pub/sub channel visible to every instance.
// Each instance both publishes to it and subscribes from it; fan-out to
// local clients always happens via the subscription path, including for
// events the instance itself published.
type ChangeBus interface {
	Publish(ctx context.Context, event ChangeEvent) error
	Subscribe(ctx context.Context) (ChangeSubscription, error)
}

// ChangeSubscription is an active subscription on the ChangeBus.
type ChangeSubscription interface {
	// Events delivers bus events in the order the transport provides.
	// The channel is closed when the subscription ends.
	Events() <-chan ChangeEvent
	Close()
}

// TokenVerifier maps a bearer credential to verified identity claims.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*IdentityClaims, error)
}

// FeedService is the application layer contract the HTTP handlers route
// all feed operations through.
type FeedService interface {
	GetFeed(ctx context.Context) (*FeedResult, error)
	GetUserFeed(ctx context.Context, uid string) ([]Post, error)
	CreatePost(ctx context.Context, actor *User, in CreatePostInput) (*Post, error)
	UpdatePost(ctx context.Context, actor *User, postID uuid.UUID, in UpdatePostInput) (*Post, error)
	DeletePost(ctx context.Context, actor *User, postID uuid.UUID) error
}

// FeedResult is a feed snapshot plus where it came from. Source is
// observability only, never a correctness signal.
type FeedResult struct {
	Posts  []Post
	Source string // "cache" or "db"
}

// CreatePostInput carries the client-supplied fields of a new post.
// The acting identity is passed separately and never read from here.
type CreatePostInput struct {
	Content   string
	MediaType string
	ImageURL  string
	VideoURL  string
}

// UpdatePostInput carries a partial update. Content is applied only when
// non-nil; MediaType only when non-empty.
type UpdatePostInput struct {
	Content   *string
	MediaType string
	ImageURL  string
	VideoURL  string
}

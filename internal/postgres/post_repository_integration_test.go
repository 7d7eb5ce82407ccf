package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/souvik017/livefeed/internal/domain"
)

func TestCreatePost_ReturnsPostWithAuthor(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewPostRepo(pool)
	ctx := context.Background()

	author := createTestUser(t, pool, "author-1")

	created, err := repo.Create(ctx, &domain.Post{
		AuthorID:  author.ID,
		Content:   "hello world",
		MediaType: domain.MediaImage,
		ImageURL:  "http://x/a.png",
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "hello world", created.Content)
	assert.Equal(t, domain.MediaImage, created.MediaType)
	assert.Equal(t, "http://x/a.png", created.ImageURL)
	assert.False(t, created.CreatedAt.IsZero())
	require.NotNil(t, created.Author)
	assert.Equal(t, author.ID, created.Author.ID)
	assert.Equal(t, author.Name, created.Author.Name)
}

func TestGetPostByID_NotFound(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewPostRepo(pool)

	post, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrPostNotFound)
	assert.Nil(t, post)
}

func TestUpdatePost(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewPostRepo(pool)
	ctx := context.Background()

	author := createTestUser(t, pool, "author-1")
	created, err := repo.Create(ctx, &domain.Post{AuthorID: author.ID, Content: "before", MediaType: domain.MediaText})
	require.NoError(t, err)

	created.Content = "after"
	created.MediaType = domain.MediaVideo
	created.VideoURL = "http://x/a.mp4"

	updated, err := repo.Update(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, "after", updated.Content)
	assert.Equal(t, domain.MediaVideo, updated.MediaType)
	assert.Equal(t, "http://x/a.mp4", updated.VideoURL)
	require.NotNil(t, updated.Author)
	assert.Equal(t, author.ID, updated.Author.ID)
}

func TestUpdatePost_NotFound(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewPostRepo(pool)

	_, err := repo.Update(context.Background(), &domain.Post{ID: uuid.New(), Content: "x", MediaType: domain.MediaText})
	assert.ErrorIs(t, err, domain.ErrPostNotFound)
}

func TestDeletePost(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewPostRepo(pool)
	ctx := context.Background()

	author := createTestUser(t, pool, "author-1")
	created, err := repo.Create(ctx, &domain.Post{AuthorID: author.ID, Content: "bye", MediaType: domain.MediaText})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))

	_, err = repo.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrPostNotFound)
}

func TestDeletePost_NotFound(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewPostRepo(pool)

	err := repo.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrPostNotFound)
}

func TestListRecent_NewestFirstWithLimit(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewPostRepo(pool)
	ctx := context.Background()

	author := createTestUser(t, pool, "author-1")
	for i := 0; i < 5; i++ {
		_, err := repo.Create(ctx, &domain.Post{AuthorID: author.ID, Content: "post", MediaType: domain.MediaText})
		require.NoError(t, err)
		// created_at has microsecond resolution; space the rows out so
		// the ordering assertion is stable.
		time.Sleep(2 * time.Millisecond)
	}

	posts, err := repo.ListRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, posts, 3)

	for i := 1; i < len(posts); i++ {
		assert.True(t, !posts[i-1].CreatedAt.Before(posts[i].CreatedAt),
			"posts must be ordered newest first")
	}
}

func TestListRecent_EmptyFeed(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewPostRepo(pool)

	posts, err := repo.ListRecent(context.Background(), 200)
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.NotNil(t, posts, "empty feed must serialize as [] not null")
}

func TestListByAuthor_OnlyReturnsOwnPosts(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewPostRepo(pool)
	ctx := context.Background()

	alice := createTestUser(t, pool, "alice")
	bob := createTestUser(t, pool, "bob")

	_, err := repo.Create(ctx, &domain.Post{AuthorID: alice.ID, Content: "from alice", MediaType: domain.MediaText})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &domain.Post{AuthorID: bob.ID, Content: "from bob", MediaType: domain.MediaText})
	require.NoError(t, err)

	posts, err := repo.ListByAuthor(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "from alice", posts[0].Content)
	require.NotNil(t, posts[0].Author)
	assert.Equal(t, alice.ID, posts[0].Author.ID)
}

func TestDeleteUser_CascadesToPosts(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewPostRepo(pool)
	ctx := context.Background()

	author := createTestUser(t, pool, "author-1")
	created, err := repo.Create(ctx, &domain.Post{AuthorID: author.ID, Content: "orphan", MediaType: domain.MediaText})
	require.NoError(t, err)

	_, err = pool.Exec(ctx, "DELETE FROM users WHERE id = $1", author.ID)
	require.NoError(t, err)

	_, err = repo.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrPostNotFound)
}

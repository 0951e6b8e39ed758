// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"

	"photogram/internal/cache"
	"photogram/internal/models"
	"photogram/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// FeedFilter selects which posts a feed query returns. Filters are named
// predicates; the query is assembled from fixed clauses with bound
// parameters only.
type FeedFilter string

const (
	// FeedAll returns every post.
	FeedAll FeedFilter = "all"
	// FeedLiked returns only posts the viewer has liked.
	FeedLiked FeedFilter = "liked"
	// FeedFollowing returns only posts authored by users the viewer follows.
	FeedFollowing FeedFilter = "following"
)

// FeedPageSize is the fixed number of posts per feed page.
const FeedPageSize = 20

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error)
	GetByUserID(ctx context.Context, userID uint, limit, offset int, viewerID uint) ([]*models.Post, error)
	ListFeed(ctx context.Context, viewerID uint, filter FeedFilter, page int) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	IsLiked(ctx context.Context, userID, postID uint) (bool, error)
	ToggleLike(ctx context.Context, userID, postID uint) (bool, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error) {
	var post models.Post

	fetch := func() error {
		err := r.applyPostDetails(r.db.WithContext(ctx), viewerID).
			Preload("User").
			First(&post, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Post", id)
		}
		return err
	}

	var err error
	if viewerID == 0 {
		// Anonymous view is viewer-independent, safe to cache.
		err = cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, fetch)
	} else {
		err = fetch()
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) GetByUserID(ctx context.Context, userID uint, limit, offset int, viewerID uint) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.applyPostDetails(r.db.WithContext(ctx), viewerID).
		Preload("User").
		Where("posts.user_id = ?", userID).
		Order("posts.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

// ListFeed returns one fixed-size page of the feed, newest-first by post id.
// Pages beyond the available rows come back empty, never as an error.
func (r *postRepository) ListFeed(ctx context.Context, viewerID uint, filter FeedFilter, page int) ([]*models.Post, error) {
	var posts []*models.Post

	q := r.applyPostDetails(r.db.WithContext(ctx), viewerID).Preload("User")

	switch filter {
	case FeedLiked:
		q = q.Joins("JOIN likes ON likes.post_id = posts.id AND likes.user_id = ?", viewerID)
	case FeedFollowing:
		q = q.Where("posts.user_id IN (SELECT followee_id FROM follows WHERE follower_id = ?)", viewerID)
	}

	err := q.Order("posts.id DESC").
		Limit(FeedPageSize).
		Offset(page * FeedPageSize).
		Find(&posts).Error
	return posts, err
}

// applyPostDetails adds subqueries to fetch the like count and the viewer's
// liked flag in a single query.
func (r *postRepository) applyPostDetails(db *gorm.DB, viewerID uint) *gorm.DB {
	selectQuery := "posts.*, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) as likes_count"

	if viewerID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM likes WHERE likes.post_id = posts.id AND likes.user_id = ?) as liked", viewerID)
	}

	return db.Select(selectQuery + ", false as liked")
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Save(post).Error; err != nil {
		return err
	}
	cache.InvalidatePost(ctx, post.ID)
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Post{}, id).Error; err != nil {
		return err
	}
	cache.InvalidatePost(ctx, id)
	return nil
}

func (r *postRepository) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ToggleLike flips the like state for (userID, postID) and returns the new
// state. The insert relies on the unique index on (user_id, post_id): under
// concurrent toggles exactly one insert wins, the other request observes the
// conflict and deletes. There is no check-then-act window.
func (r *postRepository) ToggleLike(ctx context.Context, userID, postID uint) (bool, error) {
	span, ctx := observability.NewSpan(ctx, "repository.ToggleLike")
	defer span.End()
	span.AddAttributes(
		attribute.Int("user.id", int(userID)),
		attribute.Int("post.id", int(postID)),
	)

	result := r.db.WithContext(ctx).Exec(
		`INSERT INTO likes (user_id, post_id, created_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (user_id, post_id) DO NOTHING`,
		userID, postID,
	)
	if result.Error != nil {
		span.SetError(result.Error)
		return false, result.Error
	}

	liked := result.RowsAffected > 0
	if !liked {
		// Row already existed: toggle off.
		if err := r.db.WithContext(ctx).
			Where("user_id = ? AND post_id = ?", userID, postID).
			Delete(&models.Like{}).Error; err != nil {
			span.SetError(err)
			return false, err
		}
	}
	span.AddAttributes(attribute.Bool("post.liked", liked))

	cache.InvalidatePost(ctx, postID)
	return liked, nil
}

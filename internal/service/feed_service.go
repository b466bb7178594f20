package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"blog-be/internal/apperrors"
	"blog-be/internal/cache"
	"blog-be/internal/entities"
	"blog-be/internal/models"
	"blog-be/internal/notify"
	"blog-be/internal/observability"
	"blog-be/internal/repository"
	"blog-be/internal/upload"
)

// FeedService defines the interface for post business logic.
// Every successful mutation publishes exactly one event; reads publish none.
type FeedService interface {
	ListPosts(ctx context.Context, page int) (*models.PostListResponse, error)
	GetPost(ctx context.Context, postID string) (*models.PostResponse, error)
	CreatePost(ctx context.Context, userID string, req *models.PostRequest, image *upload.File) (*models.CreatePostResponse, error)
	UpdatePost(ctx context.Context, userID, postID string, req *models.PostRequest, image *upload.File) (*models.PostResponse, error)
	DeletePost(ctx context.Context, userID, postID string) error
}

type feedService struct {
	posts     repository.PostRepository
	users     repository.UserRepository
	cache     cache.Cache
	publisher notify.Publisher
	pageSize  int
	log       *zap.Logger
}

// NewFeedService creates a new feed service. cacheClient may be nil.
func NewFeedService(
	posts repository.PostRepository,
	users repository.UserRepository,
	cacheClient cache.Cache,
	publisher notify.Publisher,
	pageSize int,
	log *zap.Logger,
) FeedService {
	return &feedService{
		posts:     posts,
		users:     users,
		cache:     cacheClient,
		publisher: publisher,
		pageSize:  pageSize,
		log:       log,
	}
}

func postNotFound() *apperrors.Error { return apperrors.NotFound("Could not find post.") }
func notOwner() *apperrors.Error     { return apperrors.Forbidden("Not authorized!") }

// ListPosts returns one page of posts, newest first. Pages start at 1.
func (s *feedService) ListPosts(ctx context.Context, page int) (*models.PostListResponse, error) {
	if page < 1 {
		page = 1
	}

	total, err := s.posts.Count(ctx)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.List(ctx, (page-1)*s.pageSize, s.pageSize)
	if err != nil {
		return nil, err
	}

	resp := &models.PostListResponse{
		Posts:      make([]*models.PostResponse, len(posts)),
		TotalItems: total,
	}
	for i, p := range posts {
		resp.Posts[i] = models.NewPostResponse(p)
	}
	return resp, nil
}

// GetPost reads through the cache when one is configured
func (s *feedService) GetPost(ctx context.Context, postID string) (*models.PostResponse, error) {
	key := cache.PostKey(postID)
	if s.cache != nil {
		var cached models.PostResponse
		err := s.cache.GetJSON(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.log.Warn("post cache read failed", zap.String("post_id", postID), zap.Error(err))
		}
	}

	post, err := s.posts.FindByID(ctx, postID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, postNotFound()
	}
	if err != nil {
		return nil, err
	}

	resp := models.NewPostResponse(post)
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, resp, cache.PostTTL); err != nil {
			s.log.Warn("post cache write failed", zap.String("post_id", postID), zap.Error(err))
		}
	}
	return resp, nil
}

func (s *feedService) CreatePost(ctx context.Context, userID string, req *models.PostRequest, image *upload.File) (*models.CreatePostResponse, error) {
	creator, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Unauthenticated("Not authenticated.")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load creator: %w", err)
	}

	post := &entities.Post{
		Title:     req.Title,
		Content:   req.Content,
		CreatorID: creator.ID,
	}
	if image != nil {
		post.ImageURL = &image.URL
	}

	created, err := s.posts.Create(ctx, post)
	if err != nil {
		return nil, err
	}
	if created.Creator == nil {
		created.Creator = creator
	}

	resp := models.NewPostResponse(created)
	s.publish(ctx, notify.PostEvent(notify.ActionCreate, resp))

	return &models.CreatePostResponse{
		Post:    resp,
		Creator: models.NewCreatorResponse(creator),
	}, nil
}

// UpdatePost replaces title and content. The image changes only when a new one was uploaded.
func (s *feedService) UpdatePost(ctx context.Context, userID, postID string, req *models.PostRequest, image *upload.File) (*models.PostResponse, error) {
	post, err := s.loadOwned(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	post.Title = req.Title
	post.Content = req.Content
	if image != nil {
		post.ImageURL = &image.URL
	}

	updated, err := s.posts.Update(ctx, post)
	if errors.Is(err, repository.ErrNotFound) {
		// Deleted between the ownership check and the write.
		return nil, postNotFound()
	}
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, postID)

	resp := models.NewPostResponse(updated)
	s.publish(ctx, notify.PostEvent(notify.ActionUpdate, resp))
	return resp, nil
}

func (s *feedService) DeletePost(ctx context.Context, userID, postID string) error {
	if _, err := s.loadOwned(ctx, userID, postID); err != nil {
		return err
	}

	err := s.posts.Delete(ctx, postID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return postNotFound()
	}
	if err != nil {
		return err
	}
	s.invalidate(ctx, postID)

	s.publish(ctx, notify.DeleteEvent(postID))
	return nil
}

// loadOwned returns the post if it exists and userID created it.
func (s *feedService) loadOwned(ctx context.Context, userID, postID string) (*entities.Post, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, postNotFound()
	}
	if err != nil {
		return nil, err
	}
	if !post.IsOwnedBy(userID) {
		s.log.Info("rejected mutation by non-owner", zap.String("post_id", postID), zap.String("user_id", userID))
		return nil, notOwner()
	}
	return post, nil
}

func (s *feedService) invalidate(ctx context.Context, postID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.PostKey(postID)); err != nil {
		s.log.Warn("post cache invalidation failed", zap.String("post_id", postID), zap.Error(err))
	}
}

// publish is fire-and-forget; a failed broadcast never fails the mutation.
func (s *feedService) publish(ctx context.Context, ev notify.Event) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.log.Error("failed to publish feed event", zap.String("action", ev.Action), zap.Error(err))
		return
	}
	observability.FeedEventsPublished.WithLabelValues(ev.Action).Inc()
}

package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"blog-be/internal/middleware"
	"blog-be/internal/models"
	"blog-be/internal/service"
)

type FeedController struct {
	feedService service.FeedService
}

func NewFeedController(feedService service.FeedService) *FeedController {
	return &FeedController{
		feedService: feedService,
	}
}

// GetPosts handles GET /feed/posts?page=N
func (fc *FeedController) GetPosts(c *gin.Context) {
	page := 1
	if raw := c.Query("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			page = parsed
		}
	}

	response, err := fc.feedService.ListPosts(c.Request.Context(), page)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.Message = "Fetched posts successfully."
	c.JSON(http.StatusOK, response)
}

// CreatePost handles POST /feed/post - JSON, or multipart with an optional image
func (fc *FeedController) CreatePost(c *gin.Context) {
	var req models.PostRequest
	if err := bind(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	response, err := fc.feedService.CreatePost(c.Request.Context(), middleware.UserID(c), &req, middleware.UploadedFile(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.Message = "Post created successfully!"
	c.JSON(http.StatusCreated, response)
}

// GetPost handles GET /feed/post/:postId
func (fc *FeedController) GetPost(c *gin.Context) {
	post, err := fc.feedService.GetPost(c.Request.Context(), c.Param("postId"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.PostEnvelope{Message: "Post fetched.", Post: post})
}

// UpdatePost handles PUT /feed/post/:postId
func (fc *FeedController) UpdatePost(c *gin.Context) {
	var req models.PostRequest
	if err := bind(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	post, err := fc.feedService.UpdatePost(c.Request.Context(), middleware.UserID(c), c.Param("postId"), &req, middleware.UploadedFile(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.PostEnvelope{Message: "Post updated!", Post: post})
}

// DeletePost handles DELETE /feed/post/:postId
func (fc *FeedController) DeletePost(c *gin.Context) {
	if err := fc.feedService.DeletePost(c.Request.Context(), middleware.UserID(c), c.Param("postId")); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Message: "Deleted post."})
}

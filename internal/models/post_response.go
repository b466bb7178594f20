package models

import (
	"time"

	"blog-be/internal/entities"
)

type CreatorResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type PostResponse struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Content   string           `json:"content"`
	ImageURL  *string          `json:"imageUrl"`
	Creator   *CreatorResponse `json:"creator"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

type PostListResponse struct {
	Message    string          `json:"message"`
	Posts      []*PostResponse `json:"posts"`
	TotalItems int64           `json:"totalItems"`
}

type PostEnvelope struct {
	Message string        `json:"message"`
	Post    *PostResponse `json:"post"`
}

type CreatePostResponse struct {
	Message string           `json:"message"`
	Post    *PostResponse    `json:"post"`
	Creator *CreatorResponse `json:"creator"`
}

// NewCreatorResponse converts a user to the embedded creator shape.
func NewCreatorResponse(u *entities.User) *CreatorResponse {
	if u == nil {
		return nil
	}
	name := ""
	if u.Name != nil {
		name = *u.Name
	}
	return &CreatorResponse{ID: u.ID, Name: name}
}

// NewPostResponse converts a post entity to its API shape.
func NewPostResponse(p *entities.Post) *PostResponse {
	resp := &PostResponse{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		ImageURL:  p.ImageURL,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.Creator != nil {
		resp.Creator = NewCreatorResponse(p.Creator)
	} else if p.CreatorID != "" {
		resp.Creator = &CreatorResponse{ID: p.CreatorID}
	}
	return resp
}

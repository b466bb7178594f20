package models

// PostRequest represents the body for creating or updating a post.
// It arrives either as JSON or as multipart form fields next to the image file.
type PostRequest struct {
	Title   string `json:"title" form:"title" binding:"required,min=5"`
	Content string `json:"content" form:"content" binding:"required,min=5"`
}

package entities

import "time"

// Post represents a feed entry in the database
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImageURL  *string   `json:"image_url,omitempty"` // Path into the upload store, nil when no image
	CreatorID string    `json:"creator_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Creator is filled by list/get queries that join the owning user.
	Creator *User `json:"creator,omitempty"`
}

// IsOwnedBy reports whether userID created the post.
func (p *Post) IsOwnedBy(userID string) bool {
	return p.CreatorID != "" && p.CreatorID == userID
}

// Package mongostore implements the repository interfaces on MongoDB.
package mongostore

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"blog-be/internal/entities"
	"blog-be/internal/repository"
)

const (
	usersCollection = "users"
	postsCollection = "posts"
)

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	Name         *string            `bson:"name,omitempty"`
	Status       string             `bson:"status"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func (d *userDocument) entity() *entities.User {
	return &entities.User{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Name:         d.Name,
		Status:       d.Status,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type postDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Title     string             `bson:"title"`
	Content   string             `bson:"content"`
	ImageURL  *string            `bson:"image_url"`
	CreatorID primitive.ObjectID `bson:"creator"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d *postDocument) entity() *entities.Post {
	return &entities.Post{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		Content:   d.Content,
		ImageURL:  d.ImageURL,
		CreatorID: d.CreatorID.Hex(),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// objectID parses a hex id; malformed ids can never match a document.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, repository.ErrNotFound
	}
	return oid, nil
}

// now is truncated to the millisecond precision BSON dates keep.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

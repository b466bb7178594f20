package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"blog-be/internal/entities"
	"blog-be/internal/repository"
)

type postRepository struct {
	posts *mongo.Collection
	users *mongo.Collection
}

// NewPostRepository creates a MongoDB-backed post repository
func NewPostRepository(db *mongo.Database) repository.PostRepository {
	return &postRepository{
		posts: db.Collection(postsCollection),
		users: db.Collection(usersCollection),
	}
}

func (r *postRepository) Create(ctx context.Context, post *entities.Post) (*entities.Post, error) {
	creator, err := objectID(post.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to create post: invalid creator id %q", post.CreatorID)
	}

	ts := now()
	doc := postDocument{
		ID:        primitive.NewObjectID(),
		Title:     post.Title,
		Content:   post.Content,
		ImageURL:  post.ImageURL,
		CreatorID: creator,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if _, err := r.posts.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	created := doc.entity()
	if err := r.populateCreators(ctx, []*entities.Post{created}); err != nil {
		return nil, err
	}
	return created, nil
}

func (r *postRepository) FindByID(ctx context.Context, id string) (*entities.Post, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc postDocument
	err = r.posts.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}

	post := doc.entity()
	if err := r.populateCreators(ctx, []*entities.Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}

func (r *postRepository) List(ctx context.Context, offset, limit int) ([]*entities.Post, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.posts.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	var docs []postDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode posts: %w", err)
	}

	posts := make([]*entities.Post, 0, len(docs))
	for i := range docs {
		posts = append(posts, docs[i].entity())
	}
	if err := r.populateCreators(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) Count(ctx context.Context) (int64, error) {
	total, err := r.posts.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return total, nil
}

func (r *postRepository) Update(ctx context.Context, post *entities.Post) (*entities.Post, error) {
	oid, err := objectID(post.ID)
	if err != nil {
		return nil, err
	}
	creator, err := objectID(post.CreatorID)
	if err != nil {
		return nil, err
	}

	res, err := r.posts.UpdateOne(ctx,
		bson.M{"_id": oid, "creator": creator},
		bson.M{"$set": bson.M{
			"title":      post.Title,
			"content":    post.Content,
			"image_url":  post.ImageURL,
			"updated_at": now(),
		}},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, repository.ErrNotFound
	}

	return r.FindByID(ctx, post.ID)
}

func (r *postRepository) Delete(ctx context.Context, id, creatorID string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	creator, err := objectID(creatorID)
	if err != nil {
		return err
	}

	res, err := r.posts.DeleteOne(ctx, bson.M{"_id": oid, "creator": creator})
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// populateCreators loads the owning users of posts with a single $in query.
func (r *postRepository) populateCreators(ctx context.Context, posts []*entities.Post) error {
	if len(posts) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(posts))
	ids := make([]primitive.ObjectID, 0, len(posts))
	for _, p := range posts {
		if seen[p.CreatorID] {
			continue
		}
		seen[p.CreatorID] = true
		if oid, err := primitive.ObjectIDFromHex(p.CreatorID); err == nil {
			ids = append(ids, oid)
		}
	}

	cursor, err := r.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return fmt.Errorf("failed to load post creators: %w", err)
	}
	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return fmt.Errorf("failed to decode post creators: %w", err)
	}

	byID := make(map[string]*entities.User, len(docs))
	for i := range docs {
		u := docs[i].entity()
		byID[u.ID] = u
	}
	for _, p := range posts {
		p.Creator = byID[p.CreatorID]
	}
	return nil
}

package mongostore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"blog-be/internal/repository"
)

func TestObjectIDRejectsMalformed(t *testing.T) {
	_, err := objectID("not-an-object-id")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	oid := primitive.NewObjectID()
	got, err := objectID(oid.Hex())
	require.NoError(t, err)
	assert.Equal(t, oid, got)
}

func TestPostDocumentRoundTrip(t *testing.T) {
	image := "images/42-cat.png"
	doc := postDocument{
		ID:        primitive.NewObjectID(),
		Title:     "Hello world",
		Content:   "First post",
		ImageURL:  &image,
		CreatorID: primitive.NewObjectID(),
		CreatedAt: now(),
		UpdatedAt: now(),
	}

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	var decoded postDocument
	require.NoError(t, bson.Unmarshal(raw, &decoded))

	post := decoded.entity()
	assert.Equal(t, doc.ID.Hex(), post.ID)
	assert.Equal(t, doc.CreatorID.Hex(), post.CreatorID)
	require.NotNil(t, post.ImageURL)
	assert.Equal(t, image, *post.ImageURL)
	assert.True(t, post.CreatedAt.Equal(doc.CreatedAt))
}

func TestPostDocumentNullImage(t *testing.T) {
	raw, err := bson.Marshal(postDocument{ID: primitive.NewObjectID(), CreatorID: primitive.NewObjectID()})
	require.NoError(t, err)

	var decoded postDocument
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	assert.Nil(t, decoded.entity().ImageURL)
}

func TestNowIsMillisecondPrecision(t *testing.T) {
	ts := now()
	assert.Equal(t, ts, ts.Truncate(time.Millisecond))
	assert.Equal(t, time.UTC, ts.Location())
}

// Package notify pushes feed changes to connected websocket clients.
// Delivery is best effort: no acknowledgement, no replay for late joiners.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"blog-be/internal/models"
)

// ChannelPosts names the event stream clients listen to for feed changes.
const ChannelPosts = "posts"

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Event is the payload pushed to every client.
type Event struct {
	Channel string               `json:"event"`
	Action  string               `json:"action"`
	Post    *models.PostResponse `json:"post,omitempty"`
	PostID  string               `json:"postId,omitempty"`
}

// Publisher delivers an event to every connected client.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// PostEvent builds a create or update event carrying the post.
func PostEvent(action string, post *models.PostResponse) Event {
	return Event{Channel: ChannelPosts, Action: action, Post: post}
}

// DeleteEvent builds a delete event carrying only the post id.
func DeleteEvent(postID string) Event {
	return Event{Channel: ChannelPosts, Action: ActionDelete, PostID: postID}
}

func encode(ev Event) ([]byte, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return payload, nil
}

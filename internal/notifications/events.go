package notifications

import (
	"encoding/json"
	"fmt"
)

// Live feed event types.
const (
	EventCommunityRecipePublished = "community_recipe_published"
	EventCommunityRecipeRejected  = "community_recipe_rejected"
	EventRecipeModerated          = "recipe_moderated"
	EventCommentCreated           = "comment_created"
	EventCommentDeleted           = "comment_deleted"
	EventRecipeLiked              = "recipe_liked"
	EventMessagesDropped          = "messages_dropped"
)

// Event is the envelope written to websocket clients.
type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

// Encode marshals an event into the wire format.
func Encode(eventType string, payload map[string]any) (string, error) {
	b, err := json.Marshal(Event{Type: eventType, Payload: payload})
	if err != nil {
		return "", fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	return string(b), nil
}

package services

import (
	"context"
	"time"
)

// Routing keys of the events published by ImageService.
const (
	EventImageUploaded = "image.uploaded"
	EventImageDeleted  = "image.deleted"
)

// EventPublisher delivers serialized events to a message broker.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// ImageEvent is the payload of every image.* event.
type ImageEvent struct {
	Type     string    `json:"type"`
	ImageID  string    `json:"imageId"`
	PublicID string    `json:"publicId"`
	URL      string    `json:"url"`
	UserID   string    `json:"userId"`
	At       time.Time `json:"at"`
}

// ListCache caches serialized listing pages. Get reports the generation it
// looked in; Set stores the value only while that generation is still
// current, so a page read before an Invalidate is never cached after it.
type ListCache interface {
	Get(ctx context.Context, key string) (value []byte, gen int64, found bool, err error)
	Set(ctx context.Context, gen int64, key string, value []byte) error
	// Invalidate drops every cached page.
	Invalidate(ctx context.Context) error
}

// PasswordHasher hashes and verifies passwords without tying up the caller
// for longer than ctx allows.
type PasswordHasher interface {
	Hash(ctx context.Context, plain string) (string, error)
	Compare(ctx context.Context, hash, plain string) (bool, error)
}

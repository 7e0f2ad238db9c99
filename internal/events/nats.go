// Package events publishes post lifecycle notifications.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/imagefeed/service/internal/post"
)

// Subjects used on the bus.
const (
	SubjectPostCreated = "post.created"
	SubjectPostDeleted = "post.deleted"
)

// PostCreatedEvent is the payload of SubjectPostCreated.
type PostCreatedEvent struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	URL       string    `json:"url"`
	FileType  string    `json:"file_type"`
	CreatedAt time.Time `json:"created_at"`
}

// PostDeletedEvent is the payload of SubjectPostDeleted.
type PostDeletedEvent struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
}

// conn is the part of *nats.Conn the publisher uses.
type conn interface {
	PublishMsg(m *nats.Msg) error
}

// NatsPublisher publishes post events as JSON on NATS.
type NatsPublisher struct {
	nc conn
}

// NewNatsPublisher creates a publisher over an established connection.
func NewNatsPublisher(nc *nats.Conn) *NatsPublisher {
	return &NatsPublisher{nc: nc}
}

// Connect dials url with reconnects enabled.
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("imagefeed-api"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return nc, nil
}

// PostCreated publishes a post.created event.
func (p *NatsPublisher) PostCreated(ctx context.Context, created post.Post) error {
	return p.publish(ctx, SubjectPostCreated, PostCreatedEvent{
		ID:        created.ID.String(),
		UserID:    created.UserID.String(),
		URL:       created.URL,
		FileType:  string(created.FileType),
		CreatedAt: created.CreatedAt,
	})
}

// PostDeleted publishes a post.deleted event.
func (p *NatsPublisher) PostDeleted(ctx context.Context, deleted post.Post) error {
	return p.publish(ctx, SubjectPostDeleted, PostDeletedEvent{
		ID:     deleted.ID.String(),
		UserID: deleted.UserID.String(),
	})
}

func (p *NatsPublisher) publish(ctx context.Context, subject string, payload interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", subject, err)
	}

	msg := &nats.Msg{Subject: subject, Data: data, Header: nats.Header{}}
	msg.Header.Set("Content-Type", "application/json")
	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	log.Debug().Str("subject", subject).Msg("event published")
	return nil
}

// Noop discards every event. Used when no bus is configured.
type Noop struct{}

func (Noop) PostCreated(context.Context, post.Post) error { return nil }
func (Noop) PostDeleted(context.Context, post.Post) error { return nil }

package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/imagefeed/service/internal/post"
)

type captureConn struct {
	msgs []*nats.Msg
	err  error
}

func (c *captureConn) PublishMsg(m *nats.Msg) error {
	c.msgs = append(c.msgs, m)
	return c.err
}

func TestPublishPostEvents(t *testing.T) {
	conn := &captureConn{}
	pub := &NatsPublisher{nc: conn}
	p := post.Post{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		URL:       "https://cdn/x/cat.png",
		FileType:  post.FileTypeImage,
		CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	if err := pub.PostCreated(context.Background(), p); err != nil {
		t.Fatalf("PostCreated() error = %v", err)
	}
	if err := pub.PostDeleted(context.Background(), p); err != nil {
		t.Fatalf("PostDeleted() error = %v", err)
	}
	if len(conn.msgs) != 2 {
		t.Fatalf("published %d messages, want 2", len(conn.msgs))
	}

	created := conn.msgs[0]
	if created.Subject != SubjectPostCreated || created.Header.Get("Content-Type") != "application/json" {
		t.Errorf("created msg = %s %v", created.Subject, created.Header)
	}
	var ce PostCreatedEvent
	if err := json.Unmarshal(created.Data, &ce); err != nil {
		t.Fatal(err)
	}
	if ce.ID != p.ID.String() || ce.UserID != p.UserID.String() || ce.FileType != "image" || !ce.CreatedAt.Equal(p.CreatedAt) {
		t.Errorf("created event = %+v", ce)
	}

	var de PostDeletedEvent
	if err := json.Unmarshal(conn.msgs[1].Data, &de); err != nil {
		t.Fatal(err)
	}
	if conn.msgs[1].Subject != SubjectPostDeleted || de.ID != p.ID.String() {
		t.Errorf("deleted event = %s %+v", conn.msgs[1].Subject, de)
	}
}

func TestPublishErrors(t *testing.T) {
	cause := errors.New("no responders")
	pub := &NatsPublisher{nc: &captureConn{err: cause}}
	if err := pub.PostCreated(context.Background(), post.Post{}); !errors.Is(err, cause) {
		t.Errorf("err = %v, want %v", err, cause)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	conn := &captureConn{}
	pub = &NatsPublisher{nc: conn}
	if err := pub.PostDeleted(ctx, post.Post{}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if len(conn.msgs) != 0 {
		t.Error("published on a canceled context")
	}
}

func TestNoop(t *testing.T) {
	var pub post.Publisher = Noop{}
	if err := pub.PostCreated(context.Background(), post.Post{}); err != nil {
		t.Error(err)
	}
	if err := pub.PostDeleted(context.Background(), post.Post{}); err != nil {
		t.Error(err)
	}
}

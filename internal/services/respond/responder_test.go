package respond_test

import (
	"context"
	"testing"

	"tonbridge/internal/domain"
	"tonbridge/internal/services/respond"
	"tonbridge/internal/services/servicetest"
)

func TestResponder_SuccessAndError(t *testing.T) {
	relay := servicetest.NewRelay()
	peer := servicetest.NewPeer(t)
	sess := peer.Session(t, "w1")
	r := respond.New(relay)
	ctx := context.Background()

	if err := r.Success(ctx, sess, "1", map[string]any{}); err != nil {
		t.Fatalf("success: %v", err)
	}
	if err := r.Error(ctx, sess, "2", domain.ErrorCodeMethodNotSupported, ""); err != nil {
		t.Fatalf("error: %v", err)
	}

	posts := relay.Posts()
	if len(posts) != 2 {
		t.Fatalf("posts = %d", len(posts))
	}
	for _, p := range posts {
		if p.From != sess.ClientID || p.To != peer.ID() || p.TTL != respond.DefaultTTL {
			t.Fatalf("routing = %+v", p)
		}
	}
	if m := peer.Open(t, posts[0]); m["id"] != "1" {
		t.Fatalf("success = %v", m)
	}
	m := peer.Open(t, posts[1])
	e, _ := m["error"].(map[string]any)
	if m["id"] != "2" || e["code"] != float64(400) || e["message"] != "method not supported" {
		t.Fatalf("error = %v", m)
	}
}

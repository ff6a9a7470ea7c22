package relay_test

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"syscall"
	"testing"
	"time"

	"tonbridge/internal/domain"
	"tonbridge/internal/relay"
)

func TestPostMessage_Query(t *testing.T) {
	type captured struct{ query, body string }
	got := make(chan captured, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/message" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		b, _ := io.ReadAll(r.Body)
		got <- captured{query: r.URL.RawQuery, body: string(b)}
	}))
	defer srv.Close()

	c := relay.NewHTTP(srv.URL+"/", nil)
	if err := c.PostMessage(context.Background(), "aa", "bb", []byte("cipher"), 300*time.Second); err != nil {
		t.Fatalf("post: %v", err)
	}
	c0 := <-got
	if c0.query != "client_id=aa&to=bb&ttl=300" {
		t.Fatalf("query = %q", c0.query)
	}
	if c0.body != base64.StdEncoding.EncodeToString([]byte("cipher")) {
		t.Fatalf("body = %q", c0.body)
	}
}

func TestPostMessage_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := relay.NewHTTP(srv.URL, nil).PostMessage(context.Background(), "aa", "bb", nil, time.Minute)
	if err == nil {
		t.Fatal("expected error on 400")
	}
	if relay.IsNoConnectivity(err) {
		t.Fatalf("status error classified as connectivity: %v", err)
	}
}

func TestSubscribe_Events(t *testing.T) {
	queries := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries <- r.URL.RawQuery
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": hello\n\n")
		fmt.Fprint(w, "event: heartbeat\ndata: \n\n")
		fmt.Fprint(w, "event: message\nid: 17\ndata: {\"from\":\"bb\",\n")
		fmt.Fprint(w, "data: \"message\":\"x\"}\n\n")
		fmt.Fprint(w, "data: second\n\n")
		fmt.Fprint(w, "data: truncated")
	}))
	defer srv.Close()

	c := relay.NewHTTP(srv.URL, nil)
	s, err := c.Subscribe(context.Background(), []domain.ClientID{"aa", "cc"}, "9")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer s.Close()

	if q := <-queries; q != "client_id=aa%2Ccc&last_event_id=9" {
		t.Fatalf("query = %q", q)
	}

	ev, err := s.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if ev.Event != "heartbeat" {
		t.Fatalf("event 1 = %+v", ev)
	}

	ev, err = s.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if ev.Event != "message" || ev.ID != "17" || string(ev.Data) != "{\"from\":\"bb\",\n\"message\":\"x\"}" {
		t.Fatalf("event 2 = %+v (%s)", ev, ev.Data)
	}

	ev, err = s.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if ev.Event != "message" || ev.ID != "17" || string(ev.Data) != "second" {
		t.Fatalf("event 3 = %+v", ev)
	}

	if _, err := s.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("err = %v, want io.EOF", err)
	}
}

func TestSubscribe_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := relay.NewHTTP(srv.URL, nil).Subscribe(context.Background(), []domain.ClientID{"aa"}, ""); err == nil {
		t.Fatal("expected error on 503")
	}
}

func TestIsNoConnectivity(t *testing.T) {
	opErr := func(errno syscall.Errno) error {
		return &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", errno)}
	}
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"unreachable", opErr(syscall.ENETUNREACH), true},
		{"host", opErr(syscall.EHOSTUNREACH), true},
		{"reset", opErr(syscall.ECONNRESET), true},
		{"dial timeout", opErr(syscall.ETIMEDOUT), true},
		{"read timeout", &net.OpError{Op: "read", Net: "tcp", Err: os.NewSyscallError("read", syscall.ETIMEDOUT)}, true},
		{"dns", &net.DNSError{Err: "server misbehaving", Name: "relay", IsTemporary: true}, true},
		{"nxdomain", &net.DNSError{Err: "no such host", Name: "relay", IsNotFound: true}, false},
		{"refused", opErr(syscall.ECONNREFUSED), false},
		{"other", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := relay.IsNoConnectivity(tc.err); got != tc.want {
				t.Fatalf("IsNoConnectivity(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

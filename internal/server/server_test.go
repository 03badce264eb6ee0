package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/monsterwatch/scvfeed/internal/feed"
	"github.com/monsterwatch/scvfeed/internal/notify"
	"github.com/monsterwatch/scvfeed/internal/rarity"
	"github.com/monsterwatch/scvfeed/internal/rules"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	f := feed.New(nil, nil, nil, rarity.DefaultParams(), nil, rules.Options{}, nil,
		time.Second, time.Second, 1)
	d := notify.NewDispatcher(1, time.Second)
	return New(":0", f, d)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestStatus(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var resp statusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.UptimeSeconds < 0 {
		t.Errorf("UptimeSeconds = %d", resp.UptimeSeconds)
	}
	if resp.Feed.OffersSeen != 0 || resp.AlertsDelivered != 0 {
		t.Errorf("counters not zero on fresh server: %+v", resp)
	}
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

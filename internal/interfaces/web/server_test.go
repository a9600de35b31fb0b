package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"kfmon/internal/application/port"
	"kfmon/internal/application/service/render"
	"kfmon/internal/domain"
	"kfmon/internal/infrastructure/storage/memory"
)

func newTestServer(t *testing.T, store port.Store, cache port.LatestCache) (*Server, *httptest.Server) {
	t.Helper()
	resolver := domain.NewResolver(nil)
	s := NewServer(render.New(store, resolver), cache, NewHub(), resolver)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func seed(t *testing.T, store *memory.Store, cache *memory.Cache, ts time.Time) {
	t.Helper()
	e := domain.NewEntry(ts)
	e.Equity = 2000
	e.Positions = []domain.Position{
		{Symbol: "pf_xbtusd", Size: 0.5, Side: "long"},
		{Symbol: "pf_flatusd", Size: 0, Side: "long"}, // uniformly zero, elided
	}
	e.Signals = map[string]domain.Signal{
		"BTCUSDT": {Timeframe: "15m", Value: 1, UpdatedAt: ts},
	}
	if err := store.Append(context.Background(), e); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := cache.SetLatest(context.Background(), e); err != nil {
		t.Fatalf("SetLatest failed: %v", err)
	}
}

func TestIndexRendersTables(t *testing.T) {
	store := memory.NewStore()
	cache := memory.NewCache()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seed(t, store, cache, now.Add(-time.Minute))

	s, srv := newTestServer(t, store, cache)
	s.now = func() time.Time { return now }

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET / failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	page := string(body)

	if !strings.Contains(page, "pf_xbtusd") {
		t.Error("open position missing from page")
	}
	// shown once in the current-state table, elided from the window table
	if n := strings.Count(page, "pf_flatusd"); n != 1 {
		t.Errorf("all-zero size symbol should be elided from the window table, found %d occurrences", n)
	}
	if !strings.Contains(page, "2000.00") {
		t.Error("equity missing from page")
	}
	if !strings.Contains(page, "BTCUSDT") {
		t.Error("signal matrix missing from page")
	}
}

type brokenStore struct{ port.Store }

func (b *brokenStore) QueryRange(ctx context.Context, start, end time.Time) (*port.RangeRows, error) {
	return nil, errors.New("database is locked")
}

func TestIndexShowsNoDataOnReadFailure(t *testing.T) {
	_, srv := newTestServer(t, &brokenStore{}, memory.NewCache())

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET / failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "no data") {
		t.Error("read failure must surface as a no-data state, not a crash")
	}
}

func TestRangeAPI(t *testing.T) {
	store := memory.NewStore()
	cache := memory.NewCache()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seed(t, store, cache, now.Add(-time.Minute))

	s, srv := newTestServer(t, store, cache)
	s.now = func() time.Time { return now }

	resp, err := http.Get(srv.URL + "/api/range?window=24h")
	if err != nil {
		t.Fatalf("GET /api/range failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var view domain.RangeView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(view.Equity) != 1 || view.Equity[0].Value != 2000 {
		t.Errorf("equity series = %+v", view.Equity)
	}
	if _, ok := view.Symbols["pf_xbtusd"]; !ok {
		t.Error("symbol series missing from API response")
	}
}

func TestRangeAPIReadFailure(t *testing.T) {
	_, srv := newTestServer(t, &brokenStore{}, memory.NewCache())

	resp, err := http.Get(srv.URL + "/api/range")
	if err != nil {
		t.Fatalf("GET /api/range failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
}

func TestWindowParam(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Duration
	}{
		{"", defaultWindow},
		{"72h", 72 * time.Hour},
		{"168h", 168 * time.Hour},
		{"999h", maxWindow},
		{"garbage", defaultWindow},
		{"-5h", defaultWindow},
	}
	for _, c := range cases {
		r := httptest.NewRequest(http.MethodGet, "/?window="+c.raw, nil)
		if got := windowParam(r); got != c.want {
			t.Errorf("windowParam(%q) = %v, want %v", c.raw, got, c.want)
		}
	}
}

func TestHealthz(t *testing.T) {
	_, srv := newTestServer(t, memory.NewStore(), memory.NewCache())
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestHubPushesEntries(t *testing.T) {
	store := memory.NewStore()
	s, srv := newTestServer(t, store, memory.NewCache())

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	defer conn.Close()

	// wait for the server side to register the connection
	deadline := time.Now().Add(2 * time.Second)
	for {
		s.hub.mu.Lock()
		n := len(s.hub.clients)
		s.hub.mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	e := domain.NewEntry(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	e.Equity = 777
	s.hub.Publish(e)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var got liveMessage
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if got.Equity != 777 {
		t.Errorf("pushed equity = %v, want 777", got.Equity)
	}
}

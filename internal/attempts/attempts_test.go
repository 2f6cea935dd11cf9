package attempts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/park285/cheese-llm-move/internal/domain"
)

const (
	testFEN  = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	otherFEN = "4k3/8/8/8/8/8/8/4K3 w - - 0 1"
)

func sampleAttempt(i int, at time.Time) domain.Attempt {
	return domain.Attempt{
		ID:         fmt.Sprintf("att-%02d", i),
		CreatedAt:  at,
		FEN:        testFEN,
		Rating:     "1500",
		Retry:      i%2 == 1,
		Completion: "e2e4",
		Outcome:    "accepted",
		Move:       "e2e4",
		ResultFEN:  "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1",
		Latency:    120 * time.Millisecond,
	}
}

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, ttl), mr
}

func mustRecord(t *testing.T, r Recorder, a domain.Attempt) {
	t.Helper()
	if err := r.Record(context.Background(), a); err != nil {
		t.Fatalf("Record %s: %v", a.ID, err)
	}
}

func ids(list []domain.Attempt) []string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.ID)
	}
	return out
}

func TestRedisStore_RecordAndRecent(t *testing.T) {
	s, mr := newRedisStore(t, time.Hour)
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i := 0; i < 3; i++ {
		mustRecord(t, s, sampleAttempt(i, base.Add(time.Duration(i)*time.Second)))
	}

	got, err := s.Recent(context.Background(), testFEN, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if strings.Join(ids(got), ",") != "att-02,att-01,att-00" {
		t.Fatalf("expected newest first, got %v", ids(got))
	}
	if got[0].Latency != 120*time.Millisecond {
		t.Fatalf("latency = %v", got[0].Latency)
	}
	if !got[0].CreatedAt.Equal(base.Add(2 * time.Second)) {
		t.Fatalf("created_at = %v", got[0].CreatedAt)
	}

	if !mr.Exists("attempt:att-00") {
		t.Fatalf("attempt key missing")
	}
	if ttl := mr.TTL("attempt:att-00"); ttl != time.Hour {
		t.Fatalf("attempt ttl = %v", ttl)
	}
	if ttl := mr.TTL("attempts:pos:" + PositionKey(testFEN)); ttl != time.Hour {
		t.Fatalf("index ttl = %v", ttl)
	}
}

func TestRedisStore_TrimsIndex(t *testing.T) {
	s, mr := newRedisStore(t, time.Hour)
	for i := 0; i < MaxLimit+5; i++ {
		mustRecord(t, s, sampleAttempt(i, time.Now()))
	}
	list, err := mr.List("attempts:pos:" + PositionKey(testFEN))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != MaxLimit {
		t.Fatalf("index length = %d, want %d", len(list), MaxLimit)
	}

	got, err := s.Recent(context.Background(), testFEN, 3)
	if err != nil || len(got) != 3 {
		t.Fatalf("Recent = %d entries, err %v", len(got), err)
	}
}

func TestRedisStore_SkipsExpired(t *testing.T) {
	s, mr := newRedisStore(t, time.Hour)
	mustRecord(t, s, sampleAttempt(1, time.Now()))
	mustRecord(t, s, sampleAttempt(2, time.Now()))
	mr.Del("attempt:att-01")

	got, err := s.Recent(context.Background(), testFEN, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 || got[0].ID != "att-02" {
		t.Fatalf("expected only att-02, got %v", ids(got))
	}
}

func TestRedisStore_UnknownPosition(t *testing.T) {
	s, _ := newRedisStore(t, 0)
	got, err := s.Recent(context.Background(), otherFEN, 5)
	if err != nil || len(got) != 0 {
		t.Fatalf("Recent = %v, err %v", ids(got), err)
	}
}

func TestRedisStore_RequiresID(t *testing.T) {
	s, _ := newRedisStore(t, 0)
	a := sampleAttempt(0, time.Now())
	a.ID = ""
	if err := s.Record(context.Background(), a); err == nil {
		t.Fatalf("expected error for empty id")
	}
}

func TestLedger_SQLite(t *testing.T) {
	ctx := context.Background()
	l, err := OpenLedger(ctx, "sqlite://:memory:")
	if err != nil {
		t.Fatalf("OpenLedger: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	for i := 0; i < 2; i++ {
		if err := l.EnsureSchema(ctx); err != nil {
			t.Fatalf("EnsureSchema #%d: %v", i+1, err)
		}
	}

	base := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	for i := 0; i < 4; i++ {
		mustRecord(t, l, sampleAttempt(i, base.Add(time.Duration(i)*time.Minute)))
	}
	if err := l.Record(ctx, sampleAttempt(0, base)); err == nil {
		t.Fatalf("expected duplicate id error")
	}

	got, err := l.Recent(ctx, testFEN, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if strings.Join(ids(got), ",") != "att-03,att-02" {
		t.Fatalf("expected newest two, got %v", ids(got))
	}
	if !got[0].Retry || got[1].Retry {
		t.Fatalf("retry flags = %v, %v", got[0].Retry, got[1].Retry)
	}
	if got[0].Latency != 120*time.Millisecond || got[0].FEN != testFEN {
		t.Fatalf("unexpected row: %+v", got[0])
	}

	none, err := l.Recent(ctx, otherFEN, 5)
	if err != nil || len(none) != 0 {
		t.Fatalf("Recent other = %v, err %v", ids(none), err)
	}
}

func TestParseDatabaseURL(t *testing.T) {
	cases := map[string]string{
		"postgres://u:p@localhost/db":   "postgres",
		"postgresql://localhost/db":     "postgres",
		"sqlite:///tmp/attempts.db":     "sqlite3",
		"file:attempts.db?cache=shared": "sqlite3",
	}
	for raw, want := range cases {
		driver, _, err := parseDatabaseURL(raw)
		if err != nil {
			t.Fatalf("parseDatabaseURL(%q): %v", raw, err)
		}
		if driver != want {
			t.Fatalf("parseDatabaseURL(%q) driver = %q, want %q", raw, driver, want)
		}
	}
	for _, bad := range []string{"mysql://x", " "} {
		if _, _, err := parseDatabaseURL(bad); err == nil {
			t.Fatalf("parseDatabaseURL(%q): expected error", bad)
		}
	}
}

func TestLedger_RebindPostgres(t *testing.T) {
	l := &Ledger{driver: "postgres"}
	if got := l.rebind("a = ? AND b = ?"); got != "a = $1 AND b = $2" {
		t.Fatalf("postgres rebind = %q", got)
	}
	l.driver = "sqlite3"
	if got := l.rebind("a = ?"); got != "a = ?" {
		t.Fatalf("sqlite rebind = %q", got)
	}
}

type stubRecorder struct {
	n   int
	err error
}

func (s *stubRecorder) Record(context.Context, domain.Attempt) error {
	s.n++
	return s.err
}

func TestFanout_RecordsToAllAndAggregates(t *testing.T) {
	ok := &stubRecorder{}
	bad1 := &stubRecorder{err: errors.New("redis down")}
	bad2 := &stubRecorder{err: errors.New("db down")}
	f := NewFanout(bad1, nil, ok, bad2)
	if f.Len() != 3 {
		t.Fatalf("Len = %d, want 3", f.Len())
	}

	err := f.Record(context.Background(), sampleAttempt(0, time.Now()))
	if err == nil {
		t.Fatalf("expected aggregated error")
	}
	for _, want := range []string{"redis down", "db down"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %q", err, want)
		}
	}
	if ok.n != 1 || bad1.n != 1 || bad2.n != 1 {
		t.Fatalf("record counts = %d, %d, %d", ok.n, bad1.n, bad2.n)
	}

	mustRecord(t, NewFanout(ok), sampleAttempt(1, time.Now()))
	mustRecord(t, NewFanout(), sampleAttempt(1, time.Now()))
}

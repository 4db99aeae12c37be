package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"github.com/shaiso/Harvester/internal/domain"
	"github.com/shaiso/Harvester/internal/mq"
	"github.com/shaiso/Harvester/internal/scheduler"
)

// --- Fakes ---

type published struct {
	queue   mq.Queue
	payload any
}

type fakePublisher struct {
	calls []published
	err   error
}

func (p *fakePublisher) Publish(_ context.Context, queue mq.Queue, payload any) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.calls = append(p.calls, published{queue: queue, payload: payload})
	return "msg-1", nil
}

type buffers struct {
	out, err bytes.Buffer
}

func (b *buffers) outputFn(jsonMode bool) func() *Output {
	return func() *Output { return NewOutputTo(&b.out, &b.err, jsonMode) }
}

func fixedNow(s string) func() time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func run(cmd *cobra.Command, args ...string) error {
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd.Execute()
}

// --- scrape ---

func TestScrapeCmd_PublishesToScraperQueue(t *testing.T) {
	pub := &fakePublisher{}
	released := false
	publisherFn := func(context.Context) (Publisher, func(), error) {
		return pub, func() { released = true }, nil
	}
	var b buffers

	cmd := NewScrapeCmd(publisherFn, b.outputFn(true), fixedNow("2025-08-19T12:00:00Z"))
	if err := run(cmd, "ptax", "--date", "2025-08-18"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(pub.calls) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(pub.calls))
	}
	if pub.calls[0].queue != mq.QueuePtaxScraper {
		t.Errorf("expected queue %s, got %s", mq.QueuePtaxScraper, pub.calls[0].queue)
	}
	req, ok := pub.calls[0].payload.(domain.ScrapeRequest)
	if !ok || req.FromDate != "2025-08-18" {
		t.Errorf("unexpected payload %#v", pub.calls[0].payload)
	}
	if !released {
		t.Error("publisher should be released")
	}

	var result ScrapeResult
	if err := json.Unmarshal(b.out.Bytes(), &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, b.out.String())
	}
	if result.ID != "msg-1" || result.Queue != string(mq.QueuePtaxScraper) || result.Source != "ptax" {
		t.Errorf("unexpected result %+v", result)
	}
	if !strings.Contains(b.err.String(), "published") {
		t.Errorf("expected success message, got %q", b.err.String())
	}
}

func TestScrapeCmd_DefaultDateInTimezone(t *testing.T) {
	pub := &fakePublisher{}
	publisherFn := func(context.Context) (Publisher, func(), error) { return pub, func() {}, nil }
	var b buffers

	// 01:00 UTC 20 августа — ещё 19 августа в Сан-Паулу
	cmd := NewScrapeCmd(publisherFn, b.outputFn(false), fixedNow("2025-08-20T01:00:00Z"))
	if err := run(cmd, "the_news"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := pub.calls[0].payload.(domain.ScrapeRequest)
	if req.FromDate != "2025-08-19" {
		t.Errorf("expected 2025-08-19, got %s", req.FromDate)
	}
	if pub.calls[0].queue != mq.QueueTheNewsScraper {
		t.Errorf("unexpected queue %s", pub.calls[0].queue)
	}
	if !strings.Contains(b.out.String(), string(mq.QueueTheNewsScraper)) {
		t.Errorf("table should contain the queue, got:\n%s", b.out.String())
	}
}

func TestScrapeCmd_CmeWithoutDate(t *testing.T) {
	pub := &fakePublisher{}
	publisherFn := func(context.Context) (Publisher, func(), error) { return pub, func() {}, nil }
	var b buffers

	cmd := NewScrapeCmd(publisherFn, b.outputFn(false), fixedNow("2025-08-19T12:00:00Z"))
	if err := run(cmd, "cme"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := pub.calls[0].payload.(domain.ScrapeRequest)
	if req.FromDate != "" {
		t.Errorf("cme request should have no date, got %q", req.FromDate)
	}
}

func TestScrapeCmd_Errors(t *testing.T) {
	publishErr := errors.New("broker down")

	tests := []struct {
		name    string
		args    []string
		pub     *fakePublisher
		wantErr error
	}{
		{"unknown source", []string{"bovespa"}, &fakePublisher{}, domain.ErrUnknownSource},
		{"invalid date", []string{"ptax", "--date", "19/08/2025"}, &fakePublisher{}, domain.ErrInvalidDate},
		{"publish error", []string{"ptax", "--date", "2025-08-19"}, &fakePublisher{err: publishErr}, publishErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			connected := false
			publisherFn := func(context.Context) (Publisher, func(), error) {
				connected = true
				return tt.pub, func() {}, nil
			}
			var b buffers

			err := run(NewScrapeCmd(publisherFn, b.outputFn(false), time.Now), tt.args...)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantErr != publishErr && connected {
				t.Error("broker should not be contacted for an invalid request")
			}
			if b.out.Len() != 0 {
				t.Errorf("no output expected, got %q", b.out.String())
			}
		})
	}
}

// --- topology ---

func TestTopologyCmd(t *testing.T) {
	var b buffers
	if err := run(NewTopologyCmd(b.outputFn(true))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var routes []RouteResponse
	if err := json.Unmarshal(b.out.Bytes(), &routes); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(routes) != len(mq.Routes) {
		t.Fatalf("expected %d routes, got %d", len(mq.Routes), len(routes))
	}
	for i, r := range routes {
		want := mq.Routes[i]
		if r.Source != want.Source || r.Scraper != string(want.Scraper) || r.Store != string(want.Store) {
			t.Errorf("route %d: expected %+v, got %+v", i, want, r)
		}
	}
}

// --- schedule next ---

func TestScheduleNextCmd(t *testing.T) {
	var b buffers
	cmd := NewScheduleCmd(b.outputFn(true), fixedNow("2025-08-22T12:00:00Z"))

	// Пятница 09:00 в Сан-Паулу: сегодня в 14:00, затем понедельник
	if err := run(cmd, "next", "0 14 * * 1-5", "--count", "2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var runs []string
	if err := json.Unmarshal(b.out.Bytes(), &runs); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	want := []string{"2025-08-22T14:00:00-03:00", "2025-08-25T14:00:00-03:00"}
	if len(runs) != len(want) {
		t.Fatalf("expected %v, got %v", want, runs)
	}
	for i := range want {
		if runs[i] != want[i] {
			t.Errorf("run %d: expected %s, got %s", i, want[i], runs[i])
		}
	}
}

func TestScheduleNextCmd_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"invalid spec", []string{"next", "not a cron"}},
		{"invalid tz", []string{"next", "@daily", "--tz", "Mars/Olympus"}},
		{"zero count", []string{"next", "@daily", "--count", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b buffers
			if err := run(NewScheduleCmd(b.outputFn(false), time.Now), tt.args...); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	var b buffers
	err := run(NewScheduleCmd(b.outputFn(false), time.Now), "next", "61 * * * *")
	if !errors.Is(err, scheduler.ErrInvalidSpec) {
		t.Errorf("expected ErrInvalidSpec, got %v", err)
	}
}

// --- status ---

func TestStatusCmd(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer healthy.Close()

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("broker disconnected"))
	}))
	defer down.Close()

	clientFn := func() *Client { return NewClient(time.Second) }

	t.Run("all healthy", func(t *testing.T) {
		var b buffers
		cmd := NewStatusCmd(clientFn, b.outputFn(true), ServiceURLs{"worker": healthy.URL, "store": healthy.URL + "/"})
		if err := run(cmd, "--scheduler-url", ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var statuses []HealthResponse
		if err := json.Unmarshal(b.out.Bytes(), &statuses); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if len(statuses) != 2 {
			t.Fatalf("expected 2 services, got %+v", statuses)
		}
		for _, s := range statuses {
			if !s.Healthy || s.Message != "ok" {
				t.Errorf("unexpected status %+v", s)
			}
		}
	})

	t.Run("one unhealthy", func(t *testing.T) {
		var b buffers
		cmd := NewStatusCmd(clientFn, b.outputFn(false), ServiceURLs{})
		err := run(cmd, "--worker-url", healthy.URL, "--store-url", down.URL)
		if err == nil || !strings.Contains(err.Error(), "1 of 2") {
			t.Fatalf("expected 1 of 2 unhealthy, got %v", err)
		}
		if !strings.Contains(b.out.String(), "broker disconnected") {
			t.Errorf("table should show the message, got:\n%s", b.out.String())
		}
	})
}

func TestClient_HealthUnreachable(t *testing.T) {
	s := NewClient(100*time.Millisecond).Health("worker", "http://127.0.0.1:1")
	if s.Healthy || s.Message == "" {
		t.Errorf("unreachable service should be unhealthy with a message, got %+v", s)
	}
}

// --- output ---

func TestOutput_Table(t *testing.T) {
	var b buffers
	NewOutputTo(&b.out, &b.err, false).Table([]string{"A", "BB"}, [][]string{{"1", "2"}})

	lines := strings.Split(strings.TrimSpace(b.out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header, dashes and 1 row, got %q", b.out.String())
	}
	if !strings.HasPrefix(lines[1], "-  --") {
		t.Errorf("unexpected dashes line %q", lines[1])
	}
}

func TestOutput_Error(t *testing.T) {
	var b buffers
	NewOutputTo(&b.out, &b.err, false).Error("boom")
	if b.err.String() != "Error: boom\n" {
		t.Errorf("unexpected stderr %q", b.err.String())
	}
}

package domain

import (
	"errors"
	"testing"
	"time"
)

func TestDayMonthYear(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2025-08-19", "19/08/2025", false},
		{"2025-08-19T20:42:44", "19/08/2025", false},
		{"2025-08-19T20:42:44.651Z", "19/08/2025", false},
		{"19/08/2025", "", true},
		{"2025-8-19", "", true},
		{"", "", true},
		{"2025-08-19T20:42", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := DayMonthYear(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDate) {
					t.Fatalf("expected ErrInvalidDate, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestPtaxURL(t *testing.T) {
	got, err := PtaxURL("https://ptax.example/boletim", "2025-08-19T20:42:44.651Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "https://ptax.example/boletim?ChkMoeda=61&DATAINI=19%2F08%2F2025&RadOpcao=3&method=consultarBoletim"
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}

	if _, err := PtaxURL("", "2025-08-19"); !errors.Is(err, ErrMissingBaseURL) {
		t.Errorf("expected ErrMissingBaseURL, got %v", err)
	}
	if _, err := PtaxURL("https://ptax.example", "bad"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate, got %v", err)
	}
}

func TestTheNewsURL(t *testing.T) {
	got, err := TheNewsURL("https://thenews.example/", "2025-08-19")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "https://thenews.example/archive?q=19%2F08%2F2025"
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestDecodeScrapeRequest(t *testing.T) {
	req, err := DecodeScrapeRequest([]byte(`{"fromDate":"2025-08-19"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.FromDate != "2025-08-19" {
		t.Errorf("expected fromDate 2025-08-19, got %s", req.FromDate)
	}

	empty, err := DecodeScrapeRequest(nil)
	if err != nil || empty.FromDate != "" {
		t.Errorf("empty payload should decode to empty request, got %+v, %v", empty, err)
	}

	if _, err := DecodeScrapeRequest([]byte(`{`)); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestScrapeRequest_Validate(t *testing.T) {
	if err := (ScrapeRequest{}).Validate(SourceCme); err != nil {
		t.Errorf("cme does not need a date: %v", err)
	}
	if err := (ScrapeRequest{}).Validate(SourcePtax); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("ptax requires a date, got %v", err)
	}
	if err := (ScrapeRequest{FromDate: "2025-08-19"}).Validate(SourceTheNews); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewScrapeRequest(t *testing.T) {
	req := NewScrapeRequest(time.Date(2025, 8, 19, 23, 59, 0, 0, time.UTC))
	if req.FromDate != "2025-08-19" {
		t.Errorf("expected 2025-08-19, got %s", req.FromDate)
	}
}

func TestParseSource(t *testing.T) {
	for _, src := range Sources() {
		got, err := ParseSource(string(src))
		if err != nil || got != src {
			t.Errorf("ParseSource(%s) = %s, %v", src, got, err)
		}
	}
	if _, err := ParseSource("bovespa"); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("expected ErrUnknownSource, got %v", err)
	}
}

func TestCmeQuote_Complete(t *testing.T) {
	q := CmeQuote{Last: "1", Change: "2", High: "3", Low: "4", Volume: "5", Updated: "6"}
	if !q.Complete() {
		t.Error("quote with all fields should be complete")
	}
	q.Volume = ""
	if q.Complete() {
		t.Error("quote with empty field should be incomplete")
	}
}

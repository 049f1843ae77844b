package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	appconfig "oiflow/config"
)

func testClient(url string) *Client {
	cfg := &appconfig.Config{}
	cfg.Live.URL = url
	cfg.Live.TimeoutSec = 5
	return NewClient(cfg)
}

func TestTotalOpenInterest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		w.Write([]byte(`[{"universe":[]},[{"openInterest":"10","markPx":"100"},{"openInterest":"5","markPx":"200"}]]`))
	}))
	defer srv.Close()

	total, counted, err := testClient(srv.URL).TotalOpenInterest(context.Background())
	if err != nil {
		t.Fatalf("TotalOpenInterest failed: %v", err)
	}
	if total != 2000 {
		t.Errorf("expected 2000, got %f", total)
	}
	if counted != 2 {
		t.Errorf("expected 2 instruments, got %d", counted)
	}
}

func TestTotalOpenInterestSkipsMalformedContexts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{},[{"openInterest":"x","markPx":"100"},{"openInterest":"1","markPx":"50"}]]`))
	}))
	defer srv.Close()

	total, counted, err := testClient(srv.URL).TotalOpenInterest(context.Background())
	if err != nil {
		t.Fatalf("TotalOpenInterest failed: %v", err)
	}
	if total != 50 || counted != 1 {
		t.Errorf("unexpected result: total=%f counted=%d", total, counted)
	}
}

func TestTotalOpenInterestNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, _, err := testClient(srv.URL).TotalOpenInterest(context.Background()); err == nil {
		t.Fatalf("expected error for non-200 status")
	}
}

func TestTotalOpenInterestMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{}]`))
	}))
	defer srv.Close()

	if _, _, err := testClient(srv.URL).TotalOpenInterest(context.Background()); err == nil {
		t.Fatalf("expected error for single-element response")
	}
}

package leadgen

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(server *httptest.Server) *Client {
	return &Client{
		BaseURL: server.URL,
		Backoff: time.Millisecond,
	}
}

func TestFindLeads(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/leads" {
			t.Errorf("path = %q, want /api/leads", r.URL.Path)
		}
		var params SearchParams
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if params.Mode != ModeDiscovery || params.City != "Berlin" {
			t.Errorf("params = %+v", params)
		}
		json.NewEncoder(w).Encode(SearchResult{
			Leads: []Company{{ID: "c1", Name: "Acme"}},
		})
	}))
	defer server.Close()

	result, err := testClient(server).FindLeads(context.Background(), SearchParams{
		Mode: ModeDiscovery, Industry: "robotics", City: "Berlin",
	})
	if err != nil {
		t.Fatalf("FindLeads: %v", err)
	}
	if len(result.Leads) != 1 || result.Leads[0].Name != "Acme" {
		t.Fatalf("leads = %+v", result.Leads)
	}
	if result.Sources == nil {
		t.Fatalf("sources = nil, want empty slice")
	}
}

func TestRetryOnTransient(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusInternalServerError)
		default:
			json.NewEncoder(w).Encode(PitchResult{Pitches: []Pitch{{Angle: "Direct"}}})
		}
	}))
	defer server.Close()

	pitches, err := testClient(server).GeneratePitch(context.Background(), PitchParams{
		CompanyName: "Acme", Industry: "robotics", UserSkills: "Go", Tone: "Bold",
	})
	if err != nil {
		t.Fatalf("GeneratePitch: %v", err)
	}
	if len(pitches) != 1 || pitches[0].Angle != "Direct" {
		t.Fatalf("pitches = %+v", pitches)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("calls = %d, want 3", got)
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Industry and City are required"})
	}))
	defer server.Close()

	_, err := testClient(server).FindLeads(context.Background(), SearchParams{Mode: ModeDiscovery})
	if !errors.Is(err, ErrServer) {
		t.Fatalf("err = %v, want ErrServer", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want 1 (no retry on 400)", got)
	}
}

func TestAbortIsDistinguishable(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := testClient(server).FindLeads(ctx, SearchParams{Mode: ModeDiscovery, City: "Berlin"})
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("err = %v, want ErrAborted", err)
	}
	if errors.Is(err, ErrServer) {
		t.Fatalf("abort classified as server error: %v", err)
	}
}

func TestNonJSONErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "endpoint not found", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := testClient(server).FindLeads(context.Background(), SearchParams{Mode: ModeLookup, CompanyName: "Acme"})
	if !errors.Is(err, ErrServer) {
		t.Fatalf("err = %v, want ErrServer", err)
	}
}

func TestMalformedSuccessBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	_, err := testClient(server).FindLeads(context.Background(), SearchParams{Mode: ModeDiscovery, City: "Berlin"})
	if !errors.Is(err, ErrServer) {
		t.Fatalf("err = %v, want ErrServer", err)
	}
}

func TestCompanySummary(t *testing.T) {
	c := &Company{
		Name:     "Acme",
		Industry: "robotics",
		Needs:    []string{"Hiring Developers"},
		OpenRoles: []Job{
			{Title: "Go Engineer"}, {Title: "SRE"},
		},
	}
	got := c.Summary()
	for _, want := range []string{"Acme", "robotics", "Hiring Developers", "Go Engineer, SRE"} {
		if !strings.Contains(got, want) {
			t.Errorf("Summary missing %q: %s", want, got)
		}
	}
}

package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/reconhq/recon/pkg/intel"
	"github.com/reconhq/recon/pkg/leadgen"
)

type fakeIntel struct {
	leads func(leadgen.SearchParams) (*leadgen.SearchResult, error)
	pitch func(leadgen.PitchParams) (*leadgen.PitchResult, error)
}

func (f *fakeIntel) FindLeads(_ context.Context, p leadgen.SearchParams) (*leadgen.SearchResult, error) {
	return f.leads(p)
}

func (f *fakeIntel) GeneratePitch(_ context.Context, p leadgen.PitchParams) (*leadgen.PitchResult, error) {
	return f.pitch(p)
}

func post(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestLeadsEndpoint(t *testing.T) {
	h := New(&fakeIntel{
		leads: func(p leadgen.SearchParams) (*leadgen.SearchResult, error) {
			if p.Industry != "Aerospace" {
				return nil, fmt.Errorf("unexpected params: %+v", p)
			}
			return &leadgen.SearchResult{
				Leads: []leadgen.Company{{ID: "gen-1", Name: "Acme"}},
			}, nil
		},
	}, nil)

	rec := post(t, h, "/api/leads", leadgen.SearchParams{
		Mode: leadgen.ModeDiscovery, Industry: "Aerospace", City: "Oslo",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var result leadgen.SearchResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(result.Leads) != 1 || result.Leads[0].Name != "Acme" {
		t.Fatalf("leads = %+v", result.Leads)
	}
}

func TestPitchEndpoint(t *testing.T) {
	h := New(&fakeIntel{
		pitch: func(p leadgen.PitchParams) (*leadgen.PitchResult, error) {
			return &leadgen.PitchResult{Pitches: []leadgen.Pitch{
				{Angle: "Direct & Professional", Subject: "Hello", Body: "..."},
			}}, nil
		},
	}, nil)

	rec := post(t, h, "/api/pitch", leadgen.PitchParams{CompanyName: "Acme"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
}

func TestErrorEnvelope(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"bad request", fmt.Errorf("%w: industry required", intel.ErrBadRequest), http.StatusBadRequest},
		{"internal", errors.New("model exploded"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(&fakeIntel{
				leads: func(leadgen.SearchParams) (*leadgen.SearchResult, error) {
					return nil, tt.err
				},
			}, nil)

			rec := post(t, h, "/api/leads", leadgen.SearchParams{})
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var envelope map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if envelope["error"] == "" {
				t.Fatalf("missing error envelope: %s", rec.Body)
			}
		})
	}
}

func TestMalformedBody(t *testing.T) {
	h := New(&fakeIntel{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/leads", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := New(&fakeIntel{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/leads", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

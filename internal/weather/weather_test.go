package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const sampleJSON = `{
  "current_condition": [
    {"temp_C": "21", "weatherDesc": [{"value": "Partly cloudy"}]}
  ],
  "weather": [
    {"maxtempC": "24", "mintempC": "12",
     "hourly": [{"time": "0", "tempC": "13"}, {"time": "900", "tempC": "18"}]},
    {"maxtempC": "26", "mintempC": "14", "hourly": []},
    {"maxtempC": "19", "mintempC": "9", "hourly": []},
    {"maxtempC": "30", "mintempC": "20", "hourly": []}
  ]
}`

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("format") != "j1" {
			t.Errorf("missing format=j1 in %s", r.URL)
		}
		if r.URL.Path != "/Harrisonburg" {
			t.Errorf("path = %s, want /Harrisonburg", r.URL.Path)
		}
		_, _ = w.Write([]byte(sampleJSON))
	}))
	defer srv.Close()

	c := NewClient("Harrisonburg", WithBaseURL(srv.URL))
	f, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if f.TempC != 21 {
		t.Errorf("TempC = %v, want 21", f.TempC)
	}
	if f.Description != "Partly cloudy" {
		t.Errorf("Description = %q", f.Description)
	}
	if len(f.Days) != 3 {
		t.Fatalf("Days = %d, want 3 (capped)", len(f.Days))
	}
	if f.Days[0].HighC != 24 || f.Days[0].LowC != 12 {
		t.Errorf("day 0 = %+v", f.Days[0])
	}
	if len(f.Days[0].Hourly) != 2 || f.Days[0].Hourly[1].TempC != 18 {
		t.Errorf("hourly = %+v", f.Days[0].Hourly)
	}
}

func TestFetchErrors(t *testing.T) {
	for name, handler := range map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"bad json": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		},
		"empty": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"current_condition": [], "weather": []}`))
		},
	} {
		srv := httptest.NewServer(handler)
		c := NewClient("x", WithBaseURL(srv.URL))
		if _, err := c.Fetch(context.Background()); err == nil {
			t.Errorf("%s: expected error", name)
		}
		srv.Close()
	}
}

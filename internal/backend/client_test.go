package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(srv.URL+"/", "", srv.Client(), quietLogger(), nil)
}

func TestBootstrapCoercesBooleans(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/vehicle/state/7" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if _, err := uuid.Parse(r.Header.Get("X-Request-ID")); err != nil {
			t.Errorf("X-Request-ID = %q", r.Header.Get("X-Request-ID"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"locked": true, "horn": false, "mode": 2, "name": "bike", "extra": null}`)
	}))
	defer srv.Close()

	state, err := newTestClient(srv).Bootstrap(context.Background(), "7")
	if err != nil {
		t.Fatal(err)
	}
	if state["locked"] != 1 || state["horn"] != 0 || state["mode"] != 2 {
		t.Errorf("state = %v", state)
	}
	if _, ok := state["name"]; ok {
		t.Error("string values should be skipped")
	}
}

func TestBootstrapErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"not found", http.StatusNotFound, `{}`},
		{"server error", http.StatusInternalServerError, `oops`},
		{"array", http.StatusOK, `[1,2]`},
		{"garbage", http.StatusOK, `not json`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			if _, err := newTestClient(srv).Bootstrap(context.Background(), "1"); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestBootstrapUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c := newTestClient(srv)
	srv.Close()

	if _, err := c.Bootstrap(context.Background(), "1"); err == nil {
		t.Error("expected an error")
	}
}

func TestRegisterSendsDefaults(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/vehicle/connect" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Error(err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	body, err := newTestClient(srv).Register(context.Background(), NewRegistration("12"))
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != `{"ok":true}` {
		t.Errorf("body = %s", body)
	}

	want := map[string]any{
		"vehicle_id":       float64(12),
		"model":            "E-Bike",
		"color":            "White",
		"battery_voltage":  float64(48),
		"battery_capacity": float64(26),
		"max_range":        float64(100),
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %v (%T), want %v", k, got[k], got[k], v)
		}
	}
}

func TestRegistrationKeepsNonNumericID(t *testing.T) {
	reg := NewRegistration("bike-a")
	b, err := json.Marshal(reg)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"vehicle_id":"bike-a"`) {
		t.Errorf("json = %s", b)
	}
}

func TestRegisterRejectsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv).Register(context.Background(), NewRegistration("1")); err == nil {
		t.Error("expected an error")
	}
}

func TestUserAgent(t *testing.T) {
	cases := []struct {
		name  string
		agent string
		want  string
	}{
		{"configured", "ebike-sim/1.2.3", "ebike-sim/1.2.3"},
		{"default", "", DefaultUserAgent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get("User-Agent")
				_, _ = io.WriteString(w, `{}`)
			}))
			defer srv.Close()

			c := NewClient(srv.URL, tc.agent, srv.Client(), quietLogger(), nil)
			if _, err := c.Bootstrap(context.Background(), "1"); err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("User-Agent = %q, want %q", got, tc.want)
			}
		})
	}
}

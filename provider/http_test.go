package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ZaguanLabs/gotlui"
)

func TestHTTPProvider_TranslateBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/translate/batch" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		if !strings.HasPrefix(r.Header.Get("User-Agent"), gotlui.Name+"/") {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}

		var req gotlui.BatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.TargetLang != "ar" || len(req.Texts) != 2 {
			t.Errorf("request = %+v", req)
		}

		json.NewEncoder(w).Encode(gotlui.BatchResponse{
			Translations: map[string]string{"Dashboard": "لوحة التحكم"},
		})
	}))
	defer srv.Close()

	p := NewHTTPProvider(HTTPConfig{BaseURL: srv.URL + "/v1/", APIKey: "secret"})
	got, err := p.TranslateBatch(context.Background(), BatchRequest{
		Texts:      []string{"Dashboard", "Create Task"},
		TargetLang: "ar",
	})
	if err != nil {
		t.Fatalf("TranslateBatch failed: %v", err)
	}
	if got["Dashboard"] != "لوحة التحكم" {
		t.Errorf("Dashboard = %q", got["Dashboard"])
	}
	if _, ok := got["Create Task"]; ok {
		t.Error("missing entries should stay absent")
	}
}

func TestHTTPProvider_TranslateText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/translate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req gotlui.TextRequest
		json.NewDecoder(r.Body).Decode(&req)
		translated := ""
		if req.Text == "Save" {
			translated = "حفظ"
		}
		json.NewEncoder(w).Encode(gotlui.TextResponse{Translated: translated})
	}))
	defer srv.Close()

	p := NewHTTPProvider(HTTPConfig{BaseURL: srv.URL})

	if got, err := p.TranslateText(context.Background(), TextRequest{Text: "Save", TargetLang: "ar"}); err != nil || got != "حفظ" {
		t.Errorf("TranslateText(Save) = (%q, %v)", got, err)
	}
	if got, _ := p.TranslateText(context.Background(), TextRequest{Text: "Other", TargetLang: "ar"}); got != "Other" {
		t.Errorf("empty answer should yield the source text, got %q", got)
	}
}

func TestHTTPProvider_StatusErrors(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			p := NewHTTPProvider(HTTPConfig{BaseURL: srv.URL})
			_, err := p.TranslateBatch(context.Background(), BatchRequest{Texts: []string{"x"}, TargetLang: "ar"})

			var perr *gotlui.ProviderError
			if !errors.As(err, &perr) {
				t.Fatalf("expected ProviderError, got %v", err)
			}
			if perr.StatusCode != tt.status || perr.Retryable != tt.retryable {
				t.Errorf("StatusCode=%d Retryable=%v", perr.StatusCode, perr.Retryable)
			}
		})
	}
}

func TestHTTPProvider_ContextTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	p := NewHTTPProvider(HTTPConfig{BaseURL: srv.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := p.TranslateBatch(ctx, BatchRequest{Texts: []string{"x"}, TargetLang: "ar"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error, got %v", err)
	}
}

func TestHTTPProvider_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	p := NewHTTPProvider(HTTPConfig{BaseURL: srv.URL})
	_, err := p.TranslateBatch(context.Background(), BatchRequest{Texts: []string{"x"}, TargetLang: "ar"})

	var perr *gotlui.ProviderError
	if !errors.As(err, &perr) || perr.Retryable {
		t.Errorf("expected non-retryable ProviderError, got %v", err)
	}
}

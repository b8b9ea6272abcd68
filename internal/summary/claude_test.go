package summary

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"Se aprueban ayudas para la rehabilitación de viviendas.", false},
		{"corto", true},
		{"   ", true},
		{"No se pudo generar el resumen del documento solicitado.", true},
		{"Error: el documento no está disponible para resumir.", true},
		{"Corrección de errores de la Orden HAC/1/2024 publicada ayer.", false},
	}
	for _, tt := range tests {
		err := Validate(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%q) err=%v, wantErr=%v", tt.in, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidSummary) {
			t.Errorf("expected ErrInvalidSummary, got %v", err)
		}
	}
}

func TestBuildPrompt_TruncatesText(t *testing.T) {
	long := strings.Repeat("ñ", MaxInputRunes+50)
	p := BuildPrompt("Orden", long)
	if !strings.Contains(p, "Título: Orden") {
		t.Error("expected title in prompt")
	}
	if got := strings.Count(p, "ñ"); got != MaxInputRunes {
		t.Errorf("expected %d runes of text, got %d", MaxInputRunes, got)
	}
}

func TestClaudeClient_Summarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "k" {
			t.Errorf("missing api key header")
		}
		var req anthropicRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "m" || len(req.Messages) != 1 {
			t.Errorf("unexpected request %+v", req)
		}
		w.Write([]byte(`{"content":[{"type":"text","text":"  Se regulan las ayudas al alquiler para jóvenes.  "}]}`))
	}))
	defer srv.Close()

	c := NewClaudeClient("k", "m").WithEndpoint(srv.URL)
	got, err := c.Summarize(context.Background(), "Orden", "texto")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Se regulan las ayudas al alquiler para jóvenes." {
		t.Errorf("unexpected summary %q", got)
	}
	if c.Stats.Snapshot().Count != 1 {
		t.Error("expected call to be recorded")
	}
}

func TestClaudeClient_RetryableStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClaudeClient("k", "m").WithEndpoint(srv.URL)
	_, err := c.Summarize(context.Background(), "Orden", "texto")
	var retryErr *RetryableError
	if !errors.As(err, &retryErr) {
		t.Fatalf("expected RetryableError, got %v", err)
	}
	if c.Stats.Snapshot().Failures != 1 {
		t.Error("expected failure to be recorded")
	}
}

package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"stonx/internal/infrastructure/config"
)

func TestTelegramClient_Notify(t *testing.T) {
	t.Run("nil_client", func(t *testing.T) {
		var c *TelegramClient
		err := c.Notify(context.Background(), "msg")
		if err == nil || err.Error() != "telegram client is nil" {
			t.Errorf("expected nil client error, got %v", err)
		}
	})

	t.Run("missing_config", func(t *testing.T) {
		c := NewTelegramClient(config.TelegramConfig{})
		err := c.Notify(context.Background(), "msg")
		if err == nil || err.Error() != "telegram token or chat_id missing" {
			t.Error("expected missing config error")
		}
	})

	t.Run("success", func(t *testing.T) {
		var got sendMessageRequest
		var path string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			_ = json.NewDecoder(r.Body).Decode(&got)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		}))
		defer ts.Close()

		c := NewTelegramClient(config.TelegramConfig{Token: "tok", ChatID: 123, Prefix: "PROD"})
		c.baseURL = ts.URL
		if err := c.Notify(context.Background(), "hello"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if path != "/bottok/sendMessage" {
			t.Errorf("unexpected path %s", path)
		}
		if got.ChatID != 123 || got.Text != "[PROD] hello" {
			t.Errorf("unexpected payload %+v", got)
		}
	})

	t.Run("server_error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"bad"}`))
		}))
		defer ts.Close()

		c := NewTelegramClient(config.TelegramConfig{Token: "tok", ChatID: 123})
		c.baseURL = ts.URL
		if err := c.Notify(context.Background(), "hello"); err == nil {
			t.Error("expected error for 400 status")
		}
	})
}

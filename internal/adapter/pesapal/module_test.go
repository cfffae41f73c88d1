package pesapal

import (
	"io"
	"log/slog"
	"testing"

	"github.com/polkiloo/orderledger/internal/config"
)

func TestNewClientUsesConfig(t *testing.T) {
	cfg := &config.Config{PesapalBaseURL: "https://example.com/v3", PesapalConsumerKey: "k", PesapalConsumerSecret: "s"}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	client, err := newClient(clientParams{Config: cfg, Logger: logger})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client == nil {
		t.Fatal("expected client instance")
	}

	cfg.PesapalBaseURL = "relative"
	if _, err := newClient(clientParams{Config: cfg, Logger: logger}); err == nil {
		t.Fatal("expected error for relative url")
	}
}

package mcp

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/signgate/signgate/internal/eformsign"
)

func TestNewMCPServer(t *testing.T) {
	client := eformsign.New(eformsign.Config{BaseURL: "http://localhost"},
		slog.New(slog.NewTextHandler(io.Discard, nil)), nil)

	s := NewMCPServer(client, "admin@example.com", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if s == nil || s.Server() == nil {
		t.Fatal("expected non-nil MCP server")
	}
}

func TestSuccessJSON(t *testing.T) {
	result, err := successJSON(map[string]any{"total_count": 3})
	if err != nil {
		t.Fatalf("successJSON: %v", err)
	}
	if result.IsError {
		t.Error("expected non-error result")
	}
}

func TestToolError(t *testing.T) {
	result, err := toolError("get document: %v", "boom")
	if err != nil {
		t.Fatalf("toolError should not return a Go error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error result")
	}
}

func TestSuccessJSONUnmarshalable(t *testing.T) {
	if _, err := successJSON(make(chan int)); err == nil || !strings.Contains(err.Error(), "marshal") {
		t.Fatalf("expected marshal error, got %v", err)
	}
}

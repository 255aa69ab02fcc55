package errors

import (
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	err := New(KindResume, "no crawl_step record found")
	if KindOf(err) != KindResume {
		t.Errorf("expected kind %q, got %q", KindResume, KindOf(err))
	}

	// Classification survives fmt wrapping
	wrapped := fmt.Errorf("loading state: %w", err)
	if KindOf(wrapped) != KindResume {
		t.Errorf("expected kind to survive wrapping, got %q", KindOf(wrapped))
	}

	if KindOf(fmt.Errorf("plain")) != "" {
		t.Error("expected empty kind for unclassified error")
	}
}

func TestNewAPI(t *testing.T) {
	err := NewAPI(429, `{"title":"Too Many Requests"}`)
	if err.Code != 429 {
		t.Errorf("expected code 429, got %d", err.Code)
	}
	if !IsKind(err, KindAPI) {
		t.Error("expected api kind")
	}
	if err.Body == "" {
		t.Error("expected body to be retained")
	}
}

func TestIsFatal(t *testing.T) {
	if !IsFatal(New(KindConfig, "token not set")) {
		t.Error("config errors are fatal")
	}
	if IsFatal(NewAPI(500, "")) {
		t.Error("api errors are retried, not fatal")
	}
	if IsFatal(New(KindNetwork, "connection refused")) {
		t.Error("network errors are retried, not fatal")
	}
}

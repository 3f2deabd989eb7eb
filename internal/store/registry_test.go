package store

import (
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/paleoml/paleo/pkg/metadata"
)

func TestRegisterAndOpen(t *testing.T) {
	Register("fake", func(cfg Config, logger *slog.Logger) (metadata.Store, error) {
		return nil, nil
	})

	if !IsRegistered("fake") {
		t.Error("fake backend should be registered")
	}

	if _, err := Open(Config{Backend: "fake"}, nil); err != nil {
		t.Errorf("Open() error = %v", err)
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(Config{Backend: "mysql"}, nil)
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}

	var ube *UnknownBackendError
	if !errors.As(err, &ube) {
		t.Fatalf("expected UnknownBackendError, got %T", err)
	}
	if ube.Backend != "mysql" {
		t.Errorf("Backend = %q, want mysql", ube.Backend)
	}
	if !strings.Contains(err.Error(), "mysql") {
		t.Errorf("error should name the backend: %v", err)
	}
}

func TestOpen_EmptyBackend(t *testing.T) {
	if _, err := Open(Config{}, nil); err == nil {
		t.Error("expected error for empty backend")
	}
}

func TestListBackends_Sorted(t *testing.T) {
	Register("zzz", func(Config, *slog.Logger) (metadata.Store, error) { return nil, nil })
	Register("aaa", func(Config, *slog.Logger) (metadata.Store, error) { return nil, nil })

	names := ListBackends()
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("backends not sorted: %v", names)
		}
	}
}

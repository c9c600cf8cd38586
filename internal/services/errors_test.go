package services_test

import (
	"errors"
	"strings"
	"testing"

	"catalogd/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	cause := errors.New("disk full")
	err := services.Wrap(services.ErrTransient, "save", "create master", "insert failed", cause)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if !strings.Contains(err.Error(), "save: create master: insert failed") {
		t.Fatalf("unexpected detail: %v", err)
	}
}

func TestWrapNilMarkerDefaultsTransient(t *testing.T) {
	err := services.Wrap(nil, "match", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient default, got %v", err)
	}
}

func TestClassifiers(t *testing.T) {
	if !services.IsValidation(services.Wrap(services.ErrValidation, "validate", "", "bad approval number", nil)) {
		t.Fatal("expected validation classification")
	}
	if !services.IsConflict(services.Wrap(services.ErrConflict, "review", "decide", "already decided", nil)) {
		t.Fatal("expected conflict classification")
	}
	if services.IsNotFound(errors.New("plain")) {
		t.Fatal("plain error must not classify as not found")
	}
}

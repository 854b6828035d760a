package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"texthighlight/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrAlignmentEngine, "invoke_aligner", "align", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrAlignmentEngine) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"invoke_aligner", "align", "failed", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected io marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestKindMapping(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrAudioNotFound, "validate_audio", "", "missing", nil), "AudioNotFoundError"},
		{services.Wrap(services.ErrIO, "write_manifest", "", "", errors.New("disk full")), "IOError"},
		{services.Wrap(services.ErrAlignmentEngine, "invoke_aligner", "", "", nil), "AlignmentEngineError"},
		{services.Wrap(services.ErrResultsMissing, "decode_results", "", "", nil), "ResultsMissingError"},
		{fmt.Errorf("outer: %w", services.ErrConfiguration), "ConfigurationError"},
		{errors.New("unclassified"), "IOError"},
	}
	for _, tc := range tests {
		if got := services.Kind(tc.err); got != tc.want {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

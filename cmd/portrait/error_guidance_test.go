package main

import (
	"fmt"
	"net"
	"testing"

	"portrait/internal/api"
	"portrait/internal/models"
)

func TestFormatCLIError_NetworkGuidance(t *testing.T) {
	err := &net.DNSError{Err: "dial tcp: connection refused", Name: "127.0.0.1", IsTemporary: true}
	lines := formatCLIError(err)
	if !containsLine(lines, "hint: ensure a portrait server is running at PORTRAIT_API_URL.") {
		t.Fatalf("expected connectivity guidance, got %v", lines)
	}
	if !containsLine(lines, "hint: start local server manually with: portrait srv") {
		t.Fatalf("expected manual-start guidance, got %v", lines)
	}
}

func TestFormatCLIError_APIUnknownServiceGuidance(t *testing.T) {
	err := &api.APIError{Status: 404, Message: "api error: 404 Not Found"}
	lines := formatCLIError(err)
	if !containsLine(lines, "hint: verify PORTRAIT_API_URL points to a portrait server.") {
		t.Fatalf("expected api-url guidance, got %v", lines)
	}
}

func TestFormatCLIError_APIAuthGuidance(t *testing.T) {
	for _, code := range []string{"unauthorized", "forbidden"} {
		err := &api.APIError{Status: 401, Code: code, Message: code}
		lines := formatCLIError(err)
		if !containsLine(lines, "hint: verify PORTRAIT_API_TOKEN, or set an operator password with: portrait admin set-password --password-stdin") {
			t.Fatalf("expected auth guidance for %s, got %v", code, lines)
		}
	}
}

func TestFormatCLIError_APIInternalGuidance(t *testing.T) {
	err := &api.APIError{Status: 500, Code: "internal", Message: "internal error"}
	lines := formatCLIError(err)
	if !containsLine(lines, "hint: server returned an internal error; check server logs for details.") {
		t.Fatalf("expected internal-error guidance, got %v", lines)
	}
}

func TestFormatCLIError_WrappedAPIError(t *testing.T) {
	err := fmt.Errorf("%w: %w", models.ErrStoreUnavailable, &api.APIError{Status: 503, Code: "unavailable", Message: "unavailable"})
	lines := formatCLIError(err)
	if !containsLine(lines, "hint: server returned an internal error; check server logs for details.") {
		t.Fatalf("expected internal-error guidance through wrapping, got %v", lines)
	}
}

func TestFormatCLIError_DecodeFailureGuidance(t *testing.T) {
	err := fmt.Errorf("%w: unsupported content type text/plain", models.ErrDecodeFailure)
	lines := formatCLIError(err)
	if len(lines) != 2 || lines[0] != err.Error() {
		t.Fatalf("expected message plus one hint, got %v", lines)
	}
}

func TestFormatCLIError_Nil(t *testing.T) {
	if lines := formatCLIError(nil); lines != nil {
		t.Fatalf("expected no lines, got %v", lines)
	}
}

func containsLine(lines []string, expected string) bool {
	for _, line := range lines {
		if line == expected {
			return true
		}
	}
	return false
}

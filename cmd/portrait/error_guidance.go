package main

import (
	"context"
	"errors"
	"net"

	"portrait/internal/api"
	"portrait/internal/models"
)

func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case "unauthorized", "forbidden":
			lines = append(lines,
				"hint: verify PORTRAIT_API_TOKEN, or set an operator password with: portrait admin set-password --password-stdin",
			)
		case "resource_exhausted":
			lines = append(lines, "hint: too many failed logins; wait before retrying.")
		case "invalid_argument":
			lines = append(lines, "hint: the server rejected the image value; rerun with a file, http(s) url or data url.")
		}
		if apiErr.Code == "" {
			lines = append(lines, "hint: verify PORTRAIT_API_URL points to a portrait server.")
		}
		if apiErr.Status >= 500 {
			lines = append(lines, "hint: server returned an internal error; check server logs for details.")
		}
		return uniqueLines(lines)
	}

	if errors.Is(err, models.ErrDecodeFailure) {
		lines = append(lines, "hint: supported image formats are jpeg, png, gif, webp, bmp and tiff.")
		return uniqueLines(lines)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		lines = append(lines, "hint: request timed out; check server health or increase PORTRAIT_HTTP_TIMEOUT.")
		return uniqueLines(lines)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		lines = append(lines,
			"hint: ensure a portrait server is running at PORTRAIT_API_URL.",
			"hint: start local server manually with: portrait srv",
			"hint: you can increase PORTRAIT_HTTP_TIMEOUT for slower environments.",
		)
		return uniqueLines(lines)
	}

	return uniqueLines(lines)
}

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}

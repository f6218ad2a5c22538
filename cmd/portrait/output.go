package main

import (
	"fmt"
	"os"

	"portrait/internal/format"
)

var (
	outputFormatter format.Formatter = format.JSONFormatter{}
	yamlFormatter   format.Formatter = format.YAMLFormatter{}
)

func writeJSON(payload any) error {
	return outputFormatter.Write(os.Stdout, payload)
}

func writeYAML(payload any) error {
	return yamlFormatter.Write(os.Stdout, payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(os.Stdout, format, args...)
	return err
}

func writeWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
}

// abbreviate shortens inline image values for terminal output.
func abbreviate(value string, limit int) string {
	if limit <= 0 || len(value) <= limit {
		return value
	}
	return fmt.Sprintf("%s... (%d bytes)", value[:limit], len(value))
}

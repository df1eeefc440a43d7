// =============================================================================
// WeChat Order Ledger - Text I/O Utilities
// =============================================================================
//
// Small helpers for getting message text into the CLI and report text out
// of it.
//
// =============================================================================

package utils

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadMessage reads the chat message to process. A path of "-" (or the
// empty string) reads from stdin, so the command can sit at the end of a
// pipe.
func ReadMessage(path string) (string, error) {
	var data []byte
	var err error

	if path == "" || path == "-" {
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read message from stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read message file: %w", err)
		}
	}

	message := strings.TrimSpace(string(data))
	if message == "" {
		return "", fmt.Errorf("message is empty")
	}
	return message, nil
}

// Truncate shortens s to at most n runes for one-line display.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

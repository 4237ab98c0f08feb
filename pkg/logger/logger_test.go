package logger

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	logger := NewLogger(path)

	testMessage := "Test message"
	logger.Printf(testMessage)

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Error opening log file: %v", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var lastLine string
	for scanner.Scan() {
		lastLine = scanner.Text()
	}

	if !strings.Contains(lastLine, testMessage) {
		t.Errorf("Log file did not contain the expected message. Got: %s, want: %s", lastLine, testMessage)
	}
}

func TestLoggerFallsBackToStderr(t *testing.T) {
	// A directory path cannot be opened as a log file; the logger must
	// still come back usable.
	logger := NewLogger(t.TempDir())
	if logger == nil {
		t.Fatal("Expected a usable logger despite the open failure")
	}
	logger.Printf("still alive")
}

package logging_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bindery/internal/logging"
)

func TestNewConsoleWritesComponentPrefix(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "bindery.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "pipeline").Info("comic registered",
		logging.Int(logging.FieldComicID, 3),
		logging.String("file", "issue-003.cbz"),
	)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	if !strings.Contains(line, " INFO pipeline: comic registered") {
		t.Fatalf("expected component prefix in console line, got %q", line)
	}
	if !strings.Contains(line, "comic_id=3") {
		t.Fatalf("expected comic_id attribute in console line, got %q", line)
	}
	if !strings.Contains(line, "file=issue-003.cbz") {
		t.Fatalf("expected file attribute in console line, got %q", line)
	}
}

func TestNewConsoleQuotesValuesWithSpaces(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "bindery.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("done", logging.String("title", "The Long Tomorrow"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), `title="The Long Tomorrow"`) {
		t.Fatalf("expected quoted value, got %q", content)
	}
}

func TestNewJSONUsesShortKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "bindery.log")

	logger, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "debug",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Debug("converting", logging.String(logging.FieldStage, "package"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(content, &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if entry["msg"] != "converting" {
		t.Fatalf("msg = %v, want converting", entry["msg"])
	}
	if entry["level"] != "debug" {
		t.Fatalf("level = %v, want debug", entry["level"])
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatal("expected ts key in JSON output")
	}
	if entry["stage"] != "package" {
		t.Fatalf("stage = %v, want package", entry["stage"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNewInvalidLevelDefaultsToInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "bindery.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "chatty",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Debug("hidden")
	logger.Info("visible")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), "hidden") {
		t.Fatalf("debug entry should be suppressed at info level, got %q", content)
	}
	if !strings.Contains(string(content), "visible") {
		t.Fatalf("info entry missing, got %q", content)
	}
}

func TestNewCreatesLogDirectory(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "logs", "bindery.log")

	logger, err := logging.New(logging.Options{OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("first entry")

	if _, err := os.Stat(logPath); err != nil {
		t.Fatalf("expected log file to exist: %v", err)
	}
}

func TestNewNopDiscardsEverything(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("should vanish", logging.Error(os.ErrNotExist))
	logger.With(logging.String("k", "v")).Info("also gone")
}

func TestErrorAttrHandlesNil(t *testing.T) {
	attr := logging.Error(nil)
	if attr.Value.String() != "<nil>" {
		t.Fatalf("Error(nil) value = %q, want <nil>", attr.Value.String())
	}
}

package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
	l := NewNop()
	if OrNop(l) != l {
		t.Fatal("OrNop replaced a non-nil logger")
	}
}

func TestInitLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "test.log")
	log := InitLogger(Options{LogFile: path, Level: "debug", MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1})
	if GetLogger() != log {
		t.Fatal("GetLogger returned a different instance")
	}
	log.Info("hello")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) {
		t.Fatalf("log file = %s", data)
	}
}

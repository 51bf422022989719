package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/seamcarve/internal/config"
)

func TestNewTextConsole(t *testing.T) {
	var buf bytes.Buffer
	l, closer, err := New(config.LogConfig{Level: "warn", Format: "text"}, &buf)
	if err != nil {
		t.Fatal(err)
	}
	defer closer.Close()

	l.Info("hidden")
	l.Warn("shown", "k", 1)
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "msg=shown") || !strings.Contains(out, "k=1") {
		t.Errorf("output = %q", out)
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l, _, err := New(config.LogConfig{Level: "debug", Format: "json"}, &buf)
	if err != nil {
		t.Fatal(err)
	}
	l.Debug("energy pass", "width", 12)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("not JSON: %q: %v", buf.String(), err)
	}
	if rec["msg"] != "energy pass" || rec["width"] != float64(12) {
		t.Errorf("record = %v", rec)
	}
}

func TestNewRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "carve.log")
	var console bytes.Buffer
	l, closer, err := New(config.LogConfig{Level: "info", Format: "text", File: path}, &console)
	if err != nil {
		t.Fatal(err)
	}
	l.Info("to file")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("log file = %q", data)
	}
	if console.Len() != 0 {
		t.Errorf("console got %q, want nothing", console.String())
	}
}

func TestNewFileWriterDefaults(t *testing.T) {
	w := NewFileWriter(config.LogConfig{File: "x.log"})
	if w.MaxSize != DefaultMaxSizeMB || w.MaxBackups != DefaultMaxBackups || w.MaxAge != DefaultMaxAgeDays {
		t.Errorf("writer = %+v", w)
	}
	w = NewFileWriter(config.LogConfig{File: "x.log", MaxSizeMB: 7})
	if w.MaxSize != 7 {
		t.Errorf("MaxSize = %d, want 7", w.MaxSize)
	}
}

func TestNewRejectsLevel(t *testing.T) {
	if _, _, err := New(config.LogConfig{Level: "chatty"}, &bytes.Buffer{}); err == nil {
		t.Error("unknown level accepted")
	}
}

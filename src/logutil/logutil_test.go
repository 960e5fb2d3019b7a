package logutil

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDebugfGate(t *testing.T) {
	var buf bytes.Buffer
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
		SetDebug(false)
	})

	SetDebug(false)
	Debugf("hidden %d", 1)
	if buf.Len() != 0 {
		t.Fatalf("Debugf wrote %q while disabled", buf.String())
	}

	SetDebug(true)
	Debugf("shown %d", 2)
	if got := buf.String(); !strings.Contains(got, "DEBUG: shown 2") {
		t.Errorf("Debugf output = %q", got)
	}
}

func TestRotatingWriterRotates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	w, err := OpenRotating(path)
	if err != nil {
		t.Fatalf("OpenRotating failed: %v", err)
	}
	w.maxSize = 10
	defer w.Close()

	for _, line := range []string{"aaaaaaaa\n", "bbbbbbbb\n", "cccccccc\n"} {
		if _, err := w.Write([]byte(line)); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}

	tests := []struct {
		file     string
		expected string
	}{
		{path, "cccccccc\n"},
		{path + ".1", "bbbbbbbb\n"},
		{path + ".2", "aaaaaaaa\n"},
	}
	for _, tt := range tests {
		data, err := os.ReadFile(tt.file)
		if err != nil {
			t.Fatalf("read %s: %v", tt.file, err)
		}
		if string(data) != tt.expected {
			t.Errorf("%s = %q, expected %q", filepath.Base(tt.file), data, tt.expected)
		}
	}
}

func TestRotateDiscardsOldest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	for i, name := range []string{path, path + ".1", path + ".2", path + ".3"} {
		if err := os.WriteFile(name, []byte{byte('0' + i)}, 0644); err != nil {
			t.Fatal(err)
		}
	}

	rotate(path)

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("base log should have been moved, stat err = %v", err)
	}
	for i, want := range []string{"0", "1", "2"} {
		data, err := os.ReadFile(archiveName(path, i+1))
		if err != nil {
			t.Fatalf("read archive %d: %v", i+1, err)
		}
		if string(data) != want {
			t.Errorf("archive %d = %q, expected %q", i+1, data, want)
		}
	}
}

package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{
			name:     "read all (0)",
			maxLines: 0,
			expected: expectedAll,
		},
		{
			name:     "read all (negative)",
			maxLines: -1,
			expected: expectedAll,
		},
		{
			name:     "read partial (5)",
			maxLines: 5,
			expected: expectedAll[5:],
		},
		{
			name:     "read exactly all (10)",
			maxLines: 10,
			expected: expectedAll,
		},
		{
			name:     "read more than exists (20)",
			maxLines: 20,
			expected: expectedAll,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestReadMissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "nope.log"), 10)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got != nil {
		t.Fatalf("Read() = %v, want nil", got)
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Entry
	}{
		{
			name:     "empty line",
			input:    "",
			expected: Entry{},
		},
		{
			name:     "plain text",
			input:    "panic: something broke",
			expected: Entry{Msg: "panic: something broke"},
		},
		{
			name:  "write failure",
			input: `time="2026-10-17T09:12:01Z" level=warning msg="remote write failed" error="create note n1: boom" note=n1 op=create origin=abc`,
			expected: Entry{
				Time:  "2026-10-17T09:12:01Z",
				Level: "warning",
				Msg:   "remote write failed",
				Fields: [][2]string{
					{"error", "create note n1: boom"},
					{"note", "n1"},
					{"op", "create"},
					{"origin", "abc"},
				},
			},
		},
		{
			name:     "escaped quotes",
			input:    `level=info msg="said \"hi\""`,
			expected: Entry{Level: "info", Msg: `said "hi"`},
		},
		{
			name:     "pairs without level",
			input:    "a=1 b=2",
			expected: Entry{Msg: "a=1 b=2"},
		},
		{
			name:     "key without value",
			input:    `level=debug msg=tick stale`,
			expected: Entry{Level: "debug", Msg: "tick", Fields: [][2]string{{"stale", ""}}},
		},
		{
			name:     "unterminated quote",
			input:    `level=info msg="oops`,
			expected: Entry{Msg: `level=info msg="oops`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLine(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ParseLine() = %#v, want %#v", got, tt.expected)
			}
		})
	}
}

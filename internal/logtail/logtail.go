package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-logfmt/logfmt"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns the whole file. A missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := range count {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Entry is one line of logrus text output split into its parts.
type Entry struct {
	Time   string
	Level  string
	Msg    string
	Fields [][2]string // remaining key/value pairs in file order
}

// ParseLine splits a logrus TextFormatter line, which is logfmt. Lines that
// are not logfmt or carry no level come back with the whole text in Msg.
func ParseLine(line string) Entry {
	if strings.TrimSpace(line) == "" {
		return Entry{}
	}
	var e Entry
	d := logfmt.NewDecoder(strings.NewReader(line))
	if d.ScanRecord() {
		for d.ScanKeyval() {
			key, value := string(d.Key()), string(d.Value())
			switch key {
			case "time":
				e.Time = value
			case "level":
				e.Level = value
			case "msg":
				e.Msg = value
			default:
				e.Fields = append(e.Fields, [2]string{key, value})
			}
		}
	}
	if d.Err() != nil || e.Level == "" {
		return Entry{Msg: line}
	}
	return e
}

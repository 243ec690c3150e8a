package github

import (
	"regexp"
	"strings"
)

var (
	logTimestamp = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d+Z)`)
	logCommand   = regexp.MustCompile(`^##\[(debug|warning|error|notice|group|endgroup)\]`)
)

// LogLine is one non-blank line of a job log
type LogLine struct {
	ID        int    `json:"id"`
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Raw       string `json:"raw"`
}

// ParseJobLog splits a raw Actions log into lines with a timestamp and a level.
// Workflow commands such as ##[error] set the level; the scraper's own markers
// override it.
func ParseJobLog(raw string) []LogLine {
	var lines []LogLine
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		entry := LogLine{ID: len(lines), Level: "info", Message: line, Raw: line}
		if m := logTimestamp.FindStringSubmatch(line); m != nil {
			entry.Timestamp = m[1]
			entry.Message = strings.TrimSpace(line[len(m[0]):])
		}
		if m := logCommand.FindStringSubmatch(entry.Message); m != nil {
			entry.Level = m[1]
			entry.Message = strings.TrimSpace(entry.Message[len(m[0]):])
		}

		switch msg := entry.Message; {
		case strings.Contains(msg, "✅") || strings.Contains(msg, "SUCCESS"):
			entry.Level = "success"
		case strings.Contains(msg, "❌") || strings.Contains(msg, "ERROR") || strings.Contains(msg, "FAILED"):
			entry.Level = "error"
		case strings.Contains(msg, "⚠️") || strings.Contains(msg, "WARNING"):
			entry.Level = "warning"
		}

		if entry.Message == "" {
			entry.Message = line
		}
		lines = append(lines, entry)
	}
	return lines
}

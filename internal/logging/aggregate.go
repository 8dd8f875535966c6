// Package logging provides structured logging for the simulation processes.
// This file contains utilities for merging the per-role log files into one
// chronological stream for post-hoc analysis of a simulation run.
package logging

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// LogEntry represents a parsed log entry with all structured fields.
type LogEntry struct {
	Timestamp time.Time      `json:"time"`
	Level     string         `json:"level"`
	Message   string         `json:"msg"`
	Role      string         `json:"role,omitempty"`
	Component string         `json:"component,omitempty"`
	Worker    int            `json:"worker,omitempty"`
	Service   string         `json:"service,omitempty"`
	Day       int            `json:"day,omitempty"`
	Attrs     map[string]any `json:"attrs,omitempty"`
}

// LogFilter defines criteria for filtering log entries.
// Multiple criteria are combined with AND logic.
type LogFilter struct {
	// Level filters to entries at or above this level (DEBUG < INFO < WARN < ERROR).
	Level string

	// StartTime filters to entries at or after this time.
	StartTime time.Time

	// EndTime filters to entries at or before this time.
	EndTime time.Time

	// Role filters to entries from one process role (director, broker, workers, users).
	Role string

	// Component filters to entries from one component.
	Component string

	// Service filters to entries tagged with one service type.
	Service string

	// Day filters to entries from one simulated day. Zero means no day filtering.
	Day int

	// MessageContains filters to entries whose message contains this substring.
	MessageContains string
}

// levelOrder defines the ordering of log levels for filtering.
var levelOrder = map[string]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// AggregateLogs reads and parses every *.log file in the log directory
// (one per process role) and merges the entries into a single slice sorted
// by timestamp. Unparseable lines are skipped so a partially corrupted file
// does not block analysis.
func AggregateLogs(logDir string) ([]LogEntry, error) {
	paths, err := filepath.Glob(filepath.Join(logDir, "*.log"))
	if err != nil {
		return nil, fmt.Errorf("failed to list log files: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no log files found in %s", logDir)
	}

	var entries []LogEntry
	for _, path := range paths {
		fileEntries, err := readLogFile(path)
		if err != nil {
			return nil, err
		}
		entries = append(entries, fileEntries...)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})

	return entries, nil
}

// readLogFile parses one per-role log file line by line.
func readLogFile(path string) ([]LogEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var entries []LogEntry
	scanner := bufio.NewScanner(file)

	// Increase buffer size for potentially long log lines
	const maxScanTokenSize = 1024 * 1024 // 1MB
	buf := make([]byte, maxScanTokenSize)
	scanner.Buffer(buf, maxScanTokenSize)

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		entry, err := parseLogEntry(line)
		if err != nil {
			// Skip parse errors so partial recovery from corrupted logs works
			continue
		}
		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading log file %s: %w", path, err)
	}
	return entries, nil
}

// parseLogEntry parses a single JSON log line into a LogEntry.
func parseLogEntry(line string) (LogEntry, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return LogEntry{}, fmt.Errorf("invalid JSON: %w", err)
	}

	entry := LogEntry{
		Attrs:  make(map[string]any),
		Worker: -1,
	}

	if timeStr, ok := raw["time"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, timeStr); err == nil {
			entry.Timestamp = t
		}
	}
	if level, ok := raw["level"].(string); ok {
		entry.Level = level
	}
	if msg, ok := raw["msg"].(string); ok {
		entry.Message = msg
	}
	if role, ok := raw["role"].(string); ok {
		entry.Role = role
	}
	if component, ok := raw["component"].(string); ok {
		entry.Component = component
	}
	if service, ok := raw["service"].(string); ok {
		entry.Service = service
	}
	// JSON numbers decode as float64
	if worker, ok := raw["worker"].(float64); ok {
		entry.Worker = int(worker)
	}
	if day, ok := raw["day"].(float64); ok {
		entry.Day = int(day)
	}

	standardFields := map[string]bool{
		"time": true, "level": true, "msg": true, "role": true,
		"component": true, "worker": true, "service": true, "day": true,
	}
	for k, v := range raw {
		if !standardFields[k] {
			entry.Attrs[k] = v
		}
	}

	return entry, nil
}

// FilterLogs filters log entries based on the provided filter criteria.
func FilterLogs(entries []LogEntry, filter LogFilter) []LogEntry {
	if isEmptyFilter(filter) {
		return entries
	}

	var filtered []LogEntry
	for _, entry := range entries {
		if matchesFilter(entry, filter) {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

// isEmptyFilter checks if no filter criteria are set.
func isEmptyFilter(f LogFilter) bool {
	return f.Level == "" &&
		f.StartTime.IsZero() &&
		f.EndTime.IsZero() &&
		f.Role == "" &&
		f.Component == "" &&
		f.Service == "" &&
		f.Day == 0 &&
		f.MessageContains == ""
}

// matchesFilter checks if an entry matches all filter criteria.
func matchesFilter(entry LogEntry, filter LogFilter) bool {
	if filter.Level != "" {
		filterOrder, filterOk := levelOrder[strings.ToUpper(filter.Level)]
		entryOrder, entryOk := levelOrder[entry.Level]
		if filterOk && entryOk && entryOrder < filterOrder {
			return false
		}
	}

	if !filter.StartTime.IsZero() && entry.Timestamp.Before(filter.StartTime) {
		return false
	}
	if !filter.EndTime.IsZero() && entry.Timestamp.After(filter.EndTime) {
		return false
	}

	if filter.Role != "" && entry.Role != filter.Role {
		return false
	}
	if filter.Component != "" && entry.Component != filter.Component {
		return false
	}
	if filter.Service != "" && entry.Service != filter.Service {
		return false
	}
	if filter.Day != 0 && entry.Day != filter.Day {
		return false
	}
	if filter.MessageContains != "" && !strings.Contains(entry.Message, filter.MessageContains) {
		return false
	}

	return true
}

// ExportLogs merges the log directory and exports the entries to a file in
// the specified format. Supported formats: "json", "text", "csv".
func ExportLogs(logDir, outputPath string, format string) error {
	entries, err := AggregateLogs(logDir)
	if err != nil {
		return fmt.Errorf("failed to aggregate logs: %w", err)
	}
	return ExportLogEntries(entries, outputPath, format)
}

// ExportLogEntries exports the given log entries to a file in the specified
// format. This allows exporting filtered logs that have already been
// aggregated. Supported formats: "json", "text", "csv".
func ExportLogEntries(entries []LogEntry, outputPath string, format string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	switch strings.ToLower(format) {
	case "json":
		return exportJSON(file, entries)
	case "text":
		return exportText(file, entries)
	case "csv":
		return exportCSV(file, entries)
	default:
		return fmt.Errorf("unsupported export format: %s (supported: json, text, csv)", format)
	}
}

// exportJSON writes entries as a JSON array.
func exportJSON(file *os.File, entries []LogEntry) error {
	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(entries)
}

// exportText writes entries in a human-readable text format.
func exportText(file *os.File, entries []LogEntry) error {
	for _, entry := range entries {
		// Format: [TIMESTAMP] LEVEL role - MESSAGE (context) {attrs}
		var parts []string

		ts := entry.Timestamp.Format("2006-01-02 15:04:05.000")
		parts = append(parts, fmt.Sprintf("[%s]", ts))
		parts = append(parts, entry.Level)
		if entry.Role != "" {
			parts = append(parts, entry.Role)
		}
		parts = append(parts, "-", entry.Message)

		var context []string
		if entry.Component != "" {
			context = append(context, fmt.Sprintf("component=%s", entry.Component))
		}
		if entry.Worker >= 0 {
			context = append(context, fmt.Sprintf("worker=%d", entry.Worker))
		}
		if entry.Service != "" {
			context = append(context, fmt.Sprintf("service=%s", entry.Service))
		}
		if entry.Day != 0 {
			context = append(context, fmt.Sprintf("day=%d", entry.Day))
		}
		if len(context) > 0 {
			parts = append(parts, fmt.Sprintf("(%s)", strings.Join(context, ", ")))
		}

		if len(entry.Attrs) > 0 {
			attrsJSON, _ := json.Marshal(entry.Attrs)
			parts = append(parts, string(attrsJSON))
		}

		line := strings.Join(parts, " ") + "\n"
		if _, err := file.WriteString(line); err != nil {
			return fmt.Errorf("failed to write text entry: %w", err)
		}
	}

	return nil
}

// exportCSV writes entries as CSV with headers.
func exportCSV(file *os.File, entries []LogEntry) error {
	writer := csv.NewWriter(file)
	defer writer.Flush()

	headers := []string{"timestamp", "level", "role", "component", "worker", "service", "day", "message", "attrs"}
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, entry := range entries {
		attrsJSON := ""
		if len(entry.Attrs) > 0 {
			if b, err := json.Marshal(entry.Attrs); err == nil {
				attrsJSON = string(b)
			}
		}

		worker := ""
		if entry.Worker >= 0 {
			worker = fmt.Sprintf("%d", entry.Worker)
		}

		record := []string{
			entry.Timestamp.Format(time.RFC3339Nano),
			entry.Level,
			entry.Role,
			entry.Component,
			worker,
			entry.Service,
			fmt.Sprintf("%d", entry.Day),
			entry.Message,
			attrsJSON,
		}

		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	return nil
}

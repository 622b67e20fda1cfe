package harvest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// JSONLSink appends records to a line-delimited file as they are produced.
// Records are flushed per line, so an interrupted run still leaves a valid
// (possibly truncated) file behind.
type JSONLSink struct {
	file   *os.File
	writer *bufio.Writer
	path   string
	logger *zap.Logger
}

// NewJSONLSink creates the output directory if needed and opens the sink
// file for writing, truncating any previous run's output.
func NewJSONLSink(path string, logger *zap.Logger) (*JSONLSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create output dir for %s: %w", path, err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open sink %s: %w", path, err)
	}
	return &JSONLSink{
		file:   file,
		writer: bufio.NewWriter(file),
		path:   path,
		logger: logger,
	}, nil
}

// Path returns the sink file location.
func (s *JSONLSink) Path() string {
	return s.path
}

// Append serializes one record as a single line and flushes it.
func (s *JSONLSink) Append(rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if _, err := s.writer.Write(payload); err != nil {
		return fmt.Errorf("write record to %s: %w", s.path, err)
	}
	if err := s.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write record to %s: %w", s.path, err)
	}
	if err := s.writer.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", s.path, err)
	}
	return nil
}

// Close flushes and closes the sink file. Safe to call once on every exit
// path.
func (s *JSONLSink) Close() error {
	if err := s.writer.Flush(); err != nil {
		_ = s.file.Close()
		return fmt.Errorf("flush %s: %w", s.path, err)
	}
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", s.path, err)
	}
	s.logger.Debug("Sink closed", zap.String("path", s.path))
	return nil
}

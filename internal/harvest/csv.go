package harvest

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
)

// DefaultColumns is the column order used for CSV export unless an
// explicit order is supplied.
var DefaultColumns = []string{
	"date", "chamber", "speaker", "bioguide_id", "title", "page", "package_id", "granule_id", "text",
}

// JSONLToCSV reads the line-delimited output back and re-serializes it as
// CSV with a header row. Columns absent from a record are written empty.
// The pass is all-or-nothing: any malformed line aborts with a parse
// error and no row count. Returns the number of data rows written.
func JSONLToCSV(jsonlPath, csvPath string, columns []string) (int, error) {
	if len(columns) == 0 {
		columns = DefaultColumns
	}

	in, err := os.Open(jsonlPath)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", jsonlPath, err)
	}
	defer func() { _ = in.Close() }()

	rows := [][]string{}
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec map[string]string
		if err := json.Unmarshal(line, &rec); err != nil {
			return 0, fmt.Errorf("parse %s line %d: %w", jsonlPath, lineNo, err)
		}
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = rec[col]
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("read %s: %w", jsonlPath, err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	out, err := os.OpenFile(csvPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", csvPath, err)
	}
	w := csv.NewWriter(out)
	if err := w.Write(columns); err != nil {
		_ = out.Close()
		return 0, fmt.Errorf("write %s header: %w", csvPath, err)
	}
	if err := w.WriteAll(rows); err != nil {
		_ = out.Close()
		return 0, fmt.Errorf("write %s rows: %w", csvPath, err)
	}
	if err := out.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", csvPath, err)
	}
	return len(rows), nil
}

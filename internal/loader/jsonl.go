package loader

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/audiencekit/vendorlens/pkg/errors"
	"github.com/audiencekit/vendorlens/pkg/logging"
	"github.com/audiencekit/vendorlens/pkg/tables"
)

// jsonlLine is one exported match row: the identity, the raw vendor payload,
// and an optional segment label.
type jsonlLine struct {
	Identity string          `json:"identity"`
	Payload  json.RawMessage `json:"payload"`
	Segment  string          `json:"segment,omitempty"`
}

// maxLineBytes bounds a single JSONL line; vendor payloads run to a few
// hundred KB at most.
const maxLineBytes = 4 * 1024 * 1024

// FromJSONL reads vendor match rows from a JSON-lines file, one object per
// line. Blank lines are skipped. A line that is not a valid object is a
// parse error; a payload that does not parse degrades to an identity-only
// row, matching the Postgres loader.
func FromJSONL(path string, shape Shape) ([]tables.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer func() { _ = f.Close() }()

	var rows []tables.Row
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec jsonlLine
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, errors.NewParseError("jsonl", path,
				fmt.Sprintf("line %d is not a valid row object", lineNo), err)
		}
		if rec.Identity == "" {
			continue
		}
		rows = append(rows, row(rec.Identity, rec.Segment, rec.Payload, shape))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	logging.Debug().
		Str("path", path).
		Int("rows", len(rows)).
		Msg("Loaded rows from jsonl")

	return rows, nil
}

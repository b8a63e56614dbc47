package synth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// LoadTexts reads batch input from path. A document that is valid JSON starting
// with '[' is decoded as an array of strings; anything else, including a text
// file whose first line opens with '[', is read as one text per non-empty line.
func LoadTexts(path string) ([]string, error) {
	// #nosec G304 -- path is supplied by the operator on the command line
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch input %s: %w", path, err)
	}

	return ParseTexts(data)
}

// ParseTexts decodes batch input; see LoadTexts.
func ParseTexts(data []byte) ([]string, error) {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(data, []byte("\ufeff")))
	if len(trimmed) == 0 {
		return nil, ErrBatchEmpty
	}

	if trimmed[0] == '[' && json.Valid(trimmed) {
		var texts []string

		err := json.Unmarshal(trimmed, &texts)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
		}

		if len(texts) == 0 {
			return nil, ErrBatchEmpty
		}

		return texts, nil
	}

	return parseLines(trimmed), nil
}

func parseLines(data []byte) []string {
	var texts []string

	for line := range strings.SplitSeq(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			texts = append(texts, line)
		}
	}

	return texts
}

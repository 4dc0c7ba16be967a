package chunk

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// WriteRecords serializes chunks as JSON Lines, one record per chunk,
// preserving order. The format is the interchange artifact between
// segmentation and embedding: a later process (or a re-run) can consume
// it without re-segmenting.
func WriteRecords(w io.Writer, chunks []Chunk) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for i := range chunks {
		if err := enc.Encode(&chunks[i]); err != nil {
			return fmt.Errorf("encode chunk %s: %w", chunks[i].ID, err)
		}
	}
	return bw.Flush()
}

// ReadRecords parses a JSON Lines chunk artifact, preserving order.
// Blank lines are skipped; a malformed line fails the whole read.
func ReadRecords(r io.Reader) ([]Chunk, error) {
	var chunks []Chunk
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var c Chunk
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("parse chunk record at line %d: %w", line, err)
		}
		chunks = append(chunks, c)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read chunk records: %w", err)
	}
	return chunks, nil
}

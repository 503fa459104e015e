// Package replay defines the per-turn audit record and its newline-delimited
// JSON encoding. Records are produced by the turn engine and consumed by the
// download endpoint and the offline playback tool.
package replay

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/gzip"
)

// Line is one consumed player message of a round.
type Line struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// AgentSnapshot captures what an agent held and said at the end of a turn.
type AgentSnapshot struct {
	Note  string `json:"note"`
	Reply string `json:"reply"`
	Guess string `json:"guess"`
}

// Record is a single resolved turn as written to a .jsonl export.
type Record struct {
	GameID    string                   `json:"game_id"`
	Timestamp time.Time                `json:"timestamp"`
	Turn      int                      `json:"turn"`
	TurnLines []Line                   `json:"turn_lines"`
	Agents    map[string]AgentSnapshot `json:"agents"`
	Outcome   string                   `json:"outcome"`
}

// WriteJSONL encodes records one per line.
func WriteJSONL(w io.Writer, records []Record) error {
	enc := json.NewEncoder(w)
	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode replay turn %d: %w", i+1, err)
		}
	}
	return nil
}

// WriteGzipJSONL is WriteJSONL behind a gzip stream.
func WriteGzipJSONL(w io.Writer, records []Record) error {
	zw := gzip.NewWriter(w)
	if err := WriteJSONL(zw, records); err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}

// ReadJSONL decodes a replay export. Gzip input is detected from its magic
// bytes and decompressed transparently. Blank lines are skipped.
func ReadJSONL(r io.Reader) ([]Record, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read replay: %w", err)
	}
	var src io.Reader = br
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open gzip replay: %w", err)
		}
		defer zr.Close()
		src = zr
	}

	var out []Record
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), 4<<20)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("decode replay line %d: %w", lineNo, err)
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read replay: %w", err)
	}
	return out, nil
}

// Package jsonl reads and writes newline-delimited JSON entity ledgers and
// parses ledgers left with literal git conflict markers.
package jsonl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sudocode-ai/sudocode/internal/entity"
)

// maxLineSize bounds a single JSONL line. Entity descriptions can carry
// whole documents, so this is well above the bufio default.
const maxLineSize = 16 * 1024 * 1024

// ReadEntities decodes one entity per line. A line that fails to decode is
// skipped with a warning rather than aborting the whole read; blank lines
// are ignored. The only error returned is a read failure on r itself.
func ReadEntities(r io.Reader) ([]entity.Entity, []string, error) {
	var entities []entity.Entity
	var warnings []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if line == "" {
			continue
		}

		var e entity.Entity
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			warnings = append(warnings, fmt.Sprintf("skipping malformed line %d: %v", lineNum, err))
			continue
		}
		entities = append(entities, e)
	}
	if err := scanner.Err(); err != nil {
		return entities, warnings, fmt.Errorf("reading jsonl: %w", err)
	}
	return entities, warnings, nil
}

// ReadEntitiesFile reads a JSONL ledger from disk. A missing file yields an
// empty collection: the merge driver receives empty temp files for absent
// ancestors, and a ledger that does not exist yet is simply empty.
func ReadEntitiesFile(path string) ([]entity.Entity, []string, error) {
	f, err := os.Open(path) // #nosec G304 -- ledger path supplied by caller
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	entities, warnings, err := ReadEntities(f)
	if err != nil {
		return entities, warnings, fmt.Errorf("reading %s: %w", path, err)
	}
	return entities, warnings, nil
}

// WriteEntities writes one compact JSON object per line with a trailing
// newline, no enclosing array.
func WriteEntities(w io.Writer, entities []entity.Entity) error {
	bw := bufio.NewWriter(w)
	for _, e := range entities {
		line, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshaling entity %s: %w", e.ID(), err)
		}
		if _, err := bw.Write(line); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteEntitiesFile writes a ledger atomically: the content lands in a
// temp file in the same directory and is renamed over the target, so a
// failed write never leaves partial output behind.
func WriteEntitiesFile(path string, entities []entity.Entity) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := WriteEntities(tmp, entities); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

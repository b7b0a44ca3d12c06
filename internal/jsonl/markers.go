package jsonl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/sudocode-ai/sudocode/internal/entity"
)

// SectionType distinguishes clean line runs from conflicted ones.
type SectionType string

const (
	SectionClean    SectionType = "clean"
	SectionConflict SectionType = "conflict"
)

// Section is one run of lines from a conflict-marked file: either a clean
// run, or a conflict block carrying the ours and theirs sides separately.
type Section struct {
	Type   SectionType
	Lines  []string // clean sections
	Ours   []string // conflict sections
	Theirs []string
}

// Conflict marker boundary prefixes, per the standard git convention.
const (
	markerOurs      = "<<<<<<<"
	markerSeparator = "======="
	markerTheirs    = ">>>>>>>"
)

func isMarker(line, marker string) bool {
	return line == marker || strings.HasPrefix(line, marker+" ")
}

// ParseMergeConflictFile splits a file containing literal git conflict
// markers into clean and conflicted sections. An unterminated conflict
// block at EOF is closed as-is rather than rejected; the per-line JSON
// decode downstream tolerates whatever half-written content remains.
func ParseMergeConflictFile(content string) []Section {
	var sections []Section
	var clean []string
	var current *Section
	inTheirs := false

	flushClean := func() {
		if len(clean) > 0 {
			sections = append(sections, Section{Type: SectionClean, Lines: clean})
			clean = nil
		}
	}

	for _, line := range strings.Split(content, "\n") {
		switch {
		case current == nil && isMarker(line, markerOurs):
			flushClean()
			current = &Section{Type: SectionConflict}
			inTheirs = false
		case current != nil && isMarker(line, markerSeparator):
			inTheirs = true
		case current != nil && isMarker(line, markerTheirs):
			sections = append(sections, *current)
			current = nil
		case current != nil:
			if inTheirs {
				current.Theirs = append(current.Theirs, line)
			} else {
				current.Ours = append(current.Ours, line)
			}
		default:
			if line != "" {
				clean = append(clean, line)
			}
		}
	}
	if current != nil {
		sections = append(sections, *current)
	}
	flushClean()
	return sections
}

// HasGitConflictMarkers cheaply tests whether a file contains git conflict
// markers, so callers can skip parsing entirely on the common clean path.
func HasGitConflictMarkers(path string) (bool, error) {
	f, err := os.Open(path) // #nosec G304 -- ledger path supplied by caller
	if err != nil {
		return false, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Text()
		if isMarker(line, markerOurs) || isMarker(line, markerTheirs) {
			return true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return false, fmt.Errorf("scanning %s: %w", path, err)
	}
	return false, nil
}

// DecodeSections assembles the effective ours and theirs collections from
// parsed sections: clean lines contribute to both sides, conflict blocks
// to their respective side only. Resolving the file is then a three-way
// merge with an empty base, where the shared clean records land in the
// concurrent-addition path and merge back to themselves.
func DecodeSections(sections []Section) (ours, theirs []entity.Entity, warnings []string) {
	decode := func(lines []string, side string) []entity.Entity {
		var out []entity.Entity
		for i, line := range lines {
			if line == "" {
				continue
			}
			var e entity.Entity
			if err := json.Unmarshal([]byte(line), &e); err != nil {
				warnings = append(warnings, fmt.Sprintf("skipping malformed %s line %d: %v", side, i+1, err))
				continue
			}
			out = append(out, e)
		}
		return out
	}

	for _, sec := range sections {
		switch sec.Type {
		case SectionClean:
			decoded := decode(sec.Lines, "clean")
			ours = append(ours, decoded...)
			theirs = append(theirs, decoded...)
		case SectionConflict:
			ours = append(ours, decode(sec.Ours, "ours")...)
			theirs = append(theirs, decode(sec.Theirs, "theirs")...)
		}
	}
	return ours, theirs, warnings
}

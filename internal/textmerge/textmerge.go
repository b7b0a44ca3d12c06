// Package textmerge implements a three-way, line-granularity text merge
// compatible with git merge-file / diff3 semantics.
//
// Edits that touch disjoint line ranges of the base are both kept; edits
// that touch overlapping ranges with different content are reported as a
// conflict and no line-level splice is attempted. Line comparison is exact:
// no whitespace normalization.
package textmerge

import (
	"slices"
	"strings"
)

// Result is the outcome of a three-way text merge. When Conflicted is true
// Merged is empty and the caller is responsible for whole-field fallback;
// conflict markers are never injected into the output.
type Result struct {
	Merged     string
	Conflicted bool
}

// Merge performs a three-way merge of base, ours, and theirs.
func Merge(base, ours, theirs string) Result {
	// Fast paths: equal sides never conflict.
	if ours == theirs {
		return Result{Merged: ours}
	}
	if base == ours {
		return Result{Merged: theirs}
	}
	if base == theirs {
		return Result{Merged: ours}
	}

	baseLines := strings.Split(base, "\n")
	oursLines := strings.Split(ours, "\n")
	theirsLines := strings.Split(theirs, "\n")

	matchOurs := matchIndex(baseLines, oursLines)
	matchTheirs := matchIndex(baseLines, theirsLines)

	var merged []string
	i, o, t := 0, 0, 0
	for {
		// Emit the stable region where both sides align with base.
		for i < len(baseLines) {
			mo, okO := matchOurs[i]
			mt, okT := matchTheirs[i]
			if !okO || !okT || mo != o || mt != t {
				break
			}
			merged = append(merged, baseLines[i])
			i++
			o++
			t++
		}
		if i >= len(baseLines) && o >= len(oursLines) && t >= len(theirsLines) {
			break
		}

		// Find the next base line matched on both sides; the three chunks
		// up to that point form one unstable region.
		next := i
		var nextO, nextT int
		found := false
		for k := i; k < len(baseLines); k++ {
			mo, okO := matchOurs[k]
			mt, okT := matchTheirs[k]
			if okO && okT && mo >= o && mt >= t {
				next, nextO, nextT = k, mo, mt
				found = true
				break
			}
		}
		if !found {
			next, nextO, nextT = len(baseLines), len(oursLines), len(theirsLines)
		}

		baseChunk := baseLines[i:next]
		oursChunk := oursLines[o:nextO]
		theirsChunk := theirsLines[t:nextT]

		switch {
		case slices.Equal(oursChunk, baseChunk):
			merged = append(merged, theirsChunk...)
		case slices.Equal(theirsChunk, baseChunk):
			merged = append(merged, oursChunk...)
		case slices.Equal(oursChunk, theirsChunk):
			// Both sides made the identical change: convergent, not a conflict.
			merged = append(merged, oursChunk...)
		default:
			return Result{Conflicted: true}
		}

		i, o, t = next, nextO, nextT
	}

	return Result{Merged: strings.Join(merged, "\n")}
}

// matchIndex computes a longest-common-subsequence alignment between base
// and side, returning base index -> side index for every matched line.
func matchIndex(base, side []string) map[int]int {
	n, m := len(base), len(side)
	// lcs[i][j] = LCS length of base[i:], side[j:]
	lcs := make([][]int, n+1)
	for i := range lcs {
		lcs[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if base[i] == side[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else {
				lcs[i][j] = max(lcs[i+1][j], lcs[i][j+1])
			}
		}
	}

	match := make(map[int]int)
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case base[i] == side[j]:
			match[i] = j
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			i++
		default:
			j++
		}
	}
	return match
}

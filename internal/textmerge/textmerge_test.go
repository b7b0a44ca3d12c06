package textmerge

import "testing"

func TestMerge(t *testing.T) {
	tests := []struct {
		name       string
		base       string
		ours       string
		theirs     string
		want       string
		conflicted bool
	}{
		{
			name: "identical inputs",
			base: "A\nB", ours: "A\nB", theirs: "A\nB",
			want: "A\nB",
		},
		{
			name: "only ours changed",
			base: "A\nB", ours: "A\nB2", theirs: "A\nB",
			want: "A\nB2",
		},
		{
			name: "only theirs changed",
			base: "A\nB", ours: "A\nB", theirs: "A2\nB",
			want: "A2\nB",
		},
		{
			name: "convergent change",
			base: "A\nB", ours: "A\nC", theirs: "A\nC",
			want: "A\nC",
		},
		{
			name: "disjoint edits at opposite ends",
			base: "L1\nL2\nL3", ours: "L1x\nL2\nL3", theirs: "L1\nL2\nL3y",
			want: "L1x\nL2\nL3y",
		},
		{
			name: "insertions at opposite ends",
			base: "A\nB", ours: "X\nA\nB", theirs: "A\nB\nY",
			want: "X\nA\nB\nY",
		},
		{
			name: "same line edited both sides",
			base: "A\nB", ours: "A1\nB", theirs: "A2\nB",
			conflicted: true,
		},
		{
			name: "adjacent conflicting insertions",
			base: "A", ours: "A\nX", theirs: "A\nY",
			conflicted: true,
		},
		{
			name: "ours deleted what theirs edited",
			base: "A\nB\nC", ours: "A\nC", theirs: "A\nB2\nC",
			conflicted: true,
		},
		{
			// B and C are adjacent, so the deletion and the edit collapse
			// into one unstable region: conflict, matching git merge-file.
			name: "deletion adjacent to edit",
			base: "A\nB\nC", ours: "A\nC", theirs: "A\nB\nC2",
			conflicted: true,
		},
		{
			name: "deletion separated from edit by stable line",
			base: "A\nB\nC\nD", ours: "A\nC\nD", theirs: "A\nB\nC\nD2",
			want: "A\nC\nD2",
		},
		{
			name: "empty base both sides add same",
			base: "", ours: "new", theirs: "new",
			want: "new",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.base, tt.ours, tt.theirs)
			if got.Conflicted != tt.conflicted {
				t.Fatalf("Conflicted = %v, want %v", got.Conflicted, tt.conflicted)
			}
			if tt.conflicted {
				return
			}
			if got.Merged != tt.want {
				t.Errorf("Merged = %q, want %q", got.Merged, tt.want)
			}
		})
	}
}

package entity

// Conflict kinds recorded by the merge engine.
const (
	ConflictKindField     = "field"
	ConflictKindDuplicate = "duplicate"
)

// Resolutions recorded by the merge engine.
const (
	ResolutionOurs   = "ours"
	ResolutionTheirs = "theirs"
	ResolutionLatest = "latest"
)

// Conflict is one append-only log entry describing how a detected conflict
// was auto-resolved. Entries are scoped to a single merge invocation and
// never mutated after creation.
type Conflict struct {
	EntityID   string `json:"entity_id"`
	Field      string `json:"field,omitempty"`
	Kind       string `json:"kind"`
	Action     string `json:"action"`
	Resolution string `json:"resolution"`
}

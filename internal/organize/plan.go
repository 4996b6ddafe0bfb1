package organize

import (
	"errors"
	"time"
)

// Action distinguishes entries that move a track between directories from
// entries that only rename it in place.
type Action string

const (
	ActionMove   Action = "move"
	ActionRename Action = "rename"
)

// ErrDestinationCollision reports that two entries still resolved to the same
// destination after suffixing. Plans carrying it are rejected outright.
var ErrDestinationCollision = errors.New("organize: destination collision in plan")

// Entry maps one track file to its computed destination.
type Entry struct {
	SourcePath      string `json:"source_path"`
	DestinationPath string `json:"destination_path"`
	Action          Action `json:"action"`
}

// Plan is an ordered set of renames derived from a single catalog snapshot.
// Entries appear in lexicographic source order and no-op moves are omitted.
type Plan struct {
	ID        string    `json:"id"`
	Pattern   string    `json:"pattern"`
	CreatedAt time.Time `json:"created_at"`
	Entries   []Entry   `json:"entries"`
}

// ConflictKind classifies what Validate found wrong with a plan entry.
type ConflictKind string

const (
	// ConflictDestinationCollision marks two entries sharing a destination.
	ConflictDestinationCollision ConflictKind = "destination_collision"
	// ConflictSourceMissing marks an entry whose source no longer exists.
	ConflictSourceMissing ConflictKind = "source_missing"
	// ConflictDestinationExists marks an entry whose destination is already
	// occupied by a file outside the plan.
	ConflictDestinationExists ConflictKind = "destination_exists"
)

// Conflict ties a validation failure to the entry that triggered it.
type Conflict struct {
	Kind            ConflictKind `json:"kind"`
	SourcePath      string       `json:"source_path"`
	DestinationPath string       `json:"destination_path"`
}

package types

import "time"

// Lane is one of the three fixed priority levels jobs are routed through.
type Lane string

const (
	LaneLow    Lane = "low"
	LaneMedium Lane = "medium"
	LaneHigh   Lane = "high"
)

func (l Lane) Valid() bool {
	return l == LaneLow || l == LaneMedium || l == LaneHigh
}

var AllLanes = []Lane{LaneLow, LaneMedium, LaneHigh}

// JobKind discriminates scan work from maintenance work on the wire. Both
// travel through the same queue fabric and worker pool.
type JobKind string

const (
	KindScan        JobKind = "scan"
	KindCorrelation JobKind = "correlation"
	KindRollover    JobKind = "rollover"
)

// Job is the wire representation of one unit of work. For scan jobs the ID is
// the submitter-assigned task id; maintenance jobs carry a synthetic id built
// from the trigger name and its occurrence time.
type Job struct {
	ID   string  `json:"id"`
	Kind JobKind `json:"kind"`

	// Scan payload. FileRef is the temp path handed over by the submission
	// service; OriginalFilename is what the report is keyed by.
	FileRef          string         `json:"file_ref,omitempty"`
	OriginalFilename string         `json:"original_filename,omitempty"`
	FileHash         string         `json:"file_hash,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`

	// ModuleSubset restricts the scan to the named modules. Empty means the
	// full enabled set from the module configuration.
	ModuleSubset []string `json:"module_subset,omitempty"`

	// RetentionDays is carried by rollover jobs only, resolved at fire time.
	RetentionDays int `json:"retention_days,omitempty"`

	Lane        Lane      `json:"lane"`
	SubPriority int       `json:"sub_priority"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}

// SubmitRequest is what the upstream submission service hands to the
// orchestration layer for one file.
type SubmitRequest struct {
	TaskID           string
	FileRef          string
	OriginalFilename string
	FileHash         string
	Metadata         map[string]any
	ModuleSubset     []string
	Lane             Lane
	SubPriority      int
}

package types

import "time"

// Findings is one module-keyed result set produced by the scan engine for a
// single file.
type Findings map[string]any

// ScanResultEnvelope is the assembled output of a completed scan job: the
// engine findings re-keyed to the original filename, plus the run metadata
// injected by the dispatcher. It is built once after the engine returns and
// read-only from there on.
type ScanResultEnvelope struct {
	TaskID   string
	Filename string
	Findings Findings
	Metadata map[string]any
	// ScanTime anchors the job's terminal timestamp; it is the scan
	// completion time, not the time any backend happened to persist.
	ScanTime time.Time
}

// Report renders the envelope the way backends persist it: findings keyed by
// the original filename with the scan metadata folded in.
func (e *ScanResultEnvelope) Report() map[string]any {
	entry := make(map[string]any, len(e.Findings)+1)
	for k, v := range e.Findings {
		entry[k] = v
	}
	entry["Scan Metadata"] = e.Metadata
	return map[string]any{e.Filename: entry}
}

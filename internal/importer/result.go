package importer

import "github.com/google/uuid"

// Entity names used in result counters.
const (
	EntityMember  = "members"
	EntityRole    = "roles"
	EntityPayment = "payments"
)

// RowError describes a CSV row that was not imported. Line is 1-based and
// counts the header.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// ImportResult summarizes an import run.
type ImportResult struct {
	BatchID string         `json:"batch_id"`
	DryRun  bool           `json:"dry_run"`
	Rows    int            `json:"rows"`
	Created map[string]int `json:"created"`
	Skipped []RowError     `json:"skipped"`
	Failed  []RowError     `json:"failed"`
}

// NewImportResult creates an empty result with a fresh batch id.
func NewImportResult(dryRun bool) *ImportResult {
	return &ImportResult{
		BatchID: uuid.NewString(),
		DryRun:  dryRun,
		Created: make(map[string]int),
	}
}

// IncrementCreated counts one created entity.
func (r *ImportResult) IncrementCreated(entity string) {
	r.Created[entity]++
}

// Skip records a row left out on purpose (invalid or already present).
func (r *ImportResult) Skip(line int, msg string) {
	r.Skipped = append(r.Skipped, RowError{Line: line, Message: msg})
}

// Fail records a row that could not be written.
func (r *ImportResult) Fail(line int, msg string) {
	r.Failed = append(r.Failed, RowError{Line: line, Message: msg})
}

// Success reports whether no row failed.
func (r *ImportResult) Success() bool {
	return len(r.Failed) == 0
}

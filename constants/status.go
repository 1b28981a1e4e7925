package constants

// DocStatus is the canonical status for rows in ai_documents.
type DocStatus string

// Stable values (store these exact strings in DB).
const (
	DocStatusProcessing DocStatus = "processing" // extraction queued or in progress
	DocStatusCompleted  DocStatus = "completed"  // extraction produced a result, awaiting review
	DocStatusFailed     DocStatus = "failed"     // terminal pipeline failure
	DocStatusApproved   DocStatus = "approved"   // reviewer accepted the result (terminal)
	DocStatusRejected   DocStatus = "rejected"   // reviewer discarded the result (terminal)
)

// transitions encodes the review workflow: processing -> completed|failed,
// completed -> approved|rejected. Everything else is terminal.
var transitions = map[DocStatus][]DocStatus{
	DocStatusProcessing: {DocStatusCompleted, DocStatusFailed},
	DocStatusCompleted:  {DocStatusApproved, DocStatusRejected},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to DocStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Reprocessable reports whether the pipeline may (re)run extraction for a
// document in this status. Only processing documents are eligible; further
// changes to terminal documents are human edits, not reprocessing.
func Reprocessable(s DocStatus) bool {
	return s == DocStatusProcessing
}

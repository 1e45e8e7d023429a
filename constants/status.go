package constants

// DocumentStatus is the canonical lifecycle status for rows in documents.
type DocumentStatus string

// Stable values (store these exact strings in DB).
const (
	StatusPending          DocumentStatus = "pending"           // created, no extraction attempted yet
	StatusProcessing       DocumentStatus = "processing"        // text-document extraction in flight
	StatusOCRProcessing    DocumentStatus = "ocr_processing"    // PDF/image extraction in flight
	StatusAnalyzing        DocumentStatus = "analyzing"         // pages persisted, ready for lesson generation
	StatusGeneratingScenes DocumentStatus = "generating_scenes" // lesson generation in flight
	StatusReady            DocumentStatus = "ready"             // terminal success
	StatusError            DocumentStatus = "error"             // terminal failure (first attempt)
	StatusFailed           DocumentStatus = "failed"            // terminal failure (retry path)
)

// InFlight reports whether s is a non-terminal pipeline state.
func (s DocumentStatus) InFlight() bool {
	switch s {
	case StatusProcessing, StatusOCRProcessing, StatusAnalyzing, StatusGeneratingScenes:
		return true
	}
	return false
}

// IsFailure reports whether s is one of the failure states.
func (s DocumentStatus) IsFailure() bool {
	return s == StatusError || s == StatusFailed
}

// ExtractionStartStates are the statuses from which an extraction run may
// be accepted. Re-entry from error/failed goes through the retry counter.
var ExtractionStartStates = []DocumentStatus{StatusPending, StatusError, StatusFailed}

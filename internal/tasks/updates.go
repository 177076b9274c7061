package tasks

// Phase labels a progress update with the stage that produced it.
type Phase string

const (
	PhaseFetching Phase = "fetching"
	PhaseMatching Phase = "matching"
	PhaseCreating Phase = "creating"
	PhaseAdding   Phase = "adding"
	PhaseDone     Phase = "done"
)

// ProgressUpdate is a point-in-time snapshot emitted while a conversion runs.
// Step/Total are meaningful only for the phases that count items.
type ProgressUpdate struct {
	Phase   Phase  `json:"phase"`
	Step    int    `json:"step,omitempty"`
	Total   int    `json:"total,omitempty"`
	Message string `json:"message"`
}

// sendProgress delivers an update without blocking. A slow or absent consumer
// must never stall the conversion.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

package model

// JobKind selects which provider submission shape a job uses.
type JobKind string

const (
	KindNew      JobKind = "NEW"       // prompt only, fresh scene
	KindContinue JobKind = "CONTINUE"  // extend from the prior clip's tail frames
	KindStartEnd JobKind = "START_END" // interpolate between two image anchors
	KindTextOnly JobKind = "TEXT_ONLY" // prompt + aspect ratio, no anchors
	KindExtend   JobKind = "EXTEND"    // lengthen an existing media id
)

// GenerationJob is one user-initiated generation request. Immutable once
// submitted; N seeds yield N provider operations (except EXTEND).
type GenerationJob struct {
	JobID          string   `json:"job_id"`
	Kind           JobKind  `json:"kind"`
	Prompt         string   `json:"prompt"`
	Seeds          []uint16 `json:"seeds"`
	AnchorMediaIDs []string `json:"anchor_media_ids,omitempty"` // 0-2 entries
	SceneID        string   `json:"scene_id,omitempty"`
	ProjectID      string   `json:"project_id,omitempty"`
	AspectRatio    string   `json:"aspect_ratio,omitempty"` // TEXT_ONLY
	ExtraSceneIDs  []string `json:"extra_scene_ids,omitempty"`
	DurationSecs   int      `json:"duration_secs,omitempty"` // EXTEND
}

// OperationStatus is the closed internal form of the provider's raw status
// strings. Provider strings are translated on ingress; nothing downstream
// branches on raw strings.
type OperationStatus int

const (
	StatusUnknown OperationStatus = iota
	StatusPending
	StatusActive
	StatusSuccessful
	StatusFailed
)

func (s OperationStatus) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusActive:
		return "ACTIVE"
	case StatusSuccessful:
		return "SUCCESSFUL"
	case StatusFailed:
		return "FAILED"
	}
	return "UNKNOWN"
}

// Terminal reports whether polling is finished for this status, ignoring the
// soft-retry carve-out for high-traffic failures (the poller handles that).
func (s OperationStatus) Terminal() bool {
	return s == StatusSuccessful || s == StatusFailed
}

// Provider status and failure-reason wire strings.
const (
	rawStatusPending    = "MEDIA_GENERATION_STATUS_PENDING"
	rawStatusActive     = "MEDIA_GENERATION_STATUS_ACTIVE"
	rawStatusSuccessful = "MEDIA_GENERATION_STATUS_SUCCESSFUL"
	rawStatusFailed     = "MEDIA_GENERATION_STATUS_FAILED"

	// FailureHighTraffic marks a transient capacity failure; the poller keeps
	// polling instead of counting it as terminal.
	FailureHighTraffic = "HIGH_TRAFFIC"
)

// ParseOperationStatus translates a provider status string into the internal
// enum. Unrecognized strings map to StatusUnknown.
func ParseOperationStatus(raw string) OperationStatus {
	switch raw {
	case rawStatusPending:
		return StatusPending
	case rawStatusActive:
		return StatusActive
	case rawStatusSuccessful:
		return StatusSuccessful
	case rawStatusFailed:
		return StatusFailed
	}
	return StatusUnknown
}

// Operation is a handle to one in-flight provider generation (one per
// variant). Mutated only by polling responses; discarded once the job
// resolves.
type Operation struct {
	Name          string          `json:"operation_name"`
	SceneID       string          `json:"scene_id,omitempty"`
	Status        OperationStatus `json:"status"`
	MediaID       string          `json:"media_id,omitempty"`
	VideoURL      string          `json:"video_url,omitempty"`
	FailureReason string          `json:"failure_reason,omitempty"`
}

// HighTraffic reports whether the operation failed only because the provider
// was at capacity.
func (o *Operation) HighTraffic() bool {
	return o.Status == StatusFailed && o.FailureReason == FailureHighTraffic
}

// JobResult is what a resolved job carries forward into the chain.
type JobResult struct {
	JobID            string      `json:"job_id"`
	Lane             string      `json:"lane"`
	SelectedMediaID  string      `json:"selected_media_id"`
	SelectedVideoURL string      `json:"selected_video_url,omitempty"`
	Operations       []Operation `json:"operations"`
	Attempts         int         `json:"attempts"`
}

package dto

// GenerateRequest starts one generation job on a lane. Lane empty means
// round-robin selection from the pool.
type GenerateRequest struct {
	Kind           string   `json:"kind" binding:"required"` // NEW | CONTINUE | START_END | TEXT_ONLY | EXTEND
	Prompt         string   `json:"prompt" binding:"required"`
	Lane           string   `json:"lane,omitempty"`
	Seeds          []uint16 `json:"seeds,omitempty"` // defaults to 2 random seeds
	AnchorMediaIDs []string `json:"anchor_media_ids,omitempty"`
	ExtraSceneIDs  []string `json:"extra_scene_ids,omitempty"` // TEXT_ONLY, one per seed
	ProjectID      string   `json:"project_id,omitempty"`
	SceneID        string   `json:"scene_id,omitempty"`
	AspectRatio    string   `json:"aspect_ratio,omitempty"`
	DurationSecs   int      `json:"duration_secs,omitempty"`
	AppendToScene  bool     `json:"append_to_scene,omitempty"` // append winning clip on success
}

// ChainRequest runs prompts sequentially on one lane: each job anchors on the
// previous winner and appends its clip before the next submits.
type ChainRequest struct {
	Prompts   []string `json:"prompts" binding:"required"`
	Lane      string   `json:"lane,omitempty"`
	ProjectID string   `json:"project_id,omitempty"`
	SceneID   string   `json:"scene_id,omitempty"`
	Seeds     []uint16 `json:"seeds,omitempty"`
}

// StatusRequest checks a batch of in-flight operations once (no loop).
type StatusRequest struct {
	Lane       string   `json:"lane,omitempty"`
	Operations []string `json:"operations" binding:"required"`
	SceneID    string   `json:"scene_id,omitempty"`
}

// AppendClipRequest appends one completed result as a clip to a scene.
type AppendClipRequest struct {
	Lane      string `json:"lane,omitempty"`
	ProjectID string `json:"project_id" binding:"required"`
	MediaID   string `json:"media_id" binding:"required"`
	Prompt    string `json:"prompt,omitempty"`
}

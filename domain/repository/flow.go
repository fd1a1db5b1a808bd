package repository

import (
	"context"

	"flowfarm/domain/model"
)

// IFlowClient is the provider boundary: the five logical endpoints the
// orchestrator consumes. The wire shapes are an opaque, versioned third-party
// contract; this interface isolates the rest of the code from them.
type IFlowClient interface {
	// SubmitJob sends the batched variant requests for a job and returns one
	// operation handle per variant.
	SubmitJob(ctx context.Context, job *model.GenerationJob, lane *model.Lane) ([]model.Operation, error)

	// CheckStatus polls a batch of operations once and returns their refreshed
	// states. Provider status strings are already translated to the enum.
	CheckStatus(ctx context.Context, ops []model.Operation, lane *model.Lane) ([]model.Operation, error)

	// GetSceneClips fetches the current ordered clip list of a scene.
	GetSceneClips(ctx context.Context, projectID, sceneID string, lane *model.Lane) ([]model.SceneClip, error)

	// UpdateSceneClips replaces a scene's whole clip list (the provider
	// updates by field replacement, not diff).
	UpdateSceneClips(ctx context.Context, projectID, sceneID string, clips []model.SceneClip, lane *model.Lane) error

	// UploadImage runs the two-step upload (raw media, then crop registration)
	// and returns the anchor media id.
	UploadImage(ctx context.Context, data []byte, mimeType string, lane *model.Lane) (string, error)

	// RefreshSession trades the lane's long-lived session cookie for a fresh
	// bearer token.
	RefreshSession(ctx context.Context, lane *model.Lane) (string, error)
}

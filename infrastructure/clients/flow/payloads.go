package flow

import (
	"fmt"

	"flowfarm/domain/model"

	"github.com/google/uuid"
)

// Frame window used when a CONTINUE job anchors on the tail of the previous
// clip. The provider treats these as "extend from this point".
const (
	continueStartFrame = 168
	continueEndFrame   = 191
)

const defaultAspectRatio = "VIDEO_ASPECT_RATIO_LANDSCAPE"

// Wire shapes for the provider's batch-generate endpoints. These mirror an
// undocumented third-party contract and can break outside our control.

type submitEnvelope struct {
	ClientContext submitContext   `json:"clientContext"`
	Requests      []submitRequest `json:"requests"`
}

type submitContext struct {
	ProjectID string `json:"projectId,omitempty"`
	Tool      string `json:"tool"`
}

type submitRequest struct {
	TextInput   *textInput  `json:"textInput,omitempty"`
	VideoInput  *videoInput `json:"videoInput,omitempty"`
	StartImage  *imageInput `json:"startImage,omitempty"`
	EndImage    *imageInput `json:"endImage,omitempty"`
	Seed        uint16      `json:"seed"`
	AspectRatio string      `json:"aspectRatio,omitempty"`
	SceneID     string      `json:"sceneId,omitempty"`
	MediaID     string      `json:"mediaId,omitempty"`      // EXTEND
	DurationSec int         `json:"durationSecs,omitempty"` // EXTEND
}

type textInput struct {
	Prompt string `json:"prompt"`
}

type videoInput struct {
	MediaID    string `json:"mediaId"`
	StartFrame int    `json:"startFrame"`
	EndFrame   int    `json:"endFrame"`
}

type imageInput struct {
	MediaID string `json:"mediaId"`
}

// buildSubmitEnvelope reproduces the per-kind variant construction rules the
// provider expects. One request per seed, except EXTEND which is always a
// single request.
func buildSubmitEnvelope(job *model.GenerationJob) (*submitEnvelope, error) {
	env := &submitEnvelope{
		ClientContext: submitContext{ProjectID: job.ProjectID, Tool: "PINHOLE"},
	}

	switch job.Kind {
	case model.KindNew:
		for _, seed := range job.Seeds {
			env.Requests = append(env.Requests, submitRequest{
				TextInput:   &textInput{Prompt: job.Prompt},
				Seed:        seed,
				AspectRatio: defaultAspectRatio,
				SceneID:     job.SceneID,
			})
		}

	case model.KindContinue:
		if len(job.AnchorMediaIDs) != 1 {
			return nil, fmt.Errorf("CONTINUE job needs exactly one anchor media id, got %d", len(job.AnchorMediaIDs))
		}
		for _, seed := range job.Seeds {
			env.Requests = append(env.Requests, submitRequest{
				TextInput: &textInput{Prompt: job.Prompt},
				VideoInput: &videoInput{
					MediaID:    job.AnchorMediaIDs[0],
					StartFrame: continueStartFrame,
					EndFrame:   continueEndFrame,
				},
				Seed:        seed,
				AspectRatio: defaultAspectRatio,
				SceneID:     job.SceneID,
			})
		}

	case model.KindStartEnd:
		if len(job.AnchorMediaIDs) != 2 {
			return nil, fmt.Errorf("START_END job needs exactly two anchor media ids, got %d", len(job.AnchorMediaIDs))
		}
		for _, seed := range job.Seeds {
			// The provider rejects duplicate scene ids within a batch, so each
			// variant gets a freshly generated one.
			env.Requests = append(env.Requests, submitRequest{
				TextInput:   &textInput{Prompt: job.Prompt},
				StartImage:  &imageInput{MediaID: job.AnchorMediaIDs[0]},
				EndImage:    &imageInput{MediaID: job.AnchorMediaIDs[1]},
				Seed:        seed,
				AspectRatio: defaultAspectRatio,
				SceneID:     uuid.NewString(),
			})
		}

	case model.KindTextOnly:
		aspect := job.AspectRatio
		if aspect == "" {
			aspect = defaultAspectRatio
		}
		for i, seed := range job.Seeds {
			req := submitRequest{
				TextInput:   &textInput{Prompt: job.Prompt},
				Seed:        seed,
				AspectRatio: aspect,
			}
			if i < len(job.ExtraSceneIDs) {
				req.SceneID = job.ExtraSceneIDs[i]
			}
			env.Requests = append(env.Requests, req)
		}

	case model.KindExtend:
		if len(job.AnchorMediaIDs) != 1 {
			return nil, fmt.Errorf("EXTEND job needs exactly one anchor media id, got %d", len(job.AnchorMediaIDs))
		}
		duration := job.DurationSecs
		if duration == 0 {
			duration = int(model.ClipDuration.Seconds())
		}
		env.Requests = append(env.Requests, submitRequest{
			TextInput:   &textInput{Prompt: job.Prompt},
			MediaID:     job.AnchorMediaIDs[0],
			DurationSec: duration,
		})

	default:
		return nil, fmt.Errorf("unknown job kind %q", job.Kind)
	}

	if len(env.Requests) == 0 {
		return nil, fmt.Errorf("job %s produced no variant requests (no seeds?)", job.JobID)
	}
	return env, nil
}

type wireError struct {
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

type wireOperation struct {
	Operation struct {
		Name string `json:"name"`
	} `json:"operation"`
	SceneID  string     `json:"sceneId,omitempty"`
	Status   string     `json:"status"`
	MediaID  string     `json:"mediaId,omitempty"`
	VideoURL string     `json:"videoUrl,omitempty"`
	Error    *wireError `json:"error,omitempty"`
}

type operationsEnvelope struct {
	Operations []wireOperation `json:"operations"`
}

// toOperation translates a wire operation to the internal model, converting
// the raw status string to the closed enum at the boundary.
func toOperation(w wireOperation) model.Operation {
	op := model.Operation{
		Name:     w.Operation.Name,
		SceneID:  w.SceneID,
		Status:   model.ParseOperationStatus(w.Status),
		MediaID:  w.MediaID,
		VideoURL: w.VideoURL,
	}
	if w.Error != nil {
		op.FailureReason = w.Error.Reason
	}
	return op
}

type statusEnvelope struct {
	Operations []statusQuery `json:"operations"`
}

type statusQuery struct {
	Operation struct {
		Name string `json:"name"`
	} `json:"operation"`
	SceneID string `json:"sceneId,omitempty"`
}

type sceneUpdateEnvelope struct {
	ProjectID   string       `json:"projectId"`
	SceneID     string       `json:"sceneId"`
	Scene       scenePayload `json:"scene"`
	UpdateMasks []string     `json:"updateMasks"`
}

type scenePayload struct {
	Clips []wireClip `json:"clips"`
}

type wireClip struct {
	MediaID   string `json:"mediaId"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Prompt    string `json:"prompt,omitempty"`
}

func toWireClips(clips []model.SceneClip) []wireClip {
	out := make([]wireClip, len(clips))
	for i, c := range clips {
		out[i] = wireClip{MediaID: c.ClipID, StartTime: c.StartTime, EndTime: c.EndTime, Prompt: c.Prompt}
	}
	return out
}

func fromWireClips(clips []wireClip) []model.SceneClip {
	out := make([]model.SceneClip, len(clips))
	for i, c := range clips {
		out[i] = model.SceneClip{ClipID: c.MediaID, StartTime: c.StartTime, EndTime: c.EndTime, Prompt: c.Prompt}
	}
	return out
}

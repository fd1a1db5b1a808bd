package usecase

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"flowfarm/domain/dto"
	"flowfarm/domain/model"
	"flowfarm/domain/repository"
	"flowfarm/infrastructure/cache"
	"flowfarm/infrastructure/logger"
	"flowfarm/infrastructure/pool"
	"flowfarm/infrastructure/realtime"
)

// defaultSeedCount is how many variants a job fans out to when the caller
// does not pin seeds.
const defaultSeedCount = 2

type IGenerationUsecase interface {
	Generate(ctx context.Context, req dto.GenerateRequest) (model.JobResult, error)
	GenerateChain(ctx context.Context, req dto.ChainRequest) ([]model.JobResult, error)
	CheckStatus(ctx context.Context, req dto.StatusRequest) ([]model.Operation, error)
	AppendClip(ctx context.Context, sceneID string, req dto.AppendClipRequest) ([]model.SceneClip, error)
	SceneClips(ctx context.Context, sceneID, projectID, laneName string) ([]model.SceneClip, error)
	UploadImage(ctx context.Context, laneName string, data []byte, mimeType string) (string, error)
	Result(ctx context.Context, jobID string) (model.JobResult, bool)
}

type generationUsecase struct {
	pool    *pool.TokenPool
	client  repository.IFlowClient
	poller  *Poller
	results *cache.ResultCache
	hub     *realtime.Hub
}

func NewGenerationUsecase(p *pool.TokenPool, client repository.IFlowClient, poller *Poller, results *cache.ResultCache, hub *realtime.Hub) IGenerationUsecase {
	return &generationUsecase{pool: p, client: client, poller: poller, results: results, hub: hub}
}

var validKinds = map[model.JobKind]struct{}{
	model.KindNew:      {},
	model.KindContinue: {},
	model.KindStartEnd: {},
	model.KindTextOnly: {},
	model.KindExtend:   {},
}

func parseKind(raw string) (model.JobKind, error) {
	kind := model.JobKind(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := validKinds[kind]; !ok {
		return "", errors.New("unsupported job kind: " + raw)
	}
	return kind, nil
}

func randomSeeds(n int) []uint16 {
	seeds := make([]uint16, n)
	for i := range seeds {
		seeds[i] = uint16(rand.Intn(1 << 16))
	}
	return seeds
}

// resolveLane picks the lane for a request and forces a bearer refresh when
// the current token is stale, writing the fresh token back into the pool.
func (u *generationUsecase) resolveLane(ctx context.Context, name string) (model.Lane, error) {
	var lane model.Lane
	if name != "" {
		lane = u.pool.ByName(name)
	} else {
		lane = u.pool.Next()
	}
	if !lane.BearerStale() {
		return lane, nil
	}

	logger.GetLogger().WithField("lane", lane.Name).Info("Bearer token stale, refreshing session")
	bearer, err := u.client.RefreshSession(ctx, &lane)
	if err != nil {
		return lane, err
	}
	u.pool.UpdateBearer(lane.Name, bearer)
	lane.BearerToken = bearer
	lane.LastRefreshedAt = time.Now()
	return lane, nil
}

func (u *generationUsecase) Generate(ctx context.Context, req dto.GenerateRequest) (model.JobResult, error) {
	kind, err := parseKind(req.Kind)
	if err != nil {
		return model.JobResult{}, err
	}
	lane, err := u.resolveLane(ctx, req.Lane)
	if err != nil {
		return model.JobResult{}, err
	}

	job := buildJob(kind, req, lane)
	result, err := u.runJob(ctx, &lane, job)
	if err != nil {
		return result, err
	}

	if req.AppendToScene && result.SelectedMediaID != "" {
		if err := u.appendWinner(ctx, &lane, job, &result); err != nil {
			return result, err
		}
	}
	return result, nil
}

func buildJob(kind model.JobKind, req dto.GenerateRequest, lane model.Lane) *model.GenerationJob {
	seeds := req.Seeds
	if len(seeds) == 0 && kind != model.KindExtend {
		seeds = randomSeeds(defaultSeedCount)
	}
	projectID := req.ProjectID
	if projectID == "" {
		projectID = lane.DefaultProjectID
	}
	sceneID := req.SceneID
	if sceneID == "" {
		sceneID = lane.DefaultSceneID
	}
	return &model.GenerationJob{
		JobID:          uuid.NewString(),
		Kind:           kind,
		Prompt:         req.Prompt,
		Seeds:          seeds,
		AnchorMediaIDs: req.AnchorMediaIDs,
		ExtraSceneIDs:  req.ExtraSceneIDs,
		SceneID:        sceneID,
		ProjectID:      projectID,
		AspectRatio:    req.AspectRatio,
		DurationSecs:   req.DurationSecs,
	}
}

// runJob submits the job and polls it to resolution, recording the result.
func (u *generationUsecase) runJob(ctx context.Context, lane *model.Lane, job *model.GenerationJob) (model.JobResult, error) {
	log := logger.GetLogger().WithField("jobId", job.JobID).WithField("lane", lane.Name).WithField("kind", job.Kind)
	log.Info("Submitting generation job")

	ops, err := u.client.SubmitJob(ctx, job, lane)
	if err != nil {
		return model.JobResult{JobID: job.JobID, Lane: lane.Name}, err
	}

	result, err := u.poller.Poll(ctx, lane, job, ops)
	if err != nil {
		return result, err
	}
	if result.SelectedMediaID == "" {
		log.Warn("Job resolved without a successful variant")
	} else {
		log.WithField("mediaId", result.SelectedMediaID).Info("Job resolved")
	}
	u.results.Put(ctx, result)
	return result, nil
}

// appendWinner appends the job's winning media as the next clip of its scene.
func (u *generationUsecase) appendWinner(ctx context.Context, lane *model.Lane, job *model.GenerationJob, result *model.JobResult) error {
	clips, err := u.client.GetSceneClips(ctx, job.ProjectID, job.SceneID, lane)
	if err != nil {
		return err
	}
	clip, err := model.NextClip(clips, result.SelectedMediaID, job.Prompt)
	if err != nil {
		return err
	}
	return u.client.UpdateSceneClips(ctx, job.ProjectID, job.SceneID, append(clips, clip), lane)
}

func (u *generationUsecase) GenerateChain(ctx context.Context, req dto.ChainRequest) ([]model.JobResult, error) {
	if len(req.Prompts) == 0 {
		return nil, errors.New("prompts required")
	}
	lane, err := u.resolveLane(ctx, req.Lane)
	if err != nil {
		return nil, err
	}

	projectID := req.ProjectID
	if projectID == "" {
		projectID = lane.DefaultProjectID
	}
	sceneID := req.SceneID
	if sceneID == "" {
		sceneID = lane.DefaultSceneID
	}

	results := make([]model.JobResult, 0, len(req.Prompts))
	anchor := ""
	for i, prompt := range req.Prompts {
		kind := model.KindNew
		var anchors []string
		if anchor != "" {
			kind = model.KindContinue
			anchors = []string{anchor}
		}
		seeds := req.Seeds
		if len(seeds) == 0 {
			seeds = randomSeeds(defaultSeedCount)
		}
		job := &model.GenerationJob{
			JobID:          uuid.NewString(),
			Kind:           kind,
			Prompt:         prompt,
			Seeds:          seeds,
			AnchorMediaIDs: anchors,
			SceneID:        sceneID,
			ProjectID:      projectID,
		}

		result, err := u.runJob(ctx, &lane, job)
		if err != nil {
			return results, err
		}
		results = append(results, result)
		if result.SelectedMediaID == "" {
			return results, errors.New("chain halted: no successful variant for prompt " + prompt)
		}

		// The next submission must not race the provider's view of the
		// scene: the clip append has to be acknowledged first, and a failed
		// append halts the chain without advancing the anchor.
		if err := u.appendWinner(ctx, &lane, job, &result); err != nil {
			logger.GetLogger().WithField("jobId", job.JobID).WithField("error", err).Error("Chain halted on scene update failure")
			return results, err
		}
		anchor = result.SelectedMediaID
		logger.GetLogger().WithField("step", i+1).WithField("mediaId", anchor).Info("Chain step resolved")
	}
	return results, nil
}

func (u *generationUsecase) CheckStatus(ctx context.Context, req dto.StatusRequest) ([]model.Operation, error) {
	if len(req.Operations) == 0 {
		return nil, errors.New("operations required")
	}
	lane, err := u.resolveLane(ctx, req.Lane)
	if err != nil {
		return nil, err
	}
	ops := make([]model.Operation, len(req.Operations))
	for i, name := range req.Operations {
		ops[i] = model.Operation{Name: name, SceneID: req.SceneID}
	}
	return u.client.CheckStatus(ctx, ops, &lane)
}

func (u *generationUsecase) AppendClip(ctx context.Context, sceneID string, req dto.AppendClipRequest) ([]model.SceneClip, error) {
	if sceneID == "" {
		return nil, errors.New("scene id required")
	}
	lane, err := u.resolveLane(ctx, req.Lane)
	if err != nil {
		return nil, err
	}
	clips, err := u.client.GetSceneClips(ctx, req.ProjectID, sceneID, &lane)
	if err != nil {
		return nil, err
	}
	clip, err := model.NextClip(clips, req.MediaID, req.Prompt)
	if err != nil {
		return nil, err
	}
	updated := append(clips, clip)
	if err := u.client.UpdateSceneClips(ctx, req.ProjectID, sceneID, updated, &lane); err != nil {
		return nil, err
	}
	return updated, nil
}

func (u *generationUsecase) SceneClips(ctx context.Context, sceneID, projectID, laneName string) ([]model.SceneClip, error) {
	if sceneID == "" {
		return nil, errors.New("scene id required")
	}
	lane, err := u.resolveLane(ctx, laneName)
	if err != nil {
		return nil, err
	}
	return u.client.GetSceneClips(ctx, projectID, sceneID, &lane)
}

func (u *generationUsecase) UploadImage(ctx context.Context, laneName string, data []byte, mimeType string) (string, error) {
	lane, err := u.resolveLane(ctx, laneName)
	if err != nil {
		return "", err
	}
	return u.client.UploadImage(ctx, data, mimeType, &lane)
}

func (u *generationUsecase) Result(ctx context.Context, jobID string) (model.JobResult, bool) {
	return u.results.Get(ctx, jobID)
}

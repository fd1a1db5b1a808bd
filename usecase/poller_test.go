package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowfarm/domain/model"
)

// fakeFlowClient scripts CheckStatus responses per call and records traffic.
type fakeFlowClient struct {
	statusScript  [][]model.Operation
	statusCalls   int
	submitOps     []model.Operation
	submitErr     error
	submittedJobs []*model.GenerationJob
	clips         []model.SceneClip
	clipsErr      error
	updatedClips  [][]model.SceneClip
	updateErr     error
	bearer        string
	refreshErr    error
}

func (f *fakeFlowClient) SubmitJob(_ context.Context, job *model.GenerationJob, _ *model.Lane) ([]model.Operation, error) {
	f.submittedJobs = append(f.submittedJobs, job)
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return f.submitOps, nil
}

func (f *fakeFlowClient) CheckStatus(_ context.Context, ops []model.Operation, _ *model.Lane) ([]model.Operation, error) {
	if f.statusCalls >= len(f.statusScript) {
		return ops, nil
	}
	out := f.statusScript[f.statusCalls]
	f.statusCalls++
	return out, nil
}

func (f *fakeFlowClient) GetSceneClips(context.Context, string, string, *model.Lane) ([]model.SceneClip, error) {
	return f.clips, f.clipsErr
}

func (f *fakeFlowClient) UpdateSceneClips(_ context.Context, _, _ string, clips []model.SceneClip, _ *model.Lane) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updatedClips = append(f.updatedClips, clips)
	f.clips = clips
	return nil
}

func (f *fakeFlowClient) UploadImage(context.Context, []byte, string, *model.Lane) (string, error) {
	return "uploaded-media", nil
}

func (f *fakeFlowClient) RefreshSession(context.Context, *model.Lane) (string, error) {
	if f.refreshErr != nil {
		return "", f.refreshErr
	}
	if f.bearer == "" {
		f.bearer = "fresh-bearer"
	}
	return f.bearer, nil
}

func newTestPoller(client *fakeFlowClient, maxAttempts int) (*Poller, *[]time.Duration) {
	p := NewPoller(client, 10*time.Second, maxAttempts, nil)
	var sleeps []time.Duration
	p.sleep = func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	return p, &sleeps
}

func op(name string, status model.OperationStatus) model.Operation {
	return model.Operation{Name: name, Status: status}
}

func TestPollResolvesAfterThreeTicks(t *testing.T) {
	success := model.Operation{Name: "op-1", Status: model.StatusSuccessful, MediaID: "media-1", VideoURL: "https://cdn/v.mp4"}
	client := &fakeFlowClient{statusScript: [][]model.Operation{
		{op("op-1", model.StatusPending)},
		{op("op-1", model.StatusActive)},
		{success},
	}}
	p, sleeps := newTestPoller(client, 120)

	job := &model.GenerationJob{JobID: "job-1"}
	result, err := p.Poll(context.Background(), &model.Lane{Name: "alpha"}, job, []model.Operation{op("op-1", model.StatusPending)})
	require.NoError(t, err)

	assert.Equal(t, 3, client.statusCalls, "one status call per tick")
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, "media-1", result.SelectedMediaID)
	assert.Len(t, *sleeps, 2, "no sleep after the terminal tick")
	assert.Equal(t, 10*time.Second, (*sleeps)[0])
}

func TestPollFirstSuccessWins(t *testing.T) {
	first := model.Operation{Name: "op-1", Status: model.StatusSuccessful, MediaID: "media-first"}
	second := model.Operation{Name: "op-2", Status: model.StatusSuccessful, MediaID: "media-second"}
	client := &fakeFlowClient{statusScript: [][]model.Operation{
		{first, op("op-2", model.StatusActive)},
		{first, second},
	}}
	p, _ := newTestPoller(client, 120)

	result, err := p.Poll(context.Background(), &model.Lane{Name: "alpha"}, &model.GenerationJob{JobID: "job-1"}, []model.Operation{{Name: "op-1"}, {Name: "op-2"}})
	require.NoError(t, err)
	assert.Equal(t, "media-first", result.SelectedMediaID, "a later success must not replace the first")
	assert.Len(t, result.Operations, 2)
}

func TestPollHighTrafficDoublesWaitAndKeepsPolling(t *testing.T) {
	busy := model.Operation{Name: "op-1", Status: model.StatusFailed, FailureReason: model.FailureHighTraffic}
	done := model.Operation{Name: "op-1", Status: model.StatusSuccessful, MediaID: "media-1"}
	client := &fakeFlowClient{statusScript: [][]model.Operation{{busy}, {busy}, {done}}}
	p, sleeps := newTestPoller(client, 120)

	result, err := p.Poll(context.Background(), &model.Lane{Name: "alpha"}, &model.GenerationJob{JobID: "job-1"}, []model.Operation{{Name: "op-1"}})
	require.NoError(t, err)
	assert.Equal(t, "media-1", result.SelectedMediaID)
	assert.Equal(t, []time.Duration{20 * time.Second, 20 * time.Second}, *sleeps, "high traffic doubles the poll interval")
}

func TestPollTerminalFailureStops(t *testing.T) {
	failed := model.Operation{Name: "op-1", Status: model.StatusFailed, FailureReason: "CONTENT_POLICY"}
	client := &fakeFlowClient{statusScript: [][]model.Operation{{failed}}}
	p, sleeps := newTestPoller(client, 120)

	result, err := p.Poll(context.Background(), &model.Lane{Name: "alpha"}, &model.GenerationJob{JobID: "job-1"}, []model.Operation{{Name: "op-1"}})
	require.NoError(t, err)
	assert.Empty(t, result.SelectedMediaID)
	assert.Equal(t, 1, client.statusCalls)
	assert.Empty(t, *sleeps)
}

func TestPollAttemptBudgetExhausted(t *testing.T) {
	client := &fakeFlowClient{}
	p, _ := newTestPoller(client, 4)

	pending := []model.Operation{op("op-1", model.StatusPending)}
	_, err := p.Poll(context.Background(), &model.Lane{Name: "alpha"}, &model.GenerationJob{JobID: "job-1"}, pending)
	var timeout *model.PollTimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, "job-1", timeout.JobID)
	assert.Equal(t, 4, timeout.Attempts)
}

func TestPollCancelledContext(t *testing.T) {
	client := &fakeFlowClient{statusScript: [][]model.Operation{
		{op("op-1", model.StatusPending)},
	}}
	p := NewPoller(client, 10*time.Second, 120, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Poll(ctx, &model.Lane{Name: "alpha"}, &model.GenerationJob{JobID: "job-1"}, []model.Operation{{Name: "op-1"}})
	assert.ErrorIs(t, err, context.Canceled)
}

package usecase

import (
	"context"
	"time"

	"flowfarm/domain/model"
	"flowfarm/domain/repository"
	"flowfarm/infrastructure/logger"
	"flowfarm/infrastructure/realtime"
)

const (
	DefaultPollInterval    = 10 * time.Second
	DefaultPollMaxAttempts = 120
)

// Poller drives batch status checks for submitted operations until every
// operation reaches a terminal state or the attempt budget runs out.
type Poller struct {
	client      repository.IFlowClient
	interval    time.Duration
	maxAttempts int
	hub         *realtime.Hub
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewPoller(client repository.IFlowClient, interval time.Duration, maxAttempts int, hub *realtime.Hub) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultPollMaxAttempts
	}
	return &Poller{
		client:      client,
		interval:    interval,
		maxAttempts: maxAttempts,
		hub:         hub,
		sleep:       sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Poll checks the given operations on the lane until all of them are terminal.
// Operations that fail with a high-traffic reason are treated as still in
// flight and double the wait for that cycle. The first successful operation
// determines the selected media of the returned result.
func (p *Poller) Poll(ctx context.Context, lane *model.Lane, job *model.GenerationJob, pending []model.Operation) (model.JobResult, error) {
	result := model.JobResult{JobID: job.JobID, Lane: lane.Name}

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		checked, err := p.client.CheckStatus(ctx, pending, lane)
		if err != nil {
			return result, err
		}
		result.Attempts = attempt
		pending = checked

		highTraffic := false
		done := true
		for _, op := range checked {
			switch {
			case op.Status == model.StatusSuccessful:
				if result.SelectedMediaID == "" {
					result.SelectedMediaID = op.MediaID
					result.SelectedVideoURL = op.VideoURL
				}
			case op.HighTraffic():
				highTraffic = true
				done = false
			case !op.Status.Terminal():
				done = false
			}
		}

		p.broadcast(lane.Name, job, checked)

		if done {
			result.Operations = checked
			return result, nil
		}

		wait := p.interval
		if highTraffic {
			wait *= 2
			logger.GetLogger().WithField("jobId", job.JobID).Info("Provider reports high traffic, backing off")
		}
		if err := p.sleep(ctx, wait); err != nil {
			return result, err
		}
	}

	result.Operations = pending
	return result, &model.PollTimeoutError{JobID: job.JobID, Attempts: p.maxAttempts}
}

func (p *Poller) broadcast(laneName string, job *model.GenerationJob, ops []model.Operation) {
	if p.hub == nil {
		return
	}
	for _, op := range ops {
		evt := realtime.JobStatusEvent{
			Type:     "job_status",
			JobID:    job.JobID,
			Lane:     laneName,
			Status:   op.Status.String(),
			MediaID:  op.MediaID,
			VideoURL: op.VideoURL,
			Error:    op.FailureReason,
		}
		p.hub.BroadcastJobStatus(evt)
	}
}

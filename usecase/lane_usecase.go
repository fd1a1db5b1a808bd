package usecase

import (
	"context"
	"errors"
	"time"

	"flowfarm/domain/dto"
	"flowfarm/domain/model"
	"flowfarm/domain/repository"
	"flowfarm/infrastructure/httpexec"
	"flowfarm/infrastructure/logger"
	"flowfarm/infrastructure/pool"
)

type ILaneUsecase interface {
	List(ctx context.Context) ([]model.Lane, error)
	Get(ctx context.Context, name string) (*model.Lane, error)
	Save(ctx context.Context, req dto.LaneSaveRequest) (*model.Lane, error)
	Delete(ctx context.Context, name string) error
	LoadPool(ctx context.Context, names []string) ([]string, error)
	CaptureImport(ctx context.Context, req dto.CaptureImportRequest) (*model.Lane, error)
	CaptureCurrent(ctx context.Context, name string) (*model.Lane, error)
	Refresh(ctx context.Context, name string) (*model.Lane, error)
	SweepStaleBearers(ctx context.Context)
	Stats() httpexec.Stats
}

type laneUsecase struct {
	store   repository.ILaneStore
	pool    *pool.TokenPool
	client  repository.IFlowClient
	exec    *httpexec.Executor
	capture repository.ISessionCapture // optional
}

func NewLaneUsecase(store repository.ILaneStore, p *pool.TokenPool, client repository.IFlowClient, exec *httpexec.Executor, capture ...repository.ISessionCapture) ILaneUsecase {
	uc := &laneUsecase{store: store, pool: p, client: client, exec: exec}
	if len(capture) > 0 {
		uc.capture = capture[0]
	}
	return uc
}

func (u *laneUsecase) List(ctx context.Context) ([]model.Lane, error) {
	return u.store.ListAll(ctx)
}

func (u *laneUsecase) Get(ctx context.Context, name string) (*model.Lane, error) {
	return u.store.FindByName(ctx, name)
}

func (u *laneUsecase) Save(ctx context.Context, req dto.LaneSaveRequest) (*model.Lane, error) {
	lane := &model.Lane{
		Name:             req.Name,
		Cookies:          req.Cookies,
		SessionToken:     req.SessionToken,
		BearerToken:      req.BearerToken,
		Proxy:            req.Proxy,
		DefaultProjectID: req.DefaultProjectID,
		DefaultSceneID:   req.DefaultSceneID,
	}
	if lane.BearerToken != "" {
		lane.LastRefreshedAt = time.Now()
	}
	if err := u.store.Save(ctx, lane); err != nil {
		return nil, err
	}
	return lane, nil
}

func (u *laneUsecase) Delete(ctx context.Context, name string) error {
	return u.store.Delete(ctx, name)
}

// LoadPool rebuilds the active pool from the named lanes (all lanes when the
// list is empty) and returns the names actually loaded.
func (u *laneUsecase) LoadPool(ctx context.Context, names []string) ([]string, error) {
	if err := u.pool.Load(ctx, u.store, names); err != nil {
		return nil, err
	}
	return u.pool.Names(), nil
}

// CaptureImport stores credentials harvested by the external browser capture
// as a lane record.
func (u *laneUsecase) CaptureImport(ctx context.Context, req dto.CaptureImportRequest) (*model.Lane, error) {
	lane := &model.Lane{
		Name:         req.Name,
		Cookies:      req.Cookies,
		SessionToken: req.SessionToken,
		BearerToken:  req.BearerToken,
		Proxy:        req.Proxy,
	}
	if lane.BearerToken != "" {
		lane.LastRefreshedAt = time.Now()
	}
	if err := u.store.Save(ctx, lane); err != nil {
		return nil, err
	}
	return lane, nil
}

// CaptureCurrent harvests the live browser session through the configured
// capture driver and stores it under the given lane name. Fails when no
// driver is wired; the import endpoint remains the push-based alternative.
func (u *laneUsecase) CaptureCurrent(ctx context.Context, name string) (*model.Lane, error) {
	if name == "" {
		return nil, errors.New("lane name required")
	}
	if u.capture == nil {
		return nil, errors.New("session capture driver not configured")
	}
	session, err := u.capture.CaptureCurrentSessionCredentials(ctx)
	if err != nil {
		return nil, err
	}
	lane := &model.Lane{
		Name:         name,
		Cookies:      session.Cookies,
		SessionToken: session.SessionToken,
		BearerToken:  session.BearerToken,
	}
	if lane.BearerToken != "" {
		lane.LastRefreshedAt = time.Now()
	}
	if err := u.store.Save(ctx, lane); err != nil {
		return nil, err
	}
	logger.GetLogger().WithField("lane", name).Info("Live session captured into lane")
	return lane, nil
}

// Refresh trades the lane's session cookie for a fresh bearer token and
// persists it, updating the pooled copy as well.
func (u *laneUsecase) Refresh(ctx context.Context, name string) (*model.Lane, error) {
	lane, err := u.store.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if lane == nil {
		return nil, errors.New("lane " + name + " not found")
	}
	bearer, err := u.client.RefreshSession(ctx, lane)
	if err != nil {
		return nil, err
	}
	lane.BearerToken = bearer
	lane.LastRefreshedAt = time.Now()
	if err := u.store.Save(ctx, lane); err != nil {
		return nil, err
	}
	u.pool.UpdateBearer(lane.Name, bearer)
	return lane, nil
}

// SweepStaleBearers refreshes every pooled lane whose bearer token is past
// its trust window. Run periodically; failures are logged and skipped.
func (u *laneUsecase) SweepStaleBearers(ctx context.Context) {
	for _, name := range u.pool.Names() {
		lane := u.pool.ByName(name)
		if lane.Name != name || !lane.BearerStale() {
			continue
		}
		if _, err := u.Refresh(ctx, name); err != nil {
			logger.GetLogger().WithField("lane", name).WithField("error", err).Warn("Bearer refresh sweep failed for lane")
		}
	}
}

// Stats exposes the executor's per-account request counters.
func (u *laneUsecase) Stats() httpexec.Stats {
	return u.exec.Stats()
}

package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"flowfarm/domain/model"
	"flowfarm/domain/repository"
	"flowfarm/infrastructure/dedup"
	"flowfarm/infrastructure/httpexec"
	"flowfarm/infrastructure/logger"

	"github.com/google/go-querystring/query"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Client talks to the provider's generation endpoints through the
// rate-limited executor. All submissions pass the dedup guard first.
type Client struct {
	exec       *httpexec.Executor
	dedup      *dedup.Cache
	baseURL    string
	uploadURL  string
	sessionURL string
	maxRetries int
}

type Config struct {
	BaseURL    string
	UploadURL  string
	SessionURL string
	MaxRetries int
}

func NewClient(exec *httpexec.Executor, dedupCache *dedup.Cache, cfg Config) *Client {
	if cfg.SessionURL == "" {
		cfg.SessionURL = "https://labs.google/fx/api/auth/session"
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = httpexec.DefaultMaxRetries
	}
	return &Client{
		exec:       exec,
		dedup:      dedupCache,
		baseURL:    cfg.BaseURL,
		uploadURL:  cfg.UploadURL,
		sessionURL: cfg.SessionURL,
		maxRetries: cfg.MaxRetries,
	}
}

var _ repository.IFlowClient = (*Client)(nil)

// laneHeaders builds the harvested-session headers the provider expects.
func laneHeaders(lane *model.Lane, contentType string) http.Header {
	h := http.Header{}
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	h.Set("Cookie", lane.Cookies)
	if lane.BearerToken != "" {
		h.Set("Authorization", "Bearer "+lane.BearerToken)
	}
	h.Set("Origin", "https://labs.google")
	h.Set("Referer", "https://labs.google/")
	h.Set("User-Agent", userAgent)
	return h
}

// SubmitJob sends the batched variant requests for one job and returns the
// provider's operation handles, statuses already translated.
func (c *Client) SubmitJob(ctx context.Context, job *model.GenerationJob, lane *model.Lane) ([]model.Operation, error) {
	env, err := buildSubmitEnvelope(job)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}

	if c.dedup != nil && c.dedup.IsDuplicate(body) {
		logger.GetLogger().WithField("job", job.JobID).Warn("Duplicate submission rejected before reaching provider")
		return nil, &model.DuplicateRequestError{}
	}

	endpoint := c.baseURL + "/video.batchGenerate"
	if job.Kind == model.KindExtend {
		endpoint = c.baseURL + "/video.extend"
	}

	res, err := c.exec.Execute(ctx, httpexec.RequestSpec{
		Method: http.MethodPost,
		URL:    endpoint,
		Header: laneHeaders(lane, "application/json"),
		Body:   body,
	}, lane.Name, lane.Proxy, c.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("submit %s job: %w", job.Kind, err)
	}

	var out operationsEnvelope
	if err := json.Unmarshal(res.Body, &out); err != nil {
		return nil, fmt.Errorf("decode submit response: %w", err)
	}
	ops := make([]model.Operation, 0, len(out.Operations))
	for _, w := range out.Operations {
		ops = append(ops, toOperation(w))
	}
	if len(ops) == 0 {
		return nil, &model.ProviderError{StatusCode: res.StatusCode, Body: "no operations in submit response"}
	}
	return ops, nil
}

// CheckStatus polls a batch of operations once.
func (c *Client) CheckStatus(ctx context.Context, ops []model.Operation, lane *model.Lane) ([]model.Operation, error) {
	env := statusEnvelope{Operations: make([]statusQuery, len(ops))}
	for i, op := range ops {
		env.Operations[i].Operation.Name = op.Name
		env.Operations[i].SceneID = op.SceneID
	}
	body, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}

	res, err := c.exec.Execute(ctx, httpexec.RequestSpec{
		Method: http.MethodPost,
		URL:    c.baseURL + "/video.batchCheckStatus",
		Header: laneHeaders(lane, "application/json"),
		Body:   body,
	}, lane.Name, lane.Proxy, c.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("check status: %w", err)
	}

	var out operationsEnvelope
	if err := json.Unmarshal(res.Body, &out); err != nil {
		return nil, fmt.Errorf("decode status response: %w", err)
	}
	refreshed := make([]model.Operation, 0, len(out.Operations))
	for _, w := range out.Operations {
		refreshed = append(refreshed, toOperation(w))
	}
	return refreshed, nil
}

type sceneQuery struct {
	ProjectID string `url:"projectId"`
	SceneID   string `url:"sceneId"`
	View      string `url:"view"`
}

// GetSceneClips fetches a scene's current ordered clip list.
func (c *Client) GetSceneClips(ctx context.Context, projectID, sceneID string, lane *model.Lane) ([]model.SceneClip, error) {
	qs, err := query.Values(sceneQuery{ProjectID: projectID, SceneID: sceneID, View: "FULL"})
	if err != nil {
		return nil, err
	}

	res, err := c.exec.Execute(ctx, httpexec.RequestSpec{
		Method: http.MethodGet,
		URL:    c.baseURL + "/scene.get?" + qs.Encode(),
		Header: laneHeaders(lane, ""),
	}, lane.Name, lane.Proxy, c.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("get scene %s: %w", sceneID, err)
	}

	var out struct {
		Scene scenePayload `json:"scene"`
	}
	if err := json.Unmarshal(res.Body, &out); err != nil {
		return nil, fmt.Errorf("decode scene response: %w", err)
	}
	return fromWireClips(out.Scene.Clips), nil
}

// UpdateSceneClips replaces the scene's whole clip list. The provider updates
// by field replacement, so the full list is sent with updateMasks ["clips"].
func (c *Client) UpdateSceneClips(ctx context.Context, projectID, sceneID string, clips []model.SceneClip, lane *model.Lane) error {
	env := sceneUpdateEnvelope{
		ProjectID:   projectID,
		SceneID:     sceneID,
		Scene:       scenePayload{Clips: toWireClips(clips)},
		UpdateMasks: []string{"clips"},
	}
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}

	_, err = c.exec.Execute(ctx, httpexec.RequestSpec{
		Method: http.MethodPost,
		URL:    c.baseURL + "/scene.update",
		Header: laneHeaders(lane, "application/json"),
		Body:   body,
	}, lane.Name, lane.Proxy, c.maxRetries)
	if err != nil {
		return fmt.Errorf("update scene %s: %w", sceneID, err)
	}
	return nil
}

// UploadImage runs the provider's two-step upload: raw bytes first, then crop
// registration of the returned media id. The final id is the usable anchor.
func (c *Client) UploadImage(ctx context.Context, data []byte, mimeType string, lane *model.Lane) (string, error) {
	res, err := c.exec.Execute(ctx, httpexec.RequestSpec{
		Method: http.MethodPost,
		URL:    c.uploadURL + "/upload",
		Header: laneHeaders(lane, mimeType),
		Body:   data,
	}, lane.Name, lane.Proxy, c.maxRetries)
	if err != nil {
		return "", fmt.Errorf("upload raw image: %w", err)
	}

	var raw struct {
		MediaID string `json:"mediaId"`
	}
	if err := json.Unmarshal(res.Body, &raw); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if raw.MediaID == "" {
		return "", &model.ProviderError{StatusCode: res.StatusCode, Body: "upload returned no media id"}
	}

	cropBody, err := json.Marshal(map[string]string{"mediaId": raw.MediaID})
	if err != nil {
		return "", err
	}
	res, err = c.exec.Execute(ctx, httpexec.RequestSpec{
		Method: http.MethodPost,
		URL:    c.uploadURL + "/crop",
		Header: laneHeaders(lane, "application/json"),
		Body:   cropBody,
	}, lane.Name, lane.Proxy, c.maxRetries)
	if err != nil {
		return "", fmt.Errorf("register crop: %w", err)
	}

	var cropped struct {
		MediaID string `json:"mediaId"`
	}
	if err := json.Unmarshal(res.Body, &cropped); err != nil {
		return "", fmt.Errorf("decode crop response: %w", err)
	}
	if cropped.MediaID == "" {
		cropped.MediaID = raw.MediaID
	}
	return cropped.MediaID, nil
}

// RefreshSession trades the lane's session cookie for a fresh bearer token.
func (c *Client) RefreshSession(ctx context.Context, lane *model.Lane) (string, error) {
	h := http.Header{}
	h.Set("Cookie", lane.Cookies)
	h.Set("User-Agent", userAgent)

	res, err := c.exec.Execute(ctx, httpexec.RequestSpec{
		Method: http.MethodGet,
		URL:    c.sessionURL,
		Header: h,
	}, lane.Name, lane.Proxy, c.maxRetries)
	if err != nil {
		return "", fmt.Errorf("refresh session: %w", err)
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(res.Body, &out); err != nil {
		return "", fmt.Errorf("decode session response: %w", err)
	}
	if out.AccessToken == "" {
		return "", &model.ProviderError{StatusCode: res.StatusCode, Body: "session response carried no access token"}
	}
	return out.AccessToken, nil
}

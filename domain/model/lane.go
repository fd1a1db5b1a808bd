package model

import "time"

// BearerMaxAge is how long a harvested bearer token is trusted before a
// refresh is forced. Labs bearer tokens live ~60 minutes; 55 leaves headroom.
const BearerMaxAge = 55 * time.Minute

// Lane is one named account identity used for a stream of generation jobs.
// Credentials are harvested by the external browser capture; only the bearer
// token and refresh timestamp change after creation.
type Lane struct {
	Name             string    `json:"name"`
	Cookies          string    `json:"cookies"`
	SessionToken     string    `json:"session_token"`
	BearerToken      string    `json:"bearer_token,omitempty"`
	Proxy            string    `json:"proxy,omitempty"` // host:port[:user:pass]
	DefaultProjectID string    `json:"default_project_id,omitempty"`
	DefaultSceneID   string    `json:"default_scene_id,omitempty"`
	LastRefreshedAt  time.Time `json:"last_refreshed_at"`
}

// BearerStale reports whether the bearer token is missing or past BearerMaxAge.
func (l *Lane) BearerStale() bool {
	if l.BearerToken == "" {
		return true
	}
	return time.Since(l.LastRefreshedAt) > BearerMaxAge
}

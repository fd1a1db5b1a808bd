package dto

// LaneSaveRequest creates or replaces a lane record.
type LaneSaveRequest struct {
	Name             string `json:"name" binding:"required"`
	Cookies          string `json:"cookies" binding:"required"`
	SessionToken     string `json:"session_token" binding:"required"`
	BearerToken      string `json:"bearer_token,omitempty"`
	Proxy            string `json:"proxy,omitempty"`
	DefaultProjectID string `json:"default_project_id,omitempty"`
	DefaultSceneID   string `json:"default_scene_id,omitempty"`
}

// CaptureImportRequest is the payload the external browser capture produces
// for the current session; the core stores it as a lane.
type CaptureImportRequest struct {
	Name         string `json:"name" binding:"required"`
	Cookies      string `json:"cookies" binding:"required"`
	SessionToken string `json:"session_token" binding:"required"`
	BearerToken  string `json:"bearer_token,omitempty"`
	Proxy        string `json:"proxy,omitempty"`
}

// LoadPoolRequest selects which lanes make up the active pool. Unknown names
// are skipped with a warning.
type LoadPoolRequest struct {
	Names []string `json:"names"`
}

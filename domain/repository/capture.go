package repository

import "context"

// CapturedSession is what the external browser automation harvests from a
// logged-in provider session.
type CapturedSession struct {
	Cookies      string
	SessionToken string
	BearerToken  string
}

// ISessionCapture seeds new lanes from a live browser session. The core never
// drives the browser itself; implementations live outside this module and
// results normally arrive through the capture-import endpoint instead.
type ISessionCapture interface {
	CaptureCurrentSessionCredentials(ctx context.Context) (*CapturedSession, error)
}

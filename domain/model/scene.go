package model

import (
	"fmt"
	"strconv"
	"time"
)

// ClipDuration is the fixed length of every generated clip.
const ClipDuration = 7 * time.Second

// clipEpsilon separates a new clip's start from the previous clip's end so
// the provider never sees two clips sharing a boundary instant.
const clipEpsilon = time.Nanosecond

// SceneClip is one entry in a scene's ordered clip list. Times are
// decimal-seconds strings with a trailing "s" as the provider serializes them.
type SceneClip struct {
	ClipID    string `json:"clip_id"` // winning media id
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Prompt    string `json:"prompt,omitempty"`
}

// FormatClipTime renders a duration the way the provider expects:
// nine decimal places, trailing unit suffix. time.Duration.String is not
// usable here because it switches to minute notation past 60s.
func FormatClipTime(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 9, 64) + "s"
}

// ParseClipTime parses a provider clip timestamp ("10.5s", "7.000000001s").
func ParseClipTime(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid clip time %q: %w", s, err)
	}
	return d, nil
}

// NextClip builds the clip that follows the given list: start is the last
// clip's end plus an epsilon, end is start plus the fixed clip duration. An
// empty list starts at zero.
func NextClip(existing []SceneClip, clipID, prompt string) (SceneClip, error) {
	var start time.Duration
	if n := len(existing); n > 0 {
		prevEnd, err := ParseClipTime(existing[n-1].EndTime)
		if err != nil {
			return SceneClip{}, err
		}
		start = prevEnd + clipEpsilon
	}
	return SceneClip{
		ClipID:    clipID,
		StartTime: FormatClipTime(start),
		EndTime:   FormatClipTime(start + ClipDuration),
		Prompt:    prompt,
	}, nil
}

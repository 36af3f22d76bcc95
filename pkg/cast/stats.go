package cast

// Stats is a point-in-time snapshot of the bus, shaped for the status
// feed and log lines.
type Stats struct {
	SenderName    string  `json:"sender_name"`
	Sink          string  `json:"sink"`
	Address       string  `json:"address,omitempty"`
	Health        string  `json:"health"`
	FramesSent    uint64  `json:"frames_sent"`
	FramesDropped uint64  `json:"frames_dropped"`
	SendErrors    uint64  `json:"send_errors"`
	Connections   int     `json:"connections"`
	ElapsedSec    float64 `json:"elapsed_sec"`
	AvgFps        float64 `json:"avg_fps"`
	TargetFps     int     `json:"target_fps"`
}

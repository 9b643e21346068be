package upload

import (
	"fmt"
	"io"
	"time"
)

// CallEvent records metadata about a single batch upload.
type CallEvent struct {
	Records   int
	Accepted  int
	LatencyMs int64
	Success   bool
	ErrorCode string
}

// Observer receives events about upload calls for logging.
type Observer interface {
	OnUploadComplete(event CallEvent)
}

// LogObserver writes upload events to an io.Writer.
type LogObserver struct {
	w io.Writer
}

// NewLogObserver creates an Observer that logs events to w.
func NewLogObserver(w io.Writer) *LogObserver {
	return &LogObserver{w: w}
}

func (o *LogObserver) OnUploadComplete(event CallEvent) {
	ts := time.Now().UTC().Format(time.RFC3339)
	status := "ok"
	if !event.Success {
		status = "err:" + event.ErrorCode
	}
	fmt.Fprintf(o.w, "[%s] upload records=%d accepted=%d latency_ms=%d status=%s\n",
		ts, event.Records, event.Accepted, event.LatencyMs, status)
}

// NoopObserver discards all events.
type NoopObserver struct{}

func (NoopObserver) OnUploadComplete(CallEvent) {}

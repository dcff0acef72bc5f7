package pdfrender

import "time"

// Job outcomes reported to a Recorder.
const (
	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomeTimeout = "timeout"
)

// Recorder receives rendering events, typically to update metrics.
// Implementations must be safe for concurrent use.
type Recorder interface {
	BatchQueued()
	BatchDequeued()
	TabOpened()
	TabClosed()
	JobDone(outcome string, d time.Duration)
	MergeDone(err error)
	UploadDone(err error)
}

type nopRecorder struct{}

func (nopRecorder) BatchQueued()                  {}
func (nopRecorder) BatchDequeued()                {}
func (nopRecorder) TabOpened()                    {}
func (nopRecorder) TabClosed()                    {}
func (nopRecorder) JobDone(string, time.Duration) {}
func (nopRecorder) MergeDone(error)               {}
func (nopRecorder) UploadDone(error)              {}

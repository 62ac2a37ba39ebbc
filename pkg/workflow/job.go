package workflow

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrJobInFlight is returned when a submission is attempted while another job
// of the same workflow is still loading. Submissions are rejected, never
// queued.
var ErrJobInFlight = errors.New("workflow: a job is already in flight")

// ErrMissingSource is returned locally when a remix or analysis is submitted
// without a selected source asset. No network call is made.
var ErrMissingSource = errors.New("workflow: no source asset selected")

// Status is the lifecycle state of one job.
type Status int

const (
	Idle Status = iota
	Loading
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Job is a snapshot of one workflow's job lifecycle. The token identifies the
// submission it belongs to, so late results for an older submission can be
// told apart from the current one.
type Job struct {
	Status Status
	Token  string
	Err    error
}

func newToken() string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

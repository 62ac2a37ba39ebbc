package workflow

import (
	"context"
	"sync"

	"github.com/remixlab/mixctl/pkg/studio"
)

// Service is the slice of the studio client the workflows depend on.
type Service interface {
	Generate(ctx context.Context, req *studio.GenerateRequest) (*studio.Track, error)
	Remix(ctx context.Context, req *studio.RemixRequest) (*studio.Track, error)
	Analyze(ctx context.Context, src studio.Upload) (*studio.Analysis, error)
}

// BusyFlag counts in-flight requests across workflows. It is the only state
// shared between them, so unrelated surfaces can show a busy indicator.
type BusyFlag struct {
	mu sync.Mutex
	n  int
}

func (b *BusyFlag) add() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.n++
}

func (b *BusyFlag) done() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.n--
}

// Busy reports whether any request is in flight.
func (b *BusyFlag) Busy() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.n > 0
}

// Result is a job snapshot together with its track once succeeded.
type Result struct {
	Job
	Track *studio.Track
}

// Orchestrator turns validated parameters into a single outstanding request
// per workflow and manages the loading/error/result lifecycle. It never
// retries: every failure is terminal for that submission.
type Orchestrator struct {
	mu       sync.Mutex
	service  Service
	busy     *BusyFlag
	publish  func(*studio.Track)
	generate Result
	remix    Result
}

// NewOrchestrator builds an orchestrator. The publish hook receives every
// successful track and may be nil. busy may be shared with an Analyzer.
func NewOrchestrator(service Service, busy *BusyFlag, publish func(*studio.Track)) *Orchestrator {
	if busy == nil {
		busy = &BusyFlag{}
	}
	return &Orchestrator{
		service: service,
		busy:    busy,
		publish: publish,
	}
}

// Busy reports whether any request of any workflow is in flight.
func (o *Orchestrator) Busy() bool {
	return o.busy.Busy()
}

// GenerateJob returns a snapshot of the generation workflow state.
func (o *Orchestrator) GenerateJob() Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.generate
}

// RemixJob returns a snapshot of the remix workflow state.
func (o *Orchestrator) RemixJob() Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.remix
}

// SubmitGenerate sends one generation request. It is rejected with
// ErrJobInFlight while another generation is loading. The request is sent
// exactly once.
func (o *Orchestrator) SubmitGenerate(ctx context.Context, req *studio.GenerateRequest) (*studio.Track, error) {
	token, err := o.begin(&o.generate)
	if err != nil {
		return nil, err
	}
	o.busy.add()
	defer o.busy.done()

	track, err := o.service.Generate(ctx, req)
	return o.finish(&o.generate, token, track, err)
}

// SubmitRemix sends one remix request. A submission without a source asset
// fails locally with ErrMissingSource before any network traffic.
func (o *Orchestrator) SubmitRemix(ctx context.Context, req *studio.RemixRequest) (*studio.Track, error) {
	if len(req.Source.Data) == 0 {
		o.mu.Lock()
		if o.remix.Status != Loading {
			o.remix = Result{Job: Job{Status: Failed, Err: ErrMissingSource}}
		}
		o.mu.Unlock()
		return nil, ErrMissingSource
	}
	token, err := o.begin(&o.remix)
	if err != nil {
		return nil, err
	}
	o.busy.add()
	defer o.busy.done()

	track, err := o.service.Remix(ctx, req)
	return o.finish(&o.remix, token, track, err)
}

// begin transitions a workflow to Loading unless a job is already in flight.
// Starting a new submission clears any previous error or result.
func (o *Orchestrator) begin(slot *Result) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if slot.Status == Loading {
		return "", ErrJobInFlight
	}
	token := newToken()
	*slot = Result{Job: Job{Status: Loading, Token: token}}
	return token, nil
}

// finish lands a result if it still belongs to the current submission.
// A stale result, one whose token no longer matches, is discarded.
func (o *Orchestrator) finish(slot *Result, token string, track *studio.Track, err error) (*studio.Track, error) {
	o.mu.Lock()
	if slot.Token != token {
		o.mu.Unlock()
		return nil, nil
	}
	if err != nil {
		*slot = Result{Job: Job{Status: Failed, Token: token, Err: err}}
		o.mu.Unlock()
		return nil, err
	}
	*slot = Result{Job: Job{Status: Succeeded, Token: token}, Track: track}
	publish := o.publish
	o.mu.Unlock()
	if publish != nil {
		publish(track)
	}
	return track, nil
}

package workflow

import (
	"context"
	"sync"

	"github.com/remixlab/mixctl/pkg/studio"
)

// Analyzer runs the optional analyze sub-workflow. Its lifecycle is fully
// independent from the remix job: analysis may fail or never run and a remix
// can still be submitted.
type Analyzer struct {
	mu      sync.Mutex
	service Service
	busy    *BusyFlag
	source  *studio.Upload
	job     Job
	result  *studio.Analysis
}

func NewAnalyzer(service Service, busy *BusyFlag) *Analyzer {
	if busy == nil {
		busy = &BusyFlag{}
	}
	return &Analyzer{
		service: service,
		busy:    busy,
	}
}

// SetSource selects the asset to analyze. Any prior analysis result or error
// is discarded immediately so stale suggestions are never shown against a new
// asset. An in-flight analysis for the old asset keeps running but its result
// will not land.
func (a *Analyzer) SetSource(src *studio.Upload) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.source = src
	a.result = nil
	a.job = Job{}
}

// Job returns a snapshot of the analysis job state.
func (a *Analyzer) Job() Job {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.job
}

// Result returns the analysis for the currently selected source, or nil.
func (a *Analyzer) Result() *studio.Analysis {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}

// Analyze submits the currently selected source. It is rejected with
// ErrJobInFlight while a previous analysis is loading, and with
// ErrMissingSource when no asset is selected.
func (a *Analyzer) Analyze(ctx context.Context) (*studio.Analysis, error) {
	a.mu.Lock()
	if a.source == nil {
		a.job = Job{Status: Failed, Err: ErrMissingSource}
		a.mu.Unlock()
		return nil, ErrMissingSource
	}
	if a.job.Status == Loading {
		a.mu.Unlock()
		return nil, ErrJobInFlight
	}
	src := *a.source
	token := newToken()
	a.job = Job{Status: Loading, Token: token}
	a.result = nil
	a.mu.Unlock()

	a.busy.add()
	defer a.busy.done()

	analysis, err := a.service.Analyze(ctx, src)

	a.mu.Lock()
	defer a.mu.Unlock()
	// The source changed while the request was in flight: the response no
	// longer corresponds to the current selection and is discarded.
	if a.job.Token != token {
		return nil, nil
	}
	if err != nil {
		a.job = Job{Status: Failed, Token: token, Err: err}
		return nil, err
	}
	a.job = Job{Status: Succeeded, Token: token}
	a.result = analysis
	return analysis, nil
}

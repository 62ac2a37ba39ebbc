package workflow

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/remixlab/mixctl/pkg/studio"
)

// fakeService blocks each call until release is closed, when set.
type fakeService struct {
	calls   int32
	release chan struct{}
	track   *studio.Track
	analyze *studio.Analysis
	err     error
}

func (f *fakeService) wait() {
	if f.release != nil {
		<-f.release
	}
}

func (f *fakeService) Generate(ctx context.Context, req *studio.GenerateRequest) (*studio.Track, error) {
	atomic.AddInt32(&f.calls, 1)
	f.wait()
	return f.track, f.err
}

func (f *fakeService) Remix(ctx context.Context, req *studio.RemixRequest) (*studio.Track, error) {
	atomic.AddInt32(&f.calls, 1)
	f.wait()
	return f.track, f.err
}

func (f *fakeService) Analyze(ctx context.Context, src studio.Upload) (*studio.Analysis, error) {
	atomic.AddInt32(&f.calls, 1)
	f.wait()
	return f.analyze, f.err
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached")
}

func TestSubmitGenerateSuccess(t *testing.T) {
	want := &studio.Track{Filename: "abc.wav", Mood: "energetic"}
	var published *studio.Track
	o := NewOrchestrator(&fakeService{track: want}, nil, func(track *studio.Track) {
		published = track
	})
	track, err := o.SubmitGenerate(context.Background(), &studio.GenerateRequest{})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if track != want {
		t.Fatalf("want %v, got %v", want, track)
	}
	if published != want {
		t.Fatal("publish hook not called with the track")
	}
	job := o.GenerateJob()
	if job.Status != Succeeded {
		t.Fatalf("want status %v, got %v", Succeeded, job.Status)
	}
}

func TestSubmitGenerateRejectsWhileLoading(t *testing.T) {
	svc := &fakeService{
		release: make(chan struct{}),
		track:   &studio.Track{Filename: "a.wav"},
	}
	o := NewOrchestrator(svc, nil, nil)

	done := make(chan error, 1)
	go func() {
		_, err := o.SubmitGenerate(context.Background(), &studio.GenerateRequest{})
		done <- err
	}()
	waitFor(t, func() bool { return o.GenerateJob().Status == Loading })

	if _, err := o.SubmitGenerate(context.Background(), &studio.GenerateRequest{}); !errors.Is(err, ErrJobInFlight) {
		t.Fatalf("want ErrJobInFlight, got %v", err)
	}
	close(svc.release)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if got := atomic.LoadInt32(&svc.calls); got != 1 {
		t.Fatalf("want exactly 1 request, got %d", got)
	}
}

func TestSubmitGenerateFailureIsTerminal(t *testing.T) {
	wantErr := errors.New("boom")
	svc := &fakeService{err: wantErr}
	o := NewOrchestrator(svc, nil, nil)
	if _, err := o.SubmitGenerate(context.Background(), &studio.GenerateRequest{}); !errors.Is(err, wantErr) {
		t.Fatalf("want %v, got %v", wantErr, err)
	}
	job := o.GenerateJob()
	if job.Status != Failed || !errors.Is(job.Err, wantErr) {
		t.Fatalf("unexpected job: %+v", job)
	}
	// No retry happened.
	if got := atomic.LoadInt32(&svc.calls); got != 1 {
		t.Fatalf("want 1 request, got %d", got)
	}
}

func TestSubmitRemixWithoutSource(t *testing.T) {
	svc := &fakeService{}
	o := NewOrchestrator(svc, nil, nil)
	_, err := o.SubmitRemix(context.Background(), &studio.RemixRequest{})
	if !errors.Is(err, ErrMissingSource) {
		t.Fatalf("want ErrMissingSource, got %v", err)
	}
	if got := atomic.LoadInt32(&svc.calls); got != 0 {
		t.Fatalf("no network call expected, got %d", got)
	}
	if job := o.RemixJob(); job.Status != Failed {
		t.Fatalf("want status %v, got %v", Failed, job.Status)
	}
}

func TestGenerateAndRemixAreIndependent(t *testing.T) {
	svc := &fakeService{
		release: make(chan struct{}),
		track:   &studio.Track{Filename: "a.wav"},
	}
	o := NewOrchestrator(svc, nil, nil)

	done := make(chan error, 2)
	go func() {
		_, err := o.SubmitGenerate(context.Background(), &studio.GenerateRequest{})
		done <- err
	}()
	waitFor(t, func() bool { return o.GenerateJob().Status == Loading })

	// A loading generation must not block a remix submission.
	go func() {
		_, err := o.SubmitRemix(context.Background(), &studio.RemixRequest{
			Source: studio.Upload{Name: "in.wav", Data: []byte("riff")},
		})
		done <- err
	}()
	waitFor(t, func() bool { return o.RemixJob().Status == Loading })

	close(svc.release)
	for i := 0; i < 2; i++ {
		if err := <-done; err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
}

func TestBusyFlagSymmetric(t *testing.T) {
	svc := &fakeService{
		release: make(chan struct{}),
		track:   &studio.Track{Filename: "a.wav"},
	}
	busy := &BusyFlag{}
	o := NewOrchestrator(svc, busy, nil)
	if o.Busy() {
		t.Fatal("busy before any submission")
	}
	done := make(chan error, 1)
	go func() {
		_, err := o.SubmitGenerate(context.Background(), &studio.GenerateRequest{})
		done <- err
	}()
	waitFor(t, func() bool { return o.Busy() })
	close(svc.release)
	if err := <-done; err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitFor(t, func() bool { return !o.Busy() })
}

func TestAnalyzeWithoutSource(t *testing.T) {
	a := NewAnalyzer(&fakeService{}, nil)
	if _, err := a.Analyze(context.Background()); !errors.Is(err, ErrMissingSource) {
		t.Fatalf("want ErrMissingSource, got %v", err)
	}
}

func TestAnalyzeStaleResultDiscarded(t *testing.T) {
	svc := &fakeService{
		release: make(chan struct{}),
		analyze: &studio.Analysis{Duration: 12},
	}
	a := NewAnalyzer(svc, nil)
	a.SetSource(&studio.Upload{Name: "old.wav", Data: []byte("old")})

	done := make(chan struct{})
	var analysis *studio.Analysis
	var err error
	go func() {
		analysis, err = a.Analyze(context.Background())
		close(done)
	}()
	waitFor(t, func() bool { return a.Job().Status == Loading })

	// Selecting a new source invalidates the in-flight analysis.
	a.SetSource(&studio.Upload{Name: "new.wav", Data: []byte("new")})
	close(svc.release)
	<-done

	if err != nil {
		t.Fatalf("stale analyze: %v", err)
	}
	if analysis != nil {
		t.Fatal("stale analysis should be discarded")
	}
	if got := a.Result(); got != nil {
		t.Fatalf("stale result landed: %+v", got)
	}
	if job := a.Job(); job.Status != Idle {
		t.Fatalf("want status %v, got %v", Idle, job.Status)
	}
}

func TestAnalyzeRejectsWhileLoading(t *testing.T) {
	svc := &fakeService{
		release: make(chan struct{}),
		analyze: &studio.Analysis{},
	}
	a := NewAnalyzer(svc, nil)
	a.SetSource(&studio.Upload{Name: "in.wav", Data: []byte("x")})

	done := make(chan struct{})
	go func() {
		_, _ = a.Analyze(context.Background())
		close(done)
	}()
	waitFor(t, func() bool { return a.Job().Status == Loading })

	if _, err := a.Analyze(context.Background()); !errors.Is(err, ErrJobInFlight) {
		t.Fatalf("want ErrJobInFlight, got %v", err)
	}
	close(svc.release)
	<-done
}

func TestAnalyzeSuccess(t *testing.T) {
	want := &studio.Analysis{
		Features:       studio.Features{Energy: 0.8},
		SuggestedMoods: []string{"energetic"},
	}
	a := NewAnalyzer(&fakeService{analyze: want}, nil)
	a.SetSource(&studio.Upload{Name: "in.wav", Data: []byte("x")})
	got, err := a.Analyze(context.Background())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if got != want {
		t.Fatalf("want %v, got %v", want, got)
	}
	if a.Result() != want {
		t.Fatal("result not stored")
	}
}

type fakeBinder struct {
	bound []*studio.Track
	err   error
}

func (f *fakeBinder) Bind(ctx context.Context, track *studio.Track) error {
	f.bound = append(f.bound, track)
	return f.err
}

func TestSwitchboardPublish(t *testing.T) {
	binder := &fakeBinder{}
	s := NewSwitchboard(binder)
	if got := s.Active(); got != Generate {
		t.Fatalf("want default workflow %v, got %v", Generate, got)
	}

	track := &studio.Track{Filename: "a.wav"}
	s.Publish(track)
	if got := s.Current(); got != track {
		t.Fatalf("want current %v, got %v", track, got)
	}
	if len(binder.bound) != 1 || binder.bound[0] != track {
		t.Fatalf("binder not called: %v", binder.bound)
	}

	// Switching workflows keeps the current track.
	s.SetActive(Remix)
	if got := s.Current(); got != track {
		t.Fatal("current track lost on workflow switch")
	}

	// A later publish replaces it.
	next := &studio.Track{Filename: "b.wav", IsRemix: true}
	s.Publish(next)
	if got := s.Current(); got != next {
		t.Fatalf("want current %v, got %v", next, got)
	}
	if len(binder.bound) != 2 {
		t.Fatalf("want 2 binds, got %d", len(binder.bound))
	}
}

package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/browser"
	"github.com/remixlab/mixctl/pkg/catalog"
	"github.com/remixlab/mixctl/pkg/history"
	"github.com/remixlab/mixctl/pkg/params"
	"github.com/remixlab/mixctl/pkg/player"
	"github.com/remixlab/mixctl/pkg/studio"
	"github.com/remixlab/mixctl/pkg/workflow"
)

type Config struct {
	Debug   bool
	BaseURL string
	Wait    time.Duration
	DBType  string
	DBConn  string

	Addr string
	Open bool
}

//go:embed static/*
var staticContent embed.FS

// Serve starts the local control surface: a JSON API plus a static page over
// the workflow, analysis and playback state machines.
func Serve(ctx context.Context, cfg *Config) error {
	log.Println("web: server started")
	defer log.Println("web: server ended")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	client := studio.New(&studio.Config{
		BaseURL: cfg.BaseURL,
		Wait:    cfg.Wait,
		Debug:   cfg.Debug,
	})
	store, err := history.New(cfg.DBType, cfg.DBConn, cfg.Debug)
	if err != nil {
		return fmt.Errorf("web: couldn't create history store: %w", err)
	}
	if err := store.Start(ctx); err != nil {
		return fmt.Errorf("web: couldn't start history store: %w", err)
	}

	cat := catalog.Fetch(ctx, client)

	busy := &workflow.BusyFlag{}
	ctl := player.New(client, nil)
	board := workflow.NewSwitchboard(ctl)
	orchestrator := workflow.NewOrchestrator(client, busy, board.Publish)
	analyzer := workflow.NewAnalyzer(client, busy)

	surface := &surface{
		client:       client,
		store:        store,
		catalog:      cat,
		board:        board,
		orchestrator: orchestrator,
		analyzer:     analyzer,
		player:       ctl,
	}

	staticFS, err := iofs.Sub(staticContent, "static")
	if err != nil {
		return fmt.Errorf("web: couldn't load static content: %w", err)
	}

	mux := chi.NewRouter()
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Recoverer)
	if cfg.Debug {
		mux.Use(middleware.Logger)
	}

	mux.Get("/*", http.StripPrefix("/", http.FileServer(http.FS(staticFS))).ServeHTTP)
	mux.Get("/api/catalog", surface.getCatalog)
	mux.Get("/api/state", surface.getState)
	mux.Get("/api/history", surface.getHistory)
	mux.Post("/api/workflow", surface.postWorkflow)
	mux.Post("/api/generate", surface.postGenerate)
	mux.Post("/api/remix", surface.postRemix)
	mux.Post("/api/analyze", surface.postAnalyze)
	mux.Post("/api/player/{command}", surface.postPlayer)
	mux.Get("/api/stream/{filename}", surface.getStream)
	mux.Get("/api/download/{filename}", surface.getDownload)

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: mux,
	}
	go func() {
		log.Printf("web: listening on http://localhost%s\n", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("web: failed to start server: %v\n", err)
			cancel()
		}
	}()
	if cfg.Open {
		if err := browser.OpenURL(fmt.Sprintf("http://localhost%s", cfg.Addr)); err != nil {
			log.Printf("web: couldn't open browser: %v\n", err)
		}
	}

	<-ctx.Done()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

// surface bundles the state machines exposed over the API.
type surface struct {
	client       *studio.Client
	store        *history.Store
	catalog      *catalog.Catalog
	board        *workflow.Switchboard
	orchestrator *workflow.Orchestrator
	analyzer     *workflow.Analyzer
	player       *player.Controller
}

type jobView struct {
	Status      string        `json:"status"`
	Error       string        `json:"error,omitempty"`
	ErrorKind   string        `json:"error_kind,omitempty"`
	Remediation string        `json:"remediation,omitempty"`
	InstallURL  string        `json:"install_url,omitempty"`
	Track       *studio.Track `json:"track,omitempty"`
}

func viewJob(job workflow.Job, track *studio.Track) jobView {
	v := jobView{
		Status: job.Status.String(),
		Track:  track,
	}
	if job.Err != nil {
		v.Error = job.Err.Error()
		v.ErrorKind = studio.ErrorKind(job.Err)
		var depErr *studio.DependencyError
		if errors.As(job.Err, &depErr) {
			v.Remediation = depErr.Remediation()
			v.InstallURL = depErr.InstallURL
		}
	}
	return v
}

type playerView struct {
	State    string        `json:"state"`
	Position float64       `json:"position"`
	Duration float64       `json:"duration"`
	Volume   float64       `json:"volume"`
	Muted    bool          `json:"muted"`
	Error    string        `json:"error,omitempty"`
	Track    *studio.Track `json:"track,omitempty"`
}

type stateView struct {
	Active   string           `json:"active"`
	Busy     bool             `json:"busy"`
	Current  *studio.Track    `json:"current,omitempty"`
	Generate jobView          `json:"generate"`
	Remix    jobView          `json:"remix"`
	Analysis jobView          `json:"analysis"`
	Result   *studio.Analysis `json:"analysis_result,omitempty"`
	Player   playerView       `json:"player"`
}

func (s *surface) getCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string][]string{
		"moods":  s.catalog.Moods(),
		"genres": s.catalog.Genres(),
	})
}

func (s *surface) getState(w http.ResponseWriter, r *http.Request) {
	generate := s.orchestrator.GenerateJob()
	remix := s.orchestrator.RemixJob()
	snap := s.player.Snapshot()
	view := stateView{
		Active:   string(s.board.Active()),
		Busy:     s.orchestrator.Busy(),
		Current:  s.board.Current(),
		Generate: viewJob(generate.Job, generate.Track),
		Remix:    viewJob(remix.Job, remix.Track),
		Analysis: viewJob(s.analyzer.Job(), nil),
		Result:   s.analyzer.Result(),
		Player: playerView{
			State:    snap.State.String(),
			Position: snap.Position.Seconds(),
			Duration: snap.Duration.Seconds(),
			Volume:   snap.Volume,
			Muted:    snap.Muted,
			Track:    snap.Track,
		},
	}
	if snap.Err != nil {
		view.Player.Error = snap.Err.Error()
	}
	writeJSON(w, view)
}

func (s *surface) getHistory(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.List(r.Context())
	if err != nil {
		log.Println("web: couldn't list history:", err)
		http.Error(w, fmt.Sprintf("couldn't list history: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, records)
}

func (s *surface) postWorkflow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Workflow string `json:"workflow"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}
	switch workflow.Workflow(req.Workflow) {
	case workflow.Generate, workflow.Remix:
		s.board.SetActive(workflow.Workflow(req.Workflow))
	default:
		http.Error(w, fmt.Sprintf("unknown workflow: %s", req.Workflow), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *surface) postGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mood     string `json:"mood"`
		Genre    string `json:"genre"`
		Duration int    `json:"duration"`
		Tempo    int    `json:"tempo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}
	p := params.NewGenerate(s.catalog)
	if err := p.SetMood(req.Mood); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := p.SetGenre(req.Genre); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Duration != 0 {
		p.SetDuration(req.Duration)
	}
	if req.Tempo != 0 {
		p.SetTempo(req.Tempo)
	}
	if s.orchestrator.GenerateJob().Status == workflow.Loading {
		http.Error(w, "a generation is already in flight", http.StatusConflict)
		return
	}
	go s.submitGenerate(p.Request())
	w.WriteHeader(http.StatusAccepted)
}

func (s *surface) submitGenerate(req *studio.GenerateRequest) {
	ctx := context.Background()
	id := history.NewID()
	raw, _ := json.Marshal(req)
	_ = s.store.Append(ctx, &history.Record{
		ID:       id,
		Workflow: string(workflow.Generate),
		Params:   string(raw),
		Status:   workflow.Loading.String(),
	})
	track, err := s.orchestrator.SubmitGenerate(ctx, req)
	if err != nil {
		log.Println("web: generation failed:", err)
		_ = s.store.Finish(ctx, id, workflow.Failed.String(), "", studio.ErrorKind(err), err.Error())
		return
	}
	_ = s.store.Finish(ctx, id, workflow.Succeeded.String(), track.Filename, "", "")
}

func (s *surface) postRemix(w http.ResponseWriter, r *http.Request) {
	src, form, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	p := params.NewRemix(s.catalog)
	p.SetSource(src)
	if err := p.SetMood(form("mood")); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := p.SetGenre(form("genre")); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if v := form("tempo_change"); v != "" {
		ratio, err := strconv.ParseFloat(v, 64)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid tempo_change: %v", err), http.StatusBadRequest)
			return
		}
		p.SetTempoChange(ratio)
	}
	if v := form("pitch_shift"); v != "" {
		semitones, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid pitch_shift: %v", err), http.StatusBadRequest)
			return
		}
		p.SetPitchShift(semitones)
	}
	p.SetAddHarmony(form("add_harmony") == "true")
	if v := form("harmony_type"); v != "" {
		if err := p.SetHarmonyType(v); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	p.SetIntelligentTransform(form("intelligent_transform") == "true")
	if v := form("source_mood"); v != "" {
		if err := p.SetSourceMood(v); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if s.orchestrator.RemixJob().Status == workflow.Loading {
		http.Error(w, "a remix is already in flight", http.StatusConflict)
		return
	}
	go s.submitRemix(p.Request())
	w.WriteHeader(http.StatusAccepted)
}

func (s *surface) submitRemix(req *studio.RemixRequest) {
	ctx := context.Background()
	id := history.NewID()
	raw, _ := json.Marshal(map[string]any{
		"mood":         req.Mood,
		"genre":        req.Genre,
		"tempo_change": req.TempoChange,
		"pitch_shift":  req.PitchShift,
		"source":       req.Source.Name,
	})
	_ = s.store.Append(ctx, &history.Record{
		ID:       id,
		Workflow: string(workflow.Remix),
		Params:   string(raw),
		Status:   workflow.Loading.String(),
	})
	track, err := s.orchestrator.SubmitRemix(ctx, req)
	if err != nil {
		log.Println("web: remix failed:", err)
		_ = s.store.Finish(ctx, id, workflow.Failed.String(), "", studio.ErrorKind(err), err.Error())
		return
	}
	_ = s.store.Finish(ctx, id, workflow.Succeeded.String(), track.Filename, "", "")
}

func (s *surface) postAnalyze(w http.ResponseWriter, r *http.Request) {
	src, _, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	// A new source invalidates any previous analysis before the request runs.
	s.analyzer.SetSource(src)
	go func() {
		if _, err := s.analyzer.Analyze(context.Background()); err != nil {
			log.Println("web: analysis failed:", err)
		}
	}()
	w.WriteHeader(http.StatusAccepted)
}

// readUpload extracts the "audio" multipart file. A missing file is a local
// MissingInput error: it never reaches the service.
func (s *surface) readUpload(w http.ResponseWriter, r *http.Request) (*studio.Upload, func(string) string, bool) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		http.Error(w, fmt.Sprintf("invalid form: %v", err), http.StatusBadRequest)
		return nil, nil, false
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		http.Error(w, workflow.ErrMissingSource.Error(), http.StatusBadRequest)
		return nil, nil, false
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, fmt.Sprintf("couldn't read upload: %v", err), http.StatusBadRequest)
		return nil, nil, false
	}
	mime := header.Header.Get("Content-Type")
	if mime == "" {
		mime = "application/octet-stream"
	}
	src := &studio.Upload{
		Name: header.Filename,
		MIME: mime,
		Data: data,
	}
	return src, r.FormValue, true
}

func (s *surface) postPlayer(w http.ResponseWriter, r *http.Request) {
	command := chi.URLParam(r, "command")
	var err error
	switch command {
	case "play":
		err = s.player.Play()
	case "pause":
		err = s.player.Pause()
	case "restart":
		err = s.player.Restart()
	case "mute":
		s.player.ToggleMute()
	case "seek":
		v := r.URL.Query().Get("position")
		var seconds float64
		seconds, err = strconv.ParseFloat(v, 64)
		if err == nil {
			err = s.player.Seek(time.Duration(seconds * float64(time.Second)))
		}
	case "volume":
		v := r.URL.Query().Get("volume")
		var volume float64
		volume, err = strconv.ParseFloat(v, 64)
		if err == nil {
			s.player.SetVolume(volume)
		}
	default:
		http.Error(w, fmt.Sprintf("unknown command: %s", command), http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getStream proxies the streamable resource so the page can use a plain
// audio element against the local origin.
func (s *surface) getStream(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	data, mime, err := s.client.Stream(r.Context(), filename)
	if err != nil {
		http.Error(w, fmt.Sprintf("couldn't stream track: %v", err), http.StatusBadGateway)
		return
	}
	if mime != "" {
		w.Header().Set("Content-Type", mime)
	}
	_, _ = w.Write(data)
}

func (s *surface) getDownload(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := s.client.Download(r.Context(), filename, w); err != nil {
		log.Println("web: couldn't download track:", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("web: couldn't encode response:", err)
	}
}

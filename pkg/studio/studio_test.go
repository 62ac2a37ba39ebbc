package studio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := New(&Config{
		BaseURL: server.URL,
		Wait:    1,
	})
	return client, server
}

func TestGenerate(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		var req GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Mood != "energetic" || req.Genre != "rock" || req.Duration != 15 || req.Tempo != 140 {
			t.Errorf("unexpected request: %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success":  true,
			"filename": "generated_abc123.wav",
			"mood":     "energetic",
			"genre":    "rock",
			"tempo":    140,
			"duration": 15,
		})
	}))
	defer server.Close()

	track, err := client.Generate(context.Background(), &GenerateRequest{
		Mood:     "energetic",
		Genre:    "rock",
		Duration: 15,
		Tempo:    140,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if track.Filename != "generated_abc123.wav" {
		t.Fatalf("unexpected filename: %s", track.Filename)
	}
	if track.IsRemix {
		t.Fatal("generated track marked as remix")
	}
}

func TestGenerateServerError(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{"error": "generation failed"})
	}))
	defer server.Close()

	_, err := client.Generate(context.Background(), &GenerateRequest{})
	var srvErr *ServerError
	if !errors.As(err, &srvErr) {
		t.Fatalf("want ServerError, got %v", err)
	}
	if srvErr.Message != "generation failed" {
		t.Fatalf("message not surfaced verbatim: %q", srvErr.Message)
	}
	if srvErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", srvErr.StatusCode)
	}
}

func TestRemixFormFields(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		file, header, err := r.FormFile("audio")
		if err != nil {
			t.Errorf("form file: %v", err)
		} else {
			defer file.Close()
			if header.Filename != "song.mp3" {
				t.Errorf("unexpected upload name: %s", header.Filename)
			}
		}
		want := map[string]string{
			"mood":                  "calm",
			"genre":                 "ambient",
			"tempo_change":          "1.25",
			"pitch_shift":           "-3",
			"add_harmony":           "true",
			"harmony_type":          "fifth",
			"intelligent_transform": "false",
			"source_mood":           "energetic",
		}
		for k, v := range want {
			if got := r.FormValue(k); got != v {
				t.Errorf("field %s: want %q, got %q", k, v, got)
			}
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success":  true,
			"filename": "remixed_xyz.wav",
			"mood":     "calm",
			"genre":    "ambient",
		})
	}))
	defer server.Close()

	track, err := client.Remix(context.Background(), &RemixRequest{
		Source:      Upload{Name: "song.mp3", MIME: "audio/mpeg", Data: []byte("mp3-bytes")},
		Mood:        "calm",
		Genre:       "ambient",
		TempoChange: 1.25,
		PitchShift:  -3,
		AddHarmony:  true,
		HarmonyType: "fifth",
		SourceMood:  "energetic",
	})
	if err != nil {
		t.Fatalf("remix: %v", err)
	}
	if !track.IsRemix {
		t.Fatal("remix track not marked")
	}
	if track.Filename != "remixed_xyz.wav" {
		t.Fatalf("unexpected filename: %s", track.Filename)
	}
}

func TestRemixDependencyMissing(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error":           "MP3 support requires ffmpeg",
			"ffmpeg_required": true,
			"install_url":     "https://ffmpeg.org/download.html",
		})
	}))
	defer server.Close()

	_, err := client.Remix(context.Background(), &RemixRequest{
		Source: Upload{Name: "song.mp3", Data: []byte("x")},
	})
	var depErr *DependencyError
	if !errors.As(err, &depErr) {
		t.Fatalf("want DependencyError, got %v", err)
	}
	if depErr.InstallURL != "https://ffmpeg.org/download.html" {
		t.Fatalf("unexpected install url: %q", depErr.InstallURL)
	}
	if !IsDependencyMissing(err) {
		t.Fatal("IsDependencyMissing should report true")
	}
	if got := ErrorKind(err); got != "dependency_missing" {
		t.Fatalf("want kind dependency_missing, got %q", got)
	}
	remediation := depErr.Remediation()
	if remediation == "" {
		t.Fatal("empty remediation")
	}
}

func TestAnalyze(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/analyze" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"features": map[string]float64{
				"energy":        0.72,
				"brightness":    0.41,
				"dynamic_range": 0.9,
			},
			"suggested_moods":  []string{"energetic", "dark"},
			"suggested_genres": []string{"rock"},
			"creative_suggestions": []map[string]any{
				{"name": "speed up", "description": "raise the tempo", "params": map[string]any{"tempo_change": 1.3}},
			},
			"duration": 42.5,
		})
	}))
	defer server.Close()

	analysis, err := client.Analyze(context.Background(), Upload{Name: "in.wav", Data: []byte("riff")})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if analysis.Features.Energy != 0.72 {
		t.Fatalf("unexpected energy: %v", analysis.Features.Energy)
	}
	if len(analysis.SuggestedMoods) != 2 || analysis.SuggestedMoods[0] != "energetic" {
		t.Fatalf("unexpected moods: %v", analysis.SuggestedMoods)
	}
	if len(analysis.Suggestions) != 1 || analysis.Suggestions[0].Name != "speed up" {
		t.Fatalf("unexpected suggestions: %v", analysis.Suggestions)
	}
	if analysis.Duration != 42.5 {
		t.Fatalf("unexpected duration: %v", analysis.Duration)
	}
}

func TestMoodsGenres(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/moods":
			json.NewEncoder(w).Encode(map[string]any{"moods": []string{"energetic", "calm"}})
		case "/api/genres":
			json.NewEncoder(w).Encode(map[string]any{"genres": []string{"rock"}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	moods, err := client.Moods(context.Background())
	if err != nil {
		t.Fatalf("moods: %v", err)
	}
	if len(moods) != 2 {
		t.Fatalf("want 2 moods, got %v", moods)
	}
	genres, err := client.Genres(context.Background())
	if err != nil {
		t.Fatalf("genres: %v", err)
	}
	if len(genres) != 1 || genres[0] != "rock" {
		t.Fatalf("unexpected genres: %v", genres)
	}
}

func TestHealth(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer server.Close()
	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
}

func TestTransportError(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	err := client.Health(context.Background())
	var trErr *TransportError
	if !errors.As(err, &trErr) {
		t.Fatalf("want TransportError, got %v", err)
	}
	if got := ErrorKind(err); got != "transport" {
		t.Fatalf("want kind transport, got %q", got)
	}
}

func TestDecodeErrorFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"json error", 400, `{"error":"bad input"}`, "bad input"},
		{"plain body", 500, "everything is broken", "everything is broken"},
		{"empty body", 502, "", "Bad Gateway"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := decodeError(tt.status, []byte(tt.body))
			var srvErr *ServerError
			if !errors.As(err, &srvErr) {
				t.Fatalf("want ServerError, got %v", err)
			}
			if srvErr.Message != tt.message {
				t.Fatalf("want %q, got %q", tt.message, srvErr.Message)
			}
		})
	}
}

func TestDownload(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/download/abc.wav" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		fmt.Fprint(w, "audio-bytes")
	}))
	defer server.Close()

	var buf bytes.Buffer
	if err := client.Download(context.Background(), "abc.wav", &buf); err != nil {
		t.Fatalf("download: %v", err)
	}
	if buf.String() != "audio-bytes" {
		t.Fatalf("unexpected body: %q", buf.String())
	}
}

func TestStreamURL(t *testing.T) {
	client := New(&Config{BaseURL: "http://localhost:5000/"})
	want := "http://localhost:5000/api/stream/abc.wav"
	if got := client.StreamURL("abc.wav"); got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

package studio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
)

// Health checks that the service is reachable.
func (c *Client) Health(ctx context.Context) error {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "health", nil, &resp); err != nil {
		return err
	}
	if resp.Status != "ok" {
		return &ServerError{StatusCode: http.StatusOK, Message: fmt.Sprintf("unexpected health status %q", resp.Status)}
	}
	return nil
}

// Moods returns the enumerated set of valid moods.
func (c *Client) Moods(ctx context.Context) ([]string, error) {
	var resp struct {
		Moods []string `json:"moods"`
	}
	if err := c.do(ctx, http.MethodGet, "moods", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Moods, nil
}

// Genres returns the enumerated set of valid genres.
func (c *Client) Genres(ctx context.Context) ([]string, error) {
	var resp struct {
		Genres []string `json:"genres"`
	}
	if err := c.do(ctx, http.MethodGet, "genres", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Genres, nil
}

// Generate submits a generation job and blocks until the service responds.
func (c *Client) Generate(ctx context.Context, req *GenerateRequest) (*Track, error) {
	var resp struct {
		Success  bool   `json:"success"`
		Filename string `json:"filename"`
		Mood     string `json:"mood"`
		Genre    string `json:"genre"`
		Tempo    int    `json:"tempo"`
		Duration int    `json:"duration"`
	}
	if err := c.do(ctx, http.MethodPost, "generate", req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &ServerError{StatusCode: http.StatusOK, Message: "generation reported no success"}
	}
	return &Track{
		Filename: resp.Filename,
		Mood:     resp.Mood,
		Genre:    resp.Genre,
		Tempo:    resp.Tempo,
		Duration: resp.Duration,
	}, nil
}

// Analyze uploads a source asset and returns the extracted features and
// suggestions.
func (c *Client) Analyze(ctx context.Context, src Upload) (*Analysis, error) {
	f, err := newForm(src, nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Success bool `json:"success"`
		Analysis
	}
	if err := c.do(ctx, http.MethodPost, "analyze", f, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &ServerError{StatusCode: http.StatusOK, Message: "analysis reported no success"}
	}
	analysis := resp.Analysis
	return &analysis, nil
}

// Remix uploads a source asset together with remix parameters. HarmonyType
// and SourceMood are transmitted unconditionally, matching the server form
// contract.
func (c *Client) Remix(ctx context.Context, req *RemixRequest) (*Track, error) {
	fields := map[string]string{
		"mood":                  req.Mood,
		"genre":                 req.Genre,
		"tempo_change":          strconv.FormatFloat(req.TempoChange, 'f', -1, 64),
		"pitch_shift":           strconv.Itoa(req.PitchShift),
		"add_harmony":           strconv.FormatBool(req.AddHarmony),
		"harmony_type":          req.HarmonyType,
		"intelligent_transform": strconv.FormatBool(req.IntelligentTransform),
		"source_mood":           req.SourceMood,
	}
	f, err := newForm(req.Source, fields)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Success        bool           `json:"success"`
		Filename       string         `json:"filename"`
		Mood           string         `json:"mood"`
		Genre          string         `json:"genre"`
		AudioFeatures  Features       `json:"audio_features"`
		AppliedEffects AppliedEffects `json:"applied_effects"`
	}
	if err := c.do(ctx, http.MethodPost, "remix", f, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &ServerError{StatusCode: http.StatusOK, Message: "remix reported no success"}
	}
	return &Track{
		Filename: resp.Filename,
		Mood:     resp.Mood,
		Genre:    resp.Genre,
		IsRemix:  true,
	}, nil
}

// StreamURL returns the address of the streamable media resource for a track.
func (c *Client) StreamURL(filename string) string {
	return fmt.Sprintf("%s/api/stream/%s", c.baseURL, filename)
}

// Download writes the persisted bytes of a track to w.
func (c *Client) Download(ctx context.Context, filename string, w io.Writer) error {
	u := fmt.Sprintf("%s/api/download/%s", c.baseURL, filename)
	c.log("studio: download %s", u)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("studio: couldn't create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return decodeError(resp.StatusCode, body)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return &TransportError{Err: err}
	}
	return nil
}

// DownloadFile downloads a track to a local path.
func (c *Client) DownloadFile(ctx context.Context, filename, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("studio: couldn't create file: %w", err)
	}
	defer f.Close()
	return c.Download(ctx, filename, f)
}

// Stream fetches the streamable media resource and returns its bytes and
// declared content type.
func (c *Client) Stream(ctx context.Context, filename string) ([]byte, string, error) {
	u := c.StreamURL(filename)
	c.log("studio: stream %s", u)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, "", fmt.Errorf("studio: couldn't create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", &TransportError{Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &TransportError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", decodeError(resp.StatusCode, body)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

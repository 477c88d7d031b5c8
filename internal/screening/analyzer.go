// Package screening sends uploaded videos to the external analyzer and
// records the classified result.
package screening

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Result is the analyzer's response. Risk is in the analyzer's unit.
type Result struct {
	Risk           float64         `json:"risk"`
	Indicators     json.RawMessage `json:"indicators,omitempty"`
	GazeMetrics    json.RawMessage `json:"gaze_metrics,omitempty"`
	ShapImportance json.RawMessage `json:"shap_importance,omitempty"`
	HeatmapBase64  string          `json:"heatmap_base64,omitempty"`
	Error          string          `json:"error,omitempty"`
}

// Analyzer runs the screening model on a video.
type Analyzer interface {
	Analyze(ctx context.Context, filename string, video io.Reader) (*Result, error)
}

// HTTPAnalyzer posts videos as multipart/form-data to a remote model server.
type HTTPAnalyzer struct {
	URL    string
	Client *http.Client
}

func NewHTTPAnalyzer(url string, timeout time.Duration) *HTTPAnalyzer {
	return &HTTPAnalyzer{URL: url, Client: &http.Client{Timeout: timeout}}
}

// Analyze streams the video to the analyzer without buffering it in memory.
func (a *HTTPAnalyzer) Analyze(ctx context.Context, filename string, video io.Reader) (*Result, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", filename)
		if err == nil {
			_, err = io.Copy(part, video)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.URL, pr)
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("build analyzer request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalyzerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrAnalyzerFailed, resp.StatusCode, body)
	}

	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrAnalyzerFailed, err)
	}
	if res.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrAnalyzerFailed, res.Error)
	}
	return &res, nil
}

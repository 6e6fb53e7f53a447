package caption

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const describePrompt = "Describe this image. Reply with exactly two lines:\n" +
	"Caption: <a short caption, at most ten words>\n" +
	"Description: <one or two sentences describing the image>"

// GeminiGenerator calls the Gemini generateContent REST endpoint.
type GeminiGenerator struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewGeminiGenerator creates a generator against the given endpoint.
func NewGeminiGenerator(endpoint, apiKey string) *GeminiGenerator {
	return &GeminiGenerator{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Describe sends the image inline and parses the model's free-text reply
// into a caption/description pair.
func (g *GeminiGenerator) Describe(ctx context.Context, image []byte, mimeType string) (Result, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{Text: describePrompt},
				{InlineData: &geminiInlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
	})
	if err != nil {
		return Result{}, fmt.Errorf("encode caption request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build caption request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("call caption API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused; the body is not useful
		// beyond the status line for diagnostics.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Result{}, fmt.Errorf("caption API returned status %d", resp.StatusCode)
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Result{}, fmt.Errorf("decode caption response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return Result{}, fmt.Errorf("caption API returned no candidates")
	}

	return parseModelReply(parsed.Candidates[0].Content.Parts[0].Text), nil
}

// parseModelReply extracts the caption and description lines from the
// model's reply. Models do not always follow the prompt format exactly, so
// unmatched lines fall back to sentinel text rather than failing.
func parseModelReply(text string) Result {
	r := Result{Caption: MissingCaption, Description: MissingDescription}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if v, ok := strings.CutPrefix(line, "Caption:"); ok {
			if v = strings.TrimSpace(v); v != "" {
				r.Caption = v
			}
		} else if v, ok := strings.CutPrefix(line, "Description:"); ok {
			if v = strings.TrimSpace(v); v != "" {
				r.Description = v
			}
		}
	}
	return r
}

// DisabledGenerator is wired when captioning is turned off in config. Every
// call fails, which the upload pipeline masks to the fallback pair.
type DisabledGenerator struct{}

// Describe always returns an error.
func (DisabledGenerator) Describe(ctx context.Context, image []byte, mimeType string) (Result, error) {
	return Result{}, fmt.Errorf("captioning is disabled")
}

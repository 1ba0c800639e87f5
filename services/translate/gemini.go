// Package translatesvc translates catalog text with Google's Gemini API,
// used by the admin console to prefill Amharic and Geez fields.
package translatesvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/keneanapp/kenean/core"
)

const baseURL = "https://generativelanguage.googleapis.com/v1beta/models"

var languageNames = map[string]string{
	"en": "English",
	"am": "Amharic",
	"gez": "Geez (Ethiopic liturgical language)",
}

type geminiService struct {
	apiKey string
	model  string
	client *http.Client
	logger core.Logger
}

var _ core.Translator = (*geminiService)(nil)

func NewGeminiService(logger core.Logger, conf *core.Config) *geminiService {
	return &geminiService{
		apiKey: conf.Gemini.APIKey,
		model:  conf.Gemini.Model,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func languageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return code
}

func (svc geminiService) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	prompt := fmt.Sprintf(
		"Translate the following text from %s to %s. Reply with the translation only, no explanations.\n\n%s",
		languageName(sourceLang), languageName(targetLang), text,
	)

	payload, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", errors.Wrap(err, "encoding request")
	}

	endpoint := fmt.Sprintf("%s/%s:generateContent?key=%s", baseURL, svc.model, svc.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := svc.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "calling translation API")
	}
	defer func() { _ = res.Body.Close() }()

	var parsed geminiResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return "", errors.Wrap(err, "decoding response")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return "", errors.Errorf("calling translation API - status: %d - %s", res.StatusCode, parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("empty translation response")
	}
	return strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text), nil
}

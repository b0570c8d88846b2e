package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

// CompletionService abstrait le service de complétion de texte derrière le
// chatbot. L'historique est la transcription brute "User: …" / "AI: …".
type CompletionService interface {
	Complete(ctx context.Context, prompt string, history []string) (string, error)
}

// ErrUpstream : le service de complétion est injoignable ou a répondu en
// erreur. Le handler dégrade en message d'excuse générique, jamais en crash.
var ErrUpstream = errors.New("service de complétion indisponible")

// GeminiClient appelle l'API REST Generative Language de Google.
type GeminiClient struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

func NewGeminiClient() *GeminiClient {
	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &GeminiClient{
		apiKey:  os.Getenv("GEMINI_API_KEY"),
		model:   model,
		baseURL: "https://generativelanguage.googleapis.com",
		http:    &http.Client{Timeout: 30 * time.Second},
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
}

func (g *GeminiClient) Complete(ctx context.Context, prompt string, history []string) (string, error) {
	fullPrompt := strings.Join(history, "\n") + fmt.Sprintf("\nUser: %s\nAI:", prompt)

	payload, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: fullPrompt}}}},
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := g.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: statut %d", ErrUpstream, res.StatusCode)
	}

	var parsed geminiResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: réponse vide", ErrUpstream)
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

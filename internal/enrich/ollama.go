// Package enrich generates optional response enrichments (summaries,
// key points, code explanations) with a local Ollama model.
//
// Every call is best-effort: handlers that receive an error omit the
// corresponding field and carry on. An enrichment failure is never a
// request-level failure.
package enrich

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
)

// maxInputLength bounds the text handed to the model; LRM sections can
// run to tens of kilobytes and small local models have short contexts.
const maxInputLength = 8000

// Ollama generates enrichments with a local Ollama model.
type Ollama struct {
	client *api.Client
	model  string
}

// NewOllama creates an Ollama enricher. With an empty host the client
// follows the OLLAMA_HOST environment convention.
func NewOllama(host, model string) (*Ollama, error) {
	hostURL := envconfig.Host()
	if host != "" {
		parsed, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("enrich: parse ollama host: %w", err)
		}
		hostURL = parsed
	}
	client := api.NewClient(hostURL, http.DefaultClient)

	return &Ollama{client: client, model: model}, nil
}

// Summarize produces a short summary of an LRM section.
func (o *Ollama) Summarize(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(
		"Summarize this hardware description language reference manual section in at most 150 words. "+
			"Keep exact keywords and construct names. Be concise.\n\nSection:\n%s\n\nSummary:",
		clip(text))
	return o.generate(ctx, prompt)
}

// KeyPoints extracts the key rules and constraints of an LRM section
// as bullet points.
func (o *Ollama) KeyPoints(ctx context.Context, text string) ([]string, error) {
	prompt := fmt.Sprintf(
		"Extract the key rules and constraints from this hardware description language reference manual section. "+
			"List only the important rules, one per line, each starting with '- '. Be concise.\n\nSection:\n%s\n\nRules:",
		clip(text))
	out, err := o.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var points []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "- "))
		if line != "" {
			points = append(points, line)
		}
	}
	return points, nil
}

// Explain produces a short explanation of a code example.
func (o *Ollama) Explain(ctx context.Context, code, language string) (string, error) {
	prompt := fmt.Sprintf(
		"Explain what this %s code example does in 2-3 sentences. Be precise about the constructs used.\n\n%s\n\nExplanation:",
		language, clip(code))
	return o.generate(ctx, prompt)
}

func (o *Ollama) generate(ctx context.Context, prompt string) (string, error) {
	req := api.GenerateRequest{
		Model:  o.model,
		Prompt: prompt,
		Options: map[string]interface{}{
			"temperature": 0.1,
			"num_predict": 512,
		},
	}

	var out strings.Builder
	err := o.client.Generate(ctx, &req, func(resp api.GenerateResponse) error {
		_, err := out.WriteString(resp.Response)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("enrich: generate: %w", err)
	}

	return strings.TrimSpace(out.String()), nil
}

func clip(s string) string {
	if len(s) <= maxInputLength {
		return s
	}
	return s[:maxInputLength]
}

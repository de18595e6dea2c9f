package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

var ErrNoAPIKey = errors.New("gemini api key missing")

// Client chama generateContent pela SDK oficial. Sem chave de API, Generate devolve ErrNoAPIKey.
type Client struct {
	Model string
	sdk   *genai.Client
}

func New(ctx context.Context, apiKey, model string) (*Client, error) {
	return newClient(ctx, apiKey, model, genai.HTTPOptions{})
}

func newClient(ctx context.Context, apiKey, model string, opts genai.HTTPOptions) (*Client, error) {
	if model == "" {
		model = DefaultModel
	}
	c := &Client{Model: model}
	if apiKey == "" {
		return c, nil
	}
	sdk, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  &http.Client{Timeout: 90 * time.Second}, // busca com grounding é lenta
		HTTPOptions: opts,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	c.sdk = sdk
	return c, nil
}

// Request descreve uma geração: prompt, busca web (grounding) e resposta JSON opcional com schema.
type Request struct {
	Prompt string
	Search bool
	JSON   bool
	Schema *genai.Schema
}

// Source é uma fonte web usada pelo grounding.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Response é o texto gerado pelo primeiro candidato e suas fontes.
type Response struct {
	Text    string
	Sources []Source
}

// Generate envia o prompt e devolve o texto concatenado das partes do primeiro candidato.
func (c *Client) Generate(ctx context.Context, in Request) (*Response, error) {
	if c.sdk == nil {
		return nil, ErrNoAPIKey
	}

	cfg := &genai.GenerateContentConfig{}
	if in.Search {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	// a API não aceita responseMimeType JSON junto com a ferramenta de busca
	if in.JSON && !in.Search {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = in.Schema
	}

	res, err := c.sdk.Models.GenerateContent(ctx, c.Model, genai.Text(in.Prompt), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	if res == nil || len(res.Candidates) == 0 || res.Candidates[0] == nil {
		return &Response{}, nil
	}

	cand := res.Candidates[0]
	var sb strings.Builder
	if cand.Content != nil {
		for _, p := range cand.Content.Parts {
			if p != nil {
				sb.WriteString(p.Text)
			}
		}
	}
	out := &Response{Text: sb.String()}
	if cand.GroundingMetadata != nil {
		for _, ch := range cand.GroundingMetadata.GroundingChunks {
			if ch == nil || ch.Web == nil || ch.Web.URI == "" {
				continue
			}
			title := ch.Web.Title
			if title == "" {
				title = "Source"
			}
			out.Sources = append(out.Sources, Source{Title: title, URI: ch.Web.URI})
		}
	}
	return out, nil
}

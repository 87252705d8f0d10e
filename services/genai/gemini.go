// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("aleutian.canvas.genai")

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	defaultGeminiModel   = "gemini-2.5-flash-image"

	// Bounds a single provider call. Image generation is slow but a
	// request that takes longer than this is considered failed.
	generateTimeout = 60 * time.Second
)

type GeminiClient struct {
	httpClient *http.Client
	baseURL    string
	model      string
	apiKey     string
}

// Gemini REST API request/response structures.
type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerateRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// NewGeminiClient builds a client from GOOGLE_API_KEY and GEMINI_MODEL.
// The key is required; the model defaults to gemini-2.5-flash-image.
func NewGeminiClient() (*GeminiClient, error) {
	apiKey := strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))
	if apiKey == "" {
		secretPath := "/run/secrets/google_api_key"
		apiKeyBytes, err := os.ReadFile(secretPath)
		if err == nil {
			apiKey = strings.TrimSpace(string(apiKeyBytes))
			slog.Info("Read the Google API key from container secrets")
		} else {
			slog.Error("GOOGLE_API_KEY environment variable not set and secret not found", "path", secretPath)
			return nil, fmt.Errorf("GOOGLE_API_KEY environment variable not set")
		}
	}
	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = defaultGeminiModel
		slog.Warn("GEMINI_MODEL not set, defaulting", "model", model)
	}
	baseURL := os.Getenv("GEMINI_BASE_URL")
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	slog.Info("Initializing Gemini client", "model", model)
	return &GeminiClient{
		httpClient: &http.Client{Timeout: generateTimeout},
		baseURL:    baseURL,
		model:      model,
		apiKey:     apiKey,
	}, nil
}

// Model returns the configured model identifier.
func (g *GeminiClient) Model() string {
	return g.model
}

// Generate implements the Client interface. It returns the candidate's
// parts in provider order; the caller decides which part to use.
func (g *GeminiClient) Generate(ctx context.Context, prompt string, image *ImageInput) ([]Part, error) {
	ctx, span := tracer.Start(ctx, "GeminiClient.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("genai.model", g.model))

	parts := []geminiPart{{Text: prompt}}
	if image != nil {
		mimeType := image.MIMEType
		if mimeType == "" {
			mimeType = "image/png"
		}
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MIMEType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(image.Data),
		}})
	}
	payload := geminiGenerateRequest{Contents: []geminiContent{{Parts: parts}}}

	reqBodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal the generate payload: %w", err)
	}

	generateURL := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, generateURL, bytes.NewBuffer(reqBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to build the generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	slog.Debug("Calling Gemini generateContent", "model", g.model, "has_image", image != nil)
	resp, err := g.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read the gemini response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("gemini returned status %d", resp.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("Gemini API call failed", "status", resp.StatusCode, "body_len", len(body))
		return nil, err
	}

	var generateResp geminiGenerateResponse
	if err := json.Unmarshal(body, &generateResp); err != nil {
		return nil, fmt.Errorf("failed to parse the gemini response: %w", err)
	}
	if len(generateResp.Candidates) == 0 {
		slog.Warn("Gemini returned no candidates")
		return nil, nil
	}

	var out []Part
	for _, p := range generateResp.Candidates[0].Content.Parts {
		if p.InlineData != nil {
			data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("failed to decode inline image data: %w", err)
			}
			out = append(out, Part{Data: data, MIMEType: p.InlineData.MIMEType})
			continue
		}
		out = append(out, Part{Text: p.Text})
	}
	span.SetAttributes(attribute.Int("genai.parts", len(out)))
	return out, nil
}

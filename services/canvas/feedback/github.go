// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package feedback files user feedback with the project issue tracker.
package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Filer submits one feedback message and returns the tracker URL.
type Filer interface {
	FileIssue(ctx context.Context, title, body string) (string, error)
}

// GitHubClient files feedback as issues on a GitHub repository.
type GitHubClient struct {
	httpClient *http.Client
	baseURL    string
	repo       string
	token      string
}

type githubIssueRequest struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels,omitempty"`
}

type githubIssueResponse struct {
	HTMLURL string `json:"html_url"`
}

// NewGitHubClient builds a client from FEEDBACK_GITHUB_REPO
// ("owner/name") and FEEDBACK_GITHUB_TOKEN.
func NewGitHubClient() (*GitHubClient, error) {
	repo := strings.TrimSpace(os.Getenv("FEEDBACK_GITHUB_REPO"))
	token := strings.TrimSpace(os.Getenv("FEEDBACK_GITHUB_TOKEN"))
	if repo == "" || token == "" {
		return nil, fmt.Errorf("FEEDBACK_GITHUB_REPO and FEEDBACK_GITHUB_TOKEN must be set")
	}
	baseURL := os.Getenv("FEEDBACK_GITHUB_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	return &GitHubClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		repo:       repo,
		token:      token,
	}, nil
}

// Disabled is wired when no tracker is configured; filing always fails.
type Disabled struct{}

func (Disabled) FileIssue(context.Context, string, string) (string, error) {
	return "", fmt.Errorf("feedback tracker not configured")
}

// FileIssue implements Filer.
func (g *GitHubClient) FileIssue(ctx context.Context, title, body string) (string, error) {
	payload := githubIssueRequest{Title: title, Body: body, Labels: []string{"user-feedback"}}
	reqBodyBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal the issue payload: %w", err)
	}

	issueURL := fmt.Sprintf("%s/repos/%s/issues", g.baseURL, g.repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, issueURL, bytes.NewBuffer(reqBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to build the issue request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+g.token)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to file the issue: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read the issue response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("issue tracker returned status %d", resp.StatusCode)
	}

	var issue githubIssueResponse
	if err := json.Unmarshal(respBody, &issue); err != nil {
		return "", fmt.Errorf("failed to parse the issue response: %w", err)
	}
	return issue.HTMLURL, nil
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// DownloadProxy handles GET /download. It fetches an artifact URL
// server-side and streams it back with an attachment disposition so
// browsers save instead of render. The host must be on the artifact
// store allow-list; anything else is rejected before any outbound call.
func DownloadProxy(allowedHosts []string, client *http.Client) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedHosts))
	for _, h := range allowedHosts {
		allowed[strings.ToLower(h)] = struct{}{}
	}

	return func(c *gin.Context) {
		rawURL := c.Query("url")
		filename := sanitizeFilename(c.Query("filename"))

		parsed, err := url.Parse(rawURL)
		if err != nil || (parsed.Scheme != "https" && parsed.Scheme != "http") {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid download url"})
			return
		}
		if _, ok := allowed[strings.ToLower(parsed.Hostname())]; !ok {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "url host not allowed"})
			return
		}

		req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, rawURL, nil)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid download url"})
			return
		}

		resp, err := client.Do(req)
		if err != nil {
			slog.Error("Download proxy fetch failed", "host", parsed.Hostname(), "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"detail": "failed to fetch artifact"})
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			c.JSON(http.StatusBadGateway, gin.H{"detail": "artifact store returned an error"})
			return
		}

		contentType := resp.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "image/png"
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.DataFromReader(http.StatusOK, resp.ContentLength, contentType, resp.Body, nil)
	}
}

// sanitizeFilename strips path separators and quotes so the filename
// is safe inside a Content-Disposition header.
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	replacer := strings.NewReplacer("/", "_", "\\", "_", "\"", "", "\r", "", "\n", "")
	name = replacer.Replace(name)
	if name == "" {
		name = "download.png"
	}
	return name
}

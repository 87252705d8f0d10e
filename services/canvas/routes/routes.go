// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianCanvas/services/canvas/artifacts"
	"github.com/AleutianAI/AleutianCanvas/services/canvas/feedback"
	"github.com/AleutianAI/AleutianCanvas/services/canvas/handlers"
	"github.com/AleutianAI/AleutianCanvas/services/canvas/identity"
	"github.com/AleutianAI/AleutianCanvas/services/canvas/middleware"
	"github.com/AleutianAI/AleutianCanvas/services/canvas/store"
)

// Deps carries everything the route table needs. All fields are
// interfaces so tests can wire doubles end to end.
type Deps struct {
	Verifier  identity.Verifier
	Store     store.Store
	Generator handlers.Generator
	Artifacts artifacts.Store
	Filer     feedback.Filer
	Model     string
}

func SetupRoutes(router *gin.Engine, deps Deps) {
	router.GET("/health", handlers.HealthCheck(deps.Model))

	downloadClient := &http.Client{Timeout: 30 * time.Second}
	router.GET("/download", handlers.DownloadProxy(deps.Artifacts.AllowedHosts(), downloadClient))

	// Everything below requires a verified bearer credential.
	authed := router.Group("/")
	authed.Use(middleware.AuthMiddleware(deps.Verifier))
	{
		authed.GET("/users/me", handlers.Me(deps.Store, deps.Store))
		authed.POST("/generate/notes", handlers.GenerateNotes(deps.Generator))
		authed.POST("/generate/translation", handlers.GenerateTranslation(deps.Generator))
		authed.POST("/feedback", handlers.Feedback(deps.Filer))
		authed.POST("/admin/set-tokens/:n", handlers.SetTokens(deps.Store))
	}
}

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
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/AleutianAutoML/services/automl/handlers"
)

// chartKinds are the supported /graph renderers.
var chartKinds = []string{
	"histogram", "bar", "pie", "boxplot", "qq", "scatter", "line",
	"heatmap", "roc_plot", "compare-models", "shap-summary",
}

func SetupRoutes(router *gin.Engine, deps handlers.Deps) {
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/upload/file", handlers.UploadFile(deps))

	pipeline := router.Group("/pipeline")
	{
		pipeline.POST("/clean", handlers.Clean(deps))
		pipeline.POST("/eda", handlers.EDA(deps))
		pipeline.POST("/transform", handlers.Transform(deps))
		pipeline.POST("/train", handlers.Train(deps))
		pipeline.POST("/explain", handlers.Explain(deps))
		pipeline.POST("/data", handlers.Data(deps))
		pipeline.GET("/metrics", handlers.Metrics(deps))
	}

	graph := router.Group("/graph")
	{
		for _, kind := range chartKinds {
			graph.GET("/"+kind, handlers.Graph(deps, kind))
		}
	}

	export := router.Group("/export")
	{
		export.POST("/pdf", handlers.ExportPDF(deps))
		export.POST("/ipynb", handlers.ExportNotebook(deps))
	}

	router.POST("/groq/suggest", handlers.Suggest(deps))
	router.GET("/groq/tips", handlers.Tips(deps))

	router.GET("/users/history", handlers.UserHistory(deps))

	// Session administration routes
	sessions := router.Group("/sessions")
	{
		sessions.GET("", handlers.ListSessions(deps))
		sessions.DELETE("/:sessionId", handlers.DeleteSession(deps))
	}
}

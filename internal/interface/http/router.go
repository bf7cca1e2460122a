package httpapi

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	api.GET("/ping", s.handlePing)
	api.GET("/health", s.handleHealth)
	api.GET("/templates", s.handleTemplates)

	g := api.Group("/groups")
	g.GET("", s.handleListGroups)
	g.POST("", s.handleCreateGroup)
	g.GET("/:id", s.handleGetGroup)
	g.PUT("/:id/members", s.handleReplaceMembers)
	g.DELETE("/:id", s.handleDeleteGroup)
	g.GET("/:id/score-history", s.handleScoreHistory)

	api.GET("/prices", s.handlePrices)
	api.GET("/fundamentals/:symbol", s.handleFundamentals)
	api.POST("/fundamentals/refresh", s.handleFundamentalsRefresh)
	api.GET("/valuations", s.handleValuations)
	api.POST("/analyze", s.handleAnalyze)
	api.GET("/runs/:id", s.handleGetRun)
	api.GET("/runs/:id/results", s.handleRunResults)

	api.POST("/admin/refresh", s.handleRefreshNow)
}

package api

func (s *Server) setupRoutes() {
	s.router.GET("/", s.healthHandler.WorkerInfo)
	s.router.GET("/health", s.healthHandler.HealthCheck)

	process := s.router.Group("/process")
	{
		process.POST("/video", s.processHandler.ProcessVideo)
		process.POST("/cameras/:id", s.processHandler.ProcessStream)
	}

	modelsGroup := s.router.Group("/models")
	{
		modelsGroup.GET("", s.modelsHandler.ListModels)
		modelsGroup.GET("/active", s.modelsHandler.GetActiveModel)
		modelsGroup.POST("/active", s.modelsHandler.SetActiveModel)
		modelsGroup.GET("/validate", s.modelsHandler.ValidateModels)
		modelsGroup.GET("/:key/config", s.modelsHandler.GetModelConfig)
		modelsGroup.PATCH("/:key/config", s.modelsHandler.UpdateModelConfig)
	}

	cameras := s.router.Group("/cameras")
	{
		cameras.GET("", s.cameraHandler.ListCameras)
		cameras.POST("/refresh-status", s.cameraHandler.RefreshStatuses)
		cameras.GET("/:id", s.cameraHandler.GetCamera)
		cameras.GET("/:id/frame", s.cameraHandler.GetFrame)
		cameras.POST("/:id/verify", s.cameraHandler.VerifyCamera)
	}

	streams := s.router.Group("/streams")
	{
		streams.POST("/:id/start", s.streamHandler.StartStream)
		streams.POST("/:id/stop", s.streamHandler.StopStream)
		streams.GET("/:id/status", s.streamHandler.StreamStatus)
		streams.GET("/:id/files/*file", s.streamHandler.ServeStreamFile)
	}

	alerts := s.router.Group("/alerts")
	{
		alerts.GET("/:id", s.alertHandler.GetAlert)
		alerts.POST("/:id/resolve", s.alertHandler.ResolveAlert)
		alerts.PUT("/:id/notes", s.alertHandler.SetNotes)
		alerts.GET("/:id/notifications", s.alertHandler.ListNotifications)
	}
}

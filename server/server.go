package server

import (
	"net/http"
	"time"

	"recorder-server/confs"
	"recorder-server/handlers"
	httpHandler "recorder-server/handlers/http"
	"recorder-server/usecases"
	"recorder-server/ws"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	app    *gin.Engine
	cfg    *confs.Config
	logger *zap.SugaredLogger
}

func NewServer(cfg *confs.Config, useCase *usecases.DeviceUseCase, logger *zap.SugaredLogger) *Server {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		app:    gin.New(),
		cfg:    cfg,
		logger: logger,
	}
	s.setupMiddleware()
	s.setupRoutes(useCase)
	return s
}

// Handler exposes the engine, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.app
}

func (s *Server) setupMiddleware() {
	desugared := s.logger.Desugar()
	s.app.Use(ginzap.GinzapWithConfig(desugared, &ginzap.Config{
		UTC:        true,
		TimeFormat: time.RFC3339,
		SkipPaths:  []string{"/health"},
	}))

	config := cors.DefaultConfig()
	origins := s.cfg.CORSOrigins.Value()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	config.ExposeHeaders = []string{"Location"}
	s.app.Use(cors.New(config))

	s.app.Use(httpHandler.ErrorFunnel(s.logger, s.cfg.IsDevelopment()))
	s.app.Use(ginzap.CustomRecoveryWithZap(desugared, true, httpHandler.Recovered))
}

func (s *Server) setupRoutes(useCase *usecases.DeviceUseCase) {
	s.app.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "OK",
		})
	})

	deviceHandler := httpHandler.NewDeviceHandler(useCase)
	recordingHandler := httpHandler.NewRecordingHandler(useCase)
	speakerHandler := httpHandler.NewSpeakerHandler(useCase)

	manager := ws.NewManager()
	wsHandler := handlers.NewWSHandler(manager, useCase, s.logger)

	devices := s.app.Group("/devices")
	{
		devices.GET("", deviceHandler.ListDevices())
		devices.POST("", deviceHandler.CreateDevice())
		devices.GET("/connected", wsHandler.GetConnectedDevices)
		devices.GET("/settings", deviceHandler.ListSettings)
		devices.GET("/settings/:id", deviceHandler.GetSettings)
		devices.GET("/:id", deviceHandler.GetDevice)
		devices.PATCH("/:id", deviceHandler.UpdateDevice())
		devices.DELETE("/:id", deviceHandler.DeleteDevice)
		devices.GET("/:id/settings", deviceHandler.GetDeviceSettings)
		devices.PUT("/:id/settings", deviceHandler.UpdateDeviceSettings())
		devices.GET("/:id/recordings", deviceHandler.GetDeviceRecordings)
		devices.GET("/:id/speakers", deviceHandler.GetDeviceSpeakers)
	}

	recordings := s.app.Group("/recordings")
	{
		recordings.GET("", recordingHandler.ListRecordings())
		recordings.POST("", recordingHandler.CreateRecording())
		recordings.GET("/:id", recordingHandler.GetRecording)
		recordings.PATCH("/:id", recordingHandler.UpdateRecording())
		recordings.DELETE("/:id", recordingHandler.DeleteRecording)
	}

	speakers := s.app.Group("/speakers")
	{
		speakers.GET("", speakerHandler.ListSpeakers())
		speakers.POST("", speakerHandler.CreateSpeaker())
		speakers.GET("/:id", speakerHandler.GetSpeaker)
		speakers.GET("/:id/recordings", speakerHandler.GetSpeakerRecordings)
		speakers.PATCH("/:id", speakerHandler.UpdateSpeaker())
		speakers.PUT("/:id", speakerHandler.UpdateSpeaker())
		speakers.DELETE("/:id", speakerHandler.DeleteSpeaker)
	}

	s.app.GET("/ws", wsHandler.HandleDeviceWS)

	s.app.NoRoute(func(c *gin.Context) {
		_ = c.Error(httpHandler.NotFound(http.StatusText(http.StatusNotFound)))
	})
}

// Start serves until the listener fails.
func (s *Server) Start() error {
	s.logger.Infow("listening", "addr", s.cfg.ListenAddr, "env", s.cfg.Env)
	return s.app.Run(s.cfg.ListenAddr)
}

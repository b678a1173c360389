package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iulianpascalau/container-dashboard/services/dashboard/timewindow"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("api")

// ViewParamsPayload represents the incoming JSON body on PUT /api/view/params.
// Every field is optional; only the present ones are applied.
type ViewParamsPayload struct {
	TimeRange              *string  `json:"time_range"`
	CustomStart            *string  `json:"custom_start"`
	CustomEnd              *string  `json:"custom_end"`
	Containers             []string `json:"containers"`
	SelectedMetric         *string  `json:"selected_metric"`
	PredictionsEnabled     *bool    `json:"predictions_enabled"`
	AutoRefresh            *bool    `json:"auto_refresh"`
	RefreshIntervalSeconds *int     `json:"refresh_interval_seconds"`
}

// ArgsWebServer defines the web server arguments
type ArgsWebServer struct {
	ListenAddress  string
	View           View
	Connection     ConnectionStateProvider
	GeneralHandler func(http.Handler) http.Handler
}

type server struct {
	router         *gin.Engine
	httpServer     *http.Server
	view           View
	connection     ConnectionStateProvider
	listenAddr     string
	generalHandler func(http.Handler) http.Handler
	wg             sync.WaitGroup
}

// NewServer initializes the Gin engine and mounts all routes
func NewServer(args ArgsWebServer) (*server, error) {
	if check.IfNil(args.View) {
		return nil, errors.New("nil view")
	}
	if check.IfNil(args.Connection) {
		return nil, errors.New("nil connection state provider")
	}
	if args.GeneralHandler == nil {
		return nil, errors.New("nil http handler")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &server{
		router:         router,
		view:           args.View,
		connection:     args.Connection,
		listenAddr:     args.ListenAddress,
		generalHandler: args.GeneralHandler,
	}

	s.setupRoutes()
	return s, nil
}

func (s *server) setupRoutes() {
	view := s.router.Group("/api/view")

	view.GET("/snapshot", s.handleGetSnapshot)
	view.GET("/status", s.handleGetStatus)
	view.GET("/history", s.handleGetHistory)
	view.POST("/refresh", s.handleRefresh)
	view.PUT("/params", s.handleSetParams)
}

// Start listens and serves connections
func (s *server) Start() {
	handler := s.generalHandler(s.router)

	s.httpServer = &http.Server{
		Addr:    s.listenAddr,
		Handler: handler,
	}

	ln, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		log.Error("failed to listen", "error", err)
		return
	}
	s.listenAddr = ln.Addr().String()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		log.Info("starting HTTP server", "address", s.listenAddr)

		err := s.httpServer.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "error", err)
		}
	}()
}

// Address returns the actual listen address
func (s *server) Address() string {
	return s.listenAddr
}

// Close gracefully stops the server
func (s *server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return err
		}
	}
	s.wg.Wait()

	return nil
}

// --- Handlers ---

func (s *server) handleGetSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, s.view.Snapshot())
}

func (s *server) handleGetStatus(c *gin.Context) {
	status := s.view.Status()
	c.JSON(http.StatusOK, gin.H{
		"state":      status.State,
		"loading":    status.Loading,
		"errors":     status.Errors,
		"connection": s.connection.ConnectionState(),
	})
}

func (s *server) handleGetHistory(c *gin.Context) {
	samples, err := s.view.History(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"metrics": samples})
}

func (s *server) handleRefresh(c *gin.Context) {
	s.view.Refresh()
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *server) handleSetParams(c *gin.Context) {
	var payload ViewParamsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if payload.TimeRange != nil {
		customStart, err := parseOptionalTime(payload.CustomStart)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid custom_start"})
			return
		}
		customEnd, err := parseOptionalTime(payload.CustomEnd)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid custom_end"})
			return
		}

		s.view.SetTimeRange(timewindow.Mode(*payload.TimeRange), customStart, customEnd)
	}
	if payload.Containers != nil {
		s.view.SetContainers(payload.Containers)
	}
	if payload.SelectedMetric != nil {
		s.view.SetSelectedMetric(*payload.SelectedMetric)
	}
	if payload.PredictionsEnabled != nil {
		s.view.SetPredictionsEnabled(*payload.PredictionsEnabled)
	}
	if payload.AutoRefresh != nil {
		interval := time.Duration(0)
		if payload.RefreshIntervalSeconds != nil {
			interval = time.Duration(*payload.RefreshIntervalSeconds) * time.Second
		}
		s.view.SetAutoRefresh(*payload.AutoRefresh, interval)
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func parseOptionalTime(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}

	ts, err := time.Parse(time.RFC3339, *value)
	if err != nil {
		return nil, err
	}

	return &ts, nil
}

// CORSMiddleware allows the frontend dev server to reach the engine
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

package factory

import (
	"net/url"
	"time"

	"github.com/iulianpascalau/container-dashboard/services/dashboard/api"
	"github.com/iulianpascalau/container-dashboard/services/dashboard/bridge"
	"github.com/iulianpascalau/container-dashboard/services/dashboard/config"
	"github.com/iulianpascalau/container-dashboard/services/dashboard/query"
	"github.com/iulianpascalau/container-dashboard/services/dashboard/scheduler"
	"github.com/iulianpascalau/container-dashboard/services/dashboard/timewindow"
)

type componentsHandler struct {
	sched  Scheduler
	bridge Bridge
	server Server
}

// NewComponentsHandler wires the query client, the view scheduler, the live
// update bridge and the API server from the loaded configuration
func NewComponentsHandler(cfg config.Config, sessionKey string) (*componentsHandler, error) {
	querier := query.NewHTTPQuerier(
		cfg.QueryService.BaseURL,
		time.Duration(cfg.QueryService.TimeoutInSeconds)*time.Second,
	)

	sched, err := scheduler.NewViewScheduler(scheduler.ArgsViewScheduler{
		Querier:            querier,
		ContainerIDs:       cfg.View.ContainerIDs,
		TimeRange:          timewindow.Mode(cfg.View.TimeRange),
		SelectedMetric:     cfg.View.SelectedMetric,
		PredictionsEnabled: cfg.View.PredictionsEnabled,
		PredictionHours:    cfg.View.PredictionHours,
		AutoRefresh:        cfg.View.AutoRefreshEnabled,
		RefreshInterval:    time.Duration(cfg.View.RefreshIntervalInSeconds) * time.Second,
	})
	if err != nil {
		return nil, err
	}

	liveBridge, err := bridge.NewLiveUpdateBridge(bridge.ArgsLiveUpdateBridge{
		Endpoint:     deriveLiveEndpoint(cfg.LiveUpdate, sessionKey),
		View:         sched,
		ContainerIDs: cfg.View.ContainerIDs,
		Options: bridge.SubscribeOptions{
			IncludeHealthScores:     cfg.LiveUpdate.IncludeHealthScores,
			IncludePredictions:      cfg.LiveUpdate.IncludePredictions,
			IncludeAlerts:           cfg.LiveUpdate.IncludeAlerts,
			UpdateIntervalInSeconds: cfg.LiveUpdate.UpdateIntervalInSeconds,
		},
		ReconnectBase: time.Duration(cfg.LiveUpdate.ReconnectBaseInSeconds) * time.Second,
		ReconnectMax:  time.Duration(cfg.LiveUpdate.ReconnectMaxInSeconds) * time.Second,
	})
	if err != nil {
		return nil, err
	}

	server, err := api.NewServer(api.ArgsWebServer{
		ListenAddress:  cfg.ListenAddress,
		View:           sched,
		Connection:     liveBridge,
		GeneralHandler: api.CORSMiddleware,
	})
	if err != nil {
		return nil, err
	}

	return &componentsHandler{
		sched:  sched,
		bridge: liveBridge,
		server: server,
	}, nil
}

// deriveLiveEndpoint returns the session-scoped push channel URL, or empty
// when the channel is disabled or no session identity is available. An empty
// endpoint keeps the bridge disconnected and the view polling-only.
func deriveLiveEndpoint(cfg config.LiveUpdateConfig, sessionKey string) string {
	if !cfg.Enabled || cfg.Endpoint == "" || sessionKey == "" {
		return ""
	}

	return cfg.Endpoint + "?session=" + url.QueryEscape(sessionKey)
}

// GetScheduler returns the view scheduler component
func (ch *componentsHandler) GetScheduler() Scheduler {
	return ch.sched
}

// GetBridge returns the live update bridge component
func (ch *componentsHandler) GetBridge() Bridge {
	return ch.bridge
}

// GetServer returns the server component
func (ch *componentsHandler) GetServer() Server {
	return ch.server
}

// Start starts the inner components
func (ch *componentsHandler) Start() {
	ch.sched.Start()
	ch.bridge.Start()
	ch.server.Start()
}

// Close closes the inner components
func (ch *componentsHandler) Close() {
	_ = ch.server.Close()
	ch.bridge.Close()
	ch.sched.Close()
}

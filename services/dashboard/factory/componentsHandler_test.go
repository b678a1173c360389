package factory

import (
	"fmt"
	"testing"

	"github.com/iulianpascalau/container-dashboard/services/dashboard/config"
	"github.com/stretchr/testify/assert"
)

func testConfig() config.Config {
	return config.Config{
		ListenAddress: "0.0.0.0:0",
		QueryService: config.QueryServiceConfig{
			BaseURL:          "http://localhost:5000",
			TimeoutInSeconds: 10,
		},
		View: config.ViewConfig{
			ContainerIDs:             []string{"web-1"},
			TimeRange:                "24h",
			SelectedMetric:           "cpu_percent",
			RefreshIntervalInSeconds: 30,
		},
		LiveUpdate: config.LiveUpdateConfig{
			Enabled:  true,
			Endpoint: "ws://localhost:5000/ws",
		},
	}
}

func TestNewComponentsHandler(t *testing.T) {
	t.Parallel()

	handler, err := NewComponentsHandler(testConfig(), "session-key")

	assert.NotNil(t, handler)
	assert.Nil(t, err)

	handler.Close()
}

func TestComponentsHandlerMethods(t *testing.T) {
	t.Parallel()

	handler, _ := NewComponentsHandler(testConfig(), "")

	handler.Start()

	sched := handler.GetScheduler()
	assert.Equal(t, "*scheduler.viewScheduler", fmt.Sprintf("%T", sched))

	liveBridge := handler.GetBridge()
	assert.Equal(t, "*bridge.liveUpdateBridge", fmt.Sprintf("%T", liveBridge))

	serv := handler.GetServer()
	assert.Equal(t, "*api.server", fmt.Sprintf("%T", serv))

	handler.Close()
}

func TestDeriveLiveEndpoint(t *testing.T) {
	t.Parallel()

	cfg := config.LiveUpdateConfig{
		Enabled:  true,
		Endpoint: "ws://localhost:5000/ws",
	}

	assert.Equal(t, "ws://localhost:5000/ws?session=abc", deriveLiveEndpoint(cfg, "abc"))
	assert.Equal(t, "ws://localhost:5000/ws?session=a%2Fb", deriveLiveEndpoint(cfg, "a/b"))
	assert.Equal(t, "", deriveLiveEndpoint(cfg, ""))

	cfg.Enabled = false
	assert.Equal(t, "", deriveLiveEndpoint(cfg, "abc"))

	cfg.Enabled = true
	cfg.Endpoint = ""
	assert.Equal(t, "", deriveLiveEndpoint(cfg, "abc"))
}

package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/iulianpascalau/container-dashboard/services/dashboard/common"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("bridge")

const defaultReconnectBase = time.Second
const defaultReconnectMax = 30 * time.Second

// SubscribeOptions mirrors the live channel's subscription option envelope
type SubscribeOptions struct {
	IncludeHealthScores     bool `json:"include_health_scores"`
	IncludePredictions      bool `json:"include_predictions"`
	IncludeAlerts           bool `json:"include_alerts"`
	UpdateIntervalInSeconds int  `json:"update_interval"`
}

type subscribeMessage struct {
	Type         string           `json:"type"`
	ContainerIDs []string         `json:"container_ids"`
	Options      SubscribeOptions `json:"options"`
}

// ArgsLiveUpdateBridge holds the arguments for creating a live update bridge
type ArgsLiveUpdateBridge struct {
	// Endpoint is the ws(s) URL derived from the session identity. An empty
	// endpoint keeps the bridge disconnected and the view polling-only.
	Endpoint      string
	View          View
	ContainerIDs  []string
	Options       SubscribeOptions
	ReconnectBase time.Duration
	ReconnectMax  time.Duration
}

// liveUpdateBridge manages the push-channel connection lifecycle and folds
// accepted updates into the view without disturbing user-selected parameters
type liveUpdateBridge struct {
	endpoint      string
	view          View
	containerIDs  []string
	options       SubscribeOptions
	reconnectBase time.Duration
	reconnectMax  time.Duration

	mutCancel sync.Mutex
	cancel    func()
	runDone   chan struct{}

	mutState sync.RWMutex
	state    common.ConnectionState
}

// NewLiveUpdateBridge creates a new live update bridge
func NewLiveUpdateBridge(args ArgsLiveUpdateBridge) (*liveUpdateBridge, error) {
	if check.IfNil(args.View) {
		return nil, errors.New("nil view")
	}
	if args.ReconnectBase <= 0 {
		args.ReconnectBase = defaultReconnectBase
	}
	if args.ReconnectMax < args.ReconnectBase {
		args.ReconnectMax = defaultReconnectMax
	}

	return &liveUpdateBridge{
		endpoint:      args.Endpoint,
		view:          args.View,
		containerIDs:  append([]string(nil), args.ContainerIDs...),
		options:       args.Options,
		reconnectBase: args.ReconnectBase,
		reconnectMax:  args.ReconnectMax,
		state:         common.ConnectionDisconnected,
	}, nil
}

// Start opens the connection loop. With no endpoint available the bridge
// stays disconnected and the view relies solely on the refresh scheduler.
func (b *liveUpdateBridge) Start() {
	b.mutCancel.Lock()
	defer b.mutCancel.Unlock()

	if b.cancel != nil {
		return
	}
	if b.endpoint == "" {
		log.Debug("no live-update endpoint available, staying disconnected")
		return
	}

	var ctx context.Context
	ctx, b.cancel = context.WithCancel(context.Background())
	b.runDone = make(chan struct{})

	go b.run(ctx)
}

// Close tears the connection down, stops the reconnection backoff and waits
// for the run loop to exit; the connection state is final once it returns
func (b *liveUpdateBridge) Close() {
	b.mutCancel.Lock()
	defer b.mutCancel.Unlock()

	if b.cancel == nil {
		return
	}

	b.cancel()
	b.cancel = nil
	<-b.runDone
}

// ConnectionState returns the current connectivity state
func (b *liveUpdateBridge) ConnectionState() common.ConnectionState {
	b.mutState.RLock()
	defer b.mutState.RUnlock()

	return b.state
}

func (b *liveUpdateBridge) setState(state common.ConnectionState) {
	b.mutState.Lock()
	b.state = state
	b.mutState.Unlock()
}

// run dials, subscribes and reads until the connection drops, then retries
// with bounded exponential backoff. It never spin-reconnects without delay.
func (b *liveUpdateBridge) run(ctx context.Context) {
	defer close(b.runDone)

	backoff := b.reconnectBase

	for {
		b.setState(common.ConnectionConnecting)

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, b.endpoint, nil)
		if err != nil {
			b.setState(common.ConnectionDisconnected)
			if ctx.Err() != nil {
				return
			}

			log.Warn("live-update connection failed", "endpoint", b.endpoint, "retry_in", backoff, "error", err)
			if !sleepWithContext(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff, b.reconnectMax)
			continue
		}

		err = b.subscribe(conn)
		if err != nil {
			log.Warn("subscribe failed", "error", err)
			_ = conn.Close()
			b.setState(common.ConnectionDisconnected)
			if !sleepWithContext(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff, b.reconnectMax)
			continue
		}

		b.setState(common.ConnectionConnected)
		backoff = b.reconnectBase
		log.Debug("live-update channel connected", "endpoint", b.endpoint)

		b.readLoop(ctx, conn)

		// disconnection does not clear already-rendered data; the view keeps
		// the last good snapshot and falls back to polling-only freshness
		_ = conn.Close()
		b.setState(common.ConnectionDisconnected)

		if ctx.Err() != nil {
			return
		}
		if !sleepWithContext(ctx, backoff) {
			return
		}
		backoff = nextBackoff(backoff, b.reconnectMax)
	}
}

func (b *liveUpdateBridge) subscribe(conn *websocket.Conn) error {
	message := subscribeMessage{
		Type:         "subscribe",
		ContainerIDs: b.containerIDs,
		Options:      b.options,
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}

	return conn.WriteMessage(websocket.TextMessage, payload)
}

func (b *liveUpdateBridge) readLoop(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Debug("live-update channel closed", "error", err)
			}
			return
		}

		b.handleMessage(payload)
	}
}

// handleMessage parses one inbound envelope. A malformed message is logged
// and discarded without transitioning state or propagating anywhere.
func (b *liveUpdateBridge) handleMessage(payload []byte) {
	event, err := parseEvent(payload)
	if err != nil {
		log.Warn("discarding malformed live-update message", "error", err)
		return
	}

	switch event.Type {
	case common.EventMetricsUpdate, common.EventAlertTriggered:
		b.view.ApplyLiveUpdate(event)
		// the partial payload is not trusted alone: request a full refresh
		// to stay consistent with the query service's authoritative state
		b.view.Refresh()
	case common.EventEnhancedMetricsUpdate:
		b.view.ApplyLiveUpdate(event)
	default:
		log.Debug("ignoring unrecognized live-update event", "type", event.Type)
	}
}

func sleepWithContext(ctx context.Context, duration time.Duration) bool {
	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func nextBackoff(current time.Duration, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		return max
	}

	return next
}

// IsInterfaceNil returns true if the value under the interface is nil
func (b *liveUpdateBridge) IsInterfaceNil() bool {
	return b == nil
}

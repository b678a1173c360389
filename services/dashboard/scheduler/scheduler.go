package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iulianpascalau/container-dashboard/services/dashboard/assembler"
	"github.com/iulianpascalau/container-dashboard/services/dashboard/common"
	"github.com/iulianpascalau/container-dashboard/services/dashboard/ranker"
	"github.com/iulianpascalau/container-dashboard/services/dashboard/timewindow"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("scheduler")

type viewParams struct {
	mode               timewindow.Mode
	customStart        *time.Time
	customEnd          *time.Time
	containers         []string
	selectedMetric     string
	predictionsEnabled bool
	predictionHours    int
	autoRefresh        bool
	refreshInterval    time.Duration
}

// fetchCycle accumulates the results of one coordinated fetch. Every cycle
// carries the id of the parameter set that triggered it; results arriving
// for a superseded id are discarded on arrival.
type fetchCycle struct {
	id             uint64
	window         timewindow.Window
	comparisonMode bool
	paramsChanged  bool
	containerID    string
	expected       int
	received       int
	enhanced       *common.EnhancedMetrics
	health         *common.HealthScore
	predictions    *common.PredictionBundle
	comparison     *common.ComparisonResult
	primaryFailed  bool
}

type queryResult struct {
	cycleID     uint64
	kind        string
	enhanced    *common.EnhancedMetrics
	health      *common.HealthScore
	predictions *common.PredictionBundle
	comparison  *common.ComparisonResult
	err         error
}

type windowResolution struct {
	window timewindow.Window
	err    error
}

var errSchedulerClosed = errors.New("scheduler is closed")

// ArgsViewScheduler holds the arguments for creating a view scheduler
type ArgsViewScheduler struct {
	Querier            Querier
	ContainerIDs       []string
	TimeRange          timewindow.Mode
	SelectedMetric     string
	PredictionsEnabled bool
	PredictionHours    int
	AutoRefresh        bool
	RefreshInterval    time.Duration
}

// viewScheduler owns the polling/auto-refresh timer and the in-flight fetch
// lifecycle of one mounted view. All loop-owned state is touched only by the
// single event-loop goroutine; commands from the render boundary and results
// from query goroutines are serialized through channels.
type viewScheduler struct {
	querier Querier

	commands chan func()
	results  chan queryResult

	ctx       context.Context
	mutCancel sync.Mutex
	cancel    func()
	loopDone  chan struct{}

	// loop-owned, never accessed outside the loop goroutine
	params   viewParams
	cycle    uint64
	inflight *fetchCycle
	timer    *time.Timer

	// published state, guarded by mut
	mut     sync.RWMutex
	model   common.RenderModel
	state   common.ViewState
	loading map[string]bool
	errs    map[string]string
}

// NewViewScheduler creates a scheduler for one mounted view
func NewViewScheduler(args ArgsViewScheduler) (*viewScheduler, error) {
	if check.IfNil(args.Querier) {
		return nil, errors.New("nil querier")
	}
	if args.RefreshInterval <= 0 {
		args.RefreshInterval = 30 * time.Second
	}
	if args.PredictionHours <= 0 {
		args.PredictionHours = 6
	}
	if args.TimeRange == "" {
		args.TimeRange = timewindow.Mode24h
	}
	if args.SelectedMetric == "" {
		args.SelectedMetric = common.MetricCPUPercent
	}

	return &viewScheduler{
		querier:  args.Querier,
		commands: make(chan func()),
		results:  make(chan queryResult),
		loopDone: make(chan struct{}),
		params: viewParams{
			mode:               args.TimeRange,
			containers:         append([]string(nil), args.ContainerIDs...),
			selectedMetric:     args.SelectedMetric,
			predictionsEnabled: args.PredictionsEnabled,
			predictionHours:    args.PredictionHours,
			autoRefresh:        args.AutoRefresh,
			refreshInterval:    args.RefreshInterval,
		},
		state:   common.ViewStateIdle,
		loading: make(map[string]bool),
		errs:    make(map[string]string),
	}, nil
}

// Start launches the event loop and triggers the mount fetch
func (s *viewScheduler) Start() {
	s.mutCancel.Lock()
	if s.cancel != nil {
		s.mutCancel.Unlock()
		return
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.loopDone = make(chan struct{})
	go s.loop(s.ctx)
	s.mutCancel.Unlock()

	s.post(func() {
		if s.params.autoRefresh {
			s.resetTimer()
		}
		s.startCycle(false)
	})
}

// Close stops the event loop and all timers. No state is mutated afterwards;
// in-flight query results are abandoned (soft cancellation).
func (s *viewScheduler) Close() {
	s.mutCancel.Lock()
	defer s.mutCancel.Unlock()

	if s.cancel == nil {
		return
	}

	s.cancel()
	s.cancel = nil
	<-s.loopDone
}

func (s *viewScheduler) loop(ctx context.Context) {
	defer close(s.loopDone)

	for {
		var timerC <-chan time.Time
		if s.timer != nil {
			timerC = s.timer.C
		}

		select {
		case cmd := <-s.commands:
			cmd()
		case res := <-s.results:
			s.handleResult(res)
		case <-timerC:
			log.Debug("auto-refresh tick")
			s.startCycle(false)
			if s.params.autoRefresh {
				s.timer.Reset(s.params.refreshInterval)
			}
		case <-ctx.Done():
			s.stopTimer()
			return
		}
	}
}

// post serializes a command into the loop; a closed scheduler drops it
func (s *viewScheduler) post(cmd func()) {
	s.mutCancel.Lock()
	ctx := s.ctx
	s.mutCancel.Unlock()
	if ctx == nil {
		return
	}

	select {
	case s.commands <- cmd:
	case <-ctx.Done():
	}
}

func (s *viewScheduler) currentCtx() context.Context {
	s.mutCancel.Lock()
	defer s.mutCancel.Unlock()

	return s.ctx
}

func (s *viewScheduler) deliver(ctx context.Context, res queryResult) {
	select {
	case s.results <- res:
	case <-ctx.Done():
	}
}

// startCycle issues all required queries for the current parameter set
// concurrently. An unresolved custom window issues no query at all.
// paramsChanged marks cycles triggered by a parameter change, where the old
// snapshot must not survive even a failed fetch.
func (s *viewScheduler) startCycle(paramsChanged bool) {
	window, err := timewindow.Resolve(s.params.mode, s.params.customStart, s.params.customEnd)
	if errors.Is(err, timewindow.ErrUnresolvedWindow) {
		log.Debug("time window not resolved, no query issued")
		return
	}
	if err != nil {
		log.Warn("cannot resolve time window", "mode", s.params.mode, "error", err)
		return
	}

	s.cycle++
	cycle := &fetchCycle{
		id:            s.cycle,
		window:        window,
		paramsChanged: paramsChanged,
	}
	s.inflight = cycle

	s.mut.Lock()
	s.state = common.ViewStateFetching
	s.loading = make(map[string]bool)
	s.errs = make(map[string]string)
	s.mut.Unlock()

	if len(s.params.containers) > 1 {
		s.startComparisonQueries(cycle)
		return
	}

	s.startSingleContainerQueries(cycle)
}

func (s *viewScheduler) startComparisonQueries(cycle *fetchCycle) {
	cycle.comparisonMode = true
	cycle.expected = 1
	s.setLoading(common.QueryComparison)

	ids := append([]string(nil), s.params.containers...)
	ctx := s.currentCtx()
	go func(cycleID uint64) {
		result, err := s.querier.Comparison(ctx, ids)
		s.deliver(ctx, queryResult{cycleID: cycleID, kind: common.QueryComparison, comparison: result, err: err})
	}(cycle.id)
}

func (s *viewScheduler) startSingleContainerQueries(cycle *fetchCycle) {
	if len(s.params.containers) == 1 {
		cycle.containerID = s.params.containers[0]
	}

	cycle.expected = 2
	s.setLoading(common.QueryMetrics, common.QueryHealth)

	mode := string(cycle.window.Mode)
	hours := cycle.window.Hours
	ctx := s.currentCtx()

	go func(cycleID uint64) {
		enhanced, err := s.querier.Visualization(ctx, mode, hours)
		s.deliver(ctx, queryResult{cycleID: cycleID, kind: common.QueryMetrics, enhanced: enhanced, err: err})
	}(cycle.id)

	go func(cycleID uint64) {
		health, err := s.querier.HealthScore(ctx, hours)
		s.deliver(ctx, queryResult{cycleID: cycleID, kind: common.QueryHealth, health: health, err: err})
	}(cycle.id)

	// skipping predictions here is a policy decision, not a missing-data condition
	if !s.params.predictionsEnabled {
		return
	}

	cycle.expected++
	s.setLoading(common.QueryPredictions)
	predictionHours := s.params.predictionHours

	go func(cycleID uint64) {
		predictions, err := s.querier.Predictions(ctx, hours, predictionHours)
		s.deliver(ctx, queryResult{cycleID: cycleID, kind: common.QueryPredictions, predictions: predictions, err: err})
	}(cycle.id)
}

// handleResult applies one query result, enforcing the staleness guard:
// results belonging to a superseded cycle are discarded on arrival so a slow
// old request can never overwrite a newer selection's data.
func (s *viewScheduler) handleResult(res queryResult) {
	if s.inflight == nil || res.cycleID != s.inflight.id {
		log.Debug("discarding stale query result", "cycle", res.cycleID, "kind", res.kind)
		return
	}

	cycle := s.inflight
	cycle.received++

	s.mut.Lock()
	delete(s.loading, res.kind)
	if res.err != nil {
		s.errs[res.kind] = res.err.Error()
	}
	s.mut.Unlock()

	if res.err != nil {
		log.Warn("query failed", "kind", res.kind, "error", res.err)
		if res.kind == common.QueryMetrics || res.kind == common.QueryComparison {
			cycle.primaryFailed = true
		}
	} else {
		switch res.kind {
		case common.QueryMetrics:
			cycle.enhanced = res.enhanced
		case common.QueryHealth:
			cycle.health = res.health
		case common.QueryPredictions:
			cycle.predictions = res.predictions
		case common.QueryComparison:
			cycle.comparison = res.comparison
		}
	}

	if cycle.received < cycle.expected {
		return
	}

	s.settle(cycle)
}

// settle replaces the published snapshot wholesale with the cycle's results.
// A failed refresh of an unchanged parameter set keeps the last good snapshot
// so the user sees stale data plus the error, not a blank view; a failed
// cycle triggered by a parameter change wipes it, because no snapshot
// survives a parameter change.
func (s *viewScheduler) settle(cycle *fetchCycle) {
	s.inflight = nil

	if cycle.primaryFailed && !cycle.paramsChanged {
		s.mut.Lock()
		s.state = common.ViewStateFailed
		s.mut.Unlock()

		log.Debug("fetch cycle failed, keeping last good snapshot", "cycle", cycle.id)
		return
	}

	var model common.RenderModel
	if cycle.comparisonMode {
		snapshot := assembler.AssembleComparison(cycle.comparison)
		model = common.RenderModel{Comparison: snapshot}
		model.Ranking = s.rankComparison(snapshot)
	} else {
		model = assembler.AssembleSingle(cycle.containerID, cycle.enhanced, cycle.health, cycle.predictions)
	}

	newState := common.ViewStateSettled
	if cycle.primaryFailed {
		newState = common.ViewStateFailed
	}

	s.mut.Lock()
	s.model = model
	s.state = newState
	s.mut.Unlock()

	log.Debug("fetch cycle settled", "cycle", cycle.id, "state", newState)
}

func (s *viewScheduler) rankComparison(snapshot *common.ComparisonSnapshot) []common.ContainerSnapshot {
	if snapshot == nil || len(snapshot.PerContainer) == 0 {
		return nil
	}

	entries := make([]common.ContainerSnapshot, 0, len(snapshot.PerContainer))
	for _, entry := range snapshot.PerContainer {
		entries = append(entries, entry)
	}

	return ranker.Rank(entries, s.params.selectedMetric)
}

func (s *viewScheduler) setLoading(kinds ...string) {
	s.mut.Lock()
	for _, kind := range kinds {
		s.loading[kind] = true
	}
	s.mut.Unlock()
}

func (s *viewScheduler) resetTimer() {
	s.stopTimer()
	s.timer = time.NewTimer(s.params.refreshInterval)
}

func (s *viewScheduler) stopTimer() {
	if s.timer == nil {
		return
	}

	s.timer.Stop()
	s.timer = nil
}

// --- render boundary ---

// Snapshot returns a copy of the current render model
func (s *viewScheduler) Snapshot() common.RenderModel {
	s.mut.RLock()
	defer s.mut.RUnlock()

	model := s.model
	if model.Comparison != nil {
		perContainer := make(map[string]common.ContainerSnapshot, len(model.Comparison.PerContainer))
		for id, entry := range model.Comparison.PerContainer {
			perContainer[id] = entry
		}
		comparison := *model.Comparison
		comparison.PerContainer = perContainer
		model.Comparison = &comparison
	}

	return model
}

// Status returns the per-query loading and error state
func (s *viewScheduler) Status() common.ViewStatus {
	s.mut.RLock()
	defer s.mut.RUnlock()

	loading := make(map[string]bool, len(s.loading))
	for k, v := range s.loading {
		loading[k] = v
	}
	errs := make(map[string]string, len(s.errs))
	for k, v := range s.errs {
		errs[k] = v
	}

	return common.ViewStatus{
		State:   s.state,
		Loading: loading,
		Errors:  errs,
	}
}

// History fetches the raw samples of the currently selected window on
// demand. The window is resolved on the loop goroutine so the read is
// consistent with the parameter set; the query itself runs on the caller.
func (s *viewScheduler) History(ctx context.Context) ([]common.MetricSample, error) {
	schedCtx := s.currentCtx()
	if schedCtx == nil {
		return nil, errSchedulerClosed
	}

	resolutions := make(chan windowResolution, 1)
	s.post(func() {
		window, err := timewindow.Resolve(s.params.mode, s.params.customStart, s.params.customEnd)
		resolutions <- windowResolution{window: window, err: err}
	})

	select {
	case resolution := <-resolutions:
		if resolution.err != nil {
			return nil, resolution.err
		}

		return s.querier.History(ctx, resolution.window.Hours, resolution.window.SampleLimit)
	case <-schedCtx.Done():
		return nil, errSchedulerClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Refresh re-issues the coordinated fetch immediately. It is idempotent per
// invocation: a repeated call supersedes the previous cycle, it never queues.
func (s *viewScheduler) Refresh() {
	s.post(func() {
		s.startCycle(false)
	})
}

// SetTimeRange changes the symbolic range. Switching away from custom clears
// any previously chosen custom bounds so they are never silently reused.
func (s *viewScheduler) SetTimeRange(mode timewindow.Mode, customStart *time.Time, customEnd *time.Time) {
	s.post(func() {
		s.params.mode = mode
		if mode == timewindow.ModeCustom {
			s.params.customStart = customStart
			s.params.customEnd = customEnd
		} else {
			s.params.customStart = nil
			s.params.customEnd = nil
		}

		s.startCycle(true)
	})
}

// SetContainers replaces the selected container set and refetches; the old
// snapshot does not survive the identity change
func (s *viewScheduler) SetContainers(containerIDs []string) {
	ids := append([]string(nil), containerIDs...)
	s.post(func() {
		s.params.containers = ids
		s.startCycle(true)
	})
}

// SetSelectedMetric re-ranks the already-held comparison snapshot without
// re-fetching any data
func (s *viewScheduler) SetSelectedMetric(metric string) {
	s.post(func() {
		s.params.selectedMetric = metric

		s.mut.Lock()
		if s.model.Comparison != nil {
			s.model.Ranking = s.rankComparison(s.model.Comparison)
		}
		s.mut.Unlock()
	})
}

// SetPredictionsEnabled toggles the predictions queries. Toggling off clears
// any previously rendered predictions and alerts right away.
func (s *viewScheduler) SetPredictionsEnabled(enabled bool) {
	s.post(func() {
		if s.params.predictionsEnabled == enabled {
			return
		}

		s.params.predictionsEnabled = enabled
		if !enabled {
			s.mut.Lock()
			s.model.Predictions = nil
			s.model.Alerts = nil
			delete(s.errs, common.QueryPredictions)
			delete(s.loading, common.QueryPredictions)
			s.mut.Unlock()
		}

		s.startCycle(true)
	})
}

// SetAutoRefresh tears down and recreates the timer so exactly one timer is
// live at a time per view
func (s *viewScheduler) SetAutoRefresh(enabled bool, interval time.Duration) {
	s.post(func() {
		if interval > 0 {
			s.params.refreshInterval = interval
		}
		s.params.autoRefresh = enabled

		if enabled {
			s.resetTimer()
		} else {
			s.stopTimer()
		}
	})
}

// ApplyLiveUpdate folds a push event into the current snapshot without
// disturbing the user-selected parameters. A patch arriving while a cycle is
// in flight applies to the previous snapshot and is superseded cleanly when
// the cycle settles.
func (s *viewScheduler) ApplyLiveUpdate(event common.LiveUpdateEvent) {
	s.post(func() {
		s.mut.Lock()
		assembler.MergeLiveUpdate(&s.model, event)
		// a patched comparison entry can change the ordering, so the ranking
		// is rebuilt together with the merge
		if s.model.Comparison != nil {
			s.model.Ranking = s.rankComparison(s.model.Comparison)
		}
		s.mut.Unlock()
	})
}

// IsInterfaceNil returns true if the value under the interface is nil
func (s *viewScheduler) IsInterfaceNil() bool {
	return s == nil
}

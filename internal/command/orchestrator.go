package command

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/radio-control/cellinfo/internal/acquire"
	"github.com/radio-control/cellinfo/internal/adapter"
	"github.com/radio-control/cellinfo/internal/audit"
	"github.com/radio-control/cellinfo/internal/augment"
	"github.com/radio-control/cellinfo/internal/capability"
	"github.com/radio-control/cellinfo/internal/cell"
	"github.com/radio-control/cellinfo/internal/extract"
	"github.com/radio-control/cellinfo/internal/metrics"
	"github.com/radio-control/cellinfo/internal/platform"
	"github.com/radio-control/cellinfo/internal/telemetry"
)

var emptyArray = json.RawMessage("[]")

// Result is the outcome of one successful call.
type Result struct {
	// Body is the rendered JSON array; never null.
	Body     json.RawMessage
	Records  int
	Path     acquire.Path
	Platform string
}

// Orchestrator routes cell info calls to the active platform adapter.
type Orchestrator struct {
	platforms *platform.Manager
	extractor *extract.Extractor
	augmenter *augment.Augmenter

	// Gate is evaluated in addition to the platform's own permission check.
	gate capability.Gate

	liveTimeout time.Duration

	auditLogger AuditLogger
	publisher   Publisher
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// Compile-time assertion that Orchestrator implements OrchestratorPort
var _ OrchestratorPort = (*Orchestrator)(nil)

// NewOrchestrator creates an orchestrator over platforms. Augmentation is
// enabled by default.
func NewOrchestrator(platforms *platform.Manager, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		platforms: platforms,
		extractor: extract.New(logger),
		augmenter: augment.New(logger),
		logger:    logger,
	}
}

// SetGate sets an additional capability gate.
func (o *Orchestrator) SetGate(g capability.Gate) { o.gate = g }

// SetAugment enables or disables the augmentation pass.
func (o *Orchestrator) SetAugment(enabled bool) {
	if enabled {
		o.augmenter = augment.New(o.logger)
		return
	}
	o.augmenter = nil
}

// SetLiveTimeout bounds the live callback wait; zero leaves it to the
// platform and the caller.
func (o *Orchestrator) SetLiveTimeout(d time.Duration) { o.liveTimeout = d }

// SetAuditLogger sets the audit logger.
func (o *Orchestrator) SetAuditLogger(l AuditLogger) { o.auditLogger = l }

// SetPublisher sets the telemetry publisher.
func (o *Orchestrator) SetPublisher(p Publisher) { o.publisher = p }

// SetMetrics sets the metrics sink.
func (o *Orchestrator) SetMetrics(m *metrics.Metrics) { o.metrics = m }

// Platforms returns the adapter inventory.
func (o *Orchestrator) Platforms() platform.List {
	if o.platforms == nil {
		return platform.List{Items: []platform.Info{}}
	}
	return o.platforms.List()
}

// GetCellInfo runs one call. method is the alias the caller used and is
// recorded only. A denied capability returns ErrPermissionDenied without
// touching the platform; an unencodable result returns ErrEncode; any other
// failure after the gate degrades to an empty array.
func (o *Orchestrator) GetCellInfo(ctx context.Context, method string) (*Result, error) {
	start := time.Now()

	if o.platforms == nil {
		o.finish(ctx, method, "", nil, ErrNoAdapter, start)
		return nil, ErrNoAdapter
	}
	source, _, err := o.platforms.Active()
	if err != nil {
		o.finish(ctx, method, "", nil, ErrNoAdapter, start)
		return nil, ErrNoAdapter
	}
	platformID := platform.Describe(source)

	gate := capability.All(capability.PlatformGate{Source: source}, o.gate)
	if !gate.Check(ctx) {
		o.logger.Info("cell info call denied", zap.String("method", method), zap.String("platform", platformID))
		o.finish(ctx, method, platformID, nil, ErrPermissionDenied, start)
		return nil, ErrPermissionDenied
	}

	res, err := o.collect(ctx, source, platformID)
	o.finish(ctx, method, platformID, res, err, start)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (o *Orchestrator) collect(ctx context.Context, src adapter.ITelephonyAdapter, platformID string) (res *Result, err error) {
	res = &Result{Body: emptyArray, Path: acquire.PathEmpty, Platform: platformID}
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("cell info call panicked, returning empty result", zap.Any("panic", r))
			res = &Result{Body: emptyArray, Path: acquire.PathEmpty, Platform: platformID}
			err = nil
		}
	}()

	strategy := acquire.New(src, o.extractor, o.logger).SetLiveTimeout(o.liveTimeout)
	acq := strategy.Acquire(ctx)
	o.metrics.ObserveAcquisition(string(acq.Path), liveReason(acq), len(acq.Records), acq.Duration)

	records := acq.Records
	if o.augmenter != nil && augment.Available(src) {
		records = o.augmenter.Augment(ctx, src, records)
		o.metrics.ObserveAugmented(countAugmented(records))
	}

	body, encErr := cell.Encode(records)
	if encErr != nil {
		o.logger.Error("failed to encode cell records", zap.Error(encErr))
		return nil, encErr
	}

	res.Body = body
	res.Records = len(records)
	res.Path = acq.Path
	return res, nil
}

func (o *Orchestrator) finish(ctx context.Context, method, platformID string, res *Result, err error, start time.Time) {
	code := Code(err)
	entry := audit.Entry{
		RequestID: RequestID(ctx),
		Platform:  platformID,
		Method:    method,
		Code:      code,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if res != nil {
		entry.Path = string(res.Path)
		entry.Records = res.Records
	}

	if o.auditLogger != nil {
		o.auditLogger.LogCall(ctx, entry)
	}
	if o.publisher != nil {
		o.publisher.Publish(telemetry.CallEvent(platformID, method, code, entry.Path, entry.Records))
	}
	o.metrics.ObserveCall(method, code)

	o.logger.Debug("cell info call finished",
		zap.String("method", method),
		zap.String("code", code),
		zap.String("path", entry.Path),
		zap.Int("records", entry.Records),
		zap.Int64("latency_ms", entry.LatencyMs))
}

func liveReason(r acquire.Result) string {
	if r.LiveErr == nil {
		return ""
	}
	return adapter.Reason(r.LiveErr)
}

func countAugmented(records []cell.Record) int {
	n := 0
	for _, r := range records {
		if len(r.Extra) > 0 {
			n++
		}
	}
	return n
}

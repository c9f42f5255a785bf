package command

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/radio-control/cellinfo/internal/adapter"
	"github.com/radio-control/cellinfo/internal/adapter/fake"
	"github.com/radio-control/cellinfo/internal/audit"
	"github.com/radio-control/cellinfo/internal/auth"
	"github.com/radio-control/cellinfo/internal/capability"
	"github.com/radio-control/cellinfo/internal/cell"
	"github.com/radio-control/cellinfo/internal/metrics"
	"github.com/radio-control/cellinfo/internal/platform"
	"github.com/radio-control/cellinfo/internal/telemetry"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *recordingAudit) LogCall(ctx context.Context, e audit.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func (r *recordingAudit) last(t *testing.T) audit.Entry {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.entries)
	return r.entries[len(r.entries)-1]
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []telemetry.Event
}

func (r *recordingPublisher) Publish(e telemetry.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

type harness struct {
	fake    *fake.FakeAdapter
	orch    *Orchestrator
	audit   *recordingAudit
	pub     *recordingPublisher
	metrics *metrics.Metrics
}

func newHarness(t *testing.T, platformID string) *harness {
	t.Helper()
	f := fake.NewFakeAdapter(platformID)
	mgr := platform.NewManager()
	require.NoError(t, mgr.Register("primary", f))

	h := &harness{
		fake:    f,
		orch:    NewOrchestrator(mgr, nil),
		audit:   &recordingAudit{},
		pub:     &recordingPublisher{},
		metrics: metrics.New(nil),
	}
	h.orch.SetAuditLogger(h.audit)
	h.orch.SetPublisher(h.pub)
	h.orch.SetMetrics(h.metrics)
	return h
}

func TestGetCellInfoLive(t *testing.T) {
	h := newHarness(t, "android")
	h.fake.SetLiveCells(fake.LTE(12345678, 1001, 301, "310", "260", -95))

	res, err := h.orch.GetCellInfo(context.Background(), "getAllCellInfo")
	require.NoError(t, err)

	assert.JSONEq(t,
		`[{"type":"LTE","ci":12345678,"cid":12345678,"tac":1001,"mcc":"310","mnc":"260","pci":301,"signalDbm":-95}]`,
		string(res.Body))
	assert.Equal(t, 1, res.Records)
	assert.Equal(t, "live", string(res.Path))
	assert.Equal(t, "android", res.Platform)
	assert.Equal(t, 0, h.fake.CachedReads())

	entry := h.audit.last(t)
	assert.Equal(t, "getAllCellInfo", entry.Method)
	assert.Equal(t, CodeOK, entry.Code)
	assert.Equal(t, "live", entry.Path)
	assert.Equal(t, 1, entry.Records)

	require.Len(t, h.pub.events, 1)
	assert.Equal(t, telemetry.EventCellInfo, h.pub.events[0].Type)
	assert.Equal(t, CodeOK, h.pub.events[0].Data["code"])

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Calls.WithLabelValues("getAllCellInfo", CodeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Acquisitions.WithLabelValues("live")))
}

func TestGetCellInfoFallsBackToCached(t *testing.T) {
	h := newHarness(t, "android")
	h.fake.SetLiveError(adapter.LiveErrorModemError, errors.New("modem reset"))
	h.fake.SetCachedCells(fake.GSM(4211, 7, "001", "01", -77))

	res, err := h.orch.GetCellInfo(context.Background(), "cell_info")
	require.NoError(t, err)

	assert.JSONEq(t, `[{"type":"GSM","cid":4211,"lac":7,"mcc":"001","mnc":"01","signalDbm":-77}]`, string(res.Body))
	assert.Equal(t, "cached", string(res.Path))
	assert.Equal(t, 1, h.fake.LiveRequests())
	assert.Equal(t, 1, h.fake.CachedReads())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.LiveFailures.WithLabelValues("modem_error")))
}

func TestGetCellInfoEmptyResult(t *testing.T) {
	h := newHarness(t, "android")
	h.fake.SetLiveSupported(false)
	h.fake.SetCachedError(errors.New("RADIO_NOT_AVAILABLE"))

	res, err := h.orch.GetCellInfo(context.Background(), "getCellInfo")
	require.NoError(t, err)

	assert.Equal(t, "[]", string(res.Body))
	assert.Equal(t, "empty", string(res.Path))
	assert.Equal(t, 0, res.Records)
	assert.Equal(t, 0, h.fake.LiveRequests())
	assert.Equal(t, CodeOK, h.audit.last(t).Code)
}

func TestGetCellInfoPermissionDenied(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := newHarness(t, "android")
	h.orch = NewOrchestrator(mustManager(t, h.fake), zap.New(core))
	h.orch.SetAuditLogger(h.audit)
	h.fake.SetPermission(false)

	res, err := h.orch.GetCellInfo(context.Background(), "getAllCellInfo")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, CodePermissionDenied, Code(err))

	assert.Equal(t, 0, h.fake.Acquisitions())
	assert.Equal(t, CodePermissionDenied, h.audit.last(t).Code)
	assert.Equal(t, 1, logs.FilterMessage("cell info call denied").Len())
}

func mustManager(t *testing.T, a adapter.ITelephonyAdapter) *platform.Manager {
	t.Helper()
	m := platform.NewManager()
	require.NoError(t, m.Register("primary", a))
	return m
}

func TestGetCellInfoScopeGate(t *testing.T) {
	h := newHarness(t, "android")
	h.orch.SetGate(capability.ScopeGate{})
	h.fake.SetLiveCells(fake.CDMA(4139, 21, -90))

	_, err := h.orch.GetCellInfo(context.Background(), "getAllCellInfo")
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, 0, h.fake.Acquisitions())

	ctx := auth.WithClaims(context.Background(), &auth.Claims{Subject: "app", Scopes: []string{auth.ScopeLocation}})
	res, err := h.orch.GetCellInfo(ctx, "getAllCellInfo")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"type":"CDMA","systemId":4139,"networkId":21,"signalDbm":-90}]`, string(res.Body))
}

func TestGetCellInfoNoAdapter(t *testing.T) {
	audit := &recordingAudit{}

	for name, mgr := range map[string]*platform.Manager{"nil manager": nil, "empty manager": platform.NewManager()} {
		t.Run(name, func(t *testing.T) {
			o := NewOrchestrator(mgr, nil)
			o.SetAuditLogger(audit)

			_, err := o.GetCellInfo(context.Background(), "getAllCellInfo")
			assert.ErrorIs(t, err, ErrNoAdapter)
			assert.Equal(t, CodeError, Code(err))
			assert.Equal(t, CodeError, audit.last(t).Code)
		})
	}
}

func TestGetCellInfoAugmentsSubscriptions(t *testing.T) {
	h := newHarness(t, "ios")
	h.fake.SetLiveSupported(false)
	h.fake.SetCachedCells(adapter.SubscriptionCell{
		ServiceID:       cell.Some("0001"),
		RadioTechnology: "CTRadioAccessTechnologyLTE",
		Carrier:         adapter.Carrier{Name: cell.Some("Carrier A")},
	})
	h.fake.SetSubscriptions(subscriberHandle{
		SignalStrength: map[string]any{"0001": -70},
	}, "0001")

	res, err := h.orch.GetCellInfo(context.Background(), "getAllCellInfo")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"type":"LTE","carrierName":"Carrier A","isoCountryCode":null,"mobileCountryCode":null,`+
		`"mobileNetworkCode":null,"cid":null,"ci":null,"tac":null,"pci":null,"nci":null,"signalDbm":null,`+
		`"serviceId":"0001","signalStrength":-70}]`, string(res.Body))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.AugmentedRecords))

	h.orch.SetAugment(false)
	res, err = h.orch.GetCellInfo(context.Background(), "getAllCellInfo")
	require.NoError(t, err)
	assert.NotContains(t, string(res.Body), "signalStrength")
}

func TestGetCellInfoDropsUnencodableAugmentation(t *testing.T) {
	h := newHarness(t, "ios")
	h.fake.SetLiveSupported(false)
	h.fake.SetCachedCells(adapter.SubscriptionCell{
		ServiceID:       cell.Some("0001"),
		RadioTechnology: "CTRadioAccessTechnologyLTE",
	})
	// A channel cannot be rendered to JSON; the augmenter discards it so
	// the call still encodes.
	h.fake.SetSubscriptions(subscriberHandle{
		SignalStrength: map[string]any{"0001": make(chan int)},
	}, "0001")

	res, err := h.orch.GetCellInfo(context.Background(), "getAllCellInfo")
	require.NoError(t, err)
	assert.NotContains(t, string(res.Body), "signalStrength")
	assert.Equal(t, CodeOK, h.audit.last(t).Code)
	assert.Equal(t, 0.0, testutil.ToFloat64(h.metrics.Calls.WithLabelValues("getAllCellInfo", CodeEncodeError)))
}

type subscriberHandle struct {
	SignalStrength map[string]any
}

func TestGetCellInfoLiveTimeout(t *testing.T) {
	h := newHarness(t, "android")
	h.fake.SetWithholdCallback(true)
	h.fake.SetCachedCells(fake.GSM(1, 2, "001", "01", -60))
	h.orch.SetLiveTimeout(20 * time.Millisecond)

	res, err := h.orch.GetCellInfo(context.Background(), "getAllCellInfo")
	require.NoError(t, err)
	assert.Equal(t, "cached", string(res.Path))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.LiveFailures.WithLabelValues("canceled")))
}

func TestRequestIDReachesAudit(t *testing.T) {
	h := newHarness(t, "android")
	ctx := WithRequestID(context.Background(), "req-42")

	_, err := h.orch.GetCellInfo(ctx, "getAllCellInfo")
	require.NoError(t, err)
	assert.Equal(t, "req-42", h.audit.last(t).RequestID)
	assert.Equal(t, "", RequestID(context.Background()))
}

func TestCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, CodeOK},
		{ErrPermissionDenied, CodePermissionDenied},
		{fmt.Errorf("wrapped: %w", ErrEncode), CodeEncodeError},
		{ErrNoAdapter, CodeError},
		{errors.New("anything else"), CodeError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Code(tt.err), "%v", tt.err)
	}
}

func TestPlatforms(t *testing.T) {
	h := newHarness(t, "android")
	list := h.orch.Platforms()
	assert.Equal(t, "primary", list.ActiveID)
	require.Len(t, list.Items, 1)

	assert.Empty(t, NewOrchestrator(nil, nil).Platforms().Items)
}

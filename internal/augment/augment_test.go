package augment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radio-control/cellinfo/internal/adapter/fake"
	"github.com/radio-control/cellinfo/internal/cell"
)

type telephonyHandle struct {
	SignalStrength      map[string]any
	CoreTelephonyClient *telephonyClient
}

func (telephonyHandle) Dbm() int { panic("unrecognized selector sent to instance") }

type telephonyClient struct{}

func (telephonyClient) SignalStrengthForService(serviceID string) (int, error) {
	if serviceID == "svc1" {
		return -91, nil
	}
	return -99, nil
}

func (telephonyClient) GetCellInfo() chan int { return make(chan int) }

type panickingHandle struct{}

func (panickingHandle) ValueForKey(key string) (any, error) { panic("NSUnknownKeyException") }

func subscription(serviceID string) cell.Record {
	return cell.Record{
		Type: cell.LTE,
		Subscription: &cell.Subscription{
			ServiceID:   cell.Some(serviceID),
			CarrierName: cell.Some("Carrier " + serviceID),
		},
	}
}

func TestAugmentMergesByServiceID(t *testing.T) {
	f := fake.NewFakeAdapter("ios")
	f.SetSubscriptions(telephonyHandle{
		SignalStrength:      map[string]any{"svc1": -80, "svc2": -95},
		CoreTelephonyClient: &telephonyClient{},
	}, "svc1", "svc2")

	records := []cell.Record{
		subscription("svc1"),
		subscription("svc2"),
		{Type: cell.GSM},
	}

	out := New(nil).Augment(context.Background(), f, records)
	require.Len(t, out, 3)

	assert.Equal(t, map[string]any{
		"signalStrength":            -80,
		"signalStrengthForService:": -91,
	}, out[0].Extra)
	assert.Equal(t, map[string]any{
		"signalStrength":            -95,
		"signalStrengthForService:": -99,
	}, out[1].Extra)
	assert.Nil(t, out[2].Extra)

	// Input records are not modified.
	assert.Nil(t, records[0].Extra)
}

func TestAugmentExtrasEncodeAfterPrimaryKeys(t *testing.T) {
	f := fake.NewFakeAdapter("ios")
	f.SetSubscriptions(telephonyHandle{SignalStrength: map[string]any{"svc1": -80}}, "svc1")

	out := New(nil).Augment(context.Background(), f, []cell.Record{subscription("svc1")})

	data, err := cell.Encode(out)
	require.NoError(t, err)
	assert.Equal(t,
		`[{"type":"LTE","carrierName":"Carrier svc1","isoCountryCode":null,"mobileCountryCode":null,`+
			`"mobileNetworkCode":null,"cid":null,"ci":null,"tac":null,"pci":null,"nci":null,`+
			`"signalDbm":null,"serviceId":"svc1","signalStrength":-80}]`,
		string(data))
}

func TestAugmentNeverOverrides(t *testing.T) {
	rec := subscription("svc1")
	rec.Extra = map[string]any{"signalStrength": "kept"}

	out := Merge([]cell.Record{rec}, Extras{
		"svc1": {
			"signalStrength": -1,
			"carrierName":    "replaced",
			"serviceId":      "other",
			"type":           "NR",
			"dbm":            -70,
		},
	})

	assert.Equal(t, map[string]any{"signalStrength": "kept", "dbm": -70}, out[0].Extra)
	name, _ := out[0].Subscription.CarrierName.Get()
	assert.Equal(t, "Carrier svc1", name)
}

func TestAugmentIsBestEffort(t *testing.T) {
	tests := []struct {
		name   string
		handle any
		ids    []string
	}{
		{"no handle", nil, []string{"svc1"}},
		{"no services", telephonyHandle{SignalStrength: map[string]any{"svc1": -80}}, nil},
		{"panicking handle", panickingHandle{}, []string{"svc1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := fake.NewFakeAdapter("ios")
			f.SetSubscriptions(tt.handle, tt.ids...)

			records := []cell.Record{subscription("svc1")}
			out := New(nil).Augment(context.Background(), f, records)

			require.Len(t, out, 1)
			assert.Empty(t, out[0].Extra)
		})
	}
}

func TestProbeValueDropsUnencodable(t *testing.T) {
	_, ok := probeValue(telephonyClient{}, "getCellInfo", "svc1")
	assert.False(t, ok)

	v, ok := probeValue(telephonyClient{}, "signalStrengthForService:", "svc1")
	assert.True(t, ok)
	assert.Equal(t, -91, v)
}

package probe

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type methodIdentity struct{}

func (methodIdentity) GetNci() int64                { return 1234567 }
func (methodIdentity) GetPci() (int64, error)       { return 321, nil }
func (methodIdentity) GetTac() (int64, error)       { return 0, errors.New("tac unavailable") }
func (methodIdentity) GetMccString() string         { return "310" }
func (methodIdentity) GetMncString() (string, bool) { return "", false }

type fieldIdentity struct {
	Nci int64
	Pci int32
	mcc string
}

type panicky struct{}

func (panicky) GetNci() int64 { panic("revision mismatch") }

type kvObject map[string]any

func (o kvObject) ValueForKey(key string) (any, error) {
	v, ok := o[key]
	if !ok {
		return nil, errors.New("not key value coding-compliant")
	}
	return v, nil
}

type serviceClient struct{}

func (serviceClient) SignalStrengthForService(serviceID string) (map[string]any, error) {
	return map[string]any{"service": serviceID, "bars": 3}, nil
}

func TestLookupSources(t *testing.T) {
	tests := []struct {
		name    string
		obj     any
		key     string
		want    any
		wantErr bool
	}{
		{"method by getter name", methodIdentity{}, "getNci", int64(1234567), false},
		{"method with error return", methodIdentity{}, "getPci", int64(321), false},
		{"method returning error", methodIdentity{}, "getTac", nil, true},
		{"method returning not ok", methodIdentity{}, "getMncString", nil, true},
		{"exported struct field", fieldIdentity{Nci: 99}, "nci", int64(99), false},
		{"pointer to struct", &fieldIdentity{Pci: 7}, "pci", int32(7), false},
		{"unexported struct field", fieldIdentity{mcc: "001"}, "mcc", nil, true},
		{"map key", map[string]any{"nci": 5}, "nci", 5, false},
		{"map key missing", map[string]any{"nci": 5}, "tac", nil, true},
		{"key valuer", kvObject{"signalStrength": -90}, "signalStrength", -90, false},
		{"panicking method", panicky{}, "getNci", nil, true},
		{"nil object", nil, "nci", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Lookup(tt.obj, tt.key)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFirstReturnsFirstResolvedCandidate(t *testing.T) {
	obj := map[string]any{"nci": int64(11), "NCI": int64(22)}

	v, name, err := First(obj, "getNci", "nci", "NCI")
	require.NoError(t, err)
	assert.Equal(t, int64(11), v)
	assert.Equal(t, "nci", name)

	_, _, err = First(obj, "getTac", "tac")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCallSelectorName(t *testing.T) {
	v, err := Call(serviceClient{}, "signalStrengthForService:", "0000000100000001")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"service": "0000000100000001", "bars": 3}, v)

	_, err = Call(serviceClient{}, "signalStrengthForService:")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveNRPartialSurface(t *testing.T) {
	acc := ResolveNR(methodIdentity{}, map[string]any{})

	assert.True(t, acc.NCI.Supported())
	assert.True(t, acc.PCI.Supported())
	assert.True(t, acc.MCC.Supported())
	assert.False(t, acc.TAC.Supported(), "erroring accessor must not resolve")
	assert.False(t, acc.MNC.Supported(), "not-ok accessor must not resolve")
	assert.False(t, acc.Dbm.Supported())

	nci, err := acc.NCI.Read()
	require.NoError(t, err)
	assert.Equal(t, int64(1234567), nci)

	_, err = acc.TAC.Read()
	assert.Error(t, err)
}

func TestResolveNRFromSignalMap(t *testing.T) {
	acc := ResolveNR(map[string]any{"nci": json.Number("42")}, map[string]any{"ssRsrp": -101.0})

	dbm, err := acc.Dbm.Read()
	require.NoError(t, err)
	assert.Equal(t, int64(-101), dbm)

	nci, err := acc.NCI.Read()
	require.NoError(t, err)
	assert.Equal(t, int64(42), nci)
}

func TestResolveNROutOfRangeFloatUnsupported(t *testing.T) {
	acc := ResolveNR(map[string]any{"nci": 1e19, "pci": 12.0}, map[string]any{"ssRsrp": -1e300})

	assert.False(t, acc.NCI.Supported())
	assert.False(t, acc.Dbm.Supported())
	assert.True(t, acc.PCI.Supported())
}

func TestSplit(t *testing.T) {
	identity := map[string]any{"nci": 1}
	signal := map[string]any{"dbm": -80}
	obj := map[string]any{"cellIdentity": identity, "cellSignalStrength": signal}

	gotID, gotSig := Split(obj)
	assert.Equal(t, identity, gotID)
	assert.Equal(t, signal, gotSig)

	flat := map[string]any{"nci": 1, "dbm": -80}
	gotID, gotSig = Split(flat)
	assert.Equal(t, flat, gotID)
	assert.Equal(t, flat, gotSig)
}

func TestToInt64(t *testing.T) {
	n := int32(-7)
	tests := []struct {
		in      any
		want    int64
		wantErr bool
	}{
		{int(5), 5, false},
		{uint16(65535), 65535, false},
		{float64(-85), -85, false},
		{float64(1.5), 0, true},
		{&n, -7, false},
		{json.Number("12"), 12, false},
		{"12", 0, true},
		{uint64(1 << 63), 0, true},
		{float64(1e19), 0, true},
		{float64(-1e300), 0, true},
		{math.Inf(1), 0, true},
		{math.NaN(), 0, true},
		{float64(-(1 << 63)), math.MinInt64, false},
		{float32(16777216), 16777216, false},
	}

	for _, tt := range tests {
		got, err := ToInt64(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ToInt64(%v): expected error, got %d", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ToInt64(%v): unexpected error %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ToInt64(%v): expected %d, got %d", tt.in, tt.want, got)
		}
	}
}

func TestToStringKeepsLeadingZeros(t *testing.T) {
	s, err := ToString("001")
	require.NoError(t, err)
	assert.Equal(t, "001", s)

	s, err = ToString(310)
	require.NoError(t, err)
	assert.Equal(t, "310", s)

	_, err = ToString(struct{}{})
	assert.Error(t, err)
}

package bridge_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iden3/circom-witnesscalc-go/internal/bridge"
	"github.com/iden3/circom-witnesscalc-go/internal/bridge/bridgetest"
)

const untouched = 0xFF

func filled(n int) []byte {
	return bytes.Repeat([]byte{untouched}, n)
}

type outcome struct {
	code    int
	witness []byte
	size    uint64
	errMsg  []byte
}

func invoke(t *testing.T, n *bridgetest.Native, inputs string, graph []byte, errMsg []byte, errCap int64) outcome {
	t.Helper()
	h, err := bridge.NewHandler(n)
	require.NoError(t, err)

	var (
		witness []byte
		size    uint64 = 12345
	)
	code := h.Invoke(inputs, graph, int64(len(graph)), &witness, &size, errMsg, errCap)
	return outcome{code: code, witness: witness, size: size, errMsg: errMsg}
}

func TestNewHandlerRejectsNil(t *testing.T) {
	_, err := bridge.NewHandler(nil)
	require.ErrorIs(t, err, bridge.ErrNilNative)
}

func TestInvokeEmptyGraphEmptyResult(t *testing.T) {
	n := bridgetest.New(bridgetest.Result{Code: bridge.StatusOK})
	errMsg := filled(16)

	out := invoke(t, n, "{}", []byte{}, errMsg, int64(len(errMsg)))

	assert.Equal(t, bridge.StatusOK, out.code)
	require.NotNil(t, out.witness)
	assert.Len(t, out.witness, 0)
	assert.Equal(t, uint64(0), out.size)
	assert.Equal(t, filled(16), out.errMsg)
	assert.True(t, n.Balanced())
}

func TestInvokeTruncatesLongMessageWithoutTerminator(t *testing.T) {
	n := bridgetest.New(bridgetest.Result{Code: 5, Message: []byte("bad input\x00")})
	errMsg := filled(8)

	out := invoke(t, n, "{}", []byte{1, 2, 3}, errMsg, 5)

	assert.Equal(t, 5, out.code)
	assert.Equal(t, []byte("bad i"), out.errMsg[:5])
	assert.Equal(t, byte(untouched), out.errMsg[5])
	assert.True(t, n.Balanced())
}

func TestInvokeShortMessageIsTerminated(t *testing.T) {
	n := bridgetest.New(bridgetest.Result{Code: bridge.StatusError, Message: []byte("oops")})
	errMsg := filled(10)

	out := invoke(t, n, "{}", []byte{1}, errMsg, 10)

	assert.Equal(t, bridge.StatusError, out.code)
	assert.Equal(t, []byte("oops\x00"), out.errMsg[:5])
	assert.Equal(t, filled(5), out.errMsg[5:])
}

func TestInvokeMessageExactlyCapacity(t *testing.T) {
	n := bridgetest.New(bridgetest.Result{Code: bridge.StatusError, Message: []byte("abcd")})
	errMsg := filled(6)

	out := invoke(t, n, "{}", nil, errMsg, 4)

	assert.Equal(t, []byte("abcd"), out.errMsg[:4])
	assert.Equal(t, filled(2), out.errMsg[4:])
}

func TestInvokeZeroCapacityWritesNothing(t *testing.T) {
	n := bridgetest.New(bridgetest.Result{Code: bridge.StatusError, Message: []byte("oops")})
	errMsg := filled(4)

	out := invoke(t, n, "{}", nil, errMsg, 0)
	assert.Equal(t, filled(4), out.errMsg)

	out = invoke(t, n, "{}", nil, nil, 0)
	assert.Equal(t, bridge.StatusError, out.code)
}

func TestInvokeCapacityClampedToBuffer(t *testing.T) {
	n := bridgetest.New(bridgetest.Result{Code: bridge.StatusError, Message: []byte("a long diagnostic")})
	errMsg := filled(3)

	out := invoke(t, n, "{}", nil, errMsg, 1024)

	assert.Equal(t, []byte("a l"), out.errMsg)
}

func TestInvokeIgnoresMessageOnSuccess(t *testing.T) {
	n := bridgetest.New(bridgetest.Result{Code: bridge.StatusOK, Witness: []byte{9}, Message: []byte("stale")})
	errMsg := filled(16)

	out := invoke(t, n, "{}", nil, errMsg, 16)

	assert.Equal(t, bridge.StatusOK, out.code)
	assert.Equal(t, filled(16), out.errMsg)
	assert.True(t, n.Balanced())
}

func TestInvokeNullMessageLeavesBufferUntouched(t *testing.T) {
	n := bridgetest.New(bridgetest.Result{Code: bridge.StatusError, NilMessage: true})
	errMsg := filled(8)

	out := invoke(t, n, "{}", nil, errMsg, 8)

	assert.Equal(t, bridge.StatusError, out.code)
	assert.Equal(t, filled(8), out.errMsg)
	assert.Equal(t, []int{1}, n.StatusFrees())
}

func TestInvokeEmptyMessageWritesTerminator(t *testing.T) {
	n := bridgetest.New(bridgetest.Result{Code: bridge.StatusError})
	errMsg := filled(4)

	out := invoke(t, n, "{}", nil, errMsg, 4)

	assert.Equal(t, []byte{0, untouched, untouched, untouched}, out.errMsg)
}

func TestInvokeWitnessRoundTrip(t *testing.T) {
	want := make([]byte, 4096)
	for i := range want {
		want[i] = byte(i * 7)
	}
	n := bridgetest.New(bridgetest.Result{Code: bridge.StatusOK, Witness: want})

	out := invoke(t, n, `{"a":"1"}`, []byte("graph"), nil, 0)

	// The fake scribbles over its buffer on Free, so equality proves the
	// slot holds a copy taken before the free.
	assert.Equal(t, want, out.witness)
	assert.Equal(t, uint64(len(want)), out.size)
	assert.Equal(t, []int{1}, n.BufferFrees())
}

func TestInvokeWitnessInstalledOnFailure(t *testing.T) {
	n := bridgetest.New(bridgetest.Result{Code: bridge.StatusError, Witness: []byte{1, 2}, Message: []byte("x")})

	out := invoke(t, n, "{}", nil, filled(4), 4)

	assert.Equal(t, []byte{1, 2}, out.witness)
	assert.Equal(t, uint64(2), out.size)
}

func TestInvokeNilBufferGivesEmptyWitness(t *testing.T) {
	n := bridgetest.New(bridgetest.Result{Code: bridge.StatusError, NilBuffer: true, Message: []byte("x")})

	out := invoke(t, n, "{}", nil, filled(4), 4)

	require.NotNil(t, out.witness)
	assert.Len(t, out.witness, 0)
	assert.Equal(t, uint64(0), out.size)
}

func TestInvokeNilStatus(t *testing.T) {
	n := bridgetest.New(bridgetest.Result{Code: 7, NilStatus: true})
	errMsg := filled(4)

	out := invoke(t, n, "{}", nil, errMsg, 4)

	assert.Equal(t, 7, out.code)
	assert.Equal(t, filled(4), out.errMsg)
}

func TestInvokeForwardsResultCodeVerbatim(t *testing.T) {
	n := bridgetest.New(bridgetest.Result{
		Code:       42,
		StatusCode: bridgetest.IntPtr(bridge.StatusOK),
		Message:    []byte("ignored"),
	})
	errMsg := filled(8)

	out := invoke(t, n, "{}", nil, errMsg, 8)

	assert.Equal(t, 42, out.code)
	assert.Equal(t, filled(8), out.errMsg)
}

func TestInvokePassesDeclaredGraphPrefix(t *testing.T) {
	n := bridgetest.New(bridgetest.Result{Code: bridge.StatusOK})
	h, err := bridge.NewHandler(n)
	require.NoError(t, err)

	var (
		witness []byte
		size    uint64
	)
	graph := []byte("0123456789")
	code := h.Invoke(`{"in":["1"]}`, graph, 4, &witness, &size, nil, 0)

	require.Equal(t, bridge.StatusOK, code)
	require.Len(t, n.Calls, 1)
	assert.Equal(t, `{"in":["1"]}`, n.Calls[0].Inputs)
	assert.Equal(t, []byte("0123"), n.Calls[0].Graph)
	assert.Equal(t, int64(4), n.Calls[0].GraphSize)
	assert.Equal(t, []int{1, 1}, n.Views())
}

func TestInvokeConversionFailures(t *testing.T) {
	tests := []struct {
		name      string
		inputs    string
		graph     []byte
		graphSize int64
		setup     func(*bridgetest.Native)
		wantViews []int
		wantMsg   string
	}{
		{
			name:      "invalid utf8",
			inputs:    "\xff\xfe",
			graphSize: 0,
			wantViews: []int{},
			wantMsg:   "invalid UTF-8",
		},
		{
			name:      "embedded nul",
			inputs:    "{\x00}",
			graphSize: 0,
			wantViews: []int{},
			wantMsg:   "NUL byte at offset 1",
		},
		{
			name:      "negative graph size",
			inputs:    "{}",
			graph:     []byte{1},
			graphSize: -1,
			wantViews: []int{1},
			wantMsg:   "graph size out of range",
		},
		{
			name:      "graph size beyond buffer",
			inputs:    "{}",
			graph:     []byte{1, 2},
			graphSize: 3,
			wantViews: []int{1},
			wantMsg:   "graph size out of range",
		},
		{
			name:      "string view error",
			inputs:    "{}",
			setup:     func(n *bridgetest.Native) { n.ViewStringErr = bridgetest.ErrViewFailed },
			wantViews: []int{},
			wantMsg:   "view inputs",
		},
		{
			name:      "bytes view error",
			inputs:    "{}",
			setup:     func(n *bridgetest.Native) { n.ViewBytesErr = bridgetest.ErrViewFailed },
			wantViews: []int{1},
			wantMsg:   "view graph",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := bridgetest.New(bridgetest.Result{Code: bridge.StatusOK, Witness: []byte{1}})
			if tt.setup != nil {
				tt.setup(n)
			}
			h, err := bridge.NewHandler(n)
			require.NoError(t, err)

			var (
				witness []byte
				size    uint64 = 99
			)
			errMsg := make([]byte, 128)
			code := h.Invoke(tt.inputs, tt.graph, tt.graphSize, &witness, &size, errMsg, int64(len(errMsg)))

			assert.Equal(t, bridge.StatusError, code)
			require.NotNil(t, witness)
			assert.Len(t, witness, 0)
			assert.Equal(t, uint64(0), size)
			assert.Empty(t, n.Calls, "routine must not run")
			assert.Equal(t, tt.wantViews, n.Views())

			msg := string(errMsg[:bytes.IndexByte(errMsg, 0)])
			assert.Contains(t, msg, tt.wantMsg)
		})
	}
}

func TestInvokeNilSlots(t *testing.T) {
	n := bridgetest.New(bridgetest.Result{Code: bridge.StatusOK})
	h, err := bridge.NewHandler(n)
	require.NoError(t, err)

	size := uint64(42)
	errMsg := make([]byte, 128)
	code := h.Invoke("{}", nil, 0, nil, &size, errMsg, int64(len(errMsg)))

	assert.Equal(t, bridge.StatusError, code)
	assert.Equal(t, uint64(0), size)
	assert.Empty(t, n.Calls)
	assert.Empty(t, n.Views())
	assert.True(t, bytes.HasPrefix(errMsg, []byte(bridge.ErrNilSlot.Error())))

	witness := []byte("stale")
	code = h.Invoke("{}", nil, 0, &witness, nil, errMsg, int64(len(errMsg)))

	assert.Equal(t, bridge.StatusError, code)
	require.NotNil(t, witness)
	assert.Empty(t, witness)
	assert.Empty(t, n.Calls)
}

func TestInvokeReleasesEverythingAcrossOutcomes(t *testing.T) {
	results := []bridgetest.Result{
		{Code: bridge.StatusOK, Witness: []byte("w")},
		{Code: bridge.StatusError, Message: []byte("boom")},
		{Code: bridge.StatusError, NilMessage: true},
		{Code: 3, Witness: []byte("partial"), Message: []byte("unknown")},
	}
	for _, r := range results {
		n := bridgetest.New(r)
		invoke(t, n, "{}", []byte("g"), make([]byte, 8), 8)
		assert.True(t, n.Balanced(), "result %+v", r)
		assert.Equal(t, []int{1, 1}, n.Views())
	}
}

package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"happinessdash/internal/backend"
	"happinessdash/internal/happiness"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeProcessor struct {
	mu      sync.Mutex
	calls   []string
	respond func(call int, sourceURL string) (*happiness.Payload, error)
}

func (f *fakeProcessor) Process(_ context.Context, sourceURL string) (*happiness.Payload, error) {
	f.mu.Lock()
	f.calls = append(f.calls, sourceURL)
	n := len(f.calls)
	f.mu.Unlock()
	return f.respond(n, sourceURL)
}

func (f *fakeProcessor) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func returns(p *happiness.Payload, err error) *fakeProcessor {
	return &fakeProcessor{respond: func(int, string) (*happiness.Payload, error) { return p, err }}
}

func successPayload(countries ...string) *happiness.Payload {
	data := make([]happiness.Record, 0, len(countries))
	for _, c := range countries {
		data = append(data, happiness.Record{"country": c, "ladder_score": 7.0})
	}
	return &happiness.Payload{
		Status:  happiness.StatusSuccess,
		Results: &happiness.Results{Data: data},
	}
}

func newTestOrchestrator(t *testing.T, primary, fallback backend.Processor) *Orchestrator {
	t.Helper()
	chain, err := NewEndpointChain(
		Endpoint{Name: "primary", Processor: primary},
		Endpoint{Name: "proxy", Processor: fallback},
	)
	require.NoError(t, err)
	orch, err := NewOrchestrator(chain, NewStore(State{}))
	require.NoError(t, err)
	return orch
}

func TestFetchData_SuccessShowsDashboard(t *testing.T) {
	t.Parallel()

	primary := returns(successPayload("finland"), nil)
	fallback := returns(nil, errors.New("unused"))
	orch := newTestOrchestrator(t, primary, fallback)

	state := orch.FetchData(context.Background(), "https://example.com/data.csv")

	assert.Equal(t, ScreenDashboard, state.Screen())
	assert.False(t, state.Loading)
	assert.Empty(t, state.Err)
	assert.Equal(t, "https://example.com/data.csv", state.SourceURL)
	assert.Equal(t, "primary", state.Endpoint)
	assert.NotEmpty(t, state.FetchID)
	assert.Empty(t, fallback.Calls())
	assert.Equal(t, state, orch.Store().Snapshot())
}

func TestFetchData_UpstreamFailureUsesMessage(t *testing.T) {
	t.Parallel()

	fallback := returns(successPayload("finland"), nil)
	orch := newTestOrchestrator(t,
		returns(&happiness.Payload{Status: "error", Message: "unsupported format"}, nil),
		fallback,
	)

	state := orch.FetchData(context.Background(), "")

	assert.Equal(t, ScreenError, state.Screen())
	assert.Equal(t, "unsupported format", state.Err)
	assert.Empty(t, fallback.Calls(), "an upstream failure never falls back")
}

func TestFetchData_UpstreamFailureWithoutMessage(t *testing.T) {
	t.Parallel()

	orch := newTestOrchestrator(t,
		returns(&happiness.Payload{Status: "error"}, nil),
		returns(nil, errors.New("unused")),
	)

	state := orch.FetchData(context.Background(), "")
	assert.Equal(t, GenericFailureMessage, state.Err)
}

func TestFetchData_PrimaryTimeoutFallbackSucceeds(t *testing.T) {
	t.Parallel()

	timeout := &backend.NoResponseError{URL: "http://localhost:8000/api/process", Err: context.DeadlineExceeded}
	fallback := returns(successPayload("denmark"), nil)
	orch := newTestOrchestrator(t, returns(nil, timeout), fallback)

	state := orch.FetchData(context.Background(), "https://example.com/x.csv")

	assert.Equal(t, ScreenDashboard, state.Screen())
	assert.Empty(t, state.Err)
	assert.Equal(t, "proxy", state.Endpoint)
	assert.Equal(t, "denmark", state.Results.Data[0].Country())
	assert.Equal(t, []string{"https://example.com/x.csv"}, fallback.Calls())
}

func TestFetchData_ErrorComesFromPrimaryFailure(t *testing.T) {
	t.Parallel()

	primaryErr := &backend.StatusError{URL: "http://localhost:8000/api/process", StatusCode: 500, Message: "bad source"}
	fallbackErr := &backend.NoResponseError{URL: "http://localhost:3000/api/process", Err: errors.New("connection refused")}
	orch := newTestOrchestrator(t, returns(nil, primaryErr), returns(nil, fallbackErr))

	state := orch.FetchData(context.Background(), "")

	assert.Equal(t, ScreenError, state.Screen())
	assert.Equal(t, "API error (500): bad source", state.Err)
}

func TestFetchData_FallbackNonSuccessKeepsPrimaryError(t *testing.T) {
	t.Parallel()

	primaryErr := &backend.NoResponseError{URL: "x", Err: errors.New("refused")}
	orch := newTestOrchestrator(t,
		returns(nil, primaryErr),
		returns(&happiness.Payload{Status: "error", Message: "proxy says no"}, nil),
	)

	state := orch.FetchData(context.Background(), "")
	assert.Equal(t, NoResponseMessage, state.Err)
}

func TestFetchData_NilPayloadIsGenericFailure(t *testing.T) {
	t.Parallel()

	orch := newTestOrchestrator(t, returns(nil, nil), returns(nil, errors.New("unused")))

	state := orch.FetchData(context.Background(), "")
	assert.Equal(t, GenericFailureMessage, state.Err)
}

func TestFetchData_SuccessiveFetchesReplaceResults(t *testing.T) {
	t.Parallel()

	primary := &fakeProcessor{respond: func(call int, _ string) (*happiness.Payload, error) {
		if call == 1 {
			return successPayload("finland", "denmark", "iceland"), nil
		}
		return successPayload("norway"), nil
	}}
	orch := newTestOrchestrator(t, primary, returns(nil, errors.New("unused")))

	first := orch.FetchData(context.Background(), "https://example.com/a.csv")
	require.Len(t, first.Results.Data, 3)

	second := orch.FetchData(context.Background(), "")
	require.Len(t, second.Results.Data, 1)
	assert.Equal(t, "norway", second.Results.Data[0].Country())
	assert.Equal(t, "https://example.com/a.csv", second.SourceURL, "an empty source keeps the previous one")
	assert.NotEqual(t, first.FetchID, second.FetchID)
}

func TestFetchData_SuccessClearsPreviousError(t *testing.T) {
	t.Parallel()

	primary := &fakeProcessor{respond: func(call int, _ string) (*happiness.Payload, error) {
		if call == 1 {
			return &happiness.Payload{Status: "error", Message: "boom"}, nil
		}
		return successPayload("finland"), nil
	}}
	orch := newTestOrchestrator(t, primary, returns(nil, errors.New("unused")))

	require.Equal(t, "boom", orch.FetchData(context.Background(), "").Err)
	state := orch.Retry(context.Background())
	assert.Empty(t, state.Err)
	assert.Equal(t, ScreenDashboard, state.Screen())
	assert.Equal(t, []string{"", ""}, primary.Calls())
}

func TestStart_MarksLoadingBeforeReturning(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	primary := &fakeProcessor{respond: func(int, string) (*happiness.Payload, error) {
		<-release
		return successPayload("finland"), nil
	}}
	orch := newTestOrchestrator(t, primary, returns(nil, errors.New("unused")))

	done := orch.Start(context.Background(), "")
	assert.Equal(t, ScreenLoading, orch.Store().Snapshot().Screen())

	close(release)
	select {
	case state := <-done:
		assert.Equal(t, ScreenDashboard, state.Screen())
	case <-time.After(2 * time.Second):
		t.Fatal("fetch did not finish")
	}
}

func TestDescribeFailure(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"status with message", &backend.StatusError{StatusCode: 404, Message: "not found"}, "API error (404): not found"},
		{"status without message", &backend.StatusError{StatusCode: 502}, "API error (502): request failed with status code 502"},
		{"no response", &backend.NoResponseError{Err: errors.New("refused")}, NoResponseMessage},
		{"request", &backend.RequestError{Err: errors.New("bad url")}, "API request error: bad url"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DescribeFailure(tc.err))
		})
	}
}

func TestNewEndpointChain_Validates(t *testing.T) {
	t.Parallel()

	_, err := NewEndpointChain()
	require.Error(t, err)

	_, err = NewEndpointChain(Endpoint{Name: "primary"})
	require.Error(t, err)

	chain, err := NewEndpointChain(
		Endpoint{Name: "primary", Processor: returns(nil, nil)},
		Endpoint{Name: "proxy", Processor: returns(nil, nil)},
	)
	require.NoError(t, err)
	assert.Equal(t, "primary", chain.Primary().Name)
	require.Len(t, chain.Fallbacks(), 1)
	assert.Equal(t, "proxy", chain.Fallbacks()[0].Name)
}

func TestFileProcessor(t *testing.T) {
	t.Parallel()

	_, err := NewFileProcessor("testdata/missing.json")
	require.Error(t, err)

	fp, err := NewFileProcessor("../../data/sample_results.json")
	require.NoError(t, err)

	payload, err := fp.Process(context.Background(), "ignored")
	require.NoError(t, err)
	assert.True(t, payload.OK())
	assert.True(t, payload.Results.HasData())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = fp.Process(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchData_LogsPrimaryTimeout(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	orch := newTestOrchestrator(t,
		returns(nil, &backend.NoResponseError{URL: "http://backend.test", Err: context.DeadlineExceeded}),
		returns(successPayload("finland"), nil),
	)
	state := orch.FetchData(context.Background(), "")
	assert.Equal(t, "proxy", state.Endpoint)

	entries := logs.FilterMessage("primary endpoint failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, true, entries[0].ContextMap()["timeout"])
}

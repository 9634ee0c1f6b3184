package extensions

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/datacat/internal/core/advice"
	"github.com/custodia-labs/datacat/internal/core/domain"
	"github.com/custodia-labs/datacat/internal/core/services"
	"github.com/custodia-labs/datacat/internal/logger"
)

func testLoader(t *testing.T) *domain.Transformer {
	t.Helper()
	cat := domain.NewCatalog("demo", "c-1")
	ds := domain.NewDataset("iris", "d-1")
	require.NoError(t, cat.AddDataset(ds))
	l := domain.NewTransformer(domain.KindLoader, "text")
	require.NoError(t, ds.AddTransformer(l))
	return l
}

func loadCall(l *domain.Transformer, as domain.TypeTag, action advice.Action) advice.Call {
	return advice.Call{Site: advice.SiteLoad, Args: []any{l, "handle", as}, Action: action}
}

func produce(v any) advice.Action {
	return func(context.Context, []any, map[string]any) (any, error) {
		return domain.Produced(v), nil
	}
}

func TestLog_TracesCalls(t *testing.T) {
	var buf bytes.Buffer
	logger.SetVerbose(true)
	logger.SetOutput(&buf)
	t.Cleanup(func() {
		logger.SetVerbose(false)
		logger.SetOutput(os.Stderr)
	})

	chain := advice.Amalgamate(NewLog().Hooks()...)
	res, err := chain.Invoke(context.Background(), loadCall(testLoader(t), domain.TagString, produce("x")))
	require.NoError(t, err)
	assert.Equal(t, domain.Produced("x"), res)

	out := buf.String()
	assert.Contains(t, out, "call")
	assert.Contains(t, out, "done")
	assert.Contains(t, out, "site=load")
	assert.Contains(t, out, "iris/loader[0]:text")
}

func TestLog_QuietWhenNotVerbose(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(os.Stderr) })

	chain := advice.Amalgamate(NewLog().Hooks()...)
	_, err := chain.Invoke(context.Background(), loadCall(testLoader(t), domain.TagString, produce("x")))
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "declined", describe(domain.Decline()))
	assert.Equal(t, "string", describe(domain.Produced("x")))
	assert.Equal(t, "int", describe(3))
}

func TestSubject(t *testing.T) {
	l := testLoader(t)
	assert.Equal(t, "iris/loader[0]:text", subject(advice.Advised{Args: []any{l}}))
	assert.Equal(t, "dataset iris", subject(advice.Advised{Args: []any{l.Dataset()}}))
	assert.Equal(t, "loader csv", subject(advice.Advised{Args: []any{"loader", nil, "csv", nil}}))
	assert.Equal(t, "", subject(advice.Advised{}))
	assert.Equal(t, "iris", datasetOf(advice.Advised{Args: []any{l}}))
}

func TestMetrics_CountsOutcomes(t *testing.T) {
	m := NewMetrics()
	chain := advice.Amalgamate(m.Hooks()...)
	ctx := context.Background()
	l := testLoader(t)

	_, err := chain.Invoke(ctx, loadCall(l, domain.TagString, produce("x")))
	require.NoError(t, err)
	_, err = chain.Invoke(ctx, loadCall(l, domain.TagString, func(context.Context, []any, map[string]any) (any, error) {
		return domain.Decline(), nil
	}))
	require.NoError(t, err)
	_, err = chain.Invoke(ctx, loadCall(l, domain.TagString, func(context.Context, []any, map[string]any) (any, error) {
		return nil, errors.New("boom")
	}))
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Calls.WithLabelValues("load", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Calls.WithLabelValues("load", OutcomeDeclined)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Calls.WithLabelValues("load", OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Loads.WithLabelValues("iris", OutcomeDeclined)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Duration))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	chain := advice.Amalgamate(m.Hooks()...)
	_, err := chain.Invoke(context.Background(), advice.Call{
		Site:   advice.SiteParseIdentifier,
		Args:   []any{"iris"},
		Action: func(context.Context, []any, map[string]any) (any, error) { return "ok", nil },
	})
	require.NoError(t, err)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `datacat_advised_calls_total{outcome="ok",site="parse-identifier"} 1`)
}

func TestThrottle_CanceledContextFails(t *testing.T) {
	th := NewThrottle(0.001, 1)
	chain := advice.Amalgamate(th.Hooks()...)
	l := testLoader(t)

	_, err := chain.Invoke(context.Background(), loadCall(l, domain.TagString, produce("x")))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = chain.Invoke(ctx, loadCall(l, domain.TagString, produce("x")))
	require.ErrorIs(t, err, domain.ErrAdviceFailure)
	var f *advice.Failure
	require.ErrorAs(t, err, &f)
	assert.Contains(t, f.Error(), "throttled")
}

func TestThrottle_Unlimited(t *testing.T) {
	chain := advice.Amalgamate(NewThrottle(0, 0).Hooks()...)
	l := testLoader(t)
	for i := 0; i < 100; i++ {
		_, err := chain.Invoke(context.Background(), loadCall(l, domain.TagString, produce(i)))
		require.NoError(t, err)
	}
}

func TestThrottle_IgnoresOtherSites(t *testing.T) {
	chain := advice.Amalgamate(NewThrottle(0.001, 1).Hooks()...)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := chain.Invoke(ctx, advice.Call{
		Site:   advice.SiteToSpec,
		Args:   []any{nil},
		Action: func(context.Context, []any, map[string]any) (any, error) { return map[string]any{}, nil },
	})
	assert.NoError(t, err)
}

func TestDeadline_BoundsAction(t *testing.T) {
	chain := advice.Amalgamate(NewDeadline(10 * time.Millisecond).Hooks()...)
	l := testLoader(t)

	_, err := chain.Invoke(context.Background(), loadCall(l, domain.TagString, func(ctx context.Context, _ []any, _ map[string]any) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDeadline_ZeroTimeoutLeavesContext(t *testing.T) {
	chain := advice.Amalgamate(NewDeadline(0).Hooks()...)
	res, err := chain.Invoke(context.Background(), loadCall(testLoader(t), domain.TagString, func(ctx context.Context, _ []any, _ map[string]any) (any, error) {
		_, has := ctx.Deadline()
		return has, nil
	}))
	require.NoError(t, err)
	assert.Equal(t, false, res)
}

func TestMemorise_CachesProducedResults(t *testing.T) {
	m := NewMemorise()
	chain := advice.Amalgamate(m.Hooks()...)
	l := testLoader(t)
	calls := 0
	action := func(context.Context, []any, map[string]any) (any, error) {
		calls++
		return domain.Produced(calls), nil
	}

	first, err := chain.Invoke(context.Background(), loadCall(l, domain.TagString, action))
	require.NoError(t, err)
	second, err := chain.Invoke(context.Background(), loadCall(l, domain.TagString, action))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, m.Len())

	_, err = chain.Invoke(context.Background(), loadCall(l, domain.TagLines, action))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	m.Forget()
	assert.Zero(t, m.Len())
	_, err = chain.Invoke(context.Background(), loadCall(l, domain.TagString, action))
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestMemorise_DoesNotCacheDeclines(t *testing.T) {
	m := NewMemorise()
	chain := advice.Amalgamate(m.Hooks()...)
	l := testLoader(t)
	calls := 0
	action := func(context.Context, []any, map[string]any) (any, error) {
		calls++
		return domain.Decline(), nil
	}
	for i := 0; i < 3; i++ {
		_, err := chain.Invoke(context.Background(), loadCall(l, domain.TagString, action))
		require.NoError(t, err)
	}
	assert.Equal(t, 3, calls)
	assert.Zero(t, m.Len())
}

func TestMemorise_DoesNotCacheHandles(t *testing.T) {
	m := NewMemorise()
	chain := advice.Amalgamate(m.Hooks()...)
	l := testLoader(t)
	calls := 0
	action := func(context.Context, []any, map[string]any) (any, error) {
		calls++
		return domain.Produced(strings.NewReader("hello")), nil
	}

	first, err := chain.Invoke(context.Background(), loadCall(l, domain.TagReader, action))
	require.NoError(t, err)
	second, err := chain.Invoke(context.Background(), loadCall(l, domain.TagReader, action))
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.Zero(t, m.Len())
	a, _ := first.(domain.LoadResult).Value()
	b, _ := second.(domain.LoadResult).Value()
	assert.NotSame(t, a, b)
}

func TestDefaults_FillsTransformerParams(t *testing.T) {
	rt := services.NewRuntime(nil, nil)
	defer rt.Close()
	require.NoError(t, rt.RegisterExtension(NewDefaults()))

	spec := map[string]any{
		domain.KeyVersion: 0,
		domain.KeyPlugins: []any{"defaults"},
		domain.KeyConfig: map[string]any{
			"defaults": map[string]any{
				"loader": map[string]any{"lines": map[string]any{"skip": int64(1), "encoding": "utf-8"}},
			},
		},
		"iris": []any{
			map[string]any{"loader": map[string]any{"driver": "lines"}},
			map[string]any{"loader": []any{map[string]any{"driver": "lines", "skip": int64(0)}, map[string]any{"driver": "json"}}},
		},
	}
	cat, err := rt.BuildCatalog(context.Background(), spec, "")
	require.NoError(t, err)

	datasets := cat.DatasetsNamed("iris")
	require.Len(t, datasets, 2)

	first := datasets[0].Loaders()[0]
	assert.Equal(t, int64(1), first.Parameters["skip"])
	assert.Equal(t, "utf-8", first.Parameters["encoding"])

	second := datasets[1].Loaders()
	assert.Equal(t, int64(0), second[0].Parameters["skip"])
	assert.Equal(t, "utf-8", second[0].Parameters["encoding"])
	assert.NotContains(t, second[1].Parameters, "encoding")
}

func TestDefaults_NoConfigIsIdentity(t *testing.T) {
	chain := advice.Amalgamate(NewDefaults().Hooks()...)
	spec := map[string]any{"iris": map[string]any{}}
	var seen map[string]any
	_, err := chain.Invoke(context.Background(), advice.Call{
		Site: advice.SiteFromSpec,
		Args: []any{"catalog", nil, "demo", spec},
		Action: func(_ context.Context, args []any, _ map[string]any) (any, error) {
			seen = args[3].(map[string]any)
			return nil, nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, spec, seen)
}

func TestSet_RegistersEverything(t *testing.T) {
	rt := services.NewRuntime(nil, nil)
	defer rt.Close()
	set := NewSet(Options{ThrottleRate: 10, ThrottleBurst: 2, Deadline: time.Second})
	require.NoError(t, set.Register(rt))

	var names []string
	for _, p := range rt.Plugins() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"log", "metrics", "throttle", "deadline", "defaults", "memorise"}, names)
}

package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/datacat/internal/core/advice"
	"github.com/custodia-labs/datacat/internal/core/domain"
)

var tagHandle = domain.TypeTag{Namespace: "test", Name: "handle"}

// handleValue is a read handle that records being closed.
type handleValue struct {
	text   string
	closed atomic.Bool
}

func (h *handleValue) Close() error {
	h.closed.Store(true)
	return nil
}

// writeBuffer is a write handle that records being closed.
type writeBuffer struct {
	bytes.Buffer
	closed bool
}

func (b *writeBuffer) Close() error {
	b.closed = true
	return nil
}

// memStorage serves the "value" parameter and captures writes by "key".
type memStorage struct {
	mu      sync.Mutex
	opened  []*handleValue
	written map[string]*writeBuffer
}

func newMemStorage() *memStorage {
	return &memStorage{written: map[string]*writeBuffer{}}
}

func (s *memStorage) Name() string                  { return "mem" }
func (s *memStorage) OutputTypes() []domain.TypeTag { return []domain.TypeTag{tagHandle} }
func (s *memStorage) WriteTypes() []domain.TypeTag  { return []domain.TypeTag{domain.TagWriter} }

func (s *memStorage) Open(_ context.Context, st *domain.Transformer, _ domain.TypeTag, write bool) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if write {
		buf := &writeBuffer{}
		s.written[st.StringParam("key")] = buf
		return buf, nil
	}
	v, ok := st.Param("value")
	if !ok {
		return nil, nil
	}
	h := &handleValue{text: fmt.Sprint(v)}
	s.opened = append(s.opened, h)
	return h, nil
}

func (s *memStorage) handles() []*handleValue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*handleValue(nil), s.opened...)
}

func (s *memStorage) output(key string) *writeBuffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written[key]
}

// roStorage is a read-only storage.
type roStorage struct{}

func (roStorage) Name() string                  { return "ro" }
func (roStorage) OutputTypes() []domain.TypeTag { return []domain.TypeTag{tagHandle} }

func (roStorage) Open(_ context.Context, st *domain.Transformer, _ domain.TypeTag, _ bool) (any, error) {
	return &handleValue{text: st.StringParam("value")}, nil
}

// upperLoader upper-cases the handle text, or declines when "decline" is set.
type upperLoader struct{}

func (upperLoader) Name() string                  { return "upper" }
func (upperLoader) InputTypes() []domain.TypeTag  { return []domain.TypeTag{tagHandle} }
func (upperLoader) OutputTypes() []domain.TypeTag { return []domain.TypeTag{domain.TagString} }

func (upperLoader) Load(_ context.Context, l *domain.Transformer, h any, _ domain.TypeTag) (domain.LoadResult, error) {
	if l.BoolParam("decline", false) {
		return domain.Decline(), nil
	}
	if l.BoolParam("fail", false) {
		return domain.LoadResult{}, fmt.Errorf("loader exploded")
	}
	return domain.Produced(strings.ToUpper(h.(*handleValue).text)), nil
}

// splitLoader splits the handle text into fields.
type splitLoader struct{}

func (splitLoader) Name() string                  { return "split" }
func (splitLoader) InputTypes() []domain.TypeTag  { return []domain.TypeTag{tagHandle} }
func (splitLoader) OutputTypes() []domain.TypeTag { return []domain.TypeTag{domain.TagLines} }

func (splitLoader) Load(_ context.Context, _ *domain.Transformer, h any, _ domain.TypeTag) (domain.LoadResult, error) {
	return domain.Produced(strings.Fields(h.(*handleValue).text)), nil
}

// sinkWriter prints string values to an io.Writer handle.
type sinkWriter struct{}

func (sinkWriter) Name() string                  { return "sink" }
func (sinkWriter) ValueTypes() []domain.TypeTag  { return []domain.TypeTag{domain.TagString} }
func (sinkWriter) HandleTypes() []domain.TypeTag { return []domain.TypeTag{domain.TagWriter} }

func (sinkWriter) Write(_ context.Context, _ *domain.Transformer, h any, value any) error {
	_, err := fmt.Fprint(h.(io.Writer), value)
	return err
}

// testExtension is a named set of hooks.
type testExtension struct {
	name  string
	hooks []advice.Hook
}

func (e testExtension) Name() string         { return e.name }
func (e testExtension) Hooks() []advice.Hook { return e.hooks }

func newTestRuntime(t *testing.T) (*Runtime, *memStorage) {
	t.Helper()
	mem := newMemStorage()
	d := NewDrivers()
	d.RegisterStorage(mem)
	d.RegisterStorage(roStorage{})
	d.RegisterLoader(upperLoader{})
	d.RegisterLoader(splitLoader{})
	d.RegisterWriter(sinkWriter{})
	rt := NewRuntime(nil, d)
	t.Cleanup(func() { _ = rt.Close() })
	return rt, mem
}

func newTestDataset(t *testing.T, plugins ...string) *domain.Dataset {
	t.Helper()
	cat := domain.NewCatalog("test", "c-1")
	cat.Plugins = plugins
	ds := domain.NewDataset("iris", "d-1")
	require.NoError(t, cat.AddDataset(ds))
	return ds
}

func addTransformer(t *testing.T, ds *domain.Dataset, kind domain.TransformerKind, driver string, priority int, params map[string]any) *domain.Transformer {
	t.Helper()
	tr := domain.NewTransformer(kind, driver)
	tr.Priority = priority
	for k, v := range params {
		tr.Parameters[k] = v
	}
	require.NoError(t, ds.AddTransformer(tr))
	return tr
}

// recordingHook appends the first argument of every call at site to seen.
func recordingHook(site advice.Site, mu *sync.Mutex, seen *[]any) advice.Hook {
	return advice.NewHook(0, func(_ context.Context, in advice.Advised) (advice.Advised, error) {
		mu.Lock()
		*seen = append(*seen, in.Arg(0))
		mu.Unlock()
		return in, nil
	}, advice.On(site))
}

// shapeStorage serves the "value" parameter as whichever handle type is
// requested.
type shapeStorage struct{}

func (shapeStorage) Name() string { return "shape" }
func (shapeStorage) OutputTypes() []domain.TypeTag {
	return []domain.TypeTag{domain.TagPath, domain.TagReader, domain.TagString}
}

func (shapeStorage) Open(_ context.Context, st *domain.Transformer, as domain.TypeTag, _ bool) (any, error) {
	v := st.StringParam("value")
	switch as {
	case domain.TagPath:
		return domain.FilePath(v), nil
	case domain.TagReader:
		return strings.NewReader(v), nil
	default:
		return v, nil
	}
}

// wrongLoader claims core.string but produces an int.
type wrongLoader struct{}

func (wrongLoader) Name() string                  { return "wrong" }
func (wrongLoader) InputTypes() []domain.TypeTag  { return []domain.TypeTag{tagHandle} }
func (wrongLoader) OutputTypes() []domain.TypeTag { return []domain.TypeTag{domain.TagString} }

func (wrongLoader) Load(context.Context, *domain.Transformer, any, domain.TypeTag) (domain.LoadResult, error) {
	return domain.Produced(42), nil
}

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	args := m.Called(ctx, key)
	if v := args.Get(0); v != nil {
		return v.([]byte), args.Bool(1), args.Error(2)
	}
	return nil, args.Bool(1), args.Error(2)
}

func (m *MockStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if v := args.Get(0); v != nil {
		return v.([]float32), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if v := args.Get(0); v != nil {
		return v.([][]float32), args.Error(1)
	}
	return nil, args.Error(1)
}

// memoryStore is an in-process Store for round-trip tests.
type memoryStore map[string][]byte

func (s memoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s[key]
	return v, ok, nil
}

func (s memoryStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s[key] = value
	return nil
}

func TestCachedEmbedder_Embed_MissThenHit(t *testing.T) {
	next := new(MockEmbedder)
	next.On("Embed", mock.Anything, "solar").Return([]float32{0.5, -1.25}, nil).Once()

	c := NewCachedEmbedder(next, memoryStore{}, "model-a", time.Hour, zap.NewNop())

	first, err := c.Embed(context.Background(), "solar")
	require.NoError(t, err)
	second, err := c.Embed(context.Background(), "solar")
	require.NoError(t, err)

	assert.Equal(t, []float32{0.5, -1.25}, first)
	assert.Equal(t, first, second)
	next.AssertExpectations(t)
}

func TestCachedEmbedder_EmbedBatch_OnlyMisses(t *testing.T) {
	store := memoryStore{}
	next := new(MockEmbedder)
	c := NewCachedEmbedder(next, store, "model-a", time.Hour, zap.NewNop())

	next.On("Embed", mock.Anything, "b").Return([]float32{2}, nil).Once()
	_, err := c.Embed(context.Background(), "b")
	require.NoError(t, err)

	next.On("EmbedBatch", mock.Anything, []string{"a", "c"}).Return([][]float32{{1}, {3}}, nil).Once()

	out, err := c.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}, {2}, {3}}, out)
	next.AssertExpectations(t)
}

// batchMemoryStore is a memoryStore that also supports batched access and
// counts single-key calls.
type batchMemoryStore struct {
	memoryStore
	singleCalls int
	getMany     int
	setMany     int
}

func (s *batchMemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.singleCalls++
	return s.memoryStore.Get(ctx, key)
}

func (s *batchMemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.singleCalls++
	return s.memoryStore.Set(ctx, key, value, ttl)
}

func (s *batchMemoryStore) GetMany(_ context.Context, keys []string) ([][]byte, error) {
	s.getMany++
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = s.memoryStore[k]
	}
	return out, nil
}

func (s *batchMemoryStore) SetMany(_ context.Context, values map[string][]byte, _ time.Duration) error {
	s.setMany++
	for k, v := range values {
		s.memoryStore[k] = v
	}
	return nil
}

func TestCachedEmbedder_EmbedBatch_UsesBatchStore(t *testing.T) {
	store := &batchMemoryStore{memoryStore: memoryStore{}}
	next := new(MockEmbedder)
	c := NewCachedEmbedder(next, store, "model-a", time.Hour, zap.NewNop())

	next.On("EmbedBatch", mock.Anything, []string{"a", "b"}).Return([][]float32{{1}, {2}}, nil).Once()
	_, err := c.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)

	next.On("EmbedBatch", mock.Anything, []string{"c"}).Return([][]float32{{3}}, nil).Once()
	out, err := c.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)

	assert.Equal(t, [][]float32{{1}, {2}, {3}}, out)
	assert.Equal(t, 2, store.getMany)
	assert.Equal(t, 2, store.setMany)
	assert.Zero(t, store.singleCalls)
	next.AssertExpectations(t)
}

func TestCachedEmbedder_EmbedBatch_AllHits(t *testing.T) {
	store := memoryStore{}
	next := new(MockEmbedder)
	c := NewCachedEmbedder(next, store, "model-a", time.Hour, zap.NewNop())

	next.On("EmbedBatch", mock.Anything, []string{"x"}).Return([][]float32{{7}}, nil).Once()
	_, err := c.EmbedBatch(context.Background(), []string{"x"})
	require.NoError(t, err)

	out, err := c.EmbedBatch(context.Background(), []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{7}}, out)
	next.AssertExpectations(t)
}

func TestCachedEmbedder_NamespacesKeys(t *testing.T) {
	store := memoryStore{}
	a := new(MockEmbedder)
	b := new(MockEmbedder)
	a.On("Embed", mock.Anything, "same").Return([]float32{1}, nil).Once()
	b.On("Embed", mock.Anything, "same").Return([]float32{2}, nil).Once()

	va, err := NewCachedEmbedder(a, store, "model-a", 0, nil).Embed(context.Background(), "same")
	require.NoError(t, err)
	vb, err := NewCachedEmbedder(b, store, "model-b", 0, nil).Embed(context.Background(), "same")
	require.NoError(t, err)

	assert.Equal(t, []float32{1}, va)
	assert.Equal(t, []float32{2}, vb)
	assert.Len(t, store, 2)
}

func TestCachedEmbedder_StoreFailuresFallThrough(t *testing.T) {
	store := new(MockStore)
	store.On("Get", mock.Anything, mock.Anything).Return(nil, false, errors.New("connection refused"))
	store.On("Set", mock.Anything, mock.Anything, mock.Anything, DefaultTTL).Return(errors.New("connection refused"))

	next := new(MockEmbedder)
	next.On("Embed", mock.Anything, "solar").Return([]float32{1, 2}, nil)

	v, err := NewCachedEmbedder(next, store, "m", 0, zap.NewNop()).Embed(context.Background(), "solar")

	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, v)
	store.AssertExpectations(t)
}

func TestCachedEmbedder_CorruptEntry(t *testing.T) {
	store := new(MockStore)
	store.On("Get", mock.Anything, mock.Anything).Return([]byte{1, 2, 3}, true, nil)
	store.On("Set", mock.Anything, mock.Anything, mock.Anything, time.Minute).Return(nil)

	next := new(MockEmbedder)
	next.On("Embed", mock.Anything, "solar").Return([]float32{4}, nil)

	v, err := NewCachedEmbedder(next, store, "m", time.Minute, zap.NewNop()).Embed(context.Background(), "solar")

	require.NoError(t, err)
	assert.Equal(t, []float32{4}, v)
	next.AssertExpectations(t)
}

func TestCachedEmbedder_PropagatesEmbedErrors(t *testing.T) {
	next := new(MockEmbedder)
	next.On("EmbedBatch", mock.Anything, []string{"a"}).Return(nil, errors.New("rate limited"))

	_, err := NewCachedEmbedder(next, memoryStore{}, "m", 0, nil).EmbedBatch(context.Background(), []string{"a"})
	assert.Error(t, err)
}

func TestVectorEncoding(t *testing.T) {
	v := []float32{0, 1.5, -3.25, 1e-7}
	decoded, err := decodeVector(encodeVector(v))
	require.NoError(t, err)
	assert.Equal(t, v, decoded)

	_, err = decodeVector(nil)
	assert.Error(t, err)
}

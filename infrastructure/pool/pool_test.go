package pool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowfarm/domain/model"
)

type stubStore struct {
	lanes []model.Lane
	err   error
}

func (s *stubStore) ListAll(context.Context) ([]model.Lane, error) {
	return s.lanes, s.err
}

func (s *stubStore) FindByName(_ context.Context, name string) (*model.Lane, error) {
	if s.err != nil {
		return nil, s.err
	}
	for i := range s.lanes {
		if s.lanes[i].Name == name {
			return &s.lanes[i], nil
		}
	}
	return nil, nil
}

func (s *stubStore) Save(context.Context, *model.Lane) error { return nil }
func (s *stubStore) Delete(context.Context, string) error    { return nil }

func threeLanes() []model.Lane {
	return []model.Lane{{Name: "alpha"}, {Name: "beta"}, {Name: "gamma"}}
}

func TestNextRoundRobinFairness(t *testing.T) {
	p := New(model.Lane{})
	require.NoError(t, p.Load(context.Background(), &stubStore{lanes: threeLanes()}, nil))

	counts := map[string]int{}
	for i := 0; i < 9; i++ {
		counts[p.Next().Name]++
	}
	assert.Equal(t, map[string]int{"alpha": 3, "beta": 3, "gamma": 3}, counts)
}

func TestNextEmptyPoolReturnsFallback(t *testing.T) {
	p := New(model.Lane{Cookies: "ambient"})
	lane := p.Next()
	assert.Equal(t, "default", lane.Name, "unnamed fallback gets the default name")
	assert.Equal(t, "ambient", lane.Cookies)
}

func TestByName(t *testing.T) {
	p := New(model.Lane{})
	require.NoError(t, p.Load(context.Background(), &stubStore{lanes: threeLanes()}, nil))

	assert.Equal(t, "beta", p.ByName("beta").Name)
	// Unknown name degrades to round-robin instead of failing.
	lane := p.ByName("missing")
	assert.Contains(t, []string{"alpha", "beta", "gamma"}, lane.Name)
}

func TestLoadNamedSubsetSkipsUnknown(t *testing.T) {
	p := New(model.Lane{})
	require.NoError(t, p.Load(context.Background(), &stubStore{lanes: threeLanes()}, []string{"alpha", "nope", "gamma"}))
	assert.Equal(t, []string{"alpha", "gamma"}, p.Names())
	assert.Equal(t, 2, p.Size())
}

func TestLoadResetsCursor(t *testing.T) {
	p := New(model.Lane{})
	require.NoError(t, p.Load(context.Background(), &stubStore{lanes: threeLanes()}, nil))
	p.Next()
	p.Next()
	require.NoError(t, p.Load(context.Background(), &stubStore{lanes: threeLanes()}, nil))
	assert.Equal(t, "alpha", p.Next().Name)
}

func TestLoadStoreError(t *testing.T) {
	p := New(model.Lane{})
	err := p.Load(context.Background(), &stubStore{err: errors.New("disk gone")}, nil)
	assert.Error(t, err)
}

func TestUpdateBearer(t *testing.T) {
	p := New(model.Lane{})
	require.NoError(t, p.Load(context.Background(), &stubStore{lanes: threeLanes()}, nil))

	p.UpdateBearer("beta", "fresh-token")
	lane := p.ByName("beta")
	assert.Equal(t, "fresh-token", lane.BearerToken)
	assert.False(t, lane.BearerStale())
}

func TestUpdateBearerFallback(t *testing.T) {
	p := New(model.Lane{})
	p.UpdateBearer("default", "fresh-token")
	assert.Equal(t, "fresh-token", p.Next().BearerToken)
}

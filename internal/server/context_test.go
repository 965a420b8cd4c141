package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/sessionbill/internal/billing"
	"github.com/teemow/sessionbill/internal/invoicing"
)

type stubRunner struct{}

func (stubRunner) Run(context.Context, invoicing.RunOptions) (*invoicing.Report, error) {
	return &invoicing.Report{}, nil
}

func TestNewServerContext_RequiresFactory(t *testing.T) {
	_, err := NewServerContext(context.Background(), Options{})
	require.Error(t, err)
}

func TestNewServerContext_Defaults(t *testing.T) {
	sc, err := NewServerContext(context.Background(), Options{
		Factory: func(context.Context) (Runner, error) { return stubRunner{}, nil },
	})
	require.NoError(t, err)
	defer sc.Shutdown()

	assert.Equal(t, time.UTC, sc.Location())
	assert.Equal(t, billing.PolicySkip, sc.ErrorPolicy())
	assert.NotNil(t, sc.Logger())
	assert.Nil(t, sc.Metrics())
}

func TestServerContext_RunnerIsCached(t *testing.T) {
	calls := 0
	sc, err := NewServerContext(context.Background(), Options{
		Factory: func(context.Context) (Runner, error) {
			calls++
			return stubRunner{}, nil
		},
	})
	require.NoError(t, err)
	defer sc.Shutdown()

	r1, err := sc.Runner()
	require.NoError(t, err)
	r2, err := sc.Runner()
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Equal(t, 1, calls)
}

func TestServerContext_RunnerRetriesAfterFailure(t *testing.T) {
	fail := true
	sc, err := NewServerContext(context.Background(), Options{
		Factory: func(context.Context) (Runner, error) {
			if fail {
				return nil, errors.New("no token")
			}
			return stubRunner{}, nil
		},
	})
	require.NoError(t, err)
	defer sc.Shutdown()

	_, err = sc.Runner()
	require.EqualError(t, err, "no token")

	fail = false
	r, err := sc.Runner()
	require.NoError(t, err)
	assert.NotNil(t, r)
}

func TestServerContext_Shutdown(t *testing.T) {
	sc, err := NewServerContext(context.Background(), Options{
		Factory: func(context.Context) (Runner, error) { return stubRunner{}, nil },
	})
	require.NoError(t, err)

	require.NoError(t, sc.Shutdown())
	require.NoError(t, sc.Shutdown())
	assert.True(t, sc.IsShutdown())
	assert.Error(t, sc.Context().Err())

	_, err = sc.Runner()
	assert.Error(t, err)
}

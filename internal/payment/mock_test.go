package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProviderAlwaysSucceeds(t *testing.T) {
	m := &MockProvider{SuccessRate: 1}
	for i := 0; i < 20; i++ {
		res, err := m.Process(context.Background(), uuid.New(), decimal.RequireFromString("10"))
		require.NoError(t, err)
		assert.Equal(t, StatusSuccess, res.Status)
	}
}

func TestMockProviderAlwaysFails(t *testing.T) {
	m := &MockProvider{SuccessRate: 0}
	res, err := m.Process(context.Background(), uuid.New(), decimal.RequireFromString("10"))
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, res.Status)
}

func TestMockProviderTransientErrors(t *testing.T) {
	m := &MockProvider{SuccessRate: 1, TransientRate: 1}
	_, err := m.Process(context.Background(), uuid.New(), decimal.RequireFromString("10"))

	var transient *TransientError
	require.ErrorAs(t, err, &transient)
}

func TestMockProviderHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := &MockProvider{SuccessRate: 1}
	_, err := m.Process(ctx, uuid.New(), decimal.RequireFromString("10"))
	assert.True(t, errors.Is(err, context.Canceled))
}

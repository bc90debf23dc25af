package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SAP-F-2025/grading-workflow-service/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCachedRosterProvider(t *testing.T) {
	ctx := context.Background()
	upstream := new(MockRosterProvider)
	upstream.On("GetStudentsBySection", mock.Anything, "sec-1").Return(makeRoster(3), nil).Once()

	mem := cache.NewMemoryCache()
	provider := NewCachedRosterProvider(upstream, mem, time.Minute, discardLogger())

	first, err := provider.GetStudentsBySection(ctx, "sec-1")
	require.NoError(t, err)
	second, err := provider.GetStudentsBySection(ctx, "sec-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	upstream.AssertNumberOfCalls(t, "GetStudentsBySection", 1)

	t.Run("invalidate forces a reload", func(t *testing.T) {
		upstream.On("GetStudentsBySection", mock.Anything, "sec-1").Return(makeRoster(4), nil).Once()
		require.NoError(t, provider.Invalidate(ctx, "sec-1"))

		roster, err := provider.GetStudentsBySection(ctx, "sec-1")
		require.NoError(t, err)
		assert.Len(t, roster, 4)
	})
}

func TestCachedRosterProvider_UpstreamFailure(t *testing.T) {
	upstream := new(MockRosterProvider)
	upstream.On("GetStudentsBySection", mock.Anything, "sec-9").Return(nil, errors.New("502 bad gateway"))

	mem := cache.NewMemoryCache()
	provider := NewCachedRosterProvider(upstream, mem, time.Minute, discardLogger())

	_, err := provider.GetStudentsBySection(context.Background(), "sec-9")
	require.Error(t, err)
	assert.True(t, IsDataLoad(err))
	assert.Contains(t, err.Error(), "sec-9")
	assert.Equal(t, 0, mem.Len(), "failures are not cached")
}

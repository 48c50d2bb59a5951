package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"kitchen_sync/internal/config"
	"kitchen_sync/internal/domain"
	"kitchen_sync/pkg/logger"
)

// fakeLimitRepo — линеаризуемый счётчик в памяти вместо Redis.
type fakeLimitRepo struct {
	mu      sync.Mutex
	counts  map[string]int64
	expires map[string]time.Time
	err     error
}

func newFakeLimitRepo() *fakeLimitRepo {
	return &fakeLimitRepo{
		counts:  make(map[string]int64),
		expires: make(map[string]time.Time),
	}
}

func (r *fakeLimitRepo) Consume(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return 0, 0, r.err
	}

	now := time.Now()
	if exp, ok := r.expires[key]; !ok || now.After(exp) {
		r.counts[key] = 0
		r.expires[key] = now.Add(window)
	}
	r.counts[key]++

	return r.counts[key], time.Until(r.expires[key]), nil
}

func (r *fakeLimitRepo) Block(ctx context.Context, key string, blockDuration time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expires[key] = time.Now().Add(blockDuration)
	return nil
}

func (r *fakeLimitRepo) expireNow(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expires[key] = time.Now().Add(-time.Millisecond)
}

func newTestLimiter(repo *fakeLimitRepo, points int, window time.Duration) RateLimitService {
	return NewRateLimitService(repo, config.RateLimitConfig{
		Points:          points,
		Window:          window,
		InsurancePoints: 1,
		InsuranceWindow: time.Second,
	}, logger.New("error"))
}

func TestRateLimit_BudgetAndReset(t *testing.T) {
	repo := newFakeLimitRepo()
	limiter := newTestLimiter(repo, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := limiter.Consume(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, 3, result.Limit)
		assert.Equal(t, 3-(i+1), result.Remaining)
		assert.False(t, result.ResetAt.IsZero())
	}

	_, err := limiter.Consume(ctx, "user-1")
	var exceeded *domain.LimitExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, 0, exceeded.Result.Remaining)
	assert.Greater(t, exceeded.Result.MsBeforeNext(), int64(0))

	// После истечения окна бюджет восстанавливается.
	repo.expireNow(domain.RateLimitKey("client-events", "user-1"))
	result, err := limiter.Consume(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Remaining)
}

func TestRateLimit_NoOverAdmissionUnderConcurrency(t *testing.T) {
	const n = 20
	repo := newFakeLimitRepo()
	limiter := newTestLimiter(repo, n, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	var successes, failures int64
	var mu sync.Mutex
	for i := 0; i < n+5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := limiter.Consume(ctx, "user-1")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else {
				failures++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(n), successes)
	assert.Equal(t, int64(5), failures)
}

func TestRateLimit_MetadataPresentOnSuccess(t *testing.T) {
	repo := newFakeLimitRepo()
	limiter := newTestLimiter(repo, 100, time.Hour)

	result, err := limiter.Consume(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 100, result.Limit)
	assert.Equal(t, 99, result.Remaining)
	assert.Greater(t, result.RetryAfter, time.Duration(0))
	assert.True(t, result.ResetAt.After(time.Now()))
}

func TestRateLimit_InsuranceFallbackOnStoreOutage(t *testing.T) {
	repo := newFakeLimitRepo()
	repo.err = errors.New("redis: connection refused")
	limiter := newTestLimiter(repo, 100, time.Hour)
	ctx := context.Background()

	// Сбой хранилища не отдаётся наружу: первый запрос проходит
	// через страховочный бюджет (1 точка в секунду).
	result, err := limiter.Consume(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Limit)

	_, err = limiter.Consume(ctx, "user-1")
	var exceeded *domain.LimitExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Greater(t, exceeded.Result.RetryAfter, time.Duration(0))
}

func TestRateLimit_InsuranceIsPerKey(t *testing.T) {
	repo := newFakeLimitRepo()
	repo.err = errors.New("redis: connection refused")
	limiter := newTestLimiter(repo, 100, time.Hour)
	ctx := context.Background()

	_, err := limiter.Consume(ctx, "user-1")
	require.NoError(t, err)

	_, err = limiter.Consume(ctx, "user-2")
	require.NoError(t, err)
}

func TestRateLimit_KeyStripsColons(t *testing.T) {
	assert.Equal(t, "client-events:1", domain.RateLimitKey("client-events", "::1"))
}

func TestRateLimit_BlockDurationExtendsCooldown(t *testing.T) {
	repo := newFakeLimitRepo()
	limiter := NewRateLimitService(repo, config.RateLimitConfig{
		Points:          1,
		Window:          time.Minute,
		BlockDuration:   time.Hour,
		InsurancePoints: 1,
		InsuranceWindow: time.Second,
	}, logger.New("error"))
	ctx := context.Background()

	_, err := limiter.Consume(ctx, "user-1")
	require.NoError(t, err)

	_, err = limiter.Consume(ctx, "user-1")
	var exceeded *domain.LimitExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, time.Hour, exceeded.Result.RetryAfter)
}

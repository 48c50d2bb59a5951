package service

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"kitchen_sync/internal/config"
	"kitchen_sync/internal/domain"
	"kitchen_sync/internal/repository"
	"kitchen_sync/pkg/logger"
)

// RateLimitService ведёт распределённый счётчик в Redis. Когда общий счётчик
// недоступен, запрос уходит в страховочный лимитер с малым локальным бюджетом:
// при сбое хранилища система деградирует в сторону жёсткого троттлинга,
// а не безлимитного доступа.
type RateLimitService interface {
	Consume(ctx context.Context, callerID string) (*domain.ConsumeResult, error)
	StartJanitor(ctx context.Context, every time.Duration)
}

type rateLimitService struct {
	repo      repository.RateLimitRepository
	policy    domain.RateLimitPolicy
	insurance *insuranceLimiter
	log       logger.Logger
}

func NewRateLimitService(repo repository.RateLimitRepository, cfg config.RateLimitConfig, log logger.Logger) RateLimitService {
	return &rateLimitService{
		repo: repo,
		policy: domain.RateLimitPolicy{
			Name:          "client-events",
			Points:        cfg.Points,
			Duration:      cfg.Window,
			BlockDuration: cfg.BlockDuration,
		},
		insurance: newInsuranceLimiter(cfg.InsurancePoints, cfg.InsuranceWindow),
		log:       log,
	}
}

func (s *rateLimitService) Consume(ctx context.Context, callerID string) (*domain.ConsumeResult, error) {
	key := domain.RateLimitKey(s.policy.Name, callerID)

	count, ttl, err := s.repo.Consume(ctx, key, s.policy.Duration)
	if err != nil {
		// Сбой хранилища — не отказ лимита. Деградируем молча, только лог.
		s.log.Warn("Rate limit store unavailable, falling back to insurance limiter", "error", err)
		return s.insurance.Consume(callerID)
	}

	result := &domain.ConsumeResult{
		Limit:      s.policy.Points,
		Remaining:  s.policy.Points - int(count),
		ResetAt:    time.Now().Add(ttl),
		RetryAfter: ttl,
	}
	if result.Remaining < 0 {
		result.Remaining = 0
	}

	if int(count) > s.policy.Points {
		if s.policy.BlockDuration > 0 && int(count) == s.policy.Points+1 {
			if err := s.repo.Block(ctx, key, s.policy.BlockDuration); err == nil {
				result.RetryAfter = s.policy.BlockDuration
				result.ResetAt = time.Now().Add(s.policy.BlockDuration)
			}
		}
		return nil, &domain.LimitExceededError{Result: *result}
	}

	return result, nil
}

// insuranceLimiter — локальный лимитер на x/time/rate с кэшем по ключу.
// Его состояние не разделяется между инстансами — осознанное приближение
// на время недоступности общего счётчика.
type insuranceLimiter struct {
	mu      sync.Mutex
	entries map[string]*insuranceEntry
	points  int
	window  time.Duration
	idleTTL time.Duration
}

type insuranceEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newInsuranceLimiter(points int, window time.Duration) *insuranceLimiter {
	return &insuranceLimiter{
		entries: make(map[string]*insuranceEntry),
		points:  points,
		window:  window,
		idleTTL: 15 * time.Minute,
	}
}

func (l *insuranceLimiter) get(key string) *rate.Limiter {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if ent, ok := l.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	lim := rate.NewLimiter(rate.Every(l.window/time.Duration(l.points)), l.points)
	l.entries[key] = &insuranceEntry{lim: lim, lastSeen: now}
	return lim
}

func (l *insuranceLimiter) Consume(callerID string) (*domain.ConsumeResult, error) {
	lim := l.get(callerID)

	result := &domain.ConsumeResult{
		Limit:   l.points,
		ResetAt: time.Now().Add(l.window),
	}

	if lim.Allow() {
		result.Remaining = int(lim.Tokens())
		result.RetryAfter = l.window
		return result, nil
	}

	// Reserve даёт точное время до следующего токена; саму резервацию отменяем.
	res := lim.Reserve()
	delay := res.Delay()
	res.Cancel()

	result.Remaining = 0
	result.RetryAfter = delay
	result.ResetAt = time.Now().Add(delay)
	return nil, &domain.LimitExceededError{Result: *result}
}

// Cleanup выбрасывает ключи, не встречавшиеся дольше idleTTL.
func (l *insuranceLimiter) Cleanup() {
	cutoff := time.Now().Add(-l.idleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()

	for k, ent := range l.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(l.entries, k)
		}
	}
}

// StartJanitor периодически чистит кэш страховочного лимитера.
func (s *rateLimitService) StartJanitor(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.insurance.Cleanup()
			}
		}
	}()
}

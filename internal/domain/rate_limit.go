package domain

import (
	"strings"
	"time"
)

// RateLimitPolicy — бюджет точек на окно плюс опциональная блокировка
// после исчерпания бюджета.
type RateLimitPolicy struct {
	Name          string
	Points        int
	Duration      time.Duration
	BlockDuration time.Duration
}

type ConsumeResult struct {
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// MsBeforeNext — миллисекунды до сброса окна (или конца блокировки).
func (r ConsumeResult) MsBeforeNext() int64 {
	return r.RetryAfter.Milliseconds()
}

// LimitExceededError несёт метаданные отказа, чтобы вызывающий мог отдать
// Retry-After вместо общей ошибки.
type LimitExceededError struct {
	Result ConsumeResult
}

func (e *LimitExceededError) Error() string {
	return "rate limit exceeded"
}

// RateLimitKey строит ключ счётчика: идентичность вызывающего плюс имя политики.
// Двоеточия вырезаются, чтобы не пересекаться с разделителем пространства имён.
func RateLimitKey(policyName, callerID string) string {
	return policyName + ":" + strings.ReplaceAll(callerID, ":", "")
}

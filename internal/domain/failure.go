package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidFailure is returned when creating a failure entry with missing fields.
var ErrInvalidFailure = errors.New("invalid enrichment failure")

// ErrorCode categorizes enrichment failures for filtering and alerting
type ErrorCode string

const (
	ErrorCodeProviderTimeout     ErrorCode = "PROVIDER_TIMEOUT"
	ErrorCodeProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
	ErrorCodeProviderRateLimited ErrorCode = "PROVIDER_RATE_LIMITED"
	ErrorCodeProviderResponse    ErrorCode = "PROVIDER_RESPONSE"
	ErrorCodeStorage             ErrorCode = "STORAGE"
	ErrorCodeUnknown             ErrorCode = "UNKNOWN"
)

const (
	defaultMaxRetries     = 5
	baseRetryDelaySeconds = 60
	maxRetryDelaySeconds  = 3600 // Cap at 1 hour
)

// EnrichmentFailure represents a comment whose enrichment failed and is
// awaiting retry. The comment's signals from any earlier successful run stay
// in place; a failure entry only gates re-processing.
type EnrichmentFailure struct {
	ID            int64     `db:"id" json:"id"`
	CommentID     string    `db:"comment_id" json:"comment_id"`
	PostID        string    `db:"post_id" json:"post_id"`
	ErrorMessage  string    `db:"error_message" json:"error_message"`
	ErrorCode     ErrorCode `db:"error_code" json:"error_code"`
	RetryCount    int       `db:"retry_count" json:"retry_count"`
	MaxRetries    int       `db:"max_retries" json:"max_retries"`
	NextRetryAt   time.Time `db:"next_retry_at" json:"next_retry_at"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	LastAttemptAt time.Time `db:"last_attempt_at" json:"last_attempt_at"`
}

// NewEnrichmentFailure creates a failure entry with exponential backoff.
// Returns an error if commentID or postID is empty.
func NewEnrichmentFailure(commentID, postID, errorMsg string, errorCode ErrorCode) (*EnrichmentFailure, error) {
	if commentID == "" {
		return nil, fmt.Errorf("%w: comment_id is required", ErrInvalidFailure)
	}
	if postID == "" {
		return nil, fmt.Errorf("%w: post_id is required", ErrInvalidFailure)
	}

	now := time.Now()
	return &EnrichmentFailure{
		CommentID:     commentID,
		PostID:        postID,
		ErrorMessage:  errorMsg,
		ErrorCode:     errorCode,
		RetryCount:    0,
		MaxRetries:    defaultMaxRetries,
		NextRetryAt:   now.Add(time.Duration(baseRetryDelaySeconds) * time.Second),
		CreatedAt:     now,
		LastAttemptAt: now,
	}, nil
}

// NextRetryDelay calculates exponential backoff with cap
// Delays: 1min, 2min, 4min, 8min, 16min (capped at 1hr)
func (f *EnrichmentFailure) NextRetryDelay() time.Duration {
	multiplier := 1 << f.RetryCount // 2^retryCount
	delaySeconds := min(baseRetryDelaySeconds*multiplier, maxRetryDelaySeconds)
	return time.Duration(delaySeconds) * time.Second
}

// ShouldRetry returns true if retries remain
func (f *EnrichmentFailure) ShouldRetry() bool {
	return f.RetryCount < f.MaxRetries
}

// IsExhausted returns true if all retries have been used
func (f *EnrichmentFailure) IsExhausted() bool {
	return f.RetryCount >= f.MaxRetries
}

// IncrementRetry updates retry state for the next attempt
func (f *EnrichmentFailure) IncrementRetry(newError string) {
	f.RetryCount++
	f.LastAttemptAt = time.Now()
	f.ErrorMessage = newError
	f.NextRetryAt = time.Now().Add(f.NextRetryDelay())
}

// String returns a debug representation
func (f *EnrichmentFailure) String() string {
	return fmt.Sprintf("failure[%d] comment=%s post=%s retries=%d/%d next=%s code=%s",
		f.ID, f.CommentID, f.PostID, f.RetryCount, f.MaxRetries,
		f.NextRetryAt.Format(time.RFC3339), f.ErrorCode)
}

// FailureStats holds failure ledger statistics
type FailureStats struct {
	Pending     int64      `json:"pending"`
	Exhausted   int64      `json:"exhausted"`
	Ready       int64      `json:"ready"`
	AvgRetries  float64    `json:"avg_retries"`
	OldestEntry *time.Time `json:"oldest_entry,omitempty"`
}

// FailureCodeCount holds counts grouped by error code
type FailureCodeCount struct {
	ErrorCode ErrorCode `json:"error_code"`
	Count     int64     `json:"count"`
}

// ClassifyError maps an error to an ErrorCode based on its message.
func ClassifyError(err error) ErrorCode {
	if err == nil {
		return ErrorCodeUnknown
	}

	errStr := strings.ToLower(err.Error())

	switch {
	case containsAny(errStr, "timeout", "deadline exceeded"):
		return ErrorCodeProviderTimeout
	case containsAny(errStr, "rate limit", "too many requests", "429"):
		return ErrorCodeProviderRateLimited
	case containsAny(errStr, "connection refused", "no such host", "connection reset", "unavailable", "503", "502"):
		return ErrorCodeProviderUnavailable
	case containsAny(errStr, "malformed", "decode", "unmarshal", "unexpected response"):
		return ErrorCodeProviderResponse
	case containsAny(errStr, "sql", "database", "constraint", "transaction"):
		return ErrorCodeStorage
	default:
		return ErrorCodeUnknown
	}
}

// containsAny checks if s contains any of the substrings
func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

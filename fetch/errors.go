package fetch

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoCandidates 候选URL列表为空
	ErrNoCandidates = errors.New("fetch: no candidate urls")
	// ErrExhausted 所有URL在所有超时档位下均失败
	ErrExhausted = errors.New("fetch: all candidates failed at every timeout tier")
)

// 单次尝试的失败类型，三者处理方式相同，只用于诊断
const (
	KindTransport = "transport"
	KindStatus    = "status"
	KindBody      = "body"
)

// AttemptError 单个URL在某一档位下的失败原因
type AttemptError struct {
	URL     string
	Tier    int
	Timeout time.Duration
	Kind    string
	Status  int
	Err     error
}

func (e *AttemptError) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("%s (tier %d, %s): status %d", e.URL, e.Tier, e.Timeout, e.Status)
	}
	return fmt.Sprintf("%s (tier %d, %s): %s: %v", e.URL, e.Tier, e.Timeout, e.Kind, e.Err)
}

func (e *AttemptError) Unwrap() error {
	return e.Err
}

// ExhaustedError 最终失败，附带最后一次尝试的具体原因
type ExhaustedError struct {
	Tiers    int
	Attempts int
	Last     *AttemptError
}

func (e *ExhaustedError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("%v after %d tiers", ErrExhausted, e.Tiers)
	}
	return fmt.Sprintf("%v after %d tiers, %d attempts; last: %v", ErrExhausted, e.Tiers, e.Attempts, e.Last)
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrExhausted
}

func (e *ExhaustedError) Unwrap() error {
	if e.Last == nil {
		return nil
	}
	return e.Last
}

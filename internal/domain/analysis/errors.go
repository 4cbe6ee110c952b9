package analysis

import "errors"

// ErrQuotaExceeded indicates the daily AI call budget is spent (local, pre-call).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrProvider indicates the completion provider was unreachable or errored.
var ErrProvider = errors.New("ai provider error")

// ErrParse indicates the provider reply could not be decoded into the expected shape.
var ErrParse = errors.New("ai reply parse error")

// ErrEmptyReply indicates the provider returned no usable content.
var ErrEmptyReply = errors.New("ai reply empty")

// ErrEmptyContent rejects requests with nothing to analyze. This is the only
// error a caller of the orchestrator sees as a hard failure.
var ErrEmptyContent = errors.New("content is required")

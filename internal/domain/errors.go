package domain

import "errors"

// ErrCacheMiss indicates no cached entry was found.
var ErrCacheMiss = errors.New("cache miss")

// ErrRetryExhausted indicates that regeneration attempts ran out without a
// schema-valid response. Callers must treat it as "no usable result".
var ErrRetryExhausted = errors.New("completion retries exhausted")

// ErrSchemaValidation indicates that a response could not be parsed or
// repaired into the expected shape.
var ErrSchemaValidation = errors.New("schema validation failed")

// ErrNoQuotaMapping indicates a model name matched no configured quota key.
// Non-fatal: usage is still audited with an explicit unmapped marker.
var ErrNoQuotaMapping = errors.New("no quota mapping for model")

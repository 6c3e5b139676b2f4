package resolver

import (
	"context"
	"errors"
	"fmt"
)

// Source identifies which resolver produced a result.
type Source string

const (
	SourceLocal     Source = "local"
	SourceGeocode   Source = "geocode"
	SourceDirectory Source = "directory"
	SourceCache     Source = "cache"
)

// Query is the input to the resolution pipeline: a raw, free-text place
// string. It may carry extra words ("airport", state or country
// qualifiers) that individual resolvers normalize away.
type Query struct {
	Place string `json:"place"`
}

// Candidate is an alternate match retained for ambiguous inputs.
type Candidate struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	City       string  `json:"city"`
	Country    string  `json:"country"`
	Confidence float64 `json:"confidence"`
}

// Result is the output of a resolver. A zero Code means no match, which
// is a normal outcome, not an error.
type Result struct {
	Code          string      `json:"code,omitempty"`
	Confidence    float64     `json:"confidence"`
	Source        Source      `json:"source,omitempty"`
	Candidates    []Candidate `json:"candidates,omitempty"`
	LowConfidence bool        `json:"low_confidence,omitempty"`
}

// Empty reports whether the result carries no match at all.
func (r Result) Empty() bool {
	return r.Code == ""
}

// Resolver is a single strategy for mapping a place name to an airport
// code. Implementations return an empty Result for "nothing found" and
// reserve errors for external-dependency failures (see ServiceError).
type Resolver interface {
	Source() Source
	Resolve(ctx context.Context, query Query) (Result, error)
}

// ErrorKind classifies external-dependency failures so the orchestrator
// can tell a broken service apart from a misconfigured credential.
type ErrorKind string

const (
	// KindUnavailable covers network errors, timeouts, rate limits and
	// 5xx responses. The next resolver should be tried.
	KindUnavailable ErrorKind = "service_unavailable"
	// KindAuthFailure means the credential for an external dependency was
	// rejected. Also non-fatal to the pipeline, but it indicates a
	// configuration problem rather than a data problem.
	KindAuthFailure ErrorKind = "auth_failure"
)

// ServiceError is the tagged failure a resolver reports when an external
// dependency misbehaves. It never crosses the orchestrator boundary; the
// orchestrator converts it into a routing decision.
type ServiceError struct {
	Kind   ErrorKind
	Source Source
	Err    error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s resolver: %s: %v", e.Source, e.Kind, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Unavailable wraps err as a service-unavailable failure from source.
func Unavailable(source Source, err error) error {
	return &ServiceError{Kind: KindUnavailable, Source: source, Err: err}
}

// AuthFailure wraps err as an auth failure from source.
func AuthFailure(source Source, err error) error {
	return &ServiceError{Kind: KindAuthFailure, Source: source, Err: err}
}

// IsAuthFailure reports whether err is an auth failure from any resolver.
func IsAuthFailure(err error) bool {
	var se *ServiceError
	return errors.As(err, &se) && se.Kind == KindAuthFailure
}

// ErrUnresolved is the terminal outcome when every resolver exhausts
// without producing a single candidate.
var ErrUnresolved = errors.New("place could not be resolved to an airport code")

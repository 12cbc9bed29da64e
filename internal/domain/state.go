package domain

import "time"

// ResourcePhase discriminates the states of an asynchronously loaded resource.
type ResourcePhase string

const (
	ResourceLoading ResourcePhase = "loading"
	ResourceReady   ResourcePhase = "ready"
	ResourceFailed  ResourcePhase = "failed"
)

// ResourceState is the tagged state of one async resource such as the category list.
// Value is meaningful only when Phase is ResourceReady, Err only when ResourceFailed.
type ResourceState[T any] struct {
	Phase ResourcePhase
	Value T
	Err   error
}

// Loading constructs a loading state.
func Loading[T any]() ResourceState[T] {
	return ResourceState[T]{Phase: ResourceLoading}
}

// Ready constructs a loaded state carrying value.
func Ready[T any](value T) ResourceState[T] {
	return ResourceState[T]{Phase: ResourceReady, Value: value}
}

// Failed constructs a failed state carrying err.
func Failed[T any](err error) ResourceState[T] {
	return ResourceState[T]{Phase: ResourceFailed, Err: err}
}

// MutationStatus is the lifecycle state of a mutation for one entity identifier.
type MutationStatus string

const (
	MutationIdle       MutationStatus = "idle"
	MutationSubmitting MutationStatus = "submitting"
	MutationCommitted  MutationStatus = "committed"
	MutationRejected   MutationStatus = "rejected"
)

// Terminal reports whether the status ends a mutation attempt.
func (s MutationStatus) Terminal() bool {
	return s == MutationCommitted || s == MutationRejected
}

// MutationOp is the kind of write applied to an entity.
type MutationOp string

const (
	OpCreate MutationOp = "create"
	OpUpdate MutationOp = "update"
	OpDelete MutationOp = "delete"
)

// EntityKey identifies the entity a mutation targets. Creates use a client-side draft ID.
type EntityKey struct {
	Kind EntityKind
	ID   string
}

// String renders the key as kind/id.
func (k EntityKey) String() string {
	return string(k.Kind) + "/" + k.ID
}

// StatusEvent reports a mutation status transition for one entity key.
type StatusEvent struct {
	Key        EntityKey
	Op         MutationOp
	Status     MutationStatus
	Err        error
	OccurredAt time.Time
}

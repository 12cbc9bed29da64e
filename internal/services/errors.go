package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hanko-field/catalog-console/internal/domain"
	"github.com/hanko-field/catalog-console/internal/repositories"
)

var (
	// ErrConcurrentMutation indicates a mutation for the same entity is still submitting.
	ErrConcurrentMutation = errors.New("catalog: mutation already in flight")
	// ErrTransientService indicates a network or 5xx failure that may succeed on manual retry.
	ErrTransientService = errors.New("catalog: catalog service temporarily unavailable")
	// ErrRejectedByService indicates the catalog service refused the mutation.
	ErrRejectedByService = errors.New("catalog: rejected by catalog service")
	// ErrPartialReconciliation indicates a featured variant committed but a sibling kept its flag.
	ErrPartialReconciliation = errors.New("catalog: featured variant partially reconciled")
	// ErrInvalidMutation indicates a malformed mutation request.
	ErrInvalidMutation = errors.New("catalog: invalid mutation")
	// ErrNotLoaded indicates the requested entity is not in the current snapshot.
	ErrNotLoaded = errors.New("catalog: entity not loaded")
)

// ConcurrentMutationError rejects a submit for a key that already has one in flight.
type ConcurrentMutationError struct {
	Key domain.EntityKey
}

func (e *ConcurrentMutationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrConcurrentMutation.Error(), e.Key)
}

func (e *ConcurrentMutationError) Is(target error) bool {
	return target == ErrConcurrentMutation
}

// TransientServiceError wraps a failure that is safe to retry. It is never retried automatically.
type TransientServiceError struct {
	Key domain.EntityKey
	Op  domain.MutationOp
	Err error
}

func (e *TransientServiceError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", ErrTransientService.Error(), e.Op, e.Key, e.Err)
}

func (e *TransientServiceError) Unwrap() error { return e.Err }

func (e *TransientServiceError) Is(target error) bool {
	return target == ErrTransientService
}

// RejectedByServiceError carries the service's 4xx answer verbatim.
type RejectedByServiceError struct {
	Key     domain.EntityKey
	Op      domain.MutationOp
	Status  int
	Message string
	Err     error
}

func (e *RejectedByServiceError) Error() string {
	return fmt.Sprintf("%s: %s %s: %s", ErrRejectedByService.Error(), e.Op, e.Key, e.Message)
}

func (e *RejectedByServiceError) Unwrap() error { return e.Err }

func (e *RejectedByServiceError) Is(target error) bool {
	return target == ErrRejectedByService
}

// CompanionFailure names one sibling whose featured flag could not be cleared.
type CompanionFailure struct {
	SiblingID string
	Err       error
}

// PartialReconciliationError reports that VariantID committed as featured while the listed siblings
// may still be featured. The primary mutation is not rolled back.
type PartialReconciliationError struct {
	VariantID string
	Failures  []CompanionFailure
}

// SiblingID returns the first sibling that failed to clear.
func (e *PartialReconciliationError) SiblingID() string {
	if len(e.Failures) == 0 {
		return ""
	}
	return e.Failures[0].SiblingID
}

// SiblingIDs returns every sibling that failed to clear, in attempt order.
func (e *PartialReconciliationError) SiblingIDs() []string {
	ids := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		ids = append(ids, f.SiblingID)
	}
	return ids
}

func (e *PartialReconciliationError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s (%v)", f.SiblingID, f.Err))
	}
	return fmt.Sprintf("%s: variant %s committed, could not clear %s",
		ErrPartialReconciliation.Error(), e.VariantID, strings.Join(parts, ", "))
}

func (e *PartialReconciliationError) Is(target error) bool {
	return target == ErrPartialReconciliation
}

// Unwrap exposes each companion failure.
func (e *PartialReconciliationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// classifyServiceError turns a repository failure into TransientServiceError or RejectedByServiceError.
func classifyServiceError(key domain.EntityKey, op domain.MutationOp, err error) error {
	if repoErr, ok := repositories.AsRepositoryError(err); ok && repoErr.IsRejected() {
		message := repoErr.Error()
		var svcErr *repositories.ServiceError
		if errors.As(err, &svcErr) && svcErr.Message != "" {
			message = svcErr.Message
		}
		return &RejectedByServiceError{Key: key, Op: op, Status: repoErr.StatusCode(), Message: message, Err: err}
	}
	return &TransientServiceError{Key: key, Op: op, Err: err}
}

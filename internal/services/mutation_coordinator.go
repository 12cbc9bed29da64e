package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/hanko-field/catalog-console/internal/domain"
	"github.com/hanko-field/catalog-console/internal/hierarchy"
	"github.com/hanko-field/catalog-console/internal/repositories"
	"github.com/hanko-field/catalog-console/internal/validation"
)

const (
	tracerName            = "github.com/hanko-field/catalog-console/internal/services"
	subscriberBufferSize  = 16
	defaultDraftRetention = 5 * time.Minute
)

// MutationCoordinatorDeps bundles constructor inputs for the mutation coordinator.
type MutationCoordinatorDeps struct {
	Catalog     repositories.CatalogRepository
	Snapshot    *SnapshotStore
	Logger      *zap.Logger
	Clock       func() time.Time
	IDGenerator func() string
	Tracer      trace.Tracer

	// DraftRetention is how long a terminal status stays under a create's draft key. Zero means
	// five minutes.
	DraftRetention time.Duration
}

type mutationCoordinator struct {
	repo      repositories.CatalogRepository
	store     *SnapshotStore
	logger    *zap.Logger
	clock     func() time.Time
	newID     func() string
	tracer    trace.Tracer
	retention time.Duration

	mu          sync.Mutex
	statuses    map[domain.EntityKey]domain.MutationStatus
	expiries    map[domain.EntityKey]*time.Timer
	subscribers map[domain.EntityKey]map[uint64]chan domain.StatusEvent
	nextSubID   uint64
	// featuring holds product IDs with a featured variant write in flight.
	featuring map[string]struct{}
}

// NewMutationCoordinator wires dependencies into the coordinator.
func NewMutationCoordinator(deps MutationCoordinatorDeps) (MutationCoordinator, error) {
	if deps.Catalog == nil {
		return nil, errors.New("mutation coordinator: catalog repository is required")
	}
	if deps.Snapshot == nil {
		return nil, errors.New("mutation coordinator: snapshot store is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	retention := deps.DraftRetention
	if retention <= 0 {
		retention = defaultDraftRetention
	}
	return &mutationCoordinator{
		repo:        deps.Catalog,
		store:       deps.Snapshot,
		logger:      logger,
		clock:       func() time.Time { return clock().UTC() },
		newID:       idGen,
		tracer:      tracer,
		retention:   retention,
		statuses:    make(map[domain.EntityKey]domain.MutationStatus),
		subscribers: make(map[domain.EntityKey]map[uint64]chan domain.StatusEvent),
		featuring:   make(map[string]struct{}),
		expiries:    make(map[domain.EntityKey]*time.Timer),
	}, nil
}

func (c *mutationCoordinator) Submit(ctx context.Context, req MutationRequest) (MutationResult, error) {
	req, err := c.normalise(req)
	if err != nil {
		return MutationResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return MutationResult{}, err
	}
	if err := c.acquire(req.Key, req.Op); err != nil {
		return MutationResult{}, err
	}
	return c.await(ctx, func(runCtx context.Context) (MutationResult, error) {
		return c.execute(runCtx, req)
	})
}

// SubmitVariant commits a variant and, when it is featured, clears the flag on every other
// featured sibling. Featured writes are serialised per product: a second one for the same product
// fails with ConcurrentMutationError while the first is in flight.
func (c *mutationCoordinator) SubmitVariant(ctx context.Context, op domain.MutationOp, plan validation.VariantPlan) (MutationResult, error) {
	req, err := c.normalise(MutationRequest{
		Key:     domain.EntityKey{Kind: domain.EntityVariant, ID: plan.Variant.ID},
		Op:      op,
		Payload: plan.Variant,
	})
	if err != nil {
		return MutationResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return MutationResult{}, err
	}
	featured := op != domain.OpDelete && plan.Variant.IsFeatured
	productID := plan.Variant.ProductID
	if featured {
		if err := c.acquireFeatured(productID); err != nil {
			return MutationResult{}, err
		}
	}
	if err := c.acquire(req.Key, req.Op); err != nil {
		if featured {
			c.releaseFeatured(productID)
		}
		return MutationResult{}, err
	}
	return c.await(ctx, func(runCtx context.Context) (MutationResult, error) {
		if !featured {
			return c.execute(runCtx, req)
		}
		defer c.releaseFeatured(productID)
		res, err := c.execute(runCtx, req)
		if err != nil {
			return res, err
		}
		primary, _ := res.Entity.(domain.Variant)
		var failures []CompanionFailure
		for _, siblingID := range c.featuredSiblings(primary, plan.Companions) {
			if err := c.clearSibling(runCtx, primary.ProductID, siblingID); err != nil {
				failures = append(failures, CompanionFailure{SiblingID: siblingID, Err: err})
			}
		}
		if len(failures) > 0 {
			c.logger.Warn("featured variant left siblings featured",
				zap.String("variant_id", primary.ID),
				zap.Strings("sibling_ids", (&PartialReconciliationError{Failures: failures}).SiblingIDs()),
			)
			return res, &PartialReconciliationError{VariantID: primary.ID, Failures: failures}
		}
		return res, nil
	})
}

// featuredSiblings is the planned companions plus every sibling the current snapshot still has
// featured, ordered by identifier.
func (c *mutationCoordinator) featuredSiblings(primary domain.Variant, planned []validation.CompanionInstruction) []string {
	current := validation.FeaturedCompanions(primary.ID, c.store.Load().VariantsOf(primary.ProductID))
	seen := make(map[string]struct{}, len(planned)+len(current))
	var ids []string
	for _, companion := range append(slices.Clone(planned), current...) {
		if _, dup := seen[companion.VariantID]; dup || companion.VariantID == primary.ID {
			continue
		}
		seen[companion.VariantID] = struct{}{}
		ids = append(ids, companion.VariantID)
	}
	slices.Sort(ids)
	return ids
}

// clearSibling clears the featured flag on one sibling under its own key lock.
func (c *mutationCoordinator) clearSibling(ctx context.Context, productID, siblingID string) error {
	sibling, ok := c.store.Load().Variant(siblingID)
	if !ok || !sibling.IsFeatured || sibling.ProductID != productID {
		return nil
	}
	sibling.IsFeatured = false
	req := MutationRequest{
		Key:     domain.EntityKey{Kind: domain.EntityVariant, ID: sibling.ID},
		Op:      domain.OpUpdate,
		Payload: sibling,
	}
	if err := c.acquire(req.Key, req.Op); err != nil {
		return err
	}
	_, err := c.execute(ctx, req)
	return err
}

func (c *mutationCoordinator) acquireFeatured(productID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.featuring[productID]; busy {
		return &ConcurrentMutationError{Key: domain.EntityKey{Kind: domain.EntityProduct, ID: productID}}
	}
	c.featuring[productID] = struct{}{}
	return nil
}

func (c *mutationCoordinator) releaseFeatured(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.featuring, productID)
}

func (c *mutationCoordinator) Status(key domain.EntityKey) domain.MutationStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	if status, ok := c.statuses[key]; ok {
		return status
	}
	return domain.MutationIdle
}

func (c *mutationCoordinator) Reset(key domain.EntityKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	status, ok := c.statuses[key]
	if !ok || !status.Terminal() {
		return
	}
	c.clearLocked(key)
}

// clearLocked drops a terminal status and announces the key as idle.
func (c *mutationCoordinator) clearLocked(key domain.EntityKey) {
	if timer, ok := c.expiries[key]; ok {
		timer.Stop()
		delete(c.expiries, key)
	}
	delete(c.statuses, key)
	c.publishLocked(domain.StatusEvent{Key: key, Status: domain.MutationIdle, OccurredAt: c.clock()})
}

func (c *mutationCoordinator) Subscribe(key domain.EntityKey) (<-chan domain.StatusEvent, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSubID
	c.nextSubID++
	ch := make(chan domain.StatusEvent, subscriberBufferSize)
	if c.subscribers[key] == nil {
		c.subscribers[key] = make(map[uint64]chan domain.StatusEvent)
	}
	c.subscribers[key][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if subs, ok := c.subscribers[key]; ok {
				delete(subs, id)
				if len(subs) == 0 {
					delete(c.subscribers, key)
				}
			}
			close(ch)
		})
	}
	return ch, cancel
}

// publishLocked delivers without blocking. Events for slow or absent listeners are dropped.
func (c *mutationCoordinator) publishLocked(evt domain.StatusEvent) {
	for _, ch := range c.subscribers[evt.Key] {
		select {
		case ch <- evt:
		default:
		}
	}
}

func (c *mutationCoordinator) acquire(key domain.EntityKey, op domain.MutationOp) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.statuses[key] == domain.MutationSubmitting {
		return &ConcurrentMutationError{Key: key}
	}
	if timer, ok := c.expiries[key]; ok {
		timer.Stop()
		delete(c.expiries, key)
	}
	c.statuses[key] = domain.MutationSubmitting
	c.publishLocked(domain.StatusEvent{Key: key, Op: op, Status: domain.MutationSubmitting, OccurredAt: c.clock()})
	return nil
}

func (c *mutationCoordinator) finish(key domain.EntityKey, op domain.MutationOp, err error) {
	status := domain.MutationCommitted
	if err != nil {
		status = domain.MutationRejected
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses[key] = status
	c.publishLocked(domain.StatusEvent{Key: key, Op: op, Status: status, Err: err, OccurredAt: c.clock()})
	if op == domain.OpCreate {
		c.scheduleExpiryLocked(key)
	}
}

// scheduleExpiryLocked forgets a create's draft-key status after the retention window. Draft keys
// are minted per create, so without this the status map would grow for the process lifetime.
func (c *mutationCoordinator) scheduleExpiryLocked(key domain.EntityKey) {
	var timer *time.Timer
	timer = time.AfterFunc(c.retention, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.expiries[key] != timer {
			return
		}
		c.clearLocked(key)
	})
	c.expiries[key] = timer
}

type outcome struct {
	result MutationResult
	err    error
}

// await runs fn detached from ctx cancellation. When ctx ends first the caller gets ctx.Err() and
// the mutation still completes and commits into the snapshot.
func (c *mutationCoordinator) await(ctx context.Context, fn func(context.Context) (MutationResult, error)) (MutationResult, error) {
	done := make(chan outcome, 1)
	runCtx := context.WithoutCancel(ctx)
	go func() {
		res, err := fn(runCtx)
		done <- outcome{result: res, err: err}
	}()
	select {
	case out := <-done:
		return out.result, out.err
	case <-ctx.Done():
		return MutationResult{}, ctx.Err()
	}
}

// execute dispatches one mutation, swaps the snapshot on success and records the terminal status.
func (c *mutationCoordinator) execute(ctx context.Context, req MutationRequest) (MutationResult, error) {
	ctx, span := c.tracer.Start(ctx, "catalog.mutation", trace.WithAttributes(
		attribute.String("catalog.kind", string(req.Key.Kind)),
		attribute.String("catalog.op", string(req.Op)),
		attribute.String("catalog.key", req.Key.ID),
	))
	defer span.End()

	var warnings []string
	if req.Key.Kind == domain.EntityCategory && req.Op == domain.OpDelete {
		if impact := hierarchy.CategoryDeleteImpact(c.store.Load(), req.Key.ID); impact.Warning != "" {
			warnings = append(warnings, impact.Warning)
		}
	}

	entity, apply, err := c.dispatch(ctx, req)
	if err != nil {
		classified := classifyServiceError(req.Key, req.Op, err)
		span.RecordError(classified)
		span.SetStatus(codes.Error, classified.Error())
		c.logger.Warn("catalog mutation failed",
			zap.String("key", req.Key.String()),
			zap.String("op", string(req.Op)),
			zap.Error(classified),
		)
		c.finish(req.Key, req.Op, classified)
		return MutationResult{}, classified
	}

	c.store.commit(apply)
	res := MutationResult{
		Key:      domain.EntityKey{Kind: req.Key.Kind, ID: entityID(entity, req.Key.ID)},
		DraftKey: req.Key,
		Op:       req.Op,
		Entity:   entity,
		Warnings: warnings,
	}
	c.logger.Info("catalog mutation committed",
		zap.String("key", res.Key.String()),
		zap.String("op", string(req.Op)),
		zap.Strings("warnings", warnings),
	)
	c.finish(req.Key, req.Op, nil)
	return res, nil
}

func (c *mutationCoordinator) dispatch(ctx context.Context, req MutationRequest) (any, snapshotFn, error) {
	switch req.Key.Kind {
	case domain.EntityCategory:
		return c.dispatchCategory(ctx, req)
	case domain.EntitySubCategory:
		return c.dispatchSubCategory(ctx, req)
	case domain.EntityProduct:
		return c.dispatchProduct(ctx, req)
	default:
		return c.dispatchVariant(ctx, req)
	}
}

func (c *mutationCoordinator) dispatchCategory(ctx context.Context, req MutationRequest) (any, snapshotFn, error) {
	if req.Op == domain.OpDelete {
		if err := c.repo.DeleteCategory(ctx, req.Key.ID); err != nil {
			return nil, nil, err
		}
		return nil, func(s *domain.CatalogSnapshot) *domain.CatalogSnapshot { return s.WithoutCategory(req.Key.ID) }, nil
	}
	payload := req.Payload.(domain.Category)
	var (
		saved domain.Category
		err   error
	)
	if req.Op == domain.OpCreate {
		payload.ID = ""
		saved, err = c.repo.CreateCategory(ctx, payload)
	} else {
		saved, err = c.repo.UpdateCategory(ctx, payload)
	}
	if err != nil {
		return nil, nil, err
	}
	return saved, func(s *domain.CatalogSnapshot) *domain.CatalogSnapshot { return s.WithCategory(saved) }, nil
}

func (c *mutationCoordinator) dispatchSubCategory(ctx context.Context, req MutationRequest) (any, snapshotFn, error) {
	if req.Op == domain.OpDelete {
		if err := c.repo.DeleteSubCategory(ctx, req.Key.ID); err != nil {
			return nil, nil, err
		}
		return nil, func(s *domain.CatalogSnapshot) *domain.CatalogSnapshot { return s.WithoutSubCategory(req.Key.ID) }, nil
	}
	payload := req.Payload.(domain.SubCategory)
	var (
		saved domain.SubCategory
		err   error
	)
	if req.Op == domain.OpCreate {
		payload.ID = ""
		saved, err = c.repo.CreateSubCategory(ctx, payload)
	} else {
		saved, err = c.repo.UpdateSubCategory(ctx, payload)
	}
	if err != nil {
		return nil, nil, err
	}
	return saved, func(s *domain.CatalogSnapshot) *domain.CatalogSnapshot { return s.WithSubCategory(saved) }, nil
}

func (c *mutationCoordinator) dispatchProduct(ctx context.Context, req MutationRequest) (any, snapshotFn, error) {
	if req.Op == domain.OpDelete {
		if err := c.repo.DeleteProduct(ctx, req.Key.ID); err != nil {
			return nil, nil, err
		}
		return nil, func(s *domain.CatalogSnapshot) *domain.CatalogSnapshot { return s.WithoutProduct(req.Key.ID) }, nil
	}
	payload := req.Payload.(domain.Product)
	var (
		saved domain.Product
		err   error
	)
	if req.Op == domain.OpCreate {
		payload.ID = ""
		saved, err = c.repo.CreateProduct(ctx, payload)
	} else {
		saved, err = c.repo.UpdateProduct(ctx, payload)
	}
	if err != nil {
		return nil, nil, err
	}
	return saved, func(s *domain.CatalogSnapshot) *domain.CatalogSnapshot { return s.WithProduct(saved) }, nil
}

func (c *mutationCoordinator) dispatchVariant(ctx context.Context, req MutationRequest) (any, snapshotFn, error) {
	payload, _ := req.Payload.(domain.Variant)
	if req.Op == domain.OpDelete {
		if err := c.repo.DeleteVariant(ctx, payload.ProductID, req.Key.ID); err != nil {
			return nil, nil, err
		}
		return nil, func(s *domain.CatalogSnapshot) *domain.CatalogSnapshot { return s.WithoutVariant(req.Key.ID) }, nil
	}
	var (
		saved domain.Variant
		err   error
	)
	if req.Op == domain.OpCreate {
		payload.ID = ""
		saved, err = c.repo.CreateVariant(ctx, payload)
	} else {
		saved, err = c.repo.UpdateVariant(ctx, payload)
	}
	if err != nil {
		return nil, nil, err
	}
	return saved, func(s *domain.CatalogSnapshot) *domain.CatalogSnapshot { return s.WithVariant(saved) }, nil
}

// normalise checks the request shape and assigns draft keys to creates.
func (c *mutationCoordinator) normalise(req MutationRequest) (MutationRequest, error) {
	if !req.Key.Kind.Valid() {
		return req, fmt.Errorf("%w: unknown entity kind %q", ErrInvalidMutation, req.Key.Kind)
	}
	switch req.Op {
	case domain.OpCreate:
		if req.Key.ID == "" {
			req.Key.ID = c.newID()
		}
	case domain.OpUpdate, domain.OpDelete:
		if id := payloadID(req.Payload); req.Key.ID == "" {
			req.Key.ID = id
		}
		if req.Key.ID == "" {
			return req, fmt.Errorf("%w: %s requires an identifier", ErrInvalidMutation, req.Op)
		}
	default:
		return req, fmt.Errorf("%w: unknown operation %q", ErrInvalidMutation, req.Op)
	}

	if req.Op == domain.OpDelete {
		if req.Key.Kind == domain.EntityVariant {
			v, _ := req.Payload.(domain.Variant)
			if v.ProductID == "" {
				loaded, ok := c.store.Load().Variant(req.Key.ID)
				if !ok {
					return req, fmt.Errorf("%w: variant %s has no product", ErrNotLoaded, req.Key.ID)
				}
				v.ProductID = loaded.ProductID
			}
			v.ID = req.Key.ID
			req.Payload = v
		}
		return req, nil
	}

	var ok bool
	switch req.Key.Kind {
	case domain.EntityCategory:
		var v domain.Category
		v, ok = req.Payload.(domain.Category)
		if ok && req.Op == domain.OpUpdate {
			v.ID = req.Key.ID
			req.Payload = v
		}
	case domain.EntitySubCategory:
		var v domain.SubCategory
		v, ok = req.Payload.(domain.SubCategory)
		if ok && req.Op == domain.OpUpdate {
			v.ID = req.Key.ID
			req.Payload = v
		}
	case domain.EntityProduct:
		var v domain.Product
		v, ok = req.Payload.(domain.Product)
		if ok && req.Op == domain.OpUpdate {
			v.ID = req.Key.ID
			req.Payload = v
		}
	case domain.EntityVariant:
		var v domain.Variant
		v, ok = req.Payload.(domain.Variant)
		if ok && req.Op == domain.OpUpdate {
			v.ID = req.Key.ID
			req.Payload = v
		}
	}
	if !ok {
		return req, fmt.Errorf("%w: payload %T does not match %s", ErrInvalidMutation, req.Payload, req.Key.Kind)
	}
	return req, nil
}

func payloadID(payload any) string {
	switch v := payload.(type) {
	case domain.Category:
		return v.ID
	case domain.SubCategory:
		return v.ID
	case domain.Product:
		return v.ID
	case domain.Variant:
		return v.ID
	default:
		return ""
	}
}

func entityID(entity any, fallback string) string {
	if id := payloadID(entity); id != "" {
		return id
	}
	return fallback
}

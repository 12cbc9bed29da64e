package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hanko-field/catalog-console/internal/domain"
	"github.com/hanko-field/catalog-console/internal/platform/httpx"
	"github.com/hanko-field/catalog-console/internal/platform/requestctx"
	"github.com/hanko-field/catalog-console/internal/repositories"
	"github.com/hanko-field/catalog-console/internal/services"
	"github.com/hanko-field/catalog-console/internal/validation"
)

const defaultHeartbeat = 15 * time.Second

// AdminCatalogHandlers exposes the catalog hierarchy, variant editing and mutation status endpoints.
type AdminCatalogHandlers struct {
	reader      services.CatalogReader
	editor      services.CatalogEditor
	coordinator services.MutationCoordinator
	heartbeat   time.Duration
}

// AdminCatalogOption customises AdminCatalogHandlers.
type AdminCatalogOption func(*AdminCatalogHandlers)

// WithEventHeartbeat sets the keep-alive interval of mutation event streams.
func WithEventHeartbeat(interval time.Duration) AdminCatalogOption {
	return func(h *AdminCatalogHandlers) {
		if interval > 0 {
			h.heartbeat = interval
		}
	}
}

// NewAdminCatalogHandlers constructs admin catalog handlers.
func NewAdminCatalogHandlers(reader services.CatalogReader, editor services.CatalogEditor, coordinator services.MutationCoordinator, opts ...AdminCatalogOption) *AdminCatalogHandlers {
	h := &AdminCatalogHandlers{
		reader:      reader,
		editor:      editor,
		coordinator: coordinator,
		heartbeat:   defaultHeartbeat,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers admin catalog endpoints.
func (h *AdminCatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Route("/catalog", func(rt chi.Router) {
		rt.Post("/refresh", h.refresh)
		rt.Post("/validate/{kind}", h.validate)

		rt.Get("/categories", h.listCategories)
		rt.Post("/categories", h.createCategory)
		rt.Put("/categories/{categoryID}", h.updateCategory)
		rt.Delete("/categories/{categoryID}", h.deleteEntity(domain.EntityCategory, "categoryID"))
		rt.Get("/categories/{categoryID}/delete-impact", h.deleteImpact)

		rt.Post("/subcategories", h.createSubCategory)
		rt.Put("/subcategories/{subCategoryID}", h.updateSubCategory)
		rt.Delete("/subcategories/{subCategoryID}", h.deleteEntity(domain.EntitySubCategory, "subCategoryID"))

		rt.Post("/products", h.createProduct)
		rt.Get("/products/{productID}", h.getProduct)
		rt.Put("/products/{productID}", h.updateProduct)
		rt.Delete("/products/{productID}", h.deleteEntity(domain.EntityProduct, "productID"))

		rt.Get("/products/{productID}/variants", h.listVariants)
		rt.Post("/products/{productID}/variants", h.createVariant)
		rt.Put("/products/{productID}/variants/{variantID}", h.updateVariant)
		rt.Delete("/products/{productID}/variants/{variantID}", h.deleteVariant)

		rt.Get("/mutations/{kind}/{entityID}", h.mutationStatus)
		rt.Post("/mutations/{kind}/{entityID}/reset", h.resetMutation)
		rt.Get("/mutations/{kind}/{entityID}/events", h.mutationEvents)
	})
}

func (h *AdminCatalogHandlers) refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.reader.Refresh(ctx); err != nil {
		writeLoadError(ctx, w, err)
		return
	}
	h.writeCategoryTree(w, r)
}

func (h *AdminCatalogHandlers) listCategories(w http.ResponseWriter, r *http.Request) {
	h.writeCategoryTree(w, r)
}

func (h *AdminCatalogHandlers) writeCategoryTree(w http.ResponseWriter, r *http.Request) {
	state := h.reader.CategoriesState()
	switch state.Phase {
	case domain.ResourceLoading:
		httpx.WriteJSON(w, http.StatusAccepted, map[string]any{"state": state.Phase})
	case domain.ResourceFailed:
		writeLoadError(r.Context(), w, state.Err)
	default:
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"state":      state.Phase,
			"loadedAt":   formatTime(h.reader.Snapshot().LoadedAt()),
			"categories": newCategoryTreeResponse(state.Value),
		})
	}
}

func (h *AdminCatalogHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if _, ok := h.reader.Snapshot().Product(productID); !ok || r.URL.Query().Get("reload") == "true" {
		if err := h.reader.LoadVariants(ctx, productID); err != nil {
			writeLoadError(ctx, w, err)
			return
		}
	}
	view, err := h.reader.ProductView(ctx, productID)
	if err != nil {
		writeMutationError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newProductViewResponse(view))
}

func (h *AdminCatalogHandlers) listVariants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if r.URL.Query().Get("reload") == "true" {
		if err := h.reader.LoadVariants(ctx, productID); err != nil {
			writeLoadError(ctx, w, err)
			return
		}
	}
	state := h.reader.VariantsState(productID)
	switch state.Phase {
	case domain.ResourceLoading:
		httpx.WriteJSON(w, http.StatusAccepted, map[string]any{"state": state.Phase})
	case domain.ResourceFailed:
		writeLoadError(ctx, w, state.Err)
	default:
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"state":    state.Phase,
			"variants": newVariantViewResponses(state.Value),
		})
	}
}

func (h *AdminCatalogHandlers) deleteImpact(w http.ResponseWriter, r *http.Request) {
	categoryID := strings.TrimSpace(chi.URLParam(r, "categoryID"))
	httpx.WriteJSON(w, http.StatusOK, newDeleteImpactResponse(h.editor.DeleteImpact(categoryID)))
}

func (h *AdminCatalogHandlers) validate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		resp validationResponse
		err  error
	)
	switch domain.EntityKind(chi.URLParam(r, "kind")) {
	case domain.EntityCategory:
		var req categoryRequest
		if err = decodeJSONBody(r, &req); err != nil {
			break
		}
		var c domain.Category
		if c, err = h.editor.ValidateCategory(req.input("")); err == nil {
			resp = validationResponse{Valid: true, Entity: newCategoryResponse(c)}
		}
	case domain.EntitySubCategory:
		var req subCategoryRequest
		if err = decodeJSONBody(r, &req); err != nil {
			break
		}
		var s domain.SubCategory
		if s, err = h.editor.ValidateSubCategory(req.input("")); err == nil {
			resp = validationResponse{Valid: true, Entity: newSubCategoryResponse(s)}
		}
	case domain.EntityProduct:
		var req productRequest
		if err = decodeJSONBody(r, &req); err != nil {
			break
		}
		var p domain.Product
		if p, err = h.editor.ValidateProduct(req.input("")); err == nil {
			resp = validationResponse{Valid: true, Entity: newProductResponse(p)}
		}
	case domain.EntityVariant:
		var req variantRequest
		if err = decodeJSONBody(r, &req); err != nil {
			break
		}
		var plan validation.VariantPlan
		if plan, err = h.editor.ValidateVariant(req.input("", "")); err == nil {
			resp = newVariantPlanResponse(plan)
		}
	default:
		httpx.WriteError(ctx, w, httpx.NewError("unknown_kind", fmt.Sprintf("unknown entity kind %q", chi.URLParam(r, "kind")), http.StatusNotFound))
		return
	}
	if err != nil {
		writeMutationError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *AdminCatalogHandlers) createCategory(w http.ResponseWriter, r *http.Request) {
	h.saveCategory(w, r, domain.OpCreate, "")
}

func (h *AdminCatalogHandlers) updateCategory(w http.ResponseWriter, r *http.Request) {
	h.saveCategory(w, r, domain.OpUpdate, chi.URLParam(r, "categoryID"))
}

func (h *AdminCatalogHandlers) saveCategory(w http.ResponseWriter, r *http.Request, op domain.MutationOp, categoryID string) {
	var req categoryRequest
	if err := decodeJSONBody(r, &req); err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	res, err := h.editor.SaveCategory(r.Context(), op, req.DraftKey, req.input(strings.TrimSpace(categoryID)))
	writeMutationResult(w, r, res, err)
}

func (h *AdminCatalogHandlers) createSubCategory(w http.ResponseWriter, r *http.Request) {
	h.saveSubCategory(w, r, domain.OpCreate, "")
}

func (h *AdminCatalogHandlers) updateSubCategory(w http.ResponseWriter, r *http.Request) {
	h.saveSubCategory(w, r, domain.OpUpdate, chi.URLParam(r, "subCategoryID"))
}

func (h *AdminCatalogHandlers) saveSubCategory(w http.ResponseWriter, r *http.Request, op domain.MutationOp, subCategoryID string) {
	var req subCategoryRequest
	if err := decodeJSONBody(r, &req); err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	res, err := h.editor.SaveSubCategory(r.Context(), op, req.DraftKey, req.input(strings.TrimSpace(subCategoryID)))
	writeMutationResult(w, r, res, err)
}

func (h *AdminCatalogHandlers) createProduct(w http.ResponseWriter, r *http.Request) {
	h.saveProduct(w, r, domain.OpCreate, "")
}

func (h *AdminCatalogHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	h.saveProduct(w, r, domain.OpUpdate, chi.URLParam(r, "productID"))
}

func (h *AdminCatalogHandlers) saveProduct(w http.ResponseWriter, r *http.Request, op domain.MutationOp, productID string) {
	var req productRequest
	if err := decodeJSONBody(r, &req); err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	res, err := h.editor.SaveProduct(r.Context(), op, req.DraftKey, req.input(strings.TrimSpace(productID)))
	writeMutationResult(w, r, res, err)
}

func (h *AdminCatalogHandlers) createVariant(w http.ResponseWriter, r *http.Request) {
	h.saveVariant(w, r, domain.OpCreate, "")
}

func (h *AdminCatalogHandlers) updateVariant(w http.ResponseWriter, r *http.Request) {
	h.saveVariant(w, r, domain.OpUpdate, chi.URLParam(r, "variantID"))
}

func (h *AdminCatalogHandlers) saveVariant(w http.ResponseWriter, r *http.Request, op domain.MutationOp, variantID string) {
	var req variantRequest
	if err := decodeJSONBody(r, &req); err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	res, err := h.editor.SaveVariant(r.Context(), op, req.DraftKey, req.input(productID, strings.TrimSpace(variantID)))
	writeMutationResult(w, r, res, err)
}

func (h *AdminCatalogHandlers) deleteEntity(kind domain.EntityKind, param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := h.editor.Delete(r.Context(), kind, chi.URLParam(r, param))
		writeDeleteResult(w, r, res, err)
	}
}

func (h *AdminCatalogHandlers) deleteVariant(w http.ResponseWriter, r *http.Request) {
	res, err := h.editor.DeleteVariant(r.Context(), chi.URLParam(r, "productID"), chi.URLParam(r, "variantID"))
	writeDeleteResult(w, r, res, err)
}

// writeDeleteResult answers 204, or 200 with the result when the delete carried warnings.
func writeDeleteResult(w http.ResponseWriter, r *http.Request, res services.MutationResult, err error) {
	if err != nil {
		writeMutationError(r.Context(), w, err)
		return
	}
	if len(res.Warnings) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newMutationResponse(res))
}

func (h *AdminCatalogHandlers) mutationStatus(w http.ResponseWriter, r *http.Request) {
	key, ok := mutationKey(w, r)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newStatusEventResponse(domain.StatusEvent{Key: key, Status: h.coordinator.Status(key)}))
}

func (h *AdminCatalogHandlers) resetMutation(w http.ResponseWriter, r *http.Request) {
	key, ok := mutationKey(w, r)
	if !ok {
		return
	}
	h.coordinator.Reset(key)
	httpx.WriteJSON(w, http.StatusOK, newStatusEventResponse(domain.StatusEvent{Key: key, Status: h.coordinator.Status(key)}))
}

func mutationKey(w http.ResponseWriter, r *http.Request) (domain.EntityKey, bool) {
	key := domain.EntityKey{
		Kind: domain.EntityKind(chi.URLParam(r, "kind")),
		ID:   strings.TrimSpace(chi.URLParam(r, "entityID")),
	}
	if !key.Kind.Valid() || key.ID == "" {
		httpx.WriteError(r.Context(), w, httpx.NewError("unknown_kind", fmt.Sprintf("unknown mutation key %s", key), http.StatusNotFound))
		return domain.EntityKey{}, false
	}
	return key, true
}

func writeMutationResult(w http.ResponseWriter, r *http.Request, res services.MutationResult, err error) {
	ctx := r.Context()
	if err != nil {
		var partial *services.PartialReconciliationError
		if errors.As(err, &partial) {
			writePartialReconciliation(ctx, w, res, partial)
			return
		}
		writeMutationError(ctx, w, err)
		return
	}
	status := http.StatusOK
	if res.Op == domain.OpCreate {
		status = http.StatusCreated
	}
	httpx.WriteJSON(w, status, newMutationResponse(res))
}

func writePartialReconciliation(ctx context.Context, w http.ResponseWriter, res services.MutationResult, partial *services.PartialReconciliationError) {
	details := map[string]any{
		"variant_id":  partial.VariantID,
		"sibling_id":  partial.SiblingID(),
		"sibling_ids": partial.SiblingIDs(),
	}
	if res.Entity != nil {
		details["committed"] = newMutationResponse(res)
	}
	httpx.WriteError(ctx, w, httpx.NewError("partial_reconciliation", partial.Error(), http.StatusBadGateway).WithDetails(details))
}

// writeMutationError maps validation, coordination and service failures onto the JSON error envelope.
func writeMutationError(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		fieldErrs  validation.Errors
		concurrent *services.ConcurrentMutationError
		partial    *services.PartialReconciliationError
		rejected   *services.RejectedByServiceError
	)
	switch {
	case errors.As(err, &fieldErrs):
		fields := make(map[string]string, len(fieldErrs))
		for field, code := range fieldErrs.Fields() {
			fields[field] = string(code)
		}
		httpx.WriteError(ctx, w, httpx.NewError("validation_failed", "input failed validation", http.StatusUnprocessableEntity).WithFields(fields))
	case errors.As(err, &concurrent):
		httpx.WriteError(ctx, w, httpx.NewError("mutation_in_flight", err.Error(), http.StatusConflict))
	case errors.As(err, &partial):
		writePartialReconciliation(ctx, w, services.MutationResult{}, partial)
	case errors.As(err, &rejected):
		status := rejected.Status
		if status < http.StatusBadRequest || status >= http.StatusInternalServerError {
			status = http.StatusUnprocessableEntity
		}
		httpx.WriteError(ctx, w, httpx.NewError("rejected_by_service", rejected.Message, status))
	case errors.Is(err, services.ErrTransientService):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", err.Error(), http.StatusServiceUnavailable))
	case errors.Is(err, services.ErrNotLoaded):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrInvalidMutation), errors.Is(err, errInvalidRequestBody):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		httpx.WriteError(ctx, w, httpx.NewError("mutation_pending", "request ended before the catalog service answered; the mutation continues", http.StatusGatewayTimeout))
	default:
		requestctx.Logger(ctx).Error("catalog request failed", zap.Error(err))
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "internal error", http.StatusInternalServerError))
	}
}

// writeLoadError maps read-side repository failures.
func writeLoadError(ctx context.Context, w http.ResponseWriter, err error) {
	if repoErr, ok := repositories.AsRepositoryError(err); ok {
		switch {
		case repoErr.IsNotFound():
			httpx.WriteError(ctx, w, httpx.NewError("not_found", err.Error(), http.StatusNotFound))
			return
		case repoErr.IsUnavailable():
			httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", err.Error(), http.StatusServiceUnavailable))
			return
		default:
			httpx.WriteError(ctx, w, httpx.NewError("rejected_by_service", err.Error(), http.StatusBadGateway))
			return
		}
	}
	writeMutationError(ctx, w, err)
}

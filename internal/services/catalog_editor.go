package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hanko-field/catalog-console/internal/domain"
	"github.com/hanko-field/catalog-console/internal/hierarchy"
	"github.com/hanko-field/catalog-console/internal/validation"
)

// CatalogEditorDeps bundles constructor inputs for the catalog editor.
type CatalogEditorDeps struct {
	Coordinator MutationCoordinator
	Snapshot    *SnapshotStore
	SKUScope    validation.SKUScope
}

type catalogEditor struct {
	coordinator MutationCoordinator
	store       *SnapshotStore
	engine      *validation.Engine
}

// NewCatalogEditor wires dependencies into a CatalogEditor.
func NewCatalogEditor(deps CatalogEditorDeps) (CatalogEditor, error) {
	if deps.Coordinator == nil {
		return nil, errors.New("catalog editor: mutation coordinator is required")
	}
	if deps.Snapshot == nil {
		return nil, errors.New("catalog editor: snapshot store is required")
	}
	scope := deps.SKUScope
	if scope == "" {
		scope = validation.SKUScopeNone
	}
	store := deps.Snapshot
	return &catalogEditor{
		coordinator: deps.Coordinator,
		store:       store,
		engine: validation.NewEngine(
			validation.WithSKUScope(scope),
			validation.WithCatalogVariants(func() []domain.Variant { return store.Load().Variants() }),
		),
	}, nil
}

func (e *catalogEditor) ValidateCategory(in domain.CategoryInput) (domain.Category, error) {
	return validation.ValidateCategory(in)
}

func (e *catalogEditor) ValidateSubCategory(in domain.SubCategoryInput) (domain.SubCategory, error) {
	return validation.ValidateSubCategory(in, e.knownParents())
}

func (e *catalogEditor) ValidateProduct(in domain.ProductInput) (domain.Product, error) {
	return validation.ValidateProduct(in)
}

func (e *catalogEditor) ValidateVariant(in domain.VariantInput) (validation.VariantPlan, error) {
	productID := strings.TrimSpace(in.ProductID)
	return e.engine.ValidateVariant(in, e.store.Load().VariantsOf(productID))
}

// knownParents returns nil before the first load so only parent presence is checked.
func (e *catalogEditor) knownParents() map[string]struct{} {
	snap := e.store.Load()
	if snap.LoadedAt().IsZero() && len(snap.Categories()) == 0 {
		return nil
	}
	return snap.CategoryIDs()
}

func (e *catalogEditor) SaveCategory(ctx context.Context, op domain.MutationOp, draftKey string, in domain.CategoryInput) (MutationResult, error) {
	if err := checkSaveOp(op); err != nil {
		return MutationResult{}, err
	}
	category, err := e.ValidateCategory(in)
	if err != nil {
		return MutationResult{}, err
	}
	return e.coordinator.Submit(ctx, MutationRequest{
		Key:     domain.EntityKey{Kind: domain.EntityCategory, ID: keyFor(op, draftKey, category.ID)},
		Op:      op,
		Payload: category,
	})
}

func (e *catalogEditor) SaveSubCategory(ctx context.Context, op domain.MutationOp, draftKey string, in domain.SubCategoryInput) (MutationResult, error) {
	if err := checkSaveOp(op); err != nil {
		return MutationResult{}, err
	}
	sub, err := e.ValidateSubCategory(in)
	if err != nil {
		return MutationResult{}, err
	}
	return e.coordinator.Submit(ctx, MutationRequest{
		Key:     domain.EntityKey{Kind: domain.EntitySubCategory, ID: keyFor(op, draftKey, sub.ID)},
		Op:      op,
		Payload: sub,
	})
}

func (e *catalogEditor) SaveProduct(ctx context.Context, op domain.MutationOp, draftKey string, in domain.ProductInput) (MutationResult, error) {
	if err := checkSaveOp(op); err != nil {
		return MutationResult{}, err
	}
	product, err := e.ValidateProduct(in)
	if err != nil {
		return MutationResult{}, err
	}
	return e.coordinator.Submit(ctx, MutationRequest{
		Key:     domain.EntityKey{Kind: domain.EntityProduct, ID: keyFor(op, draftKey, product.ID)},
		Op:      op,
		Payload: product,
	})
}

func (e *catalogEditor) SaveVariant(ctx context.Context, op domain.MutationOp, draftKey string, in domain.VariantInput) (MutationResult, error) {
	if err := checkSaveOp(op); err != nil {
		return MutationResult{}, err
	}
	plan, err := e.ValidateVariant(in)
	if err != nil {
		return MutationResult{}, err
	}
	if op == domain.OpCreate {
		plan.Variant.ID = draftKey
	}
	return e.coordinator.SubmitVariant(ctx, op, plan)
}

func (e *catalogEditor) Delete(ctx context.Context, kind domain.EntityKind, id string) (MutationResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return MutationResult{}, fmt.Errorf("%w: delete requires an identifier", ErrInvalidMutation)
	}
	return e.coordinator.Submit(ctx, MutationRequest{
		Key: domain.EntityKey{Kind: kind, ID: id},
		Op:  domain.OpDelete,
	})
}

func (e *catalogEditor) DeleteVariant(ctx context.Context, productID, variantID string) (MutationResult, error) {
	productID, variantID = strings.TrimSpace(productID), strings.TrimSpace(variantID)
	if productID == "" || variantID == "" {
		return MutationResult{}, fmt.Errorf("%w: delete requires product and variant identifiers", ErrInvalidMutation)
	}
	if loaded, ok := e.store.Load().Variant(variantID); ok && loaded.ProductID != productID {
		return MutationResult{}, fmt.Errorf("%w: variant %s does not belong to product %s", ErrNotLoaded, variantID, productID)
	}
	return e.coordinator.Submit(ctx, MutationRequest{
		Key:     domain.EntityKey{Kind: domain.EntityVariant, ID: variantID},
		Op:      domain.OpDelete,
		Payload: domain.Variant{ID: variantID, ProductID: productID},
	})
}

func (e *catalogEditor) DeleteImpact(categoryID string) hierarchy.DeleteImpact {
	return hierarchy.CategoryDeleteImpact(e.store.Load(), categoryID)
}

func checkSaveOp(op domain.MutationOp) error {
	if op != domain.OpCreate && op != domain.OpUpdate {
		return fmt.Errorf("%w: save does not support %q", ErrInvalidMutation, op)
	}
	return nil
}

func keyFor(op domain.MutationOp, draftKey, id string) string {
	if op == domain.OpCreate {
		return strings.TrimSpace(draftKey)
	}
	return id
}

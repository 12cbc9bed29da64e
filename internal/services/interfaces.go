package services

import (
	"context"

	"github.com/hanko-field/catalog-console/internal/domain"
	"github.com/hanko-field/catalog-console/internal/hierarchy"
	"github.com/hanko-field/catalog-console/internal/validation"
)

// MutationRequest describes one write against the Catalog Service. Payload is a domain.Category,
// domain.SubCategory, domain.Product or domain.Variant matching Key.Kind. Deletes may omit it.
// Creates use Key.ID as a draft key; an empty one is generated.
type MutationRequest struct {
	Key     domain.EntityKey
	Op      domain.MutationOp
	Payload any
}

// MutationResult is the committed outcome of a mutation. Entity holds the service's canonical
// value (nil for deletes) and Key its canonical identifier.
type MutationResult struct {
	Key      domain.EntityKey
	DraftKey domain.EntityKey
	Op       domain.MutationOp
	Entity   any
	Warnings []string
}

// MutationCoordinator serialises validated mutations to the Catalog Service and is the only writer
// of the catalog snapshot.
type MutationCoordinator interface {
	Submit(ctx context.Context, req MutationRequest) (MutationResult, error)
	// SubmitVariant writes the variant, then clears every companion sibling in order.
	SubmitVariant(ctx context.Context, op domain.MutationOp, plan validation.VariantPlan) (MutationResult, error)
	Status(key domain.EntityKey) domain.MutationStatus
	// Reset returns a terminal key to idle. Submitting keys are left alone.
	Reset(key domain.EntityKey)
	Subscribe(key domain.EntityKey) (<-chan domain.StatusEvent, func())
}

// CatalogReader loads the catalog into the snapshot and serves resolved view models.
type CatalogReader interface {
	Refresh(ctx context.Context) error
	LoadVariants(ctx context.Context, productID string) error
	CategoriesState() domain.ResourceState[[]hierarchy.CategoryView]
	VariantsState(productID string) domain.ResourceState[[]hierarchy.VariantView]
	ProductView(ctx context.Context, productID string) (hierarchy.ProductView, error)
	Snapshot() *domain.CatalogSnapshot
}

// CatalogEditor validates raw form input against the current snapshot and submits it.
type CatalogEditor interface {
	ValidateCategory(in domain.CategoryInput) (domain.Category, error)
	ValidateSubCategory(in domain.SubCategoryInput) (domain.SubCategory, error)
	ValidateProduct(in domain.ProductInput) (domain.Product, error)
	ValidateVariant(in domain.VariantInput) (validation.VariantPlan, error)

	SaveCategory(ctx context.Context, op domain.MutationOp, draftKey string, in domain.CategoryInput) (MutationResult, error)
	SaveSubCategory(ctx context.Context, op domain.MutationOp, draftKey string, in domain.SubCategoryInput) (MutationResult, error)
	SaveProduct(ctx context.Context, op domain.MutationOp, draftKey string, in domain.ProductInput) (MutationResult, error)
	SaveVariant(ctx context.Context, op domain.MutationOp, draftKey string, in domain.VariantInput) (MutationResult, error)
	Delete(ctx context.Context, kind domain.EntityKind, id string) (MutationResult, error)
	// DeleteVariant deletes a variant addressed through its product. A loaded variant that belongs
	// to another product is ErrNotLoaded.
	DeleteVariant(ctx context.Context, productID, variantID string) (MutationResult, error)
	// DeleteImpact previews what deleting a category would leave behind.
	DeleteImpact(categoryID string) hierarchy.DeleteImpact
}

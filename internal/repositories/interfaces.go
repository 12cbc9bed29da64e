package repositories

import (
	"context"

	"github.com/hanko-field/catalog-console/internal/domain"
)

// RepositoryError wraps Catalog Service failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
	// IsRejected reports a final answer from the service (4xx). Rejected errors must not be retried.
	IsRejected() bool
	// StatusCode returns the upstream HTTP status, or 0 when no response was received.
	StatusCode() int
}

// CatalogRepository is the remote Catalog Service contract. Write methods return the service's
// canonical representation, including generated identifiers and timestamps.
type CatalogRepository interface {
	ListCategories(ctx context.Context, includeDisabled bool) ([]domain.Category, error)
	GetCategory(ctx context.Context, categoryID string) (domain.Category, error)
	CreateCategory(ctx context.Context, category domain.Category) (domain.Category, error)
	UpdateCategory(ctx context.Context, category domain.Category) (domain.Category, error)
	// DeleteCategory removes a category. What happens to member subcategories is the service's call.
	DeleteCategory(ctx context.Context, categoryID string) error

	// ListSubCategories lists subcategories of categoryID, or every subcategory when categoryID is empty.
	ListSubCategories(ctx context.Context, categoryID string) ([]domain.SubCategory, error)
	GetSubCategory(ctx context.Context, subCategoryID string) (domain.SubCategory, error)
	CreateSubCategory(ctx context.Context, sub domain.SubCategory) (domain.SubCategory, error)
	UpdateSubCategory(ctx context.Context, sub domain.SubCategory) (domain.SubCategory, error)
	DeleteSubCategory(ctx context.Context, subCategoryID string) error

	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (domain.Product, error)
	DeleteProduct(ctx context.Context, productID string) error

	ListVariants(ctx context.Context, productID string) ([]domain.Variant, error)
	GetVariant(ctx context.Context, productID, variantID string) (domain.Variant, error)
	CreateVariant(ctx context.Context, variant domain.Variant) (domain.Variant, error)
	UpdateVariant(ctx context.Context, variant domain.Variant) (domain.Variant, error)
	DeleteVariant(ctx context.Context, productID, variantID string) error
}

// HealthRepository probes the console's dependencies for the readiness endpoint.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.HealthReport, error)
}

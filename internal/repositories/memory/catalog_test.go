package memory

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hanko-field/catalog-console/internal/domain"
	"github.com/hanko-field/catalog-console/internal/repositories"
)

func newTestService(t *testing.T, opts ...Option) *CatalogService {
	t.Helper()
	now := time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)
	seq := 0
	base := []Option{
		WithClock(func() time.Time { return now }),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%02d", seq)
		}),
	}
	return NewCatalogService(append(base, opts...)...)
}

func TestCategoryLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	cat, err := svc.CreateCategory(ctx, domain.Category{Name: "Electronics", IsEnabled: true, SubCategoryIDs: []string{"bogus"}})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if cat.ID != "id-01" || cat.CreatedAt.IsZero() || len(cat.SubCategoryIDs) != 0 {
		t.Fatalf("unexpected canonical category %#v", cat)
	}

	sub, err := svc.CreateSubCategory(ctx, domain.SubCategory{Name: "Phones", ParentCategoryID: cat.ID, IsEnabled: true})
	if err != nil {
		t.Fatalf("CreateSubCategory: %v", err)
	}
	got, err := svc.GetCategory(ctx, cat.ID)
	if err != nil {
		t.Fatalf("GetCategory: %v", err)
	}
	if len(got.SubCategoryIDs) != 1 || got.SubCategoryIDs[0] != sub.ID {
		t.Fatalf("expected membership to include %s, got %v", sub.ID, got.SubCategoryIDs)
	}

	got.IsEnabled = false
	got.SubCategoryIDs = nil
	updated, err := svc.UpdateCategory(ctx, got)
	if err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}
	if len(updated.SubCategoryIDs) != 1 {
		t.Fatalf("membership is server-owned and must survive updates")
	}

	enabled, err := svc.ListCategories(ctx, false)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(enabled) != 0 {
		t.Fatalf("expected disabled category to be filtered, got %d", len(enabled))
	}
	all, _ := svc.ListCategories(ctx, true)
	if len(all) != 1 {
		t.Fatalf("expected disabled category when includeDisabled, got %d", len(all))
	}

	if err := svc.DeleteCategory(ctx, cat.ID); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	orphans, _ := svc.ListSubCategories(ctx, cat.ID)
	if len(orphans) != 1 {
		t.Fatalf("expected subcategory to remain after category delete, got %d", len(orphans))
	}
}

func TestSubCategoryRequiresParent(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.CreateSubCategory(context.Background(), domain.SubCategory{Name: "Phones", ParentCategoryID: "missing"})
	repoErr, ok := repositories.AsRepositoryError(err)
	if !ok || !repoErr.IsRejected() || repoErr.StatusCode() != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 rejection, got %v", err)
	}
}

func TestVariantsFollowTheirProduct(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	p, err := svc.CreateProduct(ctx, domain.Product{Name: "Phone", Price: decimal.RequireFromString("10"), HasVariants: true})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	a, err := svc.CreateVariant(ctx, domain.Variant{ProductID: p.ID, Name: "A", IsFeatured: true})
	if err != nil {
		t.Fatalf("CreateVariant: %v", err)
	}
	if _, err := svc.CreateVariant(ctx, domain.Variant{ProductID: p.ID, Name: "B", IsFeatured: true}); err != nil {
		t.Fatalf("second featured variant must be accepted by the service: %v", err)
	}

	if _, err := svc.GetVariant(ctx, "other", a.ID); err == nil {
		t.Fatalf("expected not found for mismatched product")
	}
	variants, err := svc.ListVariants(ctx, p.ID)
	if err != nil || len(variants) != 2 {
		t.Fatalf("expected 2 variants, got %d (%v)", len(variants), err)
	}

	if err := svc.DeleteProduct(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if _, err := svc.GetVariant(ctx, p.ID, a.ID); err == nil {
		t.Fatalf("expected variants to be removed with their product")
	}
}

func TestFailNextIsConsumedOnce(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	svc.FailNext("ListProducts", 0, "")

	_, err := svc.ListProducts(ctx)
	repoErr, ok := repositories.AsRepositoryError(err)
	if !ok || !repoErr.IsUnavailable() {
		t.Fatalf("expected injected unavailable error, got %v", err)
	}
	if _, err := svc.ListProducts(ctx); err != nil {
		t.Fatalf("expected fault to be consumed, got %v", err)
	}
}

func TestHookRunsBeforeEachCall(t *testing.T) {
	blocked := errors.New("blocked")
	svc := newTestService(t, WithHook(func(_ context.Context, method string) error {
		if method == "DeleteVariant" {
			return blocked
		}
		return nil
	}))
	if err := svc.DeleteVariant(context.Background(), "p", "v"); !errors.Is(err, blocked) {
		t.Fatalf("expected hook error, got %v", err)
	}
}

package services

import (
	"context"
	"errors"
	"testing"

	"github.com/hanko-field/catalog-console/internal/domain"
	"github.com/hanko-field/catalog-console/internal/repositories/memory"
	"github.com/hanko-field/catalog-console/internal/validation"
)

func TestValidateSubCategoryChecksLoadedParents(t *testing.T) {
	h := newHarness(t)
	in := domain.SubCategoryInput{Name: "Phones", ParentCategoryID: "c9"}

	if _, err := h.editor.ValidateSubCategory(in); err != nil {
		t.Fatalf("parents are unknown before the first load: %v", err)
	}

	h.remote.Seed([]domain.Category{{ID: "c1", Name: "Electronics", IsEnabled: true}}, nil, nil, nil)
	if err := h.reader.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if _, err := h.editor.ValidateSubCategory(in); !validation.HasCode(err, validation.CodeParentNotFound) {
		t.Fatalf("expected parent_not_found, got %v", err)
	}

	in.ParentCategoryID = "c1"
	res, err := h.editor.SaveSubCategory(context.Background(), domain.OpCreate, "", in)
	if err != nil {
		t.Fatalf("SaveSubCategory: %v", err)
	}
	cat, _ := h.store.Load().Category("c1")
	if len(cat.SubCategoryIDs) != 1 || cat.SubCategoryIDs[0] != res.Key.ID {
		t.Fatalf("expected membership to follow the new subcategory, got %v", cat.SubCategoryIDs)
	}
}

func TestSaveRejectsDeleteOp(t *testing.T) {
	h := newHarness(t)
	_, err := h.editor.SaveProduct(context.Background(), domain.OpDelete, "", domain.ProductInput{Name: "Lamp", Price: "5", StockQuantity: "1"})
	if !errors.Is(err, ErrInvalidMutation) {
		t.Fatalf("expected ErrInvalidMutation, got %v", err)
	}
}

func TestProductScopedSKUUniqueness(t *testing.T) {
	remote := memory.NewCatalogService()
	store := NewSnapshotStore(nil)
	coordinator, err := NewMutationCoordinator(MutationCoordinatorDeps{Catalog: remote, Snapshot: store})
	if err != nil {
		t.Fatalf("NewMutationCoordinator: %v", err)
	}
	editor, err := NewCatalogEditor(CatalogEditorDeps{Coordinator: coordinator, Snapshot: store, SKUScope: validation.SKUScopeProduct})
	if err != nil {
		t.Fatalf("NewCatalogEditor: %v", err)
	}
	remote.Seed(nil, nil,
		[]domain.Product{{ID: "P", Name: "Phone"}},
		[]domain.Variant{{ID: "A", ProductID: "P", Name: "Alpha", SKU: "SKU-1"}},
	)
	reader, err := NewCatalogReader(CatalogReaderDeps{Catalog: remote, Snapshot: store})
	if err != nil {
		t.Fatalf("NewCatalogReader: %v", err)
	}
	if err := reader.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	_, err = editor.ValidateVariant(domain.VariantInput{ProductID: "P", Name: "Bravo", SKU: "sku-1", StockQuantity: "1"})
	if !validation.HasCode(err, validation.CodeSKUDuplicate) {
		t.Fatalf("expected sku_duplicate, got %v", err)
	}
	if _, err := editor.ValidateVariant(domain.VariantInput{ID: "A", ProductID: "P", Name: "Alpha", SKU: "SKU-1", StockQuantity: "1"}); err != nil {
		t.Fatalf("a variant never collides with itself: %v", err)
	}
}

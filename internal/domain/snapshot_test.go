package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func seededSnapshot() *CatalogSnapshot {
	override := decimal.RequireFromString("12.5")
	return NewCatalogSnapshot(
		[]Category{{ID: "c1", Name: "Tools", SubCategoryIDs: []string{"s1"}}, {ID: "c2", Name: "Garden"}},
		[]SubCategory{{ID: "s1", Name: "Saws", ParentCategoryID: "c1"}},
		[]Product{{ID: "p1", Name: "Saw", Price: decimal.RequireFromString("20")}},
		[]Variant{{ID: "v1", ProductID: "p1", Name: "Small", PriceOverride: &override}},
		time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC),
	)
}

func TestSnapshotUpdatesLeaveReceiverUntouched(t *testing.T) {
	base := seededSnapshot()

	next := base.WithCategory(Category{ID: "c3", Name: "Paint"}).
		WithoutVariant("v1").
		WithProduct(Product{ID: "p1", Name: "Big Saw"})

	if _, ok := base.Category("c3"); ok {
		t.Fatalf("base snapshot gained category c3")
	}
	if _, ok := base.Variant("v1"); !ok {
		t.Fatalf("base snapshot lost variant v1")
	}
	if p, _ := base.Product("p1"); p.Name != "Saw" {
		t.Fatalf("base product changed to %q", p.Name)
	}
	if _, ok := next.Category("c3"); !ok {
		t.Fatalf("expected c3 in next snapshot")
	}
	if !next.LoadedAt().Equal(base.LoadedAt()) {
		t.Fatalf("expected loadedAt to carry over")
	}
}

func TestSnapshotAccessorsReturnCopies(t *testing.T) {
	snap := seededSnapshot()

	c, _ := snap.Category("c1")
	c.SubCategoryIDs[0] = "mutated"
	v, _ := snap.Variant("v1")
	*v.PriceOverride = decimal.RequireFromString("99")

	again, _ := snap.Category("c1")
	if again.SubCategoryIDs[0] != "s1" {
		t.Fatalf("category membership leaked: %v", again.SubCategoryIDs)
	}
	vAgain, _ := snap.Variant("v1")
	if !vAgain.PriceOverride.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("variant override leaked: %s", vAgain.PriceOverride)
	}
}

func TestSnapshotSubCategoryMembership(t *testing.T) {
	base := seededSnapshot()

	moved := base.WithSubCategory(SubCategory{ID: "s1", Name: "Saws", ParentCategoryID: "c2"})
	c1, _ := moved.Category("c1")
	c2, _ := moved.Category("c2")
	if len(c1.SubCategoryIDs) != 0 || len(c2.SubCategoryIDs) != 1 || c2.SubCategoryIDs[0] != "s1" {
		t.Fatalf("unexpected membership after move: c1=%v c2=%v", c1.SubCategoryIDs, c2.SubCategoryIDs)
	}
	orig, _ := base.Category("c1")
	if len(orig.SubCategoryIDs) != 1 {
		t.Fatalf("base membership changed: %v", orig.SubCategoryIDs)
	}

	removed := moved.WithoutSubCategory("s1")
	c2, _ = removed.Category("c2")
	if len(c2.SubCategoryIDs) != 0 {
		t.Fatalf("expected membership cleared, got %v", c2.SubCategoryIDs)
	}
}

func TestWithoutProductDropsItsVariants(t *testing.T) {
	snap := seededSnapshot().WithoutProduct("p1")
	if len(snap.VariantsOf("p1")) != 0 || len(snap.Variants()) != 0 {
		t.Fatalf("expected variants removed with product")
	}
}

func TestWithoutCategoryKeepsSubCategories(t *testing.T) {
	snap := seededSnapshot().WithoutCategory("c1")
	if _, ok := snap.SubCategory("s1"); !ok {
		t.Fatalf("subcategory should remain after category delete")
	}
	if len(snap.SubCategoriesOf("c1")) != 1 {
		t.Fatalf("dangling parent reference should still resolve")
	}
}

func TestNilSnapshotIsEmpty(t *testing.T) {
	var snap *CatalogSnapshot
	if _, ok := snap.Category("c1"); ok {
		t.Fatalf("nil snapshot should have no categories")
	}
	if len(snap.CategoryIDs()) != 0 || !snap.LoadedAt().IsZero() {
		t.Fatalf("nil snapshot should be empty")
	}
	if next := snap.WithProduct(Product{ID: "p1"}); len(next.Products()) != 1 {
		t.Fatalf("updating a nil snapshot should start from empty")
	}
}

package services

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/hanko-field/catalog-console/internal/domain"
	"github.com/hanko-field/catalog-console/internal/repositories"
	"github.com/hanko-field/catalog-console/internal/repositories/memory"
)

func TestRefreshBuildsCategoryTree(t *testing.T) {
	h := newHarness(t)
	h.remote.Seed(
		[]domain.Category{
			{ID: "c2", Name: "Home", IsEnabled: true, DisplayOrder: 2},
			{ID: "c1", Name: "Electronics", IsEnabled: false, DisplayOrder: 1},
		},
		[]domain.SubCategory{{ID: "s1", Name: "Phones", ParentCategoryID: "c1", IsEnabled: true}},
		nil, nil,
	)

	if state := h.reader.CategoriesState(); state.Phase != domain.ResourceLoading {
		t.Fatalf("expected loading before first refresh, got %s", state.Phase)
	}
	if err := h.reader.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	state := h.reader.CategoriesState()
	if state.Phase != domain.ResourceReady {
		t.Fatalf("expected ready, got %s", state.Phase)
	}
	if len(state.Value) != 2 || state.Value[0].Category.ID != "c1" {
		t.Fatalf("expected categories ordered by display order, got %+v", state.Value)
	}
	if subs := state.Value[0].SubCategories; len(subs) != 1 || subs[0].Visible {
		t.Fatalf("expected Phones hidden under disabled parent, got %+v", subs)
	}
}

func TestRefreshFailureKeepsLastSnapshot(t *testing.T) {
	h := newHarness(t)
	h.remote.Seed([]domain.Category{{ID: "c1", Name: "Home", IsEnabled: true}}, nil, nil, nil)
	if err := h.reader.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	before := h.store.Version()

	h.remote.FailNext("ListProducts", http.StatusBadGateway, "")
	err := h.reader.Refresh(context.Background())
	if repoErr, ok := repositories.AsRepositoryError(err); !ok || !repoErr.IsUnavailable() {
		t.Fatalf("expected unavailable repository error, got %v", err)
	}
	if h.store.Version() != before {
		t.Fatalf("snapshot must not change on failed refresh")
	}
	if _, ok := h.store.Load().Category("c1"); !ok {
		t.Fatalf("expected previous snapshot retained")
	}
	if state := h.reader.CategoriesState(); state.Phase != domain.ResourceFailed || state.Err == nil {
		t.Fatalf("expected failed state, got %+v", state)
	}
}

func TestVariantsStateResolvesEffectivePrice(t *testing.T) {
	h := newHarness(t)
	override := decimal.RequireFromString("80")
	h.remote.Seed(nil, nil,
		[]domain.Product{{ID: "P", Name: "Phone", Price: decimal.RequireFromString("100"), HasVariants: true}},
		[]domain.Variant{
			{ID: "b", ProductID: "P", Name: "Blue", DisplayOrder: 2},
			{ID: "a", ProductID: "P", Name: "Amber", DisplayOrder: 1, PriceOverride: &override},
		},
	)
	if err := h.reader.LoadVariants(context.Background(), "P"); err != nil {
		t.Fatalf("LoadVariants: %v", err)
	}

	state := h.reader.VariantsState("P")
	if state.Phase != domain.ResourceReady || len(state.Value) != 2 {
		t.Fatalf("expected two ready variants, got %+v", state)
	}
	if state.Value[0].Variant.ID != "a" || !state.Value[0].EffectivePrice.Equal(override) {
		t.Fatalf("expected override price first, got %+v", state.Value[0])
	}
	if !state.Value[1].EffectivePrice.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("expected base price fallback, got %s", state.Value[1].EffectivePrice)
	}

	view, err := h.reader.ProductView(context.Background(), "P")
	if err != nil {
		t.Fatalf("ProductView: %v", err)
	}
	if !view.MinPrice.Equal(override) || !view.MaxPrice.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("unexpected price range %s..%s", view.MinPrice, view.MaxPrice)
	}
}

func TestLoadVariantsFailureIsReported(t *testing.T) {
	h := newHarness(t)

	err := h.reader.LoadVariants(context.Background(), "missing")
	if repoErr, ok := repositories.AsRepositoryError(err); !ok || !repoErr.IsNotFound() {
		t.Fatalf("expected not found, got %v", err)
	}
	if state := h.reader.VariantsState("missing"); state.Phase != domain.ResourceFailed {
		t.Fatalf("expected failed state, got %s", state.Phase)
	}
	if _, err := h.reader.ProductView(context.Background(), "missing"); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
}

func TestRefreshKeepsMutationCommittedDuringLoad(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var blocking atomic.Bool
	h := newHarness(t, memory.WithHook(func(_ context.Context, method string) error {
		if method == "ListVariants" && blocking.CompareAndSwap(true, false) {
			close(entered)
			<-release
		}
		return nil
	}))
	h.seedFeaturedProduct(t)
	ctx := context.Background()

	blocking.Store(true)
	refreshed := make(chan error, 1)
	go func() { refreshed <- h.reader.Refresh(ctx) }()
	<-entered

	in := domain.ProductInputFrom(mustProduct(t, h.store.Load(), "P"))
	in.Name = "Renamed"
	if _, err := h.editor.SaveProduct(ctx, domain.OpUpdate, "", in); err != nil {
		t.Fatalf("SaveProduct: %v", err)
	}
	close(release)
	if err := <-refreshed; err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if p := mustProduct(t, h.store.Load(), "P"); p.Name != "Renamed" {
		t.Fatalf("refresh overwrote committed name, got %q", p.Name)
	}
	if _, ok := h.store.Load().Variant("A"); !ok {
		t.Fatalf("expected refreshed variants in snapshot")
	}

	if err := h.reader.Refresh(ctx); err != nil {
		t.Fatalf("second Refresh: %v", err)
	}
	if p := mustProduct(t, h.store.Load(), "P"); p.Name != "Renamed" {
		t.Fatalf("expected server value after plain refresh, got %q", p.Name)
	}
}

func mustProduct(t *testing.T, snap *domain.CatalogSnapshot, id string) domain.Product {
	t.Helper()
	p, ok := snap.Product(id)
	if !ok {
		t.Fatalf("product %s not in snapshot", id)
	}
	return p
}

package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/hanko-field/catalog-console/internal/domain"
)

func TestValidateCategoryName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
		code  Code
	}{
		{name: "blank", input: "   ", code: CodeNameRequired},
		{name: "too short", input: " a ", code: CodeNameTooShort},
		{name: "too long", input: strings.Repeat("x", 101), code: CodeNameTooLong},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := ValidateCategory(domain.CategoryInput{Name: tc.input})
			require.Error(t, err)
			require.True(t, HasCode(err, tc.code), "expected %s in %v", tc.code, err)
			require.True(t, errors.Is(err, ErrInvalid))
		})
	}

	cat, err := ValidateCategory(domain.CategoryInput{Name: strings.Repeat("語", 100)})
	require.NoError(t, err)
	require.Equal(t, 0, cat.DisplayOrder)
}

func TestValidateCategoryDisplayOrder(t *testing.T) {
	t.Parallel()

	cat, err := ValidateCategory(domain.CategoryInput{Name: "Electronics", DisplayOrder: " 3 "})
	require.NoError(t, err)
	require.Equal(t, 3, cat.DisplayOrder)
	require.Equal(t, domain.DefaultIconClass, cat.IconClass)

	for _, raw := range []string{"-1", "1.5", "abc"} {
		_, err := ValidateCategory(domain.CategoryInput{Name: "Electronics", DisplayOrder: raw})
		require.True(t, HasCode(err, CodeInvalidOrder), "order %q", raw)
	}
}

func TestValidateCategoryCollectsEveryField(t *testing.T) {
	t.Parallel()

	_, err := ValidateCategory(domain.CategoryInput{Name: "", DisplayOrder: "x"})
	var list Errors
	require.ErrorAs(t, err, &list)
	require.Equal(t, map[string]Code{
		FieldName:         CodeNameRequired,
		FieldDisplayOrder: CodeInvalidOrder,
	}, list.Fields())
}

func TestValidateCategoryIsIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []domain.CategoryInput{
		{Name: "  Electronics ", DisplayOrder: "1", IsEnabled: true, Description: " <b>Gadgets</b> and more "},
		{Name: "Café", IconClass: " bi-cup "},
		{Name: "Home", DisplayOrder: ""},
	}
	for _, in := range inputs {
		first, err := ValidateCategory(in)
		require.NoError(t, err)
		second, err := ValidateCategory(domain.CategoryInputFrom(first))
		require.NoError(t, err)
		require.True(t, first.Equal(second), "first %#v second %#v", first, second)
	}
}

func TestValidateSubCategoryParent(t *testing.T) {
	t.Parallel()

	parents := map[string]struct{}{"cat-1": {}}

	_, err := ValidateSubCategory(domain.SubCategoryInput{Name: "Phones"}, parents)
	require.True(t, HasCode(err, CodeParentRequired))

	_, err = ValidateSubCategory(domain.SubCategoryInput{Name: "Phones", ParentCategoryID: "cat-9"}, parents)
	require.True(t, HasCode(err, CodeParentNotFound))

	sub, err := ValidateSubCategory(domain.SubCategoryInput{Name: "Phones", ParentCategoryID: " cat-1 ", IsEnabled: true}, parents)
	require.NoError(t, err)
	require.Equal(t, "cat-1", sub.ParentCategoryID)

	_, err = ValidateSubCategory(domain.SubCategoryInput{Name: "Phones", ParentCategoryID: "anything"}, nil)
	require.NoError(t, err)
}

func TestValidateProduct(t *testing.T) {
	t.Parallel()

	p, err := ValidateProduct(domain.ProductInput{Name: "Phone", Price: "199.990", StockQuantity: "4"})
	require.NoError(t, err)
	require.Equal(t, "199.99", p.Price.StringFixed(2))
	require.Equal(t, 4, p.StockQuantity)

	_, err = ValidateProduct(domain.ProductInput{Name: "Phone", StockQuantity: "1"})
	require.True(t, HasCode(err, CodePriceRequired))

	for _, raw := range []string{"0", "-2", "0.001", "1.005", "199.999", "free"} {
		_, err = ValidateProduct(domain.ProductInput{Name: "Phone", Price: raw, StockQuantity: "1"})
		require.True(t, HasCode(err, CodePriceInvalid), "price %q", raw)
	}
}

func TestValidateVariantStock(t *testing.T) {
	t.Parallel()

	base := domain.VariantInput{ProductID: "p-1", Name: "Red"}

	in := base
	in.StockQuantity = "-1"
	_, err := ValidateVariant(in, nil)
	require.True(t, HasCode(err, CodeStockInvalid))

	in.StockQuantity = ""
	_, err = ValidateVariant(in, nil)
	require.True(t, HasCode(err, CodeStockRequired))

	in.StockQuantity = "5"
	plan, err := ValidateVariant(in, nil)
	require.NoError(t, err)
	require.Equal(t, 5, plan.Variant.StockQuantity)
}

func TestValidateVariantPriceOverride(t *testing.T) {
	t.Parallel()

	in := domain.VariantInput{ProductID: "p-1", Name: "R", StockQuantity: "1", PriceOverride: "   "}
	plan, err := ValidateVariant(in, nil)
	require.NoError(t, err)
	require.Nil(t, plan.Variant.PriceOverride)

	in.PriceOverride = "12.5"
	plan, err = ValidateVariant(in, nil)
	require.NoError(t, err)
	require.NotNil(t, plan.Variant.PriceOverride)
	require.True(t, plan.Variant.PriceOverride.Equal(decimal.RequireFromString("12.50")))

	in.PriceOverride = "-3"
	_, err = ValidateVariant(in, nil)
	require.True(t, HasCode(err, CodePriceInvalid))
}

func TestValidateVariantRequiresProduct(t *testing.T) {
	t.Parallel()

	_, err := ValidateVariant(domain.VariantInput{Name: "Red", StockQuantity: "1"}, nil)
	var list Errors
	require.ErrorAs(t, err, &list)
	require.Equal(t, CodeParentRequired, list.Fields()[FieldProduct])
}

func TestValidateVariantFeaturedEmitsCompanions(t *testing.T) {
	t.Parallel()

	siblings := []domain.Variant{
		{ID: "v-a", ProductID: "p-1", IsFeatured: true},
		{ID: "v-c", ProductID: "p-1", IsFeatured: true},
		{ID: "v-d", ProductID: "p-1"},
		{ID: "v-b", ProductID: "p-1", IsFeatured: true},
	}
	in := domain.VariantInput{ID: "v-b", ProductID: "p-1", Name: "Blue", StockQuantity: "2", IsFeatured: true}

	plan, err := ValidateVariant(in, siblings)
	require.NoError(t, err)
	require.True(t, plan.Variant.IsFeatured)
	require.Equal(t, []CompanionInstruction{
		{VariantID: "v-a", Fields: []string{FieldIsFeatured}},
		{VariantID: "v-c", Fields: []string{FieldIsFeatured}},
	}, plan.Companions)

	in.IsFeatured = false
	plan, err = ValidateVariant(in, siblings)
	require.NoError(t, err)
	require.Empty(t, plan.Companions)
}

func TestValidateVariantSKUScope(t *testing.T) {
	t.Parallel()

	siblings := []domain.Variant{{ID: "v-1", ProductID: "p-1", SKU: "RED-01"}}
	others := []domain.Variant{{ID: "v-9", ProductID: "p-2", SKU: "BLU-01"}}
	in := domain.VariantInput{ProductID: "p-1", Name: "Red", StockQuantity: "1", SKU: "red-01"}

	_, err := NewEngine().ValidateVariant(in, siblings)
	require.NoError(t, err)

	_, err = NewEngine(WithSKUScope(SKUScopeProduct)).ValidateVariant(in, siblings)
	require.True(t, HasCode(err, CodeSKUDuplicate))

	in.ID = "v-1"
	_, err = NewEngine(WithSKUScope(SKUScopeProduct)).ValidateVariant(in, siblings)
	require.NoError(t, err, "a variant never conflicts with itself")

	global := NewEngine(WithSKUScope(SKUScopeGlobal), WithCatalogVariants(func() []domain.Variant {
		return append(append([]domain.Variant{}, siblings...), others...)
	}))
	_, err = global.ValidateVariant(domain.VariantInput{ProductID: "p-1", Name: "Blue", StockQuantity: "1", SKU: "BLU-01"}, siblings)
	require.True(t, HasCode(err, CodeSKUDuplicate))
}

func TestParseSKUScope(t *testing.T) {
	t.Parallel()

	scope, err := ParseSKUScope("")
	require.NoError(t, err)
	require.Equal(t, SKUScopeNone, scope)

	scope, err = ParseSKUScope(" Global ")
	require.NoError(t, err)
	require.Equal(t, SKUScopeGlobal, scope)

	_, err = ParseSKUScope("tenant")
	require.Error(t, err)
}

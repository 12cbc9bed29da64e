package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hanko-field/catalog-console/internal/domain"
)

type categoryDTO struct {
	ID             string     `json:"id,omitempty"`
	Name           string     `json:"name"`
	Description    string     `json:"description,omitempty"`
	IconClass      string     `json:"iconClass,omitempty"`
	IsEnabled      bool       `json:"isEnabled"`
	DisplayOrder   int        `json:"displayOrder"`
	SubCategoryIDs []string   `json:"subCategoryIds,omitempty"`
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty"`
}

type subCategoryDTO struct {
	ID               string     `json:"id,omitempty"`
	Name             string     `json:"name"`
	Description      string     `json:"description,omitempty"`
	IconClass        string     `json:"iconClass,omitempty"`
	IsEnabled        bool       `json:"isEnabled"`
	DisplayOrder     int        `json:"displayOrder"`
	ParentCategoryID string     `json:"parentCategoryId"`
	CreatedAt        *time.Time `json:"createdAt,omitempty"`
	UpdatedAt        *time.Time `json:"updatedAt,omitempty"`
}

type productDTO struct {
	ID            string          `json:"id,omitempty"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	Category      string          `json:"category,omitempty"`
	IsActive      bool            `json:"isActive"`
	HasVariants   bool            `json:"hasVariants"`
	CreatedAt     *time.Time      `json:"createdAt,omitempty"`
	UpdatedAt     *time.Time      `json:"updatedAt,omitempty"`
}

type variantDTO struct {
	ID            string           `json:"id,omitempty"`
	ProductID     string           `json:"productId"`
	Name          string           `json:"name"`
	SKU           string           `json:"sku,omitempty"`
	StockQuantity int              `json:"stockQuantity"`
	ImageURL      string           `json:"imageUrl,omitempty"`
	PriceOverride *decimal.Decimal `json:"priceOverride"`
	IsAvailable   bool             `json:"isAvailable"`
	IsFeatured    bool             `json:"isFeatured"`
	DisplayOrder  int              `json:"displayOrder"`
	CreatedAt     *time.Time       `json:"createdAt,omitempty"`
	UpdatedAt     *time.Time       `json:"updatedAt,omitempty"`
}

func deref(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}

// Outgoing DTOs never carry server-owned fields.

func toCategoryDTO(c domain.Category) categoryDTO {
	return categoryDTO{
		ID:           c.ID,
		Name:         c.Name,
		Description:  c.Description,
		IconClass:    c.IconClass,
		IsEnabled:    c.IsEnabled,
		DisplayOrder: c.DisplayOrder,
	}
}

func (d categoryDTO) toDomain() domain.Category {
	return domain.Category{
		ID:             d.ID,
		Name:           d.Name,
		Description:    d.Description,
		IconClass:      d.IconClass,
		IsEnabled:      d.IsEnabled,
		DisplayOrder:   d.DisplayOrder,
		SubCategoryIDs: d.SubCategoryIDs,
		CreatedAt:      deref(d.CreatedAt),
		UpdatedAt:      deref(d.UpdatedAt),
	}
}

func toSubCategoryDTO(s domain.SubCategory) subCategoryDTO {
	return subCategoryDTO{
		ID:               s.ID,
		Name:             s.Name,
		Description:      s.Description,
		IconClass:        s.IconClass,
		IsEnabled:        s.IsEnabled,
		DisplayOrder:     s.DisplayOrder,
		ParentCategoryID: s.ParentCategoryID,
	}
}

func (d subCategoryDTO) toDomain() domain.SubCategory {
	return domain.SubCategory{
		ID:               d.ID,
		Name:             d.Name,
		Description:      d.Description,
		IconClass:        d.IconClass,
		IsEnabled:        d.IsEnabled,
		DisplayOrder:     d.DisplayOrder,
		ParentCategoryID: d.ParentCategoryID,
		CreatedAt:        deref(d.CreatedAt),
		UpdatedAt:        deref(d.UpdatedAt),
	}
}

func toProductDTO(p domain.Product) productDTO {
	return productDTO{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		Category:      p.Category,
		IsActive:      p.IsActive,
		HasVariants:   p.HasVariants,
	}
}

func (d productDTO) toDomain() domain.Product {
	return domain.Product{
		ID:            d.ID,
		Name:          d.Name,
		Description:   d.Description,
		Price:         d.Price,
		StockQuantity: d.StockQuantity,
		Category:      d.Category,
		IsActive:      d.IsActive,
		HasVariants:   d.HasVariants,
		CreatedAt:     deref(d.CreatedAt),
		UpdatedAt:     deref(d.UpdatedAt),
	}
}

func toVariantDTO(v domain.Variant) variantDTO {
	return variantDTO{
		ID:            v.ID,
		ProductID:     v.ProductID,
		Name:          v.Name,
		SKU:           v.SKU,
		StockQuantity: v.StockQuantity,
		ImageURL:      v.ImageURL,
		PriceOverride: v.PriceOverride,
		IsAvailable:   v.IsAvailable,
		IsFeatured:    v.IsFeatured,
		DisplayOrder:  v.DisplayOrder,
	}
}

func (d variantDTO) toDomain() domain.Variant {
	return domain.Variant{
		ID:            d.ID,
		ProductID:     d.ProductID,
		Name:          d.Name,
		SKU:           d.SKU,
		StockQuantity: d.StockQuantity,
		ImageURL:      d.ImageURL,
		PriceOverride: d.PriceOverride,
		IsAvailable:   d.IsAvailable,
		IsFeatured:    d.IsFeatured,
		DisplayOrder:  d.DisplayOrder,
		CreatedAt:     deref(d.CreatedAt),
		UpdatedAt:     deref(d.UpdatedAt),
	}
}

func (c *Client) ListCategories(ctx context.Context, includeDisabled bool) ([]domain.Category, error) {
	var out []categoryDTO
	if err := c.call(ctx, "catalog.listCategories", http.MethodGet, []string{"categories"}, boolQuery("includeDisabled", includeDisabled), nil, &out); err != nil {
		return nil, err
	}
	cats := make([]domain.Category, 0, len(out))
	for _, d := range out {
		cats = append(cats, d.toDomain())
	}
	return cats, nil
}

func (c *Client) GetCategory(ctx context.Context, categoryID string) (domain.Category, error) {
	var out categoryDTO
	if err := c.call(ctx, "catalog.getCategory", http.MethodGet, []string{"categories", categoryID}, nil, nil, &out); err != nil {
		return domain.Category{}, err
	}
	return out.toDomain(), nil
}

func (c *Client) CreateCategory(ctx context.Context, category domain.Category) (domain.Category, error) {
	var out categoryDTO
	if err := c.call(ctx, "catalog.createCategory", http.MethodPost, []string{"categories"}, nil, toCategoryDTO(category), &out); err != nil {
		return domain.Category{}, err
	}
	return out.toDomain(), nil
}

func (c *Client) UpdateCategory(ctx context.Context, category domain.Category) (domain.Category, error) {
	var out categoryDTO
	if err := c.call(ctx, "catalog.updateCategory", http.MethodPut, []string{"categories", category.ID}, nil, toCategoryDTO(category), &out); err != nil {
		return domain.Category{}, err
	}
	return out.toDomain(), nil
}

func (c *Client) DeleteCategory(ctx context.Context, categoryID string) error {
	return c.call(ctx, "catalog.deleteCategory", http.MethodDelete, []string{"categories", categoryID}, nil, nil, nil)
}

func (c *Client) ListSubCategories(ctx context.Context, categoryID string) ([]domain.SubCategory, error) {
	path := []string{"subcategories"}
	if categoryID != "" {
		path = []string{"categories", categoryID, "subcategories"}
	}
	var out []subCategoryDTO
	if err := c.call(ctx, "catalog.listSubCategories", http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	subs := make([]domain.SubCategory, 0, len(out))
	for _, d := range out {
		subs = append(subs, d.toDomain())
	}
	return subs, nil
}

func (c *Client) GetSubCategory(ctx context.Context, subCategoryID string) (domain.SubCategory, error) {
	var out subCategoryDTO
	if err := c.call(ctx, "catalog.getSubCategory", http.MethodGet, []string{"subcategories", subCategoryID}, nil, nil, &out); err != nil {
		return domain.SubCategory{}, err
	}
	return out.toDomain(), nil
}

func (c *Client) CreateSubCategory(ctx context.Context, sub domain.SubCategory) (domain.SubCategory, error) {
	var out subCategoryDTO
	if err := c.call(ctx, "catalog.createSubCategory", http.MethodPost, []string{"subcategories"}, nil, toSubCategoryDTO(sub), &out); err != nil {
		return domain.SubCategory{}, err
	}
	return out.toDomain(), nil
}

func (c *Client) UpdateSubCategory(ctx context.Context, sub domain.SubCategory) (domain.SubCategory, error) {
	var out subCategoryDTO
	if err := c.call(ctx, "catalog.updateSubCategory", http.MethodPut, []string{"subcategories", sub.ID}, nil, toSubCategoryDTO(sub), &out); err != nil {
		return domain.SubCategory{}, err
	}
	return out.toDomain(), nil
}

func (c *Client) DeleteSubCategory(ctx context.Context, subCategoryID string) error {
	return c.call(ctx, "catalog.deleteSubCategory", http.MethodDelete, []string{"subcategories", subCategoryID}, nil, nil, nil)
}

func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var out []productDTO
	if err := c.call(ctx, "catalog.listProducts", http.MethodGet, []string{"products"}, nil, nil, &out); err != nil {
		return nil, err
	}
	products := make([]domain.Product, 0, len(out))
	for _, d := range out {
		products = append(products, d.toDomain())
	}
	return products, nil
}

func (c *Client) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	var out productDTO
	if err := c.call(ctx, "catalog.getProduct", http.MethodGet, []string{"products", productID}, nil, nil, &out); err != nil {
		return domain.Product{}, err
	}
	return out.toDomain(), nil
}

func (c *Client) CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	var out productDTO
	if err := c.call(ctx, "catalog.createProduct", http.MethodPost, []string{"products"}, nil, toProductDTO(product), &out); err != nil {
		return domain.Product{}, err
	}
	return out.toDomain(), nil
}

func (c *Client) UpdateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	var out productDTO
	if err := c.call(ctx, "catalog.updateProduct", http.MethodPut, []string{"products", product.ID}, nil, toProductDTO(product), &out); err != nil {
		return domain.Product{}, err
	}
	return out.toDomain(), nil
}

func (c *Client) DeleteProduct(ctx context.Context, productID string) error {
	return c.call(ctx, "catalog.deleteProduct", http.MethodDelete, []string{"products", productID}, nil, nil, nil)
}

func (c *Client) ListVariants(ctx context.Context, productID string) ([]domain.Variant, error) {
	var out []variantDTO
	if err := c.call(ctx, "catalog.listVariants", http.MethodGet, []string{"products", productID, "variants"}, nil, nil, &out); err != nil {
		return nil, err
	}
	variants := make([]domain.Variant, 0, len(out))
	for _, d := range out {
		variants = append(variants, d.toDomain())
	}
	return variants, nil
}

func (c *Client) GetVariant(ctx context.Context, productID, variantID string) (domain.Variant, error) {
	var out variantDTO
	if err := c.call(ctx, "catalog.getVariant", http.MethodGet, []string{"products", productID, "variants", variantID}, nil, nil, &out); err != nil {
		return domain.Variant{}, err
	}
	return out.toDomain(), nil
}

func (c *Client) CreateVariant(ctx context.Context, variant domain.Variant) (domain.Variant, error) {
	var out variantDTO
	if err := c.call(ctx, "catalog.createVariant", http.MethodPost, []string{"products", variant.ProductID, "variants"}, nil, toVariantDTO(variant), &out); err != nil {
		return domain.Variant{}, err
	}
	return out.toDomain(), nil
}

func (c *Client) UpdateVariant(ctx context.Context, variant domain.Variant) (domain.Variant, error) {
	var out variantDTO
	if err := c.call(ctx, "catalog.updateVariant", http.MethodPut, []string{"products", variant.ProductID, "variants", variant.ID}, nil, toVariantDTO(variant), &out); err != nil {
		return domain.Variant{}, err
	}
	return out.toDomain(), nil
}

func (c *Client) DeleteVariant(ctx context.Context, productID, variantID string) error {
	return c.call(ctx, "catalog.deleteVariant", http.MethodDelete, []string{"products", productID, "variants", variantID}, nil, nil, nil)
}

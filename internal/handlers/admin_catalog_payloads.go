package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hanko-field/catalog-console/internal/domain"
	"github.com/hanko-field/catalog-console/internal/hierarchy"
	"github.com/hanko-field/catalog-console/internal/services"
	"github.com/hanko-field/catalog-console/internal/validation"
)

const maxCatalogRequestBody = 256 * 1024

var errInvalidRequestBody = errors.New("invalid request body")

// formValue accepts a JSON string or number and keeps the operator's text for validation.
type formValue string

func (v *formValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = formValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", string(data))
	}
	*v = formValue(n.String())
	return nil
}

type categoryRequest struct {
	DraftKey     string    `json:"draftKey"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	IconClass    string    `json:"iconClass"`
	IsEnabled    bool      `json:"isEnabled"`
	DisplayOrder formValue `json:"displayOrder"`
}

func (r categoryRequest) input(id string) domain.CategoryInput {
	return domain.CategoryInput{
		ID:           id,
		Name:         r.Name,
		Description:  r.Description,
		IconClass:    r.IconClass,
		IsEnabled:    r.IsEnabled,
		DisplayOrder: string(r.DisplayOrder),
	}
}

type subCategoryRequest struct {
	DraftKey         string    `json:"draftKey"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	IconClass        string    `json:"iconClass"`
	IsEnabled        bool      `json:"isEnabled"`
	DisplayOrder     formValue `json:"displayOrder"`
	ParentCategoryID string    `json:"parentCategoryId"`
}

func (r subCategoryRequest) input(id string) domain.SubCategoryInput {
	return domain.SubCategoryInput{
		ID:               id,
		Name:             r.Name,
		Description:      r.Description,
		IconClass:        r.IconClass,
		IsEnabled:        r.IsEnabled,
		DisplayOrder:     string(r.DisplayOrder),
		ParentCategoryID: r.ParentCategoryID,
	}
}

type productRequest struct {
	DraftKey      string    `json:"draftKey"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         formValue `json:"price"`
	StockQuantity formValue `json:"stockQuantity"`
	Category      string    `json:"category"`
	IsActive      bool      `json:"isActive"`
	HasVariants   bool      `json:"hasVariants"`
}

func (r productRequest) input(id string) domain.ProductInput {
	return domain.ProductInput{
		ID:            id,
		Name:          r.Name,
		Description:   r.Description,
		Price:         string(r.Price),
		StockQuantity: string(r.StockQuantity),
		Category:      r.Category,
		IsActive:      r.IsActive,
		HasVariants:   r.HasVariants,
	}
}

type variantRequest struct {
	DraftKey      string    `json:"draftKey"`
	ProductID     string    `json:"productId"`
	Name          string    `json:"name"`
	SKU           string    `json:"sku"`
	StockQuantity formValue `json:"stockQuantity"`
	ImageURL      string    `json:"imageUrl"`
	PriceOverride formValue `json:"priceOverride"`
	IsAvailable   bool      `json:"isAvailable"`
	IsFeatured    bool      `json:"isFeatured"`
	DisplayOrder  formValue `json:"displayOrder"`
}

func (r variantRequest) input(productID, id string) domain.VariantInput {
	if strings.TrimSpace(productID) == "" {
		productID = r.ProductID
	}
	return domain.VariantInput{
		ID:            id,
		ProductID:     productID,
		Name:          r.Name,
		SKU:           r.SKU,
		StockQuantity: string(r.StockQuantity),
		ImageURL:      r.ImageURL,
		PriceOverride: string(r.PriceOverride),
		IsAvailable:   r.IsAvailable,
		IsFeatured:    r.IsFeatured,
		DisplayOrder:  string(r.DisplayOrder),
	}
}

func decodeJSONBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxCatalogRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body required", errInvalidRequestBody)
		}
		return fmt.Errorf("%w: %v", errInvalidRequestBody, err)
	}
	return nil
}

type categoryResponse struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	IconClass      string   `json:"iconClass"`
	IsEnabled      bool     `json:"isEnabled"`
	DisplayOrder   int      `json:"displayOrder"`
	SubCategoryIDs []string `json:"subCategoryIds"`
	CreatedAt      string   `json:"createdAt,omitempty"`
	UpdatedAt      string   `json:"updatedAt,omitempty"`
}

func newCategoryResponse(c domain.Category) categoryResponse {
	ids := c.SubCategoryIDs
	if ids == nil {
		ids = []string{}
	}
	return categoryResponse{
		ID:             c.ID,
		Name:           c.Name,
		Description:    c.Description,
		IconClass:      c.IconClass,
		IsEnabled:      c.IsEnabled,
		DisplayOrder:   c.DisplayOrder,
		SubCategoryIDs: ids,
		CreatedAt:      formatTime(c.CreatedAt),
		UpdatedAt:      formatTime(c.UpdatedAt),
	}
}

type subCategoryResponse struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	IconClass        string `json:"iconClass"`
	IsEnabled        bool   `json:"isEnabled"`
	DisplayOrder     int    `json:"displayOrder"`
	ParentCategoryID string `json:"parentCategoryId"`
	Visible          *bool  `json:"visible,omitempty"`
	CreatedAt        string `json:"createdAt,omitempty"`
	UpdatedAt        string `json:"updatedAt,omitempty"`
}

func newSubCategoryResponse(s domain.SubCategory) subCategoryResponse {
	return subCategoryResponse{
		ID:               s.ID,
		Name:             s.Name,
		Description:      s.Description,
		IconClass:        s.IconClass,
		IsEnabled:        s.IsEnabled,
		DisplayOrder:     s.DisplayOrder,
		ParentCategoryID: s.ParentCategoryID,
		CreatedAt:        formatTime(s.CreatedAt),
		UpdatedAt:        formatTime(s.UpdatedAt),
	}
}

type categoryTreeResponse struct {
	categoryResponse
	SubCategories []subCategoryResponse `json:"subCategories"`
}

func newCategoryTreeResponse(views []hierarchy.CategoryView) []categoryTreeResponse {
	out := make([]categoryTreeResponse, 0, len(views))
	for _, view := range views {
		node := categoryTreeResponse{
			categoryResponse: newCategoryResponse(view.Category),
			SubCategories:    make([]subCategoryResponse, 0, len(view.SubCategories)),
		}
		for _, sub := range view.SubCategories {
			resp := newSubCategoryResponse(sub.SubCategory)
			visible := sub.Visible
			resp.Visible = &visible
			node.SubCategories = append(node.SubCategories, resp)
		}
		out = append(out, node)
	}
	return out
}

type productResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Price         string `json:"price"`
	StockQuantity int    `json:"stockQuantity"`
	Category      string `json:"category,omitempty"`
	IsActive      bool   `json:"isActive"`
	HasVariants   bool   `json:"hasVariants"`
	CreatedAt     string `json:"createdAt,omitempty"`
	UpdatedAt     string `json:"updatedAt,omitempty"`
}

func newProductResponse(p domain.Product) productResponse {
	return productResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         domain.FormatPrice(p.Price),
		StockQuantity: p.StockQuantity,
		Category:      p.Category,
		IsActive:      p.IsActive,
		HasVariants:   p.HasVariants,
		CreatedAt:     formatTime(p.CreatedAt),
		UpdatedAt:     formatTime(p.UpdatedAt),
	}
}

type variantResponse struct {
	ID             string `json:"id"`
	ProductID      string `json:"productId"`
	Name           string `json:"name"`
	SKU            string `json:"sku,omitempty"`
	StockQuantity  int    `json:"stockQuantity"`
	ImageURL       string `json:"imageUrl,omitempty"`
	PriceOverride  string `json:"priceOverride,omitempty"`
	EffectivePrice string `json:"effectivePrice,omitempty"`
	IsAvailable    bool   `json:"isAvailable"`
	IsFeatured     bool   `json:"isFeatured"`
	DisplayOrder   int    `json:"displayOrder"`
	CreatedAt      string `json:"createdAt,omitempty"`
	UpdatedAt      string `json:"updatedAt,omitempty"`
}

func newVariantResponse(v domain.Variant) variantResponse {
	resp := variantResponse{
		ID:            v.ID,
		ProductID:     v.ProductID,
		Name:          v.Name,
		SKU:           v.SKU,
		StockQuantity: v.StockQuantity,
		ImageURL:      v.ImageURL,
		IsAvailable:   v.IsAvailable,
		IsFeatured:    v.IsFeatured,
		DisplayOrder:  v.DisplayOrder,
		CreatedAt:     formatTime(v.CreatedAt),
		UpdatedAt:     formatTime(v.UpdatedAt),
	}
	if v.PriceOverride != nil {
		resp.PriceOverride = domain.FormatPrice(*v.PriceOverride)
	}
	return resp
}

func newVariantViewResponses(views []hierarchy.VariantView) []variantResponse {
	out := make([]variantResponse, 0, len(views))
	for _, view := range views {
		resp := newVariantResponse(view.Variant)
		resp.EffectivePrice = domain.FormatPrice(view.EffectivePrice)
		out = append(out, resp)
	}
	return out
}

type productViewResponse struct {
	Product           productResponse   `json:"product"`
	Variants          []variantResponse `json:"variants"`
	FeaturedVariantID string            `json:"featuredVariantId,omitempty"`
	EffectiveStock    int               `json:"effectiveStock"`
	MinPrice          string            `json:"minPrice"`
	MaxPrice          string            `json:"maxPrice"`
	AwaitingVariants  bool              `json:"awaitingVariants"`
}

func newProductViewResponse(view hierarchy.ProductView) productViewResponse {
	resp := productViewResponse{
		Product:          newProductResponse(view.Product),
		Variants:         newVariantViewResponses(view.Variants),
		EffectiveStock:   view.EffectiveStock,
		MinPrice:         domain.FormatPrice(view.MinPrice),
		MaxPrice:         domain.FormatPrice(view.MaxPrice),
		AwaitingVariants: view.AwaitingVariants,
	}
	if view.Featured != nil {
		resp.FeaturedVariantID = view.Featured.ID
	}
	return resp
}

func entityResponse(entity any) any {
	switch v := entity.(type) {
	case domain.Category:
		return newCategoryResponse(v)
	case domain.SubCategory:
		return newSubCategoryResponse(v)
	case domain.Product:
		return newProductResponse(v)
	case domain.Variant:
		return newVariantResponse(v)
	default:
		return nil
	}
}

type mutationResponse struct {
	Kind     string   `json:"kind"`
	ID       string   `json:"id"`
	DraftKey string   `json:"draftKey,omitempty"`
	Op       string   `json:"op"`
	Entity   any      `json:"entity,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func newMutationResponse(res services.MutationResult) mutationResponse {
	resp := mutationResponse{
		Kind:     string(res.Key.Kind),
		ID:       res.Key.ID,
		Op:       string(res.Op),
		Entity:   entityResponse(res.Entity),
		Warnings: res.Warnings,
	}
	if res.Op == domain.OpCreate {
		resp.DraftKey = res.DraftKey.ID
	}
	return resp
}

type companionResponse struct {
	VariantID string   `json:"variantId"`
	Fields    []string `json:"fields"`
}

type validationResponse struct {
	Valid      bool                `json:"valid"`
	Entity     any                 `json:"entity"`
	Companions []companionResponse `json:"companions,omitempty"`
}

func newVariantPlanResponse(plan validation.VariantPlan) validationResponse {
	resp := validationResponse{Valid: true, Entity: newVariantResponse(plan.Variant)}
	for _, c := range plan.Companions {
		resp.Companions = append(resp.Companions, companionResponse{VariantID: c.VariantID, Fields: c.Fields})
	}
	return resp
}

type statusEventResponse struct {
	Kind       string `json:"kind"`
	ID         string `json:"id"`
	Op         string `json:"op,omitempty"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	OccurredAt string `json:"occurredAt,omitempty"`
}

func newStatusEventResponse(evt domain.StatusEvent) statusEventResponse {
	resp := statusEventResponse{
		Kind:       string(evt.Key.Kind),
		ID:         evt.Key.ID,
		Op:         string(evt.Op),
		Status:     string(evt.Status),
		OccurredAt: formatTime(evt.OccurredAt),
	}
	if evt.Err != nil {
		resp.Error = evt.Err.Error()
	}
	return resp
}

type deleteImpactResponse struct {
	CategoryID     string   `json:"categoryId"`
	MemberCount    int      `json:"memberCount"`
	SubCategoryIDs []string `json:"subCategoryIds"`
	Warning        string   `json:"warning,omitempty"`
}

func newDeleteImpactResponse(impact hierarchy.DeleteImpact) deleteImpactResponse {
	ids := impact.SubCategoryIDs
	if ids == nil {
		ids = []string{}
	}
	return deleteImpactResponse{
		CategoryID:     impact.CategoryID,
		MemberCount:    impact.MemberCount,
		SubCategoryIDs: ids,
		Warning:        impact.Warning,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

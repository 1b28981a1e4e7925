// Package reconcile posts reviewer-approved extraction results into the
// catalog, matching extracted names against existing records and applying
// stock and category side effects.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stockdesk-app/stockdesk/internal/common"
	"github.com/stockdesk-app/stockdesk/internal/entity"
	"github.com/stockdesk-app/stockdesk/internal/llm"
	"github.com/stockdesk-app/stockdesk/internal/repository"
)

// PostPurchaseInput is a reviewed purchase extraction ready for posting.
type PostPurchaseInput struct {
	Extraction llm.PurchaseExtraction
	// UseExistingSupplier prefers an existing supplier match over creating
	// one. A unique index on LOWER(name) means a create for an existing
	// name resolves to the same row either way.
	UseExistingSupplier bool
}

// PostPurchaseResult reports what the posting did to the catalog.
type PostPurchaseResult struct {
	Purchase          *entity.Purchase
	SupplierID        uuid.UUID
	SupplierCreated   bool
	ProductsCreated   int
	ProductsUpdated   int
	CategoriesCreated int
}

type Service struct {
	suppliers  repository.SupplierRepository
	products   repository.ProductRepository
	categories repository.CategoryRepository
	purchases  repository.PurchaseRepository
	logger     *slog.Logger
}

func NewService(
	suppliers repository.SupplierRepository,
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	purchases repository.PurchaseRepository,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		suppliers:  suppliers,
		products:   products,
		categories: categories,
		purchases:  purchases,
		logger:     logger,
	}
}

// PostPurchase reconciles the extraction against the catalog and writes the
// purchase record. Name matching is case-insensitive and exact; there is no
// fuzzy merging. Product and category creation commits before the purchase
// row references them; a late purchase-write failure leaves those rows in
// place.
func (s *Service) PostPurchase(ctx context.Context, in PostPurchaseInput) (*PostPurchaseResult, error) {
	reqID := uuid.New().String()
	start := time.Now()

	ext := in.Extraction
	v := common.NewValidator().
		Field("vendor", ext.Vendor, common.Required).
		Field("totalAmount", ext.TotalAmount, common.NonNegative)
	if v.HasErrors() {
		return nil, v.Error()
	}

	s.logger.Info("reconcile.post.start",
		"req_id", reqID, "vendor", ext.Vendor, "items", len(ext.Items))

	supplier, supplierCreated, err := s.resolveSupplier(ctx, ext.Vendor, in.UseExistingSupplier)
	if err != nil {
		return nil, fmt.Errorf("resolve supplier %q: %w", ext.Vendor, err)
	}

	// Categories created earlier in this batch are visible to later items.
	catCache, err := s.loadCategoryCache(ctx)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}

	result := &PostPurchaseResult{
		SupplierID:      supplier.ID,
		SupplierCreated: supplierCreated,
	}

	purchase := &entity.Purchase{
		SupplierID:   supplier.ID,
		PurchaseDate: parsePurchaseDate(ext.Date),
		TotalAmount:  ext.TotalAmount,
		TaxAmount:    ext.TaxAmount,
	}
	if ext.InvoiceNumber != "" {
		purchase.InvoiceNumber = &ext.InvoiceNumber
	}
	if ext.Notes != "" {
		purchase.Notes = &ext.Notes
	}

	for i, item := range ext.Items {
		categoryID, createdCat, err := s.resolveCategory(ctx, item.Category, catCache)
		if err != nil {
			return nil, fmt.Errorf("resolve category for item %d: %w", i, err)
		}
		if createdCat {
			result.CategoriesCreated++
		}

		product, createdProd, err := s.resolveProduct(ctx, item, categoryID, supplier.ID)
		if err != nil {
			return nil, fmt.Errorf("resolve product for item %d: %w", i, err)
		}
		if createdProd {
			result.ProductsCreated++
		} else {
			result.ProductsUpdated++
		}

		purchase.Items = append(purchase.Items, entity.PurchaseItem{
			ProductID:  product.ID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.TotalPrice,
		})
	}

	purchase, err = s.purchases.Create(ctx, purchase)
	if err != nil {
		return nil, fmt.Errorf("create purchase: %w", err)
	}
	result.Purchase = purchase

	s.logger.Info("reconcile.post.ok",
		"req_id", reqID, "purchase_id", purchase.ID,
		"supplier_created", supplierCreated,
		"products_created", result.ProductsCreated,
		"products_updated", result.ProductsUpdated,
		"categories_created", result.CategoriesCreated,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (s *Service) resolveSupplier(ctx context.Context, vendor string, useExisting bool) (*entity.Supplier, bool, error) {
	if useExisting {
		supplier, err := s.suppliers.FindByName(ctx, vendor)
		if err == nil {
			return supplier, false, nil
		}
		if !errors.Is(err, common.ErrNotFound) {
			return nil, false, err
		}
	}
	return s.suppliers.FindOrCreate(ctx, vendor)
}

// categoryCache keys are lower-cased names.
type categoryCache map[string]*entity.Category

func (s *Service) loadCategoryCache(ctx context.Context) (categoryCache, error) {
	existing, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	cache := make(categoryCache, len(existing))
	for _, c := range existing {
		cache[strings.ToLower(c.Name)] = c
	}
	return cache, nil
}

func (s *Service) resolveCategory(ctx context.Context, name string, cache categoryCache) (*uuid.UUID, bool, error) {
	if name == "" {
		return nil, false, nil
	}
	if c, ok := cache[strings.ToLower(name)]; ok {
		return &c.ID, false, nil
	}
	c, created, err := s.categories.FindOrCreate(ctx, name)
	if err != nil {
		return nil, false, err
	}
	cache[strings.ToLower(c.Name)] = c
	return &c.ID, created, nil
}

func (s *Service) resolveProduct(ctx context.Context, item llm.LineItem, categoryID *uuid.UUID, supplierID uuid.UUID) (*entity.Product, bool, error) {
	existing, err := s.products.FindByName(ctx, item.Description)
	switch {
	case err == nil:
		if err := s.products.AddStock(ctx, existing.ID, item.Quantity); err != nil {
			return nil, false, err
		}
		if existing.CategoryID == nil && categoryID != nil {
			if err := s.products.SetCategory(ctx, existing.ID, *categoryID); err != nil {
				return nil, false, err
			}
			existing.CategoryID = categoryID
		}
		// The most recent purchase wins the supplier link.
		if err := s.products.SetSupplier(ctx, existing.ID, supplierID); err != nil {
			return nil, false, err
		}
		existing.SupplierID = &supplierID
		return existing, false, nil

	case errors.Is(err, common.ErrNotFound):
		product := &entity.Product{
			Name:       item.Description,
			SKU:        generateSKU(),
			CategoryID: categoryID,
			SupplierID: &supplierID,
			UnitPrice:  item.UnitPrice,
			Stock:      item.Quantity,
			MinStock:   minStockFor(item.Quantity),
		}
		created, err := s.products.Create(ctx, product)
		if err != nil {
			return nil, false, err
		}
		return created, true, nil

	default:
		return nil, false, err
	}
}

func generateSKU() string {
	return fmt.Sprintf("SKU-%d-%s", time.Now().UnixMilli(), strings.ToUpper(uuid.New().String()[:8]))
}

// minStockFor sets the reorder threshold to half the initial receipt, at
// least 1.
func minStockFor(qty int) int {
	if half := qty / 2; half >= 1 {
		return half
	}
	return 1
}

func parsePurchaseDate(date string) time.Time {
	if t, err := time.Parse("2006-01-02", date); err == nil {
		return t
	}
	return time.Now().UTC().Truncate(24 * time.Hour)
}

package services

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path"
	"path/filepath"

	"qashop/internal/domain"
	"qashop/internal/repos"
	"qashop/internal/validate"

	"github.com/google/uuid"
)

const maxImageBytes = 2 << 20

// ProductInput is the raw admin form for a new product.
type ProductInput struct {
	Name        string
	Description string
	Price       string
	Stock       string
}

// Upload is an image attached to the form. Save writes it to dst.
type Upload struct {
	ContentType string
	Size        int64
	Save        func(dst string) error
}

type InventoryService struct {
	Prods    *repos.ProductRepo
	Inv      *repos.InventoryRepo
	MediaDir string
}

func NewInventoryService(prods *repos.ProductRepo, inv *repos.InventoryRepo, mediaDir string) *InventoryService {
	return &InventoryService{Prods: prods, Inv: inv, MediaDir: mediaDir}
}

// CreateProduct validates every field (all problems are reported at once),
// stores the optional image under MediaDir and inserts the product.
func (s *InventoryService) CreateProduct(ctx context.Context, in ProductInput, img *Upload) (int64, error) {
	verr := &ValidationError{}
	p := domain.Product{ImagePath: domain.DefaultImagePath}

	var ok bool
	if p.Name, ok = validate.ProductName(in.Name); !ok {
		verr.add("name", "Product name is required and must be 50 characters or less")
	}
	if p.Description, ok = validate.Description(in.Description); !ok {
		verr.add("description", "Description must be 150 characters or less")
	}
	if p.Price, ok = validate.Price(in.Price); !ok {
		verr.add("price", "Price must be greater than 0")
	}
	if p.Stock, ok = validate.Stock(in.Stock); !ok {
		verr.add("stock", "Stock cannot be negative")
	}

	var ext string
	if img != nil {
		if ext, ok = validate.ImageType(img.ContentType); !ok {
			verr.add("image", "Invalid image type. Please upload JPEG, PNG, or WebP images.")
		} else if img.Size > maxImageBytes {
			verr.add("image", "Image size must be less than 2MB.")
		}
	}
	if err := verr.orNil(); err != nil {
		return 0, err
	}

	var dst string
	if img != nil {
		rel := path.Join("products", uuid.NewString()+ext)
		dst = filepath.Join(s.MediaDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return 0, err
		}
		if err := img.Save(dst); err != nil {
			return 0, err
		}
		p.ImagePath = rel
	}

	id, err := s.Prods.Create(ctx, p)
	if err != nil {
		// no row points at the file
		if dst != "" {
			_ = os.Remove(dst)
		}
		return 0, err
	}
	return id, nil
}

// UpdateStock overwrites the stock level of a product and returns the
// previous level for the audit trail.
func (s *InventoryService) UpdateStock(ctx context.Context, productID int64, qty int) (int, error) {
	if qty < 0 {
		return 0, &ValidationError{Fields: map[string]string{"stock": "Stock cannot be negative"}}
	}
	prev, err := s.Inv.Stock(ctx, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	if err := s.Inv.SetStock(ctx, productID, qty); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return prev, nil
}

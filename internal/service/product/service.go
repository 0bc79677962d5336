package product

import (
	"context"
	"strings"

	"coffeespot/internal/domain"
	productrepo "coffeespot/internal/repository/product"
	"coffeespot/internal/storage"
	"github.com/rs/zerolog"
)

const imagePrefix = "products"

type Service struct {
	repo   productrepo.Repository
	store  storage.Storage
	logger zerolog.Logger
}

func New(repo productrepo.Repository, store storage.Storage, logger zerolog.Logger) *Service {
	return &Service{repo: repo, store: store, logger: logger.With().Str("service", "product").Logger()}
}

// CreateInput is the catalog entry submitted by an admin.
type CreateInput struct {
	Title       string        `json:"title" form:"title"`
	Description string        `json:"description" form:"description"`
	Price       domain.Amount `json:"price" form:"price"`
	Categories  []string      `json:"category" form:"category"`
	Stock       int           `json:"stock" form:"stock"`
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Title       *string
	Description *string
	Price       *domain.Amount
	Categories  []string
	Stock       *int
}

func (s *Service) Create(ctx context.Context, caller domain.Identity, in CreateInput, image *storage.Upload) (*domain.Product, error) {
	const op = "product.create"
	if !caller.IsAdmin() {
		return nil, domain.Forbidden(op, "only admins can add products")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.Invalid(op, "title required")
	}
	price, err := in.Price.Cents()
	if err != nil {
		return nil, err
	}
	categories := cleanCategories(in.Categories)
	if len(categories) == 0 {
		return nil, domain.Invalid(op, "at least one category required")
	}
	if in.Stock < 0 || in.Stock > domain.MaxStock {
		return nil, domain.Invalid(op, "stock must be between 0 and %d", domain.MaxStock)
	}
	if image == nil {
		return nil, domain.Invalid(op, "product image required")
	}

	key := storage.NewKey(imagePrefix, image.Filename)
	url, err := s.store.Put(ctx, key, image.Body, image.ContentType)
	if err != nil {
		return nil, domain.Internal(op, err)
	}

	p, err := s.repo.Create(ctx, productrepo.CreateInput{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		PriceCents:  price,
		Categories:  categories,
		Stock:       in.Stock,
		ImageKey:    key,
		ImageURL:    url,
		AddedBy:     caller.ID,
	})
	if err != nil {
		s.discard(ctx, key)
		if domain.ErrorCode(err) == domain.ECONFLICT {
			return nil, domain.Conflict(op, "product %q already exists", title)
		}
		return nil, err
	}
	s.logger.Info().Str("product_id", p.ID).Str("admin_id", caller.ID).Msg("product added")
	return p, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("product.get", id, err)
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, caller domain.Identity, id string, in UpdateInput, image *storage.Upload) (*domain.Product, error) {
	const op = "product.update"
	if !caller.IsAdmin() {
		return nil, domain.Forbidden(op, "only admins can update products")
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(op, id, err)
	}

	upd := productrepo.UpdateInput{Description: in.Description, Stock: in.Stock}
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return nil, domain.Invalid(op, "title must not be empty")
		}
		upd.Title = &t
	}
	if in.Price != nil {
		cents, err := in.Price.Cents()
		if err != nil {
			return nil, err
		}
		upd.PriceCents = &cents
	}
	if in.Categories != nil {
		cats := cleanCategories(in.Categories)
		if len(cats) == 0 {
			return nil, domain.Invalid(op, "at least one category required")
		}
		upd.Categories = cats
	}
	if in.Stock != nil && (*in.Stock < 0 || *in.Stock > domain.MaxStock) {
		return nil, domain.Invalid(op, "stock must be between 0 and %d", domain.MaxStock)
	}

	var newKey string
	if image != nil {
		newKey = storage.NewKey(imagePrefix, image.Filename)
		url, err := s.store.Put(ctx, newKey, image.Body, image.ContentType)
		if err != nil {
			return nil, domain.Internal(op, err)
		}
		upd.ImageKey = &newKey
		upd.ImageURL = &url
	}

	p, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		if newKey != "" {
			s.discard(ctx, newKey)
		}
		return nil, notFound(op, id, err)
	}
	if newKey != "" && existing.ImageKey != "" {
		s.discard(ctx, existing.ImageKey)
	}
	return p, nil
}

// Delete removes the product and then its image; a failed image delete is only logged.
func (s *Service) Delete(ctx context.Context, caller domain.Identity, id string) error {
	const op = "product.delete"
	if !caller.IsAdmin() {
		return domain.Forbidden(op, "only admins can delete products")
	}
	p, err := s.repo.Delete(ctx, id)
	if err != nil {
		return notFound(op, id, err)
	}
	if p.ImageKey != "" {
		s.discard(ctx, p.ImageKey)
	}
	s.logger.Info().Str("product_id", id).Str("admin_id", caller.ID).Msg("product deleted")
	return nil
}

func (s *Service) discard(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("image cleanup failed")
	}
}

func cleanCategories(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, raw := range in {
		for _, part := range strings.Split(raw, ",") {
			c := strings.ToLower(strings.TrimSpace(part))
			if c == "" || seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

func notFound(op, id string, err error) error {
	if domain.ErrorCode(err) == domain.ENOTFOUND {
		return domain.NotFound(op, "Product %s not found", id)
	}
	return err
}

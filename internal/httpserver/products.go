package httpserver

import (
	"context"
	"net/http"
	"strconv"

	"coffeespot/internal/domain"
	productsvc "coffeespot/internal/service/product"
	"coffeespot/internal/storage"
	"github.com/gin-gonic/gin"
)

// ProductService is the catalog used by the product routes.
type ProductService interface {
	Create(ctx context.Context, caller domain.Identity, in productsvc.CreateInput, image *storage.Upload) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Update(ctx context.Context, caller domain.Identity, id string, in productsvc.UpdateInput, image *storage.Upload) (*domain.Product, error)
	Delete(ctx context.Context, caller domain.Identity, id string) error
}

// CategoryService lists category tags in use.
type CategoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
}

const productImageField = "productImage"

func (h *handlers) addProduct(c *gin.Context) {
	in := productsvc.CreateInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Price:       domain.Amount(c.PostForm("price")),
	}
	in.Categories, _ = formList(c, "category")
	if raw, ok := c.GetPostForm("stock"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(c, domain.Invalid("product.create", "stock must be an integer"))
			return
		}
		in.Stock = n
	}
	image, done, err := formImage(c, productImageField, h.maxUpload)
	if err != nil {
		writeError(c, err)
		return
	}
	defer done()

	p, err := h.products.Create(c.Request.Context(), caller(c), in, image)
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusCreated, "Product added successfully", gin.H{"product": p})
}

func (h *handlers) listProducts(c *gin.Context) {
	products, err := h.products.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, "Products fetched successfully", gin.H{"products": products})
}

func (h *handlers) getProduct(c *gin.Context) {
	p, err := h.products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, "Product fetched successfully", gin.H{"product": p})
}

func (h *handlers) updateProduct(c *gin.Context) {
	const op = "product.update"
	var in productsvc.UpdateInput
	if v, ok := c.GetPostForm("title"); ok {
		in.Title = &v
	}
	if v, ok := c.GetPostForm("description"); ok {
		in.Description = &v
	}
	if v, ok := c.GetPostForm("price"); ok {
		amount := domain.Amount(v)
		in.Price = &amount
	}
	if tags, ok := formList(c, "category"); ok {
		in.Categories = tags
	}
	if v, ok := c.GetPostForm("stock"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(c, domain.Invalid(op, "stock must be an integer"))
			return
		}
		in.Stock = &n
	}
	image, done, err := formImage(c, productImageField, h.maxUpload)
	if err != nil {
		writeError(c, err)
		return
	}
	defer done()

	p, err := h.products.Update(c.Request.Context(), caller(c), c.Param("id"), in, image)
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, "Product updated successfully", gin.H{"product": p})
}

func (h *handlers) deleteProduct(c *gin.Context) {
	if err := h.products.Delete(c.Request.Context(), caller(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, "Product deleted successfully", nil)
}

func (h *handlers) listCategories(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, "Categories fetched successfully", gin.H{"categories": categories})
}

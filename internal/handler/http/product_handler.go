package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/shop-service/internal/product"
)

// ProductRequest is the body of addProduct and editProduct. Price is a
// pointer so a missing price can be told apart from zero.
type ProductRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Images      []string `json:"images"`
	Stock       int      `json:"stock" validate:"gte=0"`
}

func (p ProductRequest) toProduct() *product.Product {
	out := &product.Product{
		Title:       strings.TrimSpace(p.Title),
		Description: p.Description,
		Images:      p.Images,
		Stock:       p.Stock,
	}
	if p.Price != nil {
		out.Price = *p.Price
	}
	if out.Images == nil {
		out.Images = []string{}
	}
	return out
}

type SearchProductResponse struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
}

type ProductHandler struct {
	service  product.Service
	validate *validator.Validate
}

func NewProductHandler(service product.Service) *ProductHandler {
	return &ProductHandler{service: service, validate: newValidator()}
}

func (h *ProductHandler) handleGetAll(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.GetAll(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err, msgServerError)
		return
	}

	respond(w, http.StatusOK, "Products fetched successfully", products)
}

func (h *ProductHandler) handleGetByID(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	p, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err, "Product not found")
		return
	}

	respond(w, http.StatusOK, "Product fetched successfully", p)
}

func (h *ProductHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	filter, err := parseSearchFilter(r)
	if err != nil {
		log.Warn().Err(err).Str("query", r.URL.RawQuery).Msg("Rejected search query")
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	products, err := h.service.Search(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, r, err, msgServerError)
		return
	}

	result := make([]SearchProductResponse, len(products))
	for i, p := range products {
		result[i] = SearchProductResponse{
			ID:          p.ID,
			Title:       p.Title,
			Description: p.Description,
			Price:       p.Price,
			Stock:       p.Stock,
		}
	}

	respond(w, http.StatusOK, "Products fetched successfully", result)
}

func parseSearchFilter(r *http.Request) (product.SearchFilter, error) {
	q := r.URL.Query()
	f := product.SearchFilter{
		Search: strings.TrimSpace(q.Get("search")),
		Page:   product.DefaultPage,
		Limit:  product.DefaultLimit,
	}

	var err error
	if f.MinPrice, err = optionalFloat(q.Get("minPrice"), "minPrice"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = optionalFloat(q.Get("maxPrice"), "maxPrice"); err != nil {
		return f, err
	}

	if raw := q.Get("page"); raw != "" {
		if f.Page, err = strconv.Atoi(raw); err != nil || f.Page < 1 {
			return f, errors.New("page must be a positive integer")
		}
	}
	if raw := q.Get("limit"); raw != "" {
		if f.Limit, err = strconv.Atoi(raw); err != nil || f.Limit < 1 {
			return f, errors.New("limit must be a positive integer")
		}
	}
	if f.Limit > product.MaxLimit {
		f.Limit = product.MaxLimit
	}

	return f, nil
}

func optionalFloat(raw, name string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, errors.New(name + " must be a number")
	}
	return &v, nil
}

func (h *ProductHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !h.decodeProduct(w, r, &req) {
		return
	}

	created, err := h.service.Create(r.Context(), req.toProduct())
	if err != nil {
		respondWithServiceError(w, r, err, msgServerError)
		return
	}

	respond(w, http.StatusOK, "Product added successfully", created)
}

func (h *ProductHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	var req ProductRequest
	if !h.decodeProduct(w, r, &req) {
		return
	}

	p := req.toProduct()
	p.ID = id

	updated, err := h.service.Update(r.Context(), p)
	if err != nil {
		respondWithServiceError(w, r, err, "Product not found or not updated")
		return
	}

	respond(w, http.StatusOK, "Product updated successfully", updated)
}

func (h *ProductHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		respondWithServiceError(w, r, err, "Product not found or already deleted")
		return
	}

	respond(w, http.StatusOK, "Product deleted successfully", nil)
}

func (h *ProductHandler) decodeProduct(w http.ResponseWriter, r *http.Request, req *ProductRequest) bool {
	if !decodeJSON(w, r, h.validate, req, false) {
		return false
	}
	if strings.TrimSpace(req.Title) == "" || req.Price == nil {
		respondWithError(w, http.StatusBadRequest, "Title and price are required")
		return false
	}
	return true
}

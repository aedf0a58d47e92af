package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/game-store/internal/service"
)

// maxUploadMemory is how much of a multipart body is held in memory before
// spilling to temp files (the image itself streams from disk either way).
const maxUploadMemory = 10 << 20 // 10 MiB

// ProductHandler exposes the catalog: list, detail, and authenticated
// product creation with an optional image upload.
type ProductHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewProductHandler creates a ProductHandler.
func NewProductHandler(svc *service.CatalogService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{service: svc, logger: logger}
}

// HandleList returns all products.
//
// HTTP: GET /api/products
//
// Prices are JSON numbers, the list is [] when the catalog is empty, and
// there is no pagination — the storefront renders the whole catalog.
func (h *ProductHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("listing products", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// HandleGetByID returns one product with its platform associations.
//
// HTTP: GET /api/products/{id}
func (h *ProductHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "product id must be a number",
		})
		return
	}

	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// HandleCreate adds a product to the catalog.
//
// HTTP: POST /api/products (behind RequireAuth)
// BODY: multipart form — nombre_juego, descripcion, precio, id_plataforma,
// usado, and an optional "image" file part.
//
// The field names are the Spanish ones the existing storefront's FormData
// sends; renaming them would break every deployed client.
func (h *ProductHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		h.logger.Warn("invalid multipart form", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "request body must be a multipart form",
		})
		return
	}

	input := service.CreateProductInput{
		Name:        r.FormValue("nombre_juego"),
		Description: r.FormValue("descripcion"),
		Price:       r.FormValue("precio"),
		PlatformID:  r.FormValue("id_plataforma"),
		Used:        r.FormValue("usado"),
	}

	// The image part is optional; http.ErrMissingFile just means the seller
	// didn't attach one.
	file, header, err := r.FormFile("image")
	if err == nil {
		defer file.Close()
		input.Image = file
		input.ImageName = header.Filename
	} else if !errors.Is(err, http.ErrMissingFile) {
		h.logger.Warn("reading image part", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid image upload",
		})
		return
	}

	product, err := h.service.Create(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, product)
}

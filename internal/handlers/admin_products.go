package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/askmatsya/bolt/internal/models"
	"github.com/askmatsya/bolt/internal/store"
	"github.com/shopspring/decimal"
)

func (h *AdminHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, offset := pagination(r)
	filter := store.ProductFilter{
		Search:     strings.TrimSpace(r.URL.Query().Get("q")),
		CategoryID: r.URL.Query().Get("category"),
	}
	total, err := h.Store.CountProducts(r.Context(), filter)
	if err != nil {
		logFor("admin").Error().Err(err).Msg("Failed to count products")
		http.Error(w, "Error fetching products", http.StatusInternalServerError)
		return
	}
	filter.Limit, filter.Offset = adminPageSize, offset
	products, err := h.Store.ListProducts(r.Context(), filter)
	if err != nil {
		logFor("admin").Error().Err(err).Msg("Failed to list products")
		http.Error(w, "Error fetching products", http.StatusInternalServerError)
		return
	}
	categories, err := h.Store.ListCategories(r.Context(), false)
	if err != nil {
		http.Error(w, "Error fetching categories", http.StatusInternalServerError)
		return
	}

	h.page(w, r, "admin_products.html", "Products", map[string]any{
		"Products":    products,
		"Categories":  categories,
		"Search":      filter.Search,
		"CategoryID":  filter.CategoryID,
		"CurrentPage": page,
		"TotalPages":  totalPages(total),
	})
}

func (h *AdminHandler) NewProductForm(w http.ResponseWriter, r *http.Request) {
	h.productForm(w, r, models.Product{}, "Add product")
}

func (h *AdminHandler) EditProductForm(w http.ResponseWriter, r *http.Request) {
	product, err := h.Store.GetProduct(r.Context(), r.URL.Query().Get("id"))
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Error fetching product", http.StatusInternalServerError)
		return
	}
	h.productForm(w, r, *product, "Edit "+product.Name)
}

func (h *AdminHandler) productForm(w http.ResponseWriter, r *http.Request, p models.Product, title string) {
	categories, err := h.Store.ListCategories(r.Context(), false)
	if err != nil {
		http.Error(w, "Error fetching categories", http.StatusInternalServerError)
		return
	}
	artisans, err := h.Store.ListArtisans(r.Context(), "")
	if err != nil {
		http.Error(w, "Error fetching artisans", http.StatusInternalServerError)
		return
	}
	h.page(w, r, "admin_product_form.html", title, map[string]any{
		"Product":    p,
		"Categories": categories,
		"Artisans":   artisans,
	})
}

// productFromForm copies the submitted fields onto p and validates them.
func productFromForm(r *http.Request, p *models.Product) map[string]string {
	errs := make(map[string]string)

	p.Name = strings.TrimSpace(r.FormValue("name"))
	if p.Name == "" {
		errs["name"] = "Name is required."
	}
	price, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(r.FormValue("price")), ",", ""))
	switch {
	case err != nil:
		errs["price"] = "Invalid price format."
	case !price.IsPositive():
		errs["price"] = "Price must be positive."
	default:
		p.Price = price
	}

	p.CategoryID = r.FormValue("category_id")
	p.ArtisanID = r.FormValue("artisan_id")
	p.PriceRange = strings.TrimSpace(r.FormValue("price_range"))
	p.Origin = strings.TrimSpace(r.FormValue("origin"))
	p.Description = strings.TrimSpace(r.FormValue("description"))
	p.CulturalSignificance = strings.TrimSpace(r.FormValue("cultural_significance"))
	p.Tags = splitList(r.FormValue("tags"), true)
	p.Occasions = splitList(r.FormValue("occasions"), true)
	p.Materials = splitList(r.FormValue("materials"), false)
	p.CraftTime = strings.TrimSpace(r.FormValue("craft_time"))
	if u := strings.TrimSpace(r.FormValue("image_url")); u != "" {
		p.ImageURL = u
	}
	p.Active = r.FormValue("is_active") == "true"
	return errs
}

// splitList turns "Silk, wedding ,," into ["Silk" "wedding"]. Tags and
// occasions are matched exactly in lower case, so callers lower them.
func splitList(raw string, lower bool) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		v := strings.TrimSpace(part)
		if lower {
			v = strings.ToLower(v)
		}
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	const formURL = "/admin/products/new"
	if err := parseAdminForm(r); err != nil {
		h.invalid(w, r, formURL, map[string]string{"form": "File too large. Max 10MB."})
		return
	}

	var p models.Product
	if errs := productFromForm(r, &p); len(errs) > 0 {
		h.invalid(w, r, formURL, errs)
		return
	}
	imageURL, err := h.saveImage(r)
	if err != nil {
		h.invalid(w, r, formURL, map[string]string{"image": "Image upload failed: " + err.Error()})
		return
	}
	if imageURL != "" {
		p.ImageURL = imageURL
	}

	if err := h.Store.CreateProduct(r.Context(), &p); err != nil {
		h.done(w, r, formURL, err, "Error saving product to database.")
		return
	}
	h.Catalog.Refresh(r.Context())
	h.done(w, r, "/admin/products", nil, "Product added successfully!")
}

func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	if err := parseAdminForm(r); err != nil {
		h.invalid(w, r, "/admin/products", map[string]string{"form": "File too large. Max 10MB."})
		return
	}
	id := r.FormValue("id")
	formURL := "/admin/products/edit?id=" + url.QueryEscape(id)

	p, err := h.Store.GetProduct(r.Context(), id)
	if err != nil {
		h.done(w, r, "/admin/products", err, "Product not found.")
		return
	}
	if errs := productFromForm(r, p); len(errs) > 0 {
		h.invalid(w, r, formURL, errs)
		return
	}
	imageURL, err := h.saveImage(r)
	if err != nil {
		h.invalid(w, r, formURL, map[string]string{"image": "Image upload failed: " + err.Error()})
		return
	}
	if imageURL != "" {
		p.ImageURL = imageURL
	}

	if err := h.Store.UpdateProduct(r.Context(), p); err != nil {
		h.done(w, r, formURL, err, "Error updating product.")
		return
	}
	h.Catalog.Refresh(r.Context())
	h.done(w, r, "/admin/products", nil, "Product updated successfully!")
}

// ToggleProduct shows or hides a product. Products are never deleted.
func (h *AdminHandler) ToggleProduct(w http.ResponseWriter, r *http.Request) {
	active := r.FormValue("active") == "true"
	if err := h.Store.SetProductActive(r.Context(), r.FormValue("id"), active); err != nil {
		h.done(w, r, "/admin/products", err, "Error updating product.")
		return
	}
	h.Catalog.Refresh(r.Context())
	msg := "Product hidden from the shop."
	if active {
		msg = "Product is visible in the shop."
	}
	h.done(w, r, "/admin/products", nil, msg)
}

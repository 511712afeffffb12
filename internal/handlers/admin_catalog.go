package handlers

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/askmatsya/bolt/internal/models"
)

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// slugify turns "Home Décor & Gifts" into "home-d-cor-gifts".
func slugify(name string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

func (h *AdminHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Store.ListCategories(r.Context(), false)
	if err != nil {
		logFor("admin").Error().Err(err).Msg("Failed to list categories")
		http.Error(w, "Error fetching categories", http.StatusInternalServerError)
		return
	}
	h.page(w, r, "admin_categories.html", "Categories", map[string]any{
		"Categories": categories,
	})
}

func categoryFromForm(r *http.Request, c *models.Category) map[string]string {
	errs := make(map[string]string)
	c.Name = strings.TrimSpace(r.FormValue("name"))
	if c.Name == "" {
		errs["name"] = "Name is required."
	}
	c.Slug = slugify(r.FormValue("slug"))
	if c.Slug == "" {
		c.Slug = slugify(c.Name)
	}
	c.Description = strings.TrimSpace(r.FormValue("description"))
	if raw := strings.TrimSpace(r.FormValue("sort_order")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs["sort_order"] = "Sort order must be a whole number."
		}
		c.SortOrder = n
	}
	return errs
}

func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	c := models.Category{Active: true}
	if errs := categoryFromForm(r, &c); len(errs) > 0 {
		h.invalid(w, r, "/admin/categories", errs)
		return
	}
	if err := h.Store.CreateCategory(r.Context(), &c); err != nil {
		h.done(w, r, "/admin/categories", err, "Error saving category. Names and slugs must be unique.")
		return
	}
	h.Catalog.Refresh(r.Context())
	h.done(w, r, "/admin/categories", nil, "Category added successfully!")
}

func (h *AdminHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.Store.GetCategory(r.Context(), r.FormValue("id"))
	if err != nil {
		h.done(w, r, "/admin/categories", err, "Category not found.")
		return
	}
	if errs := categoryFromForm(r, c); len(errs) > 0 {
		h.invalid(w, r, "/admin/categories", errs)
		return
	}
	if err := h.Store.UpdateCategory(r.Context(), c); err != nil {
		h.done(w, r, "/admin/categories", err, "Error updating category.")
		return
	}
	h.Catalog.Refresh(r.Context())
	h.done(w, r, "/admin/categories", nil, "Category updated successfully!")
}

func (h *AdminHandler) ToggleCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.SetCategoryActive(r.Context(), r.FormValue("id"), r.FormValue("active") == "true"); err != nil {
		h.done(w, r, "/admin/categories", err, "Error updating category.")
		return
	}
	h.Catalog.Refresh(r.Context())
	h.done(w, r, "/admin/categories", nil, "Category updated.")
}

func (h *AdminHandler) ListArtisans(w http.ResponseWriter, r *http.Request) {
	search := strings.TrimSpace(r.URL.Query().Get("q"))
	artisans, err := h.Store.ListArtisans(r.Context(), search)
	if err != nil {
		logFor("admin").Error().Err(err).Msg("Failed to list artisans")
		http.Error(w, "Error fetching artisans", http.StatusInternalServerError)
		return
	}
	h.page(w, r, "admin_artisans.html", "Artisans", map[string]any{
		"Artisans":      artisans,
		"Search":        search,
		"Verifications": []models.VerificationStatus{models.VerificationPending, models.VerificationVerified, models.VerificationRejected},
	})
}

func artisanFromForm(r *http.Request, a *models.Artisan) map[string]string {
	errs := make(map[string]string)
	a.Name = strings.TrimSpace(r.FormValue("name"))
	if a.Name == "" {
		errs["name"] = "Name is required."
	}
	a.Location = strings.TrimSpace(r.FormValue("location"))
	a.Bio = strings.TrimSpace(r.FormValue("bio"))
	a.ContactInfo = strings.TrimSpace(r.FormValue("contact_info"))
	a.Specialization = splitList(r.FormValue("specialization"), false)

	if v := models.VerificationStatus(r.FormValue("verification_status")); v != "" {
		if !v.Valid() {
			errs["verification_status"] = "Invalid verification status."
		}
		a.VerificationStatus = v
	}
	if raw := strings.TrimSpace(r.FormValue("rating")); raw != "" {
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil || rating < 0 || rating > 5 {
			errs["rating"] = "Rating must be between 0 and 5."
		}
		a.Rating = rating
	}
	return errs
}

func (h *AdminHandler) CreateArtisan(w http.ResponseWriter, r *http.Request) {
	a := models.Artisan{Active: true}
	if errs := artisanFromForm(r, &a); len(errs) > 0 {
		h.invalid(w, r, "/admin/artisans", errs)
		return
	}
	if err := h.Store.CreateArtisan(r.Context(), &a); err != nil {
		h.done(w, r, "/admin/artisans", err, "Error saving artisan. Names must be unique.")
		return
	}
	h.Catalog.Refresh(r.Context())
	h.done(w, r, "/admin/artisans", nil, "Artisan added successfully!")
}

func (h *AdminHandler) UpdateArtisan(w http.ResponseWriter, r *http.Request) {
	a, err := h.Store.GetArtisan(r.Context(), r.FormValue("id"))
	if err != nil {
		h.done(w, r, "/admin/artisans", err, "Artisan not found.")
		return
	}
	if errs := artisanFromForm(r, a); len(errs) > 0 {
		h.invalid(w, r, "/admin/artisans", errs)
		return
	}
	if err := h.Store.UpdateArtisan(r.Context(), a); err != nil {
		h.done(w, r, "/admin/artisans", err, "Error updating artisan.")
		return
	}
	h.Catalog.Refresh(r.Context())
	h.done(w, r, "/admin/artisans", nil, "Artisan updated successfully!")
}

func (h *AdminHandler) ToggleArtisan(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.SetArtisanActive(r.Context(), r.FormValue("id"), r.FormValue("active") == "true"); err != nil {
		h.done(w, r, "/admin/artisans", err, "Error updating artisan.")
		return
	}
	h.Catalog.Refresh(r.Context())
	h.done(w, r, "/admin/artisans", nil, "Artisan updated.")
}

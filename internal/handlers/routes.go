package handlers

import (
	"net/http"

	"github.com/askmatsya/bolt/web"
	"github.com/swaggest/swgui/v5emb"
)

// Router groups the handlers served by one mux.
type Router struct {
	API         *APIHandler
	Home        *HomeHandler
	Orders      *OrderHandler
	Admin       *AdminHandler
	RateLimiter *RateLimiter

	// Metrics serves /metrics when set.
	Metrics http.Handler
}

func (rt *Router) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Static files and uploads
	mux.Handle("/static/", http.StripPrefix("/static", http.FileServerFS(web.Static())))
	mux.Handle(UploadURLPrefix, http.StripPrefix(UploadURLPrefix, http.FileServer(http.Dir(rt.Admin.UploadDir))))

	// Public Routes
	mux.HandleFunc("GET /{$}", rt.Home.Index)
	mux.HandleFunc("GET /order", rt.Orders.OrderForm)
	mux.HandleFunc("POST /order", rt.RateLimiter.Middleware(rt.Orders.SubmitOrder))
	mux.HandleFunc("GET /order/{id}", rt.Orders.Confirmation)

	// JSON API
	mux.HandleFunc("/api/chat", rt.API.Chat)
	mux.HandleFunc("/api/transcribe", rt.API.Transcribe)
	mux.HandleFunc("GET /api/conversations/{id}", rt.API.Conversation)
	mux.HandleFunc("GET /api/products", rt.API.Products)
	mux.HandleFunc("GET /api/products/{id}", rt.API.Product)
	mux.HandleFunc("GET /api/recommendations", rt.API.Recommendations)
	mux.HandleFunc("/api/orders", rt.RateLimiter.Middleware(rt.API.PlaceOrder))

	mux.HandleFunc("GET /openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(web.OpenAPI)
	})
	mux.Handle("/api/docs/", v5emb.New("AskMatsya API", "/openapi.yaml", "/api/docs/"))

	// Admin Routes
	a := rt.Admin
	mux.HandleFunc("GET /admin", a.Dashboard)
	mux.HandleFunc("GET /admin/orders", a.ListOrders)
	mux.HandleFunc("POST /admin/orders/update", a.UpdateOrderStatus)

	mux.HandleFunc("GET /admin/products", a.ListProducts)
	mux.HandleFunc("GET /admin/products/new", a.NewProductForm)
	mux.HandleFunc("POST /admin/products", a.CreateProduct)
	mux.HandleFunc("GET /admin/products/edit", a.EditProductForm)
	mux.HandleFunc("POST /admin/products/update", a.UpdateProduct)
	mux.HandleFunc("POST /admin/products/toggle", a.ToggleProduct)

	mux.HandleFunc("GET /admin/categories", a.ListCategories)
	mux.HandleFunc("POST /admin/categories", a.CreateCategory)
	mux.HandleFunc("POST /admin/categories/update", a.UpdateCategory)
	mux.HandleFunc("POST /admin/categories/toggle", a.ToggleCategory)

	mux.HandleFunc("GET /admin/artisans", a.ListArtisans)
	mux.HandleFunc("POST /admin/artisans", a.CreateArtisan)
	mux.HandleFunc("POST /admin/artisans/update", a.UpdateArtisan)
	mux.HandleFunc("POST /admin/artisans/toggle", a.ToggleArtisan)

	if rt.Metrics != nil {
		mux.Handle("GET /metrics", rt.Metrics)
	}
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"catalog": rt.API.Catalog.Source(),
		})
	})
	return mux
}

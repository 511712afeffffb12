package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/askmatsya/bolt/internal/catalog"
	"github.com/askmatsya/bolt/internal/conversation"
	"github.com/askmatsya/bolt/internal/models"
	"github.com/askmatsya/bolt/internal/notify"
	"github.com/askmatsya/bolt/internal/orders"
	"github.com/askmatsya/bolt/internal/speech"
	"github.com/askmatsya/bolt/internal/store"
	"github.com/askmatsya/bolt/web"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type nopSender struct {
	mu    sync.Mutex
	kinds []string
}

func (s *nopSender) Send(_ context.Context, to, body, kind string) (notify.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kinds = append(s.kinds, kind)
	return notify.Delivery{To: to, Channel: notify.ChannelAPI, MessageID: "wamid.test"}, nil
}

type HandlersSuite struct {
	suite.Suite
	store   *store.Store
	cache   *catalog.Cache
	orders  *orders.Service
	mux     *http.ServeMux
	product models.Product
	ctx     context.Context
}

func TestHandlersSuite(t *testing.T) {
	suite.Run(t, new(HandlersSuite))
}

func (s *HandlersSuite) SetupTest() {
	s.ctx = context.Background()
	st, err := store.NewStore(":memory:")
	s.Require().NoError(err)
	s.Require().NoError(st.Migrate())
	s.store = st

	cat := models.Category{Name: "Sarees", Slug: "sarees", Active: true}
	s.Require().NoError(st.CreateCategory(s.ctx, &cat))
	s.product = models.Product{
		Name:       "Banarasi Silk Saree",
		CategoryID: cat.ID,
		Price:      decimal.NewFromInt(15000),
		Tags:       []string{"silk"},
		Occasions:  []string{"wedding"},
		CraftTime:  "30 days",
		Active:     true,
	}
	s.Require().NoError(st.CreateProduct(s.ctx, &s.product))

	s.cache = catalog.NewCache(catalog.NewChain(zerolog.Nop(), catalog.StoreProvider{Store: st}), time.Minute, nil)
	s.orders = orders.NewService(orders.Config{Repo: st, Sender: &nopSender{}, AdminPhone: "9000000000"})

	templates := NewTemplateCache()
	s.Require().NoError(templates.Load(web.Templates()))
	sessionStore := sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef"))

	rt := &Router{
		API: &APIHandler{
			Assistant: conversation.New(conversation.Config{
				Catalog: s.cache,
				Turns:   st,
				Speaker: speech.Planner{},
			}),
			Catalog:         s.cache,
			Orders:          s.orders,
			Transcriber:     speech.NewTranscriber("", ""),
			SessionStore:    sessionStore,
			DefaultLanguage: models.LanguageEnglish,
		},
		Home:   &HomeHandler{Catalog: s.cache, Templates: templates, SessionStore: sessionStore, DefaultLanguage: models.LanguageEnglish},
		Orders: &OrderHandler{Catalog: s.cache, Orders: s.orders, Templates: templates, SessionStore: sessionStore, DefaultLanguage: models.LanguageEnglish},
		Admin: &AdminHandler{
			Store:        st,
			Catalog:      s.cache,
			Orders:       s.orders,
			SessionStore: sessionStore,
			Templates:    templates,
			UploadDir:    s.T().TempDir(),
		},
		RateLimiter: NewRateLimiter(0),
	}
	s.mux = rt.Routes()
}

func (s *HandlersSuite) TearDownTest() {
	s.orders.Wait()
	s.store.Close()
}

func (s *HandlersSuite) do(method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func (s *HandlersSuite) postForm(target string, values url.Values) *httptest.ResponseRecorder {
	return s.do(http.MethodPost, target, "application/x-www-form-urlencoded", values.Encode())
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func (s *HandlersSuite) TestChatAnswersAndStartsConversation() {
	rec := s.do(http.MethodPost, "/api/chat", "application/json", `{"message":"show me wedding sarees"}`)
	s.Require().Equal(http.StatusOK, rec.Code)

	body := decode(s.T(), rec)
	s.True(body["success"].(bool))
	s.NotEmpty(body["conversation_id"])
	s.NotEmpty(body["response"])
	s.Equal("en", body["language"])

	history := s.do(http.MethodGet, "/api/conversations/"+body["conversation_id"].(string), "", "")
	s.Equal(http.StatusOK, history.Code)
	s.Len(decode(s.T(), history)["turns"], 2)
}

func (s *HandlersSuite) TestChatRejectsGetAndEmptyMessage() {
	s.Equal(http.StatusMethodNotAllowed, s.do(http.MethodGet, "/api/chat", "", "").Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/api/chat", "application/json", `{"message":"   "}`).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/api/chat", "application/json", `{`).Code)
}

func (s *HandlersSuite) TestUnknownConversationIs404() {
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/conversations/nope", "", "").Code)
}

func (s *HandlersSuite) TestProductsAndLookup() {
	rec := s.do(http.MethodGet, "/api/products?category=sarees", "", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	body := decode(s.T(), rec)
	s.Equal("store", body["source"])
	s.Len(body["products"], 1)

	s.Len(decode(s.T(), s.do(http.MethodGet, "/api/products?category=spices", "", ""))["products"], 0)
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/api/products/"+s.product.ID, "", "").Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/products/missing", "", "").Code)
}

func (s *HandlersSuite) TestRecommendationsRejectBadBudget() {
	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/api/recommendations?budget=lots", "", "").Code)
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/api/recommendations?budget=20000&occasion=wedding", "", "").Code)
}

func (s *HandlersSuite) TestTranscribeValidatesInput() {
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/api/transcribe", "application/json", `{"language":"en"}`).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/api/transcribe", "application/json", `{"audioData":"%%%"}`).Code)
}

func (s *HandlersSuite) TestPlaceOrderAPI() {
	rec := s.do(http.MethodPost, "/api/orders", "application/json", `{"product_id":"`+s.product.ID+`"}`)
	s.Require().Equal(http.StatusBadRequest, rec.Code)
	fields := decode(s.T(), rec)["fields"].(map[string]any)
	s.Contains(fields, "customer_name")
	s.Contains(fields, "customer_phone")

	rec = s.do(http.MethodPost, "/api/orders", "application/json",
		`{"product_id":"missing","customer_name":"Asha","customer_phone":"9876543210","customer_address":"Pune"}`)
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPost, "/api/orders", "application/json",
		`{"product_id":"`+s.product.ID+`","customer_name":"Asha","customer_phone":"9876543210","customer_address":"Pune"}`)
	s.Require().Equal(http.StatusCreated, rec.Code)
	body := decode(s.T(), rec)
	s.Equal("pending", body["status"])
	s.Contains(body["whatsapp_link"], "https://wa.me/919876543210")

	order, err := s.store.GetOrder(s.ctx, body["order_id"].(string))
	s.Require().NoError(err)
	s.NotEmpty(order.SessionID)
}

func (s *HandlersSuite) TestOrderFormRedirectsToConfirmation() {
	rec := s.postForm("/order", url.Values{
		"product_id":       {s.product.ID},
		"customer_name":    {"Asha"},
		"customer_phone":   {"9876543210"},
		"customer_address": {"12 MG Road, Pune"},
	})
	s.Require().Equal(http.StatusSeeOther, rec.Code)
	loc := rec.Header().Get("Location")
	s.True(strings.HasPrefix(loc, "/order/"), loc)

	s.Equal(http.StatusOK, s.do(http.MethodGet, loc, "", "").Code)
}

func (s *HandlersSuite) TestOrderFormInvalidReturnsToForm() {
	rec := s.postForm("/order", url.Values{"product_id": {s.product.ID}})
	s.Equal(http.StatusSeeOther, rec.Code)
	s.Equal("/order?product="+url.QueryEscape(s.product.ID), rec.Header().Get("Location"))
}

func (s *HandlersSuite) TestPagesRender() {
	for _, path := range []string{
		"/",
		"/order?product=" + s.product.ID,
		"/admin",
		"/admin/products",
		"/admin/products/new",
		"/admin/products/edit?id=" + s.product.ID,
		"/admin/categories",
		"/admin/artisans",
		"/admin/orders",
	} {
		rec := s.do(http.MethodGet, path, "", "")
		s.Equal(http.StatusOK, rec.Code, path+": "+rec.Body.String())
	}
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/order?product=missing", "", "").Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/order/missing", "", "").Code)
}

func (s *HandlersSuite) TestAdminProductCreateRefreshesCatalog() {
	s.Len(s.cache.Load(s.ctx), 1)

	rec := s.postForm("/admin/products", url.Values{
		"name":      {"Kashmiri Saffron"},
		"price":     {"1,200"},
		"tags":      {"Spice, Premium"},
		"is_active": {"true"},
	})
	s.Require().Equal(http.StatusSeeOther, rec.Code)
	s.Equal("/admin/products", rec.Header().Get("Location"))

	products := s.cache.Load(s.ctx)
	s.Require().Len(products, 2)
	var saffron models.Product
	for _, p := range products {
		if p.Name == "Kashmiri Saffron" {
			saffron = p
		}
	}
	s.True(decimal.NewFromInt(1200).Equal(saffron.Price))
	s.Equal([]string{"spice", "premium"}, saffron.Tags)
}

func (s *HandlersSuite) TestAdminProductRejectsBadPrice() {
	rec := s.postForm("/admin/products", url.Values{"name": {"Lamp"}, "price": {"-5"}})
	s.Equal(http.StatusSeeOther, rec.Code)
	s.Equal("/admin/products/new", rec.Header().Get("Location"))
	s.Len(s.cache.Load(s.ctx), 1)
}

func (s *HandlersSuite) TestAdminToggleHidesProduct() {
	rec := s.postForm("/admin/products/toggle", url.Values{"id": {s.product.ID}, "active": {"false"}})
	s.Require().Equal(http.StatusSeeOther, rec.Code)
	s.Empty(s.cache.Load(s.ctx))
}

func (s *HandlersSuite) TestAdminCategoryAndArtisan() {
	rec := s.postForm("/admin/categories", url.Values{"name": {"Home Décor"}, "sort_order": {"3"}})
	s.Require().Equal(http.StatusSeeOther, rec.Code)
	cat, err := s.store.GetCategoryByName(s.ctx, "Home Décor")
	s.Require().NoError(err)
	s.Equal("home-d-cor", cat.Slug)
	s.Equal(3, cat.SortOrder)

	rec = s.postForm("/admin/artisans", url.Values{
		"name":                {"Meera Devi"},
		"location":            {"Jaipur"},
		"specialization":      {"Block printing, Dyeing"},
		"verification_status": {"verified"},
		"rating":              {"4.5"},
	})
	s.Require().Equal(http.StatusSeeOther, rec.Code)
	a, err := s.store.GetArtisanByName(s.ctx, "Meera Devi")
	s.Require().NoError(err)
	s.Equal([]string{"Block printing", "Dyeing"}, a.Specialization)
	s.Equal(models.VerificationVerified, a.VerificationStatus)
	s.InDelta(4.5, a.Rating, 0.001)

	rec = s.postForm("/admin/artisans", url.Values{"name": {"Bad"}, "rating": {"9"}})
	s.Equal(http.StatusSeeOther, rec.Code)
	_, err = s.store.GetArtisanByName(s.ctx, "Bad")
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *HandlersSuite) TestAdminOrderTransitions() {
	placement, err := s.orders.Place(s.ctx, orders.PlaceRequest{
		ProductID:       s.product.ID,
		CustomerName:    "Asha",
		CustomerPhone:   "9876543210",
		CustomerAddress: "Pune",
	})
	s.Require().NoError(err)
	id := placement.Order.ID

	// Skipping ahead is refused.
	s.postForm("/admin/orders/update", url.Values{"id": {id}, "status": {"shipped"}})
	order, err := s.store.GetOrder(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(models.OrderStatusPending, order.Status)

	rec := s.postForm("/admin/orders/update", url.Values{"id": {id}, "status": {"confirmed"}})
	s.Equal(http.StatusSeeOther, rec.Code)
	order, err = s.store.GetOrder(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(models.OrderStatusConfirmed, order.Status)
}

func TestRouteLabel(t *testing.T) {
	cases := map[string]string{
		"/":                     "/",
		"/order/abc":            "/order",
		"/api/products/123":     "/api/products",
		"/admin/orders/update":  "/admin/orders",
		"/static/css/style.css": "/static",
	}
	for path, want := range cases {
		assert.Equal(t, want, routeLabel(path), path)
	}
}

func TestRateLimiterBlocksRepeatRequests(t *testing.T) {
	rl := NewRateLimiter(time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	h := rl.Middleware(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	call := func(path string) int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, call("/api/orders"))
	assert.Equal(t, http.StatusTooManyRequests, call("/api/orders"))

	now = now.Add(2 * time.Minute)
	rl.cleanup()
	_, ok := rl.visitors.Load("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, http.StatusNoContent, call("/order"))
}

func TestNextStatuses(t *testing.T) {
	assert.Equal(t, []models.OrderStatus{models.OrderStatusConfirmed, models.OrderStatusCancelled}, nextStatuses(models.OrderStatusPending))
	assert.Equal(t, []models.OrderStatus{models.OrderStatusDelivered, models.OrderStatusCancelled}, nextStatuses(models.OrderStatusShipped))
	assert.Empty(t, nextStatuses(models.OrderStatusDelivered))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "banarasi-silk", slugify("  Banarasi   Silk! "))
	assert.Equal(t, "", slugify("!!!"))
}

package store

import (
	"context"
	"testing"
	"time"

	"github.com/askmatsya/bolt/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type StoreSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
	clock time.Time
}

func (s *StoreSuite) SetupTest() {
	st, err := NewStore(":memory:")
	s.Require().NoError(err)
	s.Require().NoError(st.Migrate())

	s.clock = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	st.SetClock(func() time.Time {
		s.clock = s.clock.Add(time.Minute)
		return s.clock
	})
	s.store = st
	s.ctx = context.Background()
}

func (s *StoreSuite) TearDownTest() {
	s.store.Close()
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) seedCatalog() (models.Category, models.Artisan, models.Product) {
	cat := models.Category{Name: "Sarees", Slug: "sarees", Active: true}
	s.Require().NoError(s.store.CreateCategory(s.ctx, &cat))

	art := models.Artisan{Name: "Ramesh Kumar", Location: "Varanasi", Specialization: []string{"Silk weaving"}, Active: true}
	s.Require().NoError(s.store.CreateArtisan(s.ctx, &art))

	p := models.Product{
		Name:       "Banarasi Silk Saree",
		CategoryID: cat.ID,
		ArtisanID:  art.ID,
		Price:      decimal.RequireFromString("15000"),
		Tags:       []string{"silk", "bridal"},
		Occasions:  []string{"wedding"},
		Materials:  []string{"silk", "zari"},
		CraftTime:  "30 days",
		Active:     true,
	}
	s.Require().NoError(s.store.CreateProduct(s.ctx, &p))
	return cat, art, p
}

func (s *StoreSuite) TestMigrateIsIdempotent() {
	s.Require().NoError(s.store.Migrate())

	var n int
	s.Require().NoError(s.store.DB.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n))
	s.Equal(2, n)
}

func (s *StoreSuite) TestProductRoundTripResolvesNames() {
	_, _, p := s.seedCatalog()

	got, err := s.store.GetProduct(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("Sarees", got.Category)
	s.Equal("Ramesh Kumar", got.Artisan)
	s.True(got.Price.Equal(decimal.NewFromInt(15000)))
	s.Equal([]string{"silk", "bridal"}, got.Tags)
	s.Equal([]string{"wedding"}, got.Occasions)
	s.Equal("30 days", got.CraftTime)
	s.True(got.Active)
}

func (s *StoreSuite) TestProductWithoutCategoryIsUncategorized() {
	p := models.Product{Name: "Loose Item", Price: decimal.NewFromInt(10), Active: true}
	s.Require().NoError(s.store.CreateProduct(s.ctx, &p))

	got, err := s.store.GetProduct(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("Uncategorized", got.Category)
	s.Empty(got.Tags)
	s.NotNil(got.Tags)
}

func (s *StoreSuite) TestListActiveProductsNewestFirst() {
	_, _, older := s.seedCatalog()
	newer := models.Product{Name: "Spice Box", Price: decimal.NewFromInt(1200), Active: true}
	s.Require().NoError(s.store.CreateProduct(s.ctx, &newer))
	hidden := models.Product{Name: "Retired", Price: decimal.NewFromInt(1), Active: true}
	s.Require().NoError(s.store.CreateProduct(s.ctx, &hidden))
	s.Require().NoError(s.store.SetProductActive(s.ctx, hidden.ID, false))

	got, err := s.store.ListActiveProducts(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(newer.ID, got[0].ID)
	s.Equal(older.ID, got[1].ID)

	n, err := s.store.CountProducts(s.ctx, ProductFilter{})
	s.Require().NoError(err)
	s.Equal(3, n)
}

func (s *StoreSuite) TestProductSearch() {
	s.seedCatalog()
	got, err := s.store.ListProducts(s.ctx, ProductFilter{Search: "banarasi"})
	s.Require().NoError(err)
	s.Len(got, 1)

	got, err = s.store.ListProducts(s.ctx, ProductFilter{Search: "pashmina"})
	s.Require().NoError(err)
	s.Empty(got)
}

func (s *StoreSuite) TestUpdateMissingReturnsNotFound() {
	err := s.store.UpdateProduct(s.ctx, &models.Product{ID: "nope", Price: decimal.Zero})
	s.ErrorIs(err, ErrNotFound)

	_, err = s.store.GetProduct(s.ctx, "nope")
	s.ErrorIs(err, ErrNotFound)

	s.ErrorIs(s.store.UpdateOrderStatus(s.ctx, "nope", models.OrderStatusConfirmed), ErrNotFound)
	s.ErrorIs(s.store.SetArtisanActive(s.ctx, "nope", false), ErrNotFound)
	s.ErrorIs(s.store.SetCategoryActive(s.ctx, "nope", false), ErrNotFound)
}

func (s *StoreSuite) TestArtisanTotalProductsIsDerived() {
	_, art, _ := s.seedCatalog()
	got, err := s.store.GetArtisan(s.ctx, art.ID)
	s.Require().NoError(err)
	s.Equal(1, got.TotalProducts)
	s.Equal(models.VerificationPending, got.VerificationStatus)
	s.Equal([]string{"Silk weaving"}, got.Specialization)
}

func (s *StoreSuite) TestCategoryLookupByName() {
	cat, _, _ := s.seedCatalog()
	got, err := s.store.GetCategoryByName(s.ctx, "SAREES")
	s.Require().NoError(err)
	s.Equal(cat.ID, got.ID)
}

func (s *StoreSuite) TestOrderLifecycle() {
	_, _, p := s.seedCatalog()
	o := models.Order{
		SessionID:        "sess-1",
		ProductID:        p.ID,
		CustomerName:     "Priya",
		CustomerPhone:    "9876543210",
		CustomerAddress:  "12 Anna Salai, Chennai",
		PreferredContact: models.ContactWhatsApp,
		TotalAmount:      decimal.NewNullDecimal(p.Price),
	}
	s.Require().NoError(s.store.CreateOrder(s.ctx, &o))
	s.Equal(models.OrderStatusPending, o.Status)

	s.Require().NoError(s.store.UpdateOrderStatus(s.ctx, o.ID, models.OrderStatusConfirmed))
	s.Require().NoError(s.store.UpdateOrderNotes(s.ctx, o.ID, "called customer"))

	got, err := s.store.GetOrder(s.ctx, o.ID)
	s.Require().NoError(err)
	s.Equal(models.OrderStatusConfirmed, got.Status)
	s.Equal("called customer", got.Notes)
	s.Equal("Banarasi Silk Saree", got.ProductName)
	s.True(got.TotalAmount.Valid)
	s.True(got.TotalAmount.Decimal.Equal(decimal.NewFromInt(15000)))

	list, err := s.store.ListOrders(s.ctx, OrderFilter{Status: models.OrderStatusConfirmed})
	s.Require().NoError(err)
	s.Len(list, 1)

	list, err = s.store.ListOrders(s.ctx, OrderFilter{Search: "priya"})
	s.Require().NoError(err)
	s.Len(list, 1)

	n, err := s.store.CountOrders(s.ctx, OrderFilter{Status: models.OrderStatusPending})
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *StoreSuite) TestDashboardStatsExcludeCancelledRevenue() {
	_, _, p := s.seedCatalog()
	for i, status := range []models.OrderStatus{models.OrderStatusPending, models.OrderStatusDelivered, models.OrderStatusCancelled} {
		o := models.Order{
			SessionID: "s", ProductID: p.ID, CustomerName: "c", CustomerPhone: "1", CustomerAddress: "a",
			PreferredContact: models.ContactCall, TotalAmount: decimal.NewNullDecimal(decimal.NewFromInt(int64(1000 * (i + 1)))),
		}
		s.Require().NoError(s.store.CreateOrder(s.ctx, &o))
		s.Require().NoError(s.store.UpdateOrderStatus(s.ctx, o.ID, status))
	}
	inactive := models.Product{Name: "Old", Price: decimal.NewFromInt(1)}
	s.Require().NoError(s.store.CreateProduct(s.ctx, &inactive))

	stats, err := s.store.GetDashboardStats(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, stats.TotalOrders)
	s.Equal(1, stats.OrdersByStatus[models.OrderStatusCancelled])
	s.True(stats.Revenue.Equal(decimal.NewFromInt(3000)), stats.Revenue.String())
	s.Equal(2, stats.TotalProducts)
	s.Equal(1, stats.ActiveProducts)
	s.Equal(1, stats.InactiveProducts)
	s.Require().Len(stats.ProductOrders, 1)
	s.Equal(3, stats.ProductOrders[0].OrderCount)
	s.Len(stats.RecentOrders, 3)
}

func (s *StoreSuite) TestConversationTurnsKeepOrderAndProducts() {
	_, _, p := s.seedCatalog()
	conv := models.Conversation{ID: "conv-1", Title: "wedding saree", Language: models.LanguageEnglish}
	s.Require().NoError(s.store.EnsureConversation(s.ctx, &conv))

	s.Require().NoError(s.store.AppendTurn(s.ctx, &models.Turn{ConversationID: conv.ID, Message: "wedding", IsUser: true}))
	s.Require().NoError(s.store.AppendTurn(s.ctx, &models.Turn{
		ConversationID: conv.ID, Message: "Here are bridal picks", Type: models.ResponseProducts,
		Products: []models.Product{p},
	}))

	conv.Language = models.LanguageTamil
	s.Require().NoError(s.store.EnsureConversation(s.ctx, &conv))
	got, err := s.store.GetConversation(s.ctx, conv.ID)
	s.Require().NoError(err)
	s.Equal(models.LanguageTamil, got.Language)
	s.Equal("wedding saree", got.Title)

	turns, err := s.store.ListTurns(s.ctx, conv.ID)
	s.Require().NoError(err)
	s.Require().Len(turns, 2)
	s.True(turns[0].IsUser)
	s.Equal(models.ResponseText, turns[0].Type)
	s.Nil(turns[0].Products)
	s.False(turns[1].IsUser)
	s.Require().Len(turns[1].Products, 1)
	s.Equal(p.ID, turns[1].Products[0].ID)
}

func (s *StoreSuite) TestInteractions() {
	in := models.Interaction{
		SessionID:    "sess-9",
		Type:         models.InteractionVoiceQuery,
		QueryText:    "show me sarees",
		ResponseData: map[string]any{"intent": "saree"},
	}
	s.Require().NoError(s.store.CreateInteraction(s.ctx, &in))

	got, err := s.store.ListInteractions(s.ctx, "sess-9")
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(models.LanguageEnglish, got[0].Language)
	s.Equal("saree", got[0].ResponseData["intent"])
}

func TestDecodeSetToleratesGarbage(t *testing.T) {
	assert.Equal(t, []string{}, decodeSet("not json"))
	assert.Equal(t, []string{}, decodeSet(""))
	require.Equal(t, `[]`, encodeSet(nil))
}

// Package orders places customer orders, moves them through the fulfilment
// workflow and sends the WhatsApp messages that go with each step.
package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/askmatsya/bolt/internal/logger"
	"github.com/askmatsya/bolt/internal/metrics"
	"github.com/askmatsya/bolt/internal/models"
	"github.com/askmatsya/bolt/internal/notify"
	"github.com/askmatsya/bolt/internal/store"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	notifyTimeout = 30 * time.Second

	noteConfirmationSent   = "WhatsApp confirmation sent successfully"
	noteConfirmationFailed = "WhatsApp confirmation failed - fallback used"
)

// Repository is the storage the service needs.
type Repository interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error
	UpdateOrderNotes(ctx context.Context, id, notes string) error
	CreateInteraction(ctx context.Context, in *models.Interaction) error
}

type Config struct {
	Repo            Repository
	Sender          notify.Sender
	AdminPhone      string
	PublicURL       string
	DefaultLanguage models.Language
	Metrics         *metrics.Metrics
}

type Service struct {
	repo        Repository
	sender      notify.Sender
	adminPhone  string
	publicURL   string
	defaultLang models.Language
	metrics     *metrics.Metrics
	logger      zerolog.Logger
	now         func() time.Time
	wg          sync.WaitGroup
}

func NewService(cfg Config) *Service {
	lang := cfg.DefaultLanguage
	if lang == "" {
		lang = models.LanguageEnglish
	}
	return &Service{
		repo:        cfg.Repo,
		sender:      cfg.Sender,
		adminPhone:  cfg.AdminPhone,
		publicURL:   cfg.PublicURL,
		defaultLang: lang,
		metrics:     cfg.Metrics,
		logger:      logger.Component("orders"),
		now:         time.Now,
	}
}

func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

type PlaceRequest struct {
	SessionID        string                `json:"session_id"`
	ProductID        string                `json:"product_id"`
	CustomerName     string                `json:"customer_name"`
	CustomerPhone    string                `json:"customer_phone"`
	CustomerAddress  string                `json:"customer_address"`
	PreferredContact models.ContactChannel `json:"preferred_contact"`
	Notes            string                `json:"order_notes"`
	Language         models.Language       `json:"language"`
	UserAgent        string                `json:"-"`
	IPAddress        string                `json:"-"`
}

// Placement is the result of a placed order. WhatsAppLink opens a chat with
// the confirmation prefilled, for browsers to offer when the API is not used.
type Placement struct {
	Order             *models.Order `json:"order"`
	Ref               string        `json:"order_ref"`
	WhatsAppLink      string        `json:"whatsapp_link"`
	EstimatedDelivery string        `json:"estimated_delivery"`
}

// Validate trims the request and reports every field that is missing or wrong.
func (r *PlaceRequest) Validate() error {
	r.CustomerName = strings.TrimSpace(r.CustomerName)
	r.CustomerPhone = strings.TrimSpace(r.CustomerPhone)
	r.CustomerAddress = strings.TrimSpace(r.CustomerAddress)
	r.Notes = strings.TrimSpace(r.Notes)
	if r.PreferredContact == "" {
		r.PreferredContact = models.ContactWhatsApp
	}

	fields := map[string]string{}
	if r.ProductID == "" {
		fields["product_id"] = "Product is required"
	}
	if r.CustomerName == "" {
		fields["customer_name"] = "Name is required"
	}
	if r.CustomerPhone == "" {
		fields["customer_phone"] = "Phone number is required"
	}
	if r.CustomerAddress == "" {
		fields["customer_address"] = "Address is required"
	}
	if !r.PreferredContact.Valid() {
		fields["preferred_contact"] = "Preferred contact must be whatsapp or call"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Place validates and stores a new pending order, then sends the customer
// confirmation and the admin alert in the background.
func (s *Service) Place(ctx context.Context, req PlaceRequest) (*Placement, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	lang := models.ParseLanguage(string(req.Language), s.defaultLang)

	product, err := s.repo.GetProduct(ctx, req.ProductID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !product.Active) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}

	order := &models.Order{
		SessionID:        req.SessionID,
		ProductID:        product.ID,
		ProductName:      product.Name,
		ProductImageURL:  product.ImageURL,
		ProductPrice:     product.PriceRange,
		CustomerName:     req.CustomerName,
		CustomerPhone:    req.CustomerPhone,
		CustomerAddress:  req.CustomerAddress,
		PreferredContact: req.PreferredContact,
		Status:           models.OrderStatusPending,
		Notes:            req.Notes,
		TotalAmount:      decimal.NullDecimal{Decimal: product.Price, Valid: true},
	}
	if err := s.repo.CreateOrder(ctx, order); err != nil {
		s.logger.Error().Err(err).Str("product_id", product.ID).Msg("Failed to create order")
		return nil, fmt.Errorf("create order: %w", err)
	}
	s.metrics.RecordOrderPlaced()

	eta := FormatDeliveryDate(EstimatedDelivery(product.CraftTime, s.now()))
	details := notify.OrderDetails{
		Ref:               order.ShortRef(),
		CustomerName:      order.CustomerName,
		CustomerPhone:     order.CustomerPhone,
		ProductName:       product.Name,
		Price:             models.FormatINR(product.Price),
		Artisan:           product.Artisan,
		EstimatedDelivery: eta,
		OrderedAt:         order.CreatedAt,
	}
	confirmation := notify.ConfirmationMessage(details, lang)

	s.logger.Info().
		Str("order_id", order.ID).
		Str("product_id", product.ID).
		Str("contact", string(order.PreferredContact)).
		Msg("Order placed")

	s.track(ctx, req, order, lang)
	s.background(func(ctx context.Context) {
		s.sendPlacementMessages(ctx, *order, details, confirmation)
	})

	return &Placement{
		Order:             order,
		Ref:               details.Ref,
		WhatsAppLink:      notify.DeepLink(notify.FormatPhone(order.CustomerPhone), confirmation),
		EstimatedDelivery: eta,
	}, nil
}

func (s *Service) sendPlacementMessages(ctx context.Context, order models.Order, details notify.OrderDetails, confirmation string) {
	if s.sender == nil {
		return
	}
	var g errgroup.Group
	if order.PreferredContact == models.ContactWhatsApp {
		g.Go(func() error {
			d, err := s.sender.Send(ctx, order.CustomerPhone, confirmation, notify.KindConfirmation)
			note := noteConfirmationSent
			if err != nil || !d.Sent() {
				note = noteConfirmationFailed
			}
			s.appendNote(ctx, order, note)
			return err
		})
	}
	if s.adminPhone != "" {
		g.Go(func() error {
			_, err := s.sender.Send(ctx, s.adminPhone, notify.AdminAlert(details, s.publicURL), notify.KindAdmin)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Warn().Err(err).Str("order_id", order.ID).Msg("Order notification failed")
	}
}

func (s *Service) appendNote(ctx context.Context, order models.Order, note string) {
	notes := note
	if order.Notes != "" {
		notes = order.Notes + "\n" + note
	}
	if err := s.repo.UpdateOrderNotes(ctx, order.ID, notes); err != nil {
		s.logger.Warn().Err(err).Str("order_id", order.ID).Msg("Failed to record notification note")
	}
}

// Receipt rebuilds the customer-facing placement for a stored order, for
// confirmation pages opened after the order was placed.
func (s *Service) Receipt(ctx context.Context, id string, lang models.Language) (*Placement, error) {
	order, err := s.repo.GetOrder(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}

	details := notify.OrderDetails{
		Ref:           order.ShortRef(),
		CustomerName:  order.CustomerName,
		CustomerPhone: order.CustomerPhone,
		ProductName:   order.ProductName,
		OrderedAt:     order.CreatedAt,
	}
	if order.TotalAmount.Valid {
		details.Price = models.FormatINR(order.TotalAmount.Decimal)
	}
	craftTime := ""
	if product, err := s.repo.GetProduct(ctx, order.ProductID); err == nil {
		craftTime = product.CraftTime
		details.Artisan = product.Artisan
	}
	details.EstimatedDelivery = FormatDeliveryDate(EstimatedDelivery(craftTime, order.CreatedAt))

	lang = models.ParseLanguage(string(lang), s.defaultLang)
	return &Placement{
		Order:             order,
		Ref:               details.Ref,
		WhatsAppLink:      notify.DeepLink(notify.FormatPhone(order.CustomerPhone), notify.ConfirmationMessage(details, lang)),
		EstimatedDelivery: details.EstimatedDelivery,
	}, nil
}

// Transition moves an order one step forward, or cancels it, then tells the
// customer in the background.
func (s *Service) Transition(ctx context.Context, id string, next models.OrderStatus) (*models.Order, error) {
	order, err := s.repo.GetOrder(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}

	if !order.Status.CanTransitionTo(next) {
		s.metrics.RecordTransition(string(next), ErrInvalidTransition)
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, next)
	}
	if err := s.repo.UpdateOrderStatus(ctx, id, next); err != nil {
		s.metrics.RecordTransition(string(next), err)
		return nil, fmt.Errorf("update order status: %w", err)
	}
	s.metrics.RecordTransition(string(next), nil)

	s.logger.Info().
		Str("order_id", id).
		Str("from", string(order.Status)).
		Str("to", string(next)).
		Msg("Order status updated")

	order.Status = next
	updated := *order
	if s.sender != nil {
		s.background(func(ctx context.Context) {
			body := notify.StatusUpdate(updated.ShortRef(), next, s.defaultLang)
			if _, err := s.sender.Send(ctx, updated.CustomerPhone, body, notify.KindStatus); err != nil {
				s.logger.Warn().Err(err).Str("order_id", updated.ID).Msg("Status update notification failed")
			}
		})
	}
	return order, nil
}

// Wait blocks until every background notification has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// background runs fn detached from the request, bounded by notifyTimeout.
func (s *Service) background(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (s *Service) track(ctx context.Context, req PlaceRequest, order *models.Order, lang models.Language) {
	err := s.repo.CreateInteraction(ctx, &models.Interaction{
		SessionID: req.SessionID,
		Type:      models.InteractionOrderIntent,
		ProductID: order.ProductID,
		Language:  lang,
		UserAgent: req.UserAgent,
		IPAddress: req.IPAddress,
		ResponseData: map[string]any{
			"order_id":          order.ID,
			"preferred_contact": order.PreferredContact,
		},
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("order_id", order.ID).Msg("Failed to track order interaction")
	}
}

// internal/services/webhook_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74/webhook"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/storefront-backend/internal/config"
	"github.com/javajoker/storefront-backend/internal/models"
)

const EventTypeCheckoutSessionCompleted = "checkout.session.completed"

type WebhookOutcome string

const (
	WebhookOutcomeSettled   WebhookOutcome = "settled"
	WebhookOutcomeDuplicate WebhookOutcome = "duplicate"
	WebhookOutcomeConflict  WebhookOutcome = "conflict"
	WebhookOutcomeIgnored   WebhookOutcome = "ignored"
)

// WebhookResult reports how an event was handled. StaleSession is set when the paid
// session is not the one last issued for the cart.
type WebhookResult struct {
	EventID      string         `json:"event_id"`
	EventType    string         `json:"event_type"`
	Outcome      WebhookOutcome `json:"outcome"`
	OrderID      *uuid.UUID     `json:"order_id,omitempty"`
	StaleSession bool           `json:"stale_session,omitempty"`
}

// ProviderEvent is the closed set of payment provider events the service understands.
type ProviderEvent interface {
	EventID() string
	EventType() string
	providerEvent()
}

type CheckoutSessionCompleted struct {
	ID      string
	OrderID uuid.UUID
	Session CheckoutSessionPayload
}

func (e *CheckoutSessionCompleted) EventID() string   { return e.ID }
func (e *CheckoutSessionCompleted) EventType() string { return EventTypeCheckoutSessionCompleted }
func (e *CheckoutSessionCompleted) providerEvent()    {}

// UnhandledEvent is acknowledged without side effects.
type UnhandledEvent struct {
	ID   string
	Type string
}

func (e *UnhandledEvent) EventID() string   { return e.ID }
func (e *UnhandledEvent) EventType() string { return e.Type }
func (e *UnhandledEvent) providerEvent()    {}

// expandableID accepts either a bare id or an expanded object carrying one.
type expandableID string

func (e *expandableID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*e = expandableID(id)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*e = expandableID(obj.ID)
	return nil
}

type sessionAddress struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type sessionShippingDetails struct {
	Name    string          `json:"name"`
	Address *sessionAddress `json:"address"`
}

type CheckoutSessionPayload struct {
	ID             string       `json:"id"`
	PaymentIntent  expandableID `json:"payment_intent"`
	AmountTotal    int64        `json:"amount_total"`
	AmountSubtotal int64        `json:"amount_subtotal"`
	TotalDetails   *struct {
		AmountShipping int64 `json:"amount_shipping"`
		AmountTax      int64 `json:"amount_tax"`
	} `json:"total_details"`
	ShippingDetails      *sessionShippingDetails `json:"shipping_details"`
	CollectedInformation *struct {
		ShippingDetails *sessionShippingDetails `json:"shipping_details"`
	} `json:"collected_information"`
	Metadata map[string]string `json:"metadata"`
}

// ShippingAddress returns the collected shipping address, if the session has one.
func (p CheckoutSessionPayload) ShippingAddress() (models.Address, bool) {
	details := p.ShippingDetails
	if details == nil && p.CollectedInformation != nil {
		details = p.CollectedInformation.ShippingDetails
	}
	if details == nil || details.Address == nil || details.Address.Line1 == "" {
		return models.Address{}, false
	}

	a := details.Address
	return models.Address{
		Line1:       a.Line1,
		Line2:       a.Line2,
		City:        a.City,
		State:       a.State,
		PostalCode:  a.PostalCode,
		CountryCode: a.Country,
	}, true
}

func (p CheckoutSessionPayload) amountShipping() int64 {
	if p.TotalDetails == nil {
		return 0
	}
	return p.TotalDetails.AmountShipping
}

func (p CheckoutSessionPayload) amountTax() int64 {
	if p.TotalDetails == nil {
		return 0
	}
	return p.TotalDetails.AmountTax
}

// DecodeProviderEvent turns the event's data object into a typed event. Unknown types decode to
// UnhandledEvent; malformed known types fail with ErrInvalidWebhookPayload.
func DecodeProviderEvent(id, eventType string, object json.RawMessage) (ProviderEvent, error) {
	switch eventType {
	case EventTypeCheckoutSessionCompleted:
		var session CheckoutSessionPayload
		if err := json.Unmarshal(object, &session); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidWebhookPayload, err)
		}

		orderID, err := uuid.Parse(session.Metadata["order_id"])
		if err != nil {
			return nil, fmt.Errorf("%w: metadata.order_id: %v", ErrInvalidWebhookPayload, err)
		}
		if session.PaymentIntent == "" {
			return nil, fmt.Errorf("%w: payment_intent is missing", ErrInvalidWebhookPayload)
		}

		return &CheckoutSessionCompleted{ID: id, OrderID: orderID, Session: session}, nil
	default:
		return &UnhandledEvent{ID: id, Type: eventType}, nil
	}
}

type WebhookService struct {
	db             *gorm.DB
	geocoder       Geocoder
	publisher      OrderEventPublisher
	signingSecret  string
	requireSigned  bool
	geocodeTimeout time.Duration
	now            func() time.Time
}

func NewWebhookService(db *gorm.DB, cfg *config.Config, geocoder Geocoder, publisher OrderEventPublisher) *WebhookService {
	timeout := time.Duration(cfg.Geocoding.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if publisher == nil {
		publisher = LogOrderPublisher{}
	}

	return &WebhookService{
		db:             db,
		geocoder:       geocoder,
		publisher:      publisher,
		signingSecret:  cfg.Payment.StripeWebhookSecret,
		requireSigned:  cfg.IsProduction(),
		geocodeTimeout: timeout,
		now:            time.Now,
	}
}

// HandleWebhook verifies, decodes and applies one provider notification.
func (s *WebhookService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	id, eventType, object, err := s.parseEvent(payload, signature)
	if err != nil {
		return nil, err
	}

	event, err := DecodeProviderEvent(id, eventType, object)
	if err != nil {
		return nil, err
	}

	switch e := event.(type) {
	case *CheckoutSessionCompleted:
		return s.settle(ctx, e)
	case *UnhandledEvent:
		logrus.WithFields(logrus.Fields{"event_id": e.ID, "type": e.Type}).Debug("Ignoring webhook event")
		return &WebhookResult{EventID: e.ID, EventType: e.Type, Outcome: WebhookOutcomeIgnored}, nil
	default:
		return nil, fmt.Errorf("unexpected event %T", event)
	}
}

func (s *WebhookService) parseEvent(payload []byte, signature string) (string, string, json.RawMessage, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.signingSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err == nil {
		var object json.RawMessage
		if event.Data != nil {
			object = event.Data.Raw
		}
		return event.ID, string(event.Type), object, nil
	}

	if s.requireSigned {
		return "", "", nil, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}

	logrus.WithError(err).Warn("Webhook signature not verified, accepting outside production")

	var envelope struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object json.RawMessage `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return "", "", nil, fmt.Errorf("%w: %v", ErrInvalidWebhookPayload, err)
	}
	if envelope.Type == "" {
		return "", "", nil, fmt.Errorf("%w: event type is missing", ErrInvalidWebhookPayload)
	}
	return envelope.ID, envelope.Type, envelope.Data.Object, nil
}

func (s *WebhookService) settle(ctx context.Context, event *CheckoutSessionCompleted) (*WebhookResult, error) {
	result := &WebhookResult{
		EventID:   event.ID,
		EventType: event.EventType(),
		OrderID:   &event.OrderID,
	}
	logger := logrus.WithFields(logrus.Fields{
		"event_id": event.ID,
		"order_id": event.OrderID,
	})
	db := s.db.WithContext(ctx)

	if event.ID != "" {
		var seen int64
		if err := db.Model(&models.WebhookEvent{}).Where("event_id = ?", event.ID).Count(&seen).Error; err != nil {
			return nil, fmt.Errorf("failed to check webhook event: %w", err)
		}
		if seen > 0 {
			logger.Info("Webhook event already processed")
			result.Outcome = WebhookOutcomeDuplicate
			return result, nil
		}
	}

	address, hasAddress := event.Session.ShippingAddress()

	// Geocode before taking the row lock.
	var coords *Coordinates
	if hasAddress && s.geocoder != nil {
		gctx, cancel := context.WithTimeout(ctx, s.geocodeTimeout)
		c, err := s.geocoder.Geocode(gctx, address.Long())
		cancel()
		if err != nil {
			logger.WithError(err).Warn("Geocoding failed, settling without coordinates")
		} else {
			coords = c
		}
	}

	transactionRef := string(event.Session.PaymentIntent)
	var settled *models.Order

	err := db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, "id = ?", event.OrderID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("order", event.OrderID)
			}
			return fmt.Errorf("failed to load order: %w", err)
		}

		if !order.IsCart() {
			if order.TransactionRef != nil && *order.TransactionRef == transactionRef {
				result.Outcome = WebhookOutcomeDuplicate
			} else {
				logger.WithFields(logrus.Fields{
					"status":          order.Status,
					"transaction_ref": transactionRef,
				}).Warn("Order already settled with a different transaction, ignoring")
				result.Outcome = WebhookOutcomeConflict
			}
			return recordWebhookEvent(tx, event, s.now())
		}

		// The cart changed after this session was opened. The payment still settles it.
		if order.CheckoutSessionID != "" && order.CheckoutSessionID != event.Session.ID {
			logger.WithFields(logrus.Fields{
				"expected_session_id": order.CheckoutSessionID,
				"session_id":          event.Session.ID,
			}).Warn("Settling order from a superseded checkout session")
			result.StaleSession = true
		}

		now := s.now()
		order.Status = models.OrderStatusOrdered
		order.TransactionRef = &transactionRef
		order.CheckoutSessionID = event.Session.ID
		order.AmountTotal = FromMinorUnits(event.Session.AmountTotal)
		order.AmountSubtotal = FromMinorUnits(event.Session.AmountSubtotal)
		order.AmountShipping = FromMinorUnits(event.Session.amountShipping())
		order.AmountTax = FromMinorUnits(event.Session.amountTax())
		order.SettledAt = &now
		if hasAddress {
			order.Address = address.Short()
		}
		if coords != nil {
			order.Latitude = &coords.Latitude
			order.Longitude = &coords.Longitude
		}

		if err := tx.Omit(clause.Associations).Save(&order).Error; err != nil {
			return fmt.Errorf("failed to settle order: %w", err)
		}

		if hasAddress {
			if err := rememberAddress(tx, order.UserID, address); err != nil {
				return err
			}
		}

		if err := recordWebhookEvent(tx, event, now); err != nil {
			return err
		}

		if err := tx.Preload("Items").First(&order, "id = ?", order.ID).Error; err != nil {
			return fmt.Errorf("failed to reload order: %w", err)
		}
		settled = &order
		result.Outcome = WebhookOutcomeSettled
		return nil
	})
	if err != nil {
		return nil, err
	}

	if settled != nil {
		logger.WithFields(logrus.Fields{
			"amount_total": settled.AmountTotal,
			"geocoded":     settled.Latitude != nil,
		}).Info("Order settled")

		if err := s.publisher.PublishOrderPlaced(ctx, NewOrderPlacedEvent(settled)); err != nil {
			logger.WithError(err).Error("Failed to publish order placed event")
		}
	}

	return result, nil
}

func recordWebhookEvent(tx *gorm.DB, event *CheckoutSessionCompleted, at time.Time) error {
	if event.ID == "" {
		return nil
	}

	orderID := event.OrderID
	record := models.WebhookEvent{
		EventID:     event.ID,
		Type:        event.EventType(),
		OrderID:     &orderID,
		ProcessedAt: at,
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to record webhook event: %w", err)
	}
	return nil
}

// rememberAddress adds the address to the user's address book unless an identical one exists.
func rememberAddress(tx *gorm.DB, userID uuid.UUID, address models.Address) error {
	address.UserID = userID
	err := tx.Where(map[string]interface{}{
		"user_id":      userID,
		"line1":        address.Line1,
		"line2":        address.Line2,
		"city":         address.City,
		"state":        address.State,
		"postal_code":  address.PostalCode,
		"country_code": address.CountryCode,
	}).FirstOrCreate(&address).Error
	if err != nil {
		return fmt.Errorf("failed to save address: %w", err)
	}
	return nil
}

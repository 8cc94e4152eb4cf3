package services

import (
	"context"
	"fmt"
	"sync"
)

type fakeGateway struct {
	mu        sync.Mutex
	sessions  []CheckoutSessionRequest
	customers []CustomerRequest
	rates     []ShippingRate
	created   []ShippingRateRequest

	sessionErr error
	listErr    error
}

func (g *fakeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sessionErr != nil {
		return nil, g.sessionErr
	}
	g.sessions = append(g.sessions, req)
	id := fmt.Sprintf("cs_test_%d", len(g.sessions))
	return &CheckoutSession{ID: id, URL: "https://checkout.example.com/" + id}, nil
}

func (g *fakeGateway) CreateCustomer(ctx context.Context, req CustomerRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.customers = append(g.customers, req)
	return fmt.Sprintf("cus_test_%d", len(g.customers)), nil
}

func (g *fakeGateway) ListShippingRates(ctx context.Context) ([]ShippingRate, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.listErr != nil {
		return nil, g.listErr
	}
	return append([]ShippingRate(nil), g.rates...), nil
}

func (g *fakeGateway) CreateShippingRate(ctx context.Context, req ShippingRateRequest) (*ShippingRate, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.created = append(g.created, req)
	rate := ShippingRate{ID: "shr_" + string(req.Tier), DisplayName: req.DisplayName, Tier: req.Tier, Amount: req.Amount}
	g.rates = append(g.rates, rate)
	return &rate, nil
}

type fakeGeocoder struct {
	mu      sync.Mutex
	coords  *Coordinates
	err     error
	queries []string
}

func (g *fakeGeocoder) Geocode(ctx context.Context, address string) (*Coordinates, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queries = append(g.queries, address)
	if g.err != nil {
		return nil, g.err
	}
	return g.coords, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []OrderPlacedEvent
}

func (p *fakePublisher) PublishOrderPlaced(ctx context.Context, event OrderPlacedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) published() []OrderPlacedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]OrderPlacedEvent(nil), p.events...)
}

var testShippingRates = ShippingRates{
	Standard:      "shr_standard",
	Express:       "shr_express",
	Complimentary: "shr_complimentary",
}

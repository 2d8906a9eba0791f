package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/betledger/ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// EventCatalog lists upcoming priced fixtures.
type EventCatalog interface {
	Houses() []string
	ForHouse(ctx context.Context, house string) ([]domain.Event, error)
}

// EventCache stores a house's catalog for a while. Implementations report a
// miss with ok == false and a nil error.
type EventCache interface {
	Get(ctx context.Context, house string) ([]domain.Event, bool, error)
	Set(ctx context.Context, house string, events []domain.Event, ttl time.Duration) error
}

// QuickBetRequest places a 1X2 bet straight from a catalog event.
type QuickBetRequest struct {
	House     string
	EventID   string
	Selection string
	Stake     decimal.Decimal
}

// EventService serves the odds catalog, through the cache when one is set.
type EventService struct {
	catalog EventCatalog
	cache   EventCache
	ttl     time.Duration
	logger  *slog.Logger
}

// NewEventService creates an EventService. cache may be nil.
func NewEventService(catalog EventCatalog, cache EventCache, ttl time.Duration, logger *slog.Logger) *EventService {
	return &EventService{catalog: catalog, cache: cache, ttl: ttl, logger: logger}
}

// Upcoming lists the events of one house, or of every house when house is
// empty. Cache failures fall back to the catalog.
func (s *EventService) Upcoming(ctx context.Context, house string) ([]domain.Event, error) {
	house = normalizeHouse(house)
	if house != "" {
		return s.forHouse(ctx, house)
	}

	var all []domain.Event
	for _, h := range s.catalog.Houses() {
		events, err := s.forHouse(ctx, h)
		if err != nil {
			return nil, err
		}
		all = append(all, events...)
	}
	return all, nil
}

func (s *EventService) forHouse(ctx context.Context, house string) ([]domain.Event, error) {
	if s.cache != nil {
		events, ok, err := s.cache.Get(ctx, house)
		switch {
		case err != nil:
			s.logger.Warn("event cache read failed", "house", house, "error", err)
		case ok:
			return events, nil
		}
	}

	events, err := s.catalog.ForHouse(ctx, house)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, house, events, s.ttl); err != nil {
			s.logger.Warn("event cache write failed", "house", house, "error", err)
		}
	}
	return events, nil
}

// Find returns one event as priced by a house.
func (s *EventService) Find(ctx context.Context, house, eventID string) (domain.Event, error) {
	events, err := s.Upcoming(ctx, house)
	if err != nil {
		return domain.Event{}, err
	}
	eventID = strings.TrimSpace(eventID)
	for _, e := range events {
		if e.EventID == eventID {
			return e, nil
		}
	}
	return domain.Event{}, domain.ErrEventNotFound
}

// BuildBet turns a quick bet on a catalog event into a registration request
// carrying the event's league, label, price and reference.
func (s *EventService) BuildBet(ctx context.Context, req QuickBetRequest) (domain.RegisterBetRequest, error) {
	sel, err := domain.ParseSelection(req.Selection)
	if err != nil {
		return domain.RegisterBetRequest{}, err
	}
	if normalizeHouse(req.House) == "" || strings.TrimSpace(req.EventID) == "" {
		return domain.RegisterBetRequest{}, domain.ErrMissingField
	}

	event, err := s.Find(ctx, req.House, req.EventID)
	if err != nil {
		return domain.RegisterBetRequest{}, err
	}

	price, prognosis := event.OddsFor(sel)
	return domain.RegisterBetRequest{
		House:     event.House,
		League:    event.League,
		Event:     event.Label(),
		Market:    domain.MarketMatchResult,
		Prognosis: prognosis,
		EventRef:  event.EventID,
		Odds:      price,
		Stake:     req.Stake,
	}, nil
}

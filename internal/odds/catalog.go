// Package odds generates the synthetic catalog of upcoming fixtures that bets
// can be placed from. Prices are deterministic in the day and fixture index so
// the same day always shows the same board.
package odds

import (
	"context"
	"fmt"
	"time"

	"github.com/betledger/ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// FixturesPerDay is the number of matches generated for each calendar day.
const FixturesPerDay = 5

type fixture struct {
	home, away, league string
}

const (
	leaguePremier    = "Premier League (Sim.)"
	leagueBrasileiro = "Brasileirão Série A (Sim.)"
	leagueLaLiga     = "La Liga (Sim.)"
)

var fixtures = [FixturesPerDay]fixture{
	{"Team A", "Team B", leaguePremier},
	{"Team X", "Team Y", leagueBrasileiro},
	{"Atlético Norte", "Gênesis FC", leagueLaLiga},
	{"Flamengo", "Vasco", leagueBrasileiro},
	{"Manchester Utd", "Liverpool", leaguePremier},
}

var (
	baseHome = decimal.RequireFromString("1.80")
	baseDraw = decimal.RequireFromString("3.20")
	baseAway = decimal.RequireFromString("4.00")

	cent       = decimal.RequireFromString("0.01")
	fiveCents  = decimal.RequireFromString("0.05")
	tenCents   = decimal.RequireFromString("0.10")
	minimumOdd = decimal.RequireFromString("1.01")
)

// Catalog produces Days days of fixtures for every house. Each house after
// the first is priced with a growing offset: +0.05 home, −0.05 draw and
// +0.10 away per position.
type Catalog struct {
	houses []string
	days   int
	now    func() time.Time
}

// NewCatalog creates a catalog for the given houses.
func NewCatalog(houses []string, days int) *Catalog {
	return &Catalog{houses: houses, days: days, now: time.Now}
}

// WithClock overrides the clock used to pick the first day.
func (c *Catalog) WithClock(now func() time.Time) *Catalog {
	c.now = now
	return c
}

// Houses returns the houses the catalog prices.
func (c *Catalog) Houses() []string {
	return c.houses
}

// ListUpcomingEvents returns every house's events, house by house, in kickoff order.
func (c *Catalog) ListUpcomingEvents(ctx context.Context) ([]domain.Event, error) {
	out := make([]domain.Event, 0, len(c.houses)*c.days*FixturesPerDay)
	for i := range c.houses {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, c.generate(i)...)
	}
	return out, nil
}

// ForHouse returns the events priced by one house.
func (c *Catalog) ForHouse(ctx context.Context, house string) ([]domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i, h := range c.houses {
		if h == house {
			return c.generate(i), nil
		}
	}
	return nil, fmt.Errorf("odds.ForHouse %q: %w", house, domain.ErrHouseNotFound)
}

func (c *Catalog) generate(houseIdx int) []domain.Event {
	now := c.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	k := decimal.NewFromInt(int64(houseIdx))

	events := make([]domain.Event, 0, c.days*FixturesPerDay)
	for day := 0; day < c.days; day++ {
		kickoff := today.AddDate(0, 0, day)
		d := decimal.NewFromInt(int64(day))

		for j, f := range fixtures {
			fj := decimal.NewFromInt(int64(j))

			home := baseHome.Add(d.Mul(cent)).Add(fj.Mul(fiveCents)).Add(k.Mul(fiveCents))
			draw := baseDraw.Sub(d.Mul(cent)).Sub(k.Mul(fiveCents))
			away := baseAway.Sub(fj.Mul(fiveCents)).Add(k.Mul(tenCents))

			events = append(events, domain.Event{
				House:     c.houses[houseIdx],
				EventID:   EventID(kickoff, j),
				League:    f.league,
				HomeTeam:  f.home,
				AwayTeam:  f.away,
				KickoffAt: kickoff,
				HomeOdds:  floor(home),
				DrawOdds:  floor(draw),
				AwayOdds:  floor(away),
			})
		}
	}
	return events
}

// EventID builds the catalog id of fixture j on the given day: SIM_YYYYMMDD_j.
func EventID(day time.Time, j int) string {
	return fmt.Sprintf("SIM_%s_%d", day.Format("20060102"), j)
}

// floor keeps long catalogs priced above evens.
func floor(odd decimal.Decimal) decimal.Decimal {
	if odd.LessThan(minimumOdd) {
		return minimumOdd
	}
	return odd.Round(2)
}

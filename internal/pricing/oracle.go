package pricing

import (
	"context"
	"log/slog"
)

// Metal names as used across submissions, plans and quotes.
const (
	Gold      = "Gold"
	Silver    = "Silver"
	Platinum  = "Platinum"
	Palladium = "Palladium"
)

// Metals in display order.
var Metals = []string{Gold, Silver, Platinum, Palladium}

// ouncesDivisor converts a per-troy-ounce quote into the oracle's working
// per-gram value. 28 is a deliberate approximation of the true troy-ounce
// mass (31.1034768 g) carried over from the legacy pricing behavior.
const ouncesDivisor = 28

// Default prices used when both live sources fail.
var defaultPrices = map[string]float64{
	Gold:      2000,
	Silver:    25,
	Platinum:  950,
	Palladium: 1000,
}

// Futures symbols for the time-series feed fallback.
var feedSymbols = map[string]string{
	Gold:      "GC=F",
	Silver:    "SI=F",
	Platinum:  "PL=F",
	Palladium: "PA=F",
}

// SymbolFor returns the feed symbol for a metal name.
func SymbolFor(metal string) (string, bool) {
	sym, ok := feedSymbols[metal]
	return sym, ok
}

// Snapshot maps metal name to its current working price. It is recomputed
// on every ResolvePrices call; nothing is cached between calls.
type Snapshot map[string]float64

// HasPositive reports whether at least one resolved price is positive.
func (s Snapshot) HasPositive() bool {
	for _, v := range s {
		if v > 0 {
			return true
		}
	}
	return false
}

// Scraper drives a browser session against the live quotes page and
// returns per-ounce prices already divided down to working values.
type Scraper interface {
	Scrape(ctx context.Context) (map[string]float64, error)
}

// Feed returns the trailing close series for one futures symbol.
type Feed interface {
	Closes(ctx context.Context, symbol string) ([]float64, error)
}

// Oracle resolves current prices for the four metals through a three-tier
// fallback chain: scrape the quotes page, then query the feed per metal,
// then fixed defaults. It never fails and never returns a non-positive
// value.
type Oracle struct {
	scraper Scraper
	feed    Feed
}

func NewOracle(scraper Scraper, feed Feed) *Oracle {
	return &Oracle{scraper: scraper, feed: feed}
}

// ResolvePrices returns a fresh Snapshot with a strictly positive value for
// every metal. Tier 1 is all-or-nothing for the batch; tiers 2 and 3
// resolve each metal independently.
func (o *Oracle) ResolvePrices(ctx context.Context) Snapshot {
	if scraped, err := o.scraper.Scrape(ctx); err == nil {
		snap := make(Snapshot, len(Metals))
		for _, metal := range Metals {
			if v, ok := scraped[metal]; ok && v > 0 {
				snap[metal] = v
			}
		}
		if len(snap) == len(Metals) {
			return snap
		}
		// Partial scrapes fall through per metal.
		return o.fillFromFeed(ctx, snap)
	} else {
		slog.Warn("quotes page scrape failed, using feed fallback", "error", err)
	}

	return o.fillFromFeed(ctx, make(Snapshot, len(Metals)))
}

func (o *Oracle) fillFromFeed(ctx context.Context, snap Snapshot) Snapshot {
	for _, metal := range Metals {
		if snap[metal] > 0 {
			continue
		}
		closes, err := o.feed.Closes(ctx, feedSymbols[metal])
		if err == nil && len(closes) > 0 {
			if latest := closes[len(closes)-1]; latest > 0 {
				snap[metal] = latest / ouncesDivisor
				continue
			}
		}
		if err != nil {
			slog.Warn("feed lookup failed", "metal", metal, "error", err)
		}
		snap[metal] = defaultPrices[metal]
	}
	return snap
}

package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubScraper struct {
	prices map[string]float64
	err    error
}

func (s stubScraper) Scrape(context.Context) (map[string]float64, error) {
	return s.prices, s.err
}

type stubFeed struct {
	closes map[string][]float64
	err    error
}

func (f stubFeed) Closes(_ context.Context, symbol string) ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.closes[symbol], nil
}

func TestResolvePricesScrapeWins(t *testing.T) {
	oracle := NewOracle(stubScraper{prices: map[string]float64{
		Gold: 75.5, Silver: 0.9, Platinum: 34, Palladium: 36,
	}}, stubFeed{err: errors.New("feed should not be called")})

	snap := oracle.ResolvePrices(context.Background())

	assert.Equal(t, 75.5, snap[Gold])
	assert.Equal(t, 0.9, snap[Silver])
	assert.Len(t, snap, 4)
}

func TestResolvePricesFeedFallback(t *testing.T) {
	oracle := NewOracle(stubScraper{err: errors.New("browser crashed")}, stubFeed{closes: map[string][]float64{
		"GC=F": {2000, 2100, 2128},
		"SI=F": {25, 26, 28},
		"PL=F": {900, 950, 952},
		"PA=F": {1000, 1010, 1008},
	}})

	snap := oracle.ResolvePrices(context.Background())

	// The latest close divided by the working ounce factor.
	assert.InDelta(t, 2128.0/28, snap[Gold], 0.0001)
	assert.InDelta(t, 28.0/28, snap[Silver], 0.0001)
	assert.InDelta(t, 952.0/28, snap[Platinum], 0.0001)
	assert.InDelta(t, 1008.0/28, snap[Palladium], 0.0001)
}

func TestResolvePricesDefaultsWhenEverythingFails(t *testing.T) {
	oracle := NewOracle(stubScraper{err: errors.New("down")}, stubFeed{err: errors.New("down")})

	snap := oracle.ResolvePrices(context.Background())

	assert.Equal(t, 2000.0, snap[Gold])
	assert.Equal(t, 25.0, snap[Silver])
	assert.Equal(t, 950.0, snap[Platinum])
	assert.Equal(t, 1000.0, snap[Palladium])
}

func TestResolvePricesPartialScrapeFillsPerMetal(t *testing.T) {
	oracle := NewOracle(stubScraper{prices: map[string]float64{
		Gold: 75.5, Silver: 0.9,
	}}, stubFeed{closes: map[string][]float64{
		"PL=F": {952},
	}})

	snap := oracle.ResolvePrices(context.Background())

	assert.Equal(t, 75.5, snap[Gold])
	assert.InDelta(t, 952.0/28, snap[Platinum], 0.0001)
	// Palladium had no feed data either, so it lands on the default.
	assert.Equal(t, 1000.0, snap[Palladium])
}

func TestResolvePricesNeverReturnsNonPositive(t *testing.T) {
	oracle := NewOracle(stubScraper{prices: map[string]float64{
		Gold: -3, Silver: 0,
	}}, stubFeed{closes: map[string][]float64{
		"GC=F": {0}, "SI=F": {}, "PL=F": {-1}, "PA=F": nil,
	}})

	snap := oracle.ResolvePrices(context.Background())

	for _, metal := range Metals {
		assert.Greater(t, snap[metal], 0.0, metal)
	}
	assert.True(t, snap.HasPositive())
}

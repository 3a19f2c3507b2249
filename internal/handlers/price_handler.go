package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/spectralabs/spectra-backend/internal/dto"
	"github.com/spectralabs/spectra-backend/internal/pricing"
)

type PriceHandler struct {
	oracle *pricing.Oracle
	hub    *pricing.Hub
	feed   *pricing.ChartFeed
}

func NewPriceHandler(oracle *pricing.Oracle, hub *pricing.Hub, feed *pricing.ChartFeed) *PriceHandler {
	return &PriceHandler{oracle: oracle, hub: hub, feed: feed}
}

// Current resolves a fresh snapshot on demand.
func (h *PriceHandler) Current(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 70*time.Second)
	defer cancel()
	return c.JSON(h.oracle.ResolvePrices(ctx))
}

// History returns the trailing close series for one metal's futures symbol.
func (h *PriceHandler) History(c *fiber.Ctx) error {
	metal := c.Query("metal")
	symbol, ok := pricing.SymbolFor(metal)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "unknown metal",
		})
	}

	dates, closes, err := h.feed.Series(c.Context(), symbol)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
			Error: true, Message: "price history unavailable",
		})
	}
	return c.JSON(fiber.Map{"metal": metal, "dates": dates, "closes": closes})
}

// Stream upgrades to a websocket and relays hub snapshots until the client
// disconnects. The hub queues its most recent snapshot on subscribe, so a
// new client does not wait a full broadcast tick.
func (h *PriceHandler) Stream() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		ch := h.hub.Subscribe()
		defer h.hub.Unsubscribe(ch)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case snap, ok := <-ch:
				if !ok {
					return
				}
				if err := conn.WriteJSON(snap); err != nil {
					slog.Debug("price stream write failed", "error", err)
					return
				}
			case <-done:
				return
			}
		}
	})
}

// Upgrade gates the websocket route to genuine upgrade requests.
func (h *PriceHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

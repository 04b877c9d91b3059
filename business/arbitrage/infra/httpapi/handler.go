// Package httpapi exposes the scanner over HTTP and WebSocket.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fd1az/crosschain-arb/business/arbitrage/app"
	pricingDomain "github.com/fd1az/crosschain-arb/business/pricing/domain"
	"github.com/fd1az/crosschain-arb/internal/apperror"
	"github.com/fd1az/crosschain-arb/internal/logger"
	"github.com/fd1az/crosschain-arb/internal/server/respond"
	"github.com/fd1az/crosschain-arb/internal/wsconn"
)

const maxBodyBytes = 64 << 10

// Config tunes the streaming endpoint.
type Config struct {
	StreamInterval    time.Duration
	MinStreamInterval time.Duration
	WebSocket         wsconn.Config
}

// Handler serves the arbitrage API.
type Handler struct {
	scanner *app.Scanner
	cfg     Config
	logger  logger.LoggerInterface
}

// NewHandler creates a Handler.
func NewHandler(scanner *app.Scanner, cfg Config, log logger.LoggerInterface) *Handler {
	if cfg.StreamInterval <= 0 {
		cfg.StreamInterval = 30 * time.Second
	}
	if cfg.MinStreamInterval <= 0 {
		cfg.MinStreamInterval = 5 * time.Second
	}
	return &Handler{scanner: scanner, cfg: cfg, logger: log}
}

// Register mounts the routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/arbitrage/scan", h.Scan)
	mux.HandleFunc("GET /api/arbitrage/routes", h.Routes)
	mux.HandleFunc("GET /api/arbitrage/stream", h.Stream)
	mux.HandleFunc("GET /api/prices", h.Prices)
	mux.HandleFunc("GET /api/chains", h.Chains)
}

// Scan runs one scan from a JSON body.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	var body scanRequestBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		respond.Error(w, apperror.Validation(apperror.CodeInvalidFormat, err.Error()))
		return
	}

	chains, err := parseChains(body.Chains)
	if err != nil {
		respond.Error(w, err)
		return
	}

	result, err := h.scanner.Scan(r.Context(), app.ScanRequest{
		TokenID:        body.TokenID,
		Chains:         chains,
		MinProfitUSD:   body.MinProfitUSD,
		NotionalAmount: body.NotionalAmount,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, toScanResultDTO(result))
}

// Routes lists every directed chain pair with its raw price gap.
func (h *Handler) Routes(w http.ResponseWriter, r *http.Request) {
	tokenID, chains, err := tokenAndChains(r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	routes, err := h.scanner.ListRoutes(r.Context(), tokenID, chains)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out := routesDTO{TokenID: tokenID, Count: len(routes), Routes: make([]routeDTO, 0, len(routes))}
	for _, route := range routes {
		out.Routes = append(out.Routes, toRouteDTO(route))
	}
	respond.JSON(w, http.StatusOK, out)
}

// Prices returns the raw per-chain quotes.
func (h *Handler) Prices(w http.ResponseWriter, r *http.Request) {
	tokenID, chains, err := tokenAndChains(r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	set, err := h.scanner.Prices(r.Context(), tokenID, chains)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	prices, unavailable := toQuoteDTOs(set)
	respond.JSON(w, http.StatusOK, pricesDTO{
		TokenID:     set.TokenID,
		Timestamp:   set.FetchedAt,
		Prices:      prices,
		Unavailable: unavailable,
	})
}

// Chains describes the supported chains and the cost table.
func (h *Handler) Chains(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, toChainsDTO(h.scanner.Costs(), h.scanner.Config().DefaultChains))
}

// fail writes err. A bare error after the client went away is reported as a
// timeout; anything else unexpected is logged.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperror.AppError
	switch {
	case errors.As(err, &appErr):
		if appErr.StatusCode >= http.StatusInternalServerError {
			h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		}
	case r.Context().Err() != nil:
		err = apperror.New(apperror.CodeServiceTimeout, apperror.WithCause(err))
	default:
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	respond.Error(w, err)
}

func tokenAndChains(r *http.Request) (string, []pricingDomain.Chain, error) {
	q := r.URL.Query()
	chains, err := parseChains(splitCSV(q.Get("chains")))
	if err != nil {
		return "", nil, err
	}
	return q.Get("tokenId"), chains, nil
}

// parseChains maps names to chains. An empty list means scanner defaults.
func parseChains(names []string) ([]pricingDomain.Chain, error) {
	if len(names) == 0 {
		return nil, nil
	}
	chains, err := pricingDomain.ParseChains(names)
	if err != nil {
		return nil, apperror.Validation(apperror.CodeInvalidChain, err.Error())
	}
	return chains, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

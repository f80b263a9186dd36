// Package rest exposes the vending machine over HTTP.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/abgdnv/vending/internal/coin"
	coinerrors "github.com/abgdnv/vending/internal/coin/errors"
	"github.com/abgdnv/vending/internal/platform/web"
	perrors "github.com/abgdnv/vending/internal/product/errors"
	"github.com/abgdnv/vending/internal/product/service"
	"github.com/abgdnv/vending/internal/vending"
	verrors "github.com/abgdnv/vending/internal/vending/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Machine is the part of vending.Machine the HTTP API drives.
type Machine interface {
	SelectProduct(ctx context.Context, code string) (*service.ProductDto, error)
	SelectedProduct() (string, bool)
	InsertCoin(d coin.Denomination) error
	InsertedValue() int
	ReturnInsertedCoins() []coin.Count
	MoneyRequired(ctx context.Context) (int, error)
	ProductsAvailable(ctx context.Context) ([]service.ProductDto, error)
	Dispense(ctx context.Context) (*vending.Sale, error)
	AddCoins(d coin.Denomination, n int) error
	DrainOverflow(ctx context.Context) []coin.Count
	CoinLevels() []vending.CoinLevel
	ChangeValue() int
	CreateProduct(ctx context.Context, product service.ProductCreateDto) (*service.ProductDto, error)
	AddItems(ctx context.Context, code string, count int32) (*service.ProductDto, error)
}

var _ Machine = (*vending.Machine)(nil)

type Handler struct {
	machine  Machine
	validate *validator.Validate
	logger   *slog.Logger
}

// SelectProductDto is the body of a product selection.
type SelectProductDto struct {
	Code string `json:"code" validate:"required,max=16"`
}

// CoinInsertDto is the body of a coin insertion.
type CoinInsertDto struct {
	Denomination coin.Denomination `json:"denomination" validate:"required"`
}

// CoinsAddDto is the body of a change top-up.
type CoinsAddDto struct {
	Count int `json:"count" validate:"required,gt=0"`
}

// SessionDto describes the customer session in progress.
type SessionDto struct {
	SelectedProduct string `json:"selected_product,omitempty"`
	InsertedValue   int    `json:"inserted_value"`
	MoneyRequired   int    `json:"money_required"`
}

// CoinsDto describes the change held by the machine.
type CoinsDto struct {
	Levels      []vending.CoinLevel `json:"levels"`
	ChangeValue int                 `json:"change_value"`
}

// CoinsReturnedDto lists coins handed back or drained.
type CoinsReturnedDto struct {
	Coins []coin.Count `json:"coins"`
}

// NewHandler creates a new Handler driving the given machine.
func NewHandler(machine Machine, logger *slog.Logger) *Handler {
	return &Handler{
		machine:  machine,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes of the machine.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ProductsAvailable)
			r.Post("/", h.CreateProduct)
			r.Put("/{code}/items", h.AddItems)
		})
		r.Route("/session", func(r chi.Router) {
			r.Get("/", h.Session)
			r.Put("/product", h.SelectProduct)
			r.Post("/coins", h.InsertCoin)
			r.Post("/return", h.ReturnCoins)
			r.Post("/dispense", h.Dispense)
		})
		r.Route("/coins", func(r chi.Router) {
			r.Get("/", h.CoinLevels)
			r.Post("/overflow/drain", h.DrainOverflow)
			r.Post("/{denomination}", h.AddCoins)
		})
	})

	r.Get("/healthz", h.HealthCheck)
}

// ProductsAvailable lists the products that can be bought.
func (h *Handler) ProductsAvailable(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	list, err := h.machine.ProductsAvailable(r.Context())
	if err != nil {
		h.respondError(w, r, mLogger, err)
		return
	}
	mLogger.DebugContext(r.Context(), "Retrieved available products", "count", len(list))
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// CreateProduct adds a product line.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto service.ProductCreateDto
	if !h.decodeAndValidate(w, r, mLogger, &dto) {
		return
	}
	created, err := h.machine.CreateProduct(r.Context(), dto)
	if err != nil {
		h.respondError(w, r, mLogger, err)
		return
	}
	mLogger.InfoContext(r.Context(), "Product created successfully", "code", created.Code, "name", created.Name)
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// AddItems reloads a product line.
func (h *Handler) AddItems(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	code := chi.URLParam(r, "code")
	var dto service.ItemsAddDto
	if !h.decodeAndValidate(w, r, mLogger, &dto) {
		return
	}
	updated, err := h.machine.AddItems(r.Context(), code, dto.Count)
	if err != nil {
		h.respondError(w, r, mLogger, err)
		return
	}
	mLogger.InfoContext(r.Context(), "Product reloaded", "code", code, "available", updated.Available)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// Session reports the selection and the money inserted so far.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	required, err := h.machine.MoneyRequired(r.Context())
	if err != nil {
		h.respondError(w, r, mLogger, err)
		return
	}
	selected, _ := h.machine.SelectedProduct()
	web.RespondJSON(w, mLogger, http.StatusOK, SessionDto{
		SelectedProduct: selected,
		InsertedValue:   h.machine.InsertedValue(),
		MoneyRequired:   required,
	})
}

// SelectProduct chooses the product to buy.
func (h *Handler) SelectProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto SelectProductDto
	if !h.decodeAndValidate(w, r, mLogger, &dto) {
		return
	}
	p, err := h.machine.SelectProduct(r.Context(), dto.Code)
	if err != nil {
		h.respondError(w, r, mLogger, err)
		return
	}
	mLogger.DebugContext(r.Context(), "Product selected", "code", p.Code)
	web.RespondJSON(w, mLogger, http.StatusOK, p)
}

// InsertCoin accepts one coin from the customer.
func (h *Handler) InsertCoin(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto CoinInsertDto
	if !h.decodeAndValidate(w, r, mLogger, &dto) {
		return
	}
	if err := h.machine.InsertCoin(dto.Denomination); err != nil {
		h.respondError(w, r, mLogger, err)
		return
	}
	mLogger.DebugContext(r.Context(), "Coin inserted", "denomination", dto.Denomination)
	web.RespondJSON(w, mLogger, http.StatusOK, SessionDto{InsertedValue: h.machine.InsertedValue()})
}

// ReturnCoins hands back the inserted coins.
func (h *Handler) ReturnCoins(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	returned := h.machine.ReturnInsertedCoins()
	mLogger.InfoContext(r.Context(), "Inserted coins returned", "coins", returned)
	web.RespondJSON(w, mLogger, http.StatusOK, CoinsReturnedDto{Coins: returned})
}

// Dispense sells the selected product.
func (h *Handler) Dispense(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	sale, err := h.machine.Dispense(r.Context())
	if err != nil {
		h.respondError(w, r, mLogger, err)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, sale)
}

// CoinLevels reports the change stock.
func (h *Handler) CoinLevels(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	web.RespondJSON(w, mLogger, http.StatusOK, CoinsDto{
		Levels:      h.machine.CoinLevels(),
		ChangeValue: h.machine.ChangeValue(),
	})
}

// AddCoins tops up the change stock of one denomination.
func (h *Handler) AddCoins(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	d, err := coin.ParseDenomination(chi.URLParam(r, "denomination"))
	if err != nil {
		h.respondError(w, r, mLogger, err)
		return
	}
	var dto CoinsAddDto
	if !h.decodeAndValidate(w, r, mLogger, &dto) {
		return
	}
	if err := h.machine.AddCoins(d, dto.Count); err != nil {
		h.respondError(w, r, mLogger, err)
		return
	}
	mLogger.InfoContext(r.Context(), "Change topped up", "denomination", d, "count", dto.Count)
	web.RespondJSON(w, mLogger, http.StatusOK, CoinsDto{
		Levels:      h.machine.CoinLevels(),
		ChangeValue: h.machine.ChangeValue(),
	})
}

// DrainOverflow empties the overflow bucket.
func (h *Handler) DrainOverflow(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	drained := h.machine.DrainOverflow(r.Context())
	mLogger.InfoContext(r.Context(), "Overflow drained", "coins", drained)
	web.RespondJSON(w, mLogger, http.StatusOK, CoinsReturnedDto{Coins: drained})
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// decodeAndValidate reads the JSON body into dst and validates it, writing a 400 response on failure.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		mLogger.WarnContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			errorResponse := make(map[string]string)
			for _, fieldErr := range validationErrors {
				errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
			}
			mLogger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
			web.RespondJSON(w, mLogger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
			return false
		}
		mLogger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// respondError maps machine errors to HTTP statuses.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		mLogger.ErrorContext(r.Context(), "Request failed", "error", err)
		web.RespondError(w, mLogger, status, "Internal server error")
		return
	}
	mLogger.WarnContext(r.Context(), "Request rejected", "status", status, "error", err)
	web.RespondError(w, mLogger, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, coinerrors.ErrUnknownDenomination),
		errors.Is(err, coinerrors.ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, perrors.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, perrors.ErrProductExists),
		errors.Is(err, perrors.ErrOutOfStock),
		errors.Is(err, coinerrors.ErrCapacityExceeded),
		errors.Is(err, coinerrors.ErrInsufficientStock),
		errors.Is(err, verrors.ErrNoProductSelected),
		errors.Is(err, verrors.ErrInsufficientFunds),
		errors.Is(err, verrors.ErrProductUnavailable),
		errors.Is(err, verrors.ErrExactChangeUnavailable):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID, _ := web.GetRequestID(r.Context())
	return h.logger.With("request_id", reqID)
}

// Package sandbox emulates the FNE certification endpoints in memory. It
// serves local development and tests; nothing is persisted.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/prodestic/fne-sdk-go/internal/model"
	"github.com/prodestic/fne-sdk-go/internal/validator"
)

const (
	DefaultNCC              = "9606123E"
	DefaultStickers         = 1000
	DefaultWarningThreshold = 50
)

// Config holds server configuration
type Config struct {
	Address             string
	APIKey              string // empty accepts any bearer token
	NCC                 string
	Stickers            int
	WarningThreshold    int
	VerificationBaseURL string
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	Debug               bool
	Logger              zerolog.Logger
	Metrics             prometheus.Gatherer // served on /metrics when set
	Now                 func() time.Time
}

// Server represents the sandbox HTTP API
type Server struct {
	config    *Config
	router    *gin.Engine
	validator *validator.InvoiceValidator
	log       zerolog.Logger

	mu       sync.Mutex
	invoices map[string]*storedInvoice
	balance  int
	sequence int
}

type storedInvoice struct {
	id    string
	items map[string]*storedItem
}

type storedItem struct {
	quantity float64
	refunded float64
}

// NewServer creates a new sandbox server
func NewServer(config *Config) *Server {
	if config.NCC == "" {
		config.NCC = DefaultNCC
	}
	if config.Stickers == 0 {
		config.Stickers = DefaultStickers
	}
	if config.WarningThreshold == 0 {
		config.WarningThreshold = DefaultWarningThreshold
	}
	if config.VerificationBaseURL == "" {
		config.VerificationBaseURL = model.TestVerificationBaseURL
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if config.Debug {
		router.Use(gin.Logger())
	}

	s := &Server{
		config:    config,
		router:    router,
		validator: validator.NewInvoiceValidator(),
		log:       config.Logger.With().Str("component", "sandbox").Logger(),
		invoices:  make(map[string]*storedInvoice),
		balance:   config.Stickers,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	if s.config.Metrics != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.config.Metrics, promhttp.HandlerOpts{})))
	}

	// Served both at the root and under /ws like the test environment
	for _, prefix := range []string{"", "/ws"} {
		api := s.router.Group(prefix + "/external/invoices")
		api.Use(s.requireBearer)
		{
			api.POST("/sign", s.handleSign)
			api.POST("/:id/refund", s.handleRefund)
		}
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("sandbox shutdown: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Handler returns the http.Handler for use with custom servers
func (s *Server) Handler() http.Handler {
	return s.router
}

// Balance returns the remaining stickers
func (s *Server) Balance() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"time":            s.config.Now().UTC().Format(time.RFC3339),
		"balance_sticker": s.Balance(),
	})
}

func (s *Server) requireBearer(c *gin.Context) {
	token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok || token == "" || (s.config.APIKey != "" && token != s.config.APIKey) {
		s.log.Warn().Str("path", c.FullPath()).Msg("rejected request with invalid token")
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Token d'authentification invalide ou expiré",
			Error:   "UNAUTHORIZED",
		})
		return
	}
	c.Next()
}

func (s *Server) handleSign(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil || len(body) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Corps de requête vide", Error: "BAD_REQUEST"})
		return
	}

	inv, err := model.DecodeInvoice(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Corps de requête invalide", Error: "BAD_REQUEST"})
		return
	}

	if err := s.validator.Validate(inv); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := s.certify(inv)
	if errors.Is(err, errNoStickers) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: noStickersMessage, Error: "STICKERS"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: err.Error(), Error: "INTERNAL"})
		return
	}

	s.log.Info().
		Str("reference", resp.Reference).
		Int("balance_sticker", resp.BalanceSticker).
		Msg("invoice certified")
	c.JSON(http.StatusOK, resp)
}

var errNoStickers = errors.New("sticker stock exhausted")

const noStickersMessage = "Stock de stickers épuisé"

// certify stores the invoice and consumes one sticker
func (s *Server) certify(inv *model.Invoice) (*SignResponse, error) {
	totals := inv.CalculateTotals()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.balance <= 0 {
		return nil, errNoStickers
	}

	stored := &storedInvoice{id: uuid.NewString(), items: make(map[string]*storedItem)}
	certified := CertifiedInvoice{
		ID:                stored.id,
		Type:              string(inv.InvoiceType()),
		Template:          string(inv.Template()),
		ClientCompanyName: inv.ClientCompanyName(),
		TotalHT:           totals.HT.Sub(totals.DiscountAmt).IntPart(),
		TotalVAT:          totals.VAT.IntPart(),
		TotalTTC:          totals.TTC.IntPart(),
		Items:             make([]CertifiedItem, 0, len(inv.Items())),
	}
	for _, item := range inv.Items() {
		if item == nil {
			continue
		}
		id := uuid.NewString()
		qty := item.Quantity().InexactFloat64()
		stored.items[id] = &storedItem{quantity: qty}

		taxes := make([]string, 0, len(item.Taxes()))
		for _, t := range item.Taxes() {
			taxes = append(taxes, string(t))
		}
		certified.Items = append(certified.Items, CertifiedItem{
			ID:              id,
			Description:     item.Description(),
			Quantity:        qty,
			Amount:          item.Amount().InexactFloat64(),
			Taxes:           taxes,
			Reference:       item.Reference(),
			MeasurementUnit: item.MeasurementUnit(),
		})
	}
	s.invoices[stored.id] = stored

	return s.respondLocked(certified), nil
}

func (s *Server) handleRefund(c *gin.Context) {
	invoiceID := c.Param("id")

	var payload model.RefundPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Corps de requête invalide", Error: "BAD_REQUEST"})
		return
	}

	req := payload.RefundRequest()
	if err := validator.ValidateRefund(invoiceID, req); err != nil {
		badRequest(c, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.invoices[invoiceID]
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Facture introuvable", Error: "NOT_FOUND"})
		return
	}
	if s.balance <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: noStickersMessage, Error: "STICKERS"})
		return
	}

	fieldErrors := map[string]string{}
	requested := map[string]float64{}
	for i, line := range req.Items() {
		item, ok := stored.items[line.ItemID]
		if !ok {
			fieldErrors[fmt.Sprintf("item_%d_id", i)] = "Article inconnu sur la facture d'origine"
			continue
		}
		requested[line.ItemID] += line.Quantity.InexactFloat64()
		if item.refunded+requested[line.ItemID] > item.quantity {
			fieldErrors[fmt.Sprintf("item_%d_quantity", i)] = "La quantité dépasse la quantité restante à rembourser"
		}
	}
	if len(fieldErrors) > 0 {
		badRequest(c, model.NewValidationError(fieldErrors))
		return
	}

	credit := CertifiedInvoice{
		ID:       uuid.NewString(),
		ParentID: stored.id,
		Type:     "refund",
		Items:    make([]CertifiedItem, 0, len(requested)),
	}
	for _, line := range req.Items() {
		stored.items[line.ItemID].refunded += line.Quantity.InexactFloat64()
		credit.Items = append(credit.Items, CertifiedItem{ID: line.ItemID, Quantity: line.Quantity.InexactFloat64()})
	}

	resp := s.respondLocked(credit)
	s.log.Info().Str("reference", resp.Reference).Str("invoice_id", invoiceID).Msg("refund certified")
	c.JSON(http.StatusOK, resp)
}

// respondLocked consumes a sticker and builds the answer. s.mu must be held.
func (s *Server) respondLocked(inv CertifiedInvoice) *SignResponse {
	s.sequence++
	s.balance--

	reference := fmt.Sprintf("%s%s%09d", s.config.NCC, s.config.Now().Format("06"), s.sequence)
	inv.Reference = reference

	return &SignResponse{
		NCC:            s.config.NCC,
		Reference:      reference,
		Token:          model.BuildVerificationURL(uuid.NewString(), false, s.config.VerificationBaseURL),
		Warning:        s.balance < s.config.WarningThreshold,
		BalanceSticker: s.balance,
		Invoice:        inv,
	}
}

func badRequest(c *gin.Context, err error) {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: ve.Message, Error: "VALIDATION", Errors: ve.Errors})
		return
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error(), Error: "VALIDATION"})
}

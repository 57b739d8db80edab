package payments

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Server is the HTTP proxy in front of the payment provider. It keeps the
// API key server-side and gives browser clients a stable local surface.
type Server struct {
	client *Client
	store  *Store
	log    *zap.Logger
}

// NewServer wires the proxy routes onto a gin engine.
func NewServer(client *Client, store *Store, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{client: client, store: store, log: log}
}

// Router builds the HTTP handler.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.POST("/exchange-rate", s.handleExchangeRate)
	api.POST("/pay", s.handlePay)
	api.POST("/status", s.handleStatus)
	api.POST("/webhook", s.handleWebhook)
	api.GET("/payouts/pending", s.handlePending)

	return r
}

func (s *Server) handleExchangeRate(c *gin.Context) {
	var req struct {
		CurrencyCode string `json:"currency_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "currency_code is required"})
		return
	}

	rate, err := s.client.ExchangeRate(c.Request.Context(), req.CurrencyCode)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"currency_code": req.CurrencyCode,
		"buying_rate":   rate.String(),
	})
}

func (s *Server) handlePay(c *gin.Context) {
	var req struct {
		TransactionHash string `json:"transaction_hash" binding:"required"`
		Amount          string `json:"amount" binding:"required"`
		Shortcode       string `json:"shortcode" binding:"required"`
		MobileNetwork   string `json:"mobile_network" binding:"required"`
		Type            string `json:"type"`
		Currency        string `json:"currency"`
		CallbackURL     string `json:"callback_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.Sign() <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a positive number"})
		return
	}

	resp, err := s.client.Disburse(c.Request.Context(), DisburseRequest{
		TransactionHash: req.TransactionHash,
		Amount:          amount,
		Shortcode:       req.Shortcode,
		MobileNetwork:   req.MobileNetwork,
		Type:            req.Type,
		CallbackURL:     req.CallbackURL,
		Currency:        req.Currency,
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) handleStatus(c *gin.Context) {
	var req struct {
		TransactionCode string `json:"transaction_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "transaction_code is required"})
		return
	}

	receipt, err := s.client.Status(c.Request.Context(), req.TransactionCode)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": receipt})
}

// handleWebhook acknowledges provider callbacks. Payout state is advanced by
// polling /v1/status, so the webhook is logged for audit and accepted.
func (s *Server) handleWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<16))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	s.log.Info("payment webhook received",
		zap.Int("bytes", len(body)),
		zap.String("payload", string(body)),
	)
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

func (s *Server) handlePending(c *gin.Context) {
	pending, err := s.store.Pending(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]gin.H, 0, len(pending))
	for _, p := range pending {
		out = append(out, gin.H{
			"tx_hash":      p.TxHash,
			"phone":        p.Phone,
			"local_amount": p.LocalAmount,
			"currency":     p.Currency,
			"last_error":   p.LastError,
			"created_at":   p.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"pending": out})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
		)
	}
}

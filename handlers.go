package main

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"finance-tracker/internal/export"
	"finance-tracker/internal/ledger"
	"finance-tracker/internal/model"
	"finance-tracker/internal/pricing"
	"finance-tracker/internal/tracker"
)

// newRouter registers every route on a fresh gin engine.
func newRouter(a *app) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(a.log))

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", a.healthCheck)

	api := r.Group("/api")
	api.GET("/categories", a.getCategories)
	api.GET("/transactions", a.getTransactions)
	api.POST("/transactions", a.addTransaction)
	api.DELETE("/transactions/:id", a.deleteTransaction)
	api.GET("/investments", a.getInvestments)
	api.POST("/investments", a.addInvestment)
	api.DELETE("/investments/:id", a.deleteInvestment)
	api.GET("/ledger", a.getLedger)
	api.GET("/dashboard", a.getDashboard)
	api.GET("/tickers/search", a.searchTickers)
	api.GET("/export", a.exportReport)

	return r
}

// requestLogger writes one access log line per request.
func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	log = log.With().Str("component", "http").Logger()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := log.Info()
		switch {
		case status >= http.StatusInternalServerError:
			ev = log.Error()
		case status >= http.StatusBadRequest:
			ev = log.Warn()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("Request handled")
	}
}

// respondError maps domain errors onto HTTP statuses.
func (a *app) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrInvalid), errors.Is(err, ledger.ErrInvalidRange):
		status = http.StatusBadRequest
	case errors.Is(err, tracker.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, tracker.ErrPriceUnavailable):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, pricing.ErrSearchUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		a.log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// healthCheck handles the health check endpoint
func (a *app) healthCheck(c *gin.Context) {
	if err := a.tracker.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "finance-tracker",
	})
}

func (a *app) getCategories(c *gin.Context) {
	c.JSON(http.StatusOK, model.Categories())
}

// getTransactions lists transactions newest first
func (a *app) getTransactions(c *gin.Context) {
	txs, err := a.tracker.Transactions(c.Request.Context())
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txs)
}

// addTransaction creates a new transaction
func (a *app) addTransaction(c *gin.Context) {
	var in tracker.NewTransaction
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := a.tracker.AddTransaction(c.Request.Context(), in)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// deleteTransaction removes a transaction by ID
func (a *app) deleteTransaction(c *gin.Context) {
	if err := a.tracker.DeleteTransaction(c.Request.Context(), c.Param("id")); err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted"})
}

// getInvestments lists investments valued at current prices
func (a *app) getInvestments(c *gin.Context) {
	invs, err := a.tracker.Investments(c.Request.Context())
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invs)
}

// addInvestment records a purchase at the price of its purchase date
func (a *app) addInvestment(c *gin.Context) {
	var in tracker.NewInvestment
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inv, err := a.tracker.AddInvestment(c.Request.Context(), in)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

// deleteInvestment removes an investment by ID
func (a *app) deleteInvestment(c *gin.Context) {
	if err := a.tracker.DeleteInvestment(c.Request.Context(), c.Param("id")); err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Investment deleted"})
}

// getLedger returns the consolidated activity feed, optionally limited to
// ?start= and ?end= (inclusive ISO dates)
func (a *app) getLedger(c *gin.Context) {
	r, err := ledger.ParseRange(c.Query("start"), c.Query("end"))
	if err != nil {
		a.respondError(c, err)
		return
	}

	view, err := a.tracker.Ledger(c.Request.Context(), r)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (a *app) getDashboard(c *gin.Context) {
	d, err := a.tracker.Dashboard(c.Request.Context())
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (a *app) searchTickers(c *gin.Context) {
	matches, err := a.tracker.SearchTickers(c.Request.Context(), c.Query("q"))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, matches)
}

// exportReport downloads every record as an XLSX workbook
func (a *app) exportReport(c *gin.Context) {
	report, err := a.tracker.Report(c.Request.Context())
	if err != nil {
		a.respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, report.Transactions, report.Investments); err != nil {
		a.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

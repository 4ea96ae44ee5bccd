package server

import (
	"errors"
	"fmt"
	"net/http"

	"paper-trading-go/internal/session"
	"paper-trading-go/internal/trading"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler holds dependencies for the web endpoints.
type Handler struct {
	log      *zap.Logger
	svc      *trading.Service
	sessions session.Store
}

// NewHandler creates a new Handler.
func NewHandler(log *zap.Logger, svc *trading.Service, sessions session.Store) *Handler {
	return &Handler{log: log, svc: svc, sessions: sessions}
}

// apology renders the shared error page. Domain validation failures map to
// a 4xx with their own message; anything unexpected collapses into a
// generic 500 page and a log line, never a crashed request.
func (h *Handler) apology(c *gin.Context, err error) {
	status := http.StatusBadRequest
	message := ""

	var insufficient *trading.InsufficientSharesError

	switch {
	case errors.Is(err, trading.ErrMissingUsername),
		errors.Is(err, trading.ErrMissingPassword),
		errors.Is(err, trading.ErrMissingConfirmation),
		errors.Is(err, trading.ErrPasswordMismatch),
		errors.Is(err, trading.ErrUsernameTaken),
		errors.Is(err, trading.ErrInvalidCredentials):
		status = http.StatusForbidden
		message = err.Error()
	case errors.Is(err, trading.ErrSharesNotInteger):
		message = "only positive integers please"
	case errors.Is(err, trading.ErrInvalidSymbol):
		message = "invalid symbol"
	case errors.Is(err, trading.ErrInvalidShares):
		message = "invalid shares"
	case errors.Is(err, trading.ErrInsufficientFunds):
		message = "not enough money"
	case errors.Is(err, trading.ErrNoHoldings):
		message = "you have never bought this stock"
	case errors.As(err, &insufficient):
		message = fmt.Sprintf("you only have %d shares", insufficient.Available)
	default:
		h.log.Error("Request failed", zap.Error(err))
		status = http.StatusInternalServerError
		message = "something went wrong"
	}

	c.HTML(status, "apology.html", gin.H{"Message": message})
}

// RegisterForm renders the registration page.
func (h *Handler) RegisterForm(c *gin.Context) {
	c.HTML(http.StatusOK, "register.html", nil)
}

// Register creates a new account and sends the user to the login page.
func (h *Handler) Register(c *gin.Context) {
	err := h.svc.Register(c.Request.Context(),
		c.PostForm("username"),
		c.PostForm("password"),
		c.PostForm("confirmation"),
	)
	if err != nil {
		h.apology(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/login")
}

// LoginForm renders the login page.
func (h *Handler) LoginForm(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", nil)
}

// Login checks credentials and establishes a session.
func (h *Handler) Login(c *gin.Context) {
	user, err := h.svc.Authenticate(c.Request.Context(),
		c.PostForm("username"),
		c.PostForm("password"),
	)
	if err != nil {
		h.apology(c, err)
		return
	}

	token, err := h.sessions.Create(c.Request.Context(), user.ID)
	if err != nil {
		h.apology(c, err)
		return
	}

	c.SetCookie(sessionCookie, token, 0, "/", "", false, true)
	c.Redirect(http.StatusSeeOther, "/")
}

// Logout invalidates the session server-side and clears the cookie.
func (h *Handler) Logout(c *gin.Context) {
	if token, err := c.Cookie(sessionCookie); err == nil {
		if err := h.sessions.Delete(c.Request.Context(), token); err != nil {
			h.log.Warn("Failed to delete session", zap.Error(err))
		}
	}
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
	c.Redirect(http.StatusSeeOther, "/login")
}

// Index shows the portfolio: cash, valued holdings, and the total.
func (h *Handler) Index(c *gin.Context) {
	view, err := h.svc.Portfolio(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.apology(c, err)
		return
	}
	c.HTML(http.StatusOK, "index.html", view)
}

// QuoteForm renders the quote page.
func (h *Handler) QuoteForm(c *gin.Context) {
	c.HTML(http.StatusOK, "quote.html", nil)
}

// Quote looks up a symbol and shows its current price.
func (h *Handler) Quote(c *gin.Context) {
	q, err := h.svc.Quote(c.Request.Context(), c.PostForm("symbol"))
	if err != nil {
		h.apology(c, err)
		return
	}
	c.HTML(http.StatusOK, "quoted.html", q)
}

// BuyForm renders the buy page.
func (h *Handler) BuyForm(c *gin.Context) {
	c.HTML(http.StatusOK, "buy.html", nil)
}

// Buy executes a purchase and returns to the portfolio.
func (h *Handler) Buy(c *gin.Context) {
	err := h.svc.Buy(c.Request.Context(), currentUserID(c),
		c.PostForm("symbol"),
		c.PostForm("shares"),
	)
	if err != nil {
		h.apology(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// SellForm renders the sell page with the symbols currently held.
func (h *Handler) SellForm(c *gin.Context) {
	symbols, err := h.svc.OwnedSymbols(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.apology(c, err)
		return
	}
	c.HTML(http.StatusOK, "sell.html", gin.H{"Symbols": symbols})
}

// Sell executes a sale and returns to the portfolio.
func (h *Handler) Sell(c *gin.Context) {
	err := h.svc.Sell(c.Request.Context(), currentUserID(c),
		c.PostForm("symbol"),
		c.PostForm("shares"),
	)
	if err != nil {
		h.apology(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// History lists the user's full ledger in order.
func (h *Handler) History(c *gin.Context) {
	entries, err := h.svc.History(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.apology(c, err)
		return
	}
	c.HTML(http.StatusOK, "history.html", gin.H{"Entries": entries})
}

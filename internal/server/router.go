package server

import (
	"paper-trading-go/internal/session"
	"paper-trading-go/internal/trading"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter wires the routes: public auth pages plus the session-protected
// trading views.
func NewRouter(log *zap.Logger, svc *trading.Service, sessions session.Store, templateGlob string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), AccessLog(log), NoCache())
	router.LoadHTMLGlob(templateGlob)

	h := NewHandler(log, svc, sessions)

	// Public routes
	router.GET("/register", h.RegisterForm)
	router.POST("/register", h.Register)
	router.GET("/login", h.LoginForm)
	router.POST("/login", h.Login)
	router.GET("/logout", h.Logout)

	// Protected routes
	auth := router.Group("/")
	auth.Use(RequireSession(sessions))
	{
		auth.GET("/", h.Index)
		auth.GET("/quote", h.QuoteForm)
		auth.POST("/quote", h.Quote)
		auth.GET("/buy", h.BuyForm)
		auth.POST("/buy", h.Buy)
		auth.GET("/sell", h.SellForm)
		auth.POST("/sell", h.Sell)
		auth.GET("/history", h.History)
	}

	return router
}

package api

import (
	"net/http"

	"auctionhouse/service"

	"github.com/gin-gonic/gin"
)

// Services groups what the router exposes
type Services struct {
	Auth service.AuthService
	User service.UserService
	Lot  service.LotService
	Bid  service.BidService
}

// SetupRouter configures all Gin routes for the application
func SetupRouter(svc Services) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(RequestLogger)

	authHandler := NewAuthHandler(svc.Auth, svc.User)
	userHandler := NewUserHandler(svc.User, svc.Lot)
	lotHandler := NewLotHandler(svc.Lot, svc.Bid)
	requireAuth := AuthRequired(svc.Auth)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/users", authHandler.Register)
	router.POST("/sessions", authHandler.Login)
	router.POST("/tokens", authHandler.Refresh)
	router.GET("/users/me", requireAuth, authHandler.Profile)
	router.POST("/users/me/password", requireAuth, authHandler.ChangePassword)
	router.GET("/categories", lotHandler.Categories)

	lots := router.Group("/lots")
	{
		lots.GET("", lotHandler.List)
		lots.GET("/recent", lotHandler.Recent)
		lots.GET("/user", requireAuth, lotHandler.Mine)
		lots.GET("/:id", lotHandler.Get)
		lots.GET("/:id/bids", lotHandler.Bids)

		lots.POST("", requireAuth, lotHandler.Create)
		lots.PUT("/:id", requireAuth, lotHandler.Update)
		lots.DELETE("/:id", requireAuth, lotHandler.Cancel)
		lots.POST("/:id/relist", requireAuth, lotHandler.Relist)
		lots.POST("/:id/bids", requireAuth, lotHandler.PlaceBid)
	}

	user := router.Group("/api/user", requireAuth)
	{
		user.POST("/top-up", userHandler.TopUp)
		user.GET("/transactions", userHandler.Transactions)
		user.GET("/followed-lots", userHandler.FollowedLots)
		user.GET("/reconcile", userHandler.Reconcile)
	}

	return router
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the account API under /api/v1/users. identity must
// put the caller's username into the context; the balance lookup is keyed
// by path and does not need it.
func RegisterRoutes(router *gin.Engine, h *AccountHandler, identity gin.HandlerFunc) {
	v1 := router.Group("/api/v1/users")
	{
		v1.GET("/:username/balance", h.GetBalance)

		authed := v1.Group("", identity)
		authed.GET("", h.ListAccounts)
		authed.GET("/me", h.GetMe)
		authed.POST("", h.CreateAccount)
		authed.PUT("", h.UpdateAccount)
		authed.DELETE("", h.DeleteAccount)
		authed.POST("/credit", h.CreditAccount)
		authed.POST("/debit", h.DebitAccount)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

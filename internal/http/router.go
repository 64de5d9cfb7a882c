package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"marblehills.com/app/internal/http/handlers"
	"marblehills.com/app/internal/http/middleware"
)

func NewRouter(l *slog.Logger, builder *handlers.BuilderHandler, cartProxy *handlers.CartProxyHandler) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(l))
	r.Use(middleware.Recovery(l))
	r.Use(middleware.ErrorHandler(l))

	box := r.Group("/box")
	{
		box.GET("", builder.Get)
		box.POST("/products/toggle", builder.ToggleProduct)
		box.POST("/products/variant", builder.SetVariant)
		box.POST("/frequency", builder.SetFrequency)
		box.POST("/offers/toggle", builder.ToggleOffer)
		box.POST("/next", builder.Next)
		box.POST("/back", builder.Back)
		box.POST("/submit", builder.Submit)
		box.POST("/skip", builder.Skip)
	}

	// Theme cart traffic is routed through the proxy so the guard sees
	// every write on every storefront page.
	r.GET("/cart.js", cartProxy.GetCart)
	r.POST("/cart/add.js", cartProxy.Add)
	r.POST("/cart/clear.js", cartProxy.Clear)
	r.POST("/cart/change.js", cartProxy.Change)
	r.POST("/cart/update.js", cartProxy.Update)

	return r
}

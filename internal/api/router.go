package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/api/handlers"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/api/middleware"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/config"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/services"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/storage"
)

// Services bundles the lifecycle services exposed over HTTP.
type Services struct {
	Applications services.IApplicationService
	Visits       services.IVisitService
	Contracts    services.IContractService
	Payments     services.IPaymentService
	Scoring      services.IScoringService
}

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, svc Services, archive storage.IContractArchive, inbox handlers.InboxReader) *gin.Engine {
	r := gin.Default()

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)

	r.Use(middleware.CORSMiddleware())
	r.Use(rateLimiter.Limit())

	applicationHandler := handlers.NewRestApplicationHandler(svc.Applications)
	visitHandler := handlers.NewRestVisitHandler(svc.Visits)
	contractHandler := handlers.NewRestContractHandler(svc.Contracts, archive)
	paymentHandler := handlers.NewRestPaymentHandler(svc.Payments)
	profileHandler := handlers.NewRestProfileHandler(svc.Scoring, inbox)

	v1 := r.Group("/v1")
	{
		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		// Slot availability is public so visitors can pick a time before signing in.
		v1.GET("/properties/:id/visit-slots", visitHandler.AvailableSlots)

		authRequired := v1.Group("/")
		authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		{
			authRequired.GET("/properties/:id/applications", applicationHandler.ListForProperty)

			authRequired.POST("/applications", applicationHandler.Submit)
			authRequired.GET("/applications", applicationHandler.ListMine)
			authRequired.GET("/applications/:id", applicationHandler.Get)
			authRequired.POST("/applications/:id/decision", applicationHandler.Decide)

			authRequired.POST("/visits", visitHandler.Schedule)
			authRequired.GET("/visits/:id", visitHandler.Get)
			authRequired.POST("/visits/:id/confirm", visitHandler.Confirm)
			authRequired.POST("/visits/:id/cancel", visitHandler.Cancel)
			authRequired.POST("/visits/:id/complete", visitHandler.Complete)

			authRequired.POST("/contracts", contractHandler.Instantiate)
			authRequired.GET("/contracts", contractHandler.ListMine)
			authRequired.GET("/contracts/:id", contractHandler.Get)
			authRequired.POST("/contracts/:id/issue", contractHandler.Issue)
			authRequired.POST("/contracts/:id/sign", contractHandler.Sign)
			authRequired.POST("/contracts/:id/cancel", contractHandler.Cancel)
			authRequired.POST("/contracts/:id/terminate", contractHandler.Terminate)
			authRequired.GET("/contracts/:id/archive-url", contractHandler.ArchiveURL)
			authRequired.GET("/contracts/:id/payments", paymentHandler.ListForContract)

			authRequired.POST("/payments", paymentHandler.Initiate)
			authRequired.GET("/payments/:id", paymentHandler.Get)
			authRequired.POST("/payments/:id/cancel", paymentHandler.Cancel)

			authRequired.POST("/profile/trust-score", profileHandler.RefreshTrustScore)
			authRequired.GET("/notifications", profileHandler.Notifications)
		}
	}

	return r
}

// SetupServiceRouter configures and returns the service Gin engine.
// It must only be reachable from the internal network.
func SetupServiceRouter(svc Services, inbox handlers.InboxReader, shutdownChan chan<- struct{}) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	serviceHandler := handlers.NewServiceApiHandler(svc.Payments, svc.Contracts, inbox, shutdownChan)
	r.POST("/api", serviceHandler.HandleRequest)
	return r
}

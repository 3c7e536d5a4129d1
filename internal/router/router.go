package router

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/institute-crm-api/internal/handler"
	"github.com/noah-isme/institute-crm-api/internal/middleware"
	"github.com/noah-isme/institute-crm-api/internal/models"
	"github.com/noah-isme/institute-crm-api/pkg/config"
	"github.com/noah-isme/institute-crm-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/institute-crm-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/institute-crm-api/pkg/middleware/requestid"
)

// Handlers groups the HTTP handlers mounted by the router.
type Handlers struct {
	Auth          *handler.AuthHandler
	Inquiries     *handler.InquiryHandler
	Statuses      *handler.StatusHandler
	Registrations *handler.RegistrationHandler
	Reports       *handler.ReportHandler
	Agencies      *handler.AgencyHandler
	Users         *handler.UserHandler
	Metrics       *handler.MetricsHandler
}

// Options carries the cross-cutting collaborators of the router.
type Options struct {
	Env            string
	APIPrefix      string
	AllowedOrigins []string
	Tokens         middleware.TokenValidator
	Audit          middleware.AuditWriter
	Observer       middleware.RequestObserver
	Logger         *zap.Logger
}

// New builds the gin engine with every route of the API.
func New(opts Options, h Handlers) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	if opts.Observer != nil {
		r.Use(middleware.Metrics(opts.Observer))
	}
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if opts.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := "/" + strings.Trim(opts.APIPrefix, "/")
	if prefix == "/" {
		prefix = ""
	}
	api := r.Group(prefix)

	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(opts.Audit, opts.Logger, action, resource)
	}

	// Public.
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/inquiries", h.Inquiries.Create)

	secured := api.Group("")
	secured.Use(middleware.JWT(opts.Tokens))

	secured.GET("/auth/me", h.Auth.Me)

	inquiries := secured.Group("/inquiries")
	inquiries.GET("", h.Inquiries.List)
	inquiries.GET("/:id", h.Inquiries.Get)
	inquiries.PATCH("/:id", h.Inquiries.Update)
	inquiries.PATCH("/:id/read", h.Inquiries.MarkRead)
	inquiries.POST("/:id/whatsapp", h.Inquiries.MarkWhatsApp)
	inquiries.GET("/:id/status", h.Statuses.History)
	inquiries.POST("/:id/status", h.Statuses.Append)
	inquiries.DELETE("/:id", audit(models.AuditActionInquiryDelete, "inquiries"), h.Inquiries.Delete)

	registrations := secured.Group("/registrations")
	registrations.POST("", h.Registrations.Create)
	registrations.GET("", h.Registrations.List)
	registrations.GET("/:id", h.Registrations.Get)
	registrations.PATCH("/:id", h.Registrations.Update)
	registrations.GET("/:id/pdf", h.Registrations.Receipt)
	registrations.POST("/:id/whatsapp", h.Registrations.MarkWhatsApp)
	registrations.DELETE("/:id", audit(models.AuditActionRegistrationDelete, "registrations"), h.Registrations.Delete)

	reports := secured.Group("/reports")
	reports.GET("/inquiry-status", h.Reports.InquiryStatus)
	reports.GET("/inquiry-button-stats", h.Reports.ButtonStats)
	reports.GET("/conversions", h.Reports.Conversions)
	reports.GET("/fees", h.Reports.Fees)
	reports.GET("/registrations/export", audit(models.AuditActionExport, "registrations"), h.Registrations.Export)

	agencies := secured.Group("/agencies")
	agencies.GET("", h.Agencies.List)
	agencies.GET("/:id", h.Agencies.Get)
	agencies.POST("", audit(models.AuditActionAgencyWrite, "agencies"), h.Agencies.Create)
	agencies.PUT("/:id", audit(models.AuditActionAgencyWrite, "agencies"), h.Agencies.UpdateTotals)
	agencies.DELETE("/:id", audit(models.AuditActionAgencyWrite, "agencies"), h.Agencies.Delete)
	agencies.POST("/:id/payouts", audit(models.AuditActionAgencyPayout, "agencies"), h.Agencies.RecordPayout)

	admin := secured.Group("")
	admin.Use(middleware.RequireRoles(models.RoleSuperAdmin))
	admin.GET("/metrics/summary", h.Metrics.Snapshot)

	users := admin.Group("/users")
	users.GET("", h.Users.List)
	users.GET("/:id", h.Users.Get)
	users.POST("", audit(models.AuditActionUserCreate, "users"), h.Users.Create)
	users.DELETE("/:id", audit(models.AuditActionUserDelete, "users"), h.Users.Delete)

	return r
}

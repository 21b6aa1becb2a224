package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/appointly/scheduler/internal/audit"
	"github.com/appointly/scheduler/internal/config"
	domain "github.com/appointly/scheduler/internal/domain/appointment"
	"github.com/appointly/scheduler/internal/handlers"
	infraRepo "github.com/appointly/scheduler/internal/infra/repository"
	"github.com/appointly/scheduler/internal/middleware"
	"github.com/appointly/scheduler/internal/notify"
	"github.com/appointly/scheduler/internal/settings"
	entitiesuc "github.com/appointly/scheduler/internal/usecase/entities"
	"github.com/appointly/scheduler/internal/usecase/reservation"
)

func RegisterRoutes(
	r *gin.Engine,
	db *gorm.DB,
	cache *redis.Client,
	cfg *config.Config,
	log zerolog.Logger,
	tenant *time.Location,
) {

	// ======================================================
	// INFRA (SINGLETONS)
	// ======================================================
	repo := infraRepo.NewSchedulingGormRepository(db)
	checker := domain.NewSlotChecker(repo)
	settingsReader := settings.NewReader(repo)

	auditLogger := audit.New(db)
	auditDispatcher := audit.NewDispatcher(auditLogger, log)
	notifier := notify.NewDispatcher(log)

	// ======================================================
	// USE CASES
	// ======================================================
	bookUC := reservation.NewBook(repo, checker, settingsReader)
	reassignUC := reservation.NewReassign(repo, settingsReader)
	updateStatusUC := reservation.NewUpdateStatus(repo, settingsReader)
	cancelUC := reservation.NewCancelAppointment(repo)
	listSlotsUC := reservation.NewListSlots(repo, checker, settingsReader, tenant)
	listAgendaUC := reservation.NewListAppointments(repo, tenant)

	entitiesUC := entitiesuc.NewGetEntities(repo, cache, log)

	// ======================================================
	// HANDLERS
	// ======================================================
	authHandler := handlers.NewAuthHandler(db, cfg)
	meHandler := handlers.NewMeHandler(db, repo)
	entitiesHandler := handlers.NewEntitiesHandler(entitiesUC)
	auditLogsHandler := handlers.NewAuditLogsHandler(db)

	bookingHandler := handlers.NewBookingHandler(
		bookUC,
		reassignUC,
		updateStatusUC,
		cancelUC,
		listSlotsUC,
		listAgendaUC,
		entitiesUC,
		notifier,
		auditDispatcher,
		tenant,
	)

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// PUBLIC
		// ------------------------------
		api.POST("/auth/login", authHandler.Login)
		api.GET("/entities", entitiesHandler.List)
		api.GET("/slots", bookingHandler.ListSlots)

		// ------------------------------
		// PRIVATE
		// ------------------------------
		secured := api.Group("/")
		secured.Use(middleware.AuthMiddleware(cfg))
		{
			secured.GET("/me", meHandler.GetMe)
			secured.GET("/me/bookings", meHandler.GetBookings)

			secured.POST("/bookings", bookingHandler.Create)
			secured.POST("/bookings/:id/reassign", bookingHandler.Reassign)
			secured.PATCH("/bookings/:id/status", bookingHandler.UpdateStatus)

			staff := secured.Group("/")
			staff.Use(middleware.RequireStaff())
			{
				staff.GET("/appointments", bookingHandler.ListAppointments)
				staff.DELETE("/appointments/:id", bookingHandler.CancelAppointment)
				staff.GET("/audit-logs", auditLogsHandler.List)
			}
		}
	}
}

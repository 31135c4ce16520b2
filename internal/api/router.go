package api

import (
	"github.com/gin-gonic/gin"

	"parking_manager/internal/api/handler"
	"parking_manager/internal/api/middleware"
	"parking_manager/internal/domain"
	"parking_manager/internal/service"
)

func SetupRouter(as *service.AuthService, ps *service.ParkingService, rs *service.ReservationService,
	authMw *middleware.AuthMiddleware, wsManager *handler.WebSocketManager) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())

	admin := authMw.AuthorizeRole(domain.RoleAdmin)
	user := authMw.AuthorizeRole(domain.RoleUser)

	summaryH := handler.NewSummaryHandler(ps, rs.HourlyRate())
	r.GET("/healthz", summaryH.Health)

	authHandler := handler.NewAuthHandler(as)
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	v1 := r.Group("/api/v1")
	v1.Use(authMw.Authenticate())
	{
		lotH := handler.NewParkingLotHandler(ps)
		spotH := handler.NewParkingSpotHandler(ps)
		reservationH := handler.NewReservationHandler(rs)

		lotRoutes := v1.Group("/parking-lots")
		{
			lotRoutes.GET("", lotH.GetAllParkingLots)
			lotRoutes.GET("/:id", lotH.GetParkingLotByID)
			lotRoutes.POST("", admin, lotH.CreateParkingLot)
			lotRoutes.PUT("/:id", admin, lotH.UpdateParkingLot)
			lotRoutes.PUT("/:id/capacity", admin, lotH.SetCapacity)
			lotRoutes.DELETE("/:id", admin, lotH.DeleteParkingLot)

			lotRoutes.GET("/:id/spots", spotH.GetSpotsByLotID)
			lotRoutes.GET("/:id/next-spot", user, reservationH.NextSpot)
			lotRoutes.POST("/:id/reservations", user, reservationH.BookSpot)
		}

		spotRoutes := v1.Group("/parking-spots")
		spotRoutes.Use(admin)
		{
			spotRoutes.GET("/:spot_id", spotH.GetParkingSpotByID)
			spotRoutes.DELETE("/:spot_id", spotH.DeleteParkingSpot)
		}

		reservationRoutes := v1.Group("/reservations")
		{
			reservationRoutes.GET("", reservationH.ListReservations)
			reservationRoutes.GET("/:id", reservationH.GetReservationByID)
			reservationRoutes.POST("/:id/release", user, reservationH.ReleaseSpot)
		}

		v1.GET("/me/summary", user, summaryH.UserSummary)

		adminRoutes := v1.Group("/admin")
		adminRoutes.Use(admin)
		{
			adminRoutes.GET("/dashboard", summaryH.AdminDashboard)
			adminRoutes.GET("/summary", summaryH.AdminSummary)
			adminRoutes.GET("/users", summaryH.RegisteredUsers)
			adminRoutes.GET("/reservations/export", reservationH.ExportReservations)
		}

		wsHandler := handler.NewWebSocketHandler(wsManager)
		v1.GET("/ws", admin, wsHandler.HandleWebSocket)
	}
	return r
}

package routes

import (
	"os"

	adminController "deliveroo-backend/controllers/admin"
	authController "deliveroo-backend/controllers/auth"
	parcelController "deliveroo-backend/controllers/parcel"
	"deliveroo-backend/httpServices/geocoding"
	"deliveroo-backend/logger"
	"deliveroo-backend/middleware"
	"deliveroo-backend/services/notifier"
	parcelService "deliveroo-backend/services/parcel"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	geocodeBase := os.Getenv("GEOCODING_BASE_URL")
	if geocodeBase == "" {
		geocodeBase = "https://maps.googleapis.com"
	}
	geocoder := geocoding.NewClient(geocodeBase, os.Getenv("GOOGLE_MAPS_API_KEY"))

	asyncLogger := logger.NewAsyncLogger(db)
	mailNotifier := notifier.New(notifier.SMTPSender{})
	service := parcelService.NewService(db, geocoder)

	auth := authController.NewAuthController(db, mailNotifier, asyncLogger)
	parcels := parcelController.NewParcelController(service, asyncLogger)
	admin := adminController.NewAdminController(service, mailNotifier, asyncLogger)

	// Background workers: request audit log and email dispatch both run
	// out-of-band from the request path.
	go asyncLogger.ProcessLog()
	go mailNotifier.Process()

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "Deliveroo API is alive 🚀"})
	})

	/*=============================================================================
	| Auth Routes
	===============================================================================*/
	api := app.Group("/api")
	authGroup := api.Group("/auth")
	authGroup.Post("/register", auth.Register)
	authGroup.Post("/login", auth.Login)
	authGroup.Get("/profile", middleware.RequireAuth(), auth.Profile)
	authGroup.Post("/logout", middleware.RequireAuth(), auth.Logout)

	/*=============================================================================
	| Parcel Routes
	===============================================================================*/
	parcelGroup := api.Group("/parcels")

	// Public tracking lookup; registered before the :id routes so the literal
	// segment wins.
	parcelGroup.Get("/track/:trackingNumber", parcels.Track)

	parcelGroup.Post("/", middleware.RequireAuth(), parcels.Store)
	parcelGroup.Get("/", middleware.RequireAuth(), parcels.Index)
	parcelGroup.Get("/:id", middleware.RequireAuth(), parcels.Show)
	parcelGroup.Put("/:id", middleware.RequireAuth(), parcels.Update)
	parcelGroup.Delete("/:id", middleware.RequireAuth(), parcels.Cancel)
	parcelGroup.Put("/:id/cancel", middleware.RequireAuth(), parcels.Cancel)

	/*=============================================================================
	| Admin Routes
	===============================================================================*/
	adminGroup := api.Group("/admin", middleware.RequireAdmin())
	adminGroup.Get("/parcels", admin.Index)
	adminGroup.Put("/parcels/:id/status", admin.UpdateStatus)
	adminGroup.Put("/parcels/:id/location", admin.UpdateLocation)
	adminGroup.Get("/analytics", admin.Analytics)
}

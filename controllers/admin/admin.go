package admin

import (
	"errors"

	"deliveroo-backend/logger"
	parcelModel "deliveroo-backend/models/parcel"
	"deliveroo-backend/services/notifier"
	parcelService "deliveroo-backend/services/parcel"
	"deliveroo-backend/types"
	parcelTypes "deliveroo-backend/types/parcel"
	"deliveroo-backend/utils"

	"github.com/gofiber/fiber/v2"
)

// AdminController handles the privileged parcel operations: fleet listing,
// status transitions, position pings and analytics.
type AdminController struct {
	Service  *parcelService.Service
	Notifier *notifier.Notifier
	Logger   *logger.AsyncLogger
}

func NewAdminController(service *parcelService.Service, mailNotifier *notifier.Notifier, asyncLogger *logger.AsyncLogger) *AdminController {
	return &AdminController{
		Service:  service,
		Notifier: mailNotifier,
		Logger:   asyncLogger,
	}
}

func (adc *AdminController) sendResponseWithLog(c *fiber.Ctx, status int, response types.ApiResponse) error {
	result := c.Status(status).JSON(response)
	adc.Logger.Log(utils.CreateSanitizedLogEntry(c))
	return result
}

func (adc *AdminController) serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, parcelService.ErrNotFound):
		return adc.sendResponseWithLog(c, fiber.StatusNotFound, types.ApiResponse{
			Message: "Parcel not found",
			Status:  fiber.StatusNotFound,
		})
	case errors.Is(err, parcelService.ErrInvalidStatus), errors.Is(err, parcelService.ErrInvalidCoordinates):
		return adc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Message: err.Error(),
			Status:  fiber.StatusBadRequest,
		})
	default:
		logger.Error("Admin parcel operation failed", err)
		return adc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Message: "Internal server error",
			Status:  fiber.StatusInternalServerError,
		})
	}
}

// Index lists parcels across all users with pagination and an optional
// status filter.
func (adc *AdminController) Index(c *fiber.Ctx) error {
	filter := parcelService.ListFilter{
		Status: c.Query("status"),
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 10),
	}

	parcels, total, err := adc.Service.ListAll(filter)
	if err != nil {
		return adc.serviceError(c, err)
	}

	out := make([]map[string]interface{}, 0, len(parcels))
	for i := range parcels {
		out = append(out, parcels[i].Serialize())
	}
	return adc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Message: "Parcels retrieved successfully",
		Status:  fiber.StatusOK,
		Data: fiber.Map{
			"data":      out,
			"total":     total,
			"page":      filter.Page,
			"limit":     filter.Limit,
			"last_page": (total + int64(filter.Limit) - 1) / int64(filter.Limit),
		},
	})
}

// UpdateStatus transitions a parcel to a new status and appends the matching
// timeline entry. On success the owner is notified asynchronously; a failed
// or dropped notification never affects the response.
func (adc *AdminController) UpdateStatus(c *fiber.Ctx) error {
	var req parcelTypes.StatusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return adc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Message: "Invalid request body",
			Status:  fiber.StatusBadRequest,
		})
	}

	status := parcelModel.ParcelStatus(req.Status)
	if !status.IsValid() {
		return adc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Message: "Invalid status value",
			Status:  fiber.StatusBadRequest,
		})
	}

	parcelID, err := c.ParamsInt("id")
	if err != nil || parcelID < 1 {
		return adc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Message: "Invalid parcel id",
			Status:  fiber.StatusBadRequest,
		})
	}

	updated, oldStatus, err := adc.Service.UpdateStatus(uint(parcelID), status, req.Location)
	if err != nil {
		return adc.serviceError(c, err)
	}

	if owner, err := adc.Service.Owner(updated); err != nil {
		logger.Error("Could not resolve parcel owner for notification", err)
	} else {
		adc.Notifier.SendStatusUpdate(owner.Email, updated.TrackingNumber, oldStatus.String(), status.String())
	}

	logger.Success("Parcel " + updated.TrackingNumber + " status: " + oldStatus.String() + " -> " + status.String())
	return adc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Message: "Parcel status updated successfully",
		Status:  fiber.StatusOK,
		Data:    updated.Serialize(),
	})
}

// UpdateLocation records a position ping without touching the status.
func (adc *AdminController) UpdateLocation(c *fiber.Ctx) error {
	var req parcelTypes.LocationUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return adc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Message: "Invalid request body",
			Status:  fiber.StatusBadRequest,
		})
	}

	if req.CurrentLocation == nil || req.CurrentLocation.Lat == nil || req.CurrentLocation.Lng == nil {
		return adc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Message: "Invalid currentLocation format",
			Status:  fiber.StatusBadRequest,
		})
	}

	parcelID, err := c.ParamsInt("id")
	if err != nil || parcelID < 1 {
		return adc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Message: "Invalid parcel id",
			Status:  fiber.StatusBadRequest,
		})
	}

	updated, err := adc.Service.UpdatePosition(uint(parcelID), *req.CurrentLocation.Lat, *req.CurrentLocation.Lng)
	if err != nil {
		return adc.serviceError(c, err)
	}

	return adc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Message: "Parcel location updated",
		Status:  fiber.StatusOK,
		Data:    updated.Serialize(),
	})
}

// Analytics summarizes the fleet by status.
func (adc *AdminController) Analytics(c *fiber.Ctx) error {
	stats, err := adc.Service.GetAnalytics()
	if err != nil {
		return adc.serviceError(c, err)
	}

	return adc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Message: "Analytics retrieved successfully",
		Status:  fiber.StatusOK,
		Data:    stats,
	})
}

package parcel

import (
	"errors"

	"deliveroo-backend/logger"
	parcelService "deliveroo-backend/services/parcel"
	"deliveroo-backend/types"
	parcelTypes "deliveroo-backend/types/parcel"
	"deliveroo-backend/utils"

	"github.com/gofiber/fiber/v2"
)

// ParcelController handles the owner-facing parcel endpoints plus the public
// tracking lookup.
type ParcelController struct {
	Service *parcelService.Service
	Logger  *logger.AsyncLogger
}

func NewParcelController(service *parcelService.Service, asyncLogger *logger.AsyncLogger) *ParcelController {
	return &ParcelController{
		Service: service,
		Logger:  asyncLogger,
	}
}

func (pc *ParcelController) sendResponseWithLog(c *fiber.Ctx, status int, response types.ApiResponse) error {
	result := c.Status(status).JSON(response)
	pc.Logger.Log(utils.CreateSanitizedLogEntry(c))
	return result
}

// serviceError maps the core's sentinel errors onto HTTP responses.
func (pc *ParcelController) serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, parcelService.ErrNotFound):
		return pc.sendResponseWithLog(c, fiber.StatusNotFound, types.ApiResponse{
			Message: "Parcel not found",
			Status:  fiber.StatusNotFound,
		})
	case errors.Is(err, parcelService.ErrNotPending):
		return pc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Message: "Only pending parcels can be updated",
			Status:  fiber.StatusBadRequest,
		})
	case errors.Is(err, parcelService.ErrInvalidStatus), errors.Is(err, parcelService.ErrInvalidCoordinates):
		return pc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Message: err.Error(),
			Status:  fiber.StatusBadRequest,
		})
	default:
		logger.Error("Parcel operation failed", err)
		return pc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Message: "Internal server error",
			Status:  fiber.StatusInternalServerError,
		})
	}
}

// Store creates a new parcel for the authenticated user.
func (pc *ParcelController) Store(c *fiber.Ctx) error {
	var req parcelTypes.CreateParcelRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return pc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Message: "Invalid request body",
			Status:  fiber.StatusBadRequest,
		})
	}

	if validationErr := req.Validate(); validationErr != "" {
		return pc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Message: validationErr,
			Status:  fiber.StatusBadRequest,
		})
	}

	userID, err := utils.UserIDFromClaims(c)
	if err != nil {
		return pc.sendResponseWithLog(c, fiber.StatusUnauthorized, types.ApiResponse{
			Message: "Invalid user claims",
			Status:  fiber.StatusUnauthorized,
		})
	}

	created, err := pc.Service.Create(userID, parcelService.CreateInput{
		SenderName:         req.SenderName,
		ReceiverName:       req.ReceiverName,
		PickupAddress:      req.PickupAddress,
		DestinationAddress: req.DestinationAddress,
		PickupLat:          *req.PickupCoords.Lat,
		PickupLng:          *req.PickupCoords.Lng,
		DestinationLat:     *req.DestinationCoords.Lat,
		DestinationLng:     *req.DestinationCoords.Lng,
		Weight:             req.Weight,
		Price:              req.Price,
	})
	if err != nil {
		return pc.serviceError(c, err)
	}

	logger.Success("Parcel created with tracking number " + created.TrackingNumber)
	return pc.sendResponseWithLog(c, fiber.StatusCreated, types.ApiResponse{
		Message: "Parcel created successfully",
		Status:  fiber.StatusCreated,
		Data:    created.Serialize(),
	})
}

// Index lists the authenticated user's parcels.
func (pc *ParcelController) Index(c *fiber.Ctx) error {
	userID, err := utils.UserIDFromClaims(c)
	if err != nil {
		return pc.sendResponseWithLog(c, fiber.StatusUnauthorized, types.ApiResponse{
			Message: "Invalid user claims",
			Status:  fiber.StatusUnauthorized,
		})
	}

	parcels, err := pc.Service.ListByUser(userID)
	if err != nil {
		return pc.serviceError(c, err)
	}

	out := make([]map[string]interface{}, 0, len(parcels))
	for i := range parcels {
		out = append(out, parcels[i].Serialize())
	}
	return pc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Message: "Parcels retrieved successfully",
		Status:  fiber.StatusOK,
		Data:    out,
	})
}

// Show fetches one of the authenticated user's parcels. Someone else's parcel
// id comes back Not-Found, never Forbidden.
func (pc *ParcelController) Show(c *fiber.Ctx) error {
	userID, err := utils.UserIDFromClaims(c)
	if err != nil {
		return pc.sendResponseWithLog(c, fiber.StatusUnauthorized, types.ApiResponse{
			Message: "Invalid user claims",
			Status:  fiber.StatusUnauthorized,
		})
	}

	parcelID, err := c.ParamsInt("id")
	if err != nil || parcelID < 1 {
		return pc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Message: "Invalid parcel id",
			Status:  fiber.StatusBadRequest,
		})
	}

	found, err := pc.Service.GetByID(userID, uint(parcelID))
	if err != nil {
		return pc.serviceError(c, err)
	}

	return pc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Message: "Parcel retrieved successfully",
		Status:  fiber.StatusOK,
		Data:    found.Serialize(),
	})
}

// Update applies a partial edit to a pending parcel owned by the caller.
func (pc *ParcelController) Update(c *fiber.Ctx) error {
	var req parcelTypes.UpdateParcelRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return pc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Message: "Invalid request body",
			Status:  fiber.StatusBadRequest,
		})
	}

	if validationErr := req.Validate(); validationErr != "" {
		return pc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Message: validationErr,
			Status:  fiber.StatusBadRequest,
		})
	}

	userID, err := utils.UserIDFromClaims(c)
	if err != nil {
		return pc.sendResponseWithLog(c, fiber.StatusUnauthorized, types.ApiResponse{
			Message: "Invalid user claims",
			Status:  fiber.StatusUnauthorized,
		})
	}

	parcelID, err := c.ParamsInt("id")
	if err != nil || parcelID < 1 {
		return pc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Message: "Invalid parcel id",
			Status:  fiber.StatusBadRequest,
		})
	}

	updated, err := pc.Service.Update(userID, uint(parcelID), parcelService.UpdateInput{
		SenderName:         req.SenderName,
		ReceiverName:       req.ReceiverName,
		PickupAddress:      req.PickupAddress,
		DestinationAddress: req.DestinationAddress,
		Weight:             req.Weight,
		Price:              req.Price,
	})
	if err != nil {
		return pc.serviceError(c, err)
	}

	return pc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Message: "Parcel updated successfully",
		Status:  fiber.StatusOK,
		Data:    updated.Serialize(),
	})
}

// Cancel marks a pending parcel cancelled.
func (pc *ParcelController) Cancel(c *fiber.Ctx) error {
	userID, err := utils.UserIDFromClaims(c)
	if err != nil {
		return pc.sendResponseWithLog(c, fiber.StatusUnauthorized, types.ApiResponse{
			Message: "Invalid user claims",
			Status:  fiber.StatusUnauthorized,
		})
	}

	parcelID, err := c.ParamsInt("id")
	if err != nil || parcelID < 1 {
		return pc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Message: "Invalid parcel id",
			Status:  fiber.StatusBadRequest,
		})
	}

	cancelled, err := pc.Service.Cancel(userID, uint(parcelID))
	if err != nil {
		return pc.serviceError(c, err)
	}

	logger.Success("Parcel cancelled: " + cancelled.TrackingNumber)
	return pc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Message: "Parcel cancelled successfully",
		Status:  fiber.StatusOK,
		Data:    cancelled.Serialize(),
	})
}

// Track is the public tracking lookup by tracking number. No authentication
// and no ownership filter, so a receiver without an account can follow a
// delivery.
func (pc *ParcelController) Track(c *fiber.Ctx) error {
	trackingNumber := c.Params("trackingNumber")
	if trackingNumber == "" {
		return pc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Message: "Tracking number is required",
			Status:  fiber.StatusBadRequest,
		})
	}

	found, err := pc.Service.GetByTrackingNumber(trackingNumber)
	if err != nil {
		return pc.serviceError(c, err)
	}

	return pc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Message: "Parcel retrieved successfully",
		Status:  fiber.StatusOK,
		Data:    found.Serialize(),
	})
}

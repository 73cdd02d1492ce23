package parcel

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Coordinates is a {lat,lng} pair. Pointers distinguish "absent" from zero so
// a missing field fails validation instead of defaulting to 0,0.
type Coordinates struct {
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
}

// CreateParcelRequest is the payload for POST /api/parcels.
type CreateParcelRequest struct {
	SenderName         string      `json:"senderName" validate:"required,min=2,max=100"`
	ReceiverName       string      `json:"receiverName" validate:"required,min=2,max=100"`
	PickupAddress      string      `json:"pickupAddress" validate:"required,min=5,max=500"`
	DestinationAddress string      `json:"destinationAddress" validate:"required,min=5,max=500"`
	PickupCoords       Coordinates `json:"pickupCoords" validate:"required"`
	DestinationCoords  Coordinates `json:"destinationCoords" validate:"required"`
	Weight             float64     `json:"weight" validate:"required,gt=0,lte=1000"`
	Price              float64     `json:"price" validate:"gte=0"`
}

func (r CreateParcelRequest) Validate() string {
	if err := validate.Struct(r); err != nil {
		return validationMessage(err)
	}
	return ""
}

// UpdateParcelRequest is the payload for PUT /api/parcels/:id. All fields are
// optional; absent fields leave the stored value untouched.
type UpdateParcelRequest struct {
	SenderName         *string  `json:"senderName" validate:"omitempty,min=2,max=100"`
	ReceiverName       *string  `json:"receiverName" validate:"omitempty,min=2,max=100"`
	PickupAddress      *string  `json:"pickupAddress" validate:"omitempty,min=5,max=500"`
	DestinationAddress *string  `json:"destinationAddress" validate:"omitempty,min=5,max=500"`
	Weight             *float64 `json:"weight" validate:"omitempty,gt=0,lte=1000"`
	Price              *float64 `json:"price" validate:"omitempty,gte=0"`
}

func (r UpdateParcelRequest) Validate() string {
	if err := validate.Struct(r); err != nil {
		return validationMessage(err)
	}
	return ""
}

// StatusUpdateRequest is the payload for PUT /api/admin/parcels/:id/status.
// The status enum itself is checked at the route boundary.
type StatusUpdateRequest struct {
	Status   string `json:"status"`
	Location string `json:"location"`
}

// LocationUpdateRequest is the payload for PUT /api/admin/parcels/:id/location.
type LocationUpdateRequest struct {
	CurrentLocation *Coordinates `json:"currentLocation"`
}

func validationMessage(err error) string {
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		fe := errs[0]
		switch fe.Tag() {
		case "required":
			return fe.Field() + " is required"
		case "min", "gt", "gte":
			return fe.Field() + " is below the allowed range"
		case "max", "lt", "lte":
			return fe.Field() + " is above the allowed range"
		default:
			return fe.Field() + " is invalid"
		}
	}
	return "invalid request"
}

package parcel

import (
	"errors"
	"fmt"
	"strconv"

	"deliveroo-backend/httpServices/geocoding"
	"deliveroo-backend/logger"
	parcelModel "deliveroo-backend/models/parcel"
	userModel "deliveroo-backend/models/user"
	"deliveroo-backend/utils"

	"gorm.io/gorm"
)

// Sentinel errors the HTTP boundary maps onto status codes. Ownership
// failures fold into ErrNotFound so the API never confirms another user's
// parcel exists.
var (
	ErrNotFound           = errors.New("parcel not found")
	ErrNotPending         = errors.New("only pending parcels can be modified")
	ErrInvalidStatus      = errors.New("invalid parcel status")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// Geocoder resolves an address to coordinates. Failures are tolerated by the
// owner-edit path, which keeps the previous coordinates.
type Geocoder interface {
	Geocode(address string) (*geocoding.Coordinates, error)
}

// Service owns the parcel lifecycle: every status-affecting write appends
// exactly one timeline entry inside the same transaction, so Parcel.Status
// always matches the latest Location.
type Service struct {
	db       *gorm.DB
	geocoder Geocoder
}

func NewService(db *gorm.DB, geocoder Geocoder) *Service {
	return &Service{db: db, geocoder: geocoder}
}

// CreateInput carries the validated fields for a new parcel.
type CreateInput struct {
	SenderName         string
	ReceiverName       string
	PickupAddress      string
	DestinationAddress string
	PickupLat          float64
	PickupLng          float64
	DestinationLat     float64
	DestinationLng     float64
	Weight             float64
	Price              float64
}

// UpdateInput carries the optional fields of an owner edit; nil means keep
// the stored value.
type UpdateInput struct {
	SenderName         *string
	ReceiverName       *string
	PickupAddress      *string
	DestinationAddress *string
	Weight             *float64
	Price              *float64
}

// trackingNumberAttempts bounds the collision-retry loop; the unique index on
// the column is the backstop.
const trackingNumberAttempts = 5

// Create registers a parcel with status pending and its initial timeline
// entry at the pickup address. Both rows commit or roll back together.
func (s *Service) Create(userID uint, in CreateInput) (*parcelModel.Parcel, error) {
	var created parcelModel.Parcel

	err := s.db.Transaction(func(tx *gorm.DB) error {
		trackingNumber, err := s.uniqueTrackingNumber(tx)
		if err != nil {
			return err
		}

		created = parcelModel.Parcel{
			UserID:             userID,
			TrackingNumber:     trackingNumber,
			SenderName:         in.SenderName,
			ReceiverName:       in.ReceiverName,
			PickupAddress:      in.PickupAddress,
			DestinationAddress: in.DestinationAddress,
			PickupLat:          in.PickupLat,
			PickupLng:          in.PickupLng,
			DestinationLat:     in.DestinationLat,
			DestinationLng:     in.DestinationLng,
			Weight:             in.Weight,
			Price:              in.Price,
			Status:             parcelModel.StatusPending,
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}

		pickupLat, pickupLng := in.PickupLat, in.PickupLng
		initial := parcelModel.Location{
			ParcelID:            created.ID,
			Status:              parcelModel.StatusPending,
			LocationDescription: in.PickupAddress,
			Latitude:            &pickupLat,
			Longitude:           &pickupLng,
		}
		return tx.Create(&initial).Error
	})
	if err != nil {
		return nil, err
	}

	return s.reload(created.ID)
}

// UpdateStatus sets a new status and appends the matching timeline entry.
// Any status is reachable from any other, including re-entering the current
// one; each call grows the timeline by exactly one. The previous status is
// returned for the notification path.
func (s *Service) UpdateStatus(parcelID uint, status parcelModel.ParcelStatus, locationText string) (*parcelModel.Parcel, parcelModel.ParcelStatus, error) {
	if !status.IsValid() {
		return nil, "", ErrInvalidStatus
	}
	if locationText == "" {
		locationText = "Status updated"
	}

	var oldStatus parcelModel.ParcelStatus
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var p parcelModel.Parcel
		if err := tx.First(&p, parcelID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		oldStatus = p.Status
		p.Status = status
		if err := tx.Save(&p).Error; err != nil {
			return err
		}

		entry := parcelModel.Location{
			ParcelID:            p.ID,
			Status:              status,
			LocationDescription: locationText,
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return nil, "", err
	}

	p, err := s.reload(parcelID)
	return p, oldStatus, err
}

// UpdatePosition records a position ping: current coordinates on the parcel
// plus a timeline entry carrying the unchanged status.
func (s *Service) UpdatePosition(parcelID uint, lat, lng float64) (*parcelModel.Parcel, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, ErrInvalidCoordinates
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var p parcelModel.Parcel
		if err := tx.First(&p, parcelID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		p.CurrentLat = &lat
		p.CurrentLng = &lng
		if err := tx.Save(&p).Error; err != nil {
			return err
		}

		entry := parcelModel.Location{
			ParcelID:            p.ID,
			Status:              p.Status,
			LocationDescription: fmt.Sprintf("Lat: %v, Lng: %v", lat, lng),
			Latitude:            &lat,
			Longitude:           &lng,
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return nil, err
	}

	return s.reload(parcelID)
}

// Update applies an owner edit. Only pending parcels may be edited; absent
// fields are no-ops. A changed address is re-geocoded best-effort: when the
// geocoder fails, the new address string is kept with the old coordinates.
func (s *Service) Update(userID, parcelID uint, in UpdateInput) (*parcelModel.Parcel, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var p parcelModel.Parcel
		if err := tx.Where("id = ? AND user_id = ?", parcelID, userID).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if !p.Status.IsPending() {
			return ErrNotPending
		}

		if in.SenderName != nil {
			p.SenderName = *in.SenderName
		}
		if in.ReceiverName != nil {
			p.ReceiverName = *in.ReceiverName
		}
		if in.Weight != nil {
			p.Weight = *in.Weight
		}
		if in.Price != nil {
			p.Price = *in.Price
		}

		if in.PickupAddress != nil && *in.PickupAddress != p.PickupAddress {
			p.PickupAddress = *in.PickupAddress
			if coords := s.resolveAddress(*in.PickupAddress); coords != nil {
				p.PickupLat = coords.Lat
				p.PickupLng = coords.Lng
			}
		}
		if in.DestinationAddress != nil && *in.DestinationAddress != p.DestinationAddress {
			p.DestinationAddress = *in.DestinationAddress
			if coords := s.resolveAddress(*in.DestinationAddress); coords != nil {
				p.DestinationLat = coords.Lat
				p.DestinationLng = coords.Lng
			}
		}

		return tx.Save(&p).Error
	})
	if err != nil {
		return nil, err
	}

	return s.reload(parcelID)
}

// Cancel marks an owned pending parcel cancelled and appends the terminal
// timeline entry. Cancelled is terminal: a second cancel is rejected.
func (s *Service) Cancel(userID, parcelID uint) (*parcelModel.Parcel, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var p parcelModel.Parcel
		if err := tx.Where("id = ? AND user_id = ?", parcelID, userID).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if !p.Status.IsPending() {
			return ErrNotPending
		}

		p.Status = parcelModel.StatusCancelled
		if err := tx.Save(&p).Error; err != nil {
			return err
		}

		entry := parcelModel.Location{
			ParcelID:            p.ID,
			Status:              parcelModel.StatusCancelled,
			LocationDescription: "Parcel cancelled by user",
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return nil, err
	}

	return s.reload(parcelID)
}

// GetByID fetches one parcel owned by the given user, timeline included.
func (s *Service) GetByID(userID, parcelID uint) (*parcelModel.Parcel, error) {
	var p parcelModel.Parcel
	err := s.withTimeline(s.db).Where("id = ? AND user_id = ?", parcelID, userID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// GetByTrackingNumber is the public tracking lookup; no ownership check.
func (s *Service) GetByTrackingNumber(trackingNumber string) (*parcelModel.Parcel, error) {
	var p parcelModel.Parcel
	err := s.withTimeline(s.db).Where("tracking_number = ?", trackingNumber).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListByUser returns all parcels owned by the user, newest first.
func (s *Service) ListByUser(userID uint) ([]parcelModel.Parcel, error) {
	var parcels []parcelModel.Parcel
	err := s.withTimeline(s.db).Where("user_id = ?", userID).
		Order("created_at desc").Find(&parcels).Error
	return parcels, err
}

// ListFilter narrows and pages the admin listing.
type ListFilter struct {
	Status string
	Page   int
	Limit  int
}

// ListAll returns parcels across all users with pagination and an optional
// status filter.
func (s *Service) ListAll(f ListFilter) ([]parcelModel.Parcel, int64, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}

	query := s.db.Model(&parcelModel.Parcel{})
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var parcels []parcelModel.Parcel
	err := s.withTimeline(query).
		Offset((f.Page - 1) * f.Limit).Limit(f.Limit).
		Order("created_at desc").Find(&parcels).Error
	return parcels, total, err
}

// Analytics summarizes the fleet: total parcels plus a count per status.
type Analytics struct {
	Total     int64            `json:"total"`
	ByStatus  map[string]int64 `json:"by_status"`
	Delivered int64            `json:"delivered"`
	InTransit int64            `json:"in_transit"`
}

func (s *Service) GetAnalytics() (*Analytics, error) {
	out := &Analytics{ByStatus: make(map[string]int64)}

	if err := s.db.Model(&parcelModel.Parcel{}).Count(&out.Total).Error; err != nil {
		return nil, err
	}

	rows := []struct {
		Status string
		Count  int64
	}{}
	err := s.db.Model(&parcelModel.Parcel{}).
		Select("status, count(*) as count").
		Group("status").Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		out.ByStatus[row.Status] = row.Count
	}
	for _, status := range parcelModel.AllStatuses() {
		if _, ok := out.ByStatus[status.String()]; !ok {
			out.ByStatus[status.String()] = 0
		}
	}
	out.Delivered = out.ByStatus[parcelModel.StatusDelivered.String()]
	out.InTransit = out.ByStatus[parcelModel.StatusInTransit.String()]
	return out, nil
}

// uniqueTrackingNumber generates a tracking number, retrying on collision.
func (s *Service) uniqueTrackingNumber(tx *gorm.DB) (string, error) {
	for i := 0; i < trackingNumberAttempts; i++ {
		candidate := utils.GenerateTrackingNumber()
		var count int64
		if err := tx.Model(&parcelModel.Parcel{}).
			Where("tracking_number = ?", candidate).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		logger.Warning("Tracking number collision on " + candidate + ", retrying (attempt " + strconv.Itoa(i+1) + ")")
	}
	return "", errors.New("could not generate a unique tracking number")
}

// resolveAddress wraps the geocoder with the degrade-gracefully policy.
func (s *Service) resolveAddress(address string) *geocoding.Coordinates {
	if s.geocoder == nil {
		return nil
	}
	coords, err := s.geocoder.Geocode(address)
	if err != nil {
		logger.Error("Geocoding failed for \""+address+"\", keeping previous coordinates", err)
		return nil
	}
	return coords
}

// withTimeline preloads the ordered timeline relation.
func (s *Service) withTimeline(db *gorm.DB) *gorm.DB {
	return db.Preload("Timeline", func(db *gorm.DB) *gorm.DB {
		return db.Order("timestamp ASC, id ASC")
	})
}

func (s *Service) reload(parcelID uint) (*parcelModel.Parcel, error) {
	var p parcelModel.Parcel
	if err := s.withTimeline(s.db).First(&p, parcelID).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// Owner returns the owning user for the notification path.
func (s *Service) Owner(p *parcelModel.Parcel) (*userModel.User, error) {
	var owner userModel.User
	if err := s.db.First(&owner, p.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("owner %d not found for parcel %d", p.UserID, p.ID)
		}
		return nil, err
	}
	return &owner, nil
}

package parcel

import (
	"time"

	"deliveroo-backend/models/user"
)

// Parcel represents a shipment. Status is a cached copy of the most recently
// appended Location entry's status; the two are only ever written together in
// one transaction.
type Parcel struct {
	ID     uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID uint      `gorm:"not null;index" json:"userId"`
	User   user.User `gorm:"foreignKey:UserID" json:"-"`

	TrackingNumber     string `gorm:"type:varchar(50);not null;uniqueIndex" json:"trackingNumber"`
	SenderName         string `gorm:"type:varchar(100);not null" json:"senderName"`
	ReceiverName       string `gorm:"type:varchar(100);not null" json:"receiverName"`
	PickupAddress      string `gorm:"type:text;not null" json:"pickupAddress"`
	DestinationAddress string `gorm:"type:text;not null" json:"destinationAddress"`

	PickupLat      float64  `gorm:"not null" json:"pickupLat"`
	PickupLng      float64  `gorm:"not null" json:"pickupLng"`
	DestinationLat float64  `gorm:"not null" json:"destinationLat"`
	DestinationLng float64  `gorm:"not null" json:"destinationLng"`
	CurrentLat     *float64 `json:"currentLat,omitempty"`
	CurrentLng     *float64 `json:"currentLng,omitempty"`

	Weight float64      `gorm:"not null" json:"weight"`
	Price  float64      `gorm:"type:decimal(10,2);not null" json:"price"`
	Status ParcelStatus `gorm:"type:varchar(20);not null;default:pending;column:status" json:"status"`

	Timeline []Location `gorm:"foreignKey:ParcelID;constraint:OnDelete:CASCADE" json:"timeline"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// Serialize returns the wire representation of the parcel, including its
// ordered timeline. Coordinates are nested {lat,lng} pairs and
// currentLocation stays null until the first position ping.
func (p *Parcel) Serialize() map[string]interface{} {
	timeline := make([]map[string]interface{}, 0, len(p.Timeline))
	for i := range p.Timeline {
		timeline = append(timeline, p.Timeline[i].Serialize())
	}

	out := map[string]interface{}{
		"id":                 p.ID,
		"trackingNumber":     p.TrackingNumber,
		"senderName":         p.SenderName,
		"receiverName":       p.ReceiverName,
		"pickupAddress":      p.PickupAddress,
		"destinationAddress": p.DestinationAddress,
		"pickupCoords":       map[string]float64{"lat": p.PickupLat, "lng": p.PickupLng},
		"destinationCoords":  map[string]float64{"lat": p.DestinationLat, "lng": p.DestinationLng},
		"currentLocation":    nil,
		"weight":             p.Weight,
		"price":              p.Price,
		"status":             p.Status,
		"createdAt":          p.CreatedAt,
		"updatedAt":          p.UpdatedAt,
		"userId":             p.UserID,
		"timeline":           timeline,
	}
	if p.CurrentLat != nil && p.CurrentLng != nil {
		out["currentLocation"] = map[string]float64{"lat": *p.CurrentLat, "lng": *p.CurrentLng}
	}
	return out
}

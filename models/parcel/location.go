package parcel

import "time"

// Location is one entry in a parcel's timeline: a snapshot of the status at
// the moment of the event plus an optional position. Entries are append-only
// and are never updated or deleted while the parcel exists.
type Location struct {
	ID       uint `gorm:"primaryKey;autoIncrement" json:"id"`
	ParcelID uint `gorm:"not null;index" json:"parcelId"`

	Status              ParcelStatus `gorm:"type:varchar(20);not null" json:"status"`
	LocationDescription string       `gorm:"type:varchar(255);not null" json:"location"`
	Latitude            *float64     `json:"latitude,omitempty"`
	Longitude           *float64     `json:"longitude,omitempty"`

	Timestamp time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
}

// Serialize returns the wire representation of the timeline entry.
func (l *Location) Serialize() map[string]interface{} {
	out := map[string]interface{}{
		"id":          l.ID,
		"status":      l.Status,
		"location":    l.LocationDescription,
		"coordinates": nil,
		"timestamp":   l.Timestamp,
	}
	if l.Latitude != nil && l.Longitude != nil {
		out["coordinates"] = map[string]float64{"lat": *l.Latitude, "lng": *l.Longitude}
	}
	return out
}

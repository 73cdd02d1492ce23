package parcel

// ParcelStatus is the lifecycle status of a parcel. There is no transition
// graph: an admin may set any status from any other, including re-entering
// the current one, and every write appends a timeline entry.
type ParcelStatus string

const (
	StatusPending   ParcelStatus = "pending"
	StatusPickedUp  ParcelStatus = "picked_up"
	StatusInTransit ParcelStatus = "in_transit"
	StatusDelivered ParcelStatus = "delivered"
	StatusCancelled ParcelStatus = "cancelled"
)

func (ps ParcelStatus) String() string {
	return string(ps)
}

func (ps ParcelStatus) IsValid() bool {
	switch ps {
	case StatusPending, StatusPickedUp, StatusInTransit, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsPending reports whether owner-initiated edit and cancel are still allowed.
func (ps ParcelStatus) IsPending() bool {
	return ps == StatusPending
}

// AllStatuses returns every valid parcel status.
func AllStatuses() []ParcelStatus {
	return []ParcelStatus{
		StatusPending,
		StatusPickedUp,
		StatusInTransit,
		StatusDelivered,
		StatusCancelled,
	}
}

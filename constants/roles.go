package constants

// User roles
const (
	RoleUser    = "user"
	RoleAdmin   = "admin"
	RoleCourier = "courier"
)

// TrackingPrefix is the public prefix of every tracking number.
const TrackingPrefix = "DEL"

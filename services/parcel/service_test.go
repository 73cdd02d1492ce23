package parcel

import (
	"errors"
	"regexp"
	"testing"

	"deliveroo-backend/database"
	"deliveroo-backend/httpServices/geocoding"
	parcelModel "deliveroo-backend/models/parcel"
	userModel "deliveroo-backend/models/user"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubGeocoder struct {
	coords *geocoding.Coordinates
	err    error
	calls  int
}

func (g *stubGeocoder) Geocode(address string) (*geocoding.Coordinates, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.coords, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) *userModel.User {
	t.Helper()
	u := &userModel.User{Name: "Test User", Email: email, Phone: "0123456789", Role: "user"}
	require.NoError(t, u.SetPassword("secret123"))
	require.NoError(t, db.Create(u).Error)
	return u
}

func sampleInput() CreateInput {
	return CreateInput{
		SenderName:         "Alice Sender",
		ReceiverName:       "Bob Receiver",
		PickupAddress:      "350 5th Ave, New York, NY",
		DestinationAddress: "620 Atlantic Ave, Brooklyn, NY",
		PickupLat:          40.7128,
		PickupLng:          -74.0060,
		DestinationLat:     40.6782,
		DestinationLng:     -73.9442,
		Weight:             2.5,
		Price:              15.99,
	}
}

func TestCreateParcel(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "alice@example.com")
	svc := NewService(db, nil)

	p, err := svc.Create(owner.ID, sampleInput())
	require.NoError(t, err)

	assert.Equal(t, parcelModel.StatusPending, p.Status)
	assert.Regexp(t, regexp.MustCompile(`^DEL[0-9A-F]{8}$`), p.TrackingNumber)
	assert.Nil(t, p.CurrentLat)
	assert.Nil(t, p.CurrentLng)

	require.Len(t, p.Timeline, 1)
	entry := p.Timeline[0]
	assert.Equal(t, parcelModel.StatusPending, entry.Status)
	assert.Equal(t, "350 5th Ave, New York, NY", entry.LocationDescription)
	require.NotNil(t, entry.Latitude)
	require.NotNil(t, entry.Longitude)
	assert.Equal(t, 40.7128, *entry.Latitude)
	assert.Equal(t, -74.0060, *entry.Longitude)
}

func TestCreateParcelIsAtomic(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "alice@example.com")
	svc := NewService(db, nil)

	// With the timeline table gone the second insert of the transaction
	// fails, so the parcel insert must roll back too.
	require.NoError(t, db.Migrator().DropTable(&parcelModel.Location{}))

	_, err := svc.Create(owner.ID, sampleInput())
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&parcelModel.Parcel{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpdateStatusKeepsTimelineConsistent(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "alice@example.com")
	svc := NewService(db, nil)

	p, err := svc.Create(owner.ID, sampleInput())
	require.NoError(t, err)

	sequence := []parcelModel.ParcelStatus{
		parcelModel.StatusPickedUp,
		parcelModel.StatusInTransit,
		parcelModel.StatusInTransit, // re-entry is allowed and still appends
		parcelModel.StatusDelivered,
	}

	for i, status := range sequence {
		updated, oldStatus, err := svc.UpdateStatus(p.ID, status, "")
		require.NoError(t, err)

		assert.Equal(t, status, updated.Status)
		require.Len(t, updated.Timeline, i+2)
		last := updated.Timeline[len(updated.Timeline)-1]
		assert.Equal(t, status, last.Status)
		assert.Equal(t, "Status updated", last.LocationDescription)
		if i == 0 {
			assert.Equal(t, parcelModel.StatusPending, oldStatus)
		}
	}
}

func TestUpdateStatusWithLocationText(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "alice@example.com")
	svc := NewService(db, nil)

	p, err := svc.Create(owner.ID, sampleInput())
	require.NoError(t, err)

	updated, oldStatus, err := svc.UpdateStatus(p.ID, parcelModel.StatusInTransit, "En route")
	require.NoError(t, err)

	assert.Equal(t, parcelModel.StatusPending, oldStatus)
	assert.Equal(t, parcelModel.StatusInTransit, updated.Status)
	require.Len(t, updated.Timeline, 2)
	assert.Equal(t, "En route", updated.Timeline[1].LocationDescription)
	assert.Nil(t, updated.Timeline[1].Latitude)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	svc := NewService(newTestDB(t), nil)

	_, _, err := svc.UpdateStatus(1, parcelModel.ParcelStatus("teleported"), "")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateStatusNotFound(t *testing.T) {
	svc := NewService(newTestDB(t), nil)

	_, _, err := svc.UpdateStatus(4242, parcelModel.StatusInTransit, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePosition(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "alice@example.com")
	svc := NewService(db, nil)

	p, err := svc.Create(owner.ID, sampleInput())
	require.NoError(t, err)

	updated, err := svc.UpdatePosition(p.ID, 40.6892, -74.0445)
	require.NoError(t, err)

	// Position pings never change the status.
	assert.Equal(t, parcelModel.StatusPending, updated.Status)
	require.NotNil(t, updated.CurrentLat)
	require.NotNil(t, updated.CurrentLng)
	assert.Equal(t, 40.6892, *updated.CurrentLat)
	assert.Equal(t, -74.0445, *updated.CurrentLng)

	require.Len(t, updated.Timeline, 2)
	last := updated.Timeline[1]
	assert.Equal(t, parcelModel.StatusPending, last.Status)
	assert.Equal(t, "Lat: 40.6892, Lng: -74.0445", last.LocationDescription)
	require.NotNil(t, last.Latitude)
	assert.Equal(t, 40.6892, *last.Latitude)
}

func TestUpdatePositionRejectsOutOfRangeCoordinates(t *testing.T) {
	svc := NewService(newTestDB(t), nil)

	_, err := svc.UpdatePosition(1, 91, 0)
	assert.ErrorIs(t, err, ErrInvalidCoordinates)

	_, err = svc.UpdatePosition(1, 0, -181)
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
}

func TestUpdateAppliesPartialEdit(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "alice@example.com")
	svc := NewService(db, nil)

	p, err := svc.Create(owner.ID, sampleInput())
	require.NoError(t, err)

	weight := 5.0
	updated, err := svc.Update(owner.ID, p.ID, UpdateInput{Weight: &weight})
	require.NoError(t, err)

	assert.Equal(t, 5.0, updated.Weight)
	// Absent fields are no-ops, not clears.
	assert.Equal(t, "Alice Sender", updated.SenderName)
	assert.Equal(t, "Bob Receiver", updated.ReceiverName)
	assert.Equal(t, 15.99, updated.Price)
	// Edits do not touch the timeline.
	assert.Len(t, updated.Timeline, 1)
}

func TestUpdateRejectsNonPendingParcel(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "alice@example.com")
	svc := NewService(db, nil)

	p, err := svc.Create(owner.ID, sampleInput())
	require.NoError(t, err)
	_, _, err = svc.UpdateStatus(p.ID, parcelModel.StatusPickedUp, "")
	require.NoError(t, err)

	name := "Mallory"
	_, err = svc.Update(owner.ID, p.ID, UpdateInput{SenderName: &name})
	assert.ErrorIs(t, err, ErrNotPending)

	// The rejected edit must leave no trace.
	reloaded, err := svc.GetByID(owner.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Sender", reloaded.SenderName)
	assert.Len(t, reloaded.Timeline, 2)
}

func TestUpdateGeocodesChangedAddress(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "alice@example.com")
	geocoder := &stubGeocoder{coords: &geocoding.Coordinates{Lat: 41.8781, Lng: -87.6298}}
	svc := NewService(db, geocoder)

	p, err := svc.Create(owner.ID, sampleInput())
	require.NoError(t, err)

	newAddress := "233 S Wacker Dr, Chicago, IL"
	updated, err := svc.Update(owner.ID, p.ID, UpdateInput{DestinationAddress: &newAddress})
	require.NoError(t, err)

	assert.Equal(t, 1, geocoder.calls)
	assert.Equal(t, newAddress, updated.DestinationAddress)
	assert.Equal(t, 41.8781, updated.DestinationLat)
	assert.Equal(t, -87.6298, updated.DestinationLng)
}

func TestUpdateKeepsOldCoordinatesWhenGeocoderFails(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "alice@example.com")
	geocoder := &stubGeocoder{err: errors.New("provider down")}
	svc := NewService(db, geocoder)

	p, err := svc.Create(owner.ID, sampleInput())
	require.NoError(t, err)

	newAddress := "233 S Wacker Dr, Chicago, IL"
	updated, err := svc.Update(owner.ID, p.ID, UpdateInput{DestinationAddress: &newAddress})
	require.NoError(t, err)

	// New address string, old coordinates: the edit goes through.
	assert.Equal(t, newAddress, updated.DestinationAddress)
	assert.Equal(t, 40.6782, updated.DestinationLat)
	assert.Equal(t, -73.9442, updated.DestinationLng)
}

func TestUpdateSkipsGeocodingForUnchangedAddress(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "alice@example.com")
	geocoder := &stubGeocoder{coords: &geocoding.Coordinates{Lat: 1, Lng: 1}}
	svc := NewService(db, geocoder)

	p, err := svc.Create(owner.ID, sampleInput())
	require.NoError(t, err)

	same := p.DestinationAddress
	updated, err := svc.Update(owner.ID, p.ID, UpdateInput{DestinationAddress: &same})
	require.NoError(t, err)

	assert.Zero(t, geocoder.calls)
	assert.Equal(t, 40.6782, updated.DestinationLat)
}

func TestCancel(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "alice@example.com")
	svc := NewService(db, nil)

	p, err := svc.Create(owner.ID, sampleInput())
	require.NoError(t, err)

	cancelled, err := svc.Cancel(owner.ID, p.ID)
	require.NoError(t, err)

	assert.Equal(t, parcelModel.StatusCancelled, cancelled.Status)
	require.Len(t, cancelled.Timeline, 2)
	assert.Equal(t, parcelModel.StatusCancelled, cancelled.Timeline[1].Status)
	assert.Equal(t, "Parcel cancelled by user", cancelled.Timeline[1].LocationDescription)

	// Cancelled is terminal.
	_, err = svc.Cancel(owner.ID, p.ID)
	assert.ErrorIs(t, err, ErrNotPending)
}

func TestOwnershipFoldsIntoNotFound(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "alice@example.com")
	stranger := seedUser(t, db, "eve@example.com")
	svc := NewService(db, nil)

	p, err := svc.Create(owner.ID, sampleInput())
	require.NoError(t, err)

	_, err = svc.GetByID(stranger.ID, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	name := "Eve"
	_, err = svc.Update(stranger.ID, p.ID, UpdateInput{SenderName: &name})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Cancel(stranger.ID, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetByTrackingNumber(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "alice@example.com")
	svc := NewService(db, nil)

	p, err := svc.Create(owner.ID, sampleInput())
	require.NoError(t, err)

	found, err := svc.GetByTrackingNumber(p.TrackingNumber)
	require.NoError(t, err)
	assert.Equal(t, p.ID, found.ID)
	assert.Len(t, found.Timeline, 1)

	_, err = svc.GetByTrackingNumber("DELFFFFFFFF")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListByUserAndListAll(t *testing.T) {
	db := newTestDB(t)
	alice := seedUser(t, db, "alice@example.com")
	bob := seedUser(t, db, "bob@example.com")
	svc := NewService(db, nil)

	for i := 0; i < 3; i++ {
		_, err := svc.Create(alice.ID, sampleInput())
		require.NoError(t, err)
	}
	p, err := svc.Create(bob.ID, sampleInput())
	require.NoError(t, err)
	_, _, err = svc.UpdateStatus(p.ID, parcelModel.StatusDelivered, "")
	require.NoError(t, err)

	mine, err := svc.ListByUser(alice.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	all, total, err := svc.ListAll(ListFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.EqualValues(t, 4, total)

	delivered, total, err := svc.ListAll(ListFilter{Status: "delivered", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, delivered, 1)
	assert.EqualValues(t, 1, total)
}

func TestGetAnalytics(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "alice@example.com")
	svc := NewService(db, nil)

	p1, err := svc.Create(owner.ID, sampleInput())
	require.NoError(t, err)
	_, err = svc.Create(owner.ID, sampleInput())
	require.NoError(t, err)
	_, _, err = svc.UpdateStatus(p1.ID, parcelModel.StatusDelivered, "")
	require.NoError(t, err)

	stats, err := svc.GetAnalytics()
	require.NoError(t, err)

	assert.EqualValues(t, 2, stats.Total)
	assert.EqualValues(t, 1, stats.ByStatus["pending"])
	assert.EqualValues(t, 1, stats.ByStatus["delivered"])
	assert.EqualValues(t, 0, stats.ByStatus["in_transit"])
	assert.EqualValues(t, 1, stats.Delivered)
}

func TestOwner(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "alice@example.com")
	svc := NewService(db, nil)

	p, err := svc.Create(owner.ID, sampleInput())
	require.NoError(t, err)

	resolved, err := svc.Owner(p)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", resolved.Email)
}

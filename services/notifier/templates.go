package notifier

import (
	"fmt"
	"strings"
)

var statusMessages = map[string]string{
	"pending":    "Your parcel is pending pickup",
	"picked_up":  "Your parcel has been picked up",
	"in_transit": "Your parcel is on its way",
	"delivered":  "Your parcel has been delivered",
	"cancelled":  "Your parcel has been cancelled",
}

func welcomeEmailBody(name string) string {
	return fmt.Sprintf(`
	<h2>Welcome to Deliveroo, %s!</h2>
	<p>Thank you for joining our parcel delivery service.</p>
	<p>You can now create and track your parcels through our platform.</p>
	<p>Best regards,<br>The Deliveroo Team</p>
	`, name)
}

func statusUpdateEmailBody(trackingNumber, oldStatus, newStatus string) string {
	detail, ok := statusMessages[newStatus]
	if !ok {
		detail = "Status updated"
	}
	return fmt.Sprintf(`
	<h2>Parcel Status Update</h2>
	<p>Your parcel <strong>%s</strong> status has been updated.</p>
	<p>Previous status: <strong>%s</strong></p>
	<p>Current status: <strong>%s</strong></p>
	<p>%s</p>
	<p>Best regards,<br>The Deliveroo Team</p>
	`, trackingNumber, humanize(oldStatus), humanize(newStatus), detail)
}

func humanize(status string) string {
	return strings.ReplaceAll(status, "_", " ")
}

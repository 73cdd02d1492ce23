package notifier

import (
	"fmt"
	"net/smtp"
	"os"

	"deliveroo-backend/logger"
)

// Message is one outbound email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Sender delivers a message over some transport. Tests substitute a fake.
type Sender interface {
	Send(msg Message) error
}

// SMTPSender delivers mail through the configured SMTP relay.
type SMTPSender struct{}

func (SMTPSender) Send(msg Message) error {
	host := os.Getenv("MAIL_SERVER")
	port := os.Getenv("MAIL_PORT")
	username := os.Getenv("MAIL_USERNAME")
	password := os.Getenv("MAIL_PASSWORD")
	if host == "" || username == "" {
		return fmt.Errorf("mail transport is not configured")
	}
	if port == "" {
		port = "587"
	}

	body := "From: " + username + "\r\n" +
		"To: " + msg.To + "\r\n" +
		"Subject: " + msg.Subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n" +
		"\r\n" + msg.HTMLBody

	auth := smtp.PlainAuth("", username, password, host)
	return smtp.SendMail(host+":"+port, auth, username, []string{msg.To}, []byte(body))
}

// Notifier dispatches email off the request path: messages go onto a
// buffered channel drained by a worker goroutine. Delivery is at-most-once;
// a full queue drops the message and a failed send is logged and swallowed,
// never surfaced to the caller.
type Notifier struct {
	sender Sender
	queue  chan Message
}

func New(sender Sender) *Notifier {
	return &Notifier{
		sender: sender,
		queue:  make(chan Message, 100),
	}
}

// Process drains the queue. Run it on its own goroutine.
func (n *Notifier) Process() {
	for msg := range n.queue {
		if err := n.sender.Send(msg); err != nil {
			logger.Error("Failed to send email to "+msg.To, err)
		}
	}
}

// Close stops the worker after the queue drains.
func (n *Notifier) Close() {
	close(n.queue)
}

func (n *Notifier) enqueue(msg Message) {
	select {
	case n.queue <- msg:
	default:
		logger.Warning("Notification queue full, dropping email to " + msg.To)
	}
}

// SendWelcome queues the registration welcome email.
func (n *Notifier) SendWelcome(email, name string) {
	n.enqueue(Message{
		To:       email,
		Subject:  "Welcome to Deliveroo!",
		HTMLBody: welcomeEmailBody(name),
	})
}

// SendStatusUpdate queues the status-change email for a parcel owner.
func (n *Notifier) SendStatusUpdate(email, trackingNumber, oldStatus, newStatus string) {
	n.enqueue(Message{
		To:       email,
		Subject:  "Parcel Update - " + trackingNumber,
		HTMLBody: statusUpdateEmailBody(trackingNumber, oldStatus, newStatus),
	})
}

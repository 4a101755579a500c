package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/providers"
	"github.com/zatekoja/servicehub/internal/infrastructure/observability"
)

const (
	bookingConfirmationSubject = "Service Booking Confirmation"
	bookingStatusSubject       = "Your booking status has changed"
	defaultNotificationTimeout = 15 * time.Second
)

var bookingConfirmationTemplate = template.Must(template.New("booking_confirmation").Parse(`<h1>Booking Confirmation</h1>
<p>Hi {{.UserName}},</p>
<p>Your booking has been received. Here are the details:</p>
<ul>
  <li><strong>Service:</strong> {{.ServiceName}}</li>
  <li><strong>Provider:</strong> {{.ProviderName}}</li>
  <li><strong>Date:</strong> {{.Date}}</li>
  <li><strong>Time:</strong> {{.Time}}</li>
  <li><strong>Price:</strong> ${{printf "%.2f" .Price}}</li>
</ul>
<p>Thank you for using ServiceHub.</p>
`))

var bookingStatusTemplate = template.Must(template.New("booking_status").Parse(`<h1>Booking Update</h1>
<p>Hi {{.UserName}},</p>
<p>Your booking for <strong>{{.ServiceName}}</strong> with {{.ProviderName}} on {{.Date}} at {{.Time}} is now <strong>{{.Status}}</strong>.</p>
`))

type bookingStatusDetails struct {
	entities.BookingConfirmationDetails
	Status entities.BookingStatus
}

// NotificationService renders and sends transactional email in the background.
// Each send gets its own timeout and never reports back to the request that
// triggered it.
type NotificationService struct {
	sender  providers.EmailSender
	metrics *observability.Metrics
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewNotificationService creates a notification service. A nil sender
// disables email; notifications are then skipped.
func NewNotificationService(sender providers.EmailSender, metrics *observability.Metrics) *NotificationService {
	return &NotificationService{
		sender:  sender,
		metrics: metrics,
		timeout: defaultNotificationTimeout,
	}
}

// RenderBookingConfirmation builds the confirmation email for a booking
func RenderBookingConfirmation(to string, details entities.BookingConfirmationDetails) (entities.EmailMessage, error) {
	var body bytes.Buffer
	if err := bookingConfirmationTemplate.Execute(&body, details); err != nil {
		return entities.EmailMessage{}, fmt.Errorf("render booking confirmation: %w", err)
	}
	return entities.EmailMessage{To: to, Subject: bookingConfirmationSubject, HTMLBody: body.String()}, nil
}

// RenderBookingStatus builds the status change email for a booking
func RenderBookingStatus(to string, details entities.BookingConfirmationDetails, status entities.BookingStatus) (entities.EmailMessage, error) {
	var body bytes.Buffer
	if err := bookingStatusTemplate.Execute(&body, bookingStatusDetails{details, status}); err != nil {
		return entities.EmailMessage{}, fmt.Errorf("render booking status: %w", err)
	}
	return entities.EmailMessage{To: to, Subject: bookingStatusSubject, HTMLBody: body.String()}, nil
}

// SendBookingConfirmation queues a booking confirmation to the user
func (n *NotificationService) SendBookingConfirmation(ctx context.Context, to string, details entities.BookingConfirmationDetails) {
	msg, err := RenderBookingConfirmation(to, details)
	n.dispatch(ctx, entities.NotificationBookingConfirmation, msg, err)
}

// SendBookingStatus queues a status change notice to the user
func (n *NotificationService) SendBookingStatus(ctx context.Context, to string, details entities.BookingConfirmationDetails, status entities.BookingStatus) {
	msg, err := RenderBookingStatus(to, details, status)
	n.dispatch(ctx, entities.NotificationBookingStatus, msg, err)
}

func (n *NotificationService) dispatch(ctx context.Context, kind entities.NotificationType, msg entities.EmailMessage, renderErr error) {
	if n == nil || n.sender == nil {
		return
	}

	logger := observability.LoggerFromContext(ctx).With().Str("notification", string(kind)).Logger()
	if renderErr != nil {
		logger.Error().Err(renderErr).Msg("failed to render notification")
		return
	}
	if msg.To == "" {
		return
	}

	// The request may finish before the mail server answers.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer cancel()

		if err := n.sender.Send(sendCtx, msg); err != nil {
			if n.metrics != nil {
				observability.IncCounter(sendCtx, n.metrics.EmailFailures, attribute.String("notification", string(kind)))
			}
			logger.Error().Err(err).Str("to", msg.To).Msg("failed to send notification")
			return
		}
		logger.Debug().Str("to", msg.To).Msg("notification sent")
	}()
}

// Wait blocks until queued notifications have finished
func (n *NotificationService) Wait() {
	n.wg.Wait()
}

package entities

// NotificationType represents the notification purpose
type NotificationType string

const (
	NotificationBookingConfirmation NotificationType = "booking_confirmation"
	NotificationBookingStatus       NotificationType = "booking_status"
)

// EmailMessage is a rendered transactional email
type EmailMessage struct {
	To       string
	Subject  string
	HTMLBody string
}

// BookingConfirmationDetails is the data rendered into a booking confirmation
type BookingConfirmationDetails struct {
	UserName     string
	ServiceName  string
	ProviderName string
	Date         string
	Time         string
	Price        float64
}

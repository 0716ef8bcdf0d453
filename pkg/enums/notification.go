package enums

import "fmt"

// NotificationType is carried in the push data payload under "type" so
// clients can route the tap.
type NotificationType string

const (
	NotificationTypeGeneral                    NotificationType = "notification"
	NotificationTypeAppointmentReminder        NotificationType = "appointment-reminder"
	NotificationTypePartnerAppointmentReminder NotificationType = "partner-appointment-reminder"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeGeneral,
	NotificationTypeAppointmentReminder,
	NotificationTypePartnerAppointmentReminder,
}

func (n NotificationType) String() string {
	return string(n)
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

package enums

import "fmt"

// AppointmentStatus maps to the status column on appointments.
type AppointmentStatus string

const (
	AppointmentStatusPending     AppointmentStatus = "pending"
	AppointmentStatusConfirmed   AppointmentStatus = "confirmed"
	AppointmentStatusDeclined    AppointmentStatus = "declined"
	AppointmentStatusCancelled   AppointmentStatus = "cancelled"
	AppointmentStatusCompleted   AppointmentStatus = "completed"
	AppointmentStatusRescheduled AppointmentStatus = "rescheduled"
)

var validAppointmentStatuses = []AppointmentStatus{
	AppointmentStatusPending,
	AppointmentStatusConfirmed,
	AppointmentStatusDeclined,
	AppointmentStatusCancelled,
	AppointmentStatusCompleted,
	AppointmentStatusRescheduled,
}

// IsValid checks whether the given status matches the canonical enum.
func (s AppointmentStatus) IsValid() bool {
	for _, candidate := range validAppointmentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseAppointmentStatus converts raw strings into AppointmentStatus.
func ParseAppointmentStatus(value string) (AppointmentStatus, error) {
	for _, candidate := range validAppointmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid appointment status %q", value)
}

// CanCancel reports whether a cancel transition is allowed from s.
func (s AppointmentStatus) CanCancel() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusRescheduled:
		return true
	}
	return false
}

// CanConfirm reports whether a confirm transition is allowed from s.
func (s AppointmentStatus) CanConfirm() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusRescheduled:
		return true
	}
	return false
}

// CanComplete reports whether a complete transition is allowed from s.
func (s AppointmentStatus) CanComplete() bool {
	return s == AppointmentStatusConfirmed
}

package enums

import "fmt"

// PairingStatus maps to the pairing_status enum in Postgres.
type PairingStatus string

const (
	PairingStatusPending  PairingStatus = "pending"
	PairingStatusAccepted PairingStatus = "accepted"
	PairingStatusRejected PairingStatus = "rejected"
)

var validPairingStatuses = []PairingStatus{
	PairingStatusPending,
	PairingStatusAccepted,
	PairingStatusRejected,
}

func (s PairingStatus) String() string {
	return string(s)
}

// IsValid checks whether the given status matches the canonical enum.
func (s PairingStatus) IsValid() bool {
	for _, candidate := range validPairingStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParsePairingStatus converts raw strings into PairingStatus.
func ParsePairingStatus(value string) (PairingStatus, error) {
	for _, candidate := range validPairingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pairing status %q", value)
}

package enums

import "fmt"

// SyncStatus marks how a local row relates to its remote counterpart.
type SyncStatus string

const (
	SyncStatusSynced    SyncStatus = "synced"
	SyncStatusNeedsPush SyncStatus = "needs_push"
	SyncStatusNeedsPull SyncStatus = "needs_pull"
	SyncStatusError     SyncStatus = "error"
)

var validSyncStatuses = []SyncStatus{
	SyncStatusSynced,
	SyncStatusNeedsPush,
	SyncStatusNeedsPull,
	SyncStatusError,
}

// IsValid checks whether the given status matches the canonical enum.
func (s SyncStatus) IsValid() bool {
	for _, candidate := range validSyncStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSyncStatus converts raw strings into SyncStatus.
func ParseSyncStatus(value string) (SyncStatus, error) {
	for _, candidate := range validSyncStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sync status %q", value)
}

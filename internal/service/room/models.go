package room

import "time"

type RoomInfo struct {
	ID             string
	Name           string
	OwnerSessionID string
	OwnerUserID    string
	State          string
	CurrentItemID  int64
	PositionTicks  int64
	Members        []string
	MemberCount    int
	CreatedAt      time.Time
}

type SyncStatus struct {
	InRoom bool
	Room   *RoomInfo
}

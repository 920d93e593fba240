package controller

import (
	"fmt"
	"time"

	"github.com/syncwatch/server/internal/service/room"
)

type roomResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	MemberCount   int       `json:"member_count"`
	State         string    `json:"state"`
	CurrentItemID int64     `json:"current_item_id"`
	PositionTicks int64     `json:"position_ticks"`
	JoinLink      string    `json:"join_link"`
	IsOwner       bool      `json:"is_owner"`
	Members       []string  `json:"members"`
	CreatedAt     time.Time `json:"created_at"`
}

type statusResponse struct {
	InRoom bool          `json:"in_room"`
	Room   *roomResponse `json:"room,omitempty"`
}

func (c *controller) mapRoomResponse(info room.RoomInfo, sessionID string) roomResponse {
	return roomResponse{
		ID:            info.ID,
		Name:          info.Name,
		MemberCount:   info.MemberCount,
		State:         info.State,
		CurrentItemID: info.CurrentItemID,
		PositionTicks: info.PositionTicks,
		JoinLink:      c.joinLink(info.ID),
		IsOwner:       info.OwnerSessionID == sessionID,
		Members:       info.Members,
		CreatedAt:     info.CreatedAt,
	}
}

// joinLink uses a query-style hash so the web client's router does not
// interpret it as a route.
func (c *controller) joinLink(roomID string) string {
	return fmt.Sprintf("%s/web/#syncwatch-join=%s", c.cfg.PublicURL, roomID)
}

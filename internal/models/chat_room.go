package models

import "time"

// ChatRoom ties one buyer, one seller and one vehicle listing together.
type ChatRoom struct {
	ID        string    `db:"id" json:"id" firestore:"id"`
	VehicleID string    `db:"vehicle_id" json:"vehicleId" firestore:"vehicleId"`
	BuyerID   string    `db:"buyer_id" json:"buyerId" firestore:"buyerId"`
	SellerID  string    `db:"seller_id" json:"sellerId" firestore:"sellerId"`
	IsActive  bool      `db:"is_active" json:"isActive" firestore:"isActive"`
	CreatedAt time.Time `db:"created_at" json:"createdAt" firestore:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt" firestore:"updatedAt"`
}

// HasParticipant reports whether userID is the buyer or the seller of the room.
func (r ChatRoom) HasParticipant(userID string) bool {
	return userID != "" && (r.BuyerID == userID || r.SellerID == userID)
}

// ParticipantIDs returns the distinct participant ids, buyer first.
func (r ChatRoom) ParticipantIDs() []string {
	if r.BuyerID == r.SellerID {
		return []string{r.BuyerID}
	}
	return []string{r.BuyerID, r.SellerID}
}

// ChatRoomDetails is a room with its vehicle, participants and ordered history.
type ChatRoomDetails struct {
	ChatRoom
	Vehicle  *VehicleSummary `json:"vehicle,omitempty"`
	Buyer    UserSummary     `json:"buyer"`
	Seller   UserSummary     `json:"seller"`
	Messages []MessageView   `json:"messages"`
}

// ChatStats is the admin view of the chat store.
type ChatStats struct {
	Rooms           int64 `db:"rooms" json:"rooms"`
	ActiveRooms     int64 `db:"active_rooms" json:"activeRooms"`
	Messages        int64 `db:"messages" json:"messages"`
	LiveConnections int   `db:"-" json:"liveConnections"`
}

// ClearResult reports what an admin bulk clear removed.
type ClearResult struct {
	Rooms    int64 `json:"rooms"`
	Messages int64 `json:"messages"`
}

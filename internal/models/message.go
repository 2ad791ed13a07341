package models

import "time"

// MessageTypeText is the default message type.
const MessageTypeText = "text"

// Message is a single append-only chat message.
type Message struct {
	ID          string    `db:"id" json:"id" firestore:"id"`
	ChatRoomID  string    `db:"chat_room_id" json:"chatRoomId" firestore:"chatRoomId"`
	SenderID    string    `db:"sender_id" json:"senderId" firestore:"senderId"`
	Content     string    `db:"content" json:"content" firestore:"content"`
	MessageType string    `db:"message_type" json:"messageType" firestore:"messageType"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt" firestore:"createdAt"`
	Seq         int64     `db:"seq" json:"-" firestore:"seq"`
}

// MessageView is a message enriched with its sender's display attributes.
type MessageView struct {
	Message
	Sender UserSummary `json:"sender"`
}

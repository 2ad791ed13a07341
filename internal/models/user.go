package models

// User is the marketplace identity, read-only for the chat core.
type User struct {
	ID        string `db:"id" json:"id" firestore:"id"`
	FirstName string `db:"first_name" json:"firstName" firestore:"firstName"`
	LastName  string `db:"last_name" json:"lastName" firestore:"lastName"`
	AvatarURL string `db:"avatar_url" json:"avatarUrl,omitempty" firestore:"avatarUrl"`
	Role      string `db:"role" json:"role" firestore:"role"`
}

// UserSummary carries the display attributes used for enrichment.
type UserSummary struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// Summary returns the display attributes of u.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, AvatarURL: u.AvatarURL}
}

package models

// Vehicle is a marketplace listing, read-only for the chat core.
type Vehicle struct {
	ID       string `db:"id" json:"id" firestore:"id"`
	SellerID string `db:"seller_id" json:"sellerId" firestore:"sellerId"`
	Brand    string `db:"brand" json:"brand" firestore:"brand"`
	Model    string `db:"model" json:"model" firestore:"model"`
	Year     int    `db:"year" json:"year" firestore:"year"`
	Price    int64  `db:"price" json:"price" firestore:"price"`
	ImageURL string `db:"image_url" json:"imageUrl,omitempty" firestore:"imageUrl"`
}

// VehicleSummary is the listing info embedded in room details.
type VehicleSummary struct {
	ID       string `json:"id"`
	Brand    string `json:"brand"`
	Model    string `json:"model"`
	Year     int    `json:"year"`
	Price    int64  `json:"price"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Summary returns the listing info embedded in room details.
func (v Vehicle) Summary() *VehicleSummary {
	return &VehicleSummary{ID: v.ID, Brand: v.Brand, Model: v.Model, Year: v.Year, Price: v.Price, ImageURL: v.ImageURL}
}

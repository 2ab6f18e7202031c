package model

// Course rows are owned by the catalog service; this service only reads
// id, price and the active flag.
type Course struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	Title      string  `json:"title"`
	Instructor string  `json:"instructor"`
	Price      float64 `json:"price"` // USD
	IsActive   bool    `json:"is_active"`
}

// CartItem is supplied by the caller at checkout time; never persisted.
type CartItem struct {
	CourseID     uint    `json:"course_id"`
	UnitPriceUSD float64 `json:"unit_price_usd"`
	Title        string  `json:"title"`
	Instructor   string  `json:"instructor"`
}

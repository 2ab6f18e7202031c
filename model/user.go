package model

// Profile rows are owned by the user service; country feeds the
// manual-wallet eligibility check.
type Profile struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	UserID  uint   `gorm:"uniqueIndex" json:"user_id"`
	Name    string `json:"name"`
	Country string `json:"country"`
}

package attendance

import "time"

// Log is one heartbeat: a user was seen with a given role.
type Log struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"index;not null" json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (Log) TableName() string { return "journal.attendance_logs" }

// DayCount is the number of distinct users seen on Date (UTC, YYYY-MM-DD).
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

package homework

import (
	"time"

	"github.com/lib/pq"
)

type Homework struct {
	ID          string         `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `json:"description"`
	Attachments pq.StringArray `gorm:"type:text[]" json:"attachments"`
	CreatedBy   string         `gorm:"index" json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (Homework) TableName() string { return "classroom.homework" }

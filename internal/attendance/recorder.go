package attendance

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/StudyCore/studycore/internal/session"
	"github.com/StudyCore/studycore/internal/utils"
)

// Recorder writes heartbeats to journal.attendance_logs.
type Recorder struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRecorder(d *gorm.DB) *Recorder {
	return &Recorder{db: d, now: time.Now}
}

func (r *Recorder) Heartbeat(ctx context.Context, hb session.Heartbeat) error {
	entry := Log{
		ID:        utils.GenerateUUID(),
		UserID:    hb.UserID,
		Username:  hb.Username,
		Role:      hb.Role,
		CreatedAt: r.now(),
	}
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("recording attendance: %w", err)
	}
	return nil
}

// DailyCounts returns distinct users per UTC day for rows at or after since.
func (r *Recorder) DailyCounts(ctx context.Context, since time.Time) (map[string]int, error) {
	var rows []struct {
		Day   string
		Count int
	}
	err := r.db.WithContext(ctx).
		Model(&Log{}).
		Select("to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, COUNT(DISTINCT user_id) AS count").
		Where("created_at >= ?", since).
		Group("day").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("counting attendance: %w", err)
	}

	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.Day] = row.Count
	}
	return out, nil
}

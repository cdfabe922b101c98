package catalog

import (
	"context"
	"time"
)

// CustomTaskRun records one completed invocation of a Custom Task RPC script
// against a media row, keyed by (media, task name); "latest" is the greatest
// id for that pair. Grounded on the original implementation's
// custom_task_media table, which exists for the same reason: a compiled task
// registry has no static place to stash a custom task's outdated check, so
// the version actually applied has to live in its own row.
type CustomTaskRun struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	MediaID   int64     `gorm:"index;not null" json:"media_id"`
	TaskName  string    `gorm:"index;not null" json:"task_name"`
	Version   int       `gorm:"not null" json:"version"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (CustomTaskRun) TableName() string { return "custom_task_runs" }

// RecordCustomTaskRun appends a run row after a script completes successfully.
func (c *Catalog) RecordCustomTaskRun(ctx context.Context, mediaID int64, taskName string, version int) error {
	return c.db.WithContext(ctx).Create(&CustomTaskRun{
		MediaID: mediaID, TaskName: taskName, Version: version, CreatedAt: time.Now(),
	}).Error
}

// LatestCustomTaskRunVersion returns the version of the most recent run row
// for (mediaID, taskName), or ok=false if no row exists.
func (c *Catalog) LatestCustomTaskRunVersion(ctx context.Context, mediaID int64, taskName string) (version int, ok bool, err error) {
	var row CustomTaskRun
	dbErr := c.db.WithContext(ctx).
		Where("media_id = ? AND task_name = ?", mediaID, taskName).
		Order("id desc").
		First(&row).Error
	if dbErr != nil {
		if wrapped := wrapNotFound(dbErr); wrapped == ErrNotFound {
			return 0, false, nil
		}
		return 0, false, dbErr
	}
	return row.Version, true, nil
}

// DeleteCustomTaskRuns removes every run row for (mediaID, taskName), used by
// RemoveData to reset a custom task's outdated check.
func (c *Catalog) DeleteCustomTaskRuns(ctx context.Context, mediaID int64, taskName string) error {
	return c.db.WithContext(ctx).Delete(&CustomTaskRun{}, "media_id = ? AND task_name = ?", mediaID, taskName).Error
}

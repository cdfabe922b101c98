package catalog

import (
	"context"
	"time"
)

// Queue is the per-task FIFO of media awaiting processing (§3, §4.5). At most one
// row per (media, task) by construction — enqueue is an upsert-like insert-or-ignore.
type Queue struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	MediaID   int64     `gorm:"uniqueIndex:idx_queue_media_task;not null" json:"media_id"`
	TaskName  string    `gorm:"uniqueIndex:idx_queue_media_task;not null;index" json:"task_name"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Queue) TableName() string { return "queue" }

// Enqueue inserts a (media, task) row if one does not already exist. A second
// enqueue of the same pair is a no-op, preserving "at most one row per (media,task)".
func (c *Catalog) Enqueue(ctx context.Context, mediaID int64, taskName string) error {
	return c.db.WithContext(ctx).Exec(
		`INSERT INTO queue (media_id, task_name, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (media_id, task_name) DO NOTHING`,
		mediaID, taskName, time.Now().UTC(),
	).Error
}

// NextInQueue returns the oldest row for a task, ordered strictly by created_at ASC
// with id as a tiebreak (§8), or ErrNotFound if the queue for that task is empty.
func (c *Catalog) NextInQueue(ctx context.Context, taskName string) (*Queue, error) {
	var q Queue
	err := c.db.WithContext(ctx).
		Where("task_name = ?", taskName).
		Order("created_at asc, id asc").
		First(&q).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &q, nil
}

// DeleteQueueRow removes a row by id. Per §4.5/§9 this happens BEFORE run_and_store,
// making the drain loop's execution contract at-most-once: a crash between delete and
// run requires re-enqueue by the next scan.
func (c *Catalog) DeleteQueueRow(ctx context.Context, id int64) error {
	return c.db.WithContext(ctx).Delete(&Queue{}, "id = ?", id).Error
}

// CountQueue returns the number of pending rows for a task.
func (c *Catalog) CountQueue(ctx context.Context, taskName string) (int64, error) {
	var n int64
	err := c.db.WithContext(ctx).Model(&Queue{}).Where("task_name = ?", taskName).Count(&n).Error
	return n, err
}

// DeleteQueueForMedia removes any pending queue rows for a media id. DeleteMedia
// does not call it; it deletes the media's queue rows itself.
func (c *Catalog) DeleteQueueForMedia(ctx context.Context, mediaID int64) error {
	return c.db.WithContext(ctx).Delete(&Queue{}, "media_id = ?", mediaID).Error
}

package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle of a remote task execution record (§3).
type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobSuccess   JobStatus = "success"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// Job is a remote-task execution record (§3, §4.6).
type Job struct {
	UUID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"uuid"`
	MediaUUID            uuid.UUID `gorm:"type:uuid;not null;index" json:"media_uuid"`
	TaskName              string    `gorm:"not null;index" json:"task_name"`
	Status                 JobStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	EstimatedCompletion *time.Time `json:"estimated_completion,omitempty"`
	SuccessData           string    `json:"success_data,omitempty"`
	FailureData           string    `json:"failure_data,omitempty"`
	CreatedAt              time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt              time.Time `gorm:"not null" json:"updated_at"`
}

func (Job) TableName() string { return "jobs" }

func (c *Catalog) CreateJob(ctx context.Context, j *Job) error {
	if j.UUID == uuid.Nil {
		j.UUID = uuid.New()
	}
	now := time.Now().UTC()
	j.CreatedAt, j.UpdatedAt = now, now
	if j.Status == "" {
		j.Status = JobRunning
	}
	return c.db.WithContext(ctx).Create(j).Error
}

func (c *Catalog) JobFromUUID(ctx context.Context, id uuid.UUID) (*Job, error) {
	var j Job
	if err := c.db.WithContext(ctx).First(&j, "uuid = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &j, nil
}

func (c *Catalog) UpdateJob(ctx context.Context, j *Job) error {
	j.UpdatedAt = time.Now().UTC()
	return c.db.WithContext(ctx).Model(&Job{}).Where("uuid = ?", j.UUID).Updates(j).Error
}

// CancelAllRunning transitions every running Job to cancelled with the given reason.
// Called at process start and on shutdown/reload of the remote runner (§4.6).
func (c *Catalog) CancelAllRunning(ctx context.Context, reason string) (int64, error) {
	res := c.db.WithContext(ctx).Model(&Job{}).
		Where("status = ?", JobRunning).
		Updates(map[string]interface{}{
			"status":       JobCancelled,
			"failure_data": reason,
			"updated_at":   time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

package catalog

import "context"

// Tag is a named label that can be attached to media, either by a user or by a
// background task (MediaTag.TaskName records provenance).
type Tag struct {
	ID   int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

func (Tag) TableName() string { return "tags" }

// MediaTag is (media, tag, optional task-name origin); set-unique over (media, tag).
type MediaTag struct {
	MediaID  int64   `gorm:"primaryKey" json:"media_id"`
	TagID    int64   `gorm:"primaryKey" json:"tag_id"`
	TaskName *string `json:"task_name,omitempty"`
}

func (MediaTag) TableName() string { return "media_tags" }

func (c *Catalog) TagFromName(ctx context.Context, name string) (*Tag, error) {
	var t Tag
	if err := c.db.WithContext(ctx).First(&t, "name = ?", name).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &t, nil
}

// EnsureTag returns the tag row for name, creating it if necessary.
func (c *Catalog) EnsureTag(ctx context.Context, name string) (*Tag, error) {
	var t Tag
	err := c.db.WithContext(ctx).
		Clauses(onConflictDoNothingName()).
		FirstOrCreate(&t, Tag{Name: name}).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Catalog) DeleteTag(ctx context.Context, name string) error {
	return c.WithTx(ctx, func(tx *Catalog) error {
		t, err := tx.TagFromName(ctx, name)
		if err != nil {
			return err
		}
		if err := tx.db.Where("tag_id = ?", t.ID).Delete(&MediaTag{}).Error; err != nil {
			return err
		}
		return tx.db.Delete(&Tag{}, "id = ?", t.ID).Error
	})
}

// AddTagToMedia is set-unique over (media, tag); re-adding updates the origin.
func (c *Catalog) AddTagToMedia(ctx context.Context, mediaID, tagID int64, taskName *string) error {
	return c.db.WithContext(ctx).Exec(
		`INSERT INTO media_tags (media_id, tag_id, task_name) VALUES (?, ?, ?)
		 ON CONFLICT (media_id, tag_id) DO UPDATE SET task_name = EXCLUDED.task_name`,
		mediaID, tagID, taskName,
	).Error
}

func (c *Catalog) RemoveTagFromMedia(ctx context.Context, mediaID, tagID int64) error {
	return c.db.WithContext(ctx).Delete(&MediaTag{}, "media_id = ? AND tag_id = ?", mediaID, tagID).Error
}

func (c *Catalog) MediaHasTag(ctx context.Context, mediaID, tagID int64) (bool, error) {
	var n int64
	err := c.db.WithContext(ctx).Model(&MediaTag{}).Where("media_id = ? AND tag_id = ?", mediaID, tagID).Count(&n).Error
	return n > 0, err
}

// RemoveTagsAddedByTask deletes every media_tags row on mediaID whose
// task_name matches taskName, used to undo a custom task's tagging when its
// data is removed (RemoveData never touches tags a user or another task added).
func (c *Catalog) RemoveTagsAddedByTask(ctx context.Context, mediaID int64, taskName string) error {
	return c.db.WithContext(ctx).Delete(&MediaTag{}, "media_id = ? AND task_name = ?", mediaID, taskName).Error
}

func (c *Catalog) ListTags(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	err := c.db.WithContext(ctx).Order("name asc").Find(&tags).Error
	return tags, err
}

// TagsForMedia returns every tag attached to mediaID, for the full-entity HTTP
// response (§6's "GET /media/{uuid} plus tags, extra, customs").
func (c *Catalog) TagsForMedia(ctx context.Context, mediaID int64) ([]Tag, error) {
	var tags []Tag
	err := c.db.WithContext(ctx).
		Joins("JOIN media_tags ON media_tags.tag_id = tags.id").
		Where("media_tags.media_id = ?", mediaID).
		Order("tags.name asc").
		Find(&tags).Error
	return tags, err
}

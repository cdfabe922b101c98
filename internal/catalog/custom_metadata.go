package catalog

import "context"

// CustomMetadata is a multi-valued (media, key, value) row; "latest" means the row
// with the greatest id for a given key (§3). IncludeSearch opts a row into FullSearch.
type CustomMetadata struct {
	ID            int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	MediaID       int64  `gorm:"index;not null" json:"media_id"`
	Key           string `gorm:"index;not null" json:"key"`
	Value         string `json:"value"`
	Version       int    `gorm:"not null;default:0" json:"version"`
	IncludeSearch bool   `gorm:"not null;default:false" json:"include_search"`
}

func (CustomMetadata) TableName() string { return "custom_metadata" }

func (c *Catalog) AddCustomMetadata(ctx context.Context, m *CustomMetadata) error {
	return c.db.WithContext(ctx).Create(m).Error
}

// LatestCustomMetadata returns, for each distinct key on a media, the row with the
// greatest id.
func (c *Catalog) LatestCustomMetadata(ctx context.Context, mediaID int64) ([]CustomMetadata, error) {
	var rows []CustomMetadata
	err := c.db.WithContext(ctx).Raw(`
		SELECT cm.* FROM custom_metadata cm
		INNER JOIN (
			SELECT key, MAX(id) AS max_id FROM custom_metadata WHERE media_id = ? GROUP BY key
		) latest ON cm.key = latest.key AND cm.id = latest.max_id
		WHERE cm.media_id = ?
	`, mediaID, mediaID).Scan(&rows).Error
	return rows, err
}

func (c *Catalog) CustomMetadataByKey(ctx context.Context, mediaID int64, key string) (*CustomMetadata, error) {
	var row CustomMetadata
	err := c.db.WithContext(ctx).
		Where("media_id = ? AND key = ?", mediaID, key).
		Order("id desc").
		First(&row).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &row, nil
}

func (c *Catalog) DeleteCustomMetadata(ctx context.Context, mediaID int64, key string) error {
	return c.db.WithContext(ctx).Delete(&CustomMetadata{}, "media_id = ? AND key = ?", mediaID, key).Error
}

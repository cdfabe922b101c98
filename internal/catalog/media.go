package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MediaClass is the coarse classification stored on every Media row (§3).
type MediaClass string

const (
	ClassPhoto MediaClass = "photo"
	ClassVideo MediaClass = "video"
	ClassAudio MediaClass = "audio"
	ClassPDF   MediaClass = "pdf"
	ClassOther MediaClass = "other"
)

// Media is the catalog entry for one file at a canonical absolute path (§3).
type Media struct {
	ID       int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID     uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	Path     string    `gorm:"uniqueIndex;not null" json:"path"`
	Size     int64     `gorm:"not null" json:"size"`
	FSCreatedAt time.Time `gorm:"not null" json:"fs_created_at"`
	ContentHash string  `gorm:"index;not null" json:"content_hash"`

	Name       string     `gorm:"not null" json:"name"`
	Width      int        `json:"width"`
	Height     int        `json:"height"`
	DurationMS *int64     `json:"duration_ms,omitempty"`
	Class      MediaClass `gorm:"type:varchar(16);not null;index" json:"class"`
	Format     string     `gorm:"type:varchar(32);not null;index" json:"format"`
	AuthoredAt time.Time  `gorm:"not null" json:"authored_at"`

	Longitude    *float64 `json:"longitude,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	IsScreenshot bool     `gorm:"not null;default:false" json:"is_screenshot"`

	Liked            bool      `gorm:"not null;default:false;index" json:"liked"`
	AddedAt          time.Time `gorm:"not null" json:"added_at"`
	HasThumbnail     bool      `gorm:"not null;default:false" json:"has_thumbnail"`
	MetadataVersion  int       `gorm:"not null;default:0" json:"metadata_version"`
	ThumbnailVersion int       `gorm:"not null;default:0" json:"thumbnail_version"`
	ImportID         int64     `gorm:"not null;index" json:"import_id"`

	Extra *MediaExtra `gorm:"foreignKey:MediaID" json:"extra,omitempty"`
	Tags  []MediaTag  `gorm:"foreignKey:MediaID" json:"tags,omitempty"`
}

func (Media) TableName() string { return "media" }

// mediaSafeColumns whitelists identifiers usable in dynamic ORDER BY clauses (§4.2).
var mediaSafeColumns = map[string]bool{
	"id": true, "uuid": true, "name": true, "created_at": true,
	"width": true, "height": true, "size": true, "path": true,
	"liked": true, "is_photo": true, "added_at": true, "duration": true,
}

// mediaColumnAliases maps the DSL-facing column names used by safe_column (which
// predate the Go rewrite's snake_case schema) onto the physical media columns.
var mediaColumnAliases = map[string]string{
	"created_at": "authored_at",
	"is_photo":   "class",
	"duration":   "duration_ms",
}

// SafeColumn whitelists a dynamic ORDER BY column name; every caller (Filter DSL
// included) must route through this before interpolating a column into SQL.
func SafeColumn(name string) (string, error) {
	if !mediaSafeColumns[name] {
		return "", fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	if alias, ok := mediaColumnAliases[name]; ok {
		return alias, nil
	}
	return name, nil
}

// ErrUnknownColumn is returned by SafeColumn for any identifier outside the whitelist.
var ErrUnknownColumn = fmt.Errorf("catalog: unknown column")

// Create inserts a Media row, assigning a uuid if the caller left it unset, and
// refreshes the struct in place with DB-assigned defaults.
func (c *Catalog) CreateMedia(ctx context.Context, m *Media) error {
	if m.UUID == uuid.Nil {
		m.UUID = uuid.New()
	}
	if m.AddedAt.IsZero() {
		m.AddedAt = time.Now().UTC()
	}
	return c.db.WithContext(ctx).Create(m).Error
}

func (c *Catalog) MediaFromID(ctx context.Context, id int64) (*Media, error) {
	var m Media
	err := c.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &m, nil
}

func (c *Catalog) MediaFromUUID(ctx context.Context, id uuid.UUID) (*Media, error) {
	var m Media
	err := c.db.WithContext(ctx).First(&m, "uuid = ?", id).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &m, nil
}

func (c *Catalog) MediaFromPath(ctx context.Context, path string) (*Media, error) {
	var m Media
	err := c.db.WithContext(ctx).First(&m, "path = ?", path).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &m, nil
}

// UpdateMediaByID performs a full-row update keyed by the primary id.
func (c *Catalog) UpdateMediaByID(ctx context.Context, m *Media) error {
	return c.db.WithContext(ctx).Model(&Media{}).Where("id = ?", m.ID).Updates(m).Error
}

// DeleteMedia cascades to MediaExtra, MediaTag, CustomMetadata, AlbumMedia and Queue
// rows (§4.2); deletion of on-disk derivatives is the scan pipeline's responsibility,
// not the catalog's, per the ownership split in §3.
func (c *Catalog) DeleteMedia(ctx context.Context, id int64) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("media_id = ?", id).Delete(&MediaExtra{}).Error; err != nil {
			return err
		}
		if err := tx.Where("media_id = ?", id).Delete(&MediaTag{}).Error; err != nil {
			return err
		}
		if err := tx.Where("media_id = ?", id).Delete(&CustomMetadata{}).Error; err != nil {
			return err
		}
		if err := tx.Where("media_id = ?", id).Delete(&AlbumMedia{}).Error; err != nil {
			return err
		}
		if err := tx.Where("media_id = ?", id).Delete(&Queue{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Media{}, "id = ?", id).Error
	})
}

// AllMedia returns every Media row, used by the post-scan metadata-outdatedness sweep
// and verify pass (§4.4).
func (c *Catalog) AllMedia(ctx context.Context) ([]Media, error) {
	var rows []Media
	err := c.db.WithContext(ctx).Order("id asc").Find(&rows).Error
	return rows, err
}

// CountByPathPrefix counts the Media rows whose path starts with prefix. The scan
// verify pass and the directory tree do not use it; both work from AllMedia.
func (c *Catalog) CountByPathPrefix(ctx context.Context, prefix string) (int64, error) {
	var n int64
	err := c.db.WithContext(ctx).Model(&Media{}).Where("path LIKE ?", prefix+"%").Count(&n).Error
	return n, err
}

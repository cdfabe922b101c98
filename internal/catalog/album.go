package catalog

import (
	"context"
	"time"
)

// Album is a named user collection (§3).
type Album struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Album) TableName() string { return "albums" }

// AlbumMedia is the many-to-many join between Album and Media with set semantics:
// inserting an existing pair is a no-op, never a duplicate row.
type AlbumMedia struct {
	AlbumID int64 `gorm:"primaryKey" json:"album_id"`
	MediaID int64 `gorm:"primaryKey" json:"media_id"`
}

func (AlbumMedia) TableName() string { return "album_media" }

func (c *Catalog) CreateAlbum(ctx context.Context, a *Album) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	return c.db.WithContext(ctx).Create(a).Error
}

func (c *Catalog) AlbumFromID(ctx context.Context, id int64) (*Album, error) {
	var a Album
	if err := c.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &a, nil
}

func (c *Catalog) AlbumFromName(ctx context.Context, name string) (*Album, error) {
	var a Album
	if err := c.db.WithContext(ctx).First(&a, "name = ?", name).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &a, nil
}

func (c *Catalog) DeleteAlbum(ctx context.Context, id int64) error {
	return c.WithTx(ctx, func(tx *Catalog) error {
		if err := tx.db.Where("album_id = ?", id).Delete(&AlbumMedia{}).Error; err != nil {
			return err
		}
		return tx.db.Delete(&Album{}, "id = ?", id).Error
	})
}

// AddMediaToAlbum is idempotent: re-adding a member is a no-op (set semantics).
func (c *Catalog) AddMediaToAlbum(ctx context.Context, albumID, mediaID int64) error {
	return c.db.WithContext(ctx).Exec(
		`INSERT INTO album_media (album_id, media_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		albumID, mediaID,
	).Error
}

func (c *Catalog) RemoveMediaFromAlbum(ctx context.Context, albumID, mediaID int64) error {
	return c.db.WithContext(ctx).Delete(&AlbumMedia{}, "album_id = ? AND media_id = ?", albumID, mediaID).Error
}

// ListAlbums returns every album, newest first.
func (c *Catalog) ListAlbums(ctx context.Context) ([]Album, error) {
	var albums []Album
	err := c.db.WithContext(ctx).Order("created_at desc").Find(&albums).Error
	return albums, err
}

// MediaInAlbum returns the full media rows belonging to albumID, for the
// album-detail HTTP response (§6).
func (c *Catalog) MediaInAlbum(ctx context.Context, albumID int64) ([]Media, error) {
	var media []Media
	err := c.db.WithContext(ctx).
		Joins("JOIN album_media ON album_media.media_id = media.id").
		Where("album_media.album_id = ?", albumID).
		Order("media.added_at desc").
		Find(&media).Error
	return media, err
}

// AlbumsForMedia returns every album a media row belongs to, for the CSV
// export column (§6).
func (c *Catalog) AlbumsForMedia(ctx context.Context, mediaID int64) ([]Album, error) {
	var albums []Album
	err := c.db.WithContext(ctx).
		Joins("JOIN album_media ON album_media.album_id = albums.id").
		Where("album_media.media_id = ?", mediaID).
		Order("albums.name").
		Find(&albums).Error
	return albums, err
}

package catalog

import (
	"context"
	"strconv"
)

// Kv is typed key/value storage for process state (§3): directory_tree,
// last_import_id, migration_version.
type Kv struct {
	Key   string `gorm:"primaryKey" json:"key"`
	Value string `json:"value"`
}

func (Kv) TableName() string { return "kv" }

const (
	KeyDirectoryTree   = "directory_tree"
	KeyLastImportID    = "last_import_id"
	KeyMigrationVersion = "migration_version"
)

// KvGet returns the raw string value for key, or "" with ErrNotFound if absent.
func (c *Catalog) KvGet(ctx context.Context, key string) (string, error) {
	var row Kv
	if err := c.db.WithContext(ctx).First(&row, "key = ?", key).Error; err != nil {
		return "", wrapNotFound(err)
	}
	return row.Value, nil
}

// KvSet upserts key to value.
func (c *Catalog) KvSet(ctx context.Context, key, value string) error {
	return c.db.WithContext(ctx).Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, value,
	).Error
}

// NextImportID increments and returns the monotonic scan-generation counter stamped
// on every Media row touched by a scan (§3, §4.4).
func (c *Catalog) NextImportID(ctx context.Context) (int64, error) {
	var next int64
	err := c.WithTx(ctx, func(tx *Catalog) error {
		cur, err := tx.KvGet(ctx, KeyLastImportID)
		var n int64
		if err == nil {
			if parsed, parseErr := strconv.ParseInt(cur, 10, 64); parseErr == nil {
				n = parsed
			}
		}
		n++
		next = n
		return tx.KvSet(ctx, KeyLastImportID, strconv.FormatInt(n, 10))
	})
	return next, err
}

package catalog

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned by from_id/from_uuid/from_path lookups that find no row.
var ErrNotFound = errors.New("catalog: not found")

func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

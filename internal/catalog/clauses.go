package catalog

import "gorm.io/gorm/clause"

// onConflictDoNothingName is used by EnsureTag's FirstOrCreate to make concurrent
// ensure-by-name calls race-safe at the database level, not just in application code.
func onConflictDoNothingName() clause.OnConflict {
	return clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}
}

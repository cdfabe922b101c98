package catalog

import "context"

// MediaExtra holds per-media enrichment outputs versioned per producer (§3). At most
// one row per media; the invariant "version < 0 <=> field unused" lets a single row
// carry both whisper and OCR outputs without a sentinel "absent" table.
type MediaExtra struct {
	ID      int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	MediaID int64 `gorm:"uniqueIndex;not null" json:"media_id"`

	WhisperVersion    int     `gorm:"not null;default:-1" json:"whisper_version"`
	WhisperLanguage   string  `json:"whisper_language,omitempty"`
	WhisperConfidence float64 `json:"whisper_confidence,omitempty"`
	WhisperTranscript string  `json:"whisper_transcript,omitempty"`

	VisionOCRVersion int    `gorm:"not null;default:-1" json:"vision_ocr_version"`
	VisionOCRResult  string `json:"vision_ocr_result,omitempty"` // serialized []OCRLine

	CaptionVersion int    `gorm:"not null;default:-1" json:"caption_version"`
	CaptionText    string `json:"caption_text,omitempty"`
}

func (MediaExtra) TableName() string { return "media_extra" }

// HasWhisper reports whether the whisper fields are populated.
func (e *MediaExtra) HasWhisper() bool { return e.WhisperVersion >= 0 }

// HasVisionOCR reports whether the OCR fields are populated.
func (e *MediaExtra) HasVisionOCR() bool { return e.VisionOCRVersion >= 0 }

// HasCaption reports whether the caption fields are populated.
func (e *MediaExtra) HasCaption() bool { return e.CaptionVersion >= 0 }

// ExtraForMedia fetches (and lazily creates) the MediaExtra row for a media id.
func (c *Catalog) ExtraForMedia(ctx context.Context, mediaID int64) (*MediaExtra, error) {
	var e MediaExtra
	// Look the row up by media id only; the -1 versions apply to a new row.
	err := c.db.WithContext(ctx).Where(MediaExtra{MediaID: mediaID}).Attrs(MediaExtra{
		MediaID:          mediaID,
		WhisperVersion:   -1,
		VisionOCRVersion: -1,
		CaptionVersion:   -1,
	}).FirstOrCreate(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// UpsertExtra writes the full row back (full-row update keyed by media id).
func (c *Catalog) UpsertExtra(ctx context.Context, e *MediaExtra) error {
	return c.db.WithContext(ctx).Save(e).Error
}

package persistence

import "time"

// ReviewModel is the GORM model for the review catalog. One row per
// completed review run.
type ReviewModel struct {
	ID               int64  `gorm:"primaryKey;autoIncrement"`
	DocID            string `gorm:"column:doc_id;uniqueIndex;not null"`
	Commit           string `gorm:"not null"`
	ScopeLevel       string `gorm:"not null"`
	FileCount        int    `gorm:"not null"`
	Escalated        bool   `gorm:"not null"`
	EscalationReason string
	FeatureCount     int       `gorm:"not null"`
	ChunksIndexed    int       `gorm:"not null"`
	CreatedAt        time.Time `gorm:"index;not null"`
}

// TableName overrides GORM's default pluralization.
func (ReviewModel) TableName() string { return "reviews" }

package sites

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"sitepulse/internal/apperr"
	"sitepulse/internal/db"
)

type snapshot struct {
	SiteID    string
	ProjectID string
	CreatedBy string
	UpdatedBy string
	Analytics db.Analytics
}

// recordSnapshot appends one history row through tx and returns its id.
// It must run inside the transaction that overwrites the site's analytics
// so that a failure here leaves the site untouched.
func recordSnapshot(tx *gorm.DB, s snapshot) (string, error) {
	row := &db.SiteAnalyticsHistory{
		SiteID:    s.SiteID,
		ProjectID: s.ProjectID,
		CreatedBy: s.CreatedBy,
		UpdatedBy: s.UpdatedBy,
		Analytics: datatypes.NewJSONType(s.Analytics.Clone()),
	}
	if err := tx.Create(row).Error; err != nil {
		return "", apperr.Persistence("adding analytics history", err)
	}
	return row.ID, nil
}

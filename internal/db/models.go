package db

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User is an account that can sign in and own projects and sites.
type User struct {
	ID string `gorm:"primaryKey;size:64" json:"id"`

	Email        string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name         string `gorm:"size:128;not null" json:"name"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`

	// Role is "admin" or "user".
	Role string `gorm:"size:16;not null;default:user" json:"role"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Project groups sites. SitesAddedTotal is a denormalized count of the
// project's live sites; only the site service writes it, and only with
// atomic SQL increments inside the site transaction.
type Project struct {
	ID          string `gorm:"primaryKey;size:64" json:"p_id"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`

	CreatedBy string `gorm:"size:64;index;not null" json:"created_by"`
	UpdatedBy string `gorm:"size:64" json:"updated_by"`

	SitesAddedTotal int64 `gorm:"not null;default:0" json:"sites_added_total"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SiteStatus string

const (
	SiteActive   SiteStatus = "active"
	SiteInactive SiteStatus = "inactive"
)

// Valid reports whether s is one of the known statuses.
func (s SiteStatus) Valid() bool {
	return s == SiteActive || s == SiteInactive
}

// Site is a monitored location belonging to a project. Analytics holds
// the current snapshot; previous snapshots live in SiteAnalyticsHistory.
type Site struct {
	ID          string     `gorm:"primaryKey;size:64" json:"id"`
	Name        string     `gorm:"size:100;not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	SiteType    string     `gorm:"size:64" json:"site_type"`
	Area        *float64   `json:"area"`
	Status      SiteStatus `gorm:"size:16;not null;default:active" json:"status"`
	Location    string     `json:"location"`

	Geolocation datatypes.JSONSlice[GeoPoint] `gorm:"not null" json:"geolocation"`
	Analytics   datatypes.JSONType[Analytics]  `gorm:"not null" json:"analytics"`

	ProjectID string   `gorm:"size:64;index;not null" json:"project_id"`
	Project   *Project `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedBy string `gorm:"size:64;index;not null" json:"created_by"`
	UpdatedBy string `gorm:"size:64" json:"updated_by"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SiteAnalyticsHistory is an append-only copy of a site's analytics taken
// right before they were overwritten. Rows are never updated.
type SiteAnalyticsHistory struct {
	ID string `gorm:"primaryKey;size:64" json:"id"`

	SiteID string `gorm:"size:64;not null;index:idx_history_site_created,priority:1" json:"site_id"`
	Site   *Site  `gorm:"foreignKey:SiteID;constraint:OnDelete:CASCADE" json:"-"`

	ProjectID string `gorm:"size:64;index;not null" json:"project_id"`
	CreatedBy string `gorm:"size:64;not null" json:"created_by"`
	UpdatedBy string `gorm:"size:64" json:"updated_by"`

	Analytics datatypes.JSONType[Analytics] `gorm:"not null" json:"analytics"`

	CreatedAt time.Time `gorm:"index:idx_history_site_created,priority:2" json:"created_at"`
}

// TableName keeps the singular table name used by existing deployments.
func (SiteAnalyticsHistory) TableName() string { return "site_analytics_history" }

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = NewID(UserPrefix)
	}
	return nil
}

func (p *Project) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = NewID(ProjectPrefix)
	}
	return nil
}

func (s *Site) BeforeCreate(_ *gorm.DB) error {
	if s.ID == "" {
		s.ID = NewID(SitePrefix)
	}
	if s.Status == "" {
		s.Status = SiteActive
	}
	return nil
}

func (h *SiteAnalyticsHistory) BeforeCreate(_ *gorm.DB) error {
	if h.ID == "" {
		h.ID = NewID(HistoryPrefix)
	}
	return nil
}

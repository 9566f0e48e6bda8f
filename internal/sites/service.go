// Package sites owns site writes and the analytics history built from them.
//
// Every write that touches more than one row runs in a single GORM
// transaction: creating a site bumps its project's sites_added_total,
// updating a site first copies the outgoing analytics into
// site_analytics_history, and deleting a site decrements the counter and
// removes the site's history.
package sites

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"sitepulse/internal/apperr"
	"sitepulse/internal/db"
	"sitepulse/internal/logging"
	"sitepulse/internal/metrics"
	"sitepulse/internal/validation"
)

const (
	// DefaultHistoryDays is the trailing window used when none is configured.
	DefaultHistoryDays = 7
	// MaxHistoryDays bounds caller-supplied windows.
	MaxHistoryDays = 365
	// MaxListLimit bounds page sizes for ListSites.
	MaxListLimit = 100
)

// CreateSiteInput is the body of a create request.
type CreateSiteInput struct {
	Name        string        `json:"name" validate:"required,min=3,max=100"`
	Description string        `json:"description"`
	SiteType    string        `json:"site_type" validate:"max=64"`
	Area        *float64      `json:"area" validate:"omitempty,gte=0"`
	Status      db.SiteStatus `json:"status" validate:"omitempty,oneof=active inactive"`
	Location    string        `json:"location"`
	Geolocation []db.GeoPoint `json:"geolocation" validate:"omitempty,dive"`
	Analytics   db.Analytics  `json:"analytics"`
	ProjectID   string        `json:"project_id" validate:"required"`
}

// SitePatch is the body of an update request. Only fields present in the
// request are written; see Optional.
type SitePatch struct {
	Name        Optional[string]        `json:"name"`
	Description Optional[string]        `json:"description"`
	SiteType    Optional[string]        `json:"site_type"`
	Area        Optional[*float64]      `json:"area"`
	Status      Optional[db.SiteStatus] `json:"status"`
	Location    Optional[string]        `json:"location"`
	Geolocation Optional[[]db.GeoPoint] `json:"geolocation"`
	Analytics   Optional[db.Analytics]  `json:"analytics"`
}

func (p SitePatch) validate() error {
	if p.Name.Set {
		if err := validation.Var("name", p.Name.Value, "required,min=3,max=100"); err != nil {
			return err
		}
	}
	if p.SiteType.Set {
		if err := validation.Var("site_type", p.SiteType.Value, "max=64"); err != nil {
			return err
		}
	}
	if p.Area.Set && p.Area.Value != nil && *p.Area.Value < 0 {
		return apperr.Validation("area: must be >= 0")
	}
	if p.Status.Set && !p.Status.Value.Valid() {
		return apperr.Validation("status: must be one of: active inactive")
	}
	if p.Geolocation.Set {
		for i, pt := range p.Geolocation.Value {
			if err := validation.Struct(pt); err != nil {
				return apperr.Validationf("geolocation[%d].%s", i, err.Error())
			}
		}
	}
	return nil
}

// columns returns the column assignments for the fields present in p.
func (p SitePatch) columns() map[string]any {
	cols := make(map[string]any)
	if p.Name.Set {
		cols["name"] = p.Name.Value
	}
	if p.Description.Set {
		cols["description"] = p.Description.Value
	}
	if p.SiteType.Set {
		cols["site_type"] = p.SiteType.Value
	}
	if p.Area.Set {
		cols["area"] = p.Area.Value
	}
	if p.Status.Set {
		cols["status"] = p.Status.Value
	}
	if p.Location.Set {
		cols["location"] = p.Location.Value
	}
	if p.Geolocation.Set {
		geo := p.Geolocation.Value
		if geo == nil {
			geo = []db.GeoPoint{}
		}
		cols["geolocation"] = datatypes.JSONSlice[db.GeoPoint](geo)
	}
	if p.Analytics.Set {
		a := p.Analytics.Value
		if a == nil {
			a = db.Analytics{}
		}
		cols["analytics"] = datatypes.NewJSONType(a)
	}
	return cols
}

// HistoryResponse is the analytics history of a site and the chart built from it.
type HistoryResponse struct {
	History []db.SiteAnalyticsHistory `json:"history"`
	Chart   map[string]*ChartSeries   `json:"chart"`
}

// Service coordinates site mutations and history reads.
type Service struct {
	db         *gorm.DB
	windowDays int
	now        func() time.Time
}

// NewService returns a Service. windowDays <= 0 selects DefaultHistoryDays.
func NewService(gdb *gorm.DB, windowDays int) *Service {
	if windowDays <= 0 {
		windowDays = DefaultHistoryDays
	}
	return &Service{db: gdb, windowDays: windowDays, now: time.Now}
}

// CreateSite inserts a site and increments its project's counter in the
// same transaction. A missing project is reported as not found.
func (s *Service) CreateSite(ctx context.Context, in CreateSiteInput, actor string) (*db.Site, error) {
	if in.Name == "" {
		return nil, apperr.Validation("site name is required")
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	analytics := in.Analytics
	if analytics == nil {
		analytics = db.Analytics{}
	}
	geo := in.Geolocation
	if geo == nil {
		geo = []db.GeoPoint{}
	}
	site := &db.Site{
		Name:        in.Name,
		Description: in.Description,
		SiteType:    in.SiteType,
		Area:        in.Area,
		Status:      in.Status,
		Location:    in.Location,
		Geolocation: datatypes.JSONSlice[db.GeoPoint](geo),
		Analytics:   datatypes.NewJSONType(analytics),
		ProjectID:   in.ProjectID,
		CreatedBy:   actor,
		UpdatedBy:   actor,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := adjustSiteCount(tx, in.ProjectID, 1); err != nil {
			return err
		}
		if err := tx.Create(site).Error; err != nil {
			return apperr.Persistence("creating site", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.SiteMutations.WithLabelValues("create", site.ProjectID).Inc()
	return site, nil
}

// UpdateSite applies patch to the site. When the site currently has
// analytics they are copied to history before being overwritten; the copy
// and the update commit or roll back together.
func (s *Service) UpdateSite(ctx context.Context, id string, patch SitePatch, actor string) (*db.Site, error) {
	if err := patch.validate(); err != nil {
		return nil, err
	}

	var (
		updated     db.Site
		snapshotted bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		site, err := loadSite(tx, id)
		if err != nil {
			return err
		}

		if current := site.Analytics.Data(); len(current) > 0 {
			histID, err := recordSnapshot(tx, snapshot{
				SiteID:    site.ID,
				ProjectID: site.ProjectID,
				CreatedBy: site.CreatedBy,
				UpdatedBy: actor,
				Analytics: current,
			})
			if err != nil {
				return err
			}
			snapshotted = true
			logging.Debug().Str("site_id", site.ID).Str("history_id", histID).Msg("analytics snapshot recorded")
		}

		cols := patch.columns()
		cols["updated_by"] = actor
		res := tx.Model(&db.Site{}).Where("id = ?", id).Updates(cols)
		if res.Error != nil {
			return apperr.Persistence("updating site", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("site")
		}

		if err := tx.First(&updated, "id = ?", id).Error; err != nil {
			return apperr.Persistence("reloading site", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.SiteMutations.WithLabelValues("update", updated.ProjectID).Inc()
	if snapshotted {
		metrics.AnalyticsSnapshots.WithLabelValues(updated.ProjectID).Inc()
	}
	return &updated, nil
}

// DeleteSite removes the site and its history and decrements the project
// counter, all in one transaction. It returns the deleted site.
func (s *Service) DeleteSite(ctx context.Context, id string) (*db.Site, error) {
	var site *db.Site
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		site, err = loadSite(tx, id)
		if err != nil {
			return err
		}
		if err := adjustSiteCount(tx, site.ProjectID, -1); err != nil {
			return err
		}
		if err := tx.Where("site_id = ?", id).Delete(&db.SiteAnalyticsHistory{}).Error; err != nil {
			return apperr.Persistence("deleting analytics history", err)
		}
		if err := tx.Delete(&db.Site{}, "id = ?", id).Error; err != nil {
			return apperr.Persistence("deleting site", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.SiteMutations.WithLabelValues("delete", site.ProjectID).Inc()
	return site, nil
}

// GetSite returns one site.
func (s *Service) GetSite(ctx context.Context, id string) (*db.Site, error) {
	return loadSite(s.db.WithContext(ctx), id)
}

// ListSites returns a page of all sites, oldest first.
func (s *Service) ListSites(ctx context.Context, skip, limit int) ([]db.Site, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	sites := []db.Site{}
	if err := s.db.WithContext(ctx).Order("created_at, id").Offset(skip).Limit(limit).Find(&sites).Error; err != nil {
		return nil, apperr.Persistence("listing sites", err)
	}
	return sites, nil
}

// ListByProject returns the sites of a project.
func (s *Service) ListByProject(ctx context.Context, projectID string) ([]db.Site, error) {
	sites := []db.Site{}
	if err := s.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at, id").Find(&sites).Error; err != nil {
		return nil, apperr.Persistence("listing project sites", err)
	}
	return sites, nil
}

// ListByUser returns the sites created by a user.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]db.Site, error) {
	sites := []db.Site{}
	if err := s.db.WithContext(ctx).Where("created_by = ?", userID).Order("created_at, id").Find(&sites).Error; err != nil {
		return nil, apperr.Persistence("listing user sites", err)
	}
	return sites, nil
}

// History returns the site's snapshots created within the last windowDays
// days, oldest first. windowDays <= 0 selects the service default. No
// matching rows yields an empty slice.
func (s *Service) History(ctx context.Context, siteID string, windowDays int) ([]db.SiteAnalyticsHistory, error) {
	if windowDays <= 0 {
		windowDays = s.windowDays
	}
	if windowDays > MaxHistoryDays {
		windowDays = MaxHistoryDays
	}
	cutoff := s.now().UTC().Add(-time.Duration(windowDays) * 24 * time.Hour)

	rows := []db.SiteAnalyticsHistory{}
	err := s.db.WithContext(ctx).
		Where("site_id = ? AND created_at >= ?", siteID, cutoff).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, apperr.Persistence("fetching analytics history", err)
	}
	metrics.HistoryQueries.Inc()
	return rows, nil
}

// AnalyticsHistory returns the windowed history of an existing site
// together with its chart.
func (s *Service) AnalyticsHistory(ctx context.Context, siteID string, windowDays int) (*HistoryResponse, error) {
	if _, err := s.GetSite(ctx, siteID); err != nil {
		return nil, err
	}
	rows, err := s.History(ctx, siteID, windowDays)
	if err != nil {
		return nil, err
	}
	chart := BuildChart(rows)
	metrics.ChartPoints.Observe(float64(countPoints(chart)))
	return &HistoryResponse{History: rows, Chart: chart}, nil
}

func loadSite(tx *gorm.DB, id string) (*db.Site, error) {
	var site db.Site
	if err := tx.First(&site, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("site")
		}
		return nil, apperr.Persistence("loading site", err)
	}
	return &site, nil
}

// adjustSiteCount moves sites_added_total by delta with a single UPDATE so
// concurrent writers never lose an increment.
func adjustSiteCount(tx *gorm.DB, projectID string, delta int) error {
	res := tx.Model(&db.Project{}).
		Where("id = ?", projectID).
		UpdateColumn("sites_added_total", gorm.Expr("sites_added_total + ?", delta))
	if res.Error != nil {
		return apperr.Persistence(fmt.Sprintf("adjusting site count of project %s", projectID), res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("project")
	}
	return nil
}

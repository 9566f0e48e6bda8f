// Package projects manages the projects that group sites.
package projects

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"sitepulse/internal/apperr"
	"sitepulse/internal/db"
	"sitepulse/internal/logging"
	"sitepulse/internal/validation"
)

type CreateInput struct {
	Name        string `json:"name" validate:"required,min=3,max=255"`
	Description string `json:"description"`
}

// UpdateInput carries the client-writable project fields. Nil means keep.
// sites_added_total is not here; only site writes move it.
type UpdateInput struct {
	Name        *string `json:"name" validate:"omitempty,min=3,max=255"`
	Description *string `json:"description"`
}

// Detail is a project together with its sites.
type Detail struct {
	Project *db.Project `json:"project"`
	Sites   []db.Site   `json:"sites"`
}

type Service struct {
	db *gorm.DB
}

func NewService(gdb *gorm.DB) *Service {
	return &Service{db: gdb}
}

func (s *Service) Create(ctx context.Context, in CreateInput, actor string) (*db.Project, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	p := &db.Project{
		Name:        in.Name,
		Description: in.Description,
		CreatedBy:   actor,
		UpdatedBy:   actor,
	}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, apperr.Persistence("creating project", err)
	}
	logging.Info().Str("project_id", p.ID).Str("user_id", actor).Msg("project created")
	return p, nil
}

// List returns all projects, or only those created by userID when set.
func (s *Service) List(ctx context.Context, userID string) ([]db.Project, error) {
	q := s.db.WithContext(ctx).Order("created_at, id")
	if userID != "" {
		q = q.Where("created_by = ?", userID)
	}
	out := []db.Project{}
	if err := q.Find(&out).Error; err != nil {
		return nil, apperr.Persistence("listing projects", err)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Detail, error) {
	p, err := load(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	sites := []db.Site{}
	if err := s.db.WithContext(ctx).Where("project_id = ?", id).Order("created_at, id").Find(&sites).Error; err != nil {
		return nil, apperr.Persistence("listing project sites", err)
	}
	return &Detail{Project: p, Sites: sites}, nil
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput, actor string) (*db.Project, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	cols := map[string]any{"updated_by": actor}
	if in.Name != nil {
		cols["name"] = *in.Name
	}
	if in.Description != nil {
		cols["description"] = *in.Description
	}

	var p *db.Project
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&db.Project{}).Where("id = ?", id).Updates(cols)
		if res.Error != nil {
			return apperr.Persistence("updating project", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("project")
		}
		var err error
		p, err = load(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes the project along with its sites and their history.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := load(tx, id); err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&db.SiteAnalyticsHistory{}).Error; err != nil {
			return apperr.Persistence("deleting project history", err)
		}
		if err := tx.Where("project_id = ?", id).Delete(&db.Site{}).Error; err != nil {
			return apperr.Persistence("deleting project sites", err)
		}
		if err := tx.Delete(&db.Project{}, "id = ?", id).Error; err != nil {
			return apperr.Persistence("deleting project", err)
		}
		return nil
	})
}

func load(tx *gorm.DB, id string) (*db.Project, error) {
	var p db.Project
	if err := tx.First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("project")
		}
		return nil, apperr.Persistence("loading project", err)
	}
	return &p, nil
}

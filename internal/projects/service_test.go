package projects_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"sitepulse/internal/apperr"
	"sitepulse/internal/db"
	"sitepulse/internal/db/dbtest"
	"sitepulse/internal/projects"
)

func strptr(s string) *string { return &s }

func TestCreateAndGet(t *testing.T) {
	gdb := dbtest.Open(t)
	u := dbtest.SeedUser(t, gdb, "a@example.com")
	svc := projects.NewService(gdb)
	ctx := context.Background()

	p, err := svc.Create(ctx, projects.CreateInput{Name: "Farm", Description: "wheat"}, u.ID)
	require.NoError(t, err)
	assert.Zero(t, p.SitesAddedTotal)
	assert.Equal(t, u.ID, p.CreatedBy)

	d, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Farm", d.Project.Name)
	assert.NotNil(t, d.Sites)
	assert.Empty(t, d.Sites)

	_, err = svc.Get(ctx, "P-MISSING")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreate_Validation(t *testing.T) {
	gdb := dbtest.Open(t)
	svc := projects.NewService(gdb)

	_, err := svc.Create(context.Background(), projects.CreateInput{Name: "ab"}, "U1")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestList_FiltersByCreator(t *testing.T) {
	gdb := dbtest.Open(t)
	a := dbtest.SeedUser(t, gdb, "a@example.com")
	b := dbtest.SeedUser(t, gdb, "b@example.com")
	dbtest.SeedProject(t, gdb, "Farm", a.ID)
	dbtest.SeedProject(t, gdb, "Orchard", b.ID)
	dbtest.SeedProject(t, gdb, "Vineyard", a.ID)
	svc := projects.NewService(gdb)
	ctx := context.Background()

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := svc.List(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestUpdate_LeavesCounterAlone(t *testing.T) {
	gdb := dbtest.Open(t)
	u := dbtest.SeedUser(t, gdb, "a@example.com")
	p := dbtest.SeedProject(t, gdb, "Farm", u.ID)
	require.NoError(t, gdb.Model(p).UpdateColumn("sites_added_total", 4).Error)
	svc := projects.NewService(gdb)
	ctx := context.Background()

	got, err := svc.Update(ctx, p.ID, projects.UpdateInput{Description: strptr("barley")}, "U-EDITOR")
	require.NoError(t, err)
	assert.Equal(t, "Farm", got.Name)
	assert.Equal(t, "barley", got.Description)
	assert.Equal(t, "U-EDITOR", got.UpdatedBy)
	assert.EqualValues(t, 4, got.SitesAddedTotal)

	_, err = svc.Update(ctx, p.ID, projects.UpdateInput{Name: strptr("x")}, u.ID)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Update(ctx, "P-MISSING", projects.UpdateInput{Name: strptr("Farm 2")}, u.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDelete_RemovesSitesAndHistory(t *testing.T) {
	gdb := dbtest.Open(t)
	u := dbtest.SeedUser(t, gdb, "a@example.com")
	p := dbtest.SeedProject(t, gdb, "Farm", u.ID)
	site := &db.Site{Name: "North field", ProjectID: p.ID, CreatedBy: u.ID}
	require.NoError(t, gdb.Create(site).Error)
	require.NoError(t, gdb.Create(&db.SiteAnalyticsHistory{
		SiteID:    site.ID,
		ProjectID: p.ID,
		CreatedBy: u.ID,
		Analytics: datatypes.NewJSONType(db.Analytics{"temp": {Unit: "C", Value: 1.0}}),
	}).Error)
	svc := projects.NewService(gdb)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, p.ID))

	var n int64
	require.NoError(t, gdb.Model(&db.Site{}).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, gdb.Model(&db.SiteAnalyticsHistory{}).Count(&n).Error)
	assert.Zero(t, n)

	assert.ErrorIs(t, svc.Delete(ctx, p.ID), apperr.ErrNotFound)
}

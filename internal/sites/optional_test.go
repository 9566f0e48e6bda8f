package sites

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/db"
)

func TestSitePatch_Presence(t *testing.T) {
	var p SitePatch
	require.NoError(t, json.Unmarshal([]byte(`{"description":"","area":null,"analytics":{}}`), &p))

	assert.False(t, p.Name.Set)
	assert.False(t, p.Location.Set)

	assert.True(t, p.Description.Set)
	assert.Equal(t, "", p.Description.Value)

	assert.True(t, p.Area.Set)
	assert.Nil(t, p.Area.Value)

	assert.True(t, p.Analytics.Set)
	assert.Empty(t, p.Analytics.Value)

	cols := p.columns()
	assert.Len(t, cols, 3)
	assert.Contains(t, cols, "description")
	assert.Contains(t, cols, "area")
	assert.Contains(t, cols, "analytics")
}

func TestOptional_Marshal(t *testing.T) {
	out, err := json.Marshal(struct {
		A Optional[int] `json:"a"`
		B Optional[int] `json:"b"`
	}{A: Some(4)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":4,"b":null}`, string(out))
}

func TestSitePatch_Validate(t *testing.T) {
	neg := -1.0
	cases := map[string]SitePatch{
		"short name":    {Name: Some("ab")},
		"empty name":    {Name: Some("")},
		"negative area": {Area: Some(&neg)},
		"bad status":    {Status: Some[db.SiteStatus]("archived")},
		"bad lat":       {Geolocation: Some([]db.GeoPoint{{Lat: 91}})},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, p.validate())
		})
	}

	assert.NoError(t, SitePatch{}.validate())
	assert.NoError(t, SitePatch{Name: Some("Field A"), Status: Some(db.SiteInactive)}.validate())
}

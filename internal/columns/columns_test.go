package columns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDefault(t *testing.T) {
	plan, err := Resolve(DefaultSpec)
	require.NoError(t, err)

	require.Len(t, plan.Fixed, 1)
	assert.Equal(t, Directive{Canonical: ColGeometry, Output: ColGeometry}, plan.Fixed[0])
	assert.False(t, plan.Restricted)
	assert.True(t, plan.IncludesProperty("anything"))
}

func TestResolveList(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []Directive
		wantErr bool
	}{
		{
			name: "all fixed columns",
			raw:  `["geojson_geometry","geometry","geojson"]`,
			want: []Directive{
				{Canonical: ColGeometry, Output: ColGeometry},
				{Canonical: ColGeoJSON, Output: ColGeoJSON},
				{Canonical: ColGeoJSONGeometry, Output: ColGeoJSONGeometry},
			},
		},
		{
			name: "subset",
			raw:  `["geojson"]`,
			want: []Directive{{Canonical: ColGeoJSON, Output: ColGeoJSON}},
		},
		{
			name: "unknown names are skipped",
			raw:  `["geometry","bogus"]`,
			want: []Directive{{Canonical: ColGeometry, Output: ColGeometry}},
		},
		{
			name:    "only unknown names",
			raw:     `["bogus","nope"]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Resolve(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidSpec)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, plan.Fixed)
			assert.False(t, plan.Restricted)
		})
	}
}

func TestResolveMap(t *testing.T) {
	plan, err := Resolve(`{"geometry":"coordinates"}`)
	require.NoError(t, err)

	require.Len(t, plan.Fixed, 1)
	assert.Equal(t, Directive{Canonical: ColGeometry, Output: "coordinates"}, plan.Fixed[0])
	assert.False(t, plan.Restricted)
}

func TestResolveMapPropertyRestriction(t *testing.T) {
	plan, err := Resolve(`{"geometry":"geometry","name":"label","pop":""}`)
	require.NoError(t, err)

	assert.True(t, plan.Restricted)
	assert.True(t, plan.IncludesProperty("name"))
	assert.True(t, plan.IncludesProperty("pop"))
	assert.False(t, plan.IncludesProperty("area"))
	assert.Equal(t, "label", plan.PropertyOutput("name"))
	assert.Equal(t, "pop", plan.PropertyOutput("pop"))
	assert.Equal(t, []string{"name", "pop"}, plan.RequestedProperties())
}

func TestResolveDuplicateOutputName(t *testing.T) {
	_, err := Resolve(`{"geometry":"col","geojson":"col"}`)
	require.ErrorIs(t, err, ErrInvalidSpec)
}

func TestResolveEmpty(t *testing.T) {
	for _, raw := range []string{"", "[]", "{}"} {
		plan, err := Resolve(raw)
		require.NoError(t, err, "raw=%q", raw)
		assert.Empty(t, plan.Fixed)
		assert.False(t, plan.Restricted)
	}
}

func TestResolveInvalidJSON(t *testing.T) {
	_, err := Resolve(`{"geometry":`)
	require.ErrorIs(t, err, ErrInvalidSpec)
}

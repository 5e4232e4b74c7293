package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFinder map[[2]float64]string

func (f stubFinder) GetTimezoneName(lng, lat float64) string {
	return f[[2]float64{lng, lat}]
}

func TestResolverWithStub(t *testing.T) {
	r := NewResolverWithFinder(stubFinder{
		{139.69, 35.68}: "Asia/Tokyo",
		{0, 0}:          "Not/AZone",
	}, nil)

	assert.Equal(t, "Asia/Tokyo", r.Locate(35.68, 139.69).String())
	assert.Same(t, r.Locate(35.68, 139.69), r.Locate(35.68, 139.69))
	assert.Equal(t, time.UTC, r.Locate(0, 0))
	assert.Equal(t, time.UTC, r.Locate(-80, 10))
}

func TestResolverDefaultFinder(t *testing.T) {
	r, err := NewResolver(nil)
	require.NoError(t, err)

	assert.Equal(t, "Europe/Paris", r.Locate(48.8566, 2.3522).String())
	assert.Equal(t, "America/New_York", r.Locate(40.7128, -74.0060).String())
}

func TestLoad(t *testing.T) {
	assert.Equal(t, time.UTC, Load(""))
	assert.Equal(t, time.UTC, Load("Nowhere/Special"))
	assert.Equal(t, "Europe/Rome", Load("Europe/Rome").String())
}

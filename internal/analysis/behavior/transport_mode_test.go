package behavior

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/po4yka/trailglass-sub007/internal/models"
)

func TestClassifyBandEdges(t *testing.T) {
	bands := DefaultSpeedBands()

	tests := []struct {
		speed float64
		want  models.TransportType
	}{
		{0, models.TransportWalk},
		{1.0, models.TransportWalk},
		{1.999, models.TransportWalk},
		{2.0, models.TransportBike},
		{6.999, models.TransportBike},
		{7.0, models.TransportCar},
		{30.0, models.TransportCar},
		{49.999, models.TransportCar},
		{50.0, models.TransportTrain},
		{100.0, models.TransportTrain},
		{100.001, models.TransportPlane},
		{250, models.TransportPlane},
		{-1, models.TransportUnknown},
		{math.NaN(), models.TransportUnknown},
		{math.Inf(1), models.TransportUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, bands.ClassifySpeed(tt.speed), "speed %v", tt.speed)
	}

	assert.Equal(t, models.TransportUnknown, bands.Classify(nil))
}

func TestClassifyTunableBands(t *testing.T) {
	bands := SpeedBands{WalkMax: 1, BikeMax: 3, CarMax: 20, TrainMax: 60}
	assert.Equal(t, models.TransportBike, bands.ClassifySpeed(1.5))
	assert.Equal(t, models.TransportTrain, bands.ClassifySpeed(30))
	assert.Equal(t, models.TransportPlane, bands.ClassifySpeed(70))
}

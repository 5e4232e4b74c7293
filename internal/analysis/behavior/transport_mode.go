package behavior

import (
	"math"

	"github.com/po4yka/trailglass-sub007/internal/models"
)

// SpeedBands are the upper bounds (m/s) of each transport band.
// A speed s maps to the first band whose bound it is below; the train band
// includes its upper bound, anything faster is a plane.
type SpeedBands struct {
	WalkMax  float64 // walk: [0, WalkMax)
	BikeMax  float64 // bike: [WalkMax, BikeMax)
	CarMax   float64 // car: [BikeMax, CarMax)
	TrainMax float64 // train: [CarMax, TrainMax]
}

// DefaultSpeedBands returns the default transport speed bands
func DefaultSpeedBands() SpeedBands {
	return SpeedBands{
		WalkMax:  2.0,
		BikeMax:  7.0,
		CarMax:   50.0,
		TrainMax: 100.0,
	}
}

// Classify infers a transport type from an average speed.
// Boats are never inferred from speed alone.
func (b SpeedBands) Classify(avgSpeedMps *float64) models.TransportType {
	if avgSpeedMps == nil {
		return models.TransportUnknown
	}
	s := *avgSpeedMps
	switch {
	case math.IsNaN(s) || math.IsInf(s, 0) || s < 0:
		return models.TransportUnknown
	case s < b.WalkMax:
		return models.TransportWalk
	case s < b.BikeMax:
		return models.TransportBike
	case s < b.CarMax:
		return models.TransportCar
	case s <= b.TrainMax:
		return models.TransportTrain
	default:
		return models.TransportPlane
	}
}

// ClassifySpeed is Classify for a plain value
func (b SpeedBands) ClassifySpeed(avgSpeedMps float64) models.TransportType {
	return b.Classify(&avgSpeedMps)
}

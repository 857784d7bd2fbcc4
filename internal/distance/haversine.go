package distance

import (
	"context"
	"math"

	"github.com/pkordes/fleet-hos/internal/domain"
)

const (
	earthRadiusMiles = 3958.8

	// DefaultAverageSpeedMPH is the assumed truck speed when no routing
	// service answers.
	DefaultAverageSpeedMPH = 55.0

	// KmPerMile converts between the API's miles and the proximity search's kilometres.
	KmPerMile = 1.60934
)

// HaversineMiles returns the great-circle distance between a and b in miles.
func HaversineMiles(a, b domain.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMiles * math.Asin(math.Min(1, math.Sqrt(h)))
}

// HaversineEstimator turns great-circle distance into minutes at a fixed speed.
// It never fails and is the last-resort estimator.
type HaversineEstimator struct {
	SpeedMPH float64
}

// NewHaversineEstimator returns an estimator at speedMPH, or 55 mph when
// speedMPH is not positive.
func NewHaversineEstimator(speedMPH float64) HaversineEstimator {
	if speedMPH <= 0 {
		speedMPH = DefaultAverageSpeedMPH
	}
	return HaversineEstimator{SpeedMPH: speedMPH}
}

func (h HaversineEstimator) EstimateMinutes(_ context.Context, from, to domain.Coordinates) (float64, error) {
	speed := h.SpeedMPH
	if speed <= 0 {
		speed = DefaultAverageSpeedMPH
	}
	return HaversineMiles(from, to) / speed * 60, nil
}

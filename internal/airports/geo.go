package airports

import "math"

// Conversion factors
const (
	metersPerKM = 1000.0
	earthRadius = 6371000 // meters
)

// Haversine calculates the great-circle distance in meters between two
// lat/lon points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180.0

	lat1Rad := lat1 * rad
	lon1Rad := lon1 * rad
	lat2Rad := lat2 * rad
	lon2Rad := lon2 * rad

	dlon := lon2Rad - lon1Rad
	dlat := lat2Rad - lat1Rad

	a := math.Pow(math.Sin(dlat/2), 2) + math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Pow(math.Sin(dlon/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

// MetersToKM converts meters to kilometers
func MetersToKM(meters float64) float64 {
	return meters / metersPerKM
}

// validLatLon reports whether the coordinate pair is inside the valid
// geographic range. (0,0) is treated as missing: it is the null island
// default in most airport exports.
func validLatLon(lat, lon float64) bool {
	if lat == 0 && lon == 0 {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

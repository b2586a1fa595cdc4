// Package domain models hourly weather observations and the features derived
// from them for a downstream precipitation model.
//
// # Data Source
//
// Historical observations come from an hourly weather API export written as
// CSV, one row per hour, with a header line naming the columns:
//
//	time,temperature_2m,relative_humidity_2m,dew_point_2m,precipitation,surface_pressure,shortwave_radiation
//	2024-04-26T00:00,14.2,81,11.0,0.0,1002.3,0.0
//
// Time format:
//
//	YYYY-MM-DDTHH:MM, naive (no zone). Rows are ordered by the parsed time,
//	never by string comparison.
//
// Live readings come from a station poll and use short keys
// (temperature, dewpoint, humidity, pressure, luminosity).
//
// # Severity Labels
//
// Precipitation amounts are bucketed into five classes:
//
//	0         0  none
//	(0, 0.5)  1  light (negative amounts also land here)
//	[0.5, 4)  2  moderate
//	[4, 8)    3  heavy
//	>= 8      4  extreme
//
// A value that cannot be read as a number is labelled -1.
//
// # Horizons
//
// Each row gains precipitation_1h, precipitation_6h, precipitation_12h and
// precipitation_24h: the label of the row 1, 6, 12 or 24 positions later in
// the sorted sequence. The offset counts rows, not elapsed time, so the
// labels only mean "hours ahead" when the input is gap-free hourly data.
// Rows too close to the end of the sequence get the placeholder 0.
//
// # Scaling
//
// Continuous sensor fields are divided by fixed divisors (see Scaling). The
// live path divides radiation by one extra factor that the batch path does
// not; both paths are kept as-is.
package domain

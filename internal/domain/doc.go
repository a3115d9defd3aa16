// Package domain models flight telemetry recorded by hobby RC transmitters.
//
// # Data Source
//
// Telemetry logs are CSV files written to the transmitter's SD card by
// OpenTX/EdgeTX radios, one row per telemetry frame, typically several rows
// per second. Column sets vary with the sensors installed on the aircraft,
// and the same logical quantity can appear under more than one column name,
// so resolution to canonical field names is table-driven (see [Resolve]).
//
// # Log Conventions
//
// Position format:
//
//	The "GPS" column holds latitude and longitude as one space-separated
//	pair in signed decimal degrees, latitude first:
//
//	  GPS: "40.001000 -105.220000"
//
//	Records store longitude first (lon, lat, elevation), the axis order
//	used by geospatial output formats.
//
// Altitude columns:
//
//	Aircraft with both a GPS and a barometric vario log two columns that
//	are BOTH named "Alt(m)". Column position disambiguates them: the GPS
//	altitude comes first, the vario altitude second. The vario reading is
//	preferred because barometric altitude is far less noisy than GPS
//	altitude. Aircraft without a vario log a single "Alt(m)" column.
//
// Timestamps:
//
//	The "Date" column is "2006-01-02" and the "Time" column is
//	"15:04:05.000" in the transmitter's local clock, taken here as UTC.
//	Rows are appended in flight order, so timestamps never decrease in a
//	healthy log. A flight can span several log files when the transmitter
//	rotates them; files sorted by name concatenate back into one track.
//
// Satellite count:
//
//	The "Sats" column reports how many GPS satellites contributed to the
//	fix. Low counts correlate strongly with position garbage, which is why
//	the sanitizer gates on it first. A missing or unparsable count reads
//	as zero and therefore fails any sensible gate.
//
// Height above ground:
//
//	Logs record absolute elevation. For display the sanitizer derives
//	"Height above Ground (m)" relative to a reference ground elevation,
//	either configured explicitly or taken as the lowest elevation in the
//	repaired track. Visualizations use this as the altitude so the path
//	hugs terrain correctly at fields far above sea level.
//
// # Fix Provenance
//
// Every record carries a human-readable status ("Valid GPS", a gate failure
// reason, or "Interpolated") surfaced as the "Point Description" display
// field, so a rendered point explains why it sits where it does.
package domain

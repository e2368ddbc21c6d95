package ratelimit

// Config holds the per-minute call budgets.
//
// The remote platform enforces separate quotas for reads and writes, with a
// higher allowance outside business hours. Day runs from DayStartHour
// (inclusive) to DayEndHour (exclusive), local time.
type Config struct {
	DayRead      int `mapstructure:"day_read" default:"60"`
	DayWrite     int `mapstructure:"day_write" default:"10"`
	NightRead    int `mapstructure:"night_read" default:"200"`
	NightWrite   int `mapstructure:"night_write" default:"50"`
	DayStartHour int `mapstructure:"day_start_hour" default:"6"`
	DayEndHour   int `mapstructure:"day_end_hour" default:"20"`
}

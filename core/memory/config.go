package memory

// Config holds the dataset memory budget.
type Config struct {
	// MaxMB is the ceiling for all registered datasets combined.
	MaxMB int `mapstructure:"max_mb" default:"1024"`
}

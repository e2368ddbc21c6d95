package retry

// Config holds the retry policy for platform API calls.
type Config struct {
	// MaxAttempts is the total number of tries, first call included.
	MaxAttempts int `mapstructure:"max_attempts" default:"3"`
	// InitialSeconds is the first backoff delay.
	InitialSeconds int `mapstructure:"initial_seconds" default:"2"`
	// MaxSeconds caps the backoff delay.
	MaxSeconds int `mapstructure:"max_seconds" default:"30"`
	// Multiplier grows the delay between attempts.
	Multiplier float64 `mapstructure:"multiplier" default:"2"`
	// Jitter is the randomization factor applied to each delay.
	Jitter float64 `mapstructure:"jitter" default:"0.1"`
}

package cache

// Config holds the response cache settings.
type Config struct {
	// TTLSeconds is how long a cached response stays valid.
	TTLSeconds int `mapstructure:"ttl_seconds" default:"3600"`
	// MaxBytes is the cache size ceiling. When exceeded, least recently
	// used entries are evicted until usage drops below the low-water mark.
	MaxBytes int64 `mapstructure:"max_bytes" default:"104857600"`
}

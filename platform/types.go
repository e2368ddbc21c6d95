package platform

import "fmt"

// Config holds the connection settings for the expense platform API.
type Config struct {
	// BaseURL is the API root, e.g. https://api.example.com/v3.
	BaseURL string `mapstructure:"base_url" default:""`
	// ClientID and ClientSecret authenticate the token request.
	ClientID     string `mapstructure:"client_id" default:""`
	ClientSecret string `mapstructure:"client_secret" default:""`
	// TimeoutSeconds bounds each individual HTTP call.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// PageSize is the list page size; a short page ends pagination.
	PageSize int `mapstructure:"page_size" default:"200"`
	// Simulate makes reads return empty sets and mutations succeed
	// without any network call.
	Simulate bool `mapstructure:"simulate" default:"false"`
	// Sandbox marks the target as a sandbox tenant; payloads are shaped
	// accordingly (users get the Integrated auth mode).
	Sandbox bool `mapstructure:"sandbox" default:"false"`
}

// listEnvelope is the platform's list response wrapper.
type listEnvelope struct {
	Response struct {
		Data []map[string]any `json:"data"`
	} `json:"response"`
}

// authEnvelope is the token endpoint response wrapper.
type authEnvelope struct {
	Response struct {
		Token    string `json:"token"`
		Validity string `json:"validity"`
	} `json:"response"`
}

// APIError is a non-2xx platform response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("platform returned %d: %s", e.StatusCode, e.Body)
}

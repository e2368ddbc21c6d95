// Package config provides configuration management for the expense sync tool.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Api: expense platform credentials, page size and simulate/sandbox switches
//   - Database: MySQL connection details for the source ERP
//   - RateLimit, Retry, Cache, Memory: call budget and resource tuning
//   - Storage: S3/MinIO credentials for report archiving
//   - Server: report server port and API key
//   - Log: logging level and format
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Api.BaseURL)
package config

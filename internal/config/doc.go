// Package config provides configuration loading for runreport.
//
// # Configuration Sources
//
// Configuration is assembled from the following sources, later ones winning:
//
//	1. Default values (Default)
//	2. A YAML file (runreport.yaml, config.yaml or configs/config.yaml, or RUNREPORT_CONFIG_FILE)
//	3. Environment variables
//
// # Environment Variables
//
// All environment variables use the RUNREPORT_ prefix followed by the section:
//
//	RUNREPORT_SERVER_PORT=8080
//	RUNREPORT_SOURCE_KIND=csv
//	RUNREPORT_SOURCE_LOCATION=./runs.csv
//	RUNREPORT_SOURCE_CACHE_TTL=5m
//	RUNREPORT_REPORT_TIMEZONE=America/Chicago
//	RUNREPORT_LOGGING_LEVEL=debug
//
// # Validation
//
// Load validates struct constraints with go-playground/validator and then
// checks the rules that span fields, such as a sheets source needing a sheet
// id and credentials.
package config

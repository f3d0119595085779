// Package config manages configuration for the storefront e2e suite.
//
// Configuration comes from environment variables. An optional dotenv file
// (E2E_ENV_FILE, default .env.e2e) is read first; variables already present
// in the environment win over the file.
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//
// # Configuration Groups
//
//   - DatabaseConfig: SurrealDB connection settings
//   - APIConfig: storefront backend base URL and request timeout
//   - BrowserConfig: Playwright settings and the lanes of this run
//   - SeedConfig: seed tag, filler data, cleanup and reset opt-ins
//   - LogConfig: slog level and output format
//
// # Environment Variables
//
// Key environment variables:
//
//	DB_HOST, DB_PORT      - SurrealDB address (default: localhost:8000)
//	DB_NAMESPACE          - Namespace (default: storefront)
//	DB_DATABASE           - Database (default: e2e)
//	API_BASE_URL          - Backend API (default: http://localhost:8080)
//	BASE_URL              - Storefront UI (default: http://localhost:3000)
//	E2E_LANES             - Comma-separated lanes to seed (default: default)
//	E2E_LANE              - Lane of this process; empty means sequential
//	E2E_CLEANUP           - Remove seeded records after the run (default: false)
//	E2E_RESET_DATABASE    - Permit truncating fixture tables (default: false)
//	E2E_LOG_LEVEL         - debug, info, warn, error (default: info)
//	E2E_LOG_FORMAT        - text or json (default: text)
package config

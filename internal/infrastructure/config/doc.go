// Package config handles loading and validating gatekeeper configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with GATEKEEPER_* environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - The session secret should be set via GATEKEEPER_SESSION_SECRET, never committed
//   - The config file should have restricted permissions (0600)
//   - Cookies are marked Secure in every environment except development
//
// The loaded *Config is built once at startup and passed explicitly to the
// components that need it; nothing in this package holds global state.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Session.CookieName)
package config

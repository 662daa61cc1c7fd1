// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: PostgreSQL connection string or SQLite file (required)
  - DatabaseType: "sqlite" (default) or "postgres"
  - TokenSecret: HMAC secret for bearer tokens (required)

# CLI Flags

	-p             Server port
	-d             Database URL
	-t             Database type
	-token-secret  Bearer token secret
	-env-file      Env file to load (default: .env if present)

# Environment Variables

Flags fall back to environment variables:

	PORT          → -p
	DATABASE_URL  → -d
	DATABASE_TYPE → -t
	TOKEN_SECRET  → -token-secret

CLI flags take precedence over environment variables, and variables
already in the environment take precedence over the env file.

# Validation

ParseFlags returns an error if required values are missing or invalid:

  - DATABASE_URL must be provided
  - DATABASE_TYPE must be sqlite or postgres
  - TOKEN_SECRET must be provided

# Example

	// In main.go
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	// ...
	mux := router.NewRouter(conn, cfg)
*/
package cliparse

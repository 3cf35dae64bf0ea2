// Package database handles database connections and schema inspection.
//
// It provides a wrapper around GORM (Go Object Relational Mapping) to configure
// MySQL or SQLite connections based on the application's configuration. The
// database backs the persistent property store that holds the identifier map
// and cached remote credentials.
//
// # Connect
//
// Connect opens the configured dialector, applies pool settings and verifies
// the connection with a ping bounded by TimeoutSeconds. SQLite connections are
// limited to a single open connection so in-memory databases behave as one
// shared database.
//
// # Schema Inspection
//
// GetTableColumns lists a table's columns for either dialect. MissingColumns
// compares them against an expected set and is used after migrations to make
// sure an existing table was not created by an incompatible schema.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	missing, err := database.MissingColumns(db, "properties", "scope", "name", "value")
package database

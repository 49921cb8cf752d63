// Package store persists accounts, profiles and refresh-token bookkeeping in
// a relational database through gorm.
//
// Postgres is the production driver; sqlite serves tests and the dev server.
// The schema is owned by the goose migrations embedded in this package, so
// both drivers run the same DDL:
//
//	db, err := store.Open(ctx, store.Config{Driver: "postgres", DSN: dsn}, logger)
//	if err != nil { ... }
//	if err := db.Migrate(ctx); err != nil { ... }
//
//	engine, err := mailAuth.New().
//	    WithUserStore(db.Users()).
//	    WithTokenStore(db.Tokens()).
//	    ...
//	    Build()
package store

// Package propstore provides the persistent key/value property store.
//
// A sync relationship keeps two kinds of state between runs: the identifier
// map linking source item keys to remote UUIDs, and the cached remote device
// credentials. Both live in one flat string mapping per relationship, with two
// reserved keys (KeyDeviceToken, KeyDeviceID) carved out of the namespace.
//
// # Implementations
//
//   - GormStore keeps properties in a "properties" table keyed by (scope, name),
//     working on MySQL and SQLite through core/database.
//   - MemoryStore keeps properties in process memory, for tests and dry runs.
//
// # Usage
//
//	store := propstore.NewGormStore(db, "default")
//	if err := store.Migrate(ctx); err != nil {
//	    return err
//	}
//	props, err := store.GetAll(ctx)
package propstore

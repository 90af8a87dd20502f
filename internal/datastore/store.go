// Package datastore exports the assembled catalog into a local SQLite
// database for ad-hoc querying.
package datastore

import "github.com/mkorpi/alexandria/internal/catalog"

// Store defines the interface for local SQLite storage
type Store interface {
	// Connect establishes a connection to the data store
	Connect() error

	// ExportCatalog replaces the stored book rows with the given catalog
	ExportCatalog(cat *catalog.Catalog) error

	// Close closes the connection to the data store
	Close() error
}

// Package core defines the shared language of the leapgate system.
//
// This package contains:
//   - Result and catalog types (ResultSet, TableMetadata, Column, ForeignKey, Date)
//   - The store contract (Adapter) and its configuration (AdapterConfig)
//   - Dialect data used for quoting and placeholders (DialectConfig)
//   - The request error taxonomy (ErrNoData, StoreError, ...)
//
// The Golden Rule: pkg/core imports ONLY the standard library.
// All other packages depend on core, not the reverse.
package core

// Package adapter provides the database adapter contract, the shared
// database/sql implementation, and the adapter registry for leapgate.
//
// Concrete adapter implementations are in pkg/adapters/ subdirectories and
// register themselves from init().
package adapter

import "github.com/leapstack-labs/leapgate/pkg/core"

// Type aliases for the core types adapters exchange.
type (
	// Adapter is an alias for core.Adapter.
	Adapter = core.Adapter

	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Column is an alias for core.Column.
	Column = core.Column

	// Metadata is an alias for core.TableMetadata.
	Metadata = core.TableMetadata

	// ResultSet is an alias for core.ResultSet.
	ResultSet = core.ResultSet
)

// SampleLimit is the number of rows fetched for schema samples.
const SampleLimit = 5

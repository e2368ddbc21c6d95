// Package utils provides small type conversion helpers.
//
// The ERP database rows arrive as map[string]any with driver-dependent value
// types (MySQL returns []byte for most columns), so these helpers normalize
// values before they reach comparison or payload-building code.
package utils

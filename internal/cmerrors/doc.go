// Package cmerrors defines error types for the cmake server client.
//
// This package provides structured error types for the failure scenarios of
// the protocol engine. All error types support error unwrapping and can be
// checked using errors.Is and errors.As.
package cmerrors

// Package utils provides common utility functions for the docsync application.
// It includes small generic helpers over slices and maps (chunking, set
// difference, map inversion) that are shared by the reconcile engine and the
// synchronizer and don't fit into a domain-specific package.
//
// Every helper is pure: inputs are never mutated and a fresh value is returned.
package utils

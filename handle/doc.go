// Package handle provides types for handle identifiers and naming-authority prefixes.
//
// These are simple string types for parsing and splitting identifiers, not routines for resolution. Resolution against remote repositories lives in the resolver package.
package handle

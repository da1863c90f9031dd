// Package internal holds cryptographic secret generation and expiry
// helpers shared by the bookauth engine. Nothing here is part of the
// public API.
package internal

// Package domain holds the core model types and the interfaces the feed
// consistency layer is built against. It has no dependencies on transport,
// storage, or broker implementations.
package domain

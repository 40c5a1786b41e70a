// Package warmup warms website caches. It discovers target URLs from XML
// sitemaps and explicit input, then requests every URL concurrently so that
// caches in front of the origin are populated.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., http/, sqlite/, rod/).
package warmup

// Package docscrape crawls documentation sites and stores their pages
// locally. It drives a pool of workers over a deduplicating URL queue,
// fetching through a pooled, rate-limited HTTP client and handing each
// page to a pluggable processor. Runs can be checkpointed and resumed.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, http/, goquery/).
package docscrape

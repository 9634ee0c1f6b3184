// Package services holds the catalog runtime: the driver registry, the
// catalog stack, the resolver that walks storage/loader candidates, and the
// writer path. Every externally visible step is an advice site, so
// extensions registered on the Runtime can observe or rewrite it.
//
// Services depend only on domain, advice and the port interfaces; concrete
// drivers and stores are injected by cmd/datacat.
package services

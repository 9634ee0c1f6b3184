// Package drivers provides the built-in storage, loader and writer drivers.
// Each driver lives in its own package and knows how to move data of a few
// declared type tags; RegisterDefaults wires them into a driver registry at
// startup.
package drivers

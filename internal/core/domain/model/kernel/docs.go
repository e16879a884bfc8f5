// Package kernel holds the value objects shared by every aggregate of the
// fulfillment domain: identifiers (UUID) and delivery addresses (Address,
// ZoneID). Values are immutable and their zero values fail validation.
package kernel

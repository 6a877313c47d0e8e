// Package timezone centralizes clock access so that every timestamp the
// service persists or renders is in the configured application timezone.
package timezone

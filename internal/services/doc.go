// Package services defines the shared error taxonomy and context annotation
// helpers used across the scan pipeline and its collaborators.
package services

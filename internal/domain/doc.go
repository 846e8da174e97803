// Package domain holds the JSON shapes of the health records whose alarms
// are managed by this service. Field names match the stored documents.
package domain

// Package types contains common types used across the application
package types

// ImportSummary reports the outcome of one scanned message.
type ImportSummary struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Rows      int    `json:"rows"`
	Preserved int    `json:"preserved,omitempty"`
	Duplicate bool   `json:"duplicate"`
}

// Package util provides small generic helpers for optional values.
package util

// Package models contains the GORM persistence models of the store catalog.
// Column tags keep the camelCase names used by the admin API so that generic
// map-based access and typed access see the same schema.
package models

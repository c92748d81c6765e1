// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Every model carries ToDomain and a FromDomain constructor. CHECK and UNIQUE tags
// repeat the constraints of the SQL migrations so that schemas created with
// AutoMigrate in tests enforce the same rules as production.
package models

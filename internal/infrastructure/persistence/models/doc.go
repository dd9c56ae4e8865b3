// Package models contains GORM persistence models that map to database tables.
// Domain entities stay free of ORM tags; each model converts to and from its
// entity with ToDomain/FromDomain, and repositories only touch models.
//
// Slice-valued fields without their own lifecycle (task attachments, review
// comments, notification metadata) are stored as JSON columns. Membership
// sets (project members, task assignees) live in join tables so they can be
// queried and changed atomically.
package models

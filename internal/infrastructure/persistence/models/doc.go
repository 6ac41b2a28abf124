// Package models contains GORM persistence models that map to database tables.
// Domain types stay free of ORM tags; each model converts to and from its
// domain counterpart with ToDomain / <Model>FromDomain.
//
// Structure:
//   - base.go: shared columns (BaseModel, AggregateModel, TenantModel)
//   - mess.go: messes and members
//   - ledger.go: working data of the open period (meals, bazar, deposits, additional costs)
//   - archive.go: settlement archives and their member lines
//   - messaging.go: messages and inbox deliveries
//   - identity.go: login accounts
package models

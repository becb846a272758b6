// Package maintenance holds the repository-backed services of upkeep.
//
// Catalog manages item-type-level maintenance templates. Planner turns a
// template into a per-item plan, validating any custom interval against the
// template's schema. Forecaster answers due-date and usage questions from
// plans, task history, and forecast references. Inventory manages the item
// types, task types, items, and completed tasks the others consume.
//
// Every service fails fast with an error wrapping one of the sentinels in
// pkg/types and leaves the store unchanged on failure.
package maintenance

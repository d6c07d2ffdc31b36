// Package tables registers the four nutrient source tables with the core
// catalog. Import this package to ensure all tables are registered.
package tables

// Each table file uses init() to register its table.

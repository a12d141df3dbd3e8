// Package db provides embedded database schema and migration files.
package db

import _ "embed"

// Schema contains the DDL for the shops, products, coupons, and orders tables.
//
//go:embed migrations/001_schema.sql
var Schema string

// Package db provides the embedded order schema and seed fixtures.
package db

import _ "embed"

// Schema contains the DDL statements for the order header and line item tables.
//
//go:embed migrations/001_schema.sql
var Schema string

// SampleOrders is the default fixture loaded by cmd/seed-db.
//
//go:embed seed/orders.json
var SampleOrders []byte

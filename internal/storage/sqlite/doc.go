// Package sqlite persists planning runs in a SQLite database.
//
// All database read/write operations for planner runs belong here rather
// than in the planning layer packages (L1-L5), keeping domain logic free of
// SQL. The schema is managed by golang-migrate from migrations embedded in
// the binary.
package sqlite

// Package interval validates custom interval values against the schema a
// maintenance template declares, and converts human interval input such as
// "2 weeks" into days.
//
// Everything here is pure: no I/O, no clock, no shared state.
package interval

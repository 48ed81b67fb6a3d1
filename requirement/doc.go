// Package requirement parses and evaluates data-availability requirements.
//
// A requirement names the kinds of data a study must carry to be selected:
//
//	coordinates AND z
//	beta AND sample_size OR z
//	coordinates AND NOT t
//
// The grammar is deliberately small. AND binds tighter than OR, NOT applies to a
// single clause, and keywords are case-sensitive and space-delimited:
//
//	expr   := term { " OR " term }
//	term   := clause { " AND " clause }
//	clause := [ "NOT " ] name
//
// Clause names are resolved against a Vocabulary when the requirement is parsed.
// An unknown name fails with *UnknownClauseError instead of silently evaluating
// to false.
package requirement

// Package lif decodes the flat files exchanged with the timing system.
//
// The timing system writes results as comma separated text files (".lif").
// Lines are weakly structured: a file interleaves event header lines and
// athlete result lines, and the only way to tell them apart is a heuristic
// over the leading fields. This package reproduces that heuristic so the
// agent classifies lines the same way the competition platform expects.
//
// # Line Classification
//
// Every non-blank line that does not start with ";" is split on commas.
// Missing trailing fields read as the empty string.
//
//   - Metadata: at least 4 fields, field 0 set and not a position token
//     (DNS, DNF, DQ or digits), and field 3 at least 3 characters long.
//     A line whose field 0 is numeric but that has no license number
//     (field 7) is also treated as metadata, since it can never produce
//     a result record.
//   - Result: at least 6 fields and field 0 is digits, DNS, DNF or DQ.
//   - Anything else is ignored.
//
// # Decoder State
//
// A metadata line updates the decoder's current EventInfo and produces no
// record. Every result record decoded afterwards carries a copy of that
// EventInfo. The state belongs to a single file: Decode always resets the
// decoder before reading, and callers driving DecodeLine directly must call
// Reset between files.
//
// # Exported Formats
//
// ParseStartList and ParseSchedule read back the ".evt" and ".sch" files the
// agent writes for the timing system. They are used to validate exports.
package lif

// Package core provides the survey validation engine.
//
// This package holds all domain logic independent of any transport or file
// format. The HTTP server, the CLI, and tests drive it the same way: build a
// [Dataset], parse a rule table into [Rule] values, and hand both to
// [Service.Run] or directly to [Validator.Validate].
//
// # Data Model
//
// A [Dataset] is a column-major table keyed by a respondent id column
// (default [DefaultIDColumn]). Each cell is a [Value]: absent, numeric, or
// text. Datasets are immutable once built and safe for concurrent readers.
//
// # Rules
//
// A rule-table row names a question token, a semicolon list of check types,
// and a semicolon list of conditions aligned by position:
//
//	Question  Check_Type            Condition
//	Q1        Range;Missing         1-5;
//	Q3_       Skip                  if Q2 = 1 then Q3_
//	Q5        Multi-Select
//
// A question token resolves to an exact column, or to every column starting
// with it. Skip targets additionally accept "A1 to A5" ranges.
//
// # Skip Logic
//
// Every gated skip rule is evaluated before any check runs. Its "if" clause
// selects the respondents routed to the target columns; those respondents are
// expected to answer and everyone else is expected to leave the target blank.
// Rules sharing a target are ORed. The resulting [Applicability] masks are
// consulted by every check, so a Missing check never flags a respondent who
// was legitimately skipped.
//
// # Output
//
// Validation produces [Violation] records in a deterministic order: rule,
// then check, then column, then respondent. A nil RespondentID marks a
// rule-level diagnostic such as an unparsable condition or an unknown column.
//
// [Plan] resolves the same rules without running any check, reporting which
// columns each question reaches and which diagnostics a run would emit.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - DATA001-DATA005: Dataset errors (id column, duplicate ids)
//   - RULE001-RULE002: Rule table errors
//   - FILE001-FILE005: File errors (size, format, empty)
//   - RUN001-RUN005: Run errors (busy, cancelled, timeout, data source)
package core

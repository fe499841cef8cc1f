// Package logging builds the process-wide structured logger with
// optional PHI redaction.
//
// The logger is a standard *slog.Logger; components receive it by
// injection and attach a "component" attribute. With redaction enabled,
// every record is scrubbed before reaching the output handler: values
// matching PHI patterns (SSN, MRN, phone, email, date of birth, plus
// configured custom patterns) are masked, and fields whose names
// indicate PHI are masked wholesale regardless of value.
package logging

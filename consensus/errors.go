package consensus

import "fmt"

// FormatError reports an input source that cannot be parsed, typically because
// it lacks the "#CHROM" header line. Ingest recovers from it by skipping the
// source.
type FormatError struct {
	// Source is the path or name of the offending input.
	Source string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %s", e.Source, e.Reason)
}

// EmptyInputError reports that there is nothing to filter: no sources, no
// parseable sources, or no records at all. It is fatal for a whole run. Within
// a multi-sample run an empty sample is only logged.
type EmptyInputError struct {
	Reason string
}

func (e *EmptyInputError) Error() string {
	return "empty input: " + e.Reason
}

// ConfigError reports invalid run parameters. It is raised before any input is
// read.
type ConfigError struct {
	Reason string
	// Err is the underlying cause, if any.
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config: %s: %v", e.Reason, e.Err)
	}
	return "config: " + e.Reason
}

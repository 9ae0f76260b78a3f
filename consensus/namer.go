package consensus

import (
	"regexp"

	"github.com/grailbio/base/file"
)

// Unknown is substituted when a sample or tool name cannot be extracted from a
// source name.
const Unknown = "unknown"

// Default file naming convention, e.g.
// "S1_R1_001_temp2_nonredundant_non-reference_siteonly.vcf" is sample "S1"
// and tool "temp2".
const (
	DefaultSamplePattern = `(.+?)_R1`
	DefaultToolPattern   = `001_(.+?)_nonredundant`
)

// Namer derives the sample and tool that produced a source from the source
// name. It is the only link between a record and its sample and tool, so the
// naming convention is injected rather than fixed.
type Namer interface {
	Name(source string) (sample, tool string)
}

// NamerFunc adapts a function to the Namer interface.
type NamerFunc func(source string) (sample, tool string)

// Name implements Namer.
func (f NamerFunc) Name(source string) (sample, tool string) { return f(source) }

// PatternNamer extracts the sample and tool from the base name of a source
// using the first capture group of each pattern. A pattern that does not match
// yields Unknown.
type PatternNamer struct {
	Sample *regexp.Regexp
	Tool   *regexp.Regexp
}

// DefaultNamer implements the default naming convention.
var DefaultNamer = PatternNamer{
	Sample: regexp.MustCompile(DefaultSamplePattern),
	Tool:   regexp.MustCompile(DefaultToolPattern),
}

// NewPatternNamer compiles the two expressions. An empty expression selects
// the default. Each expression must have at least one capture group.
func NewPatternNamer(sampleExpr, toolExpr string) (PatternNamer, error) {
	compile := func(what, expr, def string) (*regexp.Regexp, error) {
		if expr == "" {
			expr = def
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, &ConfigError{Reason: what + " pattern " + expr, Err: err}
		}
		if re.NumSubexp() < 1 {
			return nil, &ConfigError{Reason: what + " pattern " + expr + " has no capture group"}
		}
		return re, nil
	}
	var (
		n   PatternNamer
		err error
	)
	if n.Sample, err = compile("sample", sampleExpr, DefaultSamplePattern); err != nil {
		return n, err
	}
	if n.Tool, err = compile("tool", toolExpr, DefaultToolPattern); err != nil {
		return n, err
	}
	return n, nil
}

// Name implements Namer.
func (n PatternNamer) Name(source string) (sample, tool string) {
	base := file.Base(source)
	return firstGroup(n.Sample, base), firstGroup(n.Tool, base)
}

func firstGroup(re *regexp.Regexp, s string) string {
	if re == nil {
		return Unknown
	}
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return Unknown
	}
	return m[1]
}

package plan

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/samber/lo"

	"github.com/chazu/alphasquared/pkg/export"
	"github.com/chazu/alphasquared/pkg/glyph"
)

// ValidationSeverity indicates whether a validation finding blocks the run
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks the run
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Field    string             // which plan field has the problem
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Field, e.Message)
}

// ValidationResult bundles errors (blocking) and warnings (advisory)
// from all validation tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether the plan may run.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Validate runs the structural checks: every field is in range and every
// name resolves. An empty slice means the plan is valid. Validate never
// mutates the plan.
func Validate(p *Plan) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateDimensions(p)...)
	errs = append(errs, validateAlphabets(p)...)
	errs = append(errs, validateOrientations(p)...)
	errs = append(errs, validateOutput(p)...)
	errs = append(errs, validateKernel(p)...)
	return errs
}

// ValidateAll runs all validation tiers (structural, geometric, resources)
// and returns a ValidationResult with separated errors and warnings.
func ValidateAll(p *Plan) ValidationResult {
	var result ValidationResult
	findings := Validate(p)
	findings = append(findings, validateGeometry(p)...)
	findings = append(findings, validateResources(p)...)
	for _, f := range findings {
		if f.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, f)
		} else {
			result.Errors = append(result.Errors, f)
		}
	}
	return result
}

func errorf(field, format string, args ...any) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Severity: SeverityError}
}

func warnf(field, format string, args ...any) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Severity: SeverityWarning}
}

func validateDimensions(p *Plan) []ValidationError {
	var errs []ValidationError
	if !(p.Size > 0) {
		errs = append(errs, errorf("size", "must be positive, got %g", p.Size))
	}
	if p.Thickness < 0 {
		errs = append(errs, errorf("thickness", "must not be negative, got %g", p.Thickness))
	}
	if p.Workers < 0 {
		errs = append(errs, errorf("workers", "must not be negative, got %d", p.Workers))
	}
	if p.MeshCells < 8 {
		errs = append(errs, errorf("resolution", "needs at least 8 cells, got %d", p.MeshCells))
	}
	return errs
}

func validateAlphabets(p *Plan) []ValidationError {
	var errs []ValidationError
	for _, a := range []struct {
		field string
		value string
	}{{"first", p.First}, {"second", p.Second}} {
		if len(Normalize(a.value)) == 0 {
			errs = append(errs, errorf(a.field, "alphabet has no visible characters"))
		}
	}
	return errs
}

func validateOrientations(p *Plan) []ValidationError {
	var errs []ValidationError
	for _, o := range []struct {
		field string
		name  string
	}{{"first-orientation", p.FirstOrientation}, {"second-orientation", p.SecondOrientation}} {
		if _, err := glyph.LookupOrientation(o.name); err != nil {
			errs = append(errs, errorf(o.field, "%v", err))
		}
	}
	return errs
}

func validateOutput(p *Plan) []ValidationError {
	var errs []ValidationError
	if p.Output == "" {
		errs = append(errs, errorf("output", "no output directory"))
	}
	if _, err := export.ParseFormat(p.Format); err != nil {
		errs = append(errs, errorf("format", "%v", err))
	}
	return errs
}

func validateKernel(p *Plan) []ValidationError {
	if !lo.Contains(Kernels, p.KernelName()) {
		return []ValidationError{errorf("kernel", "unknown kernel %q (known: %s)", p.Kernel, strings.Join(Kernels, ", "))}
	}
	return nil
}

// validateGeometry flags plans that run but produce odd results.
func validateGeometry(p *Plan) []ValidationError {
	var warns []ValidationError
	if p.FirstOrientation == p.SecondOrientation {
		warns = append(warns, warnf("orientations",
			"both alphabets use %s; each cross-shape is just the overlap of two flat letters", p.FirstOrientation))
	}
	if p.Size > 0 && p.Thickness > 0 && p.Thickness < p.Size/2 {
		warns = append(warns, warnf("thickness",
			"%g mm is less than half the size; side views will be cropped", p.Thickness))
	}
	for _, a := range []struct {
		field string
		value string
	}{{"first", p.First}, {"second", p.Second}} {
		runes := []rune(a.value)
		if dups := lo.FindDuplicates(runes); len(dups) > 0 {
			warns = append(warns, warnf(a.field, "repeated characters %q are built once", string(dups)))
		}
		if lo.SomeBy(runes, unicode.IsSpace) {
			warns = append(warns, warnf(a.field, "whitespace is ignored"))
		}
	}
	if p.MeshCells > 400 {
		warns = append(warns, warnf("resolution", "%d cells per solid will be slow", p.MeshCells))
	}
	return warns
}

// validateResources checks files the run depends on.
func validateResources(p *Plan) []ValidationError {
	if p.Font == "" {
		return nil
	}
	info, err := os.Stat(p.Font)
	switch {
	case err != nil:
		return []ValidationError{errorf("font", "%v", err)}
	case info.IsDir():
		return []ValidationError{errorf("font", "%s is a directory", p.Font)}
	}
	return nil
}

package engine

import (
	"fmt"
	"sort"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/alphasquared/pkg/plan"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms job script source before passing it to
// zygomys. It performs three transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: out-dir -> out_dir
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
//  3. Line comments: ; and ;; become //, which is what zygomys reads.
//
// All transformations respect string literal boundaries.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// only fails when a keyword other than the allowed ones was given.
func (a kwArgs) only(allowed ...string) error {
	var unknown []string
	for name := range a.kw {
		found := false
		for _, ok := range allowed {
			if name == ok {
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, ":"+name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown keyword %s", strings.Join(unknown, ", "))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts a whole number from a Sexp.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_stl) and plain strings ("stl").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toAlphabet accepts either a string or a list/array of strings,
// concatenated in order.
func toAlphabet(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	items, err := sexpListToSlice(s)
	if err != nil {
		return "", fmt.Errorf("expected string or list of strings: %w", err)
	}
	var b strings.Builder
	for _, item := range items {
		switch v := item.(type) {
		case *zygo.SexpStr:
			b.WriteString(v.S)
		default:
			return "", fmt.Errorf("expected string in alphabet, got %T (%s)", item, item.SexpString(nil))
		}
	}
	return b.String(), nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

type builtin = func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error)

// registerBuiltins installs the job script builtins into a zygomys
// environment. Every builtin writes straight into p.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, p *plan.Plan) {

	// -----------------------------------------------------------------------
	// (font "fonts/Inter.ttf")
	// -----------------------------------------------------------------------
	env.AddFunction("font", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("font requires exactly one path argument")
		}
		path, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("font: %w", err)
		}
		p.Font = path
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (size 40) (thickness 20)
	// -----------------------------------------------------------------------
	number := func(field string, dst *float64) builtin {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 1 {
				return zygo.SexpNull, fmt.Errorf("%s requires exactly one number", field)
			}
			f, err := toFloat64(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", field, err)
			}
			*dst = f
			return zygo.SexpNull, nil
		}
	}
	env.AddFunction("size", number("size", &p.Size))
	env.AddFunction("thickness", number("thickness", &p.Thickness))

	// -----------------------------------------------------------------------
	// (workers 4) (resolution 96)
	// -----------------------------------------------------------------------
	integer := func(field string, dst *int) builtin {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 1 {
				return zygo.SexpNull, fmt.Errorf("%s requires exactly one integer", field)
			}
			n, err := toInt(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", field, err)
			}
			*dst = n
			return zygo.SexpNull, nil
		}
	}
	env.AddFunction("workers", integer("workers", &p.Workers))
	env.AddFunction("resolution", integer("resolution", &p.MeshCells))

	// -----------------------------------------------------------------------
	// (alphabets "ABC" "012")
	// (alphabets :first "ABC" :second ["0" "1" "2"])
	// -----------------------------------------------------------------------
	env.AddFunction("alphabets", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("first", "second"); err != nil {
			return zygo.SexpNull, fmt.Errorf("alphabets: %w", err)
		}
		first, hasFirst := pa.kw["first"]
		second, hasSecond := pa.kw["second"]
		switch len(pa.positional) {
		case 0:
		case 2:
			if hasFirst || hasSecond {
				return zygo.SexpNull, fmt.Errorf("alphabets: give either two positional alphabets or :first/:second")
			}
			first, second = pa.positional[0], pa.positional[1]
			hasFirst, hasSecond = true, true
		default:
			return zygo.SexpNull, fmt.Errorf("alphabets: expected 2 positional alphabets, got %d", len(pa.positional))
		}
		if hasFirst {
			a, err := toAlphabet(first)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("alphabets: first: %w", err)
			}
			p.First = a
		}
		if hasSecond {
			a, err := toAlphabet(second)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("alphabets: second: %w", err)
			}
			p.Second = a
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (orientations :first :identity :second :rotate-y-90)
	// (orientations :identity :rotate-y-270)
	// -----------------------------------------------------------------------
	env.AddFunction("orientations", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		// Positional keywords look like keyword/value pairs to parseArgs,
		// so the two spellings are told apart before parsing.
		if len(args) == 2 {
			if k, ok := isKW(args[0]); ok && k != "first" && k != "second" {
				args = []zygo.Sexp{&zygo.SexpStr{S: kwPrefix + "first"}, args[0], &zygo.SexpStr{S: kwPrefix + "second"}, args[1]}
			}
		}
		pa := parseArgs(args)
		if err := pa.only("first", "second"); err != nil {
			return zygo.SexpNull, fmt.Errorf("orientations: %w", err)
		}
		if len(pa.positional) > 0 {
			return zygo.SexpNull, fmt.Errorf("orientations: unexpected positional argument %s", pa.positional[0].SexpString(nil))
		}
		if v, ok := pa.kw["first"]; ok {
			s, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("orientations: first: %w", err)
			}
			p.FirstOrientation = s
		}
		if v, ok := pa.kw["second"]; ok {
			s, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("orientations: second: %w", err)
			}
			p.SecondOrientation = s
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (kernel :manifold) (kernel "sdfx")
	// -----------------------------------------------------------------------
	env.AddFunction("kernel", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("kernel requires exactly one name")
		}
		k, err := toKeywordString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("kernel: %w", err)
		}
		p.Kernel = k
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (output "out/cross" :format :json)
	// -----------------------------------------------------------------------
	env.AddFunction("output", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("format"); err != nil {
			return zygo.SexpNull, fmt.Errorf("output: %w", err)
		}
		switch len(pa.positional) {
		case 0:
		case 1:
			dir, err := toString(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("output: directory: %w", err)
			}
			p.Output = dir
		default:
			return zygo.SexpNull, fmt.Errorf("output takes at most one directory")
		}
		if v, ok := pa.kw["format"]; ok {
			f, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("output: format: %w", err)
			}
			p.Format = f
		}
		return zygo.SexpNull, nil
	})
}

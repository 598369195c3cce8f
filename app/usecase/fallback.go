package usecase

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	defaultFunctionName = "generated_function"
	maxFallbackArgs     = 255
)

var (
	defNameRe       = regexp.MustCompile(`def\s+([A-Za-z_]\w*)\s*\(`)
	namedRe         = regexp.MustCompile(`named\s+([A-Za-z_]\w*)`)
	functionThatRe  = regexp.MustCompile(`(?i)function\s+that\s+([a-zA-Z ]+)`)
	argCountRe      = regexp.MustCompile(`(?i)takes\s+(\d+)\s+(?:argument|parameter)s?`)
	sumIntentRe     = regexp.MustCompile(`(?i)add|sum|plus|total`)
	factorialIntent = regexp.MustCompile(`(?i)factorial`)
)

var pythonKeywords = map[string]struct{}{
	"False": {}, "None": {}, "True": {}, "and": {}, "as": {}, "assert": {},
	"async": {}, "await": {}, "break": {}, "class": {}, "continue": {},
	"def": {}, "del": {}, "elif": {}, "else": {}, "except": {}, "finally": {},
	"for": {}, "from": {}, "global": {}, "if": {}, "import": {}, "in": {},
	"is": {}, "lambda": {}, "nonlocal": {}, "not": {}, "or": {}, "pass": {},
	"raise": {}, "return": {}, "try": {}, "while": {}, "with": {}, "yield": {},
}

// FallbackFunction is a minimal Python function inferred from a description.
type FallbackFunction struct {
	Name string
	Args []string
	// Body lines relative to the function indentation.
	Body []string
}

// InferFallback builds a heuristic function for descriptions the model
// could not answer with valid Python.
func InferFallback(description string) FallbackFunction {
	args := InferArguments(description)
	return FallbackFunction{
		Name: InferFunctionName(description),
		Args: args,
		Body: fallbackBody(description, args),
	}
}

// InferFunctionName tries an explicit "def name(", then "named name", then
// the first word after "function that". Python keywords get a trailing
// underscore so the result stays a legal identifier.
func InferFunctionName(description string) string {
	name := defaultFunctionName
	if m := defNameRe.FindStringSubmatch(description); m != nil {
		name = m[1]
	} else if m := namedRe.FindStringSubmatch(description); m != nil {
		name = m[1]
	} else if m := functionThatRe.FindStringSubmatch(description); m != nil {
		if words := strings.Fields(m[1]); len(words) > 0 {
			name = words[0]
		}
	}
	if _, ok := pythonKeywords[name]; ok {
		name += "_"
	}
	return name
}

// InferArguments returns arg1..argN for "takes N arguments", clamped to
// [1, 255], and a, b otherwise.
func InferArguments(description string) []string {
	m := argCountRe.FindStringSubmatch(description)
	if m == nil {
		return []string{"a", "b"}
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		// Only digits match, so this is an overflow.
		n = maxFallbackArgs
	}
	n = max(1, min(n, maxFallbackArgs))
	args := make([]string, n)
	for i := range args {
		args[i] = "arg" + strconv.Itoa(i+1)
	}
	return args
}

func fallbackBody(description string, args []string) []string {
	switch {
	case sumIntentRe.MatchString(description):
		if len(args) >= 2 {
			return []string{"return " + args[0] + " + " + args[1]}
		}
		return []string{"return " + args[0]}
	case factorialIntent.MatchString(description):
		n := args[0]
		return []string{
			"if " + n + " < 2:",
			"    return 1",
			"result = 1",
			"for i in range(2, " + n + " + 1):",
			"    result *= i",
			"return result",
		}
	default:
		return []string{"return None"}
	}
}

// Source renders the function as Python source.
func (f FallbackFunction) Source() string {
	var b strings.Builder
	b.WriteString("def ")
	b.WriteString(f.Name)
	b.WriteString("(")
	b.WriteString(strings.Join(f.Args, ", "))
	b.WriteString("):\n")
	for _, ln := range f.Body {
		b.WriteString("    ")
		b.WriteString(ln)
		b.WriteString("\n")
	}
	return b.String()
}

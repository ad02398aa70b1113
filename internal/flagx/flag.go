// Package flagx lets several components parse their own subset of the
// process command line without tripping over each other's flags.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs returns only the allowed flags (and their values) from args.
//
// Supported formats:
//  1. Flag and value as separate arguments:  -c conf.json
//  2. Flag and value combined with '=':      -config=conf.json
//
// A bare flag followed by another flag, or by nothing, is kept without a
// value so boolean flags still work.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// StringValue returns the value of the last occurrence of any of the named
// string flags in args, ignoring everything else on the command line.
// Names are given without the leading dash. It returns "" when none is set.
func StringValue(args []string, names ...string) string {
	var value string

	fs := flag.NewFlagSet(names[0], flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	allowed := make([]string, 0, len(names))
	for _, n := range names {
		fs.StringVar(&value, n, "", "")
		allowed = append(allowed, "-"+n)
	}
	_ = fs.Parse(FilterArgs(args, allowed))

	return value
}

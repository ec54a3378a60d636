// Package flagx helps several flag sets share one command line. The config
// loader parses its flags in multiple passes (config file first, then the
// overrides), so each pass has to see only the flags it owns.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs keeps only the arguments belonging to the flags listed in
// allowedFlags and drops everything else. Both the "-f value" and the
// "-f=value" forms are recognized; in the first form the value is kept
// together with its flag unless the next token starts with a dash.
//
// The result is never nil, so it can be handed to flag.FlagSet.Parse directly.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, name := range allowedFlags {
		allowed[name] = struct{}{}
	}

	kept := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if eq := strings.IndexByte(arg, '='); eq > 0 && strings.HasPrefix(arg, "-") {
			if _, ok := allowed[arg[:eq]]; ok {
				kept = append(kept, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; !ok {
			continue
		}
		kept = append(kept, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			kept = append(kept, args[i+1])
			i++
		}
	}
	return kept
}

// JsonConfigFlags returns the config file path given via -c or -config,
// or "" when neither flag is present. Other flags on the command line are
// left for the caller to parse.
func JsonConfigFlags() string {
	args := FilterArgs(os.Args[1:], []string{"-c", "-config"})

	var path string
	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "Path to config file")
	fs.StringVar(&path, "c", "", "Path to config file (short)")
	_ = fs.Parse(args)

	return path
}

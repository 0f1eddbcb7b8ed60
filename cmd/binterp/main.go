// Command binterp parses a binary file against a declarative schema and
// prints the resulting value tree.
//
// Usage:
//
//	binterp <schema-file> <binary-file> [flags]
//
// Flags:
//
//	-o <file>          output path (default stdout)
//	--pretty           pretty-print the output
//	--no-pretty        do not pretty-print the output
//	-f json|yaml       output format (default json)
//	--field <path>     extract a single subtree by dot path
//	--no-validate      skip schema validation
//	--strict           promote validator warnings to errors
//	-q                 suppress progress output
//	-h                 print this help message
//	-v                 print version information
//
// Exit codes: 0 success, 1 general error, 2 usage error, 3 schema
// validation error.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/tidwall/gjson"

	"github.com/blockberries/binterp/pkg/binterp"
	"github.com/blockberries/binterp/pkg/interp"
)

const version = "0.1.0"

const usageText = `Usage: binterp <schema-file> <binary-file> [flags]

Flags:
  -o <file>        output path (default stdout)
  --pretty         pretty-print the output
  --no-pretty      do not pretty-print the output
  -f json|yaml     output format (default json)
  --field <path>   extract a single subtree by dot path
  --no-validate    skip schema validation
  --strict         promote validator warnings to errors
  -q               suppress progress output
  -h               print this help message
  -v               print version information
`

type config struct {
	schemaFile string
	binaryFile string
	outPath    string
	pretty     *bool
	format     string
	field      string
	noValidate bool
	strict     bool
	quiet      bool
	help       bool
	showVer    bool
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, positional, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprint(os.Stderr, usageText)
		return 2
	}
	if cfg.help {
		fmt.Fprint(os.Stdout, usageText)
		return 0
	}
	if cfg.showVer {
		fmt.Fprintln(os.Stdout, "binterp "+version)
		return 0
	}
	if len(positional) != 2 {
		fmt.Fprintln(os.Stderr, "error: expected exactly two positional arguments: <schema-file> <binary-file>")
		fmt.Fprint(os.Stderr, usageText)
		return 2
	}
	cfg.schemaFile, cfg.binaryFile = positional[0], positional[1]

	if cfg.format != "json" && cfg.format != "yaml" {
		fmt.Fprintf(os.Stderr, "error: unknown format %q (want json or yaml)\n", cfg.format)
		return 2
	}

	return execute(cfg)
}

func parseArgs(args []string) (config, []string, error) {
	cfg := config{format: "json"}
	var positional []string

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch a {
		case "-o":
			if i+1 >= len(args) {
				return cfg, nil, fmt.Errorf("error: -o requires a value")
			}
			i++
			cfg.outPath = args[i]
		case "--pretty":
			v := true
			cfg.pretty = &v
		case "--no-pretty":
			v := false
			cfg.pretty = &v
		case "-f":
			if i+1 >= len(args) {
				return cfg, nil, fmt.Errorf("error: -f requires a value")
			}
			i++
			cfg.format = args[i]
		case "--field":
			if i+1 >= len(args) {
				return cfg, nil, fmt.Errorf("error: --field requires a value")
			}
			i++
			cfg.field = args[i]
		case "--no-validate":
			cfg.noValidate = true
		case "--strict":
			cfg.strict = true
		case "-q":
			cfg.quiet = true
		case "-h", "--help":
			cfg.help = true
		case "-v", "--version":
			cfg.showVer = true
		default:
			if strings.HasPrefix(a, "-") && a != "-" {
				return cfg, nil, fmt.Errorf("error: unknown flag %q", a)
			}
			positional = append(positional, a)
		}
	}
	return cfg, positional, nil
}

func execute(cfg config) int {
	progress := func(format string, args ...any) {
		if !cfg.quiet {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}
	}

	schemaBytes, err := os.ReadFile(cfg.schemaFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: reading schema file: %v\n", err)
		return 1
	}
	data, err := os.ReadFile(cfg.binaryFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: reading binary file: %v\n", err)
		return 1
	}

	progress("parsing %s against %s", cfg.binaryFile, cfg.schemaFile)

	opts := binterp.Options{Validate: !cfg.noValidate, Strict: cfg.strict}
	root, err := binterp.Parse(string(schemaBytes), data, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if ierr, ok := err.(*interp.Error); ok && ierr.Kind == interp.KindValidation {
			return 3
		}
		return 1
	}

	progress("parse complete")

	tree := binterp.ToTree(root)

	var data2 any = tree
	if cfg.field != "" {
		raw, err := json.Marshal(tree)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: rendering result: %v\n", err)
			return 1
		}
		res := gjson.GetBytes(raw, cfg.field)
		if !res.Exists() {
			fmt.Fprintf(os.Stderr, "error: field %q not found in result\n", cfg.field)
			return 1
		}
		data2 = res.Value()
	}

	pretty := cfg.outPath == ""
	if cfg.pretty != nil {
		pretty = *cfg.pretty
	}

	var out []byte
	switch cfg.format {
	case "yaml":
		out, err = yaml.Marshal(data2)
	default:
		if pretty {
			out, err = json.MarshalIndent(data2, "", "  ")
		} else {
			out, err = json.Marshal(data2)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: rendering output: %v\n", err)
		return 1
	}
	if len(out) == 0 || out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}

	if cfg.outPath == "" {
		if _, err := os.Stdout.Write(out); err != nil {
			fmt.Fprintf(os.Stderr, "error: writing output: %v\n", err)
			return 1
		}
		return 0
	}
	if err := os.WriteFile(cfg.outPath, out, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "error: writing output file: %v\n", err)
		return 1
	}
	return 0
}

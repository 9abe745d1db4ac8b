// Command jtdbind decodes and re-encodes documents through the bindings of the
// demo registry, and prints the JTD schema a binding declares.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"reflect"
	"sort"

	j "github.com/goccy/go-json"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/reoring/jtdbind"
	demo "github.com/reoring/jtdbind/examples/jtddemo"
	jzap "github.com/reoring/jtdbind/log/zap"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch sub := os.Args[1]; sub {
	case "roundtrip":
		err = roundtripCmd(ctx, os.Args[2:], os.Stdin, os.Stdout)
	case "check":
		err = checkCmd(ctx, os.Args[2:], os.Stdin, os.Stdout)
	case "schema":
		err = schemaCmd(os.Args[2:], os.Stdout)
	case "types":
		err = typesCmd(os.Stdout)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "jtdbind:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `jtdbind CLI

Usage:
  jtdbind roundtrip --type T [--format json|yaml] [--dup error|warn|ignore] [file]
  jtdbind check     --type T [--format json|yaml] [file]
  jtdbind schema    --type T [--yaml]
  jtdbind types

Reads stdin when no file is given.`)
}

// entry dispatches a type name to the generic decode/encode functions.
type entry struct {
	typ    reflect.Type
	decode func(ctx context.Context, reg *jtdbind.Registry, src jtdbind.Source, opts ...jtdbind.Option) (any, error)
	encode func(reg *jtdbind.Registry, v any, opts ...jtdbind.Option) ([]byte, error)
}

func entryFor[W any]() entry {
	return entry{
		typ: reflect.TypeFor[W](),
		decode: func(ctx context.Context, reg *jtdbind.Registry, src jtdbind.Source, opts ...jtdbind.Option) (any, error) {
			return jtdbind.DecodeFrom[W](ctx, reg, src, opts...)
		},
		encode: func(reg *jtdbind.Registry, v any, opts ...jtdbind.Option) ([]byte, error) {
			return jtdbind.Marshal(reg, v.(W), opts...)
		},
	}
}

var entries = map[string]entry{
	"Name":      entryFor[demo.Name](),
	"Element":   entryFor[demo.Element](),
	"Elements":  entryFor[demo.Elements](),
	"Tags":      entryFor[demo.Tags](),
	"Score":     entryFor[demo.Score](),
	"Priority":  entryFor[demo.Priority](),
	"Nickname":  entryFor[demo.Nickname](),
	"Status":    entryFor[demo.Status](),
	"CreatedAt": entryFor[demo.CreatedAt](),
	"Extra":     entryFor[demo.Extra](),
}

func lookup(name string) (entry, error) {
	if name == "" {
		return entry{}, errors.New("--type is required")
	}
	e, ok := entries[name]
	if !ok {
		return entry{}, fmt.Errorf("unknown type %q (see: jtdbind types)", name)
	}
	return e, nil
}

type decodeFlags struct {
	typ      string
	format   string
	dup      string
	maxDepth int
	maxBytes int64
	verbose  bool
}

func (f *decodeFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.typ, "type", "t", "", "wrapper type name")
	fs.StringVarP(&f.format, "format", "f", "json", "input format: json or yaml")
	fs.StringVar(&f.dup, "dup", "error", "duplicate object keys: error, warn or ignore")
	fs.IntVar(&f.maxDepth, "max-depth", 0, "maximum nesting depth (0 = unlimited)")
	fs.Int64Var(&f.maxBytes, "max-bytes", 0, "maximum input size in bytes (0 = unlimited)")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log decoder events to stderr")
}

func (f *decodeFlags) options() ([]jtdbind.Option, func(), error) {
	var opts []jtdbind.Option
	switch f.dup {
	case "error":
		opts = append(opts, jtdbind.WithDuplicateKeys(jtdbind.Error))
	case "warn":
		opts = append(opts, jtdbind.WithDuplicateKeys(jtdbind.Warn))
	case "ignore":
		opts = append(opts, jtdbind.WithDuplicateKeys(jtdbind.Ignore))
	default:
		return nil, nil, fmt.Errorf("invalid --dup %q", f.dup)
	}
	if f.maxDepth > 0 {
		opts = append(opts, jtdbind.WithMaxDepth(f.maxDepth))
	}
	if f.maxBytes > 0 {
		opts = append(opts, jtdbind.WithMaxBytes(f.maxBytes))
	}
	cfg := zap.NewProductionConfig()
	if f.verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	lg, err := cfg.Build()
	if err != nil {
		return nil, nil, err
	}
	opts = append(opts, jtdbind.WithLogger(jzap.ZapLogger{L: lg}))
	return opts, func() { _ = lg.Sync() }, nil
}

func (f *decodeFlags) source(in io.Reader) (jtdbind.Source, error) {
	switch f.format {
	case "json":
		return jtdbind.StdJSONDriver().NewReader(in), nil
	case "yaml":
		return jtdbind.YAMLDriver().NewReader(in), nil
	}
	return nil, fmt.Errorf("invalid --format %q", f.format)
}

func openInput(fs *pflag.FlagSet, stdin io.Reader) (io.Reader, func(), error) {
	switch fs.NArg() {
	case 0:
		return stdin, func() {}, nil
	case 1:
		fh, err := os.Open(fs.Arg(0))
		if err != nil {
			return nil, nil, err
		}
		return fh, func() { _ = fh.Close() }, nil
	}
	return nil, nil, errors.New("at most one input file")
}

func decodeInput(ctx context.Context, name string, args []string, stdin io.Reader) (entry, any, []jtdbind.Option, func(), error) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	var f decodeFlags
	f.register(fs)
	if err := fs.Parse(args); err != nil {
		return entry{}, nil, nil, nil, err
	}
	e, err := lookup(f.typ)
	if err != nil {
		return entry{}, nil, nil, nil, err
	}
	opts, done, err := f.options()
	if err != nil {
		return entry{}, nil, nil, nil, err
	}
	in, closeIn, err := openInput(fs, stdin)
	if err != nil {
		done()
		return entry{}, nil, nil, nil, err
	}
	defer closeIn()
	src, err := f.source(in)
	if err != nil {
		done()
		return entry{}, nil, nil, nil, err
	}
	v, err := e.decode(ctx, demo.Registry(), src, opts...)
	return e, v, opts, done, err
}

func roundtripCmd(ctx context.Context, args []string, stdin io.Reader, out io.Writer) error {
	e, v, opts, done, err := decodeInput(ctx, "roundtrip", args, stdin)
	if done != nil {
		defer done()
	}
	if err != nil {
		return err
	}
	b, err := e.encode(demo.Registry(), v, opts...)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s\n", b)
	return err
}

func checkCmd(ctx context.Context, args []string, stdin io.Reader, out io.Writer) error {
	e, _, _, done, err := decodeInput(ctx, "check", args, stdin)
	if done != nil {
		defer done()
	}
	if err == nil {
		_, err = fmt.Fprintf(out, "ok %v\n", e.typ)
		return err
	}
	if tm, ok := jtdbind.AsTypeMismatch(err); ok {
		fmt.Fprintf(out, "%s %s\n", tm.Code, tm.Path)
	} else if mt, ok := jtdbind.AsMalformedToken(err); ok {
		fmt.Fprintf(out, "%s %s\n", mt.Code, mt.Path)
	}
	return err
}

func schemaCmd(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("schema", pflag.ContinueOnError)
	typ := fs.StringP("type", "t", "", "wrapper type name")
	asYAML := fs.Bool("yaml", false, "print YAML instead of JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := lookup(*typ)
	if err != nil {
		return err
	}
	s, err := demo.Registry().Schema(e.typ)
	if err != nil {
		return err
	}
	if *asYAML {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		_, err = out.Write(buf.Bytes())
		return err
	}
	b, err := j.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s\n", b)
	return err
}

func typesCmd(out io.Writer) error {
	names := make([]string, 0, len(entries))
	for n := range entries {
		names = append(names, n)
	}
	sort.Strings(names)
	reg := demo.Registry()
	for _, n := range names {
		b, ok := reg.Resolve(entries[n].typ)
		if !ok {
			return fmt.Errorf("%s is not bound", n)
		}
		fmt.Fprintf(out, "%-10s %-9s %s\n", n, b.Shape(), b.Schema().Description())
	}
	return nil
}

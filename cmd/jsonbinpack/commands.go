package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	jsonbinpack "github.com/sourcemeta/jsonbinpack-sub005"
	"github.com/sourcemeta/jsonbinpack-sub005/document"
)

type command struct {
	name    string
	summary string
	args    string
	// codec commands select a plan and may compress their stream.
	codec bool
	run   func(s *session, args []string) error
}

var commands = map[string]command{
	"canonicalize": {
		name: "canonicalize", summary: "print the canonical form of a schema",
		args: "<schema>", run: canonicalizeCmd,
	},
	"compile": {
		name: "compile", summary: "print the encoding descriptor of a schema",
		args: "<schema>", run: compileCmd,
	},
	"encode": {
		name: "encode", summary: "encode JSON documents into one binary stream",
		args: "<document>...", codec: true, run: encodeCmd,
	},
	"decode": {
		name: "decode", summary: "decode a binary stream into JSON lines",
		args: "[<binary>]", codec: true, run: decodeCmd,
	},
	"inspect": {
		name: "inspect", summary: "print a plan as a tree, and the size of a binary stream",
		args: "[<binary>]", codec: true, run: inspectCmd,
	},
}

// session is what a subcommand runs with once its flags are resolved.
type session struct {
	ctx    context.Context
	v      *viper.Viper
	opts   jsonbinpack.Options
	log    *logrus.Logger
	stdin  io.Reader
	stdout io.Writer
}

func (c command) help(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintf(w, "%s\n\nUsage:\n  jsonbinpack %s [flags] %s\n\nFlags:\n%s", c.summary, c.name, c.args, fs.FlagUsages())
}

func (c command) execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := newFlagSet(c.name)
	if c.codec {
		addPlanFlags(fs)
	}
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			c.help(stdout, fs)
			return nil
		}
		fmt.Fprintf(stderr, "%v\n\n", err)
		c.help(stderr, fs)
		return errUsage
	}
	if help, _ := fs.GetBool("help"); help {
		c.help(stdout, fs)
		return nil
	}
	v, err := bind(fs)
	if err != nil {
		return err
	}
	logger, err := newLogger(v, stderr)
	if err != nil {
		return err
	}
	opts, err := options(v, logger)
	if err != nil {
		return err
	}
	s := &session{ctx: ctx, v: v, opts: opts, log: logger, stdin: stdin, stdout: stdout}
	return c.run(s, fs.Args())
}

// read returns the bytes of path, where "-" is standard input.
func (s *session) read(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(s.stdin)
	}
	return os.ReadFile(path)
}

func (s *session) document(path string) (any, error) {
	if path != "-" {
		return document.ReadFile(path)
	}
	data, err := s.read(path)
	if err != nil {
		return nil, err
	}
	return document.Parse(data)
}

// write sends data to --output, or to standard output.
func (s *session) write(data []byte) error {
	path := s.v.GetString("output")
	if path == "" {
		_, err := s.stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func exactlyOne(args []string, what string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("expected one %s, got %d arguments", what, len(args))
	}
	return args[0], nil
}

func canonicalizeCmd(s *session, args []string) error {
	path, err := exactlyOne(args, "schema")
	if err != nil {
		return err
	}
	schema, err := s.document(path)
	if err != nil {
		return err
	}
	canonical, err := jsonbinpack.Canonicalize(s.ctx, schema, s.opts)
	if err != nil {
		return err
	}
	out, err := document.MarshalIndent(canonical, "  ")
	if err != nil {
		return err
	}
	return s.write(append(out, '\n'))
}

func compileCmd(s *session, args []string) error {
	path, err := exactlyOne(args, "schema")
	if err != nil {
		return err
	}
	schema, err := s.document(path)
	if err != nil {
		return err
	}
	plan, err := jsonbinpack.Compile(s.ctx, schema, s.opts)
	if err != nil {
		return err
	}
	out, err := document.MarshalIndent(plan.Descriptor(), "  ")
	if err != nil {
		return err
	}
	return s.write(append(out, '\n'))
}

func encodeCmd(s *session, args []string) error {
	if len(args) == 0 {
		return errors.New("expected at least one document")
	}
	plan, err := loadPlan(s.ctx, s.v, s.opts)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	w := jsonbinpack.NewWriter(&buf, plan, s.opts)
	for _, path := range args {
		doc, err := s.document(path)
		if err != nil {
			return err
		}
		before := w.Position()
		if err := w.Write(doc); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		s.log.WithFields(logrus.Fields{"document": path, "bytes": w.Position() - before}).Info("encoded")
	}
	data := buf.Bytes()
	if s.v.GetBool("compress") {
		if data, err = compress(data); err != nil {
			return err
		}
	}
	return s.write(data)
}

// stream reads a binary stream and undoes --compress.
func (s *session) stream(args []string) ([]byte, error) {
	path := "-"
	switch len(args) {
	case 0:
	case 1:
		path = args[0]
	default:
		return nil, fmt.Errorf("expected at most one binary stream, got %d arguments", len(args))
	}
	data, err := s.read(path)
	if err != nil {
		return nil, err
	}
	if s.v.GetBool("compress") {
		return decompress(data)
	}
	return data, nil
}

// each decodes every document of data in order.
func (s *session) each(plan *jsonbinpack.Plan, data []byte, fn func(doc any, size uint64) error) error {
	if len(data) == 0 {
		doc, err := jsonbinpack.Unmarshal(plan, data)
		if err != nil {
			return err
		}
		return fn(doc, 0)
	}
	r := jsonbinpack.NewReader(bytes.NewReader(data), plan, s.opts)
	for {
		before := r.Position()
		doc, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(doc, r.Position()-before); err != nil {
			return err
		}
	}
}

func decodeCmd(s *session, args []string) error {
	plan, err := loadPlan(s.ctx, s.v, s.opts)
	if err != nil {
		return err
	}
	data, err := s.stream(args)
	if err != nil {
		return err
	}
	var out bytes.Buffer
	err = s.each(plan, data, func(doc any, _ uint64) error {
		line, err := document.Marshal(doc)
		if err != nil {
			return err
		}
		out.Write(line)
		out.WriteByte('\n')
		return nil
	})
	if err != nil {
		return err
	}
	return s.write(out.Bytes())
}

func inspectCmd(s *session, args []string) error {
	plan, err := loadPlan(s.ctx, s.v, s.opts)
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := describe(&out, plan.Encoding(), "", 0); err != nil {
		return err
	}
	if len(args) > 0 {
		data, err := s.stream(args)
		if err != nil {
			return err
		}
		var count, total uint64
		err = s.each(plan, data, func(_ any, size uint64) error {
			count++
			total += size
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(&out, "\ndocuments: %d\nbytes: %d\n", count, total)
	}
	return s.write(out.Bytes())
}

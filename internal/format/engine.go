package format

import (
	"bytes"

	"github.com/DEMCON/twincat-tools/internal/diag"
	"github.com/DEMCON/twincat-tools/internal/markup"
	"github.com/DEMCON/twincat-tools/internal/source"
)

// Result is the outcome of formatting one file. Output always holds the
// full rewritten content, byte-identical to the input when Changed is
// false.
type Result struct {
	Changed bool
	Output  []byte
	Diags   []diag.Diagnostic
}

// Format runs the rule pipeline over every code region of f and splices
// the rewritten regions back between the untouched markup bytes. The
// error is non-nil only for invalid configuration or malformed markup;
// formatting itself never fails.
func Format(f *source.File, cfg Config) (Result, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	spans, err := markup.Scan(f)
	if err != nil {
		return Result{}, err
	}

	rules := Pipeline(cfg)
	var out bytes.Buffer
	out.Grow(len(f.Content))
	var diags []diag.Diagnostic

	for _, sp := range spans {
		raw := sp.Bytes(f.Content)
		if sp.Context != markup.InTextContent {
			out.Write(raw)
			continue
		}

		seg := newSegment(f, sp)
		for _, r := range rules {
			r.Apply(seg)
		}
		for _, line := range seg.Lines {
			out.WriteString(line)
		}
		diags = append(diags, seg.diags...)
	}

	output := out.Bytes()
	return Result{
		Changed: !bytes.Equal(output, f.Content),
		Output:  output,
		Diags:   diags,
	}, nil
}

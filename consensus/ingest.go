package consensus

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"runtime"
	"sort"
	"strings"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
)

// Source is one parsed input file: the calls of one detector for one sample.
type Source struct {
	// Name is the path the source was read from.
	Name   string
	Sample string
	Tool   string
	// Columns lists the header columns in file order.
	Columns []string
	Records []CallRecord
}

// Callset is the result of ingesting a set of sources.
type Callset struct {
	// Sources lists the parsed sources, sorted by name.
	Sources []Source
	// Skipped lists the names of sources that failed to parse.
	Skipped []string
	// Records concatenates the records of Sources, in order.
	Records []CallRecord
	// Columns is the ordered union of the header columns of Sources.
	Columns []string
}

// ParseSource parses one detector output. Lines before the first line
// starting with "#CHROM" are ignored; that line is the tab-separated header.
// Every later nonblank line is a call. Rows shorter than the header are padded
// with empty values, and values past the last header column are dropped.
//
// name is used to derive the sample and tool through namer, and in error
// messages.
func ParseSource(name string, r io.Reader, namer Namer) (Source, error) {
	src := Source{Name: name}
	src.Sample, src.Tool = namer.Name(name)

	br := bufio.NewReaderSize(r, 64<<10)
	headerFound := false
	for eof := false; !eof; {
		line, err := br.ReadString('\n')
		if err == io.EOF {
			eof = true
		} else if err != nil {
			return src, errors.E(err, "read", name)
		}
		line = strings.TrimRight(line, "\r\n")
		if !headerFound {
			if strings.HasPrefix(line, colChrom) {
				src.Columns = strings.Split(strings.TrimSpace(line), "\t")
				if err := checkHeader(name, src.Columns); err != nil {
					return src, err
				}
				headerFound = true
			}
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		src.Records = append(src.Records, newRecord(src.Columns, strings.Split(line, "\t"), src.Sample, src.Tool))
	}
	if !headerFound {
		return src, &FormatError{Source: name, Reason: "no " + colChrom + " header found"}
	}
	return src, nil
}

func checkHeader(name string, cols []string) error {
	var hasChrom, hasPos bool
	for _, c := range cols {
		switch c {
		case colChrom:
			hasChrom = true
		case colPos:
			hasPos = true
		}
	}
	if !hasChrom || !hasPos {
		return &FormatError{Source: name, Reason: fmt.Sprintf("header %q lacks %s or %s column", strings.Join(cols, "\t"), colChrom, colPos)}
	}
	return nil
}

func newRecord(cols, values []string, sample, tool string) CallRecord {
	fields := make(Fields, len(cols))
	for i, c := range cols {
		fields[i].Name = c
		if i < len(values) {
			fields[i].Value = values[i]
		}
	}
	return CallRecord{
		Chrom:  fields.Get(colChrom),
		Pos:    fields.Get(colPos),
		Sample: sample,
		Tool:   tool,
		Fields: fields,
	}
}

// ReadSource opens path and parses it with ParseSource. Compressed inputs
// (.gz, .bz2, .zst, ...) are decompressed transparently.
func ReadSource(ctx context.Context, path string, namer Namer) (src Source, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return src, errors.E(err, "open", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	var r io.Reader = in.Reader(ctx)
	if u := compress.NewReaderPath(r, in.Name()); u != nil {
		defer func() {
			if e := u.Close(); e != nil && err == nil {
				err = errors.E(e, "decompress", path)
			}
		}()
		r = u
	}
	return ParseSource(path, r, namer)
}

// ListSources lists the detector outputs (*.vcf, *.vcf.gz) directly under dir,
// sorted by path.
func ListSources(ctx context.Context, dir string) ([]string, error) {
	var paths []string
	lister := file.List(ctx, dir, false)
	for lister.Scan() {
		if lister.IsDir() {
			continue
		}
		p := lister.Path()
		if strings.HasSuffix(p, ".vcf") || strings.HasSuffix(p, ".vcf.gz") {
			paths = append(paths, p)
		}
	}
	if err := lister.Err(); err != nil {
		return nil, &ConfigError{Reason: "list " + dir, Err: err}
	}
	sort.Strings(paths)
	return paths, nil
}

// Ingest reads and parses the given sources. Sources are processed in
// lexicographic order of their paths, so the record order, and hence the
// first-seen tie-break of deduplication, does not depend on how the paths were
// enumerated. A source that fails to parse is logged and skipped.
//
// Ingest returns an *EmptyInputError if paths is empty, if no source could be
// parsed, or if the parsed sources contain no calls.
func Ingest(ctx context.Context, paths []string, opts Opts) (*Callset, error) {
	if len(paths) == 0 {
		return nil, &EmptyInputError{Reason: "no input sources"}
	}
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)
	log.Printf("Found %d input sources", len(sorted))

	var (
		n           = len(sorted)
		namer       = opts.namer()
		parallelism = opts.Parallelism
		sources     = make([]Source, n)
		errs        = make([]error, n)
	)
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	if parallelism > n {
		parallelism = n
	}
	// Parsing is side-effect free; each job owns a strided subset of the
	// sources and writes only to its own slots.
	err := traverse.Each(parallelism, func(jobIdx int) error {
		for i := jobIdx; i < n; i += parallelism {
			sources[i], errs[i] = ReadSource(ctx, sorted[i], namer)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cs := &Callset{}
	seenCols := map[string]bool{}
	for i, src := range sources {
		if errs[i] != nil {
			log.Error.Printf("Skipping %s: %v", sorted[i], errs[i])
			cs.Skipped = append(cs.Skipped, sorted[i])
			continue
		}
		log.Printf("Processed: %s (sample: %s, tool: %s, %d calls)", file.Base(src.Name), src.Sample, src.Tool, len(src.Records))
		cs.Sources = append(cs.Sources, src)
		cs.Records = append(cs.Records, src.Records...)
		for _, c := range src.Columns {
			if !seenCols[c] {
				seenCols[c] = true
				cs.Columns = append(cs.Columns, c)
			}
		}
	}
	if len(cs.Sources) == 0 {
		return nil, &EmptyInputError{Reason: fmt.Sprintf("none of the %d input sources could be parsed", n)}
	}
	if len(cs.Records) == 0 {
		return nil, &EmptyInputError{Reason: fmt.Sprintf("no calls found in %d parsed sources", len(cs.Sources))}
	}
	return cs, nil
}

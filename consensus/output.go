package consensus

import (
	"context"
	"io"
	"os"
	"runtime"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/hts/bgzf"
)

// Suffixes of the per-sample and combined tables.
const (
	sampleSuffix         = "_transposons_filtered.txt"
	sampleAncestorSuffix = "_transposons_ancfiltered.txt"
	allSuffix            = "_all.txt"
	uniqueSuffix         = "_unique.txt"
	bgzipSuffix          = ".gz"
)

// WriteTable writes records as a tab-separated table with the given header.
// A record lacking one of the columns gets an empty value. If bgzip is set,
// the table is BGZF-compressed.
func WriteTable(ctx context.Context, path string, columns []string, records []CallRecord, bgzip bool) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create", path)
	}
	defer file.CloseAndReport(ctx, out, &err)

	var w io.Writer = out.Writer(ctx)
	if bgzip {
		bw := bgzf.NewWriter(w, runtime.NumCPU())
		defer func() {
			if e := bw.Close(); e != nil && err == nil {
				err = errors.E(e, "bgzf close", path)
			}
		}()
		w = bw
	}
	tw := tsv.NewWriter(w)
	for _, c := range columns {
		tw.WriteString(c)
	}
	if err = tw.EndLine(); err != nil {
		return errors.E(err, "write", path)
	}
	for _, r := range records {
		for _, c := range columns {
			tw.WriteString(r.Value(c))
		}
		if err = tw.EndLine(); err != nil {
			return errors.E(err, "write", path)
		}
	}
	if err = tw.Flush(); err != nil {
		return errors.E(err, "flush", path)
	}
	return nil
}

// SampleTablePath returns the path of the per-sample table of sample.
func SampleTablePath(dir, sample string, ancestorFiltered, bgzip bool) string {
	suffix := sampleSuffix
	if ancestorFiltered {
		suffix = sampleAncestorSuffix
	}
	return maybeBgzip(file.Join(dir, sample+suffix), bgzip)
}

// CombinedTablePaths returns the paths of the "all calls" and "unique
// locations" tables for the given prefix.
func CombinedTablePaths(prefix string, bgzip bool) (all, unique string) {
	return maybeBgzip(prefix+allSuffix, bgzip), maybeBgzip(prefix+uniqueSuffix, bgzip)
}

func maybeBgzip(path string, bgzip bool) string {
	if bgzip {
		return path + bgzipSuffix
	}
	return path
}

// WriteSampleTables writes one table per sample holding the sample's
// deduplicated calls. It returns the paths written.
func WriteSampleTables(ctx context.Context, res *Result) ([]string, error) {
	opts := res.Opts
	if err := mkdirLocal(opts.OutputDir); err != nil {
		return nil, err
	}
	log.Printf("Output directory: %s", opts.OutputDir)
	var paths []string
	for _, s := range res.Samples {
		path := SampleTablePath(opts.OutputDir, s.Sample, opts.AncestorSample != "", opts.Bgzip)
		if err := WriteTable(ctx, path, res.Columns, s.Unique, opts.Bgzip); err != nil {
			return paths, err
		}
		log.Printf("Wrote %d unique locations for %s to %s", len(s.Unique), s.Sample, path)
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteCombinedTables writes the table of all surviving calls and the table
// of unique (sample, location) calls. It returns the paths written.
func WriteCombinedTables(ctx context.Context, res *Result) ([]string, error) {
	opts := res.Opts
	allPath, uniquePath := CombinedTablePaths(opts.OutputPrefix, opts.Bgzip)
	if err := mkdirLocal(file.Dir(allPath)); err != nil {
		return nil, err
	}
	if err := WriteTable(ctx, allPath, res.Columns, res.All, opts.Bgzip); err != nil {
		return nil, err
	}
	log.Printf("Wrote all filtered calls to: %s", allPath)
	if err := WriteTable(ctx, uniquePath, res.Columns, res.Unique, opts.Bgzip); err != nil {
		return []string{allPath}, err
	}
	log.Printf("Wrote unique filtered calls to: %s", uniquePath)
	return []string{allPath, uniquePath}, nil
}

// Emit writes the tables selected by res.Opts.Mode and returns their paths.
func Emit(ctx context.Context, res *Result) ([]string, error) {
	var paths []string
	mode := res.Opts.Mode
	if mode == ModeSample || mode == ModeBoth {
		p, err := WriteSampleTables(ctx, res)
		paths = append(paths, p...)
		if err != nil {
			return paths, err
		}
	}
	if mode == ModeCombined || mode == ModeBoth {
		p, err := WriteCombinedTables(ctx, res)
		paths = append(paths, p...)
		if err != nil {
			return paths, err
		}
	}
	log.Printf("Output files written: %d", len(paths))
	return paths, nil
}

// mkdirLocal creates dir if it is a local path. Remote file systems have no
// directories to create.
func mkdirLocal(dir string) error {
	if dir == "" {
		return nil
	}
	if scheme, _, err := file.ParsePath(dir); err != nil || scheme != "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0777); err != nil {
		return errors.E(err, "mkdir", dir)
	}
	return nil
}

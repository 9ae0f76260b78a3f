// Package collect gathers the per-sample detector outputs of a sample
// directory tree into a single flat directory that the consensus filter can
// read.
//
// The expected layout is
//
//   <root>/<sample>/nonredundant_vcfs/*.vcf
//
// and the files are copied, under their own names, into <root>/<OutputDir>.
package collect

import (
	"context"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/teconsensus/consensus"
)

// SampleSubdir is the per-sample directory holding the detector outputs.
const SampleSubdir = "nonredundant_vcfs"

// Opts controls Collect.
type Opts struct {
	// OutputDir is the name of the destination directory, relative to the root.
	// It is never treated as a sample directory.
	OutputDir string
	// Parallelism bounds the number of concurrent copies. Zero means no bound.
	Parallelism int
}

// DefaultOpts is the default value of Opts.
var DefaultOpts = Opts{
	OutputDir:   "all_nonredundant_vcfs",
	Parallelism: 8,
}

// Stats summarizes a Collect call.
type Stats struct {
	// Samples is the # of sample directories found.
	Samples int
	// Copied is the # of files copied.
	Copied int
	// Skipped is the # of files not copied because the destination already
	// existed.
	Skipped int
}

type copyJob struct {
	src, dst string
}

// Collect copies every <root>/<sample>/nonredundant_vcfs/*.vcf file into
// <root>/<opts.OutputDir>. Existing destination files are never overwritten.
// Samples lacking the subdirectory or any VCF are logged and skipped.
func Collect(ctx context.Context, root string, opts Opts) (Stats, error) {
	var stats Stats
	if opts.OutputDir == "" {
		opts.OutputDir = DefaultOpts.OutputDir
	}
	if opts.Parallelism < 0 {
		return stats, &consensus.ConfigError{Reason: "parallelism must be nonnegative"}
	}
	if err := checkRoot(root); err != nil {
		return stats, err
	}
	outDir := file.Join(root, opts.OutputDir)
	if err := mkdirLocal(outDir); err != nil {
		return stats, err
	}
	log.Printf("Output directory: %s", outDir)

	samples, err := sampleDirs(ctx, root, opts.OutputDir)
	if err != nil {
		return stats, err
	}
	stats.Samples = len(samples)
	if len(samples) == 0 {
		log.Printf("No sample directories found in %s", root)
		return stats, nil
	}
	log.Printf("Found %d sample directories", len(samples))

	// Destinations are resolved up front so that two samples shipping a file of
	// the same name never race on it: the first sample in sorted order wins.
	var jobs []copyJob
	claimed := map[string]bool{}
	for _, sample := range samples {
		srcs, err := listVCFs(ctx, file.Join(root, sample, SampleSubdir))
		if err != nil {
			log.Error.Printf("%s: %v, skipping %s", file.Join(root, sample, SampleSubdir), err, sample)
			continue
		}
		if len(srcs) == 0 {
			log.Error.Printf("No VCF files found in %s", file.Join(root, sample, SampleSubdir))
			continue
		}
		log.Printf("Copying %d VCF files from %s", len(srcs), sample)
		for _, src := range srcs {
			dst := file.Join(outDir, file.Base(src))
			if claimed[dst] || exists(ctx, dst) {
				log.Error.Printf("%s already exists, skipping", dst)
				stats.Skipped++
				continue
			}
			claimed[dst] = true
			jobs = append(jobs, copyJob{src, dst})
		}
	}

	copyJobAt := func(i int) error { return copyFile(ctx, jobs[i].src, jobs[i].dst) }
	if opts.Parallelism > 0 {
		err = traverse.Limit(opts.Parallelism).Each(len(jobs), copyJobAt)
	} else {
		err = traverse.Each(len(jobs), copyJobAt)
	}
	if err != nil {
		return stats, err
	}
	stats.Copied = len(jobs)
	log.Printf("Total VCF files copied: %d", stats.Copied)
	log.Printf("All files are now in: %s", outDir)
	return stats, nil
}

// sampleDirs returns the names of the immediate subdirectories of root, except
// outputDir, sorted.
func sampleDirs(ctx context.Context, root, outputDir string) ([]string, error) {
	var names []string
	lister := file.List(ctx, root, false)
	for lister.Scan() {
		if !lister.IsDir() {
			continue
		}
		name := file.Base(strings.TrimSuffix(lister.Path(), "/"))
		if name == outputDir {
			continue
		}
		names = append(names, name)
	}
	if err := lister.Err(); err != nil {
		return nil, &consensus.ConfigError{Reason: "list " + root, Err: err}
	}
	sort.Strings(names)
	return names, nil
}

func listVCFs(ctx context.Context, dir string) ([]string, error) {
	var paths []string
	lister := file.List(ctx, dir, false)
	for lister.Scan() {
		if !lister.IsDir() && strings.HasSuffix(lister.Path(), ".vcf") {
			paths = append(paths, lister.Path())
		}
	}
	if err := lister.Err(); err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func exists(ctx context.Context, path string) bool {
	_, err := file.Stat(ctx, path)
	return err == nil
}

func copyFile(ctx context.Context, srcPath, dstPath string) (err error) {
	in, err := file.Open(ctx, srcPath)
	if err != nil {
		return errors.E(err, "open", srcPath)
	}
	defer file.CloseAndReport(ctx, in, &err)
	out, err := file.Create(ctx, dstPath)
	if err != nil {
		return errors.E(err, "create", dstPath)
	}
	defer file.CloseAndReport(ctx, out, &err)
	if _, err = io.Copy(out.Writer(ctx), in.Reader(ctx)); err != nil {
		return errors.E(err, "copy "+srcPath+" to "+dstPath)
	}
	return nil
}

func checkRoot(root string) error {
	if root == "" {
		return &consensus.ConfigError{Reason: "sample root not set"}
	}
	if scheme, _, err := file.ParsePath(root); err != nil || scheme != "" {
		return nil
	}
	info, err := os.Stat(root)
	if err != nil {
		return &consensus.ConfigError{Reason: "directory does not exist: " + root, Err: err}
	}
	if !info.IsDir() {
		return &consensus.ConfigError{Reason: "not a directory: " + root}
	}
	return nil
}

func mkdirLocal(dir string) error {
	if scheme, _, err := file.ParsePath(dir); err != nil || scheme != "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0777); err != nil {
		return errors.E(err, "mkdir", dir)
	}
	return nil
}

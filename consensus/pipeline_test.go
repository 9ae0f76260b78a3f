package consensus

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/teconsensus/interval"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/compress/gzip"
)

const vcfHeader = "##fileformat=VCFv4.2\n#CHROM\tPOS\tID\tINFO\n"

// writeRun populates dir with the outputs of three detectors on an ancestor
// and two descendants.
func writeRun(t *testing.T, dir string) {
	files := map[string]string{
		"ANC_R1_001_melt_nonredundant.vcf":    vcfHeader + "chr2\t500\t.\tm\nchr4\t1\t.\tm\n",
		"ANC_R1_001_tebreak_nonredundant.vcf": vcfHeader + "chr2\t500\t.\tt\n",
		"ANC_R1_001_temp2_nonredundant.vcf":   vcfHeader + "chr2\t500\t.\tp\n",
		"S1_R1_001_melt_nonredundant.vcf":     vcfHeader + "chr1\t1000\t.\tm\nchr1\t2000\t.\tm\nchr2\t500\t.\tm\n",
		"S1_R1_001_tebreak_nonredundant.vcf":  vcfHeader + "chr1\t1000\t.\tt\nchr2\t500\t.\tt\n",
		"S1_R1_001_temp2_nonredundant.vcf":    "#CHROM\tPOS\tQUAL\nchr1\t1000\t30\nchr2\t500\t40\n",
		"S2_R1_001_melt_nonredundant.vcf":     vcfHeader + "chr3\t7\t.\tm\n",
		"S2_R1_001_broken_nonredundant.vcf":   "this file has no header\nchr3\t7\n",
		"README.txt":                          "not an input",
	}
	for name, data := range files {
		writeTestFile(t, filepath.Join(dir, name), data)
	}
}

func readFile(t *testing.T, path string) string {
	data, err := ioutil.ReadFile(path)
	assert.NoError(t, err, path)
	return string(data)
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	inputDir := filepath.Join(tmpdir, "in")
	assert.NoError(t, os.Mkdir(inputDir, 0755))
	writeRun(t, inputDir)

	opts := DefaultOpts
	opts.MinCallers = 2
	opts.AncestorSample = "ANC"
	opts.OutputPrefix = filepath.Join(tmpdir, "out", "run")
	res, err := Run(ctx, inputDir, opts)
	assert.NoError(t, err)

	expect.EQ(t, res.Opts.OutputDir, filepath.Join(inputDir, "filtered_results"))
	expect.EQ(t, res.Columns, []string{"#CHROM", "POS", "ID", "INFO", "QUAL", ColSample, ColTool, ColLocation})
	expect.EQ(t, res.Stats.Sources, 7)
	expect.EQ(t, res.Stats.SkippedSources, 1)
	expect.EQ(t, res.Stats.Records, 12)
	expect.EQ(t, res.Stats.Samples, 3)
	expect.EQ(t, res.Stats.Tools, 3)
	expect.EQ(t, res.Stats.AncestorLocations, 1)
	expect.EQ(t, res.Stats.AncestorRemoved, 1)
	// ANC chr2:500 x3, S1 chr1:1000 x3, S1 chr2:500 x3.
	expect.EQ(t, res.Stats.PassedThreshold, 9)
	// Less S1 chr2:500.
	expect.EQ(t, res.Stats.Surviving, 6)
	expect.EQ(t, res.Stats.Unique, 2)
	// S2 has a single call and is left out.
	expect.EQ(t, res.Stats.SamplesWithCalls, 2)

	paths, err := Emit(ctx, res)
	assert.NoError(t, err)
	ancPath := filepath.Join(inputDir, "filtered_results", "ANC_transposons_ancfiltered.txt")
	s1Path := filepath.Join(inputDir, "filtered_results", "S1_transposons_ancfiltered.txt")
	allPath := opts.OutputPrefix + "_all.txt"
	uniquePath := opts.OutputPrefix + "_unique.txt"
	expect.EQ(t, paths, []string{ancPath, s1Path, allPath, uniquePath})

	header := "#CHROM\tPOS\tID\tINFO\tQUAL\tsample\ttool\tlocation\n"
	expect.EQ(t, readFile(t, s1Path), header+
		"chr1\t1000\t.\tm\t\tS1\tmelt\tchr1:1000\n")
	expect.EQ(t, readFile(t, ancPath), header+
		"chr2\t500\t.\tm\t\tANC\tmelt\tchr2:500\n")
	expect.EQ(t, readFile(t, allPath), header+
		"chr2\t500\t.\tm\t\tANC\tmelt\tchr2:500\n"+
		"chr2\t500\t.\tt\t\tANC\ttebreak\tchr2:500\n"+
		"chr2\t500\t.\tp\t\tANC\ttemp2\tchr2:500\n"+
		"chr1\t1000\t.\tm\t\tS1\tmelt\tchr1:1000\n"+
		"chr1\t1000\t.\tt\t\tS1\ttebreak\tchr1:1000\n"+
		"chr1\t1000\t\t\t30\tS1\ttemp2\tchr1:1000\n")
	expect.EQ(t, readFile(t, uniquePath), header+
		"chr2\t500\t.\tm\t\tANC\tmelt\tchr2:500\n"+
		"chr1\t1000\t.\tm\t\tS1\tmelt\tchr1:1000\n")
	_, err = os.Stat(filepath.Join(inputDir, "filtered_results", "S2_transposons_ancfiltered.txt"))
	expect.True(t, os.IsNotExist(err))
}

func TestRunWithoutAncestor(t *testing.T) {
	ctx := context.Background()
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	writeRun(t, tmpdir)

	opts := DefaultOpts
	opts.MinCallers = 2
	opts.Mode = ModeSample
	opts.OutputDir = filepath.Join(tmpdir, "per_sample")
	res, err := Run(ctx, tmpdir, opts)
	assert.NoError(t, err)
	expect.EQ(t, res.Stats.AncestorRemoved, 0)
	// S1 keeps chr2:500 when no ancestor is given.
	assert.EQ(t, len(res.Samples), 2)
	expect.EQ(t, locations(res.Samples[1].Unique), []string{"S1/chr1:1000", "S1/chr2:500"})

	paths, err := Emit(ctx, res)
	assert.NoError(t, err)
	expect.EQ(t, paths, []string{
		filepath.Join(tmpdir, "per_sample", "ANC_transposons_filtered.txt"),
		filepath.Join(tmpdir, "per_sample", "S1_transposons_filtered.txt"),
	})
}

func TestRunCombinedBgzip(t *testing.T) {
	ctx := context.Background()
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	inputDir := filepath.Join(tmpdir, "in")
	assert.NoError(t, os.Mkdir(inputDir, 0755))
	writeRun(t, inputDir)

	opts := DefaultOpts
	opts.MinCallers = 3
	opts.Mode = ModeCombined
	opts.Bgzip = true
	opts.OutputPrefix = filepath.Join(tmpdir, "combined")
	res, err := Run(ctx, inputDir, opts)
	assert.NoError(t, err)
	paths, err := Emit(ctx, res)
	assert.NoError(t, err)
	expect.EQ(t, paths, []string{
		filepath.Join(tmpdir, "combined_all.txt.gz"),
		filepath.Join(tmpdir, "combined_unique.txt.gz"),
	})

	f, err := os.Open(paths[1])
	assert.NoError(t, err)
	defer f.Close() // nolint: errcheck
	r, err := gzip.NewReader(f)
	assert.NoError(t, err)
	data, err := ioutil.ReadAll(r)
	assert.NoError(t, err)
	expect.EQ(t, string(data), "#CHROM\tPOS\tID\tINFO\tQUAL\tsample\ttool\tlocation\n"+
		"chr2\t500\t.\tm\t\tANC\tmelt\tchr2:500\n"+
		"chr1\t1000\t.\tm\t\tS1\tmelt\tchr1:1000\n"+
		"chr2\t500\t.\tm\t\tS1\tmelt\tchr2:500\n")
	_, err = os.Stat(filepath.Join(inputDir, "filtered_results"))
	expect.True(t, os.IsNotExist(err))
}

func TestRunRegions(t *testing.T) {
	ctx := context.Background()
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	writeRun(t, tmpdir)

	regions, err := interval.NewBEDUnionFromRegions([]string{"chr2"}, interval.NewBEDOpts{})
	assert.NoError(t, err)
	opts := DefaultOpts
	opts.OutputDir = filepath.Join(tmpdir, "out")
	opts.Regions = regions
	res, err := Run(ctx, tmpdir, opts)
	assert.NoError(t, err)
	expect.EQ(t, res.Stats.Records, 12)
	expect.EQ(t, res.Stats.Masked, 6)
	expect.EQ(t, locations(res.Unique), []string{"ANC/chr2:500", "S1/chr2:500"})
	// S2 only calls chr3 and is masked out entirely, but still counts.
	expect.EQ(t, res.Stats.Samples, 3)
	expect.EQ(t, res.Stats.Tools, 3)
	expect.EQ(t, res.Stats.SamplesWithCalls, 2)

	opts.ExcludeRegions = true
	res, err = Run(ctx, tmpdir, opts)
	assert.NoError(t, err)
	expect.EQ(t, res.Stats.Masked, 6)
	expect.EQ(t, locations(res.Unique), []string{"S1/chr1:1000"})
}

func TestRunErrors(t *testing.T) {
	ctx := context.Background()
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	isConfig := func(err error) bool { _, ok := err.(*ConfigError); return ok }
	isEmpty := func(err error) bool { _, ok := err.(*EmptyInputError); return ok }

	_, err := Run(ctx, "", DefaultOpts)
	expect.True(t, isConfig(err), err)
	_, err = Run(ctx, filepath.Join(tmpdir, "missing"), DefaultOpts)
	expect.True(t, isConfig(err), err)
	opts := DefaultOpts
	opts.MinCallers = 0
	_, err = Run(ctx, tmpdir, opts)
	expect.True(t, isConfig(err), err)
	opts = DefaultOpts
	opts.Mode = "neither"
	_, err = Run(ctx, tmpdir, opts)
	expect.True(t, isConfig(err), err)

	// A file is not a directory.
	notDir := filepath.Join(tmpdir, "file.vcf")
	writeTestFile(t, notDir, vcfHeader)
	_, err = Run(ctx, notDir, DefaultOpts)
	expect.True(t, isConfig(err), err)

	// No VCF files.
	emptyDir := filepath.Join(tmpdir, "empty")
	assert.NoError(t, os.Mkdir(emptyDir, 0755))
	_, err = Run(ctx, emptyDir, DefaultOpts)
	expect.True(t, isEmpty(err), err)

	// The only source is malformed.
	badDir := filepath.Join(tmpdir, "bad")
	assert.NoError(t, os.Mkdir(badDir, 0755))
	writeTestFile(t, filepath.Join(badDir, "S1_R1_001_melt_nonredundant.vcf"), "no header\n")
	_, err = Run(ctx, badDir, DefaultOpts)
	expect.True(t, isEmpty(err), err)
}

func TestWriteTableMissingColumns(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := filepath.Join(tmpdir, "t.txt")
	records := []CallRecord{rec("S1", "a", "chr1:5")}
	assert.NoError(t, WriteTable(context.Background(), path, []string{"#CHROM", "POS", "NOPE", ColTool}, records, false))
	expect.EQ(t, readFile(t, path), "#CHROM\tPOS\tNOPE\ttool\nchr1\t5\t\ta\n")
}

func TestTablePaths(t *testing.T) {
	expect.EQ(t, SampleTablePath("/out", "S1", false, false), "/out/S1_transposons_filtered.txt")
	expect.EQ(t, SampleTablePath("/out", "S1", true, true), "/out/S1_transposons_ancfiltered.txt.gz")
	all, unique := CombinedTablePaths("filtered_te", false)
	expect.EQ(t, all, "filtered_te_all.txt")
	expect.EQ(t, unique, "filtered_te_unique.txt")
}

// Package convert drives single-file and batch PTMF-to-PCAP conversion and
// prints the run report. One bad file never aborts a batch: every failure
// is classified, counted, and reported on its own Result line.
package convert

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/endorses/ptmf2pcap/internal/pkg/logger"
	"github.com/endorses/ptmf2pcap/internal/pkg/ptmf"
	"github.com/endorses/ptmf2pcap/internal/pkg/version"
)

// Sentinels the per-file converter wraps around I/O failures so the batch
// driver can classify them without string matching.
var (
	ErrReadInput   = errors.New("failed to read from input file")
	ErrWriteOutput = errors.New("failed to write to output file")
)

// Result labels printed on the report's Result line.
const (
	resultOK              = "OK"
	resultReadFailure     = "ERROR(FAILED_TO_READ_FROM_INPUT_FILE)"
	resultUnknownType     = "ERROR(INPUT_FILE_TYPE_UNKNOWN)"
	resultWriteFailure    = "ERROR(FAILED_TO_WRITE_TO_OUTPUT_FILE)"
	resultDecodeFailure   = "ERROR(STRUCTURAL_DECODE_FAILURE)"
	separatorRun          = "================================================================"
	separatorFile         = "----------------------------------------------------------------"
	hexDumpSuffix         = ".hex.txt"
	defaultOutputFileMode = 0o644
)

// Pair is one unit of batch work: an input trace and its output path.
type Pair struct {
	Input  string
	Output string
}

// Options carries per-run conversion settings.
type Options struct {
	// DumpHex additionally writes <input>.hex.txt with the decoded frame
	// layout, for eyeballing unknown trace formats.
	DumpHex bool
}

// PairsFromDir lists every file directly in inputDir whose extension
// matches ext (case-insensitive, non-recursive) and pairs it with
// <basename>.pcap in outputDir.
func PairsFromDir(inputDir, outputDir, ext string) ([]Pair, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("listing input directory %s: %w", inputDir, err)
	}
	var pairs []Pair
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), ext) {
			continue
		}
		base := strings.TrimSuffix(name, filepath.Ext(name))
		pairs = append(pairs, Pair{
			Input:  filepath.Join(inputDir, name),
			Output: filepath.Join(outputDir, base+".pcap"),
		})
	}
	return pairs, nil
}

// File converts one trace file. The returned error is classified: it
// wraps ErrReadInput or ErrWriteOutput for I/O failures and passes
// ptmf.ErrUnsupportedFileType and *ptmf.StructuralError through untouched.
func File(inputPath, outputPath string, opts Options) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrReadInput, inputPath, err)
	}
	trace, err := ptmf.NewTraceFile(data)
	if err != nil {
		return err
	}
	if opts.DumpHex {
		dumpPath := inputPath + hexDumpSuffix
		if err := os.WriteFile(dumpPath, trace.DumpHex(), defaultOutputFileMode); err != nil {
			// The dump is a debugging aid; its failure must not fail the
			// conversion itself.
			logger.Warn("could not write hex dump", "path", dumpPath, "error", err)
		}
	}
	pcap, err := trace.Pcap()
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, pcap, defaultOutputFileMode); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteOutput, outputPath, err)
	}
	return nil
}

// resultLabel maps a classified conversion error onto its report label.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return resultOK
	case errors.Is(err, ErrReadInput):
		return resultReadFailure
	case errors.Is(err, ErrWriteOutput):
		return resultWriteFailure
	case errors.Is(err, ptmf.ErrUnsupportedFileType):
		return resultUnknownType
	default:
		return resultDecodeFailure
	}
}

// Run converts every pair in order, printing the report to out, and
// returns the number of failed files (the process exit code).
func Run(pairs []Pair, opts Options, out io.Writer) int {
	errorCount := 0
	fmt.Fprintf(out, "ptmf2pcap v%s\n", version.GetVersion())
	fmt.Fprintln(out, separatorRun)
	for i, pair := range pairs {
		if i > 0 {
			fmt.Fprintln(out, separatorFile)
		}
		fmt.Fprintf(out, "Input:  %s\n", pair.Input)
		fmt.Fprintf(out, "Output: %s\n", pair.Output)
		err := File(pair.Input, pair.Output, opts)
		if err != nil {
			errorCount++
			logger.Error("conversion failed", "input", pair.Input, "error", err)
		}
		fmt.Fprintf(out, "Result: %s\n", resultLabel(err))
	}
	fmt.Fprintln(out, separatorRun)
	fmt.Fprintf(out, "Processed %d files with %d errors\n", len(pairs), errorCount)
	return errorCount
}

// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/klauspost/cpuid"
	"github.com/pbnjay/memory"

	sl "github.com/mlnoga/slantrange/internal"
	"github.com/mlnoga/slantrange/internal/ops"
	"github.com/mlnoga/slantrange/internal/proj"
	"github.com/mlnoga/slantrange/internal/rest"
	"github.com/mlnoga/slantrange/internal/sr"
	"github.com/mlnoga/slantrange/internal/synth"
)

const version = "0.1.0"

var totalMiBs = memory.TotalMemory() / 1024 / 1024

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var memprofile = flag.String("memprofile", "", "write memory profile to `file`")

var out = flag.String("out", "out.fits", "save output to `file`. Use a pattern like `out%d.fits` for several inputs")
var jpg = flag.String("jpg", "%auto", "save 8bit preview of output as JPEG to `file`. `%auto` replaces suffix of output file with .jpg")
var falseColor = flag.Bool("falseColor", false, "render the JPEG preview in false color instead of grayscale")
var tiff = flag.String("tiff", "", "save 16bit preview of output as TIFF to `file`")
var webp = flag.String("webp", "", "save lossless preview of output as WebP to `file`")
var gamma = flag.Float64("gamma", 1, "gamma for previews, 1: keep linear")
var log = flag.String("log", "%auto", "save log output to `file`. `%auto` replaces suffix of output file with .log")

var pixsiz = flag.Float64("pixsiz", 0, "target slant range pixel size in metres, <=0 selects a square output")
var grid = flag.Int("grid", 100, "number of spline knots per axis")
var thresh = flag.Float64("thresh", 0.1, "base accuracy threshold in squared pixels")
var warnMax = flag.Float64("warnMax", 10, "warn if the max squared error exceeds this multiple of the threshold")
var failMax = flag.Float64("failMax", 100, "fail if the max squared error exceeds this multiple of the threshold")
var warnAvg = flag.Float64("warnAvg", 1, "warn if the average squared error reaches this multiple of the threshold")
var failAvg = flag.Float64("failAvg", 10, "fail if the average squared error exceeds this multiple of the threshold")
var gridTol = flag.Float64("gridTol", 0.002, "max squared error of the spline grid at its knots")
var threads = flag.Int("threads", defaultThreads(), "number of worker threads")
var memoryMB = flag.Int64("memory", int64((totalMiBs*7)/10), "MiB of memory for output rasters, default=0.7x physical memory")

var projection = flag.String("proj", proj.TypeGeographic, "projection of synthetic scenes, one of GEOGRAPHIC, MERCATOR, LAMBERT")
var size = flag.Int("size", 400, "lines and samples of synthetic scenes")
var seed = flag.Uint("seed", 1, "random seed for synthetic speckle")
var speckle = flag.Bool("speckle", true, "apply speckle to synthetic scenes")

var addr = flag.String("addr", ":8080", "listen address for the server")
var chroot = flag.String("chroot", "", "chroot the server into `dir` (requires root)")
var setuid = flag.Int("setuid", -1, "switch the server to this user id after chroot, -1: keep")

func defaultThreads() int {
	if cpuid.CPU.LogicalCores > 0 {
		return cpuid.CPU.LogicalCores
	}
	return runtime.GOMAXPROCS(0)
}

func main() {
	logWriter := sl.LogWriter()
	start := time.Now()
	flag.Usage = func() {
		fmt.Fprintf(os.Stdout, `Slantrange Copyright (c) 2020 Markus L. Noga
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.
Refer to https://www.gnu.org/licenses/gpl-3.0.en.html for details.

Usage: %s [-flag value] (convert|info|synth|serve|legal|version) (img0.fits ... imgn.fits)

Commands:
  convert Resample map projected radar images to slant range geometry
  info    Show metadata, statistics and the conversion plan of input images
  synth   Generate a synthetic map projected radar scene
  serve   Serve conversion jobs over HTTP
  legal   Show license and attribution information
  version Show version information

Flags:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		return
	}

	// Initialize logging to file in addition to stdout, if selected
	if *log == "%auto" {
		if *out != "" && (args[0] == "convert" || args[0] == "synth") {
			*log = strings.TrimSuffix(strings.ReplaceAll(*out, "%d", ""), filepath.Ext(*out)) + ".log"
		} else {
			*log = ""
		}
	}
	if *log != "" {
		if err := sl.LogAlsoToFile(*log); err != nil {
			sl.LogFatalf("Unable to open logfile '%s'\n", *log)
		}
	}

	// Also auto-select JPEG output target
	if *jpg == "%auto" {
		if *out != "" {
			*jpg = strings.TrimSuffix(*out, filepath.Ext(*out)) + ".jpg"
		} else {
			*jpg = ""
		}
	}

	// Enable CPU profiling if flagged
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			sl.LogFatal("Could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			sl.LogFatal("Could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	var err error
	switch args[0] {
	case "convert":
		fmt.Fprintf(logWriter, "Slantrange %s\n", version)
		err = cmdConvert(args[1:], logWriter)

	case "info":
		err = cmdInfo(args[1:], logWriter)

	case "synth":
		err = cmdSynth(logWriter)

	case "serve":
		printBanner(logWriter)
		if err = rest.MakeSandbox(*chroot, *setuid, logWriter); err == nil {
			err = rest.Serve(*addr, version, *threads)
		}

	case "legal":
		fmt.Fprint(os.Stdout, legal)
		return

	case "version":
		printBanner(os.Stdout)
		return

	case "help", "?":
		flag.Usage()
		return

	default:
		fmt.Fprintf(os.Stdout, "Unknown command '%s'\n\n", args[0])
		flag.Usage()
		return
	}

	fmt.Fprintf(logWriter, "\nDone after %v\n", time.Since(start))

	// Store memory profile if flagged
	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			sl.LogFatal("Could not create memory profile: ", err)
		}
		defer f.Close()
		runtime.GC() // get up-to-date statistics
		if err := pprof.Lookup("allocs").WriteTo(f, 0); err != nil {
			sl.LogFatal("Could not write allocation profile: ", err)
		}
	}

	if err != nil {
		sl.LogFatalf("Error: %s\n", err.Error())
	}
	sl.LogSync()
}

func printBanner(w io.Writer) {
	fmt.Fprintf(w, "Slantrange %s on %s with %d physical and %d logical cores, AVX2 %v, %d MiB memory\n",
		version, cpuid.CPU.BrandName, cpuid.CPU.PhysicalCores, cpuid.CPU.LogicalCores, cpuid.CPU.AVX2(), totalMiBs)
}

// Assembles the engine configuration from the command line flags
func config() sr.Config {
	cfg := sr.DefaultConfig()
	cfg.PixelSize = *pixsiz
	cfg.GridSize = *grid
	cfg.Threshold = *thresh
	cfg.WarnMax, cfg.FailMax = *warnMax, *failMax
	cfg.WarnAvg, cfg.FailAvg = *warnAvg, *failAvg
	cfg.GridTolerance = *gridTol
	cfg.Threads = *threads
	cfg.MemoryMB = *memoryMB
	return cfg
}

// Returns operators saving the output and the selected previews
func saveOps() []ops.Operator {
	var res []ops.Operator
	for _, fileName := range []string{*out, *jpg, *tiff, *webp} {
		if fileName == "" {
			continue
		}
		op := ops.NewOpSave(fileName)
		op.FalseColor, op.Gamma = *falseColor, float32(*gamma)
		res = append(res, op)
	}
	return res
}

func hasPattern(s string) bool {
	return strings.ContainsAny(s, "*?[")
}

// Perform the convert command
func cmdConvert(args []string, logWriter io.Writer) error {
	if len(args) == 0 {
		return errors.New("convert needs at least one input file")
	}
	if (len(args) > 1 || hasPattern(args[0])) && !strings.Contains(*out, "%d") {
		return fmt.Errorf("several inputs need an output pattern with %%d, not '%s'", *out)
	}
	cfg := config()
	if err := cfg.Validate(); err != nil {
		return err
	}

	perImage := ops.NewOpSequence(ops.NewOpToSlantRange(cfg))
	perImage.Append(saveOps()...)
	seq := ops.NewOpSequence(ops.NewOpLoadMany(args), ops.NewOpForEach(perImage))
	return run(seq, logWriter)
}

// Perform the info command
func cmdInfo(args []string, logWriter io.Writer) error {
	if len(args) == 0 {
		return errors.New("info needs at least one input file")
	}
	seq := ops.NewOpSequence(ops.NewOpLoadMany(args), ops.NewOpForEach(ops.NewOpInfo(*pixsiz)))
	return run(seq, logWriter)
}

// Perform the synth command
func cmdSynth(logWriter io.Writer) error {
	sc := synth.DefaultScene()
	sc.Projection = strings.ToUpper(*projection)
	sc.Size = *size
	sc.Seed = uint32(*seed)
	sc.Speckle = *speckle

	seq := ops.NewOpSequence(ops.NewOpSynth(sc))
	seq.Append(saveOps()...)
	return run(seq, logWriter)
}

// Materializes the promises of an operator sequence, at most -threads at a time
func run(seq *ops.OpSequence, logWriter io.Writer) error {
	c := ops.NewContext(logWriter, *threads)
	if *memoryMB > 0 {
		c.RasterMemoryMB = int(*memoryMB)
	}
	promises, err := seq.MakePromises(nil, c)
	if err != nil {
		return err
	}
	_, err = ops.MaterializeAll(promises, c.MaxThreads, true)
	return err
}

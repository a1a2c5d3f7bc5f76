// Command authsession-perfcheck compares two `go test -bench` outputs and
// exits non-zero when a tracked engine benchmark got slower than allowed.
//
//	go test -run '^$' -bench . -count 5 . > new.txt
//	authsession-perfcheck --baseline old.txt --candidate new.txt
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

const defaultThreshold = 0.30

// tracked lists the benchmarks and units that gate a change.
var tracked = map[string][]string{
	"BenchmarkVerify":           {"ns/op", "allocs/op"},
	"BenchmarkVerifyRejectsBad": {"ns/op"},
	"BenchmarkRefresh":          {"ns/op"},
}

func main() {
	baselinePath := pflag.String("baseline", "", "benchmark output of the reference build")
	candidatePath := pflag.String("candidate", "", "benchmark output of the build under test")
	threshold := pflag.Float64("threshold", defaultThreshold, "largest allowed slowdown ratio (0.30 = +30%)")
	pflag.Parse()

	if *baselinePath == "" || *candidatePath == "" {
		fmt.Fprintln(os.Stderr, "--baseline and --candidate are required")
		os.Exit(2)
	}
	if *threshold < 0 {
		fmt.Fprintln(os.Stderr, "--threshold must be >= 0")
		os.Exit(2)
	}

	baseline, err := parseFile(*baselinePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse baseline: %v\n", err)
		os.Exit(1)
	}
	candidate, err := parseFile(*candidatePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse candidate: %v\n", err)
		os.Exit(1)
	}

	rows, failures := compare(baseline, candidate, *threshold)
	fmt.Println("benchmark unit baseline candidate delta")
	for _, r := range rows {
		fmt.Printf("%s %s %.3f %.3f %+0.2f%%\n", r.benchmark, r.unit, r.baseline, r.candidate, r.delta*100)
	}

	if len(failures) > 0 {
		fmt.Fprintln(os.Stderr, "performance regression threshold exceeded:")
		for _, f := range failures {
			fmt.Fprintf(os.Stderr, "  - %s\n", f)
		}
		os.Exit(1)
	}
}

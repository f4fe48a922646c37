// elgeno: a high-performance tool for finalizing joint-called VCF files.
// Copyright (c) 2017-2021 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elprep/blob/master/LICENSE.txt>.

package cmd

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/exascience/elgeno/genotyper"
	"github.com/exascience/elgeno/internal"
	"github.com/exascience/elgeno/intervals"
	"github.com/exascience/elgeno/sites"
	"github.com/exascience/elgeno/vcf"
)

// GnarlyHelp is the help string for this command.
const GnarlyHelp = "gnarly parameters:\n" +
	"elgeno gnarly vcf-file output-vcf-file\n" +
	"[--output-db vcf-file]\n" +
	"[--intervals [bed-file | elsites-file | vcf-file]]\n" +
	"[--only-output-calls-starting-in-intervals]\n" +
	"[--max-alt-alleles nr]\n" +
	"[--summarize-pls]\n" +
	"[--standard-min-confidence value]\n" +
	"[--heterozygosity value]\n" +
	"[--config yaml-file]\n" +
	"[--nr-of-threads nr]\n" +
	"[--timed]\n" +
	"[--profile file]\n" +
	"[--log-path path]\n"

func closeInput(input *vcf.InputFile, err *error) {
	if nerr := input.Close(); *err == nil {
		*err = nerr
	}
}

func closeOutput(output *vcf.OutputFile, err *error) {
	if nerr := output.Close(); *err == nil {
		*err = nerr
	}
}

func runGnarly(g *genotyper.Genotyper, input, output, outputDB string, options sites.Options) (err error) {
	inputPath, err := internal.FullPathname(input)
	if err != nil {
		return err
	}
	in, err := vcf.Open(inputPath, false)
	if err != nil {
		return err
	}
	defer closeInput(in, &err)
	out, err := vcf.Create(output, false)
	if err != nil {
		return err
	}
	defer closeOutput(out, &err)
	var db *bufio.Writer
	if outputDB != "" {
		var dbOut *vcf.OutputFile
		if dbOut, err = vcf.Create(outputDB, false); err != nil {
			return err
		}
		defer closeOutput(dbOut, &err)
		db = dbOut.Writer
	}
	return sites.Run(g, in.Reader, out.Writer, db, options)
}

// Gnarly implements the elgeno gnarly command.
func Gnarly() error {
	var (
		outputDB, intervalsFile, configFile   string
		onlyOutputCallsStartingInIntervals    bool
		maxAltAlleles                         int
		summarizePLs                          bool
		standardMinConfidence, heterozygosity float64
		nrOfThreads                           int
		timed                                 bool
		profile, logPath                      string
	)

	defaults := genotyper.DefaultConfig()

	var flags flag.FlagSet
	flags.StringVar(&outputDB, "output-db", "", "write the sites-only annotation database to the given VCF file")
	flags.StringVar(&intervalsFile, "intervals", "", "only process sites that overlap the intervals in the given file")
	flags.BoolVar(&onlyOutputCallsStartingInIntervals, "only-output-calls-starting-in-intervals", false, "only output sites that start in the given intervals")
	flags.IntVar(&maxAltAlleles, "max-alt-alleles", defaults.MaxAltAlleles, "number of alternate alleles for which likelihood sizes are precomputed")
	flags.BoolVar(&summarizePLs, "summarize-pls", defaults.SummarizeLikelihoods, "replace PL vectors by RGQ, ABGQ and ALTGQ")
	flags.Float64Var(&standardMinConfidence, "standard-min-confidence", defaults.StandardConfidenceForCalling, "minimum phred-scaled confidence threshold for calling")
	flags.Float64Var(&heterozygosity, "heterozygosity", defaults.SnpHeterozygosity, "heterozygosity prior for SNPs")
	flags.StringVar(&configFile, "config", "", "read the genotyper configuration from the given YAML file")
	flags.IntVar(&nrOfThreads, "nr-of-threads", 0, "number of worker threads")
	flags.BoolVar(&timed, "timed", false, "measure the runtime")
	flags.StringVar(&profile, "profile", "", "write a CPU profile to the given file")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")

	parseFlags(&flags, 4, GnarlyHelp)

	input := getFilename(os.Args[2], GnarlyHelp)
	output := getFilename(os.Args[3], GnarlyHelp)

	setLogOutput(logPath)

	// sanity checks

	var sanityChecksFailed bool

	if !checkExist("", input) {
		sanityChecksFailed = true
	}
	if !checkCreate("", output) {
		sanityChecksFailed = true
	}
	if outputDB != "" && !checkCreate("--output-db", outputDB) {
		sanityChecksFailed = true
	}
	if intervalsFile != "" && !checkExist("--intervals", intervalsFile) {
		sanityChecksFailed = true
	}
	if configFile != "" && !checkExist("--config", configFile) {
		sanityChecksFailed = true
	}
	if onlyOutputCallsStartingInIntervals && intervalsFile == "" {
		sanityChecksFailed = true
		log.Println("Error: Cannot use --only-output-calls-starting-in-intervals without also using --intervals.")
	}
	if nrOfThreads < 0 {
		sanityChecksFailed = true
		log.Println("Error: Invalid nr-of-threads: ", nrOfThreads)
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, GnarlyHelp)
		os.Exit(1)
	}

	// configuration: defaults, then the YAML file, then the environment,
	// then explicit command line flags

	config, err := genotyper.LoadConfig(configFile)
	if err != nil {
		return err
	}

	var command bytes.Buffer
	fmt.Fprint(&command, os.Args[0], " gnarly ", input, " ", output)

	if outputDB != "" {
		fmt.Fprint(&command, " --output-db ", outputDB)
	}
	if intervalsFile != "" {
		fmt.Fprint(&command, " --intervals ", intervalsFile)
	}
	if onlyOutputCallsStartingInIntervals {
		fmt.Fprint(&command, " --only-output-calls-starting-in-intervals")
	}
	if configFile != "" {
		fmt.Fprint(&command, " --config ", configFile)
	}

	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "max-alt-alleles":
			config.MaxAltAlleles = maxAltAlleles
		case "summarize-pls":
			config.SummarizeLikelihoods = summarizePLs
		case "standard-min-confidence":
			config.StandardConfidenceForCalling = standardMinConfidence
		case "heterozygosity":
			config.SnpHeterozygosity = heterozygosity
		}
	})

	fmt.Fprint(&command, " --max-alt-alleles ", config.MaxAltAlleles)
	if config.SummarizeLikelihoods {
		fmt.Fprint(&command, " --summarize-pls")
	}
	fmt.Fprint(&command, " --standard-min-confidence ", config.StandardConfidenceForCalling)
	fmt.Fprint(&command, " --heterozygosity ", config.SnpHeterozygosity)

	if nrOfThreads > 0 {
		runtime.GOMAXPROCS(nrOfThreads)
		fmt.Fprint(&command, " --nr-of-threads ", nrOfThreads)
	}

	if timed {
		fmt.Fprint(&command, " --timed")
	}

	if profile != "" {
		fmt.Fprint(&command, " --profile ", profile)
	}

	if logPath != "" {
		fmt.Fprint(&command, " --log-path ", logPath)
	}

	commandString := command.String()

	g, err := genotyper.New(config)
	if err != nil {
		return err
	}

	// executing command

	log.Println("Executing command:\n", commandString)

	options := sites.Options{
		OnlyOutputCallsStartingInIntervals: onlyOutputCallsStartingInIntervals,
		CommandLine:                        commandString,
	}

	phase := int64(1)
	if intervalsFile != "" {
		err = timedRun(timed, profile, "Loading intervals.", phase, func() (err error) {
			options.Intervals, err = intervals.FromFile(intervalsFile)
			return err
		})
		if err != nil {
			return err
		}
		phase++
	}

	return timedRun(timed, profile, "Finalizing sites.", phase, func() error {
		return runGnarly(g, input, output, outputDB, options)
	})
}

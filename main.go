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

// elgeno is a high-performance tool for finalizing joint-called
// multi-sample VCF files, as they come out of GenomicsDB or a similar
// merging step.
//
// The gnarly command calls genotypes from the merged likelihoods,
// removes the <NON_REF> allele, computes the final site annotations,
// and optionally writes a sites-only annotation database.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/exascience/elgeno/cmd"
)

func printHelp() {
	fmt.Fprintln(os.Stderr, "Available commands: gnarly, vcf-to-elsites, bed-to-elsites")
	fmt.Fprint(os.Stderr, "\n", cmd.GnarlyHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.VcfToElsitesHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.BedToElsitesHelp)
}

func main() {
	fmt.Fprintln(os.Stderr, cmd.ProgramMessage)
	if len(os.Args) < 2 {
		log.Println("Incorrect number of parameters.")
		fmt.Fprint(os.Stderr, cmd.HelpMessage, "\n")
		printHelp()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "gnarly":
		err = cmd.Gnarly()
	case "vcf-to-elsites":
		err = cmd.VcfToElsites()
	case "bed-to-elsites":
		err = cmd.BedToElsites()
	case "help", "-help", "--help", "-h", "--h":
		printHelp()
	default:
		log.Println("Unknown command:", os.Args[1])
		printHelp()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(err)
	}
}

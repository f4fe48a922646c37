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
	"flag"
	"os"

	"github.com/exascience/elgeno/intervals"
)

// VcfToElsitesHelp is the help string for this command.
const VcfToElsitesHelp = "vcf-to-elsites parameters:\n" +
	"elgeno vcf-to-elsites vcf-file elsites-file\n" +
	"[--log-path path]\n"

func toElsites(load func(string) (map[string][]intervals.Interval, error), help string) error {
	var logPath string

	var flags flag.FlagSet
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")
	parseFlags(&flags, 4, help)

	input := getFilename(os.Args[2], help)
	output := getFilename(os.Args[3], help)

	setLogOutput(logPath)

	inter, err := load(input)
	if err != nil {
		return err
	}
	intervals.Normalize(inter)
	return intervals.ToElsitesFile(inter, output)
}

// VcfToElsites implements the elgeno vcf-to-elsites command.
func VcfToElsites() error {
	return toElsites(intervals.FromVcfFile, VcfToElsitesHelp)
}

// BedToElsitesHelp is the help string for this command.
const BedToElsitesHelp = "bed-to-elsites parameters:\n" +
	"elgeno bed-to-elsites bed-file elsites-file\n" +
	"[--log-path path]\n"

// BedToElsites implements the elgeno bed-to-elsites command.
func BedToElsites() error {
	return toElsites(intervals.FromBedFile, BedToElsitesHelp)
}

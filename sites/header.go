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

package sites

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/exascience/elgeno/utils"
	"github.com/exascience/elgeno/vcf"
)

const gvcfBlockPrefix = "GVCFBlock"

// CommandLineKey is the meta-information key under which the command
// line of a run is recorded in output headers.
const CommandLineKey = utils.ProgramName + "CommandLine"

func newFormatInformation(id utils.Symbol, number int32, typ vcf.Type, description string) *vcf.FormatInformation {
	info := vcf.NewFormatInformation()
	info.ID = id
	info.Number = number
	info.Type = typ
	info.Description = description
	return info
}

var (
	finalInfos = []*vcf.FormatInformation{
		newFormatInformation(AlleleCountKey, vcf.NumberA, vcf.Integer, "Allele count in genotypes, for each ALT allele, in the same order as listed"),
		newFormatInformation(AlleleFrequencyKey, vcf.NumberA, vcf.Float, "Allele Frequency, for each ALT allele, in the same order as listed"),
		newFormatInformation(AlleleNumberKey, 1, vcf.Integer, "Total number of alleles in called genotypes"),
		newFormatInformation(FisherStrandKey, 1, vcf.Float, "Phred-scaled p-value using Fisher's exact test to detect strand bias"),
		newFormatInformation(StrandOddsRatioKey, 1, vcf.Float, "Symmetric Odds Ratio of 2x2 contingency table to detect strand bias"),
		newFormatInformation(StrandBiasTableKey, vcf.NumberDot, vcf.Integer, "Forward/reverse read counts for strand bias tests: reference forward, reference reverse, alternate forward, alternate reverse"),
		newFormatInformation(QualByDepthKey, 1, vcf.Float, "Variant Confidence/Quality by Depth"),
		newFormatInformation(MappingQualityKey, 1, vcf.Float, "RMS Mapping Quality"),
		newFormatInformation(DepthKey, 1, vcf.Integer, "Approximate read depth; some reads may have been filtered"),
	}

	summaryFormats = []*vcf.FormatInformation{
		newFormatInformation(ReferenceGQKey, 1, vcf.Integer, "Unconditional reference genotype confidence, encoded as a phred quality -10*log10 p(genotype call is wrong)"),
		newFormatInformation(AlleleBalanceGQKey, 1, vcf.Integer, "Phred-scaled confidence that the called alleles are present in the called proportions"),
		newFormatInformation(AltGQKey, 1, vcf.Integer, "Phred-scaled confidence that the called alternate alleles are real"),
	}
)

// NewCommandLine creates the meta-information entry that records a
// run in output headers. Every call gets a fresh run ID.
func NewCommandLine(commandLine string) *vcf.MetaInformation {
	meta := vcf.NewMetaInformation()
	meta.ID = utils.Intern(utils.ProgramName)
	meta.Fields["CommandLine"] = commandLine
	meta.Fields["Version"] = utils.ProgramVersion
	meta.Fields["Date"] = time.Now().Format(time.RFC1123)
	meta.Fields["RunID"] = uuid.New().String()
	return meta
}

// baseHeader copies the header lines of the input that are shared by
// both outputs, without the GVCF block definitions.
func baseHeader(input *vcf.Header, commandLine *vcf.MetaInformation) *vcf.Header {
	header := vcf.NewHeader()
	header.FileFormat = input.FileFormat
	header.Infos = append([]*vcf.FormatInformation(nil), input.Infos...)
	header.Formats = append([]*vcf.FormatInformation(nil), input.Formats...)
	for key, values := range input.Meta {
		if !strings.HasPrefix(key, gvcfBlockPrefix) {
			header.Meta[key] = append([]interface{}(nil), values...)
		}
	}
	for _, info := range finalInfos {
		header.AddInfo(info)
	}
	if commandLine != nil {
		header.Meta[CommandLineKey] = append(header.Meta[CommandLineKey], commandLine)
	}
	return header
}

// FinalHeader creates the header for finalized records, with the
// given sample columns. When likelihoods are summarized, the summary
// FORMAT entries are declared as well.
func FinalHeader(input *vcf.Header, samples []string, summarize bool, commandLine *vcf.MetaInformation) *vcf.Header {
	header := baseHeader(input, commandLine)
	if summarize {
		for _, format := range summaryFormats {
			header.AddFormat(format)
		}
	}
	header.SetSamples(samples)
	return header
}

// SitesOnlyHeader creates the header for the annotation database,
// which has no sample columns.
func SitesOnlyHeader(input *vcf.Header, commandLine *vcf.MetaInformation) *vcf.Header {
	return baseHeader(input, commandLine)
}

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
	"bufio"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exascience/elgeno/genotyper"
	"github.com/exascience/elgeno/utils"
	"github.com/exascience/elgeno/vcf"
)

const testHeader = "##fileformat=VCFv4.2\n" +
	"##GVCFBlock0-20=minGQ=0(inclusive),maxGQ=20(exclusive)\n" +
	"##INFO=<ID=QUALapprox,Number=1,Type=Integer,Description=\"Sum of PL[0] values; used to approximate the QUAL score\">\n" +
	"##INFO=<ID=VarDP,Number=1,Type=Integer,Description=\"(informative) depth over variant genotypes\">\n" +
	"##INFO=<ID=DP,Number=1,Type=Integer,Description=\"Approximate read depth\">\n" +
	"##INFO=<ID=RAW_MQandDP,Number=2,Type=Integer,Description=\"Raw data (sum of squared MQ and total depth) for improved RMS Mapping Quality calculation\">\n" +
	"##FORMAT=<ID=GT,Number=1,Type=String,Description=\"Genotype\">\n" +
	"##FORMAT=<ID=AD,Number=R,Type=Integer,Description=\"Allelic depths for the ref and alt alleles in the order listed\">\n" +
	"##FORMAT=<ID=DP,Number=1,Type=Integer,Description=\"Approximate read depth\">\n" +
	"##FORMAT=<ID=GQ,Number=1,Type=Integer,Description=\"Genotype Quality\">\n" +
	"##FORMAT=<ID=MIN_DP,Number=1,Type=Integer,Description=\"Minimum DP observed within the GVCF block\">\n" +
	"##FORMAT=<ID=PL,Number=G,Type=Integer,Description=\"Normalized, Phred-scaled likelihoods for genotypes\">\n" +
	"##FORMAT=<ID=SB,Number=4,Type=Integer,Description=\"Per-sample component statistics which comprise the Fisher's Exact Test to detect strand bias\">\n" +
	"##contig=<ID=chr1,length=248956422>\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tB\tA\n"

func parseTestHeader(t *testing.T) (*vcf.Header, *vcf.VariantParser) {
	header, _, err := vcf.ParseHeader(bufio.NewReader(strings.NewReader(testHeader)))
	require.NoError(t, err)
	parser, err := header.NewVariantParser()
	require.NoError(t, err)
	return header, parser
}

func parseTestVariant(t *testing.T, parser *vcf.VariantParser, line string) *vcf.Variant {
	var sc vcf.StringScanner
	sc.Reset(line)
	variant := sc.ParseVariant(parser)
	require.NoError(t, sc.Err())
	return variant
}

const biallelicLine = "chr1\t1000\t.\tA\tC,<NON_REF>\t.\t.\tQUALapprox=100;VarDP=20;DP=40;RAW_MQandDP=360000,100\t" +
	"GT:AD:DP:GQ:MIN_DP:PL:SB\t" +
	"1/1:0,11,0:11:60:.:300,60,0,310,70,400:0,1,6,5\t" +
	"0/1:9,7,0:16:50:.:50,0,200,60,210,300:5,4,3,2"

func TestDecode(t *testing.T) {
	header, parser := parseTestHeader(t)
	site, err := Decode(parseTestVariant(t, parser, biallelicLine), header.Samples())
	require.NoError(t, err)

	assert.Equal(t, "chr1", site.Contig)
	assert.Equal(t, int32(1000), site.Pos)
	assert.Equal(t, []genotyper.Allele{{Bases: "A", Reference: true}, {Bases: "C"}, genotyper.NonRef}, site.Alleles)
	assert.True(t, site.HasQualApprox)
	assert.Equal(t, 100.0, site.QualApprox)
	assert.Equal(t, 20, site.VariantDepth)
	assert.Equal(t, 40, site.Depth)
	assert.Equal(t, &genotyper.RawMappingQuality{SquareSum: 360000, Reads: 100}, site.RawMQ)

	require.Len(t, site.Samples, 2)
	b := site.Samples[0]
	assert.Equal(t, "B", b.Name)
	assert.Equal(t, []int{1, 1}, b.Alleles)
	assert.Equal(t, []int{0, 11, 0}, b.AlleleDepths)
	assert.Equal(t, []int{300, 60, 0, 310, 70, 400}, b.Likelihoods)
	assert.Equal(t, &genotyper.StrandBiasTable{0, 1, 6, 5}, b.StrandBias)
	assert.True(t, b.HasGQ)
	assert.Equal(t, 60, b.GQ)
	assert.Equal(t, "A", site.Samples[1].Name)
}

func TestDecodeUndeclaredEntries(t *testing.T) {
	header, _, err := vcf.ParseHeader(bufio.NewReader(strings.NewReader(
		"##fileformat=VCFv4.2\n#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tS\n")))
	require.NoError(t, err)
	parser, err := header.NewVariantParser()
	require.NoError(t, err)
	variant := parseTestVariant(t, parser,
		"chr1\t7\t.\tG\tT,<NON_REF>\t.\t.\tQUALapprox=75;DP=12;RAW_MQ=8100\tGT:GQ:PL\t0/1:35:35,0,90,60,120,200")
	site, err := Decode(variant, header.Samples())
	require.NoError(t, err)
	assert.Equal(t, 75.0, site.QualApprox)
	assert.Equal(t, 12, site.Depth)
	assert.Equal(t, 0, site.VariantDepth)
	assert.Nil(t, site.RawMQ)
	assert.Equal(t, []int{35, 0, 90, 60, 120, 200}, site.Samples[0].Likelihoods)
	assert.Equal(t, 35, site.Samples[0].GQ)
	assert.Nil(t, site.Samples[0].AlleleDepths)
	assert.Nil(t, site.Samples[0].StrandBias)
}

func TestDecodeLegacyMappingQuality(t *testing.T) {
	header, parser := parseTestHeader(t)
	variant := parseTestVariant(t, parser,
		"chr1\t1000\t.\tA\tC,<NON_REF>\t.\t.\tQUALapprox=100;VarDP=20;DP=40;RAW_MQ=36000;MQ_DP=10\tGT\t0/1\t0/0")
	site, err := Decode(variant, header.Samples())
	require.NoError(t, err)
	require.Equal(t, &genotyper.RawMappingQuality{SquareSum: 36000, Reads: 10}, site.RawMQ)
	mq, ok := site.RawMQ.Finalize()
	assert.True(t, ok)
	assert.InDelta(t, 60.0, mq, 1e-9)

	result := &genotyper.Result{
		SiteStatistics:    genotyper.SiteStatistics{Alleles: []genotyper.Allele{{Bases: "A", Reference: true}, {Bases: "C"}}},
		MappingQuality:    mq,
		HasMappingQuality: true,
	}
	final := NewEncoder(header.Samples()).Final(variant, result)
	for _, key := range []utils.Symbol{RawMQKey, MQDepthKey} {
		_, found := final.Info.Get(key)
		assert.False(t, found, *key)
	}
	value, found := final.Info.Get(MappingQualityKey)
	assert.True(t, found)
	assert.Equal(t, "60.00", value)
}

func TestDecodeMissingEntries(t *testing.T) {
	header, parser := parseTestHeader(t)
	variant := parseTestVariant(t, parser,
		"chr1\t1000\t.\tA\tC,<NON_REF>\t.\t.\tDP=40\tGT:AD:GQ:PL\t./.:.:.:.\t0")
	site, err := Decode(variant, header.Samples())
	require.NoError(t, err)
	assert.False(t, site.HasQualApprox)
	assert.Nil(t, site.RawMQ)
	assert.Equal(t, []int{genotyper.NoCallIndex, genotyper.NoCallIndex}, site.Samples[0].Alleles)
	assert.Nil(t, site.Samples[0].AlleleDepths)
	assert.Nil(t, site.Samples[0].Likelihoods)
	assert.False(t, site.Samples[0].HasGQ)
	assert.Equal(t, []int{0}, site.Samples[1].Alleles)
}

func TestDecodeErrors(t *testing.T) {
	header, parser := parseTestHeader(t)
	samples := header.Samples()

	variant := parseTestVariant(t, parser, "chr1\t1000\t.\tA\tC,<NON_REF>\t.\t.\tDP=40\tGT:SB\t0/1:1,2,3\t0/0:1,2,3,4")
	_, err := Decode(variant, samples)
	require.Error(t, err)
	assert.Equal(t, genotyper.ErrBadStrandBias, errors.Cause(err))

	variant = parseTestVariant(t, parser, "chr1\t1000\t.\tA\tC,<NON_REF>\t.\t.\tDP=40\tGT:AD\t0/1:1,.,3\t0/0:1,2,3")
	_, err = Decode(variant, samples)
	assert.Error(t, err)

	variant = parseTestVariant(t, parser, "chr1\t1000\t.\tA\tC,<NON_REF>\t.\t.\tDP=40;RAW_MQandDP=1\tGT\t0/1\t0/0")
	_, err = Decode(variant, samples)
	assert.Error(t, err)

	_, err = Decode(variant, samples[:1])
	assert.Error(t, err)
}

func TestEncoderOrder(t *testing.T) {
	enc := NewEncoder([]string{"NA3", "NA1", "NA2"})
	assert.Equal(t, []string{"NA1", "NA2", "NA3"}, enc.Samples())
	assert.Equal(t, []int{1, 2, 0}, enc.order)

	enc = NewEncoder(nil)
	assert.Empty(t, enc.Samples())
}

func TestEncodeFinal(t *testing.T) {
	header, parser := parseTestHeader(t)
	variant := parseTestVariant(t, parser, biallelicLine)
	site, err := Decode(variant, header.Samples())
	require.NoError(t, err)
	g, err := genotyper.New(genotyper.DefaultConfig())
	require.NoError(t, err)
	result, err := g.Finalize(site)
	require.NoError(t, err)
	require.NotNil(t, result)

	final := NewEncoder(header.Samples()).Final(variant, result)
	assert.Equal(t, []string{"C"}, final.Alt)
	assert.Equal(t, 100.0, final.Qual)
	_, found := final.Info.Get(QualApproxKey)
	assert.False(t, found)
	_, found = final.Info.Get(RawMQandDPKey)
	assert.False(t, found)
	ac, _ := final.Info.Get(AlleleCountKey)
	assert.Equal(t, 3, ac)
	mq, _ := final.Info.Get(MappingQualityKey)
	assert.Equal(t, "60.00", mq)
	assert.Equal(t, []utils.Symbol{vcf.GT, AlleleDepthsKey, DepthKey, GenotypeQualKey, LikelihoodsKey, StrandBiasKey}, final.GenotypeFormat)

	// the input record is left alone
	_, found = variant.Info.Get(QualApproxKey)
	assert.True(t, found)
	assert.Equal(t, []string{"C", "<NON_REF>"}, variant.Alt)

	db := SitesOnly(variant, result)
	assert.Nil(t, db.GenotypeFormat)
	assert.Nil(t, db.GenotypeData)
	sb, _ := db.Info.Get(StrandBiasTableKey)
	assert.Equal(t, []interface{}{5, 5, 9, 7}, sb)
	_, found = db.Info.Get(QualApproxKey)
	assert.True(t, found)
}

func TestLikelihoodValues(t *testing.T) {
	pl, rgq, abgq, altgq := likelihoodValues(genotyper.FullLikelihoods{PL: []int{0, 10, 20}})
	assert.Equal(t, []interface{}{0, 10, 20}, pl)
	assert.Nil(t, rgq)
	assert.Nil(t, abgq)
	assert.Nil(t, altgq)

	pl, rgq, abgq, altgq = likelihoodValues(genotyper.SummarizedLikelihoods{Summary: genotyper.Summary{RGQ: 1, ABGQ: 2, ALTGQ: 3}})
	assert.Nil(t, pl)
	assert.Equal(t, []interface{}{1, 2, 3}, []interface{}{rgq, abgq, altgq})

	pl, rgq, _, _ = likelihoodValues(genotyper.NoLikelihoods{})
	assert.Nil(t, pl)
	assert.Nil(t, rgq)
}

func formatHeader(t *testing.T, header *vcf.Header) string {
	var buf strings.Builder
	out := bufio.NewWriter(&buf)
	require.NoError(t, header.Format(out))
	require.NoError(t, out.Flush())
	return buf.String()
}

func TestHeaders(t *testing.T) {
	input, _ := parseTestHeader(t)
	commandLine := NewCommandLine("elgeno gnarly in.vcf out.vcf")
	final := FinalHeader(input, []string{"A", "B"}, true, commandLine)
	text := formatHeader(t, final)

	assert.NotContains(t, text, "GVCFBlock")
	assert.Contains(t, text, "##contig=<ID=chr1,length=248956422>\n")
	for _, id := range []string{"AC", "AF", "AN", "FS", "SOR", "SB_TABLE", "QD", "MQ", "DP", "QUALapprox"} {
		assert.Contains(t, text, "##INFO=<ID="+id+",")
	}
	for _, id := range []string{"RGQ", "ABGQ", "ALTGQ"} {
		assert.Contains(t, text, "##FORMAT=<ID="+id+",")
	}
	assert.Contains(t, text, "##"+CommandLineKey+"=<ID=elgeno,CommandLine=\"elgeno gnarly in.vcf out.vcf\"")
	assert.True(t, strings.HasSuffix(text, "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tA\tB\n"))
	assert.Len(t, input.Meta["GVCFBlock0-20"], 1)

	db := SitesOnlyHeader(input, commandLine)
	assert.Empty(t, db.Samples())
	text = formatHeader(t, db)
	assert.NotContains(t, text, "ID=RGQ")
	assert.True(t, strings.HasSuffix(text, "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n"))

	assert.NotEqual(t, commandLine.Fields["RunID"], NewCommandLine("").Fields["RunID"])
}

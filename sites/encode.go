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
	"log"
	"sort"

	"github.com/exascience/elgeno/genotyper"
	"github.com/exascience/elgeno/utils"
	"github.com/exascience/elgeno/vcf"
)

// An Encoder turns finalized sites into VCF records. Finalized records
// list their samples sorted by name.
type Encoder struct {
	samples []string
	order   []int // output column -> input column
}

// NewEncoder creates an Encoder for the sample columns of an input
// header.
func NewEncoder(samples []string) *Encoder {
	order := make([]int, len(samples))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return samples[order[i]] < samples[order[j]]
	})
	sorted := make([]string, len(samples))
	for column, index := range order {
		sorted[column] = samples[index]
	}
	return &Encoder{samples: sorted, order: order}
}

// Samples returns the sample names in output order.
func (enc *Encoder) Samples() []string {
	return enc.samples
}

func alternateBases(alleles []genotyper.Allele) []string {
	alts := make([]string, len(alleles)-1)
	for i, allele := range alleles[1:] {
		alts[i] = allele.Bases
	}
	return alts
}

func intList(values []int) []interface{} {
	list := make([]interface{}, len(values))
	for i, v := range values {
		list[i] = v
	}
	return list
}

// setAlleleStatistics sets AC and AF, scalars for a single alternate
// allele and lists otherwise, and AN.
func setAlleleStatistics(info *utils.SmallMap, stats *genotyper.SiteStatistics) {
	if len(stats.AlleleCounts) == 1 {
		info.Set(AlleleCountKey, stats.AlleleCounts[0])
		info.Set(AlleleFrequencyKey, stats.AlleleFrequencies[0])
	} else {
		info.Set(AlleleCountKey, intList(stats.AlleleCounts))
		af := make([]interface{}, len(stats.AlleleFrequencies))
		for i, f := range stats.AlleleFrequencies {
			af[i] = f
		}
		info.Set(AlleleFrequencyKey, af)
	}
	info.Set(AlleleNumberKey, stats.AlleleNumber)
}

// Final creates the finalized record for a site: trimmed alleles,
// QUAL from QUALapprox, finalized annotations, and recalled genotypes.
// The raw QUALapprox and mapping quality entries are removed.
func (enc *Encoder) Final(variant *vcf.Variant, result *genotyper.Result) *vcf.Variant {
	final := &vcf.Variant{
		Chrom:  variant.Chrom,
		Pos:    variant.Pos,
		ID:     variant.ID,
		Ref:    variant.Ref,
		Alt:    alternateBases(result.Alleles),
		Qual:   result.Qual,
		Filter: variant.Filter,
		Info:   make(utils.SmallMap, 0, len(variant.Info)+7),
	}
	for _, entry := range variant.Info {
		switch entry.Key {
		case QualApproxKey, RawMQandDPKey, RawMQKey, MQDepthKey:
		default:
			final.Info = append(final.Info, entry)
		}
	}
	setAlleleStatistics(&final.Info, &result.SiteStatistics)
	final.Info.Set(FisherStrandKey, vcf.FormatFixed(result.FisherStrand, 3))
	final.Info.Set(StrandOddsRatioKey, vcf.FormatFixed(result.StrandOddsRatio, 3))
	if result.HasQualByDepth {
		final.Info.Set(QualByDepthKey, result.QualByDepth)
	}
	if result.HasMappingQuality {
		final.Info.Set(MappingQualityKey, vcf.FormatFixed(result.MappingQuality, 2))
	}
	final.Info.SortByKey()
	enc.setGenotypes(final, variant, result.Genotypes)
	return final
}

// SitesOnly creates the record for the annotation database: trimmed
// alleles, no samples, the raw annotations of the input, and the allele
// statistics and strand bias table of the site.
func SitesOnly(variant *vcf.Variant, result *genotyper.Result) *vcf.Variant {
	db := &vcf.Variant{
		Chrom:  variant.Chrom,
		Pos:    variant.Pos,
		ID:     variant.ID,
		Ref:    variant.Ref,
		Alt:    alternateBases(result.Alleles),
		Qual:   variant.Qual,
		Filter: variant.Filter,
		Info:   append(make(utils.SmallMap, 0, len(variant.Info)+4), variant.Info...),
	}
	setAlleleStatistics(&db.Info, &result.SiteStatistics)
	db.Info.Set(StrandBiasTableKey, intList(result.StrandBias[:]))
	db.Info.SortByKey()
	return db
}

func present(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case []interface{}:
		for _, e := range v {
			if e != nil {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// genotypeFormat determines the FORMAT keys of a finalized record: GT
// first, then all keys that have a value for at least one sample, in
// sorted order.
func genotypeFormat(variant *vcf.Variant, genotypes []genotyper.FinalGenotype) []utils.Symbol {
	var ad, gq, pl, summary bool
	for i := range genotypes {
		g := &genotypes[i]
		ad = ad || g.AlleleDepths != nil
		gq = gq || g.HasGQ
		switch g.Likelihoods.(type) {
		case genotyper.FullLikelihoods:
			pl = true
		case genotyper.SummarizedLikelihoods:
			summary = true
		}
	}
	var keys []utils.Symbol
	if ad {
		keys = append(keys, AlleleDepthsKey)
	}
	if gq {
		keys = append(keys, GenotypeQualKey)
	}
	if pl {
		keys = append(keys, LikelihoodsKey)
	}
	if summary {
		keys = append(keys, ReferenceGQKey, AlleleBalanceGQKey, AltGQKey)
	}
	for _, key := range variant.GenotypeFormat {
		switch key {
		case vcf.GT, AlleleDepthsKey, GenotypeQualKey, LikelihoodsKey, MinDepthKey,
			ReferenceGQKey, AlleleBalanceGQKey, AltGQKey:
			continue
		}
		for i := range variant.GenotypeData {
			if value, _ := variant.GenotypeData[i].Data.Get(key); present(value) {
				keys = append(keys, key)
				break
			}
		}
	}
	utils.SortSymbols(keys)
	return append([]utils.Symbol{vcf.GT}, keys...)
}

// likelihoodValues returns the PL, RGQ, ABGQ, and ALTGQ values of a
// finalized genotype, nil where missing.
func likelihoodValues(likelihoods genotyper.Representation) (pl, rgq, abgq, altgq interface{}) {
	switch l := likelihoods.(type) {
	case genotyper.FullLikelihoods:
		return intList(l.PL), nil, nil, nil
	case genotyper.SummarizedLikelihoods:
		return nil, l.RGQ, l.ABGQ, l.ALTGQ
	case genotyper.NoLikelihoods:
		return nil, nil, nil, nil
	default:
		log.Panicf("unknown likelihood representation %T", likelihoods)
		return
	}
}

func encodeGenotype(format []utils.Symbol, input *vcf.Genotype, g *genotyper.FinalGenotype) vcf.Genotype {
	output := vcf.Genotype{
		Phased: g.Phased,
		GT:     make([]int32, len(g.Alleles)),
		Data:   make(utils.SmallMap, 0, len(format)-1),
	}
	for i, allele := range g.Alleles {
		output.GT[i] = int32(allele)
	}
	pl, rgq, abgq, altgq := likelihoodValues(g.Likelihoods)
	for _, key := range format[1:] {
		var value interface{}
		switch key {
		case AlleleDepthsKey:
			if g.AlleleDepths != nil {
				value = intList(g.AlleleDepths)
			}
		case GenotypeQualKey:
			if g.HasGQ {
				value = g.GQ
			}
		case LikelihoodsKey:
			value = pl
		case ReferenceGQKey:
			value = rgq
		case AlleleBalanceGQKey:
			value = abgq
		case AltGQKey:
			value = altgq
		default:
			value, _ = input.Data.Get(key)
		}
		output.Data = append(output.Data, utils.SmallMapEntry{Key: key, Value: value})
	}
	return output
}

func (enc *Encoder) setGenotypes(final, variant *vcf.Variant, genotypes []genotyper.FinalGenotype) {
	if len(genotypes) == 0 {
		return
	}
	format := genotypeFormat(variant, genotypes)
	final.GenotypeFormat = format
	final.GenotypeData = make([]vcf.Genotype, len(enc.order))
	for column, index := range enc.order {
		final.GenotypeData[column] = encodeGenotype(format, &variant.GenotypeData[index], &genotypes[index])
	}
}

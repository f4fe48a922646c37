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
	"reflect"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/exascience/elgeno/genotyper"
	"github.com/exascience/elgeno/utils"
	"github.com/exascience/elgeno/vcf"
)

// unwrapSingleton lets entries without a header declaration, which
// are parsed as one-element lists, decode into scalar fields.
func unwrapSingleton(_, to reflect.Type, data interface{}) (interface{}, error) {
	if list, ok := data.([]interface{}); ok && len(list) == 1 && to.Kind() != reflect.Slice {
		return list[0], nil
	}
	return data, nil
}

// decodeFields decodes the given entries into the mapstructure-tagged
// struct that result points to. Missing entries, and lists of missing
// values, are left out. Lists with some missing values are rejected.
func decodeFields(entries utils.SmallMap, keys []utils.Symbol, result interface{}) error {
	input := make(map[string]interface{}, len(keys))
	for _, key := range keys {
		value, _ := entries.Get(key)
		if value == nil {
			continue
		}
		if list, ok := value.([]interface{}); ok {
			missing := 0
			for _, v := range list {
				if v == nil {
					missing++
				}
			}
			if missing == len(list) {
				continue
			}
			if missing > 0 {
				return errors.Errorf("%v has missing values", *key)
			}
		}
		input[*key] = value
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.DecodeHookFuncType(unwrapSingleton),
		WeaklyTypedInput: true,
		Result:           result,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

func rawMappingQuality(fields *siteFields) (*genotyper.RawMappingQuality, error) {
	switch {
	case fields.RawMQandDP != nil:
		if len(fields.RawMQandDP) != 2 {
			return nil, errors.Errorf("%v has %v values instead of 2", *RawMQandDPKey, len(fields.RawMQandDP))
		}
		return &genotyper.RawMappingQuality{SquareSum: fields.RawMQandDP[0], Reads: fields.RawMQandDP[1]}, nil
	case fields.RawMQ != nil && fields.MQDP != nil:
		// older inputs carry the sum of squares and the read count separately
		return &genotyper.RawMappingQuality{SquareSum: *fields.RawMQ, Reads: float64(*fields.MQDP)}, nil
	default:
		return nil, nil
	}
}

func decodeSample(genotype *vcf.Genotype, sample *genotyper.SampleGenotype) error {
	var fields sampleFields
	if err := decodeFields(genotype.Data, sampleKeys, &fields); err != nil {
		return err
	}
	var sb strandBiasFields
	if err := decodeFields(genotype.Data, strandBiasKeys, &sb); err != nil {
		return errors.Wrap(genotyper.ErrBadStrandBias, err.Error())
	}
	sample.Alleles = make([]int, len(genotype.GT))
	for i, allele := range genotype.GT {
		if allele < 0 {
			sample.Alleles[i] = genotyper.NoCallIndex
		} else {
			sample.Alleles[i] = int(allele)
		}
	}
	sample.Phased = genotype.Phased
	sample.Likelihoods = fields.PL
	sample.AlleleDepths = fields.AD
	if fields.GQ != nil {
		sample.GQ, sample.HasGQ = *fields.GQ, true
	}
	if sb.SB != nil {
		if len(sb.SB) != len(genotyper.StrandBiasTable{}) {
			return errors.Wrapf(genotyper.ErrBadStrandBias, "%v values", len(sb.SB))
		}
		var table genotyper.StrandBiasTable
		copy(table[:], sb.SB)
		sample.StrandBias = &table
	}
	return nil
}

// Decode converts a merged variant into a site for the genotyper.
// samples are the sample names of the VCF header, in column order.
func Decode(variant *vcf.Variant, samples []string) (*genotyper.Site, error) {
	if len(variant.GenotypeData) != len(samples) {
		return nil, errors.Errorf("%v samples at %v:%v, but %v in the header", len(variant.GenotypeData), variant.Chrom, variant.Pos, len(samples))
	}
	var fields siteFields
	if err := decodeFields(variant.Info, siteKeys, &fields); err != nil {
		return nil, errors.Wrapf(err, "INFO at %v:%v", variant.Chrom, variant.Pos)
	}
	rawMQ, err := rawMappingQuality(&fields)
	if err != nil {
		return nil, errors.Wrapf(err, "INFO at %v:%v", variant.Chrom, variant.Pos)
	}
	site := &genotyper.Site{
		Contig:       variant.Chrom,
		Pos:          variant.Pos,
		Alleles:      make([]genotyper.Allele, 1+len(variant.Alt)),
		VariantDepth: fields.VarDP,
		Depth:        fields.DP,
		RawMQ:        rawMQ,
		Samples:      make([]genotyper.SampleGenotype, len(samples)),
	}
	site.Alleles[0] = genotyper.Allele{Bases: variant.Ref, Reference: true}
	for i, alt := range variant.Alt {
		site.Alleles[i+1] = genotyper.Allele{Bases: alt}
	}
	if fields.QualApprox != nil {
		site.QualApprox, site.HasQualApprox = *fields.QualApprox, true
	}
	for i := range variant.GenotypeData {
		sample := &site.Samples[i]
		sample.Name = samples[i]
		if err := decodeSample(&variant.GenotypeData[i], sample); err != nil {
			return nil, errors.Wrapf(err, "sample %v at %v:%v", sample.Name, variant.Chrom, variant.Pos)
		}
	}
	return site, nil
}

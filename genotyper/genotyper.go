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

// Package genotyper finalizes merged multi-sample variant sites: it
// calls genotypes from their likelihoods, trims the <NON_REF> allele
// away, and computes the site-level annotations.
package genotyper

import (
	"log"
	"math"
	"sync"

	"github.com/pkg/errors"
)

// A Genotyper finalizes sites. It can be shared between goroutines.
type Genotyper struct {
	config            Config
	calculators       *Calculators
	minQualApprox     float64
	missingQualApprox sync.Once
}

// New creates a Genotyper for the given configuration.
func New(config Config) (*Genotyper, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Genotyper{
		config:        config,
		calculators:   NewCalculators(config.MaxAltAlleles),
		minQualApprox: config.StandardConfidenceForCalling - 10*math.Log10(config.SnpHeterozygosity),
	}, nil
}

// Config returns the configuration of the genotyper.
func (g *Genotyper) Config() Config {
	return g.config
}

// MinQualApprox returns the lowest QUALapprox a site may have to be
// kept.
func (g *Genotyper) MinQualApprox() float64 {
	return g.minQualApprox
}

func (g *Genotyper) warnMissingQualApprox() {
	g.missingQualApprox.Do(func() {
		log.Println("Warning: input contains sites without QUALapprox, these are treated as having QUALapprox 0 and are dropped")
	})
}

// Finalize finalizes a site. It returns nil without error when the
// site is dropped: when it is not properly polymorphic, has no depth,
// or has too low a QUALapprox.
func (g *Genotyper) Finalize(site *Site) (*Result, error) {
	if len(site.Alleles) == 0 {
		return nil, errors.Errorf("site %v:%v without alleles", site.Contig, site.Pos)
	}
	if !site.IsProperlyPolymorphic() || site.Depth == 0 {
		return nil, nil
	}
	qualApprox := site.QualApprox
	if !site.HasQualApprox {
		g.warnMissingQualApprox()
		qualApprox = 0
	}
	if qualApprox < g.minQualApprox {
		return nil, nil
	}

	workingCount, hasNonRef, err := site.workingAlleleCount()
	if err != nil {
		return nil, errors.Wrapf(err, "site %v:%v", site.Contig, site.Pos)
	}

	result := &Result{
		SiteStatistics: SiteStatistics{Alleles: site.Alleles[:workingCount]},
		Qual:           qualApprox,
		Genotypes:      make([]FinalGenotype, len(site.Samples)),
	}
	counts := make([]int, workingCount)
	for i := range site.Samples {
		sample := &site.Samples[i]
		final, err := g.finalizeSample(sample, len(site.Alleles), workingCount, hasNonRef)
		if err != nil {
			return nil, errors.Wrapf(err, "sample %v at site %v:%v", sample.Name, site.Contig, site.Pos)
		}
		result.Genotypes[i] = final
		for _, a := range final.Alleles {
			if a >= 0 && a < workingCount {
				counts[a]++
			}
		}
		if sample.StrandBias != nil {
			result.StrandBias.Add(*sample.StrandBias)
		}
	}

	for _, count := range counts {
		result.AlleleNumber += count
	}
	result.AlleleCounts = counts[1:]
	result.AlleleFrequencies = make([]float64, len(result.AlleleCounts))
	for i, count := range result.AlleleCounts {
		if result.AlleleNumber == 0 {
			result.AlleleFrequencies[i] = math.NaN()
		} else {
			result.AlleleFrequencies[i] = float64(count) / float64(result.AlleleNumber)
		}
	}

	if site.VariantDepth > 0 {
		result.QualByDepth = qualApprox / float64(site.VariantDepth)
		result.HasQualByDepth = true
	}
	if site.RawMQ != nil {
		result.MappingQuality, result.HasMappingQuality = site.RawMQ.Finalize()
	}
	result.FisherStrand = result.StrandBias.FisherStrand()
	result.StrandOddsRatio = result.StrandBias.StrandOddsRatio()
	return result, nil
}

func (g *Genotyper) finalizeSample(sample *SampleGenotype, alleleCount, workingCount int, hasNonRef bool) (final FinalGenotype, err error) {
	sentinel := sample.isNoCallSentinel()
	if sample.ploidy() != Ploidy && !sentinel {
		return final, errors.Wrapf(ErrBadPloidy, "ploidy %v", sample.ploidy())
	}
	for _, a := range sample.Alleles {
		if a < NoCallIndex || a >= alleleCount {
			return final, errors.Wrapf(ErrBadAlleleIndex, "allele index %v for %v alleles", a, alleleCount)
		}
	}

	final = FinalGenotype{
		Phased:       sample.Phased,
		GQ:           sample.GQ,
		HasGQ:        sample.HasGQ,
		AlleleDepths: sample.AlleleDepths,
		Likelihoods:  NoLikelihoods{},
	}

	if hasNonRef && sample.AlleleDepths != nil {
		if final.AlleleDepths, err = TrimDepths(sample.AlleleDepths, workingCount); err != nil {
			return final, errors.Wrap(err, "AD")
		}
	}

	if sentinel {
		final.setNoCall()
		return final, nil
	}
	copy(final.Alleles[:], sample.Alleles)

	if hasNonRef && sample.AlleleDepths == nil && sample.hasAllele(workingCount) {
		final.setNoCall()
	}

	if sample.Likelihoods != nil {
		if g.config.SummarizeLikelihoods {
			if err = g.summarizeSample(sample, &final, alleleCount, workingCount); err != nil {
				return final, err
			}
		} else if err = g.callSample(sample, &final, workingCount); err != nil {
			return final, err
		}
	}

	for _, a := range final.Alleles {
		if a >= workingCount {
			final.setNoCall()
			break
		}
	}
	return final, nil
}

func (g *Genotyper) callSample(sample *SampleGenotype, final *FinalGenotype, workingCount int) error {
	pls, err := TrimLikelihoods(sample.Likelihoods, g.calculators.NumLikelihoods(workingCount))
	if err != nil {
		return errors.Wrap(err, "PL")
	}
	final.Likelihoods = FullLikelihoods{PL: pls}
	final.GQ, final.HasGQ = SecondSmallestMinusSmallest(pls, 0), true
	call := g.calculators.CallGenotype(pls, workingCount)
	if call.NoCall {
		final.setNoCall()
		return nil
	}
	final.Alleles = [Ploidy]int{call.Alleles.I, call.Alleles.J}
	if call.HasGQ {
		final.GQ = call.GQ
	}
	return nil
}

// summarizeSample keeps the input call and replaces the PL vector by
// its Summary. Calls with missing or <NON_REF> alleles cannot be
// summarized and become no-calls.
func (g *Genotyper) summarizeSample(sample *SampleGenotype, final *FinalGenotype, alleleCount, workingCount int) error {
	if need := g.calculators.NumLikelihoods(alleleCount); len(sample.Likelihoods) < need {
		return errors.Wrapf(ErrShortVector, "PL length %v, need %v", len(sample.Likelihoods), need)
	}
	for _, a := range sample.Alleles {
		if a == NoCallIndex || a >= workingCount {
			final.setNoCall()
			return nil
		}
	}
	called := AllelePair{I: sample.Alleles[0], J: sample.Alleles[1]}
	final.Likelihoods = SummarizedLikelihoods{SummarizeLikelihoods(sample.Likelihoods, called, alleleCount)}
	return nil
}

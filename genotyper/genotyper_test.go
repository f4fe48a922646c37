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

package genotyper

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGenotyper(t *testing.T, summarize bool) *Genotyper {
	config := DefaultConfig()
	config.SummarizeLikelihoods = summarize
	g, err := New(config)
	require.NoError(t, err)
	return g
}

func biallelicSite(samples ...SampleGenotype) *Site {
	return &Site{
		Contig:        "chr1",
		Pos:           1000,
		Alleles:       []Allele{{Bases: "A", Reference: true}, {Bases: "C"}, NonRef},
		QualApprox:    100,
		HasQualApprox: true,
		VariantDepth:  20,
		Depth:         40,
		Samples:       samples,
	}
}

func TestFinalizeHomRefScenario(t *testing.T) {
	g := newTestGenotyper(t, false)
	site := biallelicSite(SampleGenotype{
		Name:         "NA12878",
		Alleles:      []int{0, 1},
		Likelihoods:  []int{0, 50, 200, 80, 150, 300},
		AlleleDepths: []int{12, 0, 0},
	})
	result, err := g.Finalize(site)
	require.NoError(t, err)
	require.NotNil(t, result)

	gt := result.Genotypes[0]
	assert.Equal(t, [Ploidy]int{0, 0}, gt.Alleles)
	assert.Equal(t, FullLikelihoods{PL: []int{0, 50, 200}}, gt.Likelihoods)
	assert.True(t, gt.HasGQ)
	assert.Equal(t, 50, gt.GQ)
	assert.Equal(t, []int{12, 0}, gt.AlleleDepths)
	assert.Equal(t, site.Alleles[:2], result.Alleles)
	assert.Equal(t, []int{0}, result.AlleleCounts)
	assert.Equal(t, 2, result.AlleleNumber)
}

func TestFinalizeTwoSamples(t *testing.T) {
	g := newTestGenotyper(t, false)
	site := biallelicSite(
		SampleGenotype{Name: "A", Alleles: []int{0, 1}, Likelihoods: []int{50, 0, 200, 60, 210, 300}, StrandBias: &StrandBiasTable{5, 4, 3, 2}},
		SampleGenotype{Name: "B", Alleles: []int{1, 1}, Likelihoods: []int{300, 60, 0, 310, 70, 400}, StrandBias: &StrandBiasTable{0, 1, 6, 5}},
	)
	result, err := g.Finalize(site)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, [Ploidy]int{0, 1}, result.Genotypes[0].Alleles)
	assert.Equal(t, 50, result.Genotypes[0].GQ)
	assert.Equal(t, [Ploidy]int{1, 1}, result.Genotypes[1].Alleles)
	assert.Equal(t, 60, result.Genotypes[1].GQ)

	assert.Equal(t, []int{3}, result.AlleleCounts)
	assert.Equal(t, 4, result.AlleleNumber)
	assert.Equal(t, []float64{0.75}, result.AlleleFrequencies)
	assert.Equal(t, StrandBiasTable{5, 5, 9, 7}, result.StrandBias)
	assert.True(t, result.HasQualByDepth)
	assert.InDelta(t, 5.0, result.QualByDepth, 1e-12)
	assert.Equal(t, 100.0, result.Qual)
	assert.Equal(t, result.StrandBias.FisherStrand(), result.FisherStrand)
	assert.Equal(t, result.StrandBias.StrandOddsRatio(), result.StrandOddsRatio)
}

func TestFinalizeAlleleCountConservation(t *testing.T) {
	g := newTestGenotyper(t, false)
	site := &Site{
		Contig:        "chr2",
		Pos:           5,
		Alleles:       []Allele{{Bases: "A", Reference: true}, {Bases: "C"}, {Bases: "G"}, NonRef},
		QualApprox:    500,
		HasQualApprox: true,
		VariantDepth:  50,
		Depth:         60,
		Samples: []SampleGenotype{
			{Name: "s1", Alleles: []int{0, 1}, Likelihoods: []int{40, 0, 70, 45, 60, 99, 80, 90, 95, 120}},
			{Name: "s2", Alleles: []int{1, 2}, Likelihoods: []int{99, 50, 45, 60, 0, 80, 70, 75, 85, 130}},
			{Name: "s3", Alleles: []int{-1, -1}, Likelihoods: []int{0, 0, 0, 0, 0, 0, 0, 0, 0, 0}},
			{Name: "s4", Alleles: []int{0, 0}, Likelihoods: []int{0, 30, 60, 20, 50, 90, 40, 70, 80, 100}},
			{Name: "s5", Alleles: []int{0}},
		},
	}
	result, err := g.Finalize(site)
	require.NoError(t, err)
	require.NotNil(t, result)

	called := 0
	for _, gt := range result.Genotypes {
		if !gt.IsNoCall() {
			called++
		}
	}
	assert.Equal(t, 3, called)
	assert.Equal(t, 2*called, result.AlleleNumber)
	assert.Equal(t, []int{2, 1}, result.AlleleCounts)
	assert.Len(t, result.AlleleFrequencies, 2)
	assert.InDelta(t, 2.0/6, result.AlleleFrequencies[0], 1e-12)
	assert.InDelta(t, 1.0/6, result.AlleleFrequencies[1], 1e-12)
}

func TestFinalizeDroppedSites(t *testing.T) {
	g := newTestGenotyper(t, false)
	sample := SampleGenotype{Name: "A", Alleles: []int{0, 1}, Likelihoods: []int{50, 0, 200, 60, 210, 300}}

	site := biallelicSite(sample)
	site.Depth = 0
	result, err := g.Finalize(site)
	assert.NoError(t, err)
	assert.Nil(t, result)

	site = biallelicSite(sample)
	site.QualApprox = g.MinQualApprox() - 0.5
	result, err = g.Finalize(site)
	assert.NoError(t, err)
	assert.Nil(t, result)

	site = biallelicSite(sample)
	site.QualApprox = g.MinQualApprox()
	result, err = g.Finalize(site)
	assert.NoError(t, err)
	assert.NotNil(t, result)

	site = biallelicSite(sample)
	site.HasQualApprox = false
	result, err = g.Finalize(site)
	assert.NoError(t, err)
	assert.Nil(t, result)

	site = biallelicSite(SampleGenotype{Name: "A", Alleles: []int{0, 1}})
	site.Alleles = []Allele{{Bases: "A", Reference: true}, NonRef}
	result, err = g.Finalize(site)
	assert.NoError(t, err)
	assert.Nil(t, result)

	site = biallelicSite(sample)
	site.Alleles = []Allele{{Bases: "A", Reference: true}, {Bases: "*"}}
	result, err = g.Finalize(site)
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestMinQualApprox(t *testing.T) {
	g := newTestGenotyper(t, false)
	assert.InDelta(t, 60.0, g.MinQualApprox(), 1e-9)
}

func TestFinalizeSpanningDeletionSite(t *testing.T) {
	g := newTestGenotyper(t, false)
	site := biallelicSite(SampleGenotype{Name: "A", Alleles: []int{0, 1}, Likelihoods: []int{50, 0, 200, 60, 210, 300}})
	site.Alleles = []Allele{{Bases: "A", Reference: true}, {Bases: "*"}, NonRef}
	assert.False(t, site.IsProperlyPolymorphic())
	result, err := g.Finalize(site)
	assert.NoError(t, err)
	assert.Nil(t, result)

	site = biallelicSite(SampleGenotype{Name: "A", Alleles: []int{0, 2}, Likelihoods: []int{50, 60, 210, 0, 200, 300, 70, 220, 310, 400}})
	site.Alleles = []Allele{{Bases: "A", Reference: true}, {Bases: "*"}, {Bases: "C"}, NonRef}
	assert.True(t, site.IsProperlyPolymorphic())
	result, err = g.Finalize(site)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, []int{0, 1}, result.AlleleCounts)
}

func TestFinalizeErrors(t *testing.T) {
	g := newTestGenotyper(t, false)

	site := biallelicSite(SampleGenotype{Name: "A", Alleles: []int{0, 1, 1}})
	_, err := g.Finalize(site)
	assert.Equal(t, ErrBadPloidy, errors.Cause(err))

	site = biallelicSite(SampleGenotype{Name: "A", Alleles: []int{1}})
	_, err = g.Finalize(site)
	assert.Equal(t, ErrBadPloidy, errors.Cause(err))

	site = biallelicSite(SampleGenotype{Name: "A", Alleles: []int{0, 1}})
	site.Alleles = []Allele{{Bases: "A", Reference: true}, NonRef, {Bases: "C"}}
	_, err = g.Finalize(site)
	assert.Equal(t, ErrNonRefNotLast, errors.Cause(err))

	site = biallelicSite(SampleGenotype{Name: "A", Alleles: []int{0, 1}, Likelihoods: []int{0, 10}})
	_, err = g.Finalize(site)
	assert.Equal(t, ErrShortVector, errors.Cause(err))

	site = biallelicSite(SampleGenotype{Name: "A", Alleles: []int{0, 1}, AlleleDepths: []int{3, 4}, Likelihoods: []int{50, 0, 200, 60, 210, 300}})
	_, err = g.Finalize(site)
	assert.NoError(t, err)

	site = biallelicSite(SampleGenotype{Name: "A", Alleles: []int{0, 1}, AlleleDepths: []int{3}})
	_, err = g.Finalize(site)
	assert.Equal(t, ErrShortVector, errors.Cause(err))

	site = biallelicSite(SampleGenotype{Name: "A", Alleles: []int{0, 3}})
	_, err = g.Finalize(site)
	assert.Equal(t, ErrBadAlleleIndex, errors.Cause(err))
}

func TestFinalizeNoCalls(t *testing.T) {
	g := newTestGenotyper(t, false)
	site := biallelicSite(
		SampleGenotype{Name: "sentinel", Alleles: []int{-1}, Likelihoods: []int{300, 60, 0, 310, 70, 400}},
		SampleGenotype{Name: "nonref", Alleles: []int{0, 2}, GQ: 20, HasGQ: true},
		SampleGenotype{Name: "nonref-ad", Alleles: []int{0, 2}, AlleleDepths: []int{5, 0, 4}},
		SampleGenotype{Name: "uninformative", Alleles: []int{0, 1}, Likelihoods: []int{0, 0, 0, 0, 0, 0}},
		SampleGenotype{Name: "het", Alleles: []int{0, 1}, Likelihoods: []int{50, 0, 200, 60, 210, 300}},
	)
	result, err := g.Finalize(site)
	require.NoError(t, err)
	require.NotNil(t, result)

	for i, gt := range result.Genotypes[:4] {
		assert.True(t, gt.IsNoCall(), site.Samples[i].Name)
		assert.False(t, gt.HasGQ, site.Samples[i].Name)
	}
	assert.Equal(t, NoLikelihoods{}, result.Genotypes[0].Likelihoods)
	assert.Equal(t, []int{5, 0}, result.Genotypes[2].AlleleDepths)
	assert.Equal(t, 2, result.AlleleNumber)
	assert.Equal(t, []int{1}, result.AlleleCounts)
	assert.Equal(t, []float64{0.5}, result.AlleleFrequencies)
}

func TestFinalizeAlleleNumberZero(t *testing.T) {
	g := newTestGenotyper(t, false)
	result, err := g.Finalize(biallelicSite(SampleGenotype{Name: "A", Alleles: []int{-1, -1}}))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 0, result.AlleleNumber)
	assert.True(t, math.IsNaN(result.AlleleFrequencies[0]))
}

func TestFinalizeWithoutNonRef(t *testing.T) {
	g := newTestGenotyper(t, false)
	site := biallelicSite(SampleGenotype{Name: "A", Alleles: []int{0, 1}, Likelihoods: []int{50, 0, 200}, AlleleDepths: []int{6, 7}})
	site.Alleles = site.Alleles[:2]
	result, err := g.Finalize(site)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, [Ploidy]int{0, 1}, result.Genotypes[0].Alleles)
	assert.Equal(t, []int{6, 7}, result.Genotypes[0].AlleleDepths)
}

func TestFinalizeMappingQualityAndDepth(t *testing.T) {
	g := newTestGenotyper(t, false)
	site := biallelicSite(SampleGenotype{Name: "A", Alleles: []int{0, 1}, Likelihoods: []int{50, 0, 200, 60, 210, 300}})
	site.RawMQ = &RawMappingQuality{SquareSum: 36000, Reads: 10}
	site.VariantDepth = 0
	result, err := g.Finalize(site)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.HasMappingQuality)
	assert.InDelta(t, 60.0, result.MappingQuality, 1e-12)
	assert.False(t, result.HasQualByDepth)
}

func TestFinalizeSummarized(t *testing.T) {
	g := newTestGenotyper(t, true)
	site := biallelicSite(
		SampleGenotype{Name: "het", Alleles: []int{0, 1}, Likelihoods: []int{40, 0, 70, 45, 60, 99}, GQ: 40, HasGQ: true},
		SampleGenotype{Name: "hom-ref", Alleles: []int{0, 0}, Likelihoods: []int{0, 30, 60, 20, 50, 90}, GQ: 20, HasGQ: true},
		SampleGenotype{Name: "nonref", Alleles: []int{0, 2}, Likelihoods: []int{40, 30, 70, 0, 60, 99}, AlleleDepths: []int{4, 0, 3}},
		SampleGenotype{Name: "missing", Alleles: []int{-1, -1}, Likelihoods: []int{0, 30, 60, 20, 50, 90}},
	)
	result, err := g.Finalize(site)
	require.NoError(t, err)
	require.NotNil(t, result)

	het := result.Genotypes[0]
	assert.Equal(t, [Ploidy]int{0, 1}, het.Alleles)
	assert.Equal(t, SummarizedLikelihoods{Summary{RGQ: 40, ABGQ: 40, ALTGQ: 40}}, het.Likelihoods)
	assert.Equal(t, 40, het.GQ)

	homRef := result.Genotypes[1]
	assert.Equal(t, [Ploidy]int{0, 0}, homRef.Alleles)
	summary := homRef.Likelihoods.(SummarizedLikelihoods)
	assert.Equal(t, summary.ABGQ, summary.ALTGQ)

	for _, gt := range result.Genotypes[2:] {
		assert.True(t, gt.IsNoCall())
		assert.Equal(t, NoLikelihoods{}, gt.Likelihoods)
	}
	assert.Equal(t, 4, result.AlleleNumber)
	assert.Equal(t, []int{1}, result.AlleleCounts)

	site = biallelicSite(
		SampleGenotype{Name: "het", Alleles: []int{0, 1}, Likelihoods: []int{40, 0, 70, 45, 60, 99}},
		SampleGenotype{Name: "short", Alleles: []int{0, 1}, Likelihoods: []int{40, 0, 70}},
	)
	result, err = g.Finalize(site)
	assert.Nil(t, result)
	assert.Equal(t, ErrShortVector, errors.Cause(err))
}

func TestAllelePredicates(t *testing.T) {
	assert.True(t, NonRef.IsNonRef())
	assert.True(t, NonRef.IsSymbolic())
	assert.True(t, Allele{Bases: "<DEL>"}.IsSymbolic())
	assert.True(t, Allele{Bases: "G]17:198982]"}.IsSymbolic())
	assert.True(t, Allele{Bases: ".A"}.IsSymbolic())
	assert.False(t, Allele{Bases: "ACGT"}.IsSymbolic())
	assert.False(t, Allele{Bases: "*"}.IsSymbolic())
	assert.True(t, Allele{Bases: "*"}.IsSpanningDeletion())
	assert.False(t, Allele{Bases: "<NON_REF>", Reference: true}.IsNonRef())
}

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

import "strings"

const (
	nonRefBases  = "<NON_REF>"
	spanDelBases = "*"
)

// An Allele is the REF or one of the ALT entries of a site.
type Allele struct {
	Bases     string
	Reference bool
}

// NonRef is the symbolic allele that stands for any allele not listed
// explicitly at a site.
var NonRef = Allele{Bases: nonRefBases}

// IsNonRef returns true for the <NON_REF> allele.
func (a Allele) IsNonRef() bool {
	return !a.Reference && a.Bases == nonRefBases
}

// IsSpanningDeletion returns true for the * allele.
func (a Allele) IsSpanningDeletion() bool {
	return a.Bases == spanDelBases
}

// IsSymbolic returns true for alleles that do not spell out bases:
// <ID> alleles, breakends, and single breakends.
func (a Allele) IsSymbolic() bool {
	b := a.Bases
	if len(b) < 2 {
		return false
	}
	if b[0] == '<' && b[len(b)-1] == '>' {
		return true
	}
	if strings.ContainsAny(b, "[]") {
		return true
	}
	return b[0] == '.' || b[len(b)-1] == '.'
}

// NoCallIndex is the allele index of a missing allele in a genotype.
const NoCallIndex = -1

// A SampleGenotype is the per-sample data of a site as it comes out of
// the merging step. Allele indices refer to the alleles of the site,
// <NON_REF> included. Likelihoods, AlleleDepths and StrandBias are nil
// when missing.
type SampleGenotype struct {
	Name         string
	Alleles      []int
	Phased       bool
	Likelihoods  []int
	AlleleDepths []int
	StrandBias   *StrandBiasTable
	GQ           int
	HasGQ        bool
}

func (sample *SampleGenotype) ploidy() int {
	return len(sample.Alleles)
}

// isNoCallSentinel recognizes the haploid reference or missing call
// that some versions of GenomicsDB emit for a diploid no-call.
func (sample *SampleGenotype) isNoCallSentinel() bool {
	return sample.ploidy() == 1 && (sample.Alleles[0] == 0 || sample.Alleles[0] == NoCallIndex)
}

func (sample *SampleGenotype) hasAllele(index int) bool {
	for _, a := range sample.Alleles {
		if a == index {
			return true
		}
	}
	return false
}

// A Site is one merged multi-sample record, waiting to be finalized.
type Site struct {
	Contig        string
	Pos           int32
	Alleles       []Allele // REF first
	QualApprox    float64
	HasQualApprox bool
	VariantDepth  int
	Depth         int
	RawMQ         *RawMappingQuality // nil when missing
	Samples       []SampleGenotype
}

// IsProperlyPolymorphic returns false for sites without alternate
// alleles, for sites whose only alternate allele is symbolic or a
// spanning deletion, and for sites with just a spanning deletion
// followed by <NON_REF>.
func (site *Site) IsProperlyPolymorphic() bool {
	alts := site.Alleles[1:]
	switch {
	case len(alts) == 0:
		return false
	case len(alts) == 1:
		return !(alts[0].IsSpanningDeletion() || alts[0].IsSymbolic())
	case len(alts) == 2 && alts[0].IsSpanningDeletion() && alts[1].IsNonRef():
		return false
	default:
		return true
	}
}

// workingAlleleCount returns the number of alleles that remain after
// dropping <NON_REF>, which must be the last allele when present.
func (site *Site) workingAlleleCount() (count int, hasNonRef bool, err error) {
	last := len(site.Alleles) - 1
	for i, a := range site.Alleles {
		if a.IsNonRef() && i != last {
			return 0, false, ErrNonRefNotLast
		}
	}
	if site.Alleles[last].IsNonRef() {
		return last, true, nil
	}
	return len(site.Alleles), false, nil
}

// Representation is how the likelihoods of a finalized genotype are
// reported: FullLikelihoods, SummarizedLikelihoods, or NoLikelihoods.
type Representation interface {
	representation()
}

type (
	// FullLikelihoods keeps the PL vector over the remaining alleles.
	FullLikelihoods struct {
		PL []int
	}

	// SummarizedLikelihoods replaces the PL vector by a Summary.
	SummarizedLikelihoods struct {
		Summary
	}

	// NoLikelihoods is used when no likelihoods are reported.
	NoLikelihoods struct{}
)

func (FullLikelihoods) representation()       {}
func (SummarizedLikelihoods) representation() {}
func (NoLikelihoods) representation()         {}

// A FinalGenotype is the finalized per-sample data of a site. Allele
// indices refer to the alleles of the site without <NON_REF>.
type FinalGenotype struct {
	Alleles      [Ploidy]int
	Phased       bool
	GQ           int
	HasGQ        bool
	AlleleDepths []int // nil when missing
	Likelihoods  Representation
}

var noCallAlleles = [Ploidy]int{NoCallIndex, NoCallIndex}

// IsNoCall returns true if no allele of the genotype is called.
func (g *FinalGenotype) IsNoCall() bool {
	for _, a := range g.Alleles {
		if a != NoCallIndex {
			return false
		}
	}
	return true
}

func (g *FinalGenotype) setNoCall() {
	g.Alleles = noCallAlleles
	g.GQ, g.HasGQ = 0, false
}

// SiteStatistics are the site-level statistics that are also reported
// in the sites-only annotation database.
type SiteStatistics struct {
	Alleles           []Allele  // without <NON_REF>
	AlleleCounts      []int     // one per alternate allele
	AlleleFrequencies []float64 // one per alternate allele, NaN if AlleleNumber is 0
	AlleleNumber      int
	StrandBias        StrandBiasTable
}

// Result is a finalized site.
type Result struct {
	SiteStatistics
	Qual              float64
	QualByDepth       float64
	HasQualByDepth    bool
	MappingQuality    float64
	HasMappingQuality bool
	FisherStrand      float64
	StrandOddsRatio   float64
	Genotypes         []FinalGenotype // in the same order as Site.Samples
}

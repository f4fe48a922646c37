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
	"log"
	"math"
)

// Ploidy is the only ploidy supported for genotype likelihoods.
const Ploidy = 2

// NumLikelihoods returns the number of entries in a diploid genotype
// likelihood vector for the given number of alleles.
func NumLikelihoods(alleleCount int) int {
	if alleleCount < 1 {
		log.Panicf("invalid allele count %v", alleleCount)
	}
	return alleleCount * (alleleCount + 1) / 2
}

// AllelePair is an unordered pair of allele indices with I <= J.
type AllelePair struct {
	I, J int
}

// IsHomozygous returns true if both alleles of the pair are the same.
func (pair AllelePair) IsHomozygous() bool {
	return pair.I == pair.J
}

// IsHomRef returns true if the pair represents the homozygous
// reference genotype.
func (pair AllelePair) IsHomRef() bool {
	return pair.I == 0 && pair.J == 0
}

// IndexForPair returns the position of the genotype (i, j) in a
// likelihood vector. The arguments may be given in any order.
//
// note: see the VCF specification to understand how the order of genotypes is determined
func IndexForPair(i, j int) int {
	if i > j {
		i, j = j, i
	}
	return j*(j+1)/2 + i
}

// PairForIndex returns the genotype stored at the given position of a
// likelihood vector. It is the inverse of IndexForPair.
func PairForIndex(index int) AllelePair {
	if index < 0 {
		log.Panicf("invalid likelihood index %v", index)
	}
	j := int((math.Sqrt(float64(8*index+1)) - 1) / 2)
	for j*(j+1)/2 > index {
		j--
	}
	for (j+1)*(j+2)/2 <= index {
		j++
	}
	return AllelePair{I: index - j*(j+1)/2, J: j}
}

// nextPair steps through genotypes in likelihood vector order.
func nextPair(pair AllelePair) AllelePair {
	if pair.I < pair.J {
		return AllelePair{I: pair.I + 1, J: pair.J}
	}
	return AllelePair{I: 0, J: pair.J + 1}
}

// AllelePairIndexer maps likelihood vector positions to genotypes for
// a fixed number of alleles.
type AllelePairIndexer struct {
	alleleCount int
	pairs       []AllelePair
}

// NewAllelePairIndexer precomputes the genotype table for the given
// number of alleles.
func NewAllelePairIndexer(alleleCount int) *AllelePairIndexer {
	pairs := make([]AllelePair, NumLikelihoods(alleleCount))
	var pair AllelePair
	for index := range pairs {
		pairs[index] = pair
		pair = nextPair(pair)
	}
	return &AllelePairIndexer{alleleCount: alleleCount, pairs: pairs}
}

// AlleleCount returns the number of alleles the indexer was built for.
func (indexer *AllelePairIndexer) AlleleCount() int {
	return indexer.alleleCount
}

// Len returns the number of genotypes.
func (indexer *AllelePairIndexer) Len() int {
	return len(indexer.pairs)
}

// Pair returns the genotype at the given likelihood vector position.
func (indexer *AllelePairIndexer) Pair(index int) AllelePair {
	if index < 0 || index >= len(indexer.pairs) {
		log.Panicf("likelihood index %v out of range for %v alleles", index, indexer.alleleCount)
	}
	return indexer.pairs[index]
}

// Index returns the likelihood vector position of the genotype (i, j).
func (indexer *AllelePairIndexer) Index(i, j int) int {
	if i < 0 || j < 0 || i >= indexer.alleleCount || j >= indexer.alleleCount {
		log.Panicf("allele pair (%v, %v) out of range for %v alleles", i, j, indexer.alleleCount)
	}
	return IndexForPair(i, j)
}

// Calculators caches likelihood vector sizes and allele pair indexers
// for allele counts up to a configured maximum. A Calculators value is
// immutable once built, and can be shared by any number of goroutines.
type Calculators struct {
	sizes    []int
	indexers []*AllelePairIndexer
}

// NewCalculators builds the cache for sites with at most maxAltAlleles
// alternate alleles, that is for 1 up to maxAltAlleles+1 alleles.
func NewCalculators(maxAltAlleles int) *Calculators {
	if maxAltAlleles < 0 {
		log.Panicf("invalid maximum number of alternate alleles %v", maxAltAlleles)
	}
	n := maxAltAlleles + 1
	c := &Calculators{
		sizes:    make([]int, n),
		indexers: make([]*AllelePairIndexer, n),
	}
	for alleleCount := 1; alleleCount <= n; alleleCount++ {
		c.sizes[alleleCount-1] = NumLikelihoods(alleleCount)
		c.indexers[alleleCount-1] = NewAllelePairIndexer(alleleCount)
	}
	return c
}

// MaxAlleleCount returns the largest allele count served from the cache.
func (c *Calculators) MaxAlleleCount() int {
	return len(c.sizes)
}

// NumLikelihoods is like the package-level NumLikelihoods, but served
// from the cache when possible.
func (c *Calculators) NumLikelihoods(alleleCount int) int {
	if alleleCount >= 1 && alleleCount <= len(c.sizes) {
		return c.sizes[alleleCount-1]
	}
	return NumLikelihoods(alleleCount)
}

// Indexer returns an allele pair indexer for the given allele count,
// building a fresh one when the count exceeds the cache.
func (c *Calculators) Indexer(alleleCount int) *AllelePairIndexer {
	if alleleCount >= 1 && alleleCount <= len(c.indexers) {
		return c.indexers[alleleCount-1]
	}
	return NewAllelePairIndexer(alleleCount)
}

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

	"gonum.org/v1/gonum/floats"
)

// A likelihood vector whose log10 likelihoods sum to this value or
// more carries no information (all PLs are 0).
const sumGLThresholdNoCall = -0.1

// Call is the outcome of calling a diploid genotype from its
// likelihoods.
type Call struct {
	Alleles AllelePair
	NoCall  bool
	GQ      int
	HasGQ   bool
}

// noCall is the two-allele no-call without genotype quality.
var noCall = Call{NoCall: true}

// plsToGLs converts phred-scaled likelihoods to log10 likelihoods.
func plsToGLs(pls []int) []float64 {
	gls := make([]float64, len(pls))
	for i, pl := range pls {
		gls[i] = float64(pl) / -10
	}
	return gls
}

func isInformative(gls []float64) bool {
	return floats.Sum(gls) < sumGLThresholdNoCall
}

func log10SumLog10Slice(values []float64) float64 {
	if len(values) == 0 {
		return math.Inf(-1)
	}
	maxIndex := floats.MaxIdx(values)
	maxValue := values[maxIndex]
	if math.IsInf(maxValue, -1) {
		return maxValue
	}
	sum := 1.0
	for i, v := range values {
		if i == maxIndex || math.IsInf(v, -1) {
			continue
		}
		sum += math.Pow(10, v-maxValue)
	}
	return maxValue + math.Log10(sum)
}

// gqLog10FromLikelihoods returns the log10 probability that the
// genotype at position best is wrong.
func gqLog10FromLikelihoods(best int, gls []float64) float64 {
	qual := math.Inf(-1)
	for i, gl := range gls {
		if i != best && gl >= qual {
			qual = gl
		}
	}
	qual = gls[best] - qual
	if qual < 0 {
		normalized := gls[best] - log10SumLog10Slice(gls)
		return math.Log10(1 - math.Pow(10, normalized))
	}
	return -qual
}

func phredFromLog10PError(log10PError float64) int {
	return int(math.Round(log10PError * -10))
}

// SecondSmallestMinusSmallest returns the difference between the two
// smallest entries of pls, or defaultValue if there are fewer than two.
func SecondSmallestMinusSmallest(pls []int, defaultValue int) int {
	if len(pls) < 2 {
		return defaultValue
	}
	smallest, secondSmallest := pls[0], math.MaxInt32
	for _, pl := range pls[1:] {
		if pl < smallest {
			smallest, secondSmallest = pl, smallest
		} else if pl < secondSmallest {
			secondSmallest = pl
		}
	}
	return secondSmallest - smallest
}

// CallGenotype selects the most likely diploid genotype from a PL
// vector over alleleCount alleles. Ties are broken in favor of the
// genotype that comes first in the vector. Uninformative or missing
// likelihoods produce a no-call. A confident homozygous reference call
// does not get a genotype quality.
func (c *Calculators) CallGenotype(pls []int, alleleCount int) Call {
	if pls == nil {
		return noCall
	}
	if n := c.NumLikelihoods(alleleCount); len(pls) != n {
		log.Panicf("PL vector of length %v does not match %v alleles", len(pls), alleleCount)
	}
	gls := plsToGLs(pls)
	if !isInformative(gls) {
		return noCall
	}
	best := floats.MaxIdx(gls)
	call := Call{Alleles: c.Indexer(alleleCount).Pair(best)}
	if !call.Alleles.IsHomRef() {
		call.GQ = phredFromLog10PError(gqLog10FromLikelihoods(best, gls))
		call.HasGQ = true
	}
	return call
}

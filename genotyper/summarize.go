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

	"github.com/willf/bitset"
)

// Summary replaces a full PL vector by three scalars.
//
// RGQ is the PL of the homozygous reference genotype.
//
// ABGQ is the lowest non-zero PL among the genotypes made of the called
// alleles, that is how sure we are of the called allele balance.
//
// ALTGQ is the lowest PL among the genotypes that remain when one of
// the called alternate alleles is dropped, that is how sure we are
// that the alternate allele is real.
//
// ABGQ and ALTGQ are math.MaxInt32 when no genotype qualifies.
type Summary struct {
	RGQ, ABGQ, ALTGQ int
}

// SummarizeLikelihoods computes the Summary of an untrimmed PL vector
// over alleleCount alleles (<NON_REF> included) for a called genotype.
// Both called alleles must be valid allele indices.
func SummarizeLikelihoods(pls []int, called AllelePair, alleleCount int) Summary {
	if n := NumLikelihoods(alleleCount); len(pls) < n {
		log.Panicf("PL vector of length %v too short for %v alleles", len(pls), alleleCount)
	}
	if called.I > called.J {
		called.I, called.J = called.J, called.I
	}
	if called.I < 0 || called.J >= alleleCount {
		log.Panicf("called genotype %v out of range for %v alleles", called, alleleCount)
	}

	calledAlleles := bitset.New(uint(alleleCount))
	calledAlleles.Set(uint(called.I)).Set(uint(called.J))

	var removals []int
	if called.I != 0 {
		removals = append(removals, called.I)
	}
	if called.J != 0 && called.J != called.I {
		removals = append(removals, called.J)
	}
	altGQs := [2]int{math.MaxInt32, math.MaxInt32}

	summary := Summary{RGQ: pls[0], ABGQ: math.MaxInt32, ALTGQ: math.MaxInt32}
	homozygous := called.IsHomozygous()

	var pair AllelePair
	for index, n := 0, NumLikelihoods(alleleCount); index < n; index, pair = index+1, nextPair(pair) {
		pl := pls[index]

		var balance bool
		if homozygous {
			balance = pair.I == called.I || pair.J == called.I
		} else {
			balance = pair.IsHomRef() ||
				(pair.I == 0 && calledAlleles.Test(uint(pair.J))) ||
				(pair.IsHomozygous() && calledAlleles.Test(uint(pair.I)))
		}
		if balance && pl != 0 && pl < summary.ABGQ {
			summary.ABGQ = pl
		}

		// the genotypes left after dropping allele r are (0,0), and
		// (0,c) and (c,c) for every c != r
		if pair.I == 0 || pair.IsHomozygous() {
			for k, r := range removals {
				if pair.J != r && pl < altGQs[k] {
					altGQs[k] = pl
				}
			}
		}
	}

	if called.IsHomRef() {
		summary.ALTGQ = summary.ABGQ
	} else {
		for k := range removals {
			if altGQs[k] < summary.ALTGQ {
				summary.ALTGQ = altGQs[k]
			}
		}
	}
	return summary
}

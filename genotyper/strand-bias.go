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

import "math"

// StrandBiasTable is a 2x2 contingency table of forward and reverse
// read counts, in the order of the per-sample SB field: reference
// forward, reference reverse, alternate forward, alternate reverse.
type StrandBiasTable [4]int

// Add accumulates another table into this one.
func (table *StrandBiasTable) Add(other StrandBiasTable) {
	for i, count := range other {
		table[i] += count
	}
}

// Sum returns the total number of reads in the table.
func (table StrandBiasTable) Sum() int {
	return table[0] + table[1] + table[2] + table[3]
}

// StrandOddsRatio computes the symmetric odds ratio of the table,
// with a pseudocount of 1 added to every cell.
func (table StrandBiasTable) StrandOddsRatio() float64 {
	t00 := float64(table[0]) + 1
	t01 := float64(table[1]) + 1
	t10 := float64(table[2]) + 1
	t11 := float64(table[3]) + 1
	ratio := (t00/t01)*(t11/t10) + (t01/t00)*(t10/t11)
	if t00 > t01 {
		t00, t01 = t01, t00
	}
	refRatio := t00 / t01
	if t10 > t11 {
		t10, t11 = t11, t10
	}
	altRatio := t10 / t11
	return math.Log(ratio) + math.Log(refRatio) - math.Log(altRatio)
}

const (
	targetTableSize = 200
	minPValue       = 1e-320
	relErr          = 1 - 10e-7
)

var minLog10ScaledQual = math.Log10(math.SmallestNonzeroFloat64)

// FisherStrand computes the phred-scaled two-sided p-value of Fisher's
// exact test on the table. Large tables are scaled down to about
// targetTableSize reads first.
func (table StrandBiasTable) FisherStrand() float64 {
	sum := table.Sum()
	if sum <= 2 {
		return 0
	}
	if sum > 2*targetTableSize {
		normFactor := float64(sum) / targetTableSize
		for i, count := range table {
			table[i] = int(float64(count) / normFactor)
		}
	}
	m := table[0] + table[1]
	n := table[2] + table[3]
	k := table[0] + table[2]
	lo := maxInt(0, k-n)
	hi := minInt(k, m)
	if hi <= lo {
		return 0
	}
	dist := makeHypergeometricDistribution(m+n, m, k)
	logds := make([]float64, 0, hi+1-lo)
	for i := lo; i <= hi; i++ {
		logds = append(logds, dist.logProbability(i))
	}
	threshold := logds[table[0]-lo] * relErr
	for i := 0; i < len(logds); {
		if d := logds[i]; d <= threshold {
			logds[i] = d * math.Log10E
			i++
		} else {
			logds = append(logds[:i], logds[i+1:]...)
		}
	}
	pValue := math.Min(math.Pow(10, log10SumLog10Slice(logds)), 1)
	return math.Abs(-10 * math.Max(math.Log10(math.Max(pValue, minPValue)), minLog10ScaledQual))
}

func minInt(x, y int) int {
	if x < y {
		return x
	}
	return y
}

func maxInt(x, y int) int {
	if x > y {
		return x
	}
	return y
}

func getDeviancePart(x, mu float64) (ret float64) {
	if d, t := x-mu, x+mu; math.Abs(d) < 0.1*t {
		v := d / t
		s1 := v * d
		s := math.NaN()
		ej := 2 * x * v
		v *= v
		for j := 1; s1 != s; j++ {
			s = s1
			ej *= v
			s1 += ej / float64(j*2+1)
		}
		ret = s1
	} else {
		ret = x*math.Log(x/mu) + mu - x
	}
	return
}

var (
	halfLog2Pi = 0.5 * math.Log(2*math.Pi)

	exactStirlingErrors = [...]float64{
		0, 0.15342640972002736, 0.08106146679532726, 0.05481412105191765, 0.0413406959554093,
		0.03316287351993629, 0.02767792568499834, 0.023746163656297496, 0.020790672103765093,
		0.018488450532673187, 0.016644691189821193, 0.015134973221917378, 0.013876128823070748,
		0.012810465242920227, 0.01189670994589177, 0.011104559758206917, 0.010411265261972096,
		0.009799416126158804, 0.009255462182712733, 0.008768700134139386, 0.00833056343336287,
		0.00793411456431402, 0.007573675487951841, 0.007244554301320383, 0.00694284010720953,
		0.006665247032707682, 0.006408994188004207, 0.006171712263039458, 0.0059513701127588475,
		0.0057462165130101155, 0.005554733551962801,
	}
)

func getStirlingError(z float64) float64 {
	if z < 15 {
		if z2 := 2 * z; math.Floor(z2) == z2 {
			return exactStirlingErrors[int(z2)]
		}
		lg, _ := math.Lgamma(z + 1)
		return lg - (z+0.5)*math.Log(z) + z - halfLog2Pi
	}
	z2 := z * z
	return (0.08333333333333333 - (0.002777777777777778-(7.936507936507937e-4-(5.952380952380953e-4-8.417508417508417e-4/z2)/z2)/z2)/z2) / z
}

func logBinomialProbability(x, n int, p, q float64) float64 {
	fn := float64(n)
	switch x {
	case 0:
		if p < 0.1 {
			return -getDeviancePart(fn, fn*q) - fn*p
		}
		return fn * math.Log(q)
	case n:
		if q < 0.1 {
			return -getDeviancePart(fn, fn*p) - fn*q
		}
		return fn * math.Log(p)
	default:
		fx := float64(x)
		fnx := float64(n - x)
		ret := getStirlingError(fn) - getStirlingError(fx) - getStirlingError(fnx) -
			getDeviancePart(fx, fn*p) - getDeviancePart(fnx, fn*q)
		return ret - 0.5*math.Log(2*math.Pi*fx*fnx/fn)
	}
}

type hypergeometricDistribution struct {
	populationSize, numberOfSuccesses, sampleSize int
	lowerDomain, upperDomain                      int
	p, q, p3                                      float64
}

func makeHypergeometricDistribution(populationSize, numberOfSuccesses, sampleSize int) hypergeometricDistribution {
	fPopSize := float64(populationSize)
	p := float64(sampleSize) / fPopSize
	q := float64(populationSize-sampleSize) / fPopSize
	return hypergeometricDistribution{
		populationSize:    populationSize,
		numberOfSuccesses: numberOfSuccesses,
		sampleSize:        sampleSize,
		lowerDomain:       maxInt(0, numberOfSuccesses-(populationSize-sampleSize)),
		upperDomain:       minInt(sampleSize, numberOfSuccesses),
		p:                 p,
		q:                 q,
		p3:                logBinomialProbability(sampleSize, populationSize, p, q),
	}
}

func (dist hypergeometricDistribution) logProbability(x int) float64 {
	if x < dist.lowerDomain || x > dist.upperDomain {
		return math.Inf(-1)
	}
	p1 := logBinomialProbability(x, dist.numberOfSuccesses, dist.p, dist.q)
	p2 := logBinomialProbability(dist.sampleSize-x, dist.populationSize-dist.numberOfSuccesses, dist.p, dist.q)
	return p1 + p2 - dist.p3
}

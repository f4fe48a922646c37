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

	"github.com/stretchr/testify/assert"
)

func TestSummarizeLikelihoods(t *testing.T) {
	tests := []struct {
		name     string
		pls      []int
		called   AllelePair
		expected Summary
	}{
		{"hom-ref", []int{0, 30, 60, 20, 50, 90}, AllelePair{0, 0}, Summary{RGQ: 0, ABGQ: 20, ALTGQ: 20}},
		{"het", []int{40, 0, 70, 45, 60, 99}, AllelePair{0, 1}, Summary{RGQ: 40, ABGQ: 40, ALTGQ: 40}},
		{"het reversed", []int{40, 0, 70, 45, 60, 99}, AllelePair{1, 0}, Summary{RGQ: 40, ABGQ: 40, ALTGQ: 40}},
		{"hom-alt", []int{90, 30, 0, 95, 40, 120}, AllelePair{1, 1}, Summary{RGQ: 90, ABGQ: 30, ALTGQ: 90}},
		{"alt-alt het", []int{99, 50, 45, 60, 0, 80}, AllelePair{1, 2}, Summary{RGQ: 99, ABGQ: 45, ALTGQ: 45}},
		{"all zero", []int{0, 0, 0}, AllelePair{0, 0}, Summary{RGQ: 0, ABGQ: math.MaxInt32, ALTGQ: math.MaxInt32}},
	}
	for _, test := range tests {
		alleles := 3
		if len(test.pls) == 3 {
			alleles = 2
		}
		assert.Equal(t, test.expected, SummarizeLikelihoods(test.pls, test.called, alleles), test.name)
	}
}

func TestSummarizeHomRefBalance(t *testing.T) {
	for _, pls := range [][]int{
		{0, 10, 20},
		{0, 35, 70, 12, 48, 91},
		{0, 5, 9, 14, 22, 31, 2, 7, 8, 40},
	} {
		alleles := 2
		for NumLikelihoods(alleles) < len(pls) {
			alleles++
		}
		summary := SummarizeLikelihoods(pls, AllelePair{0, 0}, alleles)
		assert.Equal(t, summary.ABGQ, summary.ALTGQ)
	}
}

func TestSummarizeShortVector(t *testing.T) {
	assert.Panics(t, func() { SummarizeLikelihoods([]int{0, 10, 20}, AllelePair{0, 1}, 3) })
	assert.Panics(t, func() { SummarizeLikelihoods([]int{0, 10, 20}, AllelePair{0, 2}, 2) })
}

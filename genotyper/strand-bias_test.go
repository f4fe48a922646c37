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

func TestStrandBiasTableAdd(t *testing.T) {
	var table StrandBiasTable
	table.Add(StrandBiasTable{1, 2, 3, 4})
	table.Add(StrandBiasTable{10, 20, 30, 40})
	assert.Equal(t, StrandBiasTable{11, 22, 33, 44}, table)
	assert.Equal(t, 110, table.Sum())
}

func TestFisherStrand(t *testing.T) {
	assert.Equal(t, 0.0, StrandBiasTable{}.FisherStrand())
	assert.Equal(t, 0.0, StrandBiasTable{1, 0, 1, 0}.FisherStrand())
	assert.InDelta(t, 0.0, StrandBiasTable{10, 10, 10, 10}.FisherStrand(), 1e-3)
	assert.Greater(t, StrandBiasTable{20, 0, 0, 20}.FisherStrand(), 50.0)

	large := StrandBiasTable{1000, 1000, 1000, 1000}
	assert.InDelta(t, 0.0, large.FisherStrand(), 1e-3)
	assert.Equal(t, StrandBiasTable{1000, 1000, 1000, 1000}, large)

	biased := StrandBiasTable{400, 10, 20, 380}
	fs := biased.FisherStrand()
	assert.False(t, math.IsNaN(fs))
	assert.Greater(t, fs, 100.0)
}

func TestStrandOddsRatio(t *testing.T) {
	assert.InDelta(t, math.Ln2, StrandBiasTable{}.StrandOddsRatio(), 1e-12)
	assert.InDelta(t, math.Ln2, StrandBiasTable{10, 10, 10, 10}.StrandOddsRatio(), 1e-12)
	assert.Greater(t, StrandBiasTable{30, 1, 1, 30}.StrandOddsRatio(), math.Ln2)
}

func TestRawMappingQuality(t *testing.T) {
	mq, ok := RawMappingQuality{SquareSum: 36000, Reads: 10}.Finalize()
	assert.True(t, ok)
	assert.InDelta(t, 60.0, mq, 1e-12)
	_, ok = RawMappingQuality{SquareSum: 100}.Finalize()
	assert.False(t, ok)
}

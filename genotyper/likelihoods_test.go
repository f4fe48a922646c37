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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumLikelihoods(t *testing.T) {
	triangular := 0
	for n := 1; n <= 20; n++ {
		triangular += n
		assert.Equal(t, triangular, NumLikelihoods(n), "allele count %v", n)
	}
	assert.Panics(t, func() { NumLikelihoods(0) })
}

func TestPairIndexRoundTrip(t *testing.T) {
	for n := 1; n <= 20; n++ {
		indexer := NewAllelePairIndexer(n)
		require.Equal(t, NumLikelihoods(n), indexer.Len())
		for j := 0; j < n; j++ {
			for i := 0; i <= j; i++ {
				index := indexer.Index(i, j)
				assert.Equal(t, AllelePair{I: i, J: j}, indexer.Pair(index))
				assert.Equal(t, AllelePair{I: i, J: j}, PairForIndex(index))
				assert.Equal(t, index, indexer.Index(j, i))
			}
		}
	}
}

func TestPairOrder(t *testing.T) {
	expected := []AllelePair{{0, 0}, {0, 1}, {1, 1}, {0, 2}, {1, 2}, {2, 2}, {0, 3}}
	indexer := NewAllelePairIndexer(4)
	for index, pair := range expected {
		assert.Equal(t, pair, indexer.Pair(index))
		assert.Equal(t, index, IndexForPair(pair.I, pair.J))
	}
	assert.Panics(t, func() { indexer.Pair(indexer.Len()) })
	assert.Panics(t, func() { indexer.Index(0, 4) })
}

func TestCalculators(t *testing.T) {
	c := NewCalculators(6)
	assert.Equal(t, 7, c.MaxAlleleCount())
	for n := 1; n <= 20; n++ {
		assert.Equal(t, NumLikelihoods(n), c.NumLikelihoods(n))
		indexer := c.Indexer(n)
		assert.Equal(t, n, indexer.AlleleCount())
		assert.Equal(t, NumLikelihoods(n), indexer.Len())
	}
	assert.Same(t, c.Indexer(3), c.Indexer(3))
}

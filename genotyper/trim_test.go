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

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrimLikelihoods(t *testing.T) {
	v := []int{0, 50, 200, 80, 150, 300}
	for k := 0; k <= len(v); k++ {
		trimmed, err := TrimLikelihoods(v, k)
		require.NoError(t, err)
		assert.Equal(t, v[:k], trimmed)
		again, err := TrimLikelihoods(trimmed, k)
		require.NoError(t, err)
		assert.Equal(t, trimmed, again)
	}
	trimmed, err := TrimLikelihoods(v, 3)
	require.NoError(t, err)
	trimmed[0] = 99
	assert.Equal(t, 0, v[0])
}

func TestTrimShortVector(t *testing.T) {
	_, err := TrimLikelihoods([]int{0, 10}, 3)
	assert.Equal(t, ErrShortVector, errors.Cause(err))
	_, err = TrimDepths([]int{7}, 2)
	assert.Equal(t, ErrShortVector, errors.Cause(err))
	ad, err := TrimDepths([]int{7, 3, 1}, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{7, 3}, ad)
}

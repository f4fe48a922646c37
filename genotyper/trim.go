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

import "github.com/pkg/errors"

// The entries for <NON_REF> always come after those of the real
// alleles, both in PL and in AD vectors, so removing it is a prefix
// copy.

func trimPrefix(v []int, keep int) ([]int, error) {
	if len(v) < keep {
		return nil, errors.Wrapf(ErrShortVector, "length %v, need %v", len(v), keep)
	}
	result := make([]int, keep)
	copy(result, v)
	return result, nil
}

// TrimLikelihoods returns a copy of the first keepLength entries of a
// PL vector.
func TrimLikelihoods(pls []int, keepLength int) ([]int, error) {
	return trimPrefix(pls, keepLength)
}

// TrimDepths returns a copy of the first keepAlleleCount entries of an
// AD vector.
func TrimDepths(ad []int, keepAlleleCount int) ([]int, error) {
	return trimPrefix(ad, keepAlleleCount)
}

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

// RawMappingQuality is the merged, not yet finalized root mean square
// mapping quality of a site: the sum of squared mapping qualities, and
// the number of reads that contributed to it.
type RawMappingQuality struct {
	SquareSum, Reads float64
}

// Finalize returns the root mean square mapping quality. It returns
// false when no reads contributed.
func (raw RawMappingQuality) Finalize() (float64, bool) {
	if raw.Reads <= 0 {
		return 0, false
	}
	return math.Sqrt(raw.SquareSum / raw.Reads), true
}

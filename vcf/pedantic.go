// +build pedantic

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

package vcf

import (
	"math"
	"strconv"
)

// appendFixed rounds half up on the shortest decimal representation,
// which is how Java formats floating point numbers.
func appendFixed(out []byte, value float64, precision int) []byte {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return strconv.AppendFloat(out, value, 'f', precision, 64)
	}
	start := len(out)
	out = strconv.AppendFloat(out, value, 'f', -1, 64)
	formatted := out[start:]
	offset := 0
	if formatted[0] == '-' {
		offset = 1
	}
	dot := -1
	for i := offset; i < len(formatted); i++ {
		if formatted[i] == '.' {
			dot = i
			break
		}
	}
	if dot < 0 {
		if precision == 0 {
			return out
		}
		out = append(out, '.')
		for i := 0; i < precision; i++ {
			out = append(out, '0')
		}
		return out
	}
	end := dot + 1 + precision
	if end >= len(formatted) {
		for j := len(formatted); j < end; j++ {
			out = append(out, '0')
		}
		return out
	}
	roundUp := formatted[end] >= '5'
	keep := end
	if precision == 0 {
		keep = dot
	}
	formatted = formatted[:keep]
	if roundUp {
		overflow := true
		for j := keep - 1; j >= offset; j-- {
			if c := formatted[j]; c == '9' {
				formatted[j] = '0'
			} else if c != '.' {
				formatted[j] = c + 1
				overflow = false
				break
			}
		}
		if overflow {
			formatted = append(formatted, 0)
			copy(formatted[offset+1:], formatted[offset:])
			formatted[offset] = '1'
		}
	}
	return append(out[:start], formatted...)
}

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
	"bytes"
	"math"
	"strconv"
)

// AppendDouble appends a floating point number the way htsjdk writes
// INFO and FORMAT values: two decimals from 1 upwards, three decimals
// from 0.01 upwards, and scientific notation below that.
func AppendDouble(out []byte, v float64) []byte {
	switch {
	case math.IsNaN(v):
		return append(out, "NaN"...)
	case math.IsInf(v, 1):
		return append(out, "Infinity"...)
	case math.IsInf(v, -1):
		return append(out, "-Infinity"...)
	case v >= 1:
		return appendFixed(out, v, 2)
	case v >= 0.01:
		return appendFixed(out, v, 3)
	case math.Abs(v) >= 1e-20:
		return strconv.AppendFloat(out, v, 'e', 3, 64)
	default:
		return append(out, "0.00"...)
	}
}

// FormatDouble formats a floating point number like AppendDouble.
func FormatDouble(v float64) string {
	return string(AppendDouble(nil, v))
}

// FormatFixed formats a floating point number with a fixed number of
// decimals.
func FormatFixed(v float64, precision int) string {
	return string(appendFixed(nil, v, precision))
}

var qualSuffix = []byte(".00")

// AppendQual appends a QUAL value with two decimals, dropping them if
// they are both zero.
func AppendQual(out []byte, v float64) []byte {
	start := len(out)
	out = appendFixed(out, v, 2)
	if bytes.HasSuffix(out[start:], qualSuffix) {
		out = out[:len(out)-len(qualSuffix)]
	}
	return out
}

// FormatQual formats a QUAL value like AppendQual.
func FormatQual(v float64) string {
	return string(AppendQual(nil, v))
}

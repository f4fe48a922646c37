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

// Malformed input. These errors are always returned wrapped with the
// site and sample they were found at; use errors.Cause to test for them.
var (
	ErrBadPloidy      = errors.New("genotype is not diploid")
	ErrNonRefNotLast  = errors.New("<NON_REF> is not the last allele")
	ErrShortVector    = errors.New("per-sample vector too short for the number of alleles")
	ErrBadAlleleIndex = errors.New("genotype refers to an allele that does not exist")
	ErrBadStrandBias  = errors.New("malformed SB entry")
)

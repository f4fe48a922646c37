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

// Package sites connects VCF records to the genotyper: it decodes
// merged variant lines into sites, encodes finalized sites back into
// VCF records, and drives whole files through a parallel pipeline.
package sites

import "github.com/exascience/elgeno/utils"

// INFO keys.
var (
	QualApproxKey   = utils.Intern("QUALapprox")
	VariantDepthKey = utils.Intern("VarDP")
	DepthKey        = utils.Intern("DP")
	RawMQandDPKey   = utils.Intern("RAW_MQandDP")
	RawMQKey        = utils.Intern("RAW_MQ")
	MQDepthKey      = utils.Intern("MQ_DP")

	AlleleCountKey     = utils.Intern("AC")
	AlleleFrequencyKey = utils.Intern("AF")
	AlleleNumberKey    = utils.Intern("AN")
	FisherStrandKey    = utils.Intern("FS")
	StrandOddsRatioKey = utils.Intern("SOR")
	StrandBiasTableKey = utils.Intern("SB_TABLE")
	QualByDepthKey     = utils.Intern("QD")
	MappingQualityKey  = utils.Intern("MQ")
)

// FORMAT keys.
var (
	AlleleDepthsKey    = utils.Intern("AD")
	LikelihoodsKey     = utils.Intern("PL")
	GenotypeQualKey    = utils.Intern("GQ")
	StrandBiasKey      = utils.Intern("SB")
	MinDepthKey        = utils.Intern("MIN_DP")
	ReferenceGQKey     = utils.Intern("RGQ")
	AlleleBalanceGQKey = utils.Intern("ABGQ")
	AltGQKey           = utils.Intern("ALTGQ")
)

// siteFields are the INFO entries the genotyper needs. Pointers are
// nil for missing entries.
type siteFields struct {
	QualApprox *float64  `mapstructure:"QUALapprox"`
	VarDP      int       `mapstructure:"VarDP"`
	DP         int       `mapstructure:"DP"`
	RawMQandDP []float64 `mapstructure:"RAW_MQandDP"`
	RawMQ      *float64  `mapstructure:"RAW_MQ"`
	MQDP       *int      `mapstructure:"MQ_DP"`
}

var siteKeys = []utils.Symbol{QualApproxKey, VariantDepthKey, DepthKey, RawMQandDPKey, RawMQKey, MQDepthKey}

// sampleFields are the FORMAT entries the genotyper needs.
type sampleFields struct {
	AD []int `mapstructure:"AD"`
	PL []int `mapstructure:"PL"`
	GQ *int  `mapstructure:"GQ"`
}

var sampleKeys = []utils.Symbol{AlleleDepthsKey, LikelihoodsKey, GenotypeQualKey}

// SB is decoded on its own to report malformed entries as such.
type strandBiasFields struct {
	SB []int `mapstructure:"SB"`
}

var strandBiasKeys = []utils.Symbol{StrandBiasKey}

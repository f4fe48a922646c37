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

package sites

import (
	"bufio"
	"fmt"

	"github.com/exascience/pargo/pipeline"

	"github.com/exascience/elgeno/genotyper"
	"github.com/exascience/elgeno/internal"
	"github.com/exascience/elgeno/intervals"
	"github.com/exascience/elgeno/vcf"
)

// Options for Run.
type Options struct {
	// Intervals restricts the sites that are processed to the ones
	// overlapping them. nil means no restriction.
	Intervals map[string][]intervals.Interval

	// OnlyOutputCallsStartingInIntervals further restricts the
	// finalized records to sites starting in Intervals. The annotation
	// database is not affected.
	OnlyOutputCallsStartingInIntervals bool

	// CommandLine is recorded in the output headers.
	CommandLine string
}

type outputBatch struct {
	final, db []byte
}

type siteFilter struct {
	intervals     map[string][]intervals.Interval
	restrictFinal bool
}

func (f *siteFilter) process(variant *vcf.Variant) bool {
	if f.intervals == nil {
		return true
	}
	return intervals.Overlap(f.intervals[variant.Chrom], variant.Start(), variant.End())
}

func (f *siteFilter) output(variant *vcf.Variant) bool {
	if !f.restrictFinal {
		return true
	}
	return intervals.Overlap(f.intervals[variant.Chrom], variant.Start(), variant.Start())
}

// Run finalizes all sites of a merged VCF input in parallel. The
// finalized records are written to output in input order, and the
// sites-only records to db, unless db is nil. Intervals in options must
// be normalized.
func Run(g *genotyper.Genotyper, input *bufio.Reader, output, db *bufio.Writer, options Options) error {
	if options.OnlyOutputCallsStartingInIntervals && options.Intervals == nil {
		return fmt.Errorf("intervals are required to only output calls starting in intervals")
	}
	header, _, err := vcf.ParseHeader(input)
	if err != nil {
		return err
	}
	variantParser, err := header.NewVariantParser()
	if err != nil {
		return err
	}
	samples := header.Samples()
	encoder := NewEncoder(samples)
	commandLine := NewCommandLine(options.CommandLine)
	if err := FinalHeader(header, encoder.Samples(), g.Config().SummarizeLikelihoods, commandLine).Format(output); err != nil {
		return err
	}
	if db != nil {
		if err := SitesOnlyHeader(header, commandLine).Format(db); err != nil {
			return err
		}
	}
	filter := siteFilter{
		intervals:     options.Intervals,
		restrictFinal: options.OnlyOutputCallsStartingInIntervals,
	}

	var p pipeline.Pipeline
	p.Source(pipeline.NewScanner(input))
	p.Add(
		pipeline.LimitedPar(0, func(p *pipeline.Pipeline, _ pipeline.NodeKind, _ *int) (receiver pipeline.Receiver, _ pipeline.Finalizer) {
			receiver = func(_ int, data interface{}) interface{} {
				batch := outputBatch{final: internal.ReserveByteBuffer()}
				if db != nil {
					batch.db = internal.ReserveByteBuffer()
				}
				var sc vcf.StringScanner
				for _, line := range data.([]string) {
					sc.Reset(line)
					variant := sc.ParseVariant(variantParser)
					if err := sc.Err(); err != nil {
						p.SetErr(fmt.Errorf("%v, while parsing VCF variant %v", err, line))
						return batch
					}
					if !filter.process(variant) {
						continue
					}
					site, err := Decode(variant, samples)
					if err != nil {
						p.SetErr(err)
						return batch
					}
					result, err := g.Finalize(site)
					if err != nil {
						p.SetErr(err)
						return batch
					}
					if result == nil {
						continue
					}
					if db != nil {
						if batch.db, err = SitesOnly(variant, result).Format(batch.db); err != nil {
							p.SetErr(err)
							return batch
						}
					}
					if filter.output(variant) {
						if batch.final, err = encoder.Final(variant, result).Format(batch.final); err != nil {
							p.SetErr(err)
							return batch
						}
					}
				}
				return batch
			}
			return
		}),
		pipeline.StrictOrd(pipeline.Receive(func(_ int, data interface{}) interface{} {
			batch := data.(outputBatch)
			if _, err := output.Write(batch.final); err != nil {
				p.SetErr(err)
			}
			internal.ReleaseByteBuffer(batch.final)
			if db != nil {
				if _, err := db.Write(batch.db); err != nil {
					p.SetErr(err)
				}
				internal.ReleaseByteBuffer(batch.db)
			}
			return nil
		})),
	)
	p.Run()
	return p.Err()
}

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

package intervals

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/exascience/pargo/parallel"
	"github.com/exascience/pargo/pipeline"
	psort "github.com/exascience/pargo/sort"

	"github.com/exascience/elgeno/utils"
	"github.com/exascience/elgeno/vcf"
)

// Interval is a half-open range [Start, End) of 0-based reference
// positions, as in BED files.
type Interval struct {
	Start, End int32
}

// SortByStart sorts a slice of Interval by Start position.
func SortByStart(intervals []Interval) {
	sort.SliceStable(intervals, func(i, j int) bool {
		return intervals[i].Start < intervals[j].Start
	})
}

type stableIntervalSorter []Interval

func (s stableIntervalSorter) SequentialSort(i, j int) {
	SortByStart(s[i:j])
}

func (s stableIntervalSorter) NewTemp() psort.StableSorter {
	return stableIntervalSorter(make([]Interval, len(s)))
}

func (s stableIntervalSorter) Len() int {
	return len(s)
}

func (s stableIntervalSorter) Less(i, j int) bool {
	return s[i].Start < s[j].Start
}

func (s stableIntervalSorter) Assign(source psort.StableSorter) func(i, j, len int) {
	dst, src := s, source.(stableIntervalSorter)
	return func(i, j, len int) {
		copy(dst[i:i+len], src[j:j+len])
	}
}

// ParallelSortByStart sorts a slice of Interval by Start position using
// a parallel stable sort.
func ParallelSortByStart(intervals []Interval) {
	psort.StableSort(stableIntervalSorter(intervals))
}

// Extend makes interval1 larger if it overlaps with interval2,
// by storing max(interval1.End, interval2.End) in interval1.End;
// otherwise, interval1 remains unchanged.
// Returns true if the two intervals overlap, false otherwise.
// interval2.Start >= interval1.Start must be true before
// calling Extend.
func (interval1 *Interval) Extend(interval2 Interval) bool {
	if interval2.Start > interval1.End {
		return false
	}
	if interval2.End > interval1.End {
		interval1.End = interval2.End
	}
	return true
}

// Flatten merges overlapping intervals into larger intervals.
// intervals must be sorted by Start before calling Flatten.
// The resulting slice is sorted by Start, and no two
// intervals in the result overlap with each other.
// The result shares memory with the intervals argument.
func Flatten(intervals []Interval) []Interval {
	for i, n := 0, len(intervals)-1; i < n; i++ {
		if intervals[i].Extend(intervals[i+1]) {
			n++
			for j := i + 1; j < n; j++ {
				if !intervals[i].Extend(intervals[j]) {
					i++
					intervals[i] = intervals[j]
				}
			}
			return intervals[:i+1]
		}
	}
	return intervals
}

const parallelFlattenGrainSize = 0x1000

// ParallelFlatten merges overlapping intervals into larger intervals,
// using a parallel algorithm. The same conditions as for Flatten
// apply.
func ParallelFlatten(intervals []Interval) []Interval {
	if len(intervals) < parallelFlattenGrainSize {
		return Flatten(intervals)
	}
	half := len(intervals) >> 1
	left, right := intervals[:half], intervals[half:]
	parallel.Do(
		func() { left = ParallelFlatten(left) },
		func() { right = ParallelFlatten(right) },
	)
	for len(right) > 0 && left[len(left)-1].Extend(right[0]) {
		right = right[1:]
	}
	return append(left, right...)
}

// Normalize sorts and flattens the intervals of each contig in place,
// so that they can be used with Overlap.
func Normalize(intervals map[string][]Interval) {
	for contig, ivals := range intervals {
		ParallelSortByStart(ivals)
		intervals[contig] = ParallelFlatten(ivals)
	}
}

// Overlap determines whether the 1-based, inclusive start/end range
// overlaps with any of the given intervals.
// intervals must be Flattened and sorted by Start.
func Overlap(intervals []Interval, start, end int32) bool {
	for left, right := 0, len(intervals)-1; left <= right; {
		mid := (left + right) / 2
		intervalStart := intervals[mid].Start
		intervalEnd := intervals[mid].End
		if intervalStart > end-1 {
			right = mid - 1
		} else if intervalEnd <= start-1 {
			left = mid + 1
		} else {
			return true
		}
	}
	return false
}

// ElsitesHeader is the header line that every .elsites file starts with.
const ElsitesHeader = "# elsites format version 1.0\n"

// The file extensions FromFile recognizes.
const (
	ElsitesExt = ".elsites"
	BedExt     = ".bed"
)

// ToElsitesFile stores intervals in an .elsites file, contig by contig
// in sorted order.
func ToElsitesFile(intervals map[string][]Interval, filename string) (err error) {
	pathname, err := filepath.Abs(filename)
	if err != nil {
		return err
	}
	output, err := os.Create(pathname)
	if err != nil {
		return err
	}
	defer func() {
		if nerr := output.Close(); nerr != nil {
			if err == nil {
				err = nerr
			}
		}
	}()
	if _, err = output.WriteString(ElsitesHeader); err != nil {
		return err
	}
	contigs := make([]string, 0, len(intervals))
	for contig := range intervals {
		contigs = append(contigs, contig)
	}
	sort.Strings(contigs)
	for _, contig := range contigs {
		var buf []byte
		for _, ival := range intervals[contig] {
			buf = append(buf, contig...)
			buf = append(buf, '\t')
			buf = strconv.AppendInt(buf, int64(ival.Start), 10)
			buf = append(buf, '\t')
			buf = strconv.AppendInt(buf, int64(ival.End), 10)
			buf = append(buf, '\n')
		}
		if _, err = output.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

func parseElsitesLine(str string) (contig string, interval Interval, err error) {
	fields := strings.Split(str, "\t")
	if len(fields) != 3 || fields[0] == "" {
		return "", interval, fmt.Errorf("invalid sites line %v", str)
	}
	start, err := strconv.ParseInt(fields[1], 10, 32)
	if err != nil {
		return "", interval, fmt.Errorf("%v, in sites line %v", err, str)
	}
	end, err := strconv.ParseInt(fields[2], 10, 32)
	if err != nil {
		return "", interval, fmt.Errorf("%v, in sites line %v", err, str)
	}
	return fields[0], Interval{Start: int32(start), End: int32(end)}, nil
}

// collect merges the per-batch interval maps of a pipeline, in order.
func collect(p *pipeline.Pipeline) map[string][]Interval {
	intervals := make(map[string][]Interval)
	p.Add(pipeline.Ord(pipeline.Receive(func(_ int, data interface{}) interface{} {
		for contig, ivals := range data.(map[string][]Interval) {
			intervals[contig] = append(intervals[contig], ivals...)
		}
		return data
	})))
	return intervals
}

// FromElsitesFile loads intervals from an .elsites file.
func FromElsitesFile(filename string) (intervals map[string][]Interval, err error) {
	pathname, err := filepath.Abs(filename)
	if err != nil {
		return nil, err
	}
	in, err := os.Open(pathname)
	if err != nil {
		return nil, err
	}
	defer func() {
		if nerr := in.Close(); nerr != nil {
			if err == nil {
				err = nerr
			}
		}
	}()
	input := bufio.NewReader(in)
	header, err := input.ReadString('\n')
	if err != nil {
		return nil, err
	}
	if header != ElsitesHeader {
		return nil, fmt.Errorf("%v is not a .elsites file - invalid header", filename)
	}
	var p pipeline.Pipeline
	p.Source(pipeline.NewScanner(input))
	p.Add(pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
		intervals := make(map[string][]Interval)
		for _, str := range data.([]string) {
			contig, interval, err := parseElsitesLine(str)
			if err != nil {
				p.SetErr(err)
				return intervals
			}
			intervals[contig] = append(intervals[contig], interval)
		}
		return intervals
	})))
	intervals = collect(&p)
	p.Run()
	if err = p.Err(); err != nil {
		return nil, err
	}
	return intervals, nil
}

func skipBedLine(line string) bool {
	return line == "" ||
		strings.HasPrefix(line, "#") ||
		strings.HasPrefix(line, "track") ||
		strings.HasPrefix(line, "browser")
}

// FromBed reads the regions of a BED file. Only the contig, start and
// end columns are used. See
// https://genome.ucsc.edu/FAQ/FAQformat.html#format1
func FromBed(reader *bufio.Reader) (map[string][]Interval, error) {
	intervals := make(map[string][]Interval)
	scanner := bufio.NewScanner(reader)
	for lineNr := 1; scanner.Scan(); lineNr++ {
		line := scanner.Text()
		if skipBedLine(line) {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			return nil, fmt.Errorf("missing columns in BED line %v: %v", lineNr, line)
		}
		start, err := strconv.ParseInt(fields[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%v, in BED line %v", err, lineNr)
		}
		end, err := strconv.ParseInt(fields[2], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%v, in BED line %v", err, lineNr)
		}
		if end < start {
			return nil, fmt.Errorf("end before start in BED line %v: %v", lineNr, line)
		}
		contig := *utils.Intern(fields[0])
		intervals[contig] = append(intervals[contig], Interval{Start: int32(start), End: int32(end)})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return intervals, nil
}

// FromBedFile reads the regions of a BED file, which may be gzip
// compressed.
func FromBedFile(filename string) (intervals map[string][]Interval, err error) {
	pathname, err := filepath.Abs(filename)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(pathname)
	if err != nil {
		return nil, err
	}
	defer func() {
		if nerr := file.Close(); nerr != nil && err == nil {
			intervals, err = nil, nerr
		}
	}()
	reader, closeGzip, err := utils.HandleGzip(bufio.NewReader(file))
	if err != nil {
		return nil, err
	}
	defer func() {
		if nerr := closeGzip(); nerr != nil && err == nil {
			intervals, err = nil, nerr
		}
	}()
	return FromBed(reader)
}

func variantInterval(variant *vcf.Variant) Interval {
	return Interval{Start: variant.Start() - 1, End: variant.End()}
}

// FromVcf returns the intervals covered by the variants of a Vcf.
func FromVcf(vcf *vcf.Vcf) map[string][]Interval {
	intervals := make(map[string][]Interval)
	for _, variant := range vcf.Variants {
		intervals[variant.Chrom] = append(intervals[variant.Chrom], variantInterval(variant))
	}
	return intervals
}

// FromVcfFile returns the intervals covered by the variants of a VCF
// file.
func FromVcfFile(filename string) (intervals map[string][]Interval, err error) {
	pathname, err := filepath.Abs(filename)
	if err != nil {
		return nil, err
	}
	input, err := vcf.Open(pathname, false)
	if err != nil {
		return nil, err
	}
	defer func() {
		if nerr := input.Close(); nerr != nil && err == nil {
			intervals, err = nil, nerr
		}
	}()
	header, _, err := vcf.ParseHeader(input.Reader)
	if err != nil {
		return nil, err
	}
	variantParser, err := header.NewVariantParser()
	if err != nil {
		return nil, err
	}
	variantParser.NSamples = 0 // no need to parse the samples just to retrieve the region information
	var p pipeline.Pipeline
	p.Source(pipeline.NewScanner(input.Reader))
	p.Add(pipeline.LimitedPar(0, func(p *pipeline.Pipeline, _ pipeline.NodeKind, _ *int) (receiver pipeline.Receiver, _ pipeline.Finalizer) {
		receiver = func(_ int, data interface{}) interface{} {
			intervals := make(map[string][]Interval)
			var sc vcf.StringScanner
			for _, str := range data.([]string) {
				sc.Reset(str)
				variant := sc.ParseVariant(variantParser)
				if err := sc.Err(); err != nil {
					p.SetErr(fmt.Errorf("%v, while parsing VCF variant %v", err, str))
					return intervals
				}
				intervals[variant.Chrom] = append(intervals[variant.Chrom], variantInterval(variant))
			}
			return intervals
		}
		return
	}))
	intervals = collect(&p)
	p.Run()
	if err = p.Err(); err != nil {
		return nil, err
	}
	return intervals, nil
}

func hasExt(filename string, exts ...string) bool {
	name := strings.TrimSuffix(filename, vcf.GzExt)
	for _, ext := range exts {
		if filepath.Ext(name) == ext {
			return true
		}
	}
	return false
}

// FromFile loads intervals from an .elsites, BED, or VCF file,
// depending on the filename extension, and normalizes them.
func FromFile(filename string) (intervals map[string][]Interval, err error) {
	switch {
	case hasExt(filename, ElsitesExt):
		intervals, err = FromElsitesFile(filename)
	case hasExt(filename, BedExt):
		intervals, err = FromBedFile(filename)
	case hasExt(filename, vcf.VcfExt, vcf.BcfExt):
		intervals, err = FromVcfFile(filename)
	default:
		return nil, fmt.Errorf("unknown interval file extension: %v", filename)
	}
	if err != nil {
		return nil, err
	}
	Normalize(intervals)
	return intervals, nil
}

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
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/exascience/elgeno/utils"
)

const (
	descriptionKey = "Description"
	idKey          = "ID"
	numberKey      = "Number"
	typeKey        = "Type"
)

// ParseMetaField parses a VCF meta field
func (sc *StringScanner) ParseMetaField() (key, value string) {
	if sc.err != nil {
		return
	}
	sc.SkipSpace()
	start := sc.index
	for ; sc.index < len(sc.data); sc.index++ {
		if c := sc.data[sc.index]; (c == ' ') || (c == '=') {
			break
		}
	}
	key = sc.data[start:sc.index]
	sc.SkipSpace()
	if !sc.peek('=') {
		sc.err = fmt.Errorf("invalid key=value pair in a VCF meta-information line: %v", sc.data)
		return
	}
	sc.index++
	start = sc.index
	if sc.peek('"') {
		sc.index++
		var buf strings.Builder
		for ; sc.index < len(sc.data); sc.index++ {
			switch sc.data[sc.index] {
			case '"':
				sc.index++
				return key, buf.String()
			case '\\':
				sc.index++
				if sc.index >= len(sc.data) {
					continue
				}
			}
			_ = buf.WriteByte(sc.data[sc.index])
		}
		sc.index = len(sc.data)
		sc.err = fmt.Errorf("missing closing \" in a VCF meta-information line: %v", sc.data)
		return key, buf.String()
	}
	for ; sc.index < len(sc.data); sc.index++ {
		if c := sc.data[sc.index]; (c == ',') || (c == '>') {
			return key, sc.data[start:sc.index]
		}
	}
	sc.err = fmt.Errorf("missing closing > in a VCF meta-information line: %v", sc.data)
	return key, sc.data[start:]
}

// endOfFields consumes the separator after a meta field, and reports
// whether it was the closing '>'.
func (sc *StringScanner) endOfFields(kind string) bool {
	sc.SkipSpace()
	if sc.peek(',') {
		sc.index++
		return false
	}
	if sc.peek('>') {
		sc.index++
		return true
	}
	if sc.err == nil {
		sc.err = fmt.Errorf("invalid syntax in a VCF %v meta-information line: %v", kind, sc.data)
	}
	return true
}

// ParseMetaInformation parses VCF meta information, which is either a
// plain string or a structured <ID=...> entry.
func (sc *StringScanner) ParseMetaInformation() interface{} {
	if sc.err != nil {
		return nil
	}
	if !sc.peek('<') {
		start := sc.index
		sc.index = len(sc.data)
		return sc.data[start:]
	}
	sc.index++
	meta := NewMetaInformation()
	for sc.err == nil {
		key, value := sc.ParseMetaField()
		switch key {
		case idKey:
			if meta.ID != nil {
				sc.err = fmt.Errorf("multiple IDs in a VCF meta-information line: %v", sc.data)
			} else {
				meta.ID = utils.Intern(value)
			}
		case descriptionKey:
			if meta.Description != "" {
				sc.err = fmt.Errorf("multiple Descriptions in a VCF meta-information line: %v", sc.data)
			} else {
				meta.Description = value
			}
		default:
			if !meta.Fields.SetUniqueEntry(key, value) && sc.err == nil {
				sc.err = fmt.Errorf("duplicate field key %v in a VCF meta-information line: %v", key, sc.data)
			}
		}
		if sc.endOfFields("") {
			break
		}
	}
	if meta.ID == nil && sc.err == nil {
		sc.err = fmt.Errorf("missing ID in a VCF meta-information line: %v", sc.data)
	}
	return meta
}

func parseNumber(value string) (int32, error) {
	switch value {
	case "a", "A":
		return NumberA, nil
	case "r", "R":
		return NumberR, nil
	case "g", "G":
		return NumberG, nil
	case ".":
		return NumberDot, nil
	default:
		n, err := strconv.ParseInt(value, 10, 32)
		return int32(n), err
	}
}

func parseType(value string) Type {
	switch value {
	case "Integer":
		return Integer
	case "Float":
		return Float
	case "Flag":
		return Flag
	case "Character":
		return Character
	case "String":
		return String
	default:
		return InvalidType
	}
}

// ParseFormatInformation parses VCF INFO or FORMAT information
func (sc *StringScanner) ParseFormatInformation() *FormatInformation {
	if sc.err != nil {
		return nil
	}
	if !sc.peek('<') {
		sc.err = fmt.Errorf("missing open angle bracket in a VCF INFO/FORMAT meta-information line: %v", sc.data)
		return nil
	}
	sc.index++
	format := NewFormatInformation()
	for sc.err == nil {
		key, value := sc.ParseMetaField()
		switch key {
		case idKey:
			if format.ID != nil {
				sc.err = fmt.Errorf("multiple IDs in a VCF INFO/FORMAT meta-information line: %v", sc.data)
			} else {
				format.ID = utils.Intern(value)
			}
		case descriptionKey:
			if format.Description != "" {
				sc.err = fmt.Errorf("multiple Descriptions in a VCF INFO/FORMAT meta-information line: %v", sc.data)
			} else {
				format.Description = value
			}
		case numberKey:
			if format.Number > InvalidNumber {
				sc.err = fmt.Errorf("multiple Number entries in a VCF INFO/FORMAT meta-information line: %v", sc.data)
			} else if n, err := parseNumber(value); err != nil {
				sc.err = err
			} else {
				format.Number = n
			}
		case typeKey:
			if format.Type != InvalidType {
				sc.err = fmt.Errorf("multiple types in a VCF INFO/FORMAT meta-information line: %v", sc.data)
			} else if format.Type = parseType(value); format.Type == InvalidType {
				sc.err = fmt.Errorf("unknown type in a VCF INFO/FORMAT meta-information line: %v", sc.data)
			}
		default:
			if !format.Fields.SetUniqueEntry(key, value) && sc.err == nil {
				sc.err = fmt.Errorf("duplicate field key %v in a VCF meta-information line: %v", key, sc.data)
			}
		}
		if sc.endOfFields("INFO/FORMAT") {
			break
		}
	}
	if sc.err != nil {
		return nil
	}
	switch {
	case format.ID == nil:
		sc.err = fmt.Errorf("missing ID in a VCF INFO/FORMAT meta-information line: %v", sc.data)
	case format.Number <= InvalidNumber:
		sc.err = fmt.Errorf("missing number entry in a VCF INFO/FORMAT meta-information line: %v", sc.data)
	case format.Type == InvalidType:
		sc.err = fmt.Errorf("missing type in a VCF INFO/FORMAT meta-information line: %v", sc.data)
	}
	return format
}

func getLine(reader *bufio.Reader) (line string, err error) {
	line, err = reader.ReadString('\n')
	switch {
	case err == nil:
		line = strings.TrimSuffix(line[:len(line)-1], "\r")
	case err == io.EOF:
		err = nil
	}
	return
}

// ParseHeader parses a VCF header. It returns the number of lines
// read.
func ParseHeader(reader *bufio.Reader) (hdr *Header, lines int, err error) {
	line, err := getLine(reader)
	if err != nil {
		return nil, 0, err
	}
	lines++
	if !strings.HasPrefix(line, fileFormatVersionLinePrefix) {
		return nil, 0, errors.New("invalid first line in a VCF file")
	}
	hdr = NewHeader()
	hdr.FileFormat = line
	var sc StringScanner
	for {
		if data, e := reader.Peek(1); (e != nil) || (data[0] != '#') {
			return nil, 0, errors.New("unexpected end of VCF header")
		}
		_, _ = reader.ReadByte()
		if data, e := reader.Peek(1); e != nil {
			return nil, 0, errors.New("unexpected end of VCF header")
		} else if data[0] != '#' {
			break
		}
		_, _ = reader.ReadByte()
		line, err = getLine(reader)
		if err != nil {
			return nil, 0, err
		}
		lines++
		sc.Reset(line)
		if key, found := sc.readUntilByte('='); !found {
			return nil, 0, fmt.Errorf("invalid syntax in a VCF header: %v", line)
		} else if key == "fileformat" {
			return nil, 0, errors.New("multiple file format meta-information lines in a VCF file")
		} else if key == "INFO" {
			hdr.Infos = append(hdr.Infos, sc.ParseFormatInformation())
		} else if key == "FORMAT" {
			hdr.Formats = append(hdr.Formats, sc.ParseFormatInformation())
		} else {
			hdr.Meta[key] = append(hdr.Meta[key], sc.ParseMetaInformation())
		}
		if sc.err != nil {
			return nil, 0, sc.err
		}
	}
	line, err = getLine(reader)
	if err != nil {
		return nil, 0, err
	}
	lines++
	hdr.Columns = strings.Split(line, "\t")
	if len(hdr.Columns) < len(DefaultHeaderColumns) {
		return nil, 0, fmt.Errorf("missing columns in a VCF header line: %v", line)
	}
	for i, column := range DefaultHeaderColumns {
		if hdr.Columns[i] != column {
			return nil, 0, fmt.Errorf("unexpected column %v in a VCF header line", hdr.Columns[i])
		}
	}
	if len(hdr.Columns) > len(DefaultHeaderColumns) && hdr.Columns[len(DefaultHeaderColumns)] != FormatColumn {
		return nil, 0, fmt.Errorf("missing FORMAT column in a VCF header line")
	}
	return hdr, lines, nil
}

// LookupInfo returns the INFO information with the given ID, or nil.
func (header *Header) LookupInfo(id utils.Symbol) *FormatInformation {
	for _, info := range header.Infos {
		if info.ID == id {
			return info
		}
	}
	return nil
}

// LookupFormat returns the FORMAT information with the given ID, or nil.
func (header *Header) LookupFormat(id utils.Symbol) *FormatInformation {
	for _, format := range header.Formats {
		if format.ID == id {
			return format
		}
	}
	return nil
}

// AddInfo adds INFO information, replacing any with the same ID.
func (header *Header) AddInfo(info *FormatInformation) {
	header.Infos = addOrReplace(header.Infos, info)
}

// AddFormat adds FORMAT information, replacing any with the same ID.
func (header *Header) AddFormat(format *FormatInformation) {
	header.Formats = addOrReplace(header.Formats, format)
}

func addOrReplace(list []*FormatInformation, format *FormatInformation) []*FormatInformation {
	for i, f := range list {
		if f.ID == format.ID {
			list[i] = format
			return list
		}
	}
	return append(list, format)
}

// FieldParser is an abstraction for parsing VCF fields
type FieldParser func(*StringScanner) interface{}

func make1InfoParser(entryParser FieldParser) FieldParser {
	return func(sc *StringScanner) (result interface{}) {
		if !sc.peek('=') {
			if sc.err == nil {
				sc.err = fmt.Errorf("missing = in a VCF INFO entry: %v", sc.data)
			}
			return nil
		}
		sc.index++
		return entryParser(sc)
	}
}

func makeNInfoParser(entryParser FieldParser) FieldParser {
	return func(sc *StringScanner) interface{} {
		if !sc.peek('=') {
			if sc.err == nil {
				sc.err = fmt.Errorf("missing = in a VCF INFO entry: %v", sc.data)
			}
			return nil
		}
		sc.index++
		var result []interface{}
		for sc.err == nil {
			result = append(result, entryParser(sc))
			if !sc.peek(',') {
				break
			}
			sc.index++
		}
		return result
	}
}

var endOfInfoEntry = []byte{',', ';', '\t'}

// ParseGenericInfo parses a VCF INFO entry without specific format
// information: a flag, or a list of strings.
func (sc *StringScanner) ParseGenericInfo() interface{} {
	if sc.err != nil {
		return nil
	}
	if !sc.peek('=') {
		return true
	}
	sc.index++
	var result []interface{}
	for {
		result = append(result, sc.readUntilBytes(endOfInfoEntry))
		if !sc.peek(',') {
			return result
		}
		sc.index++
	}
}

// ParseInfoInteger parses an integer in a VCF INFO entry
func (sc *StringScanner) ParseInfoInteger() interface{} {
	s := sc.readUntilBytes(endOfInfoEntry)
	if s == "." {
		return nil
	}
	i, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		if sc.err == nil {
			sc.err = err
		}
		return nil
	}
	return int(i)
}

// ParseInfoFloat parses a floating point number in a VCF INFO entry
func (sc *StringScanner) ParseInfoFloat() interface{} {
	s := sc.readUntilBytes(endOfInfoEntry)
	if s == "." {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if sc.err == nil {
			sc.err = err
		}
		return nil
	}
	return f
}

// ParseInfoFlag parses a boolean flag in a VCF INFO entry (always returns true)
func (sc *StringScanner) ParseInfoFlag() interface{} {
	return true
}

func (sc *StringScanner) parseCharacter() interface{} {
	if sc.err != nil {
		return nil
	}
	if sc.index >= len(sc.data) {
		sc.err = errors.New("missing Character entry in a VCF data line")
		return nil
	}
	if ch := sc.data[sc.index]; ch < utf8.RuneSelf {
		sc.index++
		if ch == '.' {
			return nil
		}
		return rune(ch)
	}
	r, size := utf8.DecodeRuneInString(sc.data[sc.index:])
	if r == utf8.RuneError && sc.err == nil {
		sc.err = errors.New("invalid rune encountered in a VCF data line")
	}
	sc.index += size
	return r
}

// ParseInfoCharacter parses a rune in a VCF INFO entry
func (sc *StringScanner) ParseInfoCharacter() interface{} {
	return sc.parseCharacter()
}

// ParseInfoString parses a string in a VCF INFO entry
func (sc *StringScanner) ParseInfoString() interface{} {
	return sc.readUntilBytes(endOfInfoEntry)
}

// CreateInfoParser creates a specific VCF INFO parser for the given format information
func CreateInfoParser(format *FormatInformation) (FieldParser, error) {
	if format.Type == Flag {
		if format.Number != 0 {
			return nil, fmt.Errorf("INFO %v of Type Flag with Number != 0", *format.ID)
		}
		return (*StringScanner).ParseInfoFlag, nil
	}
	var entryParser FieldParser
	switch format.Type {
	case Integer:
		entryParser = (*StringScanner).ParseInfoInteger
	case Float:
		entryParser = (*StringScanner).ParseInfoFloat
	case Character:
		entryParser = (*StringScanner).ParseInfoCharacter
	case String:
		entryParser = (*StringScanner).ParseInfoString
	default:
		return nil, fmt.Errorf("invalid Type for INFO %v", *format.ID)
	}
	if format.Number == 1 {
		return make1InfoParser(entryParser), nil
	}
	return makeNInfoParser(entryParser), nil
}

var endOfFormatEntry = []byte{',', ':', '\t'}

func (sc *StringScanner) missingFormatValue() bool {
	if sc.peek('.') {
		next := sc.index + 1
		if (next >= len(sc.data)) || containsByte(sc.data[next], endOfFormatEntry) {
			sc.index = next
			return true
		}
	}
	return false
}

// ParseFormatInteger parses an integer in a VCF FORMAT entry
func (sc *StringScanner) ParseFormatInteger() interface{} {
	if sc.err != nil || sc.index >= len(sc.data) || sc.missingFormatValue() {
		return nil
	}
	i, err := strconv.ParseInt(sc.readUntilBytes(endOfFormatEntry), 10, 32)
	if err != nil {
		if sc.err == nil {
			sc.err = err
		}
		return nil
	}
	return int(i)
}

func containsByte(b byte, bytes []byte) bool {
	for _, bb := range bytes {
		if b == bb {
			return true
		}
	}
	return false
}

// ParseFormatFloat parses a floating point number in a VCF FORMAT entry
func (sc *StringScanner) ParseFormatFloat() interface{} {
	if sc.err != nil || sc.index >= len(sc.data) || sc.missingFormatValue() {
		return nil
	}
	f, err := strconv.ParseFloat(sc.readUntilBytes(endOfFormatEntry), 64)
	if err != nil {
		if sc.err == nil {
			sc.err = err
		}
		return nil
	}
	return f
}

// ParseFormatCharacter parses a rune in a VCF FORMAT entry
func (sc *StringScanner) ParseFormatCharacter() interface{} {
	return sc.parseCharacter()
}

// ParseFormatString parses a string in a VCF FORMAT entry
func (sc *StringScanner) ParseFormatString() interface{} {
	if sc.err != nil || sc.index >= len(sc.data) || sc.missingFormatValue() {
		return nil
	}
	return sc.readUntilBytes(endOfFormatEntry)
}

func makeNFormatParser(entryParser FieldParser) FieldParser {
	return func(sc *StringScanner) interface{} {
		var result []interface{}
		for sc.err == nil {
			result = append(result, entryParser(sc))
			if !sc.peek(',') {
				break
			}
			sc.index++
		}
		return result
	}
}

var parseGenericFormatList = makeNFormatParser((*StringScanner).ParseFormatString)

// ParseGenericFormat parses a VCF FORMAT entry without specific format
// information: a string, or a list of strings.
func (sc *StringScanner) ParseGenericFormat() interface{} {
	values := parseGenericFormatList(sc).([]interface{})
	if len(values) == 1 {
		return values[0]
	}
	return values
}

// CreateFormatParser creates a specific VCF FORMAT parser for the given format information
func CreateFormatParser(format *FormatInformation) (FieldParser, error) {
	var entryParser FieldParser
	switch format.Type {
	case Integer:
		entryParser = (*StringScanner).ParseFormatInteger
	case Float:
		entryParser = (*StringScanner).ParseFormatFloat
	case Character:
		entryParser = (*StringScanner).ParseFormatCharacter
	case String:
		entryParser = (*StringScanner).ParseFormatString
	default:
		return nil, fmt.Errorf("invalid Type for FORMAT %v", *format.ID)
	}
	if format.Number == 1 {
		return entryParser, nil
	}
	return makeNFormatParser(entryParser), nil
}

// missingEntry checks for a '.' column, and skips it including the
// tabulator that follows.
func (sc *StringScanner) missingEntry() bool {
	if (sc.err != nil) || (sc.index >= len(sc.data)) {
		return true
	}
	if sc.data[sc.index] == '.' {
		next := sc.index + 1
		if next >= len(sc.data) {
			sc.index = next
			return true
		}
		if sc.data[next] == '\t' {
			sc.index = next + 1
			return true
		}
	}
	return false
}

func (sc *StringScanner) scanChar(ch byte) {
	if sc.err != nil {
		return
	}
	if !sc.peek(ch) {
		sc.err = fmt.Errorf("missing %q in VCF data line: %v", ch, sc.data)
	}
	sc.index++
}

func (sc *StringScanner) doString() string {
	if sc.missingEntry() {
		return "."
	}
	value, ok := sc.readUntilByte('\t')
	if !ok && sc.err == nil {
		sc.err = fmt.Errorf("missing tabulator in VCF data line: %v", sc.data)
	}
	return value
}

func (sc *StringScanner) doInt32() int32 {
	if sc.missingEntry() {
		return -1
	}
	value, ok := sc.readUntilByte('\t')
	if !ok {
		if sc.err == nil {
			sc.err = fmt.Errorf("missing tabulator in VCF data line: %v", sc.data)
		}
		return -1
	}
	i, err := strconv.ParseInt(value, 10, 32)
	if (err != nil) && (sc.err == nil) {
		sc.err = err
	}
	return int32(i)
}

func (sc *StringScanner) doFloat() interface{} {
	if sc.missingEntry() {
		return nil
	}
	value, ok := sc.readUntilByte('\t')
	if !ok {
		if sc.err == nil {
			sc.err = fmt.Errorf("missing tabulator in VCF data line: %v", sc.data)
		}
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if (err != nil) && (sc.err == nil) {
		sc.err = err
	}
	return f
}

func (sc *StringScanner) doStringList(separator []byte) (result []string) {
	if sc.missingEntry() {
		return nil
	}
	for sc.err == nil {
		result = append(result, sc.readUntilBytes(separator))
		if !sc.peek(separator[0]) {
			break
		}
		sc.index++
	}
	sc.scanChar('\t')
	return result
}

var (
	filterSeparator = []byte{';', '\t'}
	passList        = []utils.Symbol{PASS}
)

func (sc *StringScanner) doFilter() []utils.Symbol {
	if sc.missingEntry() {
		return nil
	}
	str := sc.readUntilBytes(filterSeparator)
	if str == "PASS" {
		sc.scanChar('\t')
		return passList
	}
	result := []utils.Symbol{utils.Intern(str)}
	for (sc.err == nil) && sc.peek(';') {
		sc.index++
		result = append(result, utils.Intern(sc.readUntilBytes(filterSeparator)))
	}
	sc.scanChar('\t')
	return result
}

var infoKeySeparator = []byte{'=', ';', '\t'}

// doInfo parses the INFO column, including the tabulator that follows
// it, if any.
func (sc *StringScanner) doInfo(infoParsers utils.SmallMap) (result utils.SmallMap) {
	if sc.missingEntry() {
		return nil
	}
	for {
		key := utils.Intern(sc.readUntilBytes(infoKeySeparator))
		var value interface{}
		if parser, ok := infoParsers.Get(key); ok {
			value = parser.(FieldParser)(sc)
		} else {
			value = sc.ParseGenericInfo()
		}
		if sc.err != nil {
			return nil
		}
		result = append(result, utils.SmallMapEntry{Key: key, Value: value})
		if !sc.peek(';') {
			break
		}
		sc.index++
	}
	if sc.peek('\t') {
		sc.index++
	} else if sc.index < len(sc.data) && sc.err == nil {
		sc.err = fmt.Errorf("invalid INFO entry in VCF data line: %v", sc.data)
	}
	return result
}

var formatSeparator = []byte{':', '\t'}

func (sc *StringScanner) doSymbolList() (result []utils.Symbol) {
	for {
		str := sc.readUntilBytes(formatSeparator)
		if sc.err != nil {
			return nil
		}
		result = append(result, utils.Intern(str))
		if !sc.peek(':') {
			return result
		}
		sc.index++
	}
}

// ParseGT parses a GT entry, as in 0/1 or 1|2 or ./.
func ParseGT(s string) (phased bool, gt []int32, err error) {
	if s == "" {
		return false, nil, errors.New("empty GT entry")
	}
	start := 0
	for i := 0; i <= len(s); i++ {
		if i < len(s) && s[i] != '/' && s[i] != '|' {
			continue
		}
		if i < len(s) && s[i] == '|' {
			phased = true
		}
		switch allele := s[start:i]; allele {
		case ".":
			gt = append(gt, -1)
		default:
			index, err := strconv.ParseInt(allele, 10, 32)
			if err != nil {
				return false, nil, fmt.Errorf("invalid GT entry %v: %v", s, err)
			}
			gt = append(gt, int32(index))
		}
		start = i + 1
	}
	return phased, gt, nil
}

func (sc *StringScanner) doGenotype(genotype *Genotype) {
	if sc.err != nil {
		return
	}
	phased, gt, err := ParseGT(sc.readUntilBytes(formatSeparator))
	if err != nil {
		sc.err = err
		return
	}
	genotype.Phased, genotype.GT = phased, gt
}

// VariantParser is an optimized parser for VCF variant lines.
//
// NSamples can be decreased as necessary to parse fewer samples, including down to zero.
type VariantParser struct {
	InfoParsers, FormatParsers utils.SmallMap
	NSamples                   int
}

// NewVariantParser creates a VariantParser for the given VCF header.
func (header *Header) NewVariantParser() (*VariantParser, error) {
	var vp VariantParser
	for _, format := range header.Infos {
		parser, err := CreateInfoParser(format)
		if err != nil {
			return nil, err
		}
		vp.InfoParsers = append(vp.InfoParsers, utils.SmallMapEntry{Key: format.ID, Value: parser})
	}
	for _, format := range header.Formats {
		parser, err := CreateFormatParser(format)
		if err != nil {
			return nil, err
		}
		vp.FormatParsers = append(vp.FormatParsers, utils.SmallMapEntry{Key: format.ID, Value: parser})
	}
	vp.NSamples = len(header.Samples())
	return &vp, nil
}

var (
	idSeparator  = []byte{';', '\t'}
	altSeparator = []byte{',', '\t'}
)

// ParseVariant parses a VCF variant line. It returns nil if the line
// cannot be parsed, in which case sc.Err() returns the reason.
func (sc *StringScanner) ParseVariant(vp *VariantParser) *Variant {
	var variant Variant
	variant.Chrom = sc.doString()
	variant.Pos = sc.doInt32()
	variant.ID = sc.doStringList(idSeparator)
	variant.Ref = sc.doString()
	variant.Alt = sc.doStringList(altSeparator)
	variant.Qual = sc.doFloat()
	variant.Filter = sc.doFilter()
	variant.Info = sc.doInfo(vp.InfoParsers)
	if vp.NSamples > 0 && sc.err == nil {
		if sc.Len() <= 0 {
			sc.err = fmt.Errorf("missing FORMAT column in VCF data line: %v", sc.data)
			return nil
		}
		variant.GenotypeFormat = sc.doSymbolList()
		parsers := make([]FieldParser, len(variant.GenotypeFormat))
		for p, format := range variant.GenotypeFormat {
			if parser, ok := vp.FormatParsers.Get(format); ok {
				parsers[p] = parser.(FieldParser)
			} else {
				parsers[p] = (*StringScanner).ParseGenericFormat
			}
		}
		variant.GenotypeData = make([]Genotype, vp.NSamples)
		for i := range variant.GenotypeData {
			genotype := &variant.GenotypeData[i]
			genotype.Data = make(utils.SmallMap, 0, len(parsers))
			sc.scanChar('\t')
			for j, parser := range parsers {
				if key := variant.GenotypeFormat[j]; key == GT {
					sc.doGenotype(genotype)
				} else {
					value := parser(sc)
					genotype.Data = append(genotype.Data, utils.SmallMapEntry{Key: key, Value: value})
				}
				if sc.err != nil {
					return nil
				}
				if !sc.peek(':') {
					break
				}
				sc.index++
			}
		}
	}
	if sc.err != nil {
		return nil
	}
	return &variant
}

// FormatString outputs a string to a VCF file, adding necessary double quotes and escapes
func FormatString(out io.ByteWriter, str string) error {
	_ = out.WriteByte('"')
	for i := 0; i < len(str); i++ {
		b := str[i]
		if b == '"' || b == '\\' {
			_ = out.WriteByte('\\')
		}
		_ = out.WriteByte(b)
	}
	return out.WriteByte('"')
}

func needsQuotes(s string) bool {
	for i := 0; i < len(s); i++ {
		if ch := s[i]; ch == '"' || ch == ' ' || ch == ',' || ch == '>' {
			return true
		}
	}
	return false
}

// FormatMetaInformation outputs VCF meta information, which can be just a string or *MetaInformation
func FormatMetaInformation(out *bufio.Writer, meta interface{}) error {
	switch m := meta.(type) {
	case string:
		_, _ = out.WriteString(m)
		return out.WriteByte('\n')
	case *MetaInformation:
		_, _ = out.WriteString("<ID=")
		_, _ = out.WriteString(*m.ID)
		for _, key := range m.Fields.SortedKeys() {
			value := m.Fields[key]
			_ = out.WriteByte(',')
			_, _ = out.WriteString(key)
			_ = out.WriteByte('=')
			if needsQuotes(value) {
				_ = FormatString(out, value)
			} else {
				_, _ = out.WriteString(value)
			}
		}
		if m.Description != "" {
			_, _ = out.WriteString(",Description=")
			_ = FormatString(out, m.Description)
		}
		_, err := out.WriteString(">\n")
		return err
	default:
		return errors.New("invalid MetaInformation type")
	}
}

// FormatFormatInformation outputs VCF info or format information
func FormatFormatInformation(out *bufio.Writer, format *FormatInformation, infoNotFormat bool) error {
	_, _ = out.WriteString("<ID=")
	_, _ = out.WriteString(*format.ID)
	_, _ = out.WriteString(",Number=")
	if format.Number >= 0 {
		_, _ = out.WriteString(strconv.FormatInt(int64(format.Number), 10))
	} else {
		switch format.Number {
		case NumberA:
			_ = out.WriteByte('A')
		case NumberR:
			_ = out.WriteByte('R')
		case NumberG:
			_ = out.WriteByte('G')
		case NumberDot:
			_ = out.WriteByte('.')
		default:
			return errors.New("unknown Number kind in a VCF meta-information line")
		}
	}
	_, _ = out.WriteString(",Type=")
	switch format.Type {
	case Integer:
		_, _ = out.WriteString("Integer")
	case Float:
		_, _ = out.WriteString("Float")
	case Flag:
		_, _ = out.WriteString("Flag")
	case Character:
		_, _ = out.WriteString("Character")
	case String:
		_, _ = out.WriteString("String")
	default:
		return errors.New("invalid Type in a VCF meta-information line")
	}
	if format.Description != "" {
		_, _ = out.WriteString(",Description=")
		_ = FormatString(out, format.Description)
	}
	for _, key := range format.Fields.SortedKeys() {
		value := format.Fields[key]
		_ = out.WriteByte(',')
		_, _ = out.WriteString(key)
		_ = out.WriteByte('=')
		if (infoNotFormat && (key == "Source" || key == "Version")) || needsQuotes(value) {
			_ = FormatString(out, value)
		} else {
			_, _ = out.WriteString(value)
		}
	}
	_, err := out.WriteString(">\n")
	return err
}

// Format outputs a VCF header. Meta-information lines are grouped by
// key, in key order.
func (header *Header) Format(out *bufio.Writer) error {
	_, _ = out.WriteString(header.FileFormat)
	_ = out.WriteByte('\n')
	for _, info := range header.Infos {
		_, _ = out.WriteString("##INFO=")
		if err := FormatFormatInformation(out, info, true); err != nil {
			return err
		}
	}
	for _, format := range header.Formats {
		_, _ = out.WriteString("##FORMAT=")
		if err := FormatFormatInformation(out, format, false); err != nil {
			return err
		}
	}
	keys := make([]string, 0, len(header.Meta))
	for key := range header.Meta {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		for _, meta := range header.Meta[key] {
			_, _ = out.WriteString("##")
			_, _ = out.WriteString(key)
			_ = out.WriteByte('=')
			if err := FormatMetaInformation(out, meta); err != nil {
				return err
			}
		}
	}
	_ = out.WriteByte('#')
	_, _ = out.WriteString(strings.Join(header.Columns, "\t"))
	return out.WriteByte('\n')
}

func formatStringList(out []byte, list []string, separator byte) []byte {
	if len(list) == 0 {
		return append(out, '.', '\t')
	}
	out = append(out, list[0]...)
	for _, entry := range list[1:] {
		out = append(out, separator)
		out = append(out, entry...)
	}
	return append(out, '\t')
}

func formatSymbolList(out []byte, list []utils.Symbol, separator byte) []byte {
	if len(list) == 0 {
		return append(out, '.')
	}
	out = append(out, (*list[0])...)
	for _, sym := range list[1:] {
		out = append(out, separator)
		out = append(out, (*sym)...)
	}
	return out
}

func formatValue(out []byte, value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return append(out, '.'), nil
	case int:
		return strconv.AppendInt(out, int64(v), 10), nil
	case float64:
		return AppendDouble(out, v), nil
	case rune:
		if v < utf8.RuneSelf {
			return append(out, byte(v)), nil
		}
		var buf [utf8.UTFMax]byte
		return append(out, buf[:utf8.EncodeRune(buf[:], v)]...), nil
	case string:
		return append(out, v...), nil
	default:
		return nil, fmt.Errorf("invalid value type %T", value)
	}
}

func formatValueList(out []byte, values []interface{}) ([]byte, error) {
	var err error
	for i, v := range values {
		if i > 0 {
			out = append(out, ',')
		}
		if out, err = formatValue(out, v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func formatInfoEntry(out []byte, entry utils.SmallMapEntry) ([]byte, error) {
	out = append(out, (*entry.Key)...)
	switch e := entry.Value.(type) {
	case bool:
		if !e {
			return nil, fmt.Errorf("unexpected false value for INFO flag %v", *entry.Key)
		}
		return out, nil
	case []interface{}:
		return formatValueList(append(out, '='), e)
	default:
		return formatValue(append(out, '='), entry.Value)
	}
}

func formatInfo(out []byte, info utils.SmallMap) ([]byte, error) {
	if len(info) == 0 {
		return append(out, '.'), nil
	}
	var err error
	for i, entry := range info {
		if i > 0 {
			out = append(out, ';')
		}
		if out, err = formatInfoEntry(out, entry); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// FormatGT outputs a GT entry.
func FormatGT(out []byte, phased bool, gt []int32) []byte {
	if len(gt) == 0 {
		return append(out, '.')
	}
	separator := byte('/')
	if phased {
		separator = '|'
	}
	for i, allele := range gt {
		if i > 0 {
			out = append(out, separator)
		}
		if allele < 0 {
			out = append(out, '.')
		} else {
			out = strconv.AppendInt(out, int64(allele), 10)
		}
	}
	return out
}

func formatGenotypeDataEntry(out []byte, format utils.Symbol, genotype *Genotype) ([]byte, bool, error) {
	if format == GT {
		return FormatGT(out, genotype.Phased, genotype.GT), true, nil
	}
	switch value, _ := genotype.Data.Get(format); val := value.(type) {
	case nil:
		return append(out, '.'), false, nil
	case []interface{}:
		if allMissing(val) {
			return append(out, '.'), false, nil
		}
		out, err := formatValueList(out, val)
		return out, true, err
	default:
		out, err := formatValue(out, value)
		return out, true, err
	}
}

func allMissing(values []interface{}) bool {
	for _, v := range values {
		if v != nil {
			return false
		}
	}
	return true
}

// formatGenotypeData drops trailing missing entries.
func formatGenotypeData(out []byte, format []utils.Symbol, genotype *Genotype) ([]byte, error) {
	start := len(out)
	pos := start
	for i, f := range format {
		if i > 0 {
			out = append(out, ':')
		}
		var ok bool
		var err error
		if out, ok, err = formatGenotypeDataEntry(out, f, genotype); err != nil {
			return nil, err
		}
		if ok {
			pos = len(out)
		}
	}
	if pos == start {
		return append(out[:start], '.'), nil
	}
	return out[:pos], nil
}

// Format outputs a VCF variant line
func (variant *Variant) Format(out []byte) ([]byte, error) {
	out = append(append(out, variant.Chrom...), '\t')
	if variant.Pos < 0 {
		out = append(out, '.', '\t')
	} else {
		out = append(strconv.AppendInt(out, int64(variant.Pos), 10), '\t')
	}
	out = formatStringList(out, variant.ID, ';')
	out = append(append(out, variant.Ref...), '\t')
	out = formatStringList(out, variant.Alt, ',')
	if value, ok := variant.Qual.(float64); ok {
		out = append(AppendQual(out, value), '\t')
	} else {
		out = append(out, '.', '\t')
	}
	out = append(formatSymbolList(out, variant.Filter, ';'), '\t')
	var err error
	if out, err = formatInfo(out, variant.Info); err != nil {
		return nil, err
	}
	if len(variant.GenotypeFormat) > 0 {
		out = append(out, '\t')
		out = formatSymbolList(out, variant.GenotypeFormat, ':')
		for i := range variant.GenotypeData {
			out = append(out, '\t')
			if out, err = formatGenotypeData(out, variant.GenotypeFormat, &variant.GenotypeData[i]); err != nil {
				return nil, err
			}
		}
	}
	return append(out, '\n'), nil
}

// Format outputs a full VCF struct
func (vcf *Vcf) Format(out *bufio.Writer) error {
	if err := vcf.Header.Format(out); err != nil {
		return err
	}
	var buf []byte
	var err error
	for _, variant := range vcf.Variants {
		if buf, err = variant.Format(buf[:0]); err != nil {
			return err
		}
		if _, err = out.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

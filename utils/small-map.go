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

package utils

import "sort"

// SmallMapEntry is an entry in a SmallMap.
type SmallMapEntry struct {
	Key   Symbol
	Value interface{}
}

// A SmallMap maps symbols to values, like a Go map, but is faster and
// smaller than one for the handful of entries of a VCF INFO or FORMAT
// column.
type SmallMap []SmallMapEntry

// Get returns the value of the first entry with the given key, and
// whether such an entry was found.
func (m SmallMap) Get(key Symbol) (interface{}, bool) {
	for _, entry := range m {
		if entry.Key == key {
			return entry.Value, true
		}
	}
	return nil, false
}

// Set associates the given value with the given key, either replacing
// the value of an existing entry, or appending a new one.
func (m *SmallMap) Set(key Symbol, value interface{}) {
	for index := range *m {
		if (*m)[index].Key == key {
			(*m)[index].Value = value
			return
		}
	}
	*m = append(*m, SmallMapEntry{key, value})
}

// Delete removes the first entry with the given key, and reports
// whether there was one.
func (m *SmallMap) Delete(key Symbol) bool {
	for index, entry := range *m {
		if entry.Key == key {
			*m = append((*m)[:index], (*m)[index+1:]...)
			return true
		}
	}
	return false
}

// DeleteIf removes all entries that satisfy the given test, and
// reports whether any entry was removed.
func (m *SmallMap) DeleteIf(test func(key Symbol, val interface{}) bool) bool {
	i := 0
	for _, entry := range *m {
		if !test(entry.Key, entry.Value) {
			(*m)[i] = entry
			i++
		}
	}
	removed := i < len(*m)
	*m = (*m)[:i]
	return removed
}

// Keys returns the keys of the map in entry order.
func (m SmallMap) Keys() []Symbol {
	keys := make([]Symbol, len(m))
	for i, entry := range m {
		keys[i] = entry.Key
	}
	return keys
}

// SortByKey sorts the entries by key name.
func (m SmallMap) SortByKey() {
	sort.SliceStable(m, func(i, j int) bool {
		return *m[i].Key < *m[j].Key
	})
}

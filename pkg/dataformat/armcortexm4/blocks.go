package armcortexm4

import "sort"

// block is one entry of a block map on the wire (spec.md §3, §4.F): the
// offset of the first matched entry within the sorted from-side address
// map, the to-side address of that same entry, and the from-value minus
// to-value residual for every paired position in the run.
type block struct {
	FromOffset int64
	ToAddress  int64
	Residuals  []int64
}

// minBlockRun is the smallest accepted matching run; shorter runs cost more
// in block overhead than they save versus letting bsdiff find the bytes on
// its own (spec.md §3 "Matching blocks").
const minBlockRun = 8

// sortedAddrMap is a map flattened to parallel, address-sorted slices.
type sortedAddrMap struct {
	addrs  []int64
	values []int64
}

func sortMap(m map[int64]int64) sortedAddrMap {
	addrs := make([]int64, 0, len(m))
	for a := range m {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	values := make([]int64, len(addrs))
	for i, a := range addrs {
		values[i] = m[a]
	}

	return sortedAddrMap{addrs: addrs, values: values}
}

// matchedRun is one contiguous run produced by matching two sorted address
// sequences: fromStart/toStart are indices into the respective sorted
// slices, and length is the number of consecutive paired entries.
type matchedRun struct {
	fromStart, toStart, length int
}

// matchAddressRuns finds every maximal run of consecutive index pairs
// (i, i+1, ...) / (j, j+1, ...) such that fromAddrs[i+k] == toAddrs[j+k]
// for all k in the run. Both inputs are strictly increasing (they are
// address-sorted map keys), so the shared elements occur in the same
// relative order in both and a two-pointer merge finds every one of them
// without needing a general LCS search.
func matchAddressRuns(fromAddrs, toAddrs []int64) []matchedRun {
	var runs []matchedRun
	i, j := 0, 0

	for i < len(fromAddrs) && j < len(toAddrs) {
		switch {
		case fromAddrs[i] == toAddrs[j]:
			start := matchedRun{fromStart: i, toStart: j, length: 0}
			for i < len(fromAddrs) && j < len(toAddrs) && fromAddrs[i] == toAddrs[j] {
				start.length++
				i++
				j++
			}
			runs = append(runs, start)
		case fromAddrs[i] < toAddrs[j]:
			i++
		default:
			j++
		}
	}

	return runs
}

// buildBlocks implements create_patch_block from arm.py: match the address
// keys of from/to maps, keep runs of at least minBlockRun entries, and for
// each accepted run compute the residual values and zero the matched
// 4-byte words in both from and to so the generic bsdiff pass downstream
// does not also encode them.
func buildBlocks(from, to []byte, fromMap, toMap map[int64]int64) []block {
	fsorted := sortMap(fromMap)
	tsorted := sortMap(toMap)

	runs := matchAddressRuns(fsorted.addrs, tsorted.addrs)

	var blocks []block

	for _, run := range runs {
		if run.length < minBlockRun {
			continue
		}

		residuals := make([]int64, run.length)
		for k := 0; k < run.length; k++ {
			fv := fsorted.values[run.fromStart+k]
			tv := tsorted.values[run.toStart+k]
			residuals[k] = fv - tv
		}

		blocks = append(blocks, block{
			FromOffset: int64(run.fromStart),
			ToAddress:  tsorted.addrs[run.toStart],
			Residuals:  residuals,
		})

		for k := 0; k < run.length; k++ {
			zeroWord(from, fsorted.addrs[run.fromStart+k])
			zeroWord(to, tsorted.addrs[run.toStart+k])
		}
	}

	return blocks
}

func zeroWord(buf []byte, addr int64) {
	for k := int64(0); k < 4; k++ {
		buf[addr+k] = 0
	}
}

// Package bsdiff implements the control/diff/extra encoding at the heart of
// a bsdiff-family delta: given the suffix array of `from`, walk `to` left
// to right, find the longest approximately-matching run in `from` at each
// position, and emit (copy_len, extra_len, seek_adjust) triples plus their
// payload bytes. See spec.md §4.C.
package bsdiff

import (
	"bytes"

	"github.com/blockpatch/detools/pkg/size"
)

// approxTolerance is the number of mismatched bytes tolerated inside an
// otherwise-longer run before the scanner commits to a shorter one; see
// spec.md §4.C "approximate-match tolerance".
const approxTolerance = 8

// Create walks the suffix array sa of from and produces one chunk per
// control triple (terminated by a final (0,0,0) chunk), calling emit with
// each chunk in order. Each chunk is ready to be fed straight into a
// compress.Compressor.
func Create(sa []int, from, to []byte, emit func([]byte) error) error {
	oldsize := len(from)
	newsize := len(to)

	var scan, length, lastscan, lastpos, lastoffset int
	var oldscore, scsc, pos int

	for scan < newsize {
		oldscore = 0
		scan += length
		scsc = scan

		for scan < newsize {
			scan++
			length = search(sa, from, to[scan:], 0, oldsize, &pos)

			for scsc < scan+length {
				if scsc+lastoffset < oldsize && from[scsc+lastoffset] == to[scsc] {
					oldscore++
				}
				scsc++
			}

			if length == oldscore && length != 0 {
				break
			}
			if length > oldscore+approxTolerance {
				break
			}
			if scan+lastoffset < oldsize && from[scan+lastoffset] == to[scan] {
				oldscore--
			}
		}

		if length == oldscore && scan != newsize {
			continue
		}

		lenf := forwardExtend(from, to, lastscan, lastpos, scan, oldsize)
		lenb := 0
		if scan < newsize {
			lenb = backwardExtend(from, to, lastscan, scan, pos)
		}

		if lastscan+lenf > scan-lenb {
			lenf, lenb = resolveOverlap(from, to, lastscan, lastpos, scan, pos, lenf, lenb)
		}

		copyLen := lenf
		extraLen := (scan - lenb) - (lastscan + lenf)
		seekAdjust := (pos - lenb) - (lastpos + lenf)
		if scan == newsize {
			// This triple reaches the end of to; there is no next match to
			// seek to, so the from cursor is left where it is.
			seekAdjust = 0
		}

		chunk := make([]byte, 0, copyLen+extraLen+3*size.MaxBytes)
		chunk = append(chunk, size.Encode(int64(copyLen))...)
		chunk = append(chunk, size.Encode(int64(extraLen))...)
		chunk = append(chunk, size.Encode(int64(seekAdjust))...)

		for i := 0; i < copyLen; i++ {
			chunk = append(chunk, to[lastscan+i]-from[lastpos+i])
		}

		chunk = append(chunk, to[lastscan+lenf:lastscan+lenf+extraLen]...)

		if err := emit(chunk); err != nil {
			return err
		}

		lastscan = scan - lenb
		lastpos = pos - lenb
		lastoffset = pos - scan
	}

	return emit(terminator())
}

// terminator is the (0, 0, 0) chunk that closes the bsdiff stream.
func terminator() []byte {
	chunk := make([]byte, 0, 3)
	chunk = append(chunk, size.Encode(0)...)
	chunk = append(chunk, size.Encode(0)...)
	chunk = append(chunk, size.Encode(0)...)
	return chunk
}

// Bytes is a convenience wrapper around Create that concatenates every
// chunk into one uncompressed bsdiff stream.
func Bytes(sa []int, from, to []byte) ([]byte, error) {
	var buf bytes.Buffer
	err := Create(sa, from, to, func(chunk []byte) error {
		_, werr := buf.Write(chunk)
		return werr
	})
	return buf.Bytes(), err
}

func forwardExtend(from, to []byte, lastscan, lastpos, scan, oldsize int) int {
	s, best, lenf := 0, 0, 0
	i := 0

	for lastscan+i < scan && lastpos+i < oldsize {
		if from[lastpos+i] == to[lastscan+i] {
			s++
		}
		i++
		if s*2-i > best*2-lenf {
			best = s
			lenf = i
		}
	}

	return lenf
}

func backwardExtend(from, to []byte, lastscan, scan, pos int) int {
	s, best, lenb := 0, 0, 0

	for i := 1; scan >= lastscan+i && pos >= i; i++ {
		if from[pos-i] == to[scan-i] {
			s++
		}
		if s*2-i > best*2-lenb {
			best = s
			lenb = i
		}
	}

	return lenb
}

func resolveOverlap(from, to []byte, lastscan, lastpos, scan, pos, lenf, lenb int) (int, int) {
	overlap := (lastscan + lenf) - (scan - lenb)
	s, ss, lens := 0, 0, 0

	for i := 0; i < overlap; i++ {
		if to[lastscan+lenf-overlap+i] == from[lastpos+lenf-overlap+i] {
			s++
		}
		if to[scan-lenb+i] == from[pos-lenb+i] {
			s--
		}
		if s > ss {
			ss = s
			lens = i + 1
		}
	}

	lenf += lens - overlap
	lenb -= lens

	return lenf, lenb
}

// search binary-searches the suffix array sa (over from) for the longest
// prefix match against to, returning the match length and writing the
// matching from-offset to pos.
func search(sa []int, from, to []byte, st, en int, pos *int) int {
	if en-st < 2 {
		x := matchLen(from[sa[st]:], to)
		y := matchLen(from[sa[en]:], to)

		if x > y {
			*pos = sa[st]
			return x
		}
		*pos = sa[en]
		return y
	}

	x := st + (en-st)/2
	cmpLen := len(from) - sa[x]
	if cmpLen > len(to) {
		cmpLen = len(to)
	}

	if bytes.Compare(from[sa[x]:sa[x]+cmpLen], to[:cmpLen]) < 0 {
		return search(sa, from, to, x, en, pos)
	}
	return search(sa, from, to, st, x, pos)
}

func matchLen(from, to []byte) int {
	i := 0
	for i < len(from) && i < len(to) && from[i] == to[i] {
		i++
	}
	return i
}

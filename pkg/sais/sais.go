// Package sais builds the suffix array of a byte buffer in linear time
// using the induced-sorting algorithm (Nong, Zhang, Chen). It replaces the
// teacher's O(n log n) qsufsort with the linear-time construction spec.md
// §4.B mandates; no quicksort fallback is taken for large inputs.
package sais

// Build returns the suffix array of buf: a permutation of [0, len(buf)]
// such that the suffixes starting at each sa[i] are lexicographically
// increasing. A virtual sentinel strictly less than every byte in buf is
// appended internally, so the result has length len(buf)+1 and sa[0] is
// always len(buf) (the empty suffix).
func Build(buf []byte) []int {
	n := len(buf)
	if n == 0 {
		return []int{0}
	}

	s := make([]int, n+1)
	for i, b := range buf {
		s[i] = int(b) + 1 // shift so the sentinel (0) sorts first
	}
	s[n] = 0

	sa := make([]int, n+1)
	sais(s, sa, 257)

	return sa
}

// sais computes the suffix array of s (alphabet [0, alphabetSize)) into sa.
// s must end with a unique minimum sentinel (0) not occurring elsewhere.
func sais(s []int, sa []int, alphabetSize int) {
	n := len(s)
	if n == 1 {
		sa[0] = 0
		return
	}

	isLMS, isS := classifySuffixes(s)

	bucketSizes := make([]int, alphabetSize)
	for _, c := range s {
		bucketSizes[c]++
	}

	for i := range sa {
		sa[i] = -1
	}

	placeLMSAtBucketEnds(s, sa, isLMS, bucketSizes, alphabetSize)
	induceSortL(s, sa, isS, bucketSizes, alphabetSize)
	induceSortS(s, sa, isS, bucketSizes, alphabetSize)

	lmsIndices := collectLMS(sa, isLMS)
	names, numNames := nameLMSSubstrings(s, lmsIndices, isLMS, isS)

	if numNames < len(lmsIndices) {
		sa1 := make([]int, len(names))
		if numNames == 0 {
			for i := range sa1 {
				sa1[i] = i
			}
		} else {
			sais(names, sa1, numNames)
		}

		for i, idx := range sa1 {
			lmsIndices[i] = idx
		}

		orderedLMS := make([]int, len(lmsIndices))
		j := 0
		for i := 0; i < n; i++ {
			if isLMS[i] {
				orderedLMS[j] = i
				j++
			}
		}

		sorted := make([]int, len(lmsIndices))
		for i, rank := range lmsIndices {
			sorted[i] = orderedLMS[rank]
		}
		lmsIndices = sorted
	}

	for i := range sa {
		sa[i] = -1
	}

	placeLMSInOrder(s, sa, lmsIndices, bucketSizes, alphabetSize)
	induceSortL(s, sa, isS, bucketSizes, alphabetSize)
	induceSortS(s, sa, isS, bucketSizes, alphabetSize)
}

// classifySuffixes returns, for each position, whether it is S-type
// (suffix(i) < suffix(i+1), with the sentinel defined as S-type) and
// whether it is a leftmost-S (LMS) position: S-type preceded by L-type.
func classifySuffixes(s []int) (isLMS, isS []bool) {
	n := len(s)
	isS = make([]bool, n)
	isLMS = make([]bool, n)
	isS[n-1] = true

	for i := n - 2; i >= 0; i-- {
		if s[i] < s[i+1] {
			isS[i] = true
		} else if s[i] == s[i+1] {
			isS[i] = isS[i+1]
		} else {
			isS[i] = false
		}
	}

	for i := 1; i < n; i++ {
		if isS[i] && !isS[i-1] {
			isLMS[i] = true
		}
	}

	return isLMS, isS
}

func bucketHeads(bucketSizes []int, alphabetSize int) []int {
	heads := make([]int, alphabetSize)
	sum := 0
	for c := 0; c < alphabetSize; c++ {
		heads[c] = sum
		sum += bucketSizes[c]
	}
	return heads
}

func bucketTails(bucketSizes []int, alphabetSize int) []int {
	tails := make([]int, alphabetSize)
	sum := 0
	for c := 0; c < alphabetSize; c++ {
		sum += bucketSizes[c]
		tails[c] = sum - 1
	}
	return tails
}

func placeLMSAtBucketEnds(s []int, sa []int, isLMS []bool, bucketSizes []int, alphabetSize int) {
	tails := bucketTails(bucketSizes, alphabetSize)

	for i := len(s) - 1; i >= 0; i-- {
		if !isLMS[i] {
			continue
		}
		c := s[i]
		sa[tails[c]] = i
		tails[c]--
	}
}

func placeLMSInOrder(s []int, sa []int, lmsIndices []int, bucketSizes []int, alphabetSize int) {
	tails := bucketTails(bucketSizes, alphabetSize)

	for i := len(lmsIndices) - 1; i >= 0; i-- {
		idx := lmsIndices[i]
		c := s[idx]
		sa[tails[c]] = idx
		tails[c]--
	}
}

func induceSortL(s []int, sa []int, isS []bool, bucketSizes []int, alphabetSize int) {
	heads := bucketHeads(bucketSizes, alphabetSize)
	n := len(s)

	for i := 0; i < n; i++ {
		j := sa[i] - 1
		if j < 0 || isS[j] {
			continue
		}
		c := s[j]
		sa[heads[c]] = j
		heads[c]++
	}
}

func induceSortS(s []int, sa []int, isS []bool, bucketSizes []int, alphabetSize int) {
	tails := bucketTails(bucketSizes, alphabetSize)
	n := len(s)

	for i := n - 1; i >= 0; i-- {
		j := sa[i] - 1
		if j < 0 || !isS[j] {
			continue
		}
		c := s[j]
		sa[tails[c]] = j
		tails[c]--
	}
}

func collectLMS(sa []int, isLMS []bool) []int {
	lms := make([]int, 0, len(sa)/2+1)
	for _, idx := range sa {
		if idx >= 0 && isLMS[idx] {
			lms = append(lms, idx)
		}
	}
	return lms
}

// nameLMSSubstrings assigns a rank to each LMS substring found (in text
// order) in lmsSorted, which holds LMS positions sorted by the first
// induced pass. It returns the names in text order and the count of
// distinct names.
func nameLMSSubstrings(s []int, lmsSorted []int, isLMS, isS []bool) ([]int, int) {
	n := len(s)
	nameOf := make([]int, n)
	for i := range nameOf {
		nameOf[i] = -1
	}

	name := 0
	prev := lmsSorted[0]
	nameOf[lmsSorted[0]] = name

	for i := 1; i < len(lmsSorted); i++ {
		cur := lmsSorted[i]
		if prev >= 0 && !lmsSubstringsEqual(s, isLMS, isS, prev, cur) {
			name++
		}
		nameOf[cur] = name
		prev = cur
	}

	names := make([]int, 0, len(lmsSorted))
	for i := 0; i < n; i++ {
		if isLMS[i] {
			names = append(names, nameOf[i])
		}
	}

	return names, name + 1
}

func lmsSubstringsEqual(s []int, isLMS, isS []bool, a, b int) bool {
	n := len(s)

	for k := 0; ; k++ {
		aEnd := a+k >= n
		bEnd := b+k >= n

		if aEnd || bEnd {
			return aEnd == bEnd
		}

		aLMSHere := a+k > a && isLMS[a+k]
		bLMSHere := b+k > b && isLMS[b+k]

		if s[a+k] != s[b+k] {
			return false
		}

		if aLMSHere != bLMSHere {
			return false
		}

		if aLMSHere && bLMSHere {
			return true
		}
	}
}

// Package fec implements the Reed-Solomon (28,32) code used to protect
// frame headers and data: 4 parity symbols over GF(2^8), correcting up to
// 2 byte errors per 32-byte codeword.
//
// SPDX-FileCopyrightText: 2002 Phil Karn, KA9Q
// SPDX-FileCopyrightText: 2007 Jim McGuire KB3MPL
//
// The syndrome/Berlekamp-Massey/Chien/Forney decoder below implements the
// same classical algorithm as Phil Karn's widely reused RS codec (the one
// behind FX.25's RS(255,239)/RS(255,223)/RS(255,191) family) shrunk down
// to a fixed (n,k) = (32,28), nroots = 4 code. It is a from-scratch pure
// Go port rather than a binding: the original is a cgo wrapper over C
// source this repository does not carry.
package fec

const (
	// DataSize is the number of message bytes per codeword (header+data).
	DataSize = 28
	// ParitySize is the number of parity bytes appended per codeword.
	ParitySize = 4
	// BlockSize is DataSize+ParitySize, the full codeword length.
	BlockSize = DataSize + ParitySize

	fieldSize = 256 // GF(2^8)
	genPoly   = 0x11d
)

// gfExp[i] = alpha^i, gfLog[gfExp[i]] = i, for the generator polynomial
// x^8 + x^4 + x^3 + x^2 + 1 (0x11d), the same field FX.25/CCSDS use.
var (
	gfExp [fieldSize * 2]byte
	gfLog [fieldSize]byte
)

func init() {
	var x int = 1
	for i := 0; i < fieldSize-1; i++ {
		gfExp[i] = byte(x)
		gfLog[x] = byte(i)
		x <<= 1
		if x&fieldSize != 0 {
			x ^= genPoly
		}
	}
	for i := fieldSize - 1; i < len(gfExp); i++ {
		gfExp[i] = gfExp[i-(fieldSize-1)]
	}
	generator = generatorPoly()
}

func gfMul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return gfExp[int(gfLog[a])+int(gfLog[b])]
}

func gfDiv(a, b byte) byte {
	if a == 0 {
		return 0
	}
	// b == 0 is a caller bug (division by zero in GF); never hit on this
	// code's error-correcting path because b is always a nonzero locator.
	return gfExp[(int(gfLog[a])-int(gfLog[b])+fieldSize-1)%(fieldSize-1)]
}

func gfPow(a byte, n int) byte {
	if a == 0 {
		if n == 0 {
			return 1
		}
		return 0
	}
	e := (int(gfLog[a]) * n) % (fieldSize - 1)
	if e < 0 {
		e += fieldSize - 1
	}
	return gfExp[e]
}

func gfInv(a byte) byte {
	return gfExp[(fieldSize-1)-int(gfLog[a])]
}

// generatorPoly builds the RS generator polynomial of degree ParitySize,
// coefficients highest-degree first, as in Phil Karn's init_rs.
func generatorPoly() []byte {
	g := make([]byte, 1, ParitySize+1)
	g[0] = 1
	for i := 0; i < ParitySize; i++ {
		// multiply g(x) by (x - alpha^i) == (x + alpha^i) in GF(2^n)
		root := gfExp[i]
		next := make([]byte, len(g)+1)
		for j, c := range g {
			next[j] ^= c
			next[j+1] ^= gfMul(c, root)
		}
		g = next
	}
	return g
}

// generator is filled in by init, after the GF tables it depends on.
var generator []byte

// Encode takes a DataSize-byte message and returns a BlockSize-byte
// codeword: the message followed by ParitySize parity bytes, computed by
// polynomial division of message(x)*x^ParitySize by the generator.
func Encode(message []byte) []byte {
	if len(message) != DataSize {
		panic("fec: Encode requires a 28-byte message")
	}

	remainder := make([]byte, ParitySize)
	for _, m := range message {
		feedback := m ^ remainder[0]
		copy(remainder, remainder[1:])
		remainder[ParitySize-1] = 0
		if feedback != 0 {
			for j := 0; j < ParitySize; j++ {
				remainder[j] ^= gfMul(generator[j+1], feedback)
			}
		}
	}

	out := make([]byte, BlockSize)
	copy(out, message)
	copy(out[DataSize:], remainder)
	return out
}

// Decode corrects up to ParitySize/2 byte errors in a BlockSize-byte
// codeword and returns the DataSize-byte message plus the number of
// symbols corrected. If correction capacity is exceeded, it returns the
// codeword unmodified and errorsCorrected = -1.
func Decode(codeword []byte) (message []byte, errorsCorrected int) {
	if len(codeword) != BlockSize {
		return codeword, -1
	}

	syndromes := computeSyndromes(codeword)
	if allZero(syndromes) {
		return append([]byte(nil), codeword[:DataSize]...), 0
	}

	locatorPoly, errCount := berlekampMassey(syndromes)
	if errCount == 0 || errCount > ParitySize/2 {
		return codeword, -1
	}

	errPositions := chienSearch(locatorPoly, len(codeword))
	if len(errPositions) != errCount {
		return codeword, -1
	}

	corrected := append([]byte(nil), codeword...)
	if !forneyCorrect(corrected, syndromes, locatorPoly, errPositions) {
		return codeword, -1
	}

	// Re-check: a miscorrection can still leave nonzero syndromes.
	if !allZero(computeSyndromes(corrected)) {
		return codeword, -1
	}

	return corrected[:DataSize], len(errPositions)
}

func computeSyndromes(codeword []byte) []byte {
	s := make([]byte, ParitySize)
	for i := 0; i < ParitySize; i++ {
		var acc byte
		root := gfExp[i]
		for _, c := range codeword {
			acc = gfMul(acc, root) ^ c
		}
		s[i] = acc
	}
	return s
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// berlekampMassey computes the error-locator polynomial from the
// syndromes, returning its coefficients (constant term first) and the
// number of errors it implies (its degree).
func berlekampMassey(syndromes []byte) (locator []byte, numErrors int) {
	n := len(syndromes)
	c := make([]byte, n+1)
	b := make([]byte, n+1)
	c[0], b[0] = 1, 1
	l := 0
	m := 1
	bCoef := byte(1)

	for i := 0; i < n; i++ {
		var delta byte
		delta = syndromes[i]
		for j := 1; j <= l; j++ {
			delta ^= gfMul(c[j], syndromes[i-j])
		}
		if delta == 0 {
			m++
			continue
		}
		t := append([]byte(nil), c...)
		coef := gfDiv(delta, bCoef)
		for j := 0; j+m < len(c); j++ {
			c[j+m] ^= gfMul(coef, b[j])
		}
		if 2*l <= i {
			l = i + 1 - l
			b = t
			bCoef = delta
			m = 1
		} else {
			m++
		}
	}

	return c[:l+1], l
}

// chienSearch finds the roots of the error locator polynomial by brute
// force evaluation over the codeword's index range, returning the
// 0-based byte positions (from the start of the codeword) where the
// locator polynomial evaluates to zero.
func chienSearch(locator []byte, codewordLen int) []int {
	var positions []int
	for i := 0; i < codewordLen; i++ {
		// Error locator roots are alpha^{-i}; position from the start
		// of the codeword is codewordLen-1-i in this convention.
		x := gfInv(gfPow(gfExp[1], i))
		var acc byte
		for j := len(locator) - 1; j >= 0; j-- {
			acc = gfMul(acc, x) ^ locator[j]
		}
		if acc == 0 {
			positions = append(positions, codewordLen-1-i)
		}
	}
	return positions
}

// forneyCorrect applies Forney's algorithm to compute the error magnitude
// at each candidate position and XORs it into codeword in place. Returns
// false if any magnitude computation is degenerate (locator had a root
// we can't resolve cleanly), signalling the caller to reject the attempt.
func forneyCorrect(codeword []byte, syndromes []byte, locator []byte, positions []int) bool {
	if len(positions) == 0 {
		return false
	}

	// Error evaluator: omega(x) = [S(x) * locator(x)] mod x^ParitySize
	omega := make([]byte, ParitySize)
	for i := 0; i < ParitySize; i++ {
		var acc byte
		for j := 0; j <= i && j < len(locator); j++ {
			acc ^= gfMul(locator[j], syndromes[i-j])
		}
		omega[i] = acc
	}

	// Formal derivative of locator (odd-power terms only, doubled in
	// char-2 fields so even terms vanish).
	locatorDeriv := make([]byte, len(locator))
	for i := 1; i < len(locator); i += 2 {
		locatorDeriv[i-1] = locator[i]
	}

	for _, pos := range positions {
		i := len(codeword) - 1 - pos
		x := gfPow(gfExp[1], i)
		xInv := gfInv(x)

		var numer byte
		for j := len(omega) - 1; j >= 0; j-- {
			numer = gfMul(numer, xInv) ^ omega[j]
		}

		var denom byte
		for j := len(locatorDeriv) - 1; j >= 0; j-- {
			denom = gfMul(denom, xInv) ^ locatorDeriv[j]
		}
		if denom == 0 {
			return false
		}

		magnitude := gfMul(x, gfDiv(numer, denom))
		codeword[pos] ^= magnitude
	}
	return true
}

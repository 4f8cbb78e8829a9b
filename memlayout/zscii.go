package memlayout

// Z-character alphabets, transcribed from the interpreter's decode-side
// tables so string encoding round-trips with the teacher's decoder.
var a0Default = [26]byte{'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'j', 'k', 'l', 'm', 'n', 'o', 'p', 'q', 'r', 's', 't', 'u', 'v', 'w', 'x', 'y', 'z'}
var a1Default = [26]byte{'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I', 'J', 'K', 'L', 'M', 'N', 'O', 'P', 'Q', 'R', 'S', 'T', 'U', 'V', 'W', 'X', 'Y', 'Z'}
var a2Default = [25]byte{'\n', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '.', ',', '!', '?', '_', '#', '\'', '"', '/', '\\', '-', ':', '(', ')'}

func zcharFor(c byte) (alphabet int, zchr uint8, ok bool) {
	for i, r := range a0Default {
		if r == c {
			return 0, uint8(i + 6), true
		}
	}
	for i, r := range a1Default {
		if r == c {
			return 1, uint8(i + 6), true
		}
	}
	for i, r := range a2Default {
		if r == c {
			return 2, uint8(i + 7), true
		}
	}
	return 0, 0, false
}

// EncodeZSCII packs a string into Z-character 5-bit trios per word, the
// final word's top bit set, padding with shift-lock-neutral filler
// (z-char 5, the shift to a2) so every string occupies a whole number
// of words. Characters outside a0/a1/a2 are emitted as an escape
// sequence (z-char 6 on alphabet 2, followed by the top/bottom 5 bits
// of the raw byte), matching the decoder's escape handling.
func EncodeZSCII(s string) []uint16 {
	var zchars []uint8
	currentAlphabet := 0

	emitShiftTo := func(target int) {
		if target == currentAlphabet {
			return
		}
		// Single-shift: z-char 4 shifts to a1, 5 shifts to a2 (v3+ semantics).
		switch target {
		case 1:
			zchars = append(zchars, 4)
		case 2:
			zchars = append(zchars, 5)
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' {
			zchars = append(zchars, 0)
			continue
		}
		alphabet, zchr, ok := zcharFor(c)
		if !ok {
			zchars = append(zchars, 5, 6, uint8(c>>5), uint8(c&0x1F))
			continue
		}
		if alphabet != 0 {
			emitShiftTo(alphabet)
		}
		zchars = append(zchars, zchr)
	}

	for len(zchars)%3 != 0 {
		zchars = append(zchars, 5) // pad with shift-to-a2 (no-op at string end)
	}

	words := make([]uint16, 0, len(zchars)/3)
	for i := 0; i < len(zchars); i += 3 {
		word := uint16(zchars[i])<<10 | uint16(zchars[i+1])<<5 | uint16(zchars[i+2])
		words = append(words, word)
	}
	if len(words) > 0 {
		words[len(words)-1] |= 0x8000
	} else {
		words = []uint16{0x8000}
	}
	return words
}

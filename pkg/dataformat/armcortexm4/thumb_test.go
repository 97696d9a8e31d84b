package armcortexm4

import "testing"

func TestBWRoundTrip(t *testing.T) {
	// Every upper/lower pair recognized as a B.W by disassemble() has
	// upper&0xf800==0xf000 and lower&0xc000==0x8000 with lower&0xd000!=0xd000.
	for s := int64(0); s <= 1; s++ {
		for cond := int64(0); cond <= 0xf; cond++ {
			for imm6 := int64(0); imm6 <= 0x3f; imm6 += 7 {
				for imm11 := int64(0); imm11 <= 0x7ff; imm11 += 97 {
					for j1 := int64(0); j1 <= 1; j1++ {
						for j2 := int64(0); j2 <= 1; j2++ {
							for tt := int64(0); tt <= 1; tt++ {
								upper := uint16(0b11110<<11) | uint16(s<<10) | uint16(cond<<6) | uint16(imm6)
								lower := uint16(0b10<<14) | uint16(j1<<13) | uint16(tt<<12) | uint16(j2<<11) | uint16(imm11)

								if lower&0xd000 == 0xd000 {
									continue
								}

								value := unpackBW(upper, lower)
								gotUpper, gotLower := packBW(value)
								if gotUpper != upper || gotLower != lower {
									t.Fatalf("packBW(unpackBW(%#04x,%#04x)) = (%#04x,%#04x), want (%#04x,%#04x)",
										upper, lower, gotUpper, gotLower, upper, lower)
								}
							}
						}
					}
				}
			}
		}
	}
}

func TestBLRoundTrip(t *testing.T) {
	for s := int64(0); s <= 1; s++ {
		for imm10 := int64(0); imm10 <= 0x3ff; imm10 += 23 {
			for imm11 := int64(0); imm11 <= 0x7ff; imm11 += 97 {
				for j1 := int64(0); j1 <= 1; j1++ {
					for j2 := int64(0); j2 <= 1; j2++ {
						upper := uint16(0b11110<<11) | uint16(s<<10) | uint16(imm10)
						lower := uint16(0b11<<14) | uint16(j1<<13) | uint16(1<<12) | uint16(j2<<11) | uint16(imm11)

						value := unpackBL(upper, lower)
						gotUpper, gotLower := packBL(value)
						if gotUpper != upper || gotLower != lower {
							t.Fatalf("packBL(unpackBL(%#04x,%#04x)) = (%#04x,%#04x), want (%#04x,%#04x)",
								upper, lower, gotUpper, gotLower, upper, lower)
						}
					}
				}
			}
		}
	}
}

func TestPackUnpackValueRoundTrip(t *testing.T) {
	// BL immediates are 24-bit signed: [-(1<<23), (1<<23)-1].
	for _, v := range []int64{0, 1, -1, 100, -100, 1000, -1000, (1 << 23) - 1, -(1 << 23)} {
		u, l := packBL(v)
		if got := unpackBL(u, l); got != v {
			t.Fatalf("unpackBL(packBL(%d)) = %d", v, got)
		}
	}

	// B.W values are 25-bit signed: [-(1<<24), (1<<24)-1].
	for _, v := range []int64{0, 1, -1, 100, -100, 1000, -1000, (1 << 24) - 1, -(1 << 24)} {
		u, l := packBW(v)
		if got := unpackBW(u, l); got != v {
			t.Fatalf("unpackBW(packBW(%d)) = %d", v, got)
		}
	}
}

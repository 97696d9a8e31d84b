package armcortexm4

import "encoding/binary"

// annotations holds the six address-keyed maps the disassembler produces;
// see spec.md §3 "Cortex-M4 annotation maps".
type annotations struct {
	bw, bl, ldr, ldrW     map[int64]int64
	dataPointers, codePointers map[int64]int64
}

// cursor walks a byte buffer at 16-bit granularity, matching the
// read/seek/tell semantics original_source/detools/data_format/arm.py's
// disassemble() relies on.
type cursor struct {
	data []byte
	pos  int64
}

func (c *cursor) tell() int64 { return c.pos }

func (c *cursor) seek(pos int64) { c.pos = pos }

func (c *cursor) readU16() uint16 {
	v := binary.LittleEndian.Uint16(c.data[c.pos:])
	c.pos += 2
	return v
}

func (c *cursor) readU32() uint32 {
	v := binary.LittleEndian.Uint32(c.data[c.pos:])
	c.pos += 4
	return v
}

func (c *cursor) readI32At(pos int64) int64 {
	v := binary.LittleEndian.Uint32(c.data[pos:])
	return int64(int32(v))
}

func (c *cursor) skip(n int64) { c.pos += n }

// disassemble walks data once, identifying PC-relative branch targets,
// literal-pool loads, and data/code pointer words. dataOffset/dataBegin/
// dataEnd mark where in data the pointer-table region lives (its values
// compared against [dataBegin,dataEnd) / [codeBegin,codeEnd)); a zero
// dataEnd disables the data-pointer scan entirely, matching
// original_source's from_data_end==0 "no data region" convention.
func disassemble(data []byte, dataOffset, dataBegin, dataEnd, codeBegin, codeEnd int64) annotations {
	a := annotations{
		bw:           map[int64]int64{},
		bl:           map[int64]int64{},
		ldr:          map[int64]int64{},
		ldrW:         map[int64]int64{},
		dataPointers: map[int64]int64{},
		codePointers: map[int64]int64{},
	}

	length := int64(len(data))
	dataOffsetEnd := dataOffset + dataEnd - dataBegin
	c := &cursor{data: data}

	for c.tell() < length {
		address := c.tell()

		switch {
		case dataOffset <= address && address < dataOffsetEnd:
			value := int64(c.readU32())
			if dataBegin <= value && value < dataEnd {
				a.dataPointers[address] = value
			} else if codeBegin <= value && value < codeEnd {
				a.codePointers[address] = value
			}
		case isLiteralPoolSlot(a.ldr, a.ldrW, address):
			c.skip(4)
		default:
			upper := c.readU16()
			switch {
			case upper&0xf800 == 0xf000:
				lower := c.readU16()
				if lower&0xd000 == 0xd000 {
					a.bl[address] = unpackBL(upper, lower)
				} else if lower&0xc000 == 0x8000 {
					a.bw[address] = unpackBW(upper, lower)
				}
			case upper&0xf800 == 0x4800:
				imm8 := 4*int64(upper&0xff) + 4
				disassembleLiteralLoad(c, address, a.ldr, imm8)
			case upper == 0xf8df:
				lower := c.readU16()
				imm12 := int64(lower&0xfff) + 4
				disassembleLiteralLoad(c, address, a.ldrW, imm12)
			case upper&0xfff0 == 0xfbb0, upper&0xfff0 == 0xfb90,
				upper&0xfff0 == 0xf8d0, upper&0xfff0 == 0xf850,
				upper&0xffe0 == 0xfa00, upper&0xffc0 == 0xe900:
				c.skip(2)
			}
		}
	}

	return a
}

func isLiteralPoolSlot(ldr, ldrW map[int64]int64, address int64) bool {
	if _, ok := ldr[address]; ok {
		return true
	}
	_, ok := ldrW[address]
	return ok
}

// disassembleLiteralLoad snaps address to a word boundary, follows the
// PC-relative immediate to the literal pool slot, records the 32-bit value
// stored there, and restores the cursor.
func disassembleLiteralLoad(c *cursor, address int64, target map[int64]int64, imm int64) {
	if address%4 == 2 {
		address -= 2
	}

	litAddr := address + imm
	pos := c.tell()
	target[litAddr] = c.readI32At(litAddr)
	c.seek(pos)
}

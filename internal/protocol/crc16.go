package protocol

// crcPoly is the bit-reflected CRC-16/KERMIT polynomial.
const crcPoly uint16 = 0x8408

func crcUpdate(crc uint16, b byte) uint16 {
	crc ^= uint16(b)
	for i := 0; i < 8; i++ {
		if crc&1 != 0 {
			crc = (crc >> 1) ^ crcPoly
		} else {
			crc >>= 1
		}
	}
	return crc
}

// Checksum computes CRC-16/KERMIT (init 0x0000, reflected, no final xor)
// over each byte slice in order.
func Checksum(parts ...[]byte) uint16 {
	var crc uint16
	for _, p := range parts {
		for _, b := range p {
			crc = crcUpdate(crc, b)
		}
	}
	return crc
}

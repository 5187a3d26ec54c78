package protocol

import "testing"

func TestCRC16Empty(t *testing.T) {
	if crc := CRC16(nil); crc != 0xFFFF {
		t.Errorf("CRC16 of nothing should be the seed 0xFFFF, got 0x%04X", crc)
	}
}

func TestCRC16CheckValue(t *testing.T) {
	// CRC-16/MCRF4XX check value
	if crc := CRC16([]byte("123456789")); crc != 0x6F91 {
		t.Errorf("CRC16(\"123456789\") = 0x%04X, want 0x6F91", crc)
	}
}

func TestCRC16DetectsBitFlip(t *testing.T) {
	data := []byte{0x08, MessageDest, 0x02, 0x01, 0x05}
	crc := CRC16(data)

	for i := range data {
		for bit := 0; bit < 8; bit++ {
			flipped := append([]byte(nil), data...)
			flipped[i] ^= 1 << bit
			if CRC16(flipped) == crc {
				t.Errorf("Flip of byte %d bit %d not detected", i, bit)
			}
		}
	}
}

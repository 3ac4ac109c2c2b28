package decryptor

// qmc1SeedMap drives the QMC1 static cipher: the mask for a byte at offset n
// is seedMap[n%8][n/8%7], with offsets above 0x7FFF wrapped.
var qmc1SeedMap = [8][7]byte{
	{0x4a, 0xd6, 0xca, 0x90, 0x67, 0xf7, 0x52},
	{0x5e, 0x95, 0x23, 0x9f, 0x13, 0x11, 0x7e},
	{0x47, 0x74, 0x3d, 0x90, 0xaa, 0x3f, 0x51},
	{0xc6, 0x09, 0xd5, 0x9f, 0xfa, 0x66, 0xf9},
	{0xf3, 0xd6, 0xa1, 0x90, 0xa0, 0xf7, 0xf0},
	{0x1d, 0x95, 0xde, 0x9f, 0x84, 0x11, 0xf4},
	{0x0e, 0x74, 0xbb, 0x90, 0xbc, 0x3f, 0x92},
	{0x00, 0x09, 0x5b, 0x9f, 0x62, 0x66, 0xa1},
}

func qmc1Mask(offset int) byte {
	if offset > 0x7FFF {
		offset %= 0x7FFF
	}
	return qmc1SeedMap[offset%8][offset/8%7]
}

// QMC1Decrypt XORs data in place with the QMC1 position-derived keystream.
// Applying it twice restores the input.
func QMC1Decrypt(data []byte) {
	for i := range data {
		data[i] ^= qmc1Mask(i)
	}
}

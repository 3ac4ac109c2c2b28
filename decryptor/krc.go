package decryptor

import "lrc-fetch-go/lyrics"

// krcKey is the 16-byte XOR key for KRC payloads, cycled by position.
var krcKey = []byte{'@', 'G', 'a', 'w', '^', '2', 't', 'G', 'Q', '6', '1', '-', 0xce, 0xd2, 'n', 'i'}

// KRCDecrypt strips the 4-byte magic header, reverses the XOR keystream and
// inflates the result.
func KRCDecrypt(encrypted []byte) (string, error) {
	if len(encrypted) < 4 {
		return "", lyrics.NewError(lyrics.KindDecrypt, "KRC decrypt failed: payload too short")
	}
	data := make([]byte, len(encrypted)-4)
	copy(data, encrypted[4:])
	KRCKeystream(data)

	inflated, err := inflate(data)
	if err != nil {
		return "", lyrics.WrapError(lyrics.KindDecrypt, "KRC decrypt failed", err)
	}
	return string(inflated), nil
}

// KRCKeystream XORs data in place with the cycled KRC key. The operation is
// its own inverse.
func KRCKeystream(data []byte) {
	for i := range data {
		data[i] ^= krcKey[i%len(krcKey)]
	}
}

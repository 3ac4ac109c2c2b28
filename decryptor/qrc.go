// Package decryptor implements the symmetric ciphers used by the lyric
// container formats: QRC (3DES-ECB + zlib), KRC (XOR keystream + zlib), the
// QMC1 local-file envelope and the NE EAPI envelope (AES-ECB).
package decryptor

import (
	"bytes"
	"compress/zlib"
	"crypto/des"
	"encoding/hex"
	"io"
	"strings"

	"lrc-fetch-go/lyrics"
)

// qrcKey is the fixed 3DES key for upstream QRC payloads.
var qrcKey = []byte("!@#)(*$%123ZXC!@!@#)(NHL")

// QRCDecryptHex decrypts a hex-encoded QRC payload as returned by the QM
// lyric API.
func QRCDecryptHex(encrypted string) (string, error) {
	if strings.TrimSpace(encrypted) == "" {
		return "", lyrics.NewError(lyrics.KindDecrypt, "no QRC data to decrypt")
	}
	raw, err := hex.DecodeString(strings.TrimSpace(encrypted))
	if err != nil {
		return "", lyrics.WrapError(lyrics.KindDecrypt, "QRC decrypt failed", err)
	}
	return QRCDecrypt(raw, false)
}

// QRCDecrypt decrypts a raw QRC payload. When local is true the payload is a
// "local QRC" file: the QMC1 keystream is stripped first along with its
// 11-byte envelope.
func QRCDecrypt(encrypted []byte, local bool) (string, error) {
	if len(encrypted) == 0 {
		return "", lyrics.NewError(lyrics.KindDecrypt, "no QRC data to decrypt")
	}
	data := make([]byte, len(encrypted))
	copy(data, encrypted)

	if local {
		QMC1Decrypt(data)
		if len(data) < 11 {
			return "", lyrics.NewError(lyrics.KindDecrypt, "QRC decrypt failed: truncated local payload")
		}
		data = data[11:]
	}

	block, err := des.NewTripleDESCipher(qrcKey)
	if err != nil {
		return "", lyrics.WrapError(lyrics.KindDecrypt, "QRC decrypt failed", err)
	}
	if len(data)%des.BlockSize != 0 {
		return "", lyrics.NewError(lyrics.KindDecrypt, "QRC decrypt failed: payload is not block aligned")
	}
	plain := make([]byte, len(data))
	for i := 0; i < len(data); i += des.BlockSize {
		block.Decrypt(plain[i:i+des.BlockSize], data[i:i+des.BlockSize])
	}

	inflated, err := inflate(plain)
	if err != nil {
		return "", lyrics.WrapError(lyrics.KindDecrypt, "QRC decrypt failed", err)
	}
	return string(inflated), nil
}

func inflate(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

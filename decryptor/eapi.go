package decryptor

import (
	"crypto/aes"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"lrc-fetch-go/lyrics"
)

// eapiKey is the fixed AES-128 key of NE's EAPI envelope.
var eapiKey = []byte("e82ckenh8dichen8")

const eapiSep = "-36cd479b6b5-"

// EAPIParamsEncrypt packs an eapi request body: the path (in its /api/ form)
// and the params JSON are joined with a path-derived MD5 tag, AES-ECB
// encrypted and emitted as a form body "params=<HEX>".
func EAPIParamsEncrypt(path string, paramsJSON []byte) []byte {
	apiPath := strings.Replace(path, "eapi", "api", 1)
	digest := md5.Sum([]byte("nobody" + apiPath + "use" + string(paramsJSON) + "md5forencrypt"))
	text := apiPath + eapiSep + string(paramsJSON) + eapiSep + hex.EncodeToString(digest[:])

	encrypted := aesECBEncrypt([]byte(text))
	return []byte("params=" + strings.ToUpper(hex.EncodeToString(encrypted)))
}

// EAPIResponseDecrypt decrypts an encrypted (e_r) eapi response body.
func EAPIResponseDecrypt(body []byte) ([]byte, error) {
	if len(body) == 0 || len(body)%aes.BlockSize != 0 {
		return nil, lyrics.NewError(lyrics.KindDecrypt, "EAPI decrypt failed: bad ciphertext length")
	}
	block, err := aes.NewCipher(eapiKey)
	if err != nil {
		return nil, lyrics.WrapError(lyrics.KindDecrypt, "EAPI decrypt failed", err)
	}
	plain := make([]byte, len(body))
	for i := 0; i < len(body); i += aes.BlockSize {
		block.Decrypt(plain[i:i+aes.BlockSize], body[i:i+aes.BlockSize])
	}
	unpadded, err := pkcs7Unpad(plain)
	if err != nil {
		return nil, lyrics.WrapError(lyrics.KindDecrypt, "EAPI decrypt failed", err)
	}
	return unpadded, nil
}

func aesECBEncrypt(plain []byte) []byte {
	block, _ := aes.NewCipher(eapiKey)
	padded := pkcs7Pad(plain, aes.BlockSize)
	out := make([]byte, len(padded))
	for i := 0; i < len(padded); i += aes.BlockSize {
		block.Encrypt(out[i:i+aes.BlockSize], padded[i:i+aes.BlockSize])
	}
	return out
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	pad := blockSize - len(data)%blockSize
	out := make([]byte, len(data)+pad)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(pad)
	}
	return out
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty plaintext")
	}
	pad := int(data[len(data)-1])
	if pad == 0 || pad > aes.BlockSize || pad > len(data) {
		return nil, fmt.Errorf("invalid padding")
	}
	for _, b := range data[len(data)-pad:] {
		if int(b) != pad {
			return nil, fmt.Errorf("invalid padding")
		}
	}
	return data[:len(data)-pad], nil
}

// idXorKey scrambles device ids for the anonymous-register username.
var idXorKey = []byte("3go8&$8*3*3h0k(2)2")

// AnonymousUsername derives the deterministic synthetic username NE expects
// during anonymous registration for the given device id.
func AnonymousUsername(deviceID string) string {
	xored := make([]byte, len(deviceID))
	for i := 0; i < len(deviceID); i++ {
		xored[i] = deviceID[i] ^ idXorKey[i%len(idXorKey)]
	}
	digest := md5.Sum(xored)
	encoded := base64.StdEncoding.EncodeToString(digest[:])
	return base64.StdEncoding.EncodeToString([]byte(deviceID + " " + encoded))
}

package authenticode

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"testing"

	"github.com/alecthomas/assert"
)

func marshalIndirectDataContent(t *testing.T, digest []byte, algo asn1.ObjectIdentifier) []byte {
	content := spcIndirectDataContent{
		Data: spcAttributeTypeAndOptionalValue{
			Type: OIDSpcIndirectDataContent,
		},
		MessageDigest: digestInfo{
			DigestAlgorithm: pkix.AlgorithmIdentifier{Algorithm: algo},
			Digest:          digest,
		},
	}
	out, err := asn1.Marshal(content)
	assert.NoError(t, err)
	return out
}

func TestParseIndirectDataContentRoundTrip(t *testing.T) {
	digest := []byte{0x01, 0x02, 0x03, 0x04}
	raw := marshalIndirectDataContent(t, digest, oidDigestSHA256)

	parsed, err := parseIndirectDataContent(raw)
	assert.NoError(t, err)

	info := newContentInfo(parsed)
	assert.Equal(t, "01020304", bytesToHex(digest))
	assert.Equal(t, bytesToHex(digest), info.Digest)
	assert.True(t, info.DigestAlgorithm.Equal(oidDigestSHA256))
	assert.True(t, info.ContentType.Equal(OIDSpcIndirectDataContent))
}

func TestDecodeSpcStringASCII(t *testing.T) {
	inner, err := asn1.Marshal(asn1.RawValue{Tag: 1, Class: asn1.ClassContextSpecific, Bytes: []byte("hello")})
	assert.NoError(t, err)
	outer := asn1.RawValue{Bytes: inner}

	assert.Equal(t, "hello", decodeSpcString(outer))
}

func TestDecodeSpcStringUnicode(t *testing.T) {
	// "hi" as big-endian UTF-16: each ASCII codepoint padded with a
	// leading 0x00 byte.
	utf16be := []byte{0x00, 'h', 0x00, 'i'}
	inner, err := asn1.Marshal(asn1.RawValue{Tag: 0, Class: asn1.ClassContextSpecific, Bytes: utf16be})
	assert.NoError(t, err)
	outer := asn1.RawValue{Bytes: inner}

	assert.Equal(t, "hi", decodeSpcString(outer))
}

// explicitWrap builds the DER bytes of an EXPLICIT [tag] wrapper around
// an inner TLV, by hand, so this test does not depend on encoding/asn1's
// Marshal supporting "explicit,tag:N" on a RawValue field symmetrically
// with its Unmarshal support (which content.go's decodeSpcString relies
// on, and which this test exercises via the Unmarshal direction only).
func explicitWrap(t *testing.T, tag int, innerTLV []byte) []byte {
	wrapped, err := asn1.Marshal(asn1.RawValue{
		Class:      asn1.ClassContextSpecific,
		Tag:        tag,
		IsCompound: true,
		Bytes:      innerTLV,
	})
	assert.NoError(t, err)
	return wrapped
}

func ia5ChoiceTLV(t *testing.T, s string) []byte {
	tlv, err := asn1.Marshal(asn1.RawValue{Class: asn1.ClassContextSpecific, Tag: 1, Bytes: []byte(s)})
	assert.NoError(t, err)
	return tlv
}

func TestParseSpcSpOpusInfo(t *testing.T) {
	programName := explicitWrap(t, 0, ia5ChoiceTLV(t, "My Program"))
	moreInfo := explicitWrap(t, 1, ia5ChoiceTLV(t, "https://example.com"))

	seqContent := append(append([]byte{}, programName...), moreInfo...)
	encoded, err := asn1.Marshal(asn1.RawValue{
		Class:      asn1.ClassUniversal,
		Tag:        asn1.TagSequence,
		IsCompound: true,
		Bytes:      seqContent,
	})
	assert.NoError(t, err)

	opus, err := parseSpcSpOpusInfo(encoded)
	assert.NoError(t, err)
	assert.Equal(t, "My Program", opus.ProgramName)
	assert.Equal(t, "https://example.com", opus.MoreInfo)
}

package authenticode

import (
	"crypto/x509/pkix"
	"encoding/asn1"

	"golang.org/x/text/encoding/unicode"
)

// ASN.1 shapes for the Authenticode-specific SpcIndirectDataContent,
// adapted from the teacher's pkcs7.go (SpcIndirectDataContent,
// SpcAttributeTypeAndOptionalValue, DigestInfo) which in turn follows
// Microsoft's "Windows Authenticode Portable Executable Signature
// Format".

type spcString struct {
	Unicode []byte `asn1:"tag:0"`
}

type spcPeImageData struct {
	Flags asn1.BitString
	File  asn1.RawValue
}

type spcAttributeTypeAndOptionalValue struct {
	Type  asn1.ObjectIdentifier
	Value spcPeImageData `asn1:"tag:2,optional"`
}

type digestInfo struct {
	DigestAlgorithm pkix.AlgorithmIdentifier
	Digest          []byte
}

type spcIndirectDataContent struct {
	Data          spcAttributeTypeAndOptionalValue
	MessageDigest digestInfo
}

// ContentInfo is the signed-content record of spec.md §3: the PE image
// digest the signer committed to, and the algorithm/content type it was
// computed under.
type ContentInfo struct {
	ContentType     asn1.ObjectIdentifier
	Digest          string
	DigestAlgorithm asn1.ObjectIdentifier
}

func parseIndirectDataContent(content []byte) (*spcIndirectDataContent, error) {
	var indirectData spcIndirectDataContent
	_, err := asn1.Unmarshal(content, &indirectData)
	if err != nil {
		return nil, err
	}
	return &indirectData, nil
}

func newContentInfo(indirectData *spcIndirectDataContent) ContentInfo {
	return ContentInfo{
		ContentType:     indirectData.Data.Type,
		Digest:          bytesToHex(indirectData.MessageDigest.Digest),
		DigestAlgorithm: indirectData.MessageDigest.DigestAlgorithm.Algorithm,
	}
}

// spcSpOpusInfoRaw mirrors the raw, choice-typed ASN.1 shape; ProgramName
// and MoreInfo are each a CHOICE of unicode/ascii SpcString that must be
// decoded by hand, exactly as the teacher's decodeSpcString does.
type spcSpOpusInfoRaw struct {
	ProgramName asn1.RawValue `asn1:"explicit,optional,tag:0"`
	MoreInfo    asn1.RawValue `asn1:"explicit,optional,tag:1"`
}

// SpcSpOpusInfo carries the optional "program name" and "more info" URL
// an Authenticode signer may attach to their SignerInfo.
type SpcSpOpusInfo struct {
	ProgramName string
	MoreInfo    string
}

func parseSpcSpOpusInfo(value []byte) (*SpcSpOpusInfo, error) {
	var raw spcSpOpusInfoRaw
	if _, err := asn1.Unmarshal(value, &raw); err != nil {
		return nil, err
	}
	return &SpcSpOpusInfo{
		ProgramName: decodeSpcString(raw.ProgramName),
		MoreInfo:    decodeSpcString(raw.MoreInfo),
	}, nil
}

func decodeSpcString(value asn1.RawValue) string {
	var result asn1.RawValue
	if _, err := asn1.Unmarshal(value.Bytes, &result); err != nil {
		return ""
	}

	// SpcString ::= CHOICE { unicode [0] BMPSTRING, ascii [1] IA5STRING }
	// Encoders are not always consistent about which arm they pick, so —
	// exactly as the teacher does — guess from the byte pattern: a
	// UTF-16BE string with only ASCII codepoints has a 0x00 high byte on
	// every other octet.
	if len(result.Bytes) > 0 && len(result.Bytes)%2 == 0 && result.Bytes[0] == 0 {
		return utf16BEToString(result.Bytes)
	}
	return string(result.Bytes)
}

func utf16BEToString(in []byte) string {
	decoder := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	out, err := decoder.Bytes(in)
	if err != nil {
		return string(in)
	}
	return string(out)
}

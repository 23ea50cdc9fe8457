package authenticode

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"math/big"

	"github.com/Velocidex/pkcs7"
)

// SignerInfo is the per-signer record of spec.md §3: the serial/issuer
// identifying the signer, the digest the signer's authenticated
// attributes commit to, and the recursive collections of nested
// Authenticode signatures and counter-signatures found in its
// unauthenticated attributes.
type SignerInfo struct {
	Version                int
	Serial                 string
	Issuer                 string
	ContentType            asn1.ObjectIdentifier
	MessageDigest          string
	SigningTime            string
	SpcOpusInfo            *SpcSpOpusInfo
	DigestAlgorithm        asn1.ObjectIdentifier
	DigestEncryptAlgorithm asn1.ObjectIdentifier
	EncryptDigest          []byte

	NestedSignatures    []*Pkcs7Signature
	CounterSignatures   []*Pkcs9CounterSignature
	MsCounterSignatures []*MsCounterSignature

	signerCert *X509Certificate
}

// SignerCert returns the resolved signer certificate, or (zero, false)
// if it could not be uniquely resolved (SIGNER_NOT_FOUND was recorded).
func (s *SignerInfo) SignerCert() (X509Certificate, bool) {
	if s == nil || s.signerCert == nil {
		return X509Certificate{}, false
	}
	return *s.signerCert, true
}

// x500NameFromRawRDN decodes the FullBytes of an ASN.1 Name (a
// SEQUENCE OF RelativeDistinguishedName) into the RFC 2253 canonical
// string, via the same pkix.Name.String() stdlib path certificate.go
// uses for rawSubject/rawIssuer.
func x500NameFromRawRDN(fullBytes []byte) string {
	var rdn pkix.RDNSequence
	if _, err := asn1.Unmarshal(fullBytes, &rdn); err != nil {
		return unknown
	}
	var name pkix.Name
	name.FillFromRDNSequence(&rdn)
	return name.String()
}

// resolveCertByIssuerSerial implements the (issuer, serial) matching
// rule shared by SignerInfo, Pkcs9CounterSignature, and
// MsCounterSignature: the signer certificate is the unique pool element
// whose issuer DN and serial equal the given pair.
func resolveCertByIssuerSerial(pool []X509Certificate, issuerRaw []byte, serial *big.Int) (X509Certificate, bool) {
	issuer := x500NameFromRawRDN(issuerRaw)

	var match X509Certificate
	matches := 0
	for _, cert := range pool {
		if cert.cert == nil || cert.cert.SerialNumber == nil || serial == nil {
			continue
		}
		if cert.cert.SerialNumber.Cmp(serial) != 0 {
			continue
		}
		if cert.RawIssuer() != issuer {
			continue
		}
		match = cert
		matches++
	}
	if matches == 1 {
		return match, true
	}
	return X509Certificate{}, false
}

// buildSignerInfo implements spec.md §4.6 step 5: it parses the
// top-level SignerInfo, resolves its certificate, walks its
// authenticated attributes (contentType, messageDigest, SpcSpOpusInfo,
// signingTime),
// and dispatches its unauthenticated attributes into nested signatures,
// PKCS#9 counter-signatures, and MS RFC 3161 timestamps.
func buildSignerInfo(raw pkcs7.SignerInfo, pool []X509Certificate, depth int, log *warningLog) *SignerInfo {
	info := &SignerInfo{
		Version:                raw.Version,
		Serial:                 bytesToHex(raw.IssuerAndSerialNumber.SerialNumber.Bytes()),
		Issuer:                 x500NameFromRawRDN(raw.IssuerAndSerialNumber.IssuerName.FullBytes),
		DigestAlgorithm:        raw.DigestAlgorithm.Algorithm,
		DigestEncryptAlgorithm: raw.DigestEncryptionAlgorithm.Algorithm,
		EncryptDigest:          raw.EncryptedDigest,
	}

	if cert, ok := resolveCertByIssuerSerial(pool, raw.IssuerAndSerialNumber.IssuerName.FullBytes,
		raw.IssuerAndSerialNumber.SerialNumber); ok {
		info.signerCert = &cert
	} else {
		log.add(SignerNotFound, "signer certificate not found for issuer %q serial %s",
			info.Issuer, info.Serial)
	}

	for _, attr := range raw.AuthenticatedAttributes {
		switch {
		case attr.Type.Equal(OIDContentType):
			var oid asn1.ObjectIdentifier
			if _, err := asn1.Unmarshal(attr.Value.Bytes, &oid); err == nil {
				info.ContentType = oid
			}
		case attr.Type.Equal(OIDMessageDigest):
			var digest []byte
			if _, err := asn1.Unmarshal(attr.Value.Bytes, &digest); err == nil {
				info.MessageDigest = bytesToHex(digest)
			}
		case attr.Type.Equal(OIDSpcSpOpusInfo):
			if opus, err := parseSpcSpOpusInfo(attr.Value.Bytes); err == nil {
				info.SpcOpusInfo = opus
			}
		case attr.Type.Equal(OIDSigningTime):
			// Not part of a standard Authenticode outer signer (this
			// attribute is documented for counter-signatures), but some
			// signers carry it anyway; surface it if present rather
			// than silently dropping it.
			if ts, err := parseDateTimeFromAttribute(attr.Value.Bytes); err == nil {
				info.SigningTime = ts
			} else {
				log.add(MalformedTime, "signer signingTime: %v", err)
			}
		}
	}

	for _, attr := range raw.UnauthenticatedAttributes {
		switch {
		case attr.Type.Equal(OIDCounterSignature):
			if cs := buildPkcs9CounterSignature(attr.Value.Bytes, pool, depth+1, log); cs != nil {
				info.CounterSignatures = append(info.CounterSignatures, cs)
			}
		case attr.Type.Equal(OIDMsCounterSignature):
			// The attribute value is the DER of the RFC 3161 timestamp
			// token's own PKCS#7 ContentInfo SEQUENCE, not an OCTET
			// STRING wrapping it — feed it to the envelope parser as is.
			if ts := buildMsCounterSignature(attr.Value.Bytes, log); ts != nil {
				info.MsCounterSignatures = append(info.MsCounterSignatures, ts)
			}
		case attr.Type.Equal(OIDNestedSignature):
			// Same here: the nested signature is a PKCS#7 ContentInfo
			// SEQUENCE, not an OCTET STRING.
			if depth+1 > maxNestingDepth {
				log.add(MaxDepthExceeded, "nested signature depth exceeded")
				continue
			}
			info.NestedSignatures = append(info.NestedSignatures, parseSignatureAtDepth(attr.Value.Bytes, depth+1))
		}
	}

	return info
}

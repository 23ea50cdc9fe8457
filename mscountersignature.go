package authenticode

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"math/big"

	"github.com/Velocidex/pkcs7"
)

// tstInfo is RFC 3161 §2.4.2's TSTInfo, the content type carried inside
// a Microsoft RFC 3161 timestamp token's PKCS#7 envelope. GenTime is kept
// as a raw ASN.1 value so it goes through the same parseDateTime path
// (and the same RFC 5280 normalization) as every other Authenticode
// timestamp, rather than relying on encoding/asn1's own GeneralizedTime
// handling.
type tstInfo struct {
	Version        int
	Policy         asn1.ObjectIdentifier
	MessageImprint messageImprint
	SerialNumber   *big.Int
	GenTime        asn1.RawValue
	Accuracy       asn1.RawValue `asn1:"optional"`
	Ordering       bool          `asn1:"optional"`
	Nonce          *big.Int      `asn1:"optional"`
	Tsa            asn1.RawValue `asn1:"optional,tag:0"`
	Extensions     asn1.RawValue `asn1:"optional,tag:1"`
}

type messageImprint struct {
	HashAlgorithm pkix.AlgorithmIdentifier
	HashedMessage []byte
}

// MsCounterSignature is a Microsoft RFC 3161 timestamp: a nested PKCS#7
// envelope whose content is a TSTInfo imprinting the outer signer's
// encryptedDigest. Per spec.md §4.5 this envelope is never treated as a
// nested Authenticode signature — it is a leaf in its own right — but
// its certificates are still folded into the enclosing signature's
// certificate pool since they often include the TSA's otherwise-absent
// root.
type MsCounterSignature struct {
	ImprintDigestAlgorithm asn1.ObjectIdentifier
	ImprintDigest          []byte
	SigningTime            string
	Certificates           []X509Certificate

	signerCert *X509Certificate
}

// SignerCert returns the resolved TSA signer certificate.
func (m *MsCounterSignature) SignerCert() (X509Certificate, bool) {
	if m == nil || m.signerCert == nil {
		return X509Certificate{}, false
	}
	return *m.signerCert, true
}

// buildMsCounterSignature implements spec.md §4.5: parse raw as a
// PKCS#7 SignedData whose content is a TSTInfo, extract the message
// imprint and genTime, fold in the TSP envelope's own certificates, and
// resolve the TSA signer by (issuer, serial) over them.
func buildMsCounterSignature(raw []byte, log *warningLog) *MsCounterSignature {
	envelope, err := pkcs7.Parse(raw)
	if err != nil {
		log.add(MalformedTimestamp, "malformed RFC 3161 timestamp envelope: %v", err)
		return nil
	}

	pool := make([]X509Certificate, 0, len(envelope.Certificates))
	for _, cert := range envelope.Certificates {
		pool = append(pool, newX509Certificate(cert))
	}

	var info tstInfo
	if _, err := asn1.Unmarshal(envelope.SignedData.ContentInfo.Content.Bytes, &info); err != nil {
		log.add(MalformedTimestamp, "malformed TSTInfo: %v", err)
		return nil
	}

	ts := &MsCounterSignature{
		ImprintDigestAlgorithm: info.MessageImprint.HashAlgorithm.Algorithm,
		ImprintDigest:          info.MessageImprint.HashedMessage,
		Certificates:           pool,
	}

	if signingTime, err := parseDateTime(info.GenTime); err == nil {
		ts.SigningTime = signingTime
	} else {
		log.add(MalformedTime, "TSTInfo genTime: %v", err)
	}

	if len(envelope.Signers) == 1 {
		signer := envelope.Signers[0]
		if cert, ok := resolveCertByIssuerSerial(pool, signer.IssuerAndSerialNumber.IssuerName.FullBytes,
			signer.IssuerAndSerialNumber.SerialNumber); ok {
			ts.signerCert = &cert
		}
	}

	return ts
}

package authenticode

import (
	"encoding/asn1"

	"github.com/Velocidex/pkcs7"
)

// Pkcs9CounterSignature is an RFC 2985 counter-signature: a SignerInfo
// carried as an unauthenticated attribute of its parent, whose signature
// covers the parent's encryptedDigest rather than any ContentInfo. Per
// RFC 2985 note 2, a counter-signature can itself carry a
// counter-signature, hence the recursive CounterSignatures field.
type Pkcs9CounterSignature struct {
	SigningTime       string
	Digest            string
	CounterSignatures []*Pkcs9CounterSignature

	signerCert *X509Certificate
}

// SignerCert returns the resolved counter-signer certificate.
func (c *Pkcs9CounterSignature) SignerCert() (X509Certificate, bool) {
	if c == nil || c.signerCert == nil {
		return X509Certificate{}, false
	}
	return *c.signerCert, true
}

// buildPkcs9CounterSignature implements spec.md §4.4: parse raw as a
// SignerInfo, resolve its signer by (issuer, serial) over pool, then
// dispatch its own authenticated attributes (signingTime, messageDigest,
// nested counterSignature) by OID.
//
// Unlike buildSignerInfo, failure to resolve the signer aborts
// construction of this counter-signature only — it is dropped and
// recorded as a COUNTERSIG_SIGNER_NOT_FOUND warning on the enclosing
// object, per spec.md §4.4 and §7 (exceptions in the original become a
// recoverable warning here, never a process-terminating failure).
func buildPkcs9CounterSignature(raw []byte, pool []X509Certificate, depth int, log *warningLog) *Pkcs9CounterSignature {
	if depth > maxNestingDepth {
		log.add(MaxDepthExceeded, "counter-signature depth exceeded")
		return nil
	}

	var signerInfo pkcs7.SignerInfo
	if _, err := asn1.Unmarshal(raw, &signerInfo); err != nil {
		log.add(CounterSigSignerNotFound, "malformed PKCS#9 counter-signature: %v", err)
		return nil
	}

	cert, ok := resolveCertByIssuerSerial(pool, signerInfo.IssuerAndSerialNumber.IssuerName.FullBytes,
		signerInfo.IssuerAndSerialNumber.SerialNumber)
	if !ok {
		log.add(CounterSigSignerNotFound, "counter-signature signer certificate not found")
		return nil
	}

	counterSig := &Pkcs9CounterSignature{signerCert: &cert}

	for _, attr := range signerInfo.AuthenticatedAttributes {
		switch {
		case attr.Type.Equal(OIDCounterSignature):
			if nested := buildPkcs9CounterSignature(attr.Value.Bytes, pool, depth+1, log); nested != nil {
				counterSig.CounterSignatures = append(counterSig.CounterSignatures, nested)
			}
		case attr.Type.Equal(OIDContentType):
			// ignored, per spec.md §4.4
		case attr.Type.Equal(OIDSigningTime):
			if ts, err := parseDateTimeFromAttribute(attr.Value.Bytes); err == nil {
				counterSig.SigningTime = ts
			} else {
				log.add(MalformedTime, "counter-signature signingTime: %v", err)
			}
		case attr.Type.Equal(OIDMessageDigest):
			var digest []byte
			if _, err := asn1.Unmarshal(attr.Value.Bytes, &digest); err == nil {
				counterSig.Digest = bytesToHex(digest)
			}
		}
	}

	return counterSig
}

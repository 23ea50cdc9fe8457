package authenticode

import (
	"encoding/asn1"

	"github.com/Velocidex/pkcs7"
)

// maxNestingDepth bounds recursion through nested Authenticode signatures
// and PKCS#9 counter-signature chains, per spec.md §4.6: pathological
// input must not be able to exhaust the stack.
const maxNestingDepth = 16

// Pkcs7Signature is the root domain object of spec.md §3: it owns a
// parsed PKCS#7 envelope and exposes the Authenticode-specific content,
// signer, and certificate views derived from it. It is immutable once
// constructed (besides its append-only warnings log during
// construction), has no copy method, and is safe to share read-only
// across goroutines.
type Pkcs7Signature struct {
	Version                 uint64
	ContentInfo             *ContentInfo
	SignerInfo              *SignerInfo
	ContentDigestAlgorithms []asn1.ObjectIdentifier
	Certificates            []X509Certificate

	warnings []Warning
}

// ParseSignature constructs a Pkcs7Signature from the raw bytes of an
// Authenticode signature blob, i.e. the WIN_CERTIFICATE payload found at
// the PE file's IMAGE_DIRECTORY_ENTRY_SECURITY. Construction never fails
// in the sense of returning an error: every malformed or unexpected
// structure is absorbed into the returned object's warnings, per
// spec.md §7.
func ParseSignature(raw []byte) *Pkcs7Signature {
	return parseSignatureAtDepth(raw, 0)
}

// ParseSignatureFromPKCS7 builds a Pkcs7Signature from an envelope a
// caller has already parsed with github.com/Velocidex/pkcs7 — the shape
// www.velocidex.com/golang/go-pe's ParseAuthenticode hands back, since it
// parses the WIN_CERTIFICATE bytes itself and does not expose them raw.
func ParseSignatureFromPKCS7(envelope *pkcs7.PKCS7) *Pkcs7Signature {
	return buildFromEnvelope(envelope, 0)
}

func parseSignatureAtDepth(raw []byte, depth int) *Pkcs7Signature {
	if depth > maxNestingDepth {
		sig := &Pkcs7Signature{}
		sig.warnings = append(sig.warnings, newWarning(MaxDepthExceeded, "nested signature depth exceeded"))
		return sig
	}

	envelope, err := pkcs7.Parse(raw)
	if err != nil {
		sig := &Pkcs7Signature{}
		sig.warnings = append(sig.warnings, newWarning(MalformedEnvelope, "%v", err))
		DebugPrint("MALFORMED_ENVELOPE: %v\n", err)
		Debug(raw)
		return sig
	}

	return buildFromEnvelope(envelope, depth)
}

func buildFromEnvelope(envelope *pkcs7.PKCS7, depth int) *Pkcs7Signature {
	sig := &Pkcs7Signature{}
	log := &warningLog{}
	defer func() { sig.warnings = log.entries }()

	sig.Version = uint64(envelope.SignedData.Version)

	for _, algo := range envelope.SignedData.DigestAlgorithmIdentifiers {
		sig.ContentDigestAlgorithms = append(sig.ContentDigestAlgorithms, algo.Algorithm)
	}

	for _, cert := range envelope.Certificates {
		sig.Certificates = append(sig.Certificates, newX509Certificate(cert))
	}

	sig.parseContent(envelope, log)
	sig.parseSigner(envelope, depth, log)

	return sig
}

func (sig *Pkcs7Signature) parseContent(envelope *pkcs7.PKCS7, log *warningLog) {
	content := envelope.SignedData.ContentInfo
	if !content.ContentType.Equal(OIDSpcIndirectDataContent) {
		if len(content.Content.Bytes) > 0 {
			log.add(MalformedContent, "unsupported content type %v", content.ContentType)
		}
		return
	}

	indirectData, err := parseIndirectDataContent(content.Content.Bytes)
	if err != nil {
		log.add(MalformedContent, "%v", err)
		Debug(content.Content.Bytes)
		return
	}

	contentInfo := newContentInfo(indirectData)
	if size, ok := digestSize(contentInfo.DigestAlgorithm); ok {
		if len(contentInfo.Digest)/2 != size {
			log.add(MalformedContent, "messageDigest length does not match digest algorithm")
		}
	} else {
		log.add(UnsupportedDigest, "%v", contentInfo.DigestAlgorithm)
	}

	sig.ContentInfo = &contentInfo
}

func (sig *Pkcs7Signature) parseSigner(envelope *pkcs7.PKCS7, depth int, log *warningLog) {
	switch len(envelope.Signers) {
	case 0:
		return
	case 1:
		// exactly one signer, as expected.
	default:
		log.add(MultipleSigners, "envelope declares %d SignerInfo, expected 1", len(envelope.Signers))
	}

	sig.SignerInfo = buildSignerInfo(envelope.Signers[0], sig.Certificates, depth, log)

	if sig.SignerInfo == nil {
		return
	}
	if len(sig.ContentDigestAlgorithms) == 0 {
		return
	}
	for _, declared := range sig.ContentDigestAlgorithms {
		if declared.Equal(sig.SignerInfo.DigestAlgorithm) {
			return
		}
	}
	log.add(DigestAlgMismatch, "SignerInfo.digestAlgorithm does not match SignedData.digestAlgorithms")
}

// Verify performs spec.md §4.6's structural verification (presence of
// required fields, digest length matches algorithm, (issuer, serial)
// resolvable) and returns the resulting warnings as human-readable
// strings. It is purely structural, not cryptographic — verifying
// signatures and digests is the caller's responsibility, per spec.md
// §4.6 and the open question recorded in DESIGN.md. It reports only this
// object's own warnings; nested signatures surface their own warnings
// through their own DigitalSignature.Warnings once flattened by
// GetSignatures.
func (sig *Pkcs7Signature) Verify() []string {
	return (&warningLog{entries: sig.warnings}).Strings()
}

// Warnings returns the typed warning records collected during
// construction, for callers that want the WarningCode rather than the
// rendered string Verify() returns.
func (sig *Pkcs7Signature) Warnings() []Warning {
	return sig.warnings
}

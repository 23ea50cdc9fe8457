package authenticode

import (
	"bytes"
	"crypto/dsa"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"encoding/asn1"
	"encoding/pem"
)

const unknown = "unknown"

// Certificate is the flat, exportable record produced by
// X509Certificate.ToCertificate(). It is the Certificate entry spec.md
// §6.2 places inside DigitalSignature.certificates and
// signer/counterSigner chains.
type Certificate struct {
	Subject       Attributes
	Issuer        Attributes
	SubjectRaw    string
	IssuerRaw     string
	SerialNumber  string
	ValidSince    string
	ValidUntil    string
	PublicKey     string
	PublicKeyAlgo string
	SignatureAlgo string
	Sha1Digest    string
	Sha256Digest  string
}

// X509Certificate is a non-owning view over a certificate held by a
// parent Pkcs7Signature's parsed envelope. Every getter is total: missing
// or unrecognized data renders as "unknown" rather than an error, per
// spec.md §4.2.
type X509Certificate struct {
	cert *x509.Certificate
}

func newX509Certificate(cert *x509.Certificate) X509Certificate {
	return X509Certificate{cert: cert}
}

// Raw exposes the underlying stdlib certificate for callers (such as the
// CertificateProcessor) that need it for chain construction. It is still
// bound by the non-owning lifetime discipline of spec.md §3/§5.
func (x X509Certificate) Raw() *x509.Certificate {
	return x.cert
}

func (x X509Certificate) SerialNumber() string {
	if x.cert == nil || x.cert.SerialNumber == nil {
		return unknown
	}
	return bytesToHex(x.cert.SerialNumber.Bytes())
}

func (x X509Certificate) SignatureAlgorithm() string {
	if x.cert == nil {
		return unknown
	}
	oid, ok := oidForSignatureAlgorithm(x.cert.SignatureAlgorithm)
	if !ok {
		return unknown
	}
	return oid.String()
}

func (x X509Certificate) ValidSince() string {
	if x.cert == nil {
		return unknown
	}
	return x.cert.NotBefore.UTC().Format("2006-01-02T15:04:05Z")
}

func (x X509Certificate) ValidUntil() string {
	if x.cert == nil {
		return unknown
	}
	return x.cert.NotAfter.UTC().Format("2006-01-02T15:04:05Z")
}

func (x X509Certificate) Subject() Attributes {
	if x.cert == nil {
		return Attributes{}
	}
	return parseAttributes(x.cert.Subject)
}

func (x X509Certificate) Issuer() Attributes {
	if x.cert == nil {
		return Attributes{}
	}
	return parseAttributes(x.cert.Issuer)
}

// RawSubject and RawIssuer render the canonical RFC 2253 string for the
// name, via the stdlib pkix.Name.String() implementation — there is no
// pack library that specializes in RDN-to-string canonicalization, and
// Go's own implementation already satisfies spec.md's "RFC 2253 ordering"
// requirement, so reimplementing it would just be duplicated stdlib code
// (see DESIGN.md).
func (x X509Certificate) RawSubject() string {
	if x.cert == nil {
		return unknown
	}
	return x.cert.Subject.String()
}

func (x X509Certificate) RawIssuer() string {
	if x.cert == nil {
		return unknown
	}
	return x.cert.Issuer.String()
}

func (x X509Certificate) PublicKey() string {
	if x.cert == nil {
		return unknown
	}
	der, err := x509.MarshalPKIXPublicKey(x.cert.PublicKey)
	if err != nil {
		return unknown
	}
	var buf bytes.Buffer
	err = pem.Encode(&buf, &pem.Block{Type: "PUBLIC KEY", Bytes: der})
	if err != nil {
		return unknown
	}
	return buf.String()
}

func (x X509Certificate) PublicKeyAlgorithm() string {
	if x.cert == nil {
		return unknown
	}
	switch x.cert.PublicKey.(type) {
	case *rsa.PublicKey:
		return "rsaEncryption"
	case *ecdsa.PublicKey:
		return "id-ecPublicKey"
	case *dsa.PublicKey:
		return "dsaEncryption"
	case ed25519.PublicKey:
		return "id-Ed25519"
	}
	return unknown
}

func (x X509Certificate) Sha1() string {
	if x.cert == nil {
		return unknown
	}
	sum := sha1.Sum(x.cert.Raw)
	return bytesToHex(sum[:])
}

func (x X509Certificate) Sha256() string {
	if x.cert == nil {
		return unknown
	}
	sum := sha256.Sum256(x.cert.Raw)
	return bytesToHex(sum[:])
}

// Version returns 0, 1, or 2 for X.509 v1/v2/v3 respectively: stdlib
// reports the 1-indexed version it already normalized from the raw
// ASN.1 INTEGER, so we undo that normalization to match the ASN.1
// convention spec.md asks for.
func (x X509Certificate) Version() int {
	if x.cert == nil {
		return 0
	}
	v := x.cert.Version - 1
	if v < 0 {
		return 0
	}
	return v
}

// ToCertificate flattens the getters above, except Raw and Version, into
// a Certificate record suitable for export, mirroring X509Certificate::createCertificate in
// the original implementation.
func (x X509Certificate) ToCertificate() Certificate {
	return Certificate{
		Subject:       x.Subject(),
		Issuer:        x.Issuer(),
		SubjectRaw:    x.RawSubject(),
		IssuerRaw:     x.RawIssuer(),
		SerialNumber:  x.SerialNumber(),
		ValidSince:    x.ValidSince(),
		ValidUntil:    x.ValidUntil(),
		PublicKey:     x.PublicKey(),
		PublicKeyAlgo: x.PublicKeyAlgorithm(),
		SignatureAlgo: x.SignatureAlgorithm(),
		Sha1Digest:    x.Sha1(),
		Sha256Digest:  x.Sha256(),
	}
}

// oidForSignatureAlgorithm maps the small closed set of algorithms the
// Go x509 package recognizes back to their dotted OID, since
// x509.Certificate only retains the friendly enum, not the raw
// AlgorithmIdentifier. The table mirrors the one crypto/x509 itself keeps
// internally (unexported) for the reverse direction.
func oidForSignatureAlgorithm(sa x509.SignatureAlgorithm) (asn1.ObjectIdentifier, bool) {
	switch sa {
	case x509.MD2WithRSA:
		return asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 2}, true
	case x509.MD5WithRSA:
		return asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 4}, true
	case x509.SHA1WithRSA:
		return asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 5}, true
	case x509.SHA256WithRSA:
		return asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 11}, true
	case x509.SHA384WithRSA:
		return asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 12}, true
	case x509.SHA512WithRSA:
		return asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 13}, true
	case x509.SHA256WithRSAPSS:
		return asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 10}, true
	case x509.SHA384WithRSAPSS:
		return asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 10}, true
	case x509.SHA512WithRSAPSS:
		return asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 10}, true
	case x509.DSAWithSHA1:
		return asn1.ObjectIdentifier{1, 2, 840, 10040, 4, 3}, true
	case x509.DSAWithSHA256:
		return asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 2}, true
	case x509.ECDSAWithSHA1:
		return asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 1}, true
	case x509.ECDSAWithSHA256:
		return asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 2}, true
	case x509.ECDSAWithSHA384:
		return asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 3}, true
	case x509.ECDSAWithSHA512:
		return asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 4}, true
	case x509.PureEd25519:
		return asn1.ObjectIdentifier{1, 3, 101, 112}, true
	}
	return nil, false
}

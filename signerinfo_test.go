package authenticode

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"testing"

	"github.com/alecthomas/assert"
)

func TestResolveCertByIssuerSerialUniqueMatch(t *testing.T) {
	cert := selfSignedCert(t, "Resolvable", 13)
	view := newX509Certificate(cert)
	pool := []X509Certificate{view}

	var rdn pkix.RDNSequence
	_, err := asn1.Unmarshal(cert.RawIssuer, &rdn)
	assert.NoError(t, err)
	issuerRaw, err := asn1.Marshal(rdn)
	assert.NoError(t, err)

	got, ok := resolveCertByIssuerSerial(pool, issuerRaw, cert.SerialNumber)
	assert.True(t, ok)
	assert.Equal(t, view.Sha256(), got.Sha256())
}

func TestResolveCertByIssuerSerialNoMatch(t *testing.T) {
	cert := selfSignedCert(t, "Unresolvable", 14)
	other := selfSignedCert(t, "Other", 15)
	pool := []X509Certificate{newX509Certificate(other)}

	var rdn pkix.RDNSequence
	_, err := asn1.Unmarshal(cert.RawIssuer, &rdn)
	assert.NoError(t, err)
	issuerRaw, err := asn1.Marshal(rdn)
	assert.NoError(t, err)

	_, ok := resolveCertByIssuerSerial(pool, issuerRaw, cert.SerialNumber)
	assert.False(t, ok)
}

func TestResolveCertByIssuerSerialAmbiguousMatchFails(t *testing.T) {
	cert := selfSignedCert(t, "Dup", 16)
	view := newX509Certificate(cert)
	pool := []X509Certificate{view, view}

	var rdn pkix.RDNSequence
	_, err := asn1.Unmarshal(cert.RawIssuer, &rdn)
	assert.NoError(t, err)
	issuerRaw, err := asn1.Marshal(rdn)
	assert.NoError(t, err)

	_, ok := resolveCertByIssuerSerial(pool, issuerRaw, cert.SerialNumber)
	assert.False(t, ok)
}

func TestX500NameFromRawRDNOnMalformedBytes(t *testing.T) {
	assert.Equal(t, unknown, x500NameFromRawRDN([]byte("not asn1")))
}

func TestSignerInfoSignerCertOnNil(t *testing.T) {
	var info *SignerInfo
	_, ok := info.SignerCert()
	assert.False(t, ok)
}

package authenticode

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/alecthomas/assert"
)

// selfSignedCert mints a throwaway self-signed certificate for exercising
// X509Certificate's getters without any binary fixture on disk.
func selfSignedCert(t *testing.T, commonName string, serial int64) *x509.Certificate {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	assert.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(serial),
		Subject: pkix.Name{
			CommonName:   commonName,
			Organization: []string{"Test Org"},
			Country:      []string{"US"},
		},
		NotBefore:             time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		NotAfter:              time.Date(2033, 1, 1, 0, 0, 0, 0, time.UTC),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	template.Issuer = template.Subject

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	assert.NoError(t, err)

	cert, err := x509.ParseCertificate(der)
	assert.NoError(t, err)
	return cert
}

func TestX509CertificateGettersOnSelfSigned(t *testing.T) {
	cert := selfSignedCert(t, "Test Leaf", 42)
	view := newX509Certificate(cert)

	assert.Equal(t, "2A", view.SerialNumber())
	assert.Equal(t, "2023-01-01T00:00:00Z", view.ValidSince())
	assert.Equal(t, "2033-01-01T00:00:00Z", view.ValidUntil())
	assert.Equal(t, "Test Leaf", view.Subject().CommonName)
	assert.Equal(t, "Test Org", view.Subject().Organization)
	assert.Equal(t, "US", view.Subject().Country)
	assert.Equal(t, view.RawSubject(), view.RawIssuer())
	assert.Equal(t, 2, view.Version())
	assert.NotEqual(t, unknown, view.Sha1())
	assert.NotEqual(t, unknown, view.Sha256())
	assert.NotEqual(t, unknown, view.PublicKey())
	assert.Equal(t, "rsaEncryption", view.PublicKeyAlgorithm())
}

func TestX509CertificateGettersOnNilCert(t *testing.T) {
	var view X509Certificate
	assert.Equal(t, unknown, view.SerialNumber())
	assert.Equal(t, unknown, view.ValidSince())
	assert.Equal(t, unknown, view.RawSubject())
	assert.Equal(t, 0, view.Version())
	assert.Equal(t, Attributes{}, view.Subject())
}

func TestToCertificateFlattensAllGetters(t *testing.T) {
	cert := selfSignedCert(t, "Flatten Me", 7)
	flat := newX509Certificate(cert).ToCertificate()

	assert.Equal(t, "Flatten Me", flat.Subject.CommonName)
	assert.Equal(t, "07", flat.SerialNumber)
	assert.Equal(t, flat.SubjectRaw, flat.IssuerRaw)
}

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

type chainKeyPair struct {
	cert *x509.Certificate
	key  *rsa.PrivateKey
}

func mintChain(t *testing.T) (leaf, intermediate, root chainKeyPair) {
	root = mintCA(t, "Root CA", nil, nil, 1)
	intermediate = mintCA(t, "Intermediate CA", root.cert, root.key, 2)
	leaf = mintLeaf(t, "leaf.example.com", intermediate.cert, intermediate.key, 3)
	return
}

func mintCA(t *testing.T, cn string, issuer *x509.Certificate, issuerKey *rsa.PrivateKey, serial int64) chainKeyPair {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	assert.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(serial),
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		NotAfter:              time.Date(2033, 1, 1, 0, 0, 0, 0, time.UTC),
		KeyUsage:              x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	parent := template
	signerKey := key
	if issuer != nil {
		parent = issuer
		signerKey = issuerKey
	}

	der, err := x509.CreateCertificate(rand.Reader, template, parent, &key.PublicKey, signerKey)
	assert.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	assert.NoError(t, err)
	return chainKeyPair{cert: cert, key: key}
}

func mintLeaf(t *testing.T, cn string, issuer *x509.Certificate, issuerKey *rsa.PrivateKey, serial int64) chainKeyPair {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	assert.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(serial),
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		NotAfter:     time.Date(2033, 1, 1, 0, 0, 0, 0, time.UTC),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, issuer, &key.PublicKey, issuerKey)
	assert.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	assert.NoError(t, err)
	return chainKeyPair{cert: cert, key: key}
}

func TestGetChainWalksLeafToRoot(t *testing.T) {
	leaf, intermediate, root := mintChain(t)

	pool := []X509Certificate{
		newX509Certificate(leaf.cert),
		newX509Certificate(root.cert),
		newX509Certificate(intermediate.cert),
	}

	processor := NewCertificateProcessor(nil)
	signer := newX509Certificate(leaf.cert)
	chain := processor.GetChain(&signer, pool)

	assert.Equal(t, 3, len(chain))
	assert.Equal(t, leaf.cert.Subject.String(), chain[0].RawSubject())
	assert.Equal(t, intermediate.cert.Subject.String(), chain[1].RawSubject())
	assert.Equal(t, root.cert.Subject.String(), chain[2].RawSubject())
}

func TestGetChainStopsWhenIssuerMissing(t *testing.T) {
	leaf, intermediate, _ := mintChain(t)

	// Root withheld from the pool: the chain should stop at the
	// intermediate rather than error.
	pool := []X509Certificate{
		newX509Certificate(leaf.cert),
		newX509Certificate(intermediate.cert),
	}

	processor := NewCertificateProcessor(nil)
	signer := newX509Certificate(leaf.cert)
	chain := processor.GetChain(&signer, pool)

	assert.Equal(t, 2, len(chain))
}

func TestGetChainOnNilSignerReturnsNil(t *testing.T) {
	processor := NewCertificateProcessor(nil)
	assert.Equal(t, 0, len(processor.GetChain(nil, nil)))
}

func TestGetChainSingleSelfSignedStopsImmediately(t *testing.T) {
	cert := selfSignedCert(t, "Standalone", 99)
	processor := NewCertificateProcessor(nil)
	signer := newX509Certificate(cert)
	chain := processor.GetChain(&signer, []X509Certificate{signer})
	assert.Equal(t, 1, len(chain))
}

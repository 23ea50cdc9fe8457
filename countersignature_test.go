package authenticode

import (
	"testing"

	"github.com/alecthomas/assert"
)

func TestBuildPkcs9CounterSignatureOnMalformedBytes(t *testing.T) {
	log := &warningLog{}
	cs := buildPkcs9CounterSignature([]byte("not asn1"), nil, 0, log)

	assert.Equal(t, (*Pkcs9CounterSignature)(nil), cs)
	assert.Equal(t, 1, len(log.entries))
	assert.Equal(t, CounterSigSignerNotFound, log.entries[0].Code)
}

func TestBuildPkcs9CounterSignatureDepthExceeded(t *testing.T) {
	log := &warningLog{}
	cs := buildPkcs9CounterSignature([]byte{}, nil, maxNestingDepth+1, log)

	assert.Equal(t, (*Pkcs9CounterSignature)(nil), cs)
	assert.Equal(t, 1, len(log.entries))
	assert.Equal(t, MaxDepthExceeded, log.entries[0].Code)
}

func TestPkcs9CounterSignatureSignerCertOnNil(t *testing.T) {
	var cs *Pkcs9CounterSignature
	_, ok := cs.SignerCert()
	assert.False(t, ok)
}

package authenticode

import "crypto/x509"

// CertificateProcessor builds best-effort certificate chains over a pool
// of candidate certificates. It holds a per-instance trust store, which
// GetChain does not consult: chains are built from the pool alone. The
// store is empty by default — the core never populates it — matching spec.md
// §4.3's rationale: Authenticode signatures may or may not embed their
// full chain, and callers want the constructed chain for reporting
// independent of trust-anchor validation.
//
// Not safe for concurrent use; callers needing concurrent chain
// construction should use one processor per goroutine (spec.md §5).
type CertificateProcessor struct {
	trustStore *x509.CertPool
}

// NewCertificateProcessor returns a processor with the given trust store.
// A nil store is treated as empty, matching the spec's "empty by default"
// requirement.
func NewCertificateProcessor(trustStore *x509.CertPool) *CertificateProcessor {
	if trustStore == nil {
		trustStore = x509.NewCertPool()
	}
	return &CertificateProcessor{trustStore: trustStore}
}

// AddTrustAnchor lets a caller seed the trust store; the core itself
// never calls this.
func (p *CertificateProcessor) AddTrustAnchor(cert *x509.Certificate) {
	p.trustStore.AddCert(cert)
}

// GetChain returns the ordered chain leaf-first for signer, resolving
// each subsequent issuer from pool, terminating at a self-signed
// certificate or a node whose issuer cannot be found.
//
// crypto/x509.Certificate.Verify is unsuitable here by itself: with an
// empty trust store it fails outright and does not hand back the partial
// chain it built along the way (unlike OpenSSL's X509_STORE_CTX, which
// the original implementation reads via X509_STORE_CTX_get_chain even
// when verification fails). So the processor walks the chain manually —
// this is recorded as a resolved open question in DESIGN.md.
func (p *CertificateProcessor) GetChain(signer *X509Certificate, pool []X509Certificate) []X509Certificate {
	if signer == nil || signer.cert == nil {
		return nil
	}

	chain := []X509Certificate{*signer}
	seen := map[string]bool{signer.Sha256(): true}

	current := *signer
	for depth := 0; depth < len(pool)+1; depth++ {
		if current.RawIssuer() == current.RawSubject() {
			// Self-signed: this is the root of the chain.
			break
		}

		next, ok := p.findIssuer(current, pool)
		if !ok {
			break
		}
		if seen[next.Sha256()] {
			break
		}
		seen[next.Sha256()] = true
		chain = append(chain, next)
		current = next
	}

	return chain
}

// findIssuer looks for a certificate in pool whose subject matches
// current's issuer, preferring one whose signature verifiably chains to
// current over a merely name-matching candidate.
func (p *CertificateProcessor) findIssuer(current X509Certificate, pool []X509Certificate) (X509Certificate, bool) {
	var nameMatch X509Certificate
	found := false

	for _, candidate := range pool {
		if candidate.cert == nil || candidate.RawSubject() != current.RawIssuer() {
			continue
		}
		if !found {
			nameMatch = candidate
			found = true
		}
		if current.cert.CheckSignatureFrom(candidate.cert) == nil {
			return candidate, true
		}
	}
	return nameMatch, found
}

package authenticode

// DigitalSignature is the flattened, exportable form of spec.md §6.2: one
// record per Authenticode signature found in the input, including every
// nested signature as its own independent top-level record.
type DigitalSignature struct {
	SignedDigest    string
	DigestAlgorithm string
	// FileDigest is never set by the core; callers fill it in with the
	// PE file's own freshly computed image hash before comparing it
	// against SignedDigest, per spec.md §1/§6.2.
	FileDigest   string
	Signer       *Signer
	Certificates []Certificate
	Warnings     []string
}

// Signer is the resolved signer of a DigitalSignature: its certificate
// chain, optional signing time, and the counter-signatures (PKCS#9 or
// MS RFC 3161) attached to it.
type Signer struct {
	Chain          []Certificate
	SigningTime    *string
	CounterSigners []CounterSigner
}

// CounterSigner unifies PKCS#9 counter-signatures and MS RFC 3161
// timestamps: both are, structurally, a chain plus a signing time plus a
// digest computed over the outer signer's encryptedDigest.
type CounterSigner struct {
	Chain                []Certificate
	SigningTime          string
	Digest               string
	NestedCounterSigners []CounterSigner
}

// GetSignatures flattens the signature tree rooted at sig into the
// exported DigitalSignature form, depth-first with each parent appearing
// before its nested signatures, per spec.md §6.2/§8 invariant 4.
func (sig *Pkcs7Signature) GetSignatures(processor *CertificateProcessor) []DigitalSignature {
	if processor == nil {
		processor = NewCertificateProcessor(nil)
	}
	return sig.flatten(processor)
}

func (sig *Pkcs7Signature) flatten(processor *CertificateProcessor) []DigitalSignature {
	var out []DigitalSignature
	// A signature that never got past envelope parsing (MALFORMED_ENVELOPE)
	// or depth-limiting (MAX_DEPTH_EXCEEDED) has neither a content nor a
	// signer view; it carries only a warning and emits no record, per
	// spec.md §8 scenario S4.
	if sig.ContentInfo != nil || sig.SignerInfo != nil {
		out = append(out, sig.toDigitalSignature(processor))
	}

	if sig.SignerInfo != nil {
		for _, nested := range sig.SignerInfo.NestedSignatures {
			out = append(out, nested.flatten(processor)...)
		}
	}
	return out
}

func (sig *Pkcs7Signature) toDigitalSignature(processor *CertificateProcessor) DigitalSignature {
	ds := DigitalSignature{
		Warnings: (&warningLog{entries: sig.warnings}).Strings(),
	}

	if sig.ContentInfo != nil {
		ds.SignedDigest = sig.ContentInfo.Digest
		ds.DigestAlgorithm = digestShortName(sig.ContentInfo.DigestAlgorithm)
	} else if sig.SignerInfo != nil {
		ds.DigestAlgorithm = digestShortName(sig.SignerInfo.DigestAlgorithm)
	}

	pool := sig.mergedCertificatePool()
	ds.Certificates = dedupCertificates(pool)

	if sig.SignerInfo != nil {
		ds.Signer = sig.buildSigner(processor, pool)
	}

	return ds
}

// mergedCertificatePool is the union of this signature's own envelope
// certificates and the certificates carried by each MS RFC 3161 TSP
// envelope reachable from it — the "union of all certificates present in
// the PKCS#7 containers" spec.md §1 describes, scoped to this signature
// (nested Authenticode signatures keep their own pool, since they are
// independent top-level records per spec.md §6.2).
func (sig *Pkcs7Signature) mergedCertificatePool() []X509Certificate {
	pool := append([]X509Certificate{}, sig.Certificates...)
	if sig.SignerInfo == nil {
		return pool
	}
	for _, ts := range sig.SignerInfo.MsCounterSignatures {
		pool = append(pool, ts.Certificates...)
	}
	return pool
}

func (sig *Pkcs7Signature) buildSigner(processor *CertificateProcessor, pool []X509Certificate) *Signer {
	signer := &Signer{}

	if cert, ok := sig.SignerInfo.SignerCert(); ok {
		chain := processor.GetChain(&cert, pool)
		signer.Chain = toCertificates(chain)
	}
	if sig.SignerInfo.SigningTime != "" {
		signingTime := sig.SignerInfo.SigningTime
		signer.SigningTime = &signingTime
	}

	for _, cs := range sig.SignerInfo.CounterSignatures {
		signer.CounterSigners = append(signer.CounterSigners, buildPkcs9Export(cs, processor, pool))
	}
	for _, ts := range sig.SignerInfo.MsCounterSignatures {
		signer.CounterSigners = append(signer.CounterSigners, buildMsExport(ts, processor, pool))
	}

	return signer
}

func buildPkcs9Export(cs *Pkcs9CounterSignature, processor *CertificateProcessor, pool []X509Certificate) CounterSigner {
	export := CounterSigner{
		SigningTime: cs.SigningTime,
		Digest:      cs.Digest,
	}
	if cert, ok := cs.SignerCert(); ok {
		export.Chain = toCertificates(processor.GetChain(&cert, pool))
	}
	for _, nested := range cs.CounterSignatures {
		export.NestedCounterSigners = append(export.NestedCounterSigners, buildPkcs9Export(nested, processor, pool))
	}
	return export
}

func buildMsExport(ts *MsCounterSignature, processor *CertificateProcessor, pool []X509Certificate) CounterSigner {
	export := CounterSigner{
		SigningTime: ts.SigningTime,
		Digest:      bytesToHex(ts.ImprintDigest),
	}
	if cert, ok := ts.SignerCert(); ok {
		export.Chain = toCertificates(processor.GetChain(&cert, pool))
	}
	return export
}

func toCertificates(views []X509Certificate) []Certificate {
	out := make([]Certificate, 0, len(views))
	for _, v := range views {
		out = append(out, v.ToCertificate())
	}
	return out
}

// dedupCertificates deduplicates by SHA-256 fingerprint, first occurrence
// wins, per spec.md §6.2/§8 invariant 5.
func dedupCertificates(pool []X509Certificate) []Certificate {
	seen := make(map[string]bool, len(pool))
	out := make([]Certificate, 0, len(pool))
	for _, cert := range pool {
		fingerprint := cert.Sha256()
		if seen[fingerprint] {
			continue
		}
		seen[fingerprint] = true
		out = append(out, cert.ToCertificate())
	}
	return out
}

package main

import (
	"github.com/Velocidex/ordereddict"

	"www.velocidex.com/golang/authenticode"
)

// certificateToDict mirrors the teacher's X509ToOrderedDict: a flat
// Dict of every Certificate getter, for JSON emission.
func certificateToDict(cert authenticode.Certificate) *ordereddict.Dict {
	return ordereddict.NewDict().
		Set("Subject", cert.Subject).
		Set("Issuer", cert.Issuer).
		Set("SubjectRaw", cert.SubjectRaw).
		Set("IssuerRaw", cert.IssuerRaw).
		Set("SerialNumber", cert.SerialNumber).
		Set("ValidSince", cert.ValidSince).
		Set("ValidUntil", cert.ValidUntil).
		Set("PublicKey", cert.PublicKey).
		Set("PublicKeyAlgo", cert.PublicKeyAlgo).
		Set("SignatureAlgo", cert.SignatureAlgo).
		Set("Sha1Digest", cert.Sha1Digest).
		Set("Sha256Digest", cert.Sha256Digest)
}

func chainToDicts(chain []authenticode.Certificate) []*ordereddict.Dict {
	out := make([]*ordereddict.Dict, 0, len(chain))
	for _, cert := range chain {
		out = append(out, certificateToDict(cert))
	}
	return out
}

func counterSignerToDict(cs authenticode.CounterSigner) *ordereddict.Dict {
	nested := make([]*ordereddict.Dict, 0, len(cs.NestedCounterSigners))
	for _, n := range cs.NestedCounterSigners {
		nested = append(nested, counterSignerToDict(n))
	}
	return ordereddict.NewDict().
		Set("Chain", chainToDicts(cs.Chain)).
		Set("SigningTime", cs.SigningTime).
		Set("Digest", cs.Digest).
		Set("NestedCounterSigners", nested)
}

func signerToDict(signer *authenticode.Signer) *ordereddict.Dict {
	if signer == nil {
		return ordereddict.NewDict()
	}
	counterSigners := make([]*ordereddict.Dict, 0, len(signer.CounterSigners))
	for _, cs := range signer.CounterSigners {
		counterSigners = append(counterSigners, counterSignerToDict(cs))
	}

	dict := ordereddict.NewDict().
		Set("Chain", chainToDicts(signer.Chain)).
		Set("CounterSigners", counterSigners)
	if signer.SigningTime != nil {
		dict.Set("SigningTime", *signer.SigningTime)
	}
	return dict
}

// digitalSignatureToDict mirrors the teacher's PKCS7ToOrderedDict: the
// top-level Dict for one flattened DigitalSignature record.
func digitalSignatureToDict(ds authenticode.DigitalSignature) *ordereddict.Dict {
	return ordereddict.NewDict().
		Set("SignedDigest", ds.SignedDigest).
		Set("DigestAlgorithm", ds.DigestAlgorithm).
		Set("FileDigest", ds.FileDigest).
		Set("Signer", signerToDict(ds.Signer)).
		Set("Certificates", chainToDicts(ds.Certificates)).
		Set("Warnings", ds.Warnings)
}

func digitalSignaturesToDict(signatures []authenticode.DigitalSignature) *ordereddict.Dict {
	dicts := make([]*ordereddict.Dict, 0, len(signatures))
	for _, ds := range signatures {
		dicts = append(dicts, digitalSignatureToDict(ds))
	}
	return ordereddict.NewDict().Set("Signatures", dicts)
}

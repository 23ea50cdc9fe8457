// Command authenticode extracts the Authenticode signature embedded in a
// PE file's WIN_CERTIFICATE directory and prints its parsed structure —
// signer, certificate chains, counter-signatures, and any nested
// signatures — as JSON.
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	kingpin "gopkg.in/alecthomas/kingpin.v2"
	"www.velocidex.com/golang/binparsergen/reader"
	pe "www.velocidex.com/golang/go-pe"

	"www.velocidex.com/golang/authenticode"
)

var (
	app = kingpin.New("authenticode",
		"Extract and inspect Authenticode signatures from a PE file.")

	app_file = app.Arg("file", "PE file to inspect").Required().
			OpenFile(os.O_RDONLY, 0600)

	app_verify_hash = app.Flag("hash", "Also compute the file's own digest "+
		"and report it as FileDigest next to the signed digest").Bool()
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	paged, err := reader.NewPagedReader(*app_file, 4096, 100)
	kingpin.FatalIfError(err, "Can not open file %s: %v", (*app_file).Name(), err)

	pe_file, err := pe.NewPEFile(paged)
	kingpin.FatalIfError(err, "Can not parse PE file %s: %v", (*app_file).Name(), err)

	envelope, err := pe.ParseAuthenticode(pe_file)
	kingpin.FatalIfError(err, "No Authenticode signature found in %s: %v",
		(*app_file).Name(), err)

	sig := authenticode.ParseSignatureFromPKCS7(envelope)
	processor := authenticode.NewCertificateProcessor(nil)
	signatures := sig.GetSignatures(processor)

	if *app_verify_hash {
		digest := fileDigest(pe_file, signatures)
		for i := range signatures {
			signatures[i].FileDigest = digest
		}
	}

	dict := digitalSignaturesToDict(signatures)
	serialized, err := json.MarshalIndent(dict, "", "  ")
	kingpin.FatalIfError(err, "Can not marshal output: %v", err)
	fmt.Println(string(serialized))
}

// fileDigest recomputes the PE's own image hash under the algorithm the
// outermost signature declares when that is sha256 or md5, and under
// SHA-1 otherwise (sha384 and sha512 included), rendered as uppercase
// hex like DigitalSignature.SignedDigest.
func fileDigest(pe_file *pe.PEFile, signatures []authenticode.DigitalSignature) string {
	hashes := pe_file.CalcHash()
	algo := "sha1"
	if len(signatures) > 0 && signatures[0].DigestAlgorithm != "" {
		algo = signatures[0].DigestAlgorithm
	}

	var sum []byte
	switch algo {
	case "sha256":
		sum = hashes.SHA256.Sum(nil)
	case "md5":
		sum = hashes.MD5.Sum(nil)
	default:
		sum = hashes.SHA1.Sum(nil)
	}
	return strings.ToUpper(hex.EncodeToString(sum))
}

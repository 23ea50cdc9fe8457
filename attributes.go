package authenticode

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
)

// Attributes is the structured view over a certificate's subject or
// issuer distinguished name, restricted to the RDN types Authenticode
// tooling cares about. Other RDNs are ignored. If an attribute type
// appears more than once in the name, the last occurrence wins — this
// mirrors the original implementation's parseAttributes and is frozen
// behavior even though it reads as a surprising tie-break policy (see
// DESIGN.md open questions).
type Attributes struct {
	Country             string
	Organization        string
	OrganizationalUnit  string
	NameQualifier       string
	State               string
	CommonName          string
	SerialNumber        string
	Locality            string
	Title               string
	Surname             string
	GivenName           string
	Initials            string
	Pseudonym           string
	GenerationQualifier string
	EmailAddress        string
}

var (
	oidAttrCommonName          = asn1.ObjectIdentifier{2, 5, 4, 3}
	oidAttrSurname             = asn1.ObjectIdentifier{2, 5, 4, 4}
	oidAttrSerialNumber        = asn1.ObjectIdentifier{2, 5, 4, 5}
	oidAttrCountry             = asn1.ObjectIdentifier{2, 5, 4, 6}
	oidAttrLocality            = asn1.ObjectIdentifier{2, 5, 4, 7}
	oidAttrState               = asn1.ObjectIdentifier{2, 5, 4, 8}
	oidAttrOrganization        = asn1.ObjectIdentifier{2, 5, 4, 10}
	oidAttrOrganizationalUnit  = asn1.ObjectIdentifier{2, 5, 4, 11}
	oidAttrTitle               = asn1.ObjectIdentifier{2, 5, 4, 12}
	oidAttrGivenName           = asn1.ObjectIdentifier{2, 5, 4, 42}
	oidAttrInitials            = asn1.ObjectIdentifier{2, 5, 4, 43}
	oidAttrGenerationQualifier = asn1.ObjectIdentifier{2, 5, 4, 44}
	oidAttrNameQualifier       = asn1.ObjectIdentifier{2, 5, 4, 46}
	oidAttrPseudonym           = asn1.ObjectIdentifier{2, 5, 4, 65}
	oidAttrEmailAddress        = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 1}
)

// parseAttributes walks name.Names in appearance order, same as the
// teacher's getNamesString, so that a repeated RDN naturally resolves to
// last-occurrence-wins without extra bookkeeping.
func parseAttributes(name pkix.Name) Attributes {
	var attrs Attributes
	for _, atv := range name.Names {
		value := attributeValueString(atv.Value)
		switch {
		case atv.Type.Equal(oidAttrCountry):
			attrs.Country = value
		case atv.Type.Equal(oidAttrOrganization):
			attrs.Organization = value
		case atv.Type.Equal(oidAttrOrganizationalUnit):
			attrs.OrganizationalUnit = value
		case atv.Type.Equal(oidAttrNameQualifier):
			attrs.NameQualifier = value
		case atv.Type.Equal(oidAttrState):
			attrs.State = value
		case atv.Type.Equal(oidAttrCommonName):
			attrs.CommonName = value
		case atv.Type.Equal(oidAttrSerialNumber):
			attrs.SerialNumber = value
		case atv.Type.Equal(oidAttrLocality):
			attrs.Locality = value
		case atv.Type.Equal(oidAttrTitle):
			attrs.Title = value
		case atv.Type.Equal(oidAttrSurname):
			attrs.Surname = value
		case atv.Type.Equal(oidAttrGivenName):
			attrs.GivenName = value
		case atv.Type.Equal(oidAttrInitials):
			attrs.Initials = value
		case atv.Type.Equal(oidAttrPseudonym):
			attrs.Pseudonym = value
		case atv.Type.Equal(oidAttrGenerationQualifier):
			attrs.GenerationQualifier = value
		case atv.Type.Equal(oidAttrEmailAddress):
			attrs.EmailAddress = value
		}
	}
	return attrs
}

func attributeValueString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

package idtoken

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// parseCertificate extracts the RSA public key from an X.509 certificate.
// DER bytes are the primary format (what [keys.GoogleFetcher] returns);
// PEM is accepted so substitute fetchers can return certificates as
// published.
func parseCertificate(cert []byte) (*rsa.PublicKey, error) {
	der := cert
	if block, _ := pem.Decode(cert); block != nil {
		der = block.Bytes
	}

	parsed, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}

	pub, ok := parsed.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("certificate public key is %T, expected *rsa.PublicKey", parsed.PublicKey)
	}
	return pub, nil
}

// verifyRS256 checks the signature over the signing input against the
// given RSA public key using the RS256 primitive.
func verifyRS256(signingInput string, signature []byte, key *rsa.PublicKey) error {
	return jwt.SigningMethodRS256.Verify(signingInput, signature, key)
}

package efi

import (
	"crypto/tls"
	"fmt"
	"os"

	"golang.org/x/crypto/pkcs12"
)

// LoadCertificate reads the .p12 file Efi issues for the PIX API
func LoadCertificate(path, password string) (*tls.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read efi certificate: %w", err)
	}
	return ParseCertificate(data, password)
}

// ParseCertificate decodes a PKCS#12 bundle into a TLS client certificate
func ParseCertificate(data []byte, password string) (*tls.Certificate, error) {
	key, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return nil, fmt.Errorf("decode efi certificate: %w", err)
	}
	return &tls.Certificate{
		Certificate: [][]byte{cert.Raw},
		PrivateKey:  key,
		Leaf:        cert,
	}, nil
}

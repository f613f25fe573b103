// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package fositeengine

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"

	josev3 "github.com/go-jose/go-jose/v3"
	"github.com/go-jose/go-jose/v4"

	"github.com/stacklok/oauth2-middleware/pkg/oauth"
)

// MinRSAKeyBits is the minimum accepted RSA modulus size.
const MinRSAKeyBits = 2048

// resolveSigningKey fills in a missing key ID and algorithm, validates the
// pair and returns the private JWK fosite signs with plus the public JWKS.
// fosite v0.49 depends on go-jose/v3 while the JWKS is built with v4.
func resolveSigningKey(sk *oauth.SigningKey) (*josev3.JSONWebKey, *jose.JSONWebKeySet, error) {
	if sk.Key == nil {
		return nil, nil, errors.New("key is required")
	}

	alg := sk.Algorithm
	if alg == "" {
		derived, err := deriveAlgorithm(sk.Key)
		if err != nil {
			return nil, nil, err
		}
		alg = derived
	}
	if err := validateAlgorithmForKey(alg, sk.Key); err != nil {
		return nil, nil, err
	}

	kid := sk.KeyID
	if kid == "" {
		derived, err := deriveKeyID(sk.Key)
		if err != nil {
			return nil, nil, err
		}
		kid = derived
	}

	private := &josev3.JSONWebKey{
		Key:       sk.Key,
		KeyID:     kid,
		Algorithm: alg,
		Use:       "sig",
	}
	public := &jose.JSONWebKeySet{
		Keys: []jose.JSONWebKey{{
			Key:       sk.Key.Public(),
			KeyID:     kid,
			Algorithm: alg,
			Use:       "sig",
		}},
	}
	return private, public, nil
}

// deriveKeyID computes the RFC 7638 thumbprint of the public key.
func deriveKeyID(key crypto.Signer) (string, error) {
	jwk := jose.JSONWebKey{Key: key.Public()}
	thumbprint, err := jwk.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", fmt.Errorf("failed to compute key thumbprint: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(thumbprint), nil
}

func deriveAlgorithm(key crypto.Signer) (string, error) {
	switch k := key.(type) {
	case *rsa.PrivateKey:
		return "RS256", nil
	case *ecdsa.PrivateKey:
		switch k.Curve {
		case elliptic.P256():
			return "ES256", nil
		case elliptic.P384():
			return "ES384", nil
		case elliptic.P521():
			return "ES512", nil
		default:
			return "", fmt.Errorf("unsupported EC curve: %s", k.Curve.Params().Name)
		}
	default:
		return "", fmt.Errorf("unsupported key type: %T", key)
	}
}

func validateAlgorithmForKey(alg string, key crypto.Signer) error {
	switch alg {
	case "RS256", "RS384", "RS512":
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return fmt.Errorf("RSA algorithm requires *rsa.PrivateKey, got %T", key)
		}
		if rsaKey.N.BitLen() < MinRSAKeyBits {
			return fmt.Errorf("RSA key must be at least %d bits, got %d", MinRSAKeyBits, rsaKey.N.BitLen())
		}
	case "ES256", "ES384", "ES512":
		ecKey, ok := key.(*ecdsa.PrivateKey)
		if !ok {
			return fmt.Errorf("ECDSA algorithm requires *ecdsa.PrivateKey, got %T", key)
		}
		expected := map[string]string{"ES256": "P-256", "ES384": "P-384", "ES512": "P-521"}[alg]
		if ecKey.Curve.Params().Name != expected {
			return fmt.Errorf("algorithm %s requires curve %s, got %s", alg, expected, ecKey.Curve.Params().Name)
		}
	default:
		return fmt.Errorf("unsupported algorithm: %s", alg)
	}
	return nil
}

// Copyright © 2024 Kaleido, Inc.
//
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package accounts

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	secp256k1 "github.com/btcsuite/btcd/btcec/v2"
	"github.com/ecryptotoken/deployctl/internal/config"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/hyperledger/firefly-signer/pkg/keystorev3"
	ffsecp256k1 "github.com/hyperledger/firefly-signer/pkg/secp256k1"
	"github.com/mitchellh/go-homedir"
	"golang.org/x/crypto/sha3"
)

type Account struct {
	Address    string `json:"address"`
	PrivateKey string `json:"privateKey,omitempty"`
	Keystore   string `json:"keystore,omitempty"`
}

// GenerateAddressAndPrivateKey creates a random key pair, returning the
// address and the 0x-prefixed hex private key.
func GenerateAddressAndPrivateKey() (address string, privateKey string, err error) {
	newPrivateKey, err := secp256k1.NewPrivateKey()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate private key: %w", err)
	}
	encodedPrivateKey := "0x" + hex.EncodeToString(newPrivateKey.Serialize())
	return addressFromPublicKey(newPrivateKey.PubKey()), encodedPrivateKey, nil
}

// AddressFromPrivateKey derives the 0x-prefixed account address for a hex
// encoded private key.
func AddressFromPrivateKey(privateKey string) (string, error) {
	b, err := decodePrivateKey(privateKey)
	if err != nil {
		return "", err
	}
	_, pub := secp256k1.PrivKeyFromBytes(b)
	return addressFromPublicKey(pub), nil
}

func addressFromPublicKey(pub *secp256k1.PublicKey) string {
	// Drop the 0x04 prefix byte that marks an uncompressed public key
	publicKeyBytes := pub.SerializeUncompressed()[1:]
	hash := sha3.NewLegacyKeccak256()
	hash.Write(publicKeyBytes)
	// Ethereum addresses are the lower 20 bytes of the hash
	return "0x" + hex.EncodeToString(hash.Sum(nil)[12:32])
}

func decodePrivateKey(privateKey string) ([]byte, error) {
	s := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(privateKey), "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("private key is not valid hex: %w", err)
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(b))
	}
	return b, nil
}

// CreateWalletFile generates a new key pair and writes it as a V3 keystore
// file in outputDirectory. light selects the cheaper scrypt parameters.
func CreateWalletFile(outputDirectory, prefix, password string, light bool) (*ffsecp256k1.KeyPair, string, error) {
	keyPair, err := ffsecp256k1.GenerateSecp256k1KeyPair()
	if err != nil {
		return nil, "", err
	}
	var wallet keystorev3.WalletFile
	if light {
		wallet = keystorev3.NewWalletFileLight(password, keyPair)
	} else {
		wallet = keystorev3.NewWalletFileStandard(password, keyPair)
	}

	if err := os.MkdirAll(outputDirectory, 0755); err != nil {
		return nil, "", err
	}

	var filename string
	if prefix != "" {
		filename = filepath.Join(outputDirectory, fmt.Sprintf("%v_%s.json", prefix, keyPair.Address.String()[2:]))
	} else {
		filename = filepath.Join(outputDirectory, keyPair.Address.String()[2:]+".json")
	}
	if err := os.WriteFile(filename, wallet.JSON(), 0600); err != nil {
		return nil, "", err
	}
	return keyPair, filename, nil
}

// ReadWalletFile decrypts a V3 keystore file.
func ReadWalletFile(filename, password string) (*ffsecp256k1.KeyPair, error) {
	expanded, err := homedir.Expand(filename)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, err
	}
	wallet, err := keystorev3.ReadWalletFile(data, []byte(password))
	if err != nil {
		return nil, fmt.Errorf("unable to decrypt keystore '%s': %w", filename, err)
	}
	return wallet.KeyPair(), nil
}

// Resolve turns a configured credential into a signing key. Credentials are
// either hex private keys or "keystore:<path>" references.
func Resolve(credential, keystorePassword string) (*ecdsa.PrivateKey, error) {
	if path, ok := strings.CutPrefix(credential, config.KeystorePrefix); ok {
		keyPair, err := ReadWalletFile(path, keystorePassword)
		if err != nil {
			return nil, err
		}
		return crypto.ToECDSA(keyPair.PrivateKey.Serialize())
	}
	b, err := decodePrivateKey(credential)
	if err != nil {
		return nil, err
	}
	return crypto.ToECDSA(b)
}

// Describe returns the public view of a credential, never exposing key material.
func Describe(credential, keystorePassword string) (*Account, error) {
	if path, ok := strings.CutPrefix(credential, config.KeystorePrefix); ok {
		keyPair, err := ReadWalletFile(path, keystorePassword)
		if err != nil {
			return nil, err
		}
		return &Account{Address: keyPair.Address.String(), Keystore: path}, nil
	}
	address, err := AddressFromPrivateKey(credential)
	if err != nil {
		return nil, err
	}
	return &Account{Address: address}, nil
}

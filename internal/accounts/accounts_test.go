package accounts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Well known development keys and their addresses
const (
	hardhatKey0     = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	hardhatAddress0 = "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"
	hardhatKey1     = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
	hardhatAddress1 = "0x70997970c51812dc3a010c7d01b50e0d17dc79c8"
)

func TestAddressFromPrivateKey(t *testing.T) {
	testCases := []struct {
		Name            string
		PrivateKey      string
		ExpectedAddress string
		ExpectError     bool
	}{
		{Name: "prefixed", PrivateKey: hardhatKey0, ExpectedAddress: hardhatAddress0},
		{Name: "unprefixed", PrivateKey: hardhatKey1, ExpectedAddress: hardhatAddress1},
		{Name: "not hex", PrivateKey: "0xzz", ExpectError: true},
		{Name: "too short", PrivateKey: "0x1234", ExpectError: true},
	}
	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			address, err := AddressFromPrivateKey(tc.PrivateKey)
			if tc.ExpectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.ExpectedAddress, address)
		})
	}
}

func TestGenerateAddressAndPrivateKey(t *testing.T) {
	address, privateKey, err := GenerateAddressAndPrivateKey()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(address, "0x"))
	assert.Len(t, address, 42)
	assert.Len(t, privateKey, 66)

	key, err := Resolve(privateKey, "")
	require.NoError(t, err)
	// derivation through go-ethereum agrees with the secp256k1/keccak derivation
	assert.Equal(t, address, strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex()))
}

func TestWalletFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	keyPair, filename, err := CreateWalletFile(dir, "deployer", "correcthorsebatterystaple", true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "deployer_"+keyPair.Address.String()[2:]+".json"), filename)

	info, err := os.Stat(filename)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	key, err := Resolve("keystore:"+filename, "correcthorsebatterystaple")
	require.NoError(t, err)
	assert.Equal(t, keyPair.Address.String(), strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex()))

	account, err := Describe("keystore:"+filename, "correcthorsebatterystaple")
	require.NoError(t, err)
	assert.Equal(t, keyPair.Address.String(), account.Address)
	assert.Equal(t, filename, account.Keystore)
	assert.Empty(t, account.PrivateKey)

	_, err = Resolve("keystore:"+filename, "wrong password")
	assert.Error(t, err)
}

func TestResolveMissingKeystore(t *testing.T) {
	_, err := Resolve("keystore:"+filepath.Join(t.TempDir(), "missing.json"), "")
	assert.Error(t, err)
}

func TestDescribePrivateKey(t *testing.T) {
	account, err := Describe(hardhatKey0, "")
	require.NoError(t, err)
	assert.Equal(t, &Account{Address: hardhatAddress0}, account)
}

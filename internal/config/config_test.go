package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPrivateKey = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"

func clearEnv(t *testing.T) {
	for _, name := range []string{"BSC_TESTNET_RPC", "PRIVATE_KEY", "ETHERSCAN_API_KEY", "BSCSCAN_API_KEY"} {
		t.Setenv(name, "")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	testCases := []struct {
		Name             string
		RPCURL           string
		PrivateKey       string
		ExpectedAccounts []string
	}{
		{
			Name:             "unprefixed key",
			RPCURL:           "https://data-seed-prebsc-1-s1.binance.org:8545",
			PrivateKey:       testPrivateKey,
			ExpectedAccounts: []string{"0x" + testPrivateKey},
		},
		{
			Name:             "prefixed key",
			RPCURL:           "http://127.0.0.1:8545",
			PrivateKey:       "0x" + testPrivateKey,
			ExpectedAccounts: []string{"0x" + testPrivateKey},
		},
		{
			Name:             "no key",
			RPCURL:           "http://127.0.0.1:8545",
			PrivateKey:       "",
			ExpectedAccounts: []string{},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			t.Setenv("BSC_TESTNET_RPC", tc.RPCURL)
			t.Setenv("PRIVATE_KEY", tc.PrivateKey)

			cfg, err := Load(&LoadOptions{WorkingDir: t.TempDir()})
			require.NoError(t, err)

			network, err := cfg.Network("")
			require.NoError(t, err)
			assert.Equal(t, tc.RPCURL, network.URL)
			assert.Equal(t, tc.ExpectedAccounts, network.Accounts)
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cfg, err := Load(&LoadOptions{WorkingDir: dir})
	require.NoError(t, err)

	assert.Equal(t, "0.8.20", cfg.Solidity.Version)
	assert.True(t, cfg.Solidity.Settings.Optimizer.Enabled)
	assert.Equal(t, 200, cfg.Solidity.Settings.Optimizer.Runs)
	assert.Equal(t, "bscTestnet", cfg.DefaultNetwork)
	assert.Equal(t, filepath.Join(dir, "artifacts"), cfg.Paths.Artifacts)
	assert.Equal(t, filepath.Join(dir, "deployments"), cfg.Paths.Deployments)

	network, err := cfg.Network("bscTestnet")
	require.NoError(t, err)
	assert.Equal(t, 1, network.Confirmations)
	assert.Equal(t, 5*time.Minute, network.Timeout)
	assert.Empty(t, cfg.Etherscan.APIKey)
}

func TestLoadDotEnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := "BSC_TESTNET_RPC=https://bsc-testnet.example.com\nPRIVATE_KEY=" + testPrivateKey + "\nBSCSCAN_API_KEY=ABCDEFGH12345678\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(envFile), 0644))

	cfg, err := Load(&LoadOptions{WorkingDir: dir})
	require.NoError(t, err)
	network, err := cfg.Network("")
	require.NoError(t, err)
	assert.Equal(t, "https://bsc-testnet.example.com", network.URL)
	assert.Equal(t, []string{"0x" + testPrivateKey}, network.Accounts)
	assert.Equal(t, "ABCDEFGH12345678", cfg.Etherscan.APIKey)

	// The process environment takes precedence over the file
	t.Setenv("BSC_TESTNET_RPC", "http://override:8545")
	cfg, err = Load(&LoadOptions{WorkingDir: dir})
	require.NoError(t, err)
	assert.Equal(t, "http://override:8545", cfg.Networks["bscTestnet"].URL)
}

func TestLoadConfigFileWithOverlay(t *testing.T) {
	clearEnv(t)
	t.Setenv("BSC_TESTNET_RPC", "https://bsc-testnet.example.com")
	t.Setenv("PRIVATE_KEY", testPrivateKey)
	t.Setenv("BSCSCAN_API_KEY", "MYKEY")

	cfg, err := Load(&LoadOptions{
		WorkingDir:      t.TempDir(),
		ConfigFile:      filepath.Join("testdata", "deployctl.yaml"),
		ExtraConfigFile: filepath.Join("testdata", "extra.yaml"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"bscMainnet", "bscTestnet", "localhost"}, cfg.NetworkNames())
	assert.Equal(t, "MYKEY", cfg.Etherscan.APIKey)

	bsc := cfg.Networks["bscTestnet"]
	assert.Equal(t, "https://bsc-testnet.example.com", bsc.URL)
	assert.Equal(t, []string{"0x" + testPrivateKey}, bsc.Accounts)

	local := cfg.Networks["localhost"]
	assert.Equal(t, "http://127.0.0.1:8545", local.URL)
	require.NotNil(t, local.ChainID)
	assert.Equal(t, int64(31337), *local.ChainID)
	assert.Equal(t, 2, local.Confirmations)
	assert.Equal(t, 30*time.Second, local.Timeout)
	assert.Equal(t, []string{"0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"}, local.Accounts)

	mainnet := cfg.Networks["bscMainnet"]
	assert.Equal(t, []string{"keystore:~/.deployctl/keys/deployer.json"}, mainnet.Accounts)
}

func TestLoadInterpolatesDecodedValues(t *testing.T) {
	clearEnv(t)
	rpcURL := "https://rpc.example.com/?key=a #b: c"
	apiKey := "*ABC: &def"
	t.Setenv("BSC_TESTNET_RPC", rpcURL)
	t.Setenv("PRIVATE_KEY", testPrivateKey)
	t.Setenv("BSCSCAN_API_KEY", apiKey)
	t.Setenv("CHAIN_ID", "97")

	cfg, err := Load(&LoadOptions{
		WorkingDir: t.TempDir(),
		ConfigFile: filepath.Join("testdata", "interpolation.yaml"),
	})
	require.NoError(t, err)

	bsc := cfg.Networks["bscTestnet"]
	assert.Equal(t, rpcURL, bsc.URL)
	assert.Equal(t, []string{"0x" + testPrivateKey}, bsc.Accounts)
	require.NotNil(t, bsc.ChainID)
	assert.Equal(t, int64(97), *bsc.ChainID)
	assert.Equal(t, apiKey, cfg.Etherscan.APIKey)
	assert.Equal(t, "https://api-testnet.bscscan.com/api", cfg.Etherscan.APIURL)
}

func TestLoadMissingConfigFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(&LoadOptions{WorkingDir: t.TempDir(), ConfigFile: "does-not-exist.yaml"})
	assert.Error(t, err)
}

func TestUnknownNetwork(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(&LoadOptions{WorkingDir: t.TempDir()})
	require.NoError(t, err)
	_, err = cfg.Network("goerli")
	assert.True(t, errors.Is(err, ErrUnknownNetwork))
	assert.Contains(t, err.Error(), "bscTestnet")
}

func TestRedacted(t *testing.T) {
	clearEnv(t)
	t.Setenv("PRIVATE_KEY", testPrivateKey)
	t.Setenv("ETHERSCAN_API_KEY", "ABCDEFGH12345678")
	cfg, err := Load(&LoadOptions{WorkingDir: t.TempDir()})
	require.NoError(t, err)

	r := cfg.Redacted()
	assert.Equal(t, []string{"0x59****690d"}, r.Networks["bscTestnet"].Accounts)
	assert.Equal(t, "ABCD****5678", r.Etherscan.APIKey)
	// the original is untouched
	assert.Equal(t, "0x"+testPrivateKey, cfg.Networks["bscTestnet"].Accounts[0])
}

func TestWriteConfigRoundTrip(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cfg := Default(func(string) string { return "" })
	cfg.Networks["localhost"] = &NetworkConfig{URL: "http://127.0.0.1:8545", Timeout: time.Minute}
	require.NoError(t, cfg.WriteConfig(filepath.Join(dir, "deployctl.yaml")))

	loaded, err := Load(&LoadOptions{WorkingDir: dir})
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8545", loaded.Networks["localhost"].URL)
	assert.Equal(t, time.Minute, loaded.Networks["localhost"].Timeout)
}

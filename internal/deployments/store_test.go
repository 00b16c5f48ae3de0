package deployments

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperledger/firefly-common/pkg/fftypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifact(t *testing.T, dir string) string {
	path := filepath.Join(dir, "eCryptoToken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"contractName":"eCryptoToken","abi":[],"bytecode":"0x00"}`), 0644))
	return path
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "deployments"))

	record := &Record{
		Network:         "bscTestnet",
		ContractName:    "eCryptoToken",
		Address:         "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		TransactionHash: "0x092c2573b6c5278d17b44964b178985e0c2e8fbd0ba5e1c175894bdebad1b163",
		BlockNumber:     41234567,
		Deployer:        "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		ChainID:         97,
	}
	require.NoError(t, store.Save(record, writeArtifact(t, dir)))
	assert.NotNil(t, record.ID)
	assert.NotNil(t, record.DeployedAt)

	loaded, err := store.Load("bscTestnet", "eCryptoToken")
	require.NoError(t, err)
	assert.Equal(t, record.ID.String(), loaded.ID.String())
	assert.Equal(t, record.Address, loaded.Address)
	assert.Equal(t, uint64(41234567), loaded.BlockNumber)
	assert.Equal(t, int64(97), loaded.ChainID)

	snapshot, err := os.ReadFile(store.ArtifactPath("bscTestnet", "eCryptoToken"))
	require.NoError(t, err)
	assert.Contains(t, string(snapshot), `"contractName":"eCryptoToken"`)
}

func TestSaveRequiresNames(t *testing.T) {
	store := NewStore(t.TempDir())
	assert.Error(t, store.Save(&Record{ContractName: "eCryptoToken"}, ""))
	assert.Error(t, store.Save(&Record{Network: "bscTestnet"}, ""))
}

func TestSaveMissingArtifact(t *testing.T) {
	store := NewStore(t.TempDir())
	err := store.Save(&Record{Network: "bscTestnet", ContractName: "eCryptoToken"}, filepath.Join(t.TempDir(), "gone.json"))
	assert.ErrorContains(t, err, "failed to snapshot artifact")
}

func TestLoadMissing(t *testing.T) {
	store := NewStore(t.TempDir())
	_, err := store.Load("bscTestnet", "eCryptoToken")
	assert.ErrorContains(t, err, "no deployment of 'eCryptoToken' recorded on network 'bscTestnet'")
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "deployments"))

	records, err := store.List("")
	require.NoError(t, err)
	assert.Empty(t, records)

	for _, r := range []*Record{
		{Network: "localhost", ContractName: "eCryptoToken", DeployedAt: fftypes.Now()},
		{Network: "bscTestnet", ContractName: "Vesting"},
		{Network: "bscTestnet", ContractName: "eCryptoToken"},
	} {
		require.NoError(t, store.Save(r, writeArtifact(t, dir)))
	}

	records, err = store.List("")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "bscTestnet", records[0].Network)
	assert.Equal(t, "Vesting", records[0].ContractName)
	assert.Equal(t, "eCryptoToken", records[1].ContractName)
	assert.Equal(t, "localhost", records[2].Network)

	records, err = store.List("bscTestnet")
	require.NoError(t, err)
	assert.Len(t, records, 2)

	records, err = store.List("mainnet")
	require.NoError(t, err)
	assert.Empty(t, records)
}

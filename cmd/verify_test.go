package cmd

import (
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/ecryptotoken/deployctl/internal/deployments"
	"github.com/ecryptotoken/deployctl/internal/utils"
	"github.com/jarcoal/httpmock"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bscscanAPI = "https://api-testnet.bscscan.com/api"

func saveTestDeployment(t *testing.T, dir string) *deployments.Record {
	record := &deployments.Record{
		Network:         "bscTestnet",
		ContractName:    "eCryptoToken",
		SourceName:      "contracts/Token.sol",
		Address:         "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		TransactionHash: "0x092c2573b6c5278d17b44964b178985e0c2e8fbd0ba5e1c175894bdebad1b163",
		BlockNumber:     41234567,
		Deployer:        "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		ChainID:         97,
	}
	require.NoError(t, deployments.NewStore(filepath.Join(dir, "deployments")).Save(record, ""))
	return record
}

func TestVerify(t *testing.T) {
	dir := newProject(t)
	t.Setenv("BSCSCAN_API_KEY", "TESTKEY")
	record := saveTestDeployment(t, dir)
	utils.StartMockServer(t)
	verifyPollInterval = time.Millisecond
	defer func() { verifyPollInterval = 5 * time.Second }()

	httpmock.RegisterResponder("POST", bscscanAPI, func(req *http.Request) (*http.Response, error) {
		require.NoError(t, req.ParseForm())
		assert.Equal(t, "TESTKEY", req.PostForm.Get("apikey"))
		assert.Equal(t, record.Address, req.PostForm.Get("contractaddress"))
		assert.Equal(t, "contracts/Token.sol:eCryptoToken", req.PostForm.Get("contractname"))
		assert.Contains(t, req.PostForm.Get("sourceCode"), "contract eCryptoToken")
		_, hasDeadline := req.Context().Deadline()
		assert.True(t, hasDeadline)
		return httpmock.NewStringResponse(200, `{"status":"1","message":"OK","result":"guid-1"}`), nil
	})
	httpmock.RegisterResponder("GET", bscscanAPI, httpmock.ResponderFromMultipleResponses([]*http.Response{
		httpmock.NewStringResponse(200, `{"status":"0","message":"NOTOK","result":"Pending in queue"}`),
		httpmock.NewStringResponse(200, `{"status":"1","message":"OK","result":"Pass - Verified"}`),
	}))

	stdout, stderr, code := executeCommand(t, "verify")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "eCryptoToken verified at: 0x5FbDB2315678afecb367f032d93F642f64180aa3\n", stdout)
}

func TestListDeployedContracts(t *testing.T) {
	dir := newProject(t)
	resetFlags(rootCmd)

	names, _ := listDeployedContracts(verifyCmd, nil, "")
	assert.Empty(t, names)

	saveTestDeployment(t, dir)
	names, directive := listDeployedContracts(verifyCmd, nil, "")
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)
	assert.Equal(t, []string{"eCryptoToken"}, names)
}

func TestVerifyAlreadyVerified(t *testing.T) {
	dir := newProject(t)
	t.Setenv("ETHERSCAN_API_KEY", "TESTKEY")
	saveTestDeployment(t, dir)
	utils.StartMockServer(t)

	httpmock.RegisterResponder("POST", bscscanAPI, httpmock.NewStringResponder(200, `{"status":"0","message":"NOTOK","result":"Contract source code already verified"}`))

	stdout, stderr, code := executeCommand(t, "verify", "eCryptoToken")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "already verified")
}

func TestVerifyErrors(t *testing.T) {
	t.Run("NoRecord", func(t *testing.T) {
		newProject(t)
		t.Setenv("ETHERSCAN_API_KEY", "TESTKEY")
		_, stderr, code := executeCommand(t, "verify")
		assert.Equal(t, 1, code)
		assert.Contains(t, stderr, "no deployment of 'eCryptoToken' recorded on network 'bscTestnet'")
	})
	t.Run("NoAPIKey", func(t *testing.T) {
		dir := newProject(t)
		saveTestDeployment(t, dir)
		_, stderr, code := executeCommand(t, "verify")
		assert.Equal(t, 1, code)
		assert.Contains(t, stderr, "block explorer API key is not set")
	})
}

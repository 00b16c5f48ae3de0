package compiler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ecryptotoken/deployctl/internal/artifacts"
	"github.com/ecryptotoken/deployctl/internal/docker/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const solcVersionOutput = "solc, the solidity compiler commandline interface\nVersion: 0.8.20+commit.a1b79de6.Linux.g++\n"

type fakeRunner struct {
	image   string
	version string
	output  string
	err     error
	calls   [][]string
}

func (r *fakeRunner) Run(ctx context.Context, args ...string) (string, error) {
	r.calls = append(r.calls, args)
	if len(args) == 1 && args[0] == "--version" {
		return r.version, nil
	}
	return r.output, r.err
}

func (r *fakeRunner) Image() string {
	return r.image
}

func newFakeRunner(t *testing.T) *fakeRunner {
	combined, err := os.ReadFile(filepath.Join("testdata", "combined.json"))
	require.NoError(t, err)
	return &fakeRunner{version: solcVersionOutput, output: string(combined)}
}

func testOptions(t *testing.T) *Options {
	projectDir, err := filepath.Abs(filepath.Join("testdata", "project"))
	require.NoError(t, err)
	return &Options{
		ProjectDir:       projectDir,
		SourcesDir:       filepath.Join(projectDir, "contracts"),
		ArtifactsDir:     t.TempDir(),
		Version:          "0.8.20",
		OptimizerEnabled: true,
		OptimizerRuns:    200,
	}
}

func TestCompile(t *testing.T) {
	runner := newFakeRunner(t)
	opts := testOptions(t)

	buildInfo, err := New(runner, nil).Compile(context.Background(), opts)
	require.NoError(t, err)

	require.Len(t, runner.calls, 2)
	assert.Equal(t, []string{
		"--combined-json", "abi,bin,bin-runtime,metadata",
		"--base-path", ".",
		"--include-path", "node_modules",
		"--optimize", "--optimize-runs", "200",
		"contracts/Token.sol", "contracts/Wrapped.sol", "contracts/lib/Ownable.sol",
	}, runner.calls[1])

	assert.NotNil(t, buildInfo.ID)
	assert.Equal(t, "0.8.20", buildInfo.SolcVersion)
	assert.Equal(t, "0.8.20+commit.a1b79de6.Linux.g++", buildInfo.SolcLongVersion)
	assert.Equal(t, 200, buildInfo.OptimizerRuns)
	assert.Empty(t, buildInfo.ImageDigest)
	assert.Equal(t, []string{
		"@scope/pkg/contracts/Base.sol:Base",
		"contracts/Token.sol:eCryptoToken",
		"contracts/Wrapped.sol:Wrapped",
		"contracts/lib/Ownable.sol:Ownable",
	}, buildInfo.Contracts)
	assert.Equal(t, []string{"node_modules"}, buildInfo.IncludePaths)
	assert.Equal(t, []string{
		"@scope/pkg/contracts/Base.sol",
		"contracts/Token.sol",
		"contracts/Wrapped.sol",
		"contracts/lib/Ownable.sol",
	}, buildInfo.Sources)

	path, err := artifacts.Find(opts.ArtifactsDir, "eCryptoToken")
	require.NoError(t, err)
	contract, err := artifacts.ReadArtifact(path)
	require.NoError(t, err)
	assert.Equal(t, "0x6001600c60003960016000f300", contract.Bytecode)

	saved, err := ReadBuildInfo(opts.ArtifactsDir)
	require.NoError(t, err)
	assert.Equal(t, buildInfo.ID.String(), saved.ID.String())
	assert.Equal(t, buildInfo.Sources, saved.Sources)
	assert.Equal(t, buildInfo.IncludePaths, saved.IncludePaths)

	_, err = artifacts.Find(opts.ArtifactsDir, "@scope/pkg/contracts/Base.sol:Base")
	require.NoError(t, err)
}

func TestCompileWithoutLibraries(t *testing.T) {
	runner := newFakeRunner(t)
	runner.output = `{"contracts":{"contracts/Token.sol:eCryptoToken":{"abi":[],"bin":"6001","bin-runtime":"00"}}}`
	opts := testOptions(t)
	opts.ProjectDir = t.TempDir()
	opts.SourcesDir = filepath.Join(opts.ProjectDir, "contracts")
	require.NoError(t, os.MkdirAll(opts.SourcesDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(opts.SourcesDir, "Token.sol"), []byte("contract eCryptoToken {}"), 0644))

	buildInfo, err := New(runner, nil).Compile(context.Background(), opts)
	require.NoError(t, err)
	assert.NotContains(t, runner.calls[1], "--include-path")
	assert.Empty(t, buildInfo.IncludePaths)
	assert.Equal(t, []string{"contracts/Token.sol"}, buildInfo.Sources)
}

func TestCompileOptimizerDisabled(t *testing.T) {
	runner := newFakeRunner(t)
	opts := testOptions(t)
	opts.OptimizerEnabled = false

	buildInfo, err := New(runner, nil).Compile(context.Background(), opts)
	require.NoError(t, err)
	assert.NotContains(t, runner.calls[1], "--optimize")
	assert.Zero(t, buildInfo.OptimizerRuns)
}

func TestCompileWithDockerRunner(t *testing.T) {
	opts := testOptions(t)
	combined, err := os.ReadFile(filepath.Join("testdata", "combined.json"))
	require.NoError(t, err)

	dockerManager := mocks.NewDockerManager()
	prefix := strings.Join([]string{"run", "--rm", "-v", opts.ProjectDir + ":/sources", "-w", "/sources", "ethereum/solc:0.8.20"}, " ")
	dockerManager.Outputs[prefix+" --version"] = solcVersionOutput
	dockerManager.Outputs[prefix+" --combined-json"] = string(combined)
	dockerManager.Digest = "sha256:6a2c0b9b5b6c2a1e0e7f4c39d1f0a4f3a5e0c8d7b6a5f4e3d2c1b0a9f8e7d6c5"

	runner := NewDockerRunner(dockerManager, "0.8.20", opts.ProjectDir)
	buildInfo, err := New(runner, dockerManager.GetImageDigest).Compile(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, "ethereum/solc:0.8.20", buildInfo.Image)
	assert.Equal(t, dockerManager.Digest, buildInfo.ImageDigest)
	assert.Len(t, dockerManager.Commands, 2)
}

func TestCompileDigestFailureIsNotFatal(t *testing.T) {
	runner := newFakeRunner(t)
	runner.image = "ethereum/solc:0.8.20"

	buildInfo, err := New(runner, func(image string) (string, error) {
		return "", errors.New("registry unavailable")
	}).Compile(context.Background(), testOptions(t))
	require.NoError(t, err)
	assert.Equal(t, "ethereum/solc:0.8.20", buildInfo.Image)
	assert.Empty(t, buildInfo.ImageDigest)
}

func TestCompileErrors(t *testing.T) {
	testCases := []struct {
		Name   string
		Setup  func(r *fakeRunner, o *Options)
		Expect string
	}{
		{
			Name:   "VersionMismatch",
			Setup:  func(r *fakeRunner, o *Options) { o.Version = "0.8.19" },
			Expect: "solc version mismatch: configured 0.8.19, compiler reports 0.8.20+commit.a1b79de6.Linux.g++",
		},
		{
			Name:   "UnknownVersionOutput",
			Setup:  func(r *fakeRunner, o *Options) { r.version = "command not found" },
			Expect: "unrecognized solc version output",
		},
		{
			Name:   "CompilerError",
			Setup:  func(r *fakeRunner, o *Options) { r.err = errors.New("ParserError: Expected ';'") },
			Expect: "compilation failed: ParserError: Expected ';'",
		},
		{
			Name:   "BadOutput",
			Setup:  func(r *fakeRunner, o *Options) { r.output = "not json" },
			Expect: "failed to parse compiler output",
		},
		{
			Name: "BadMetadata",
			Setup: func(r *fakeRunner, o *Options) {
				r.output = `{"contracts":{"contracts/Token.sol:eCryptoToken":{"abi":[],"bin":"6001","metadata":"{"}}}`
			},
			Expect: "invalid metadata for 'contracts/Token.sol:eCryptoToken'",
		},
		{
			Name:   "NoSources",
			Setup:  func(r *fakeRunner, o *Options) { o.SourcesDir = filepath.Join(o.ProjectDir, "missing") },
			Expect: "no Solidity sources found",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			runner := newFakeRunner(t)
			opts := testOptions(t)
			tc.Setup(runner, opts)
			_, err := New(runner, nil).Compile(context.Background(), opts)
			assert.ErrorContains(t, err, tc.Expect)
		})
	}
}

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion(solcVersionOutput)
	require.NoError(t, err)
	assert.Equal(t, "0.8.20+commit.a1b79de6.Linux.g++", v)
}

func TestParseRuntime(t *testing.T) {
	runtime, err := ParseRuntime(context.Background(), "docker")
	require.NoError(t, err)
	assert.Equal(t, RuntimeDocker, runtime)

	runtime, err = ParseRuntime(context.Background(), "native")
	require.NoError(t, err)
	assert.Equal(t, RuntimeNative, runtime)

	_, err = ParseRuntime(context.Background(), "wasm")
	assert.Error(t, err)
}

func TestReadBuildInfoMissing(t *testing.T) {
	_, err := ReadBuildInfo(t.TempDir())
	assert.ErrorContains(t, err, "have you run compile?")
}

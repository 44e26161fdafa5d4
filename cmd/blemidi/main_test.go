package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/srg/blemidi/internal/peripheral"
	goble "github.com/srg/blemidi/internal/peripheral/go-ble"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestFormatVersion(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{in: "1.2.3", expected: "v1.2.3"},
		{in: "v1.2.3", expected: "v1.2.3"},
		{in: "dev", expected: "dev"},
		{in: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatVersion(tt.in))
		})
	}
}

func TestFormatUserError(t *testing.T) {
	assert.Equal(t, "BLE peripheral mode is not supported on this platform",
		FormatUserError(fmt.Errorf("open: %w", goble.ErrUnsupportedPlatform)))

	assert.Contains(t, FormatUserError(fmt.Errorf("%w: unauthorized", ErrRadioUnavailable)),
		"check that Bluetooth is available")

	advErr := &peripheral.AdvertiseError{Stage: peripheral.StageAdvertise, Err: errors.New("busy")}
	assert.Equal(t, "advertising failed (advertise): busy", FormatUserError(advErr))

	assert.Equal(t, "plain", FormatUserError(errors.New("plain")))
}

// CommandTestSuite runs the cobra command tree with captured output
type CommandTestSuite struct {
	suite.Suite
}

func TestCommandTestSuite(t *testing.T) {
	suite.Run(t, new(CommandTestSuite))
}

// ExecuteCommand runs a cobra command with args, returns output and error.
func (suite *CommandTestSuite) ExecuteCommand(cmd *cobra.Command, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func (suite *CommandTestSuite) writeConfig(content string) string {
	path := filepath.Join(suite.T().TempDir(), "blemidi.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (suite *CommandTestSuite) TestEncode() {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{
			name:     "volume on channel 2",
			args:     []string{"encode", "--channel", "2", "--cc", "7", "--value", "100", "--timestamp", "0"},
			expected: "80 80 B1 07 64\n",
		},
		{
			name:     "timestamp 1000",
			args:     []string{"encode", "--channel", "1", "--cc", "1", "--value", "0", "--timestamp", "1000"},
			expected: "87 E8 B0 01 00\n",
		},
		{
			name:     "values are clamped",
			args:     []string{"encode", "--channel", "16", "--cc", "300", "--value", "-4", "--timestamp", "8191"},
			expected: "BF FF BF 7F 00\n",
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			out, err := suite.ExecuteCommand(rootCmd, tt.args...)
			suite.Require().NoError(err)
			suite.Equal(tt.expected, out)
		})
	}
}

func (suite *CommandTestSuite) TestEncode_InvalidChannel() {
	_, err := suite.ExecuteCommand(rootCmd, "encode", "--channel", "0", "--cc", "1", "--value", "1", "--timestamp", "0")
	suite.Error(err)
	suite.Contains(err.Error(), "channel 0 out of range")
}

func (suite *CommandTestSuite) TestSliders() {
	// GOAL: Verify the sliders command lists configured sliders in order
	//
	// TEST SCENARIO: config with two sliders → numbered list with channel and controller

	path := suite.writeConfig(`
sliders:
  - {label: Mod Wheel, channel: 1, cc: 1}
  - {label: Volume, channel: 2, cc: 7, value: 90}
`)

	out, err := suite.ExecuteCommand(rootCmd, "sliders", "--config", path, "--log-level", "error")
	suite.Require().NoError(err)

	suite.Contains(out, " 1. ")
	suite.Contains(out, "Mod Wheel")
	suite.Contains(out, " 2. ")
	suite.Contains(out, "Volume")
	suite.Contains(out, "ch 2  cc 7   value 90")
	suite.Less(bytes.Index([]byte(out), []byte("Mod Wheel")), bytes.Index([]byte(out), []byte("Volume")))
}

func (suite *CommandTestSuite) TestSliders_DefaultBank() {
	out, err := suite.ExecuteCommand(rootCmd, "sliders", "--config", "", "--log-level", "error")
	suite.Require().NoError(err)
	suite.Contains(out, "CC Value")
	suite.Contains(out, "ch 1  cc 1   value 0")
}

func (suite *CommandTestSuite) TestInvalidLogLevel() {
	_, err := suite.ExecuteCommand(rootCmd, "sliders", "--config", "", "--log-level", "loud")
	suite.Error(err)
	suite.Contains(err.Error(), "invalid log level")
}

func (suite *CommandTestSuite) TestInvalidConfig() {
	path := suite.writeConfig("sliders:\n  - {label: x, channel: 40, cc: 1}\n")
	_, err := suite.ExecuteCommand(rootCmd, "sliders", "--config", path, "--log-level", "error")
	require.Error(suite.T(), err)
	suite.Contains(err.Error(), "channel 40 out of range")
}

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"rarefy", "sample", "ensemble", "run", "runs"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "rangecast", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRarefyCommand_Flags(t *testing.T) {
	flag := rarefyCmd.Flags().Lookup("input")
	require.NotNil(t, flag, "rarefy command should have --input flag")

	flag = rarefyCmd.Flags().Lookup("min")
	require.NotNil(t, flag, "rarefy command should have --min flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestSampleCommand_Flags(t *testing.T) {
	flag := sampleCmd.Flags().Lookup("class")
	require.NotNil(t, flag, "sample command should have --class flag")
	assert.Equal(t, "background", flag.DefValue)
}

func TestEnsembleCommand_Flags(t *testing.T) {
	flag := ensembleCmd.Flags().Lookup("scenario")
	require.NotNil(t, flag, "ensemble command should have --scenario flag")
	assert.Equal(t, "present", flag.DefValue)
}

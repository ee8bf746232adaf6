package cmd

import (
	"os"
	"runtime/pprof"

	"github.com/relex/gotils/logger"
)

type rootCommandState struct {
	CPUProfile string `name:"cpuprofile" help:"Write CPU profile to file."`

	cpuProfileFile *os.File
}

var rootCmd rootCommandState

func (cmd *rootCommandState) preRun() {
	if cmd.CPUProfile == "" {
		return
	}

	f, err := os.Create(cmd.CPUProfile)
	if err != nil {
		logger.Fatalf("failed to create CPU profile %s: %s", cmd.CPUProfile, err.Error())
	}

	logger.Infof("start CPU profiling %s", cmd.CPUProfile)
	if err := pprof.StartCPUProfile(f); err != nil {
		logger.Fatalf("failed to start CPU profiling: %s", err.Error())
	}

	cmd.cpuProfileFile = f
}

func (cmd *rootCommandState) postRun() {
	if cmd.cpuProfileFile != nil {
		pprof.StopCPUProfile()
		cmd.cpuProfileFile.Close()
	}
}

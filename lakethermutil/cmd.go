/*
Copyright © 2024 the LakeTherm authors.
This file is part of LakeTherm.

LakeTherm is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

LakeTherm is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with LakeTherm.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package lakethermutil wires the laketherm library into a command-line
// tool: it parses scenario configuration files, builds the column domain,
// and runs the simulation pipeline.
package lakethermutil

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/lakemodel/laketherm"
)

// Root is the root command for the laketherm CLI.
var Root = &cobra.Command{
	Use:   "laketherm",
	Short: "laketherm runs per-column lake thermal simulations",
	Long: `laketherm solves coupled snow/open-water/sediment heat diffusion
and phase change for a batch of independent lake columns described by a
TOML scenario file.`,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scenario in the configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, err := cmd.Flags().GetString("config")
		if err != nil {
			return err
		}
		cfg, err := ReadConfig(cfgPath)
		if err != nil {
			return err
		}
		return Run(cfg)
	},
}

// options lists the command-line flags and the flag sets they belong to,
// so that related commands share definitions.
var options = []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}{
	{
		name:       "config",
		usage:      "config specifies the scenario configuration file location.",
		shorthand:  "c",
		defaultVal: "laketherm.toml",
		flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
	},
	{
		name:       "verbose",
		usage:      "verbose enables debug logging.",
		shorthand:  "v",
		defaultVal: false,
		flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
	},
}

func init() {
	for _, opt := range options {
		for _, fs := range opt.flagsets {
			switch v := opt.defaultVal.(type) {
			case string:
				fs.StringP(opt.name, opt.shorthand, v, opt.usage)
			case bool:
				fs.BoolP(opt.name, opt.shorthand, v, opt.usage)
			default:
				panic(fmt.Errorf("lakethermutil: unsupported flag type %T", opt.defaultVal))
			}
		}
	}
	Root.AddCommand(runCmd)
	Root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("verbose"); v {
			log.SetLevel(log.DebugLevel)
		}
	}
}

// Run builds the domain from cfg, runs the simulation, and writes results.
func Run(cfg *Config) error {
	columns, err := cfg.Columns()
	if err != nil {
		return err
	}
	m, err := laketherm.NewModel(cfg.Dt, columns...)
	if err != nil {
		return err
	}
	m.RunFuncs = []laketherm.DomainManipulator{
		laketherm.Timestep(),
		laketherm.EnergyBalanceCheck(),
		laketherm.Log(),
		laketherm.Steps(cfg.Steps),
	}
	if err := m.Init(); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"columns": len(columns),
		"dt":      cfg.Dt,
		"steps":   cfg.Steps,
	}).Info("starting laketherm run")
	if err := m.Run(); err != nil {
		return err
	}

	w := os.Stdout
	if cfg.Output != "" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return laketherm.WriteResults(w, m.Columns(),
		"LakeIce", "QMelt", "QFreeze", "GroundHeat", "FluxOut", "EnergyErr")
}

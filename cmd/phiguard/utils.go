package phiguard

import (
	semver3 "github.com/blang/semver"
	semver "github.com/blang/semver/v4"
	selfupdate "github.com/rhysd/go-github-selfupdate/selfupdate"
	"github.com/spf13/cobra"
)

func selfUpdate() error {
	ver, err := semver.ParseTolerant(version)
	if err != nil {
		ver = semver.MustParse("0.0.0")
	}
	// Update from GitHub Releases: phiguard/phiguard
	_, err = selfupdate.UpdateSelf(semver3.MustParse(ver.String()), "phiguard/phiguard")
	return err
}

// pick* resolve a setting with CLI > config-file precedence. An explicitly
// set flag always wins, even when set to its default.

func pickString(cmd *cobra.Command, flag, cli string, file *string) string {
	if flagChanged(cmd, flag) || file == nil || *file == "" {
		return cli
	}
	return *file
}

func pickInt(cmd *cobra.Command, flag string, cli int, file *int) int {
	if flagChanged(cmd, flag) || file == nil {
		return cli
	}
	return *file
}

func pickInt64(cmd *cobra.Command, flag string, cli int64, file *int64) int64 {
	if flagChanged(cmd, flag) || file == nil {
		return cli
	}
	return *file
}

func pickFloat(cmd *cobra.Command, flag string, cli float64, file *float64) float64 {
	if flagChanged(cmd, flag) || file == nil {
		return cli
	}
	return *file
}

func pickBool(cmd *cobra.Command, flag string, cli bool, file *bool) bool {
	if flagChanged(cmd, flag) || file == nil {
		return cli
	}
	return *file
}

// flagChanged checks the command's own flags and inherited persistent flags.
func flagChanged(cmd *cobra.Command, name string) bool {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		return true
	}
	if f := cmd.InheritedFlags().Lookup(name); f != nil && f.Changed {
		return true
	}
	return false
}

package phiguard

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func init() {
	ci := &cobra.Command{Use: "ci", Short: "CI template helpers for multiple providers"}
	rootCmd.AddCommand(ci)

	var provider string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a CI pipeline template for your provider",
		RunE: func(_ *cobra.Command, _ []string) error {
			var path string
			var content string
			switch provider {
			case "github":
				path = ".github/workflows/phiguard.yml"
				content = `name: phiguard
on: [push, pull_request]
jobs:
  scan:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
      - uses: actions/setup-go@v5
        with:
          go-version: '1.25'
      - run: go install github.com/phiguard/phiguard@latest
      - run: phiguard scan . --format json --fail-on high --output phiguard-findings.json
        env:
          PHIGUARD_BLOCK_ON_CRITICAL: "true"
      - uses: actions/upload-artifact@v4
        if: always()
        with:
          name: phiguard-findings
          path: phiguard-findings.json
`
			case "gitlab":
				path = ".gitlab-ci.yml"
				content = `stages: [scan]
scan:
  stage: scan
  image: golang:1.25
  script:
    - go install github.com/phiguard/phiguard@latest
    - phiguard scan . --format json --fail-on high --output phiguard-findings.json
  artifacts:
    when: always
    paths:
      - phiguard-findings.json
`
			case "azure":
				path = "azure-pipelines.yml"
				content = `trigger:
- main

pool:
  vmImage: 'ubuntu-latest'

steps:
- task: GoTool@0
  inputs:
    version: '1.25.x'
- script: |
    go install github.com/phiguard/phiguard@latest
    phiguard scan . --format json --fail-on high --output phiguard-findings.json
  displayName: 'phiguard scan'
- publish: phiguard-findings.json
  artifact: phiguard-findings
  condition: succeededOrFailed()
`
			default:
				return fmt.Errorf("unknown --provider. Supported: github, gitlab, azure")
			}
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return err
			}
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				return err
			}
			fmt.Println("Wrote", path)
			return nil
		},
	}
	initCmd.Flags().StringVar(&provider, "provider", "", "CI provider: github | gitlab | azure")
	if err := initCmd.MarkFlagRequired("provider"); err != nil {
		fmt.Fprintln(os.Stderr, "warning: could not mark --provider as required:", err)
	}
	ci.AddCommand(initCmd)
}

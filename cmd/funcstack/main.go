// Package main implements the funcstack CLI.
// It synthesizes and deploys serverless applications described by a manifest.
package main

import "github.com/funcstack/funcstack/cmd/funcstack/cmd"

func main() {
	cmd.Execute()
}

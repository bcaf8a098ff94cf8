// Package synth turns a manifest into template fragments: one fragment set per function,
// a resource tree for the HTTP routes and one wiring per event trigger. Assemble merges
// them, with the base resources and the manifest's custom resources, into one document.
package synth

import (
	"strings"
	"unicode"
)

// Logical names of the base resources every document carries.
const (
	ExecutionRoleName = "LambdaExecutionRole"
	APIName           = "Api"
	APIEndpointOutput = "ApiEndpoint"
)

// FunctionLogicalName is the logical name of the runnable unit of fn.
func FunctionLogicalName(fn string) string {
	return "Lambda" + pascal(fn)
}

func versionLogicalName(fn, version string) string {
	return "LambdaVersion" + pascal(fn) + alnum(version)
}

func permissionLogicalName(fn string) string {
	return "LambdaPermission" + pascal(fn)
}

func deploymentLogicalName(version string) string {
	return "ApiDeployment" + alnum(version)
}

// pascal drops every character that cannot appear in a logical name and upper-cases
// the first remaining letter.
func pascal(s string) string {
	cleaned := alnum(s)
	if cleaned == "" {
		return ""
	}
	runes := []rune(cleaned)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func alnum(s string) string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return r
		}
		return -1
	}, s)
}

package commandmeta

import (
	"strings"
)

type OutputPolicy uint8

const (
	OutputPolicyStructured OutputPolicy = iota
	OutputPolicyTextOnly
)

func EmitsExecutionStatusPath(path string) bool {
	switch strings.TrimSpace(path) {
	case "gsconfig workspace create",
		"gsconfig workspace default set",
		"gsconfig workspace delete",
		"gsconfig store create",
		"gsconfig store delete",
		"gsconfig store upload-shapefile",
		"gsconfig store upload-coverage",
		"gsconfig resource publish",
		"gsconfig layer set-style",
		"gsconfig layergroup create",
		"gsconfig layergroup delete",
		"gsconfig style create",
		"gsconfig style delete",
		"gsconfig server reload",
		"gsconfig server reset":
		return true
	default:
		return false
	}
}

func OutputPolicyForPath(path string) OutputPolicy {
	switch strings.TrimSpace(path) {
	case "gsconfig xml get",
		"gsconfig style body",
		"gsconfig completion bash",
		"gsconfig completion zsh",
		"gsconfig completion fish",
		"gsconfig completion powershell":
		return OutputPolicyTextOnly
	default:
		return OutputPolicyStructured
	}
}

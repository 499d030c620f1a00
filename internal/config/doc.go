// Package config defines deployment settings used by the venus-deploy CLI
// and provides helpers to load, validate and save them in YAML format.
//
// The Config type holds the SSH target, the remote install path, the local
// source directory and archiving exclusions.
package config

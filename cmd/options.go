// Copyright © 2025 The cinder authors

package cmd

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cinderlisp/cinder/lisp"
	"github.com/cinderlisp/cinder/sandbox"
)

var (
	allowNetwork bool
	allowHosts   []string
)

// registerSandboxFlags adds the network confinement flags shared by the
// run and repl commands.
func registerSandboxFlags(flags *pflag.FlagSet) {
	flags.BoolVar(&allowNetwork, "allow-network", false,
		"Enable http-get and http-post builtins")
	flags.StringSliceVar(&allowHosts, "allow", nil,
		"Restrict network access to URLs containing these hosts")
}

// newSandbox builds the I/O sandbox from config and flags.
func newSandbox() (*sandbox.Sandbox, error) {
	cfg := sandbox.Config{
		Roots:          viper.GetStringSlice("sandbox.roots"),
		MaxFileSize:    viper.GetInt64("sandbox.max-file-size"),
		HTTPEnabled:    allowNetwork || viper.GetBool("http.enable"),
		HTTPAllowHosts: append(viper.GetStringSlice("http.allow"), allowHosts...),
		HTTPTimeout:    viper.GetDuration("http.timeout"),
	}
	return sandbox.New(cfg)
}

// newRuntime builds a runtime backed by the configured sandbox.
func newRuntime(opts ...lisp.Option) (*lisp.Runtime, error) {
	sb, err := newSandbox()
	if err != nil {
		return nil, err
	}
	opts = append([]lisp.Option{lisp.WithSandbox(sb)}, opts...)
	return lisp.NewRuntime(opts...), nil
}

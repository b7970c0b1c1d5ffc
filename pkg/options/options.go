// Package options defines pflag-backed configuration structs for the
// controller manager binary, composed into cliflag.NamedFlagSets, plus a
// viper-backed loader (viper.go) that feeds the same struct fields from
// the environment-variable surface.
package options

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/pflag"
)

// IOptions is implemented by every option struct in this package so they
// can be validated and flag-registered uniformly by the composition root.
type IOptions interface {
	// Validate checks the struct's current values, returning one error per
	// problem found.
	Validate() []error

	// AddFlags registers the struct's fields onto fs. prefixes lets a
	// caller namespace the flags; no option struct uses it today.
	AddFlags(fs *pflag.FlagSet, prefixes ...string)
}

// ValidateAddress checks that addr is a well-formed "host:port" pair with
// a numeric port; HttpOptions.Validate uses it for the server address.
func ValidateAddress(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}
	if _, err := strconv.Atoi(port); err != nil {
		return fmt.Errorf("invalid port in address %q: %w", addr, err)
	}
	_ = host
	return nil
}

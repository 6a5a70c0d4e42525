// Package fasttrack detects and extracts FastTrack permit portal pages.
package fasttrack

import (
	_ "embed"
	"fmt"

	"github.com/jonesrussell/north-cloud/permit-scraper/internal/platform"
)

// Name is the platform tag stored on FastTrack records.
const Name = "fasttrack"

//go:embed profile.yaml
var profileYAML []byte

// Profile returns a fresh copy of the embedded FastTrack profile.
func Profile() (*platform.Profile, error) {
	p, err := platform.ParseProfile(profileYAML)
	if err != nil {
		return nil, fmt.Errorf("fasttrack: %w", err)
	}
	return p, nil
}

// New builds the FastTrack plugin.
func New(opts ...platform.ProfileOption) (*platform.ProfilePlugin, error) {
	profile, err := Profile()
	if err != nil {
		return nil, err
	}
	return platform.NewProfilePlugin(profile, opts...)
}

// MustNew is New for package initialization; it panics on a broken profile.
func MustNew(opts ...platform.ProfileOption) *platform.ProfilePlugin {
	p, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Package channel resolves which conda channels a build reads from and which
// single channel it publishes to, given the visibility and stability of the
// package being built.
//
// Channels are ordered: local and restricted channels come first, followed by
// increasingly public and stable fallbacks. The upload channel is always a
// member of the resolved read list.
package channel

import (
	"strings"

	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/errors"
)

const (
	// DefaultServer is the externally reachable server hosting our conda
	// channels and documentation.
	DefaultServer = "http://www.idiap.ch"

	// IntranetServer is the internal mirror of DefaultServer, reachable only
	// from CI runners inside the lab network.
	IntranetServer = "http://bobconda.lab.idiap.ch"

	// FallbackChannel is the platform-default channel appended last to every
	// resolved read list.
	FallbackChannel = "defaults"

	// DependentChannel is the auxiliary community channel appended when a
	// build needs third-party dependencies not hosted on our own channels.
	DependentChannel = "conda-forge"

	// LabelBeta is the conda label under which prerelease builds are
	// published. The root label (stable) is the empty string.
	LabelBeta = "beta"
)

// Channel is a conda package repository endpoint. The label distinguishes
// the root (stable) listing from prerelease listings on the same URL space.
type Channel struct {
	// URL is the full channel address, including any /label/<name> suffix.
	URL string

	// Label is "" for the root (stable) channel and LabelBeta for
	// prerelease channels.
	Label string
}

// IsBeta tells whether the channel holds prerelease builds.
func (c Channel) IsBeta() bool { return c.Label == LabelBeta }

// Params configures channel resolution for one package build.
type Params struct {
	// Public indicates the package's project is publicly visible. Private
	// packages read from (and publish to) the private channel space.
	Public bool

	// Stable indicates the build is a stable release. Stable resolution
	// excludes every beta channel.
	Stable bool

	// Server is the base address of the server hosting the channels.
	// Defaults to DefaultServer when empty.
	Server string

	// Intranet indicates the resolution happens inside the lab network.
	// Private channels can only be reached from the intranet; requesting
	// them with Intranet=false is a configuration error.
	Intranet bool

	// Group is the package namespace (e.g. "bob", "beat") this package
	// belongs to. It parametrizes dependent channels and documentation URLs.
	Group string

	// AddDependentChannels appends auxiliary dependency channels after the
	// platform fallback. Only the single-package build command sets this;
	// the multi-package pipeline never does.
	AddDependentChannels bool
}

func (p *Params) applyDefaults() {
	if p.Server == "" {
		p.Server = DefaultServer
	}
	if p.Group == "" {
		p.Group = "bob"
	}
}

// Set is the result of a resolution: the ordered list of channels a build
// may read from, and the single channel the resulting artifact is
// published to.
type Set struct {
	// Read is the ordered channel search list, never empty. Priority
	// decreases with position.
	Read []Channel

	// Upload is the publish destination. Exactly one channel is ever
	// selected; it is always a member of Read.
	Upload Channel
}

// externalize rewrites intranet hosts to their externally reachable form.
// URLs already pointing at the external server are left untouched.
func externalize(url string) string {
	return strings.Replace(url, IntranetServer, DefaultServer, 1)
}

// validate rejects parameter combinations that can never work.
func (p *Params) validate() error {
	if !p.Public && !p.Intranet {
		return errors.Newf(errors.CodeInvalidConfig,
			"cannot request private channels with intranet=false (server=%s) - these are conflicting options",
			p.Server)
	}
	return nil
}

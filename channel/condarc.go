package channel

import (
	"gopkg.in/yaml.v3"

	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/errors"
)

// condarc models the subset of a conda configuration file we generate or
// rewrite: the channel search list plus a few fixed build settings.
type condarc struct {
	Channels        []string `yaml:"channels"`
	AnacondaUpload  bool     `yaml:"anaconda_upload"`
	AlwaysYes       bool     `yaml:"always_yes"`
	ChannelPriority string   `yaml:"channel_priority"`
	ShowChannelURLs bool     `yaml:"show_channel_urls"`
	Quiet           bool     `yaml:"quiet"`
}

// CondarcYAML renders a condarc document carrying the resolved read
// channels, suitable for handing to conda-build. Upload through conda is
// always disabled: publication is the deployment gate's responsibility.
func CondarcYAML(s *Set) ([]byte, error) {
	doc := condarc{
		Channels:        s.URLs(),
		AnacondaUpload:  false,
		AlwaysYes:       true,
		ChannelPriority: "strict",
		ShowChannelURLs: true,
		Quiet:           true,
	}

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "rendering condarc")
	}
	return out, nil
}

// ParseCondarcChannels extracts the channel list from an existing condarc
// document, preserving order. Returns an empty list when the document has
// no channels section.
func ParseCondarcChannels(data []byte) ([]string, error) {
	var doc struct {
		Channels []string `yaml:"channels"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "parsing condarc")
	}
	return doc.Channels, nil
}

package channel

// rule is one row of the resolution table: a condition over the resolution
// parameters and the channel it contributes when the condition holds.
// Rows are evaluated once, in order, most specific and most restrictive
// first.
type rule struct {
	when    func(p Params) bool
	channel func(p Params) Channel
}

func privateBeta(p Params) Channel {
	return Channel{URL: p.Server + "/private/conda/label/beta", Label: LabelBeta}
}

func privateRoot(p Params) Channel {
	return Channel{URL: p.Server + "/private/conda"}
}

func publicBeta(p Params) Channel {
	return Channel{URL: p.Server + "/public/conda/label/beta", Label: LabelBeta}
}

func publicRoot(p Params) Channel {
	return Channel{URL: p.Server + "/public/conda"}
}

// readRules is the ordered construction table for the read-channel list.
// Beta channels are present exactly when the build is not stable; private
// channels exactly when the project is not public. The platform fallback
// closes the list so it is never empty.
var readRules = []rule{
	{
		when:    func(p Params) bool { return !p.Public && !p.Stable },
		channel: privateBeta,
	},
	{
		when:    func(p Params) bool { return !p.Public },
		channel: privateRoot,
	},
	{
		when:    func(p Params) bool { return !p.Stable },
		channel: publicBeta,
	},
	{
		when:    func(p Params) bool { return true },
		channel: publicRoot,
	},
	{
		when:    func(p Params) bool { return true },
		channel: func(Params) Channel { return Channel{URL: FallbackChannel} },
	},
}

// Resolve computes the channel set for the given parameters.
//
// The read list follows the priority rules encoded in readRules. When the
// resolution happens outside the intranet, channel hosts are rewritten to
// their externally reachable form. Dependent channels, when requested, are
// appended after the platform fallback.
func Resolve(p Params) (*Set, error) {
	p.applyDefaults()
	if err := p.validate(); err != nil {
		return nil, err
	}

	var read []Channel
	for _, r := range readRules {
		if r.when(p) {
			read = append(read, r.channel(p))
		}
	}

	if p.AddDependentChannels {
		read = append(read, Channel{URL: DependentChannel})
	}

	if !p.Intranet {
		for i := range read {
			read[i].URL = externalize(read[i].URL)
		}
	}

	upload := uploadChannel(p)
	if !p.Intranet {
		upload.URL = externalize(upload.URL)
	}

	return &Set{Read: read, Upload: upload}, nil
}

// uploadChannel selects the single publish destination keyed by
// (visibility, stability). Never a list.
func uploadChannel(p Params) Channel {
	switch {
	case !p.Public && !p.Stable:
		return privateBeta(p)
	case !p.Public && p.Stable:
		return privateRoot(p)
	case p.Public && !p.Stable:
		return publicBeta(p)
	default:
		return publicRoot(p)
	}
}

// URLs returns the read-channel addresses in priority order.
func (s *Set) URLs() []string {
	urls := make([]string, 0, len(s.Read))
	for _, c := range s.Read {
		urls = append(urls, c.URL)
	}
	return urls
}

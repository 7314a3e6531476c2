package channel

import "strings"

// DocServers returns the ordered documentation base URLs matching the
// channel resolution rules: restricted locations first, then public
// fallbacks, with prerelease locations present only for non-stable builds.
//
// The result is used to point documentation cross-referencing at the same
// visibility tier the package itself resolves against.
func DocServers(p Params) []string {
	p.applyDefaults()

	var urls []string
	if !p.Public {
		if !p.Stable {
			urls = append(urls, p.Server+"/private/docs-beta")
		}
		urls = append(urls, p.Server+"/private/docs")
	}
	if !p.Stable {
		urls = append(urls, p.Server+"/software/"+p.Group+"/docs-beta")
	}
	urls = append(urls, p.Server+"/software/"+p.Group+"/docs")

	if !p.Intranet {
		for i := range urls {
			urls[i] = externalize(urls[i])
		}
	}
	return urls
}

// DocServerSetup joins the documentation base URLs into the single
// environment value consumed by the documentation builder.
func DocServerSetup(p Params) string {
	return strings.Join(DocServers(p), "|")
}

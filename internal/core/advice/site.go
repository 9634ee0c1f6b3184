package advice

// Site names an advisable call.
type Site string

// Advisable call sites.
const (
	// SiteFromSpec is entity construction from a spec dictionary.
	// Args: kind, parent, name, spec.
	SiteFromSpec Site = "fromspec"

	// SiteIdentity runs on each freshly built entity. Args: entity.
	SiteIdentity Site = "identity"

	// SiteToSpec is entity serialisation. Args: entity.
	SiteToSpec Site = "tospec"

	// SiteParseIdentifier parses identifier text. Args: text.
	SiteParseIdentifier Site = "parse-identifier"

	// SiteRenderIdentifier renders an identifier. Args: identifier.
	SiteRenderIdentifier Site = "render-identifier"

	// SiteStorage opens a storage. Args: storage, as; Kwargs: write.
	SiteStorage Site = "storage"

	// SiteLoad runs a loader. Args: loader, handle, as.
	SiteLoad Site = "load"

	// SiteWrite runs a writer. Args: writer, handle, value.
	SiteWrite Site = "write"
)

// AllSites returns every advisable site.
func AllSites() []Site {
	return []Site{
		SiteFromSpec, SiteIdentity, SiteToSpec,
		SiteParseIdentifier, SiteRenderIdentifier,
		SiteStorage, SiteLoad, SiteWrite,
	}
}

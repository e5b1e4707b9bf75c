package provider

import "github.com/packraft/packraft/pkg/host"

// OptionCategory selects one dynamic option set.
type OptionCategory string

const (
	OptionsPackage OptionCategory = "package"
	OptionsSource  OptionCategory = "source"
	OptionsInstall OptionCategory = "install"
)

// Option value kinds.
const (
	KindString      = "string"
	KindStringArray = "string-array"
	KindSwitch      = "switch"
	KindPath        = "path"
)

// DynamicOptions lists the options a host should expose for one operation
// category. Hosts materialize these as flags or form fields.
func DynamicOptions(cat OptionCategory) []host.Option {
	switch cat {
	case OptionsPackage:
		return []host.Option{
			{Category: "package", Name: "required-version", Kind: KindString},
			{Category: "package", Name: "minimum-version", Kind: KindString},
			{Category: "package", Name: "maximum-version", Kind: KindString},
			{Category: "package", Name: "all-versions", Kind: KindSwitch},
			{Category: "package", Name: "prerelease", Kind: KindSwitch},
			{Category: "package", Name: "unlisted", Kind: KindSwitch},
			{Category: "package", Name: "tag", Kind: KindStringArray},
			{Category: "package", Name: "contains", Kind: KindString},
		}
	case OptionsSource:
		return []host.Option{
			{Category: "source", Name: "location", Kind: KindPath, Required: true},
			{Category: "source", Name: "trusted", Kind: KindSwitch},
			{Category: "source", Name: "skip-validate", Kind: KindSwitch},
		}
	case OptionsInstall:
		return []host.Option{
			{Category: "install", Name: "destination", Kind: KindPath},
			{Category: "install", Name: "save-mode", Kind: KindString, Values: []string{"full", "minimal", "none"}},
			{Category: "install", Name: "force", Kind: KindSwitch},
			{Category: "install", Name: "skip-dependencies", Kind: KindSwitch},
		}
	}
	return nil
}

// YieldOptions delivers one category's options through the session.
func YieldOptions(ses host.Session, cat OptionCategory) {
	ses = host.OrNop(ses)
	for _, o := range DynamicOptions(cat) {
		if !ses.YieldOption(o) {
			return
		}
	}
}

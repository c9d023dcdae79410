package catalog

import (
	"context"

	"github.com/Masterminds/semver/v3"
)

const versionKey = "/about/version.xml"

var (
	// servers without /about/version predate the endpoint (2.3).
	fallbackVersion = semver.MustParse("2.2.0")
	workspaceScoped = semver.MustParse("2.2.0")
)

// Version reads the GeoServer version from /about/version.
func (c *Catalog) Version(ctx context.Context) (*semver.Version, error) {
	document, err := c.GetXML(ctx, versionKey)
	if err != nil {
		if isMissing(err) {
			return fallbackVersion, nil
		}
		return nil, err
	}

	for _, resource := range document.Root().SelectElements("resource") {
		if resource.SelectAttrValue("name", "") != "GeoServer" {
			continue
		}
		raw := childText(resource, "Version")
		version, err := semver.NewVersion(raw)
		if err != nil {
			return nil, parsingError("unrecognized GeoServer version "+raw, err)
		}
		return version, nil
	}
	return nil, parsingError("version document has no GeoServer resource", nil)
}

// globalNames reports whether style and group names are unique across the
// whole catalog rather than per workspace.
func (c *Catalog) globalNames(ctx context.Context) (bool, error) {
	version, err := c.Version(ctx)
	if err != nil {
		return false, err
	}
	return version.LessThan(workspaceScoped), nil
}

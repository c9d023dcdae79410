package catalog

import (
	"github.com/planetfederal/gsconfig/entity"
)

// Document vocabularies. Field order is the element order written on save.
var (
	workspaceKind = entity.NewKind("workspace",
		entity.ReadOnly(entity.StringField("name", "name")),
		entity.BoolField("isolated", "isolated"),
	)

	namespaceKind = entity.NewKind("namespace",
		entity.Mandatory(entity.StringField("prefix", "prefix")),
		entity.StringField("uri", "uri"),
		entity.BoolField("isolated", "isolated"),
	)

	dataStoreKind = entity.NewKind("dataStore",
		entity.Mandatory(entity.StringField("name", "name")),
		entity.StringField("description", "description"),
		entity.StringField("type", "type"),
		enabledField(),
		entity.ReadOnly(entity.StringField("workspace", "workspace/name")),
		entity.DictField("connectionParameters", "connectionParameters"),
	)

	coverageStoreKind = entity.NewKind("coverageStore",
		entity.Mandatory(entity.StringField("name", "name")),
		entity.StringField("description", "description"),
		entity.StringField("type", "type"),
		enabledField(),
		entity.ReadOnly(entity.StringField("workspace", "workspace/name")),
		entity.StringField("url", "url"),
	)

	wmsStoreKind = entity.NewKind("wmsStore",
		entity.Mandatory(entity.StringField("name", "name")),
		entity.StringField("description", "description"),
		entity.StringField("type", "type"),
		enabledField(),
		entity.ReadOnly(entity.StringField("workspace", "workspace/name")),
		entity.StringField("capabilitiesURL", "capabilitiesURL"),
		entity.StringField("user", "user"),
		entity.StringField("password", "password"),
		entity.IntField("maxConnections", "maxConnections"),
		entity.IntField("readTimeout", "readTimeout"),
		entity.IntField("connectTimeout", "connectTimeout"),
	)

	featureTypeKind = entity.NewKind("featureType", resourceFields(
		entity.IntField("maxFeatures", "maxFeatures"),
		entity.IntField("numDecimals", "numDecimals"),
		entity.StringField("cqlFilter", "cqlFilter"),
	)...)

	coverageKind = entity.NewKind("coverage", resourceFields(
		entity.StringField("nativeFormat", "nativeFormat"),
		entity.StringListField("requestSRS", "requestSRS", "string"),
		entity.StringListField("responseSRS", "responseSRS", "string"),
		entity.StringListField("supportedFormats", "supportedFormats", "string"),
	)...)

	wmsLayerKind = entity.NewKind("wmsLayer", resourceFields()...)

	layerKind = entity.NewKind("layer",
		entity.ReadOnly(entity.StringField("name", "name")),
		entity.StringField("path", "path"),
		entity.ReadOnly(entity.StringField("type", "type")),
		entity.StyleRefField("defaultStyle", "defaultStyle"),
		entity.StyleRefListField("styles", "styles"),
		entity.ReadOnly(entity.StringField("resource", "resource/name")),
		enabledField(),
		advertisedField(),
		entity.BoolField("opaque", "opaque"),
		entity.BoolField("queryable", "queryable"),
		entity.AttributionField("attribution", "attribution"),
	)

	layerGroupKind = entity.NewKind("layerGroup",
		entity.Mandatory(entity.StringField("name", "name")),
		entity.StringField("mode", "mode"),
		entity.StringField("title", "title"),
		entity.StringField("abstract", "abstractTxt"),
		entity.StringField("workspace", "workspace/name"),
		entity.NameListField("layers", "publishables", "published", "layer"),
		entity.NameListField("styles", "styles", "style", ""),
		entity.BBoxField("bounds", "bounds"),
	)

	styleKind = entity.NewKind("style",
		entity.Mandatory(entity.StringField("name", "name")),
		entity.ReadOnly(entity.StringField("workspace", "workspace/name")),
		entity.StringField("format", "format"),
		entity.StringField("version", "languageVersion/version"),
		entity.StringField("filename", "filename"),
	)
)

func enabledField() entity.Field {
	return entity.Mandatory(entity.WithDefault(entity.BoolField("enabled", "enabled"), true))
}

func advertisedField() entity.Field {
	return entity.Mandatory(entity.WithDefault(entity.BoolField("advertised", "advertised"), true))
}

func resourceFields(extra ...entity.Field) []entity.Field {
	fields := []entity.Field{
		entity.Mandatory(entity.StringField("name", "name")),
		entity.StringField("nativeName", "nativeName"),
		entity.StringField("title", "title"),
		entity.StringField("abstract", "abstract"),
		entity.StringListField("keywords", "keywords", "string"),
		entity.MetadataLinksField("metadataLinks", "metadataLinks"),
		entity.StringField("nativeCRS", "nativeCRS"),
		entity.StringField("srs", "srs"),
		entity.BBoxField("nativeBoundingBox", "nativeBoundingBox"),
		entity.BBoxField("latLonBoundingBox", "latLonBoundingBox"),
		entity.StringField("projectionPolicy", "projectionPolicy"),
		enabledField(),
		advertisedField(),
		entity.MetadataField("metadata", "metadata"),
		entity.ReadOnly(entity.StringField("store", "store/name")),
	}
	return append(fields, extra...)
}

package entity

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

const (
	metadataKeyTime         = "time"
	metadataKeyElevation    = "elevation"
	metadataKeyCustomPrefix = "custom_dimension"
	metadataKeyVirtualTable = "JDBC_VIRTUAL_TABLE"
)

func StringField(name string, path string) Field {
	return Field{Name: name, Read: readText(path), Write: writeString(path)}
}

func BoolField(name string, path string) Field {
	return Field{Name: name, Read: readBool(path), Write: writeBool(path)}
}

func IntField(name string, path string) Field {
	return Field{Name: name, Read: readInt(path), Write: writeInt(path)}
}

func StringListField(name string, path string, item string) Field {
	return Field{Name: name, Read: readStringList(path, item), Write: writeStringList(path, item)}
}

func DictField(name string, path string) Field {
	return Field{Name: name, Read: readDict(path), Write: writeDict(path)}
}

func BBoxField(name string, path string) Field {
	return Field{Name: name, Read: readBBox(path), Write: writeBBox(path)}
}

func MetadataField(name string, path string) Field {
	return Field{Name: name, Read: readMetadata(path), Write: writeMetadata(path)}
}

func AttributionField(name string, path string) Field {
	return Field{Name: name, Read: readAttribution(path), Write: writeAttribution(path)}
}

func StyleRefField(name string, path string) Field {
	return Field{Name: name, Read: readStyleRef(path), Write: writeStyleRef(path)}
}

func StyleRefListField(name string, path string) Field {
	return Field{Name: name, Read: readStyleRefList(path), Write: writeStyleRefList(path)}
}

// NameListField holds the names of repeated <item><name/></item> children.
// An empty name is written as an empty item. itemType, when set, is the
// type attribute of each written item.
func NameListField(name string, path string, item string, itemType string) Field {
	return Field{Name: name, Read: readNameList(path, item), Write: writeNameList(path, item, itemType)}
}

func MetadataLinksField(name string, path string) Field {
	return Field{Name: name, Read: readMetadataLinks(path), Write: writeMetadataLinks(path)}
}

// BoolString is the canonical wire form of a boolean value. true and any
// string other than "false" (and the empty string) encode as "true".
func BoolString(value any) (string, error) {
	switch typed := value.(type) {
	case bool:
		return strconv.FormatBool(typed), nil
	case string:
		if typed != "" && typed != "false" {
			return "true", nil
		}
		return "false", nil
	default:
		return "", interpretationError(fmt.Sprintf("cannot interpret %T as a boolean", value), nil)
	}
}

func ParseBool(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), "true")
}

func readText(path string) Reader {
	return func(root *etree.Element) (any, error) {
		node := root.FindElement(path)
		if node == nil {
			return nil, nil
		}
		return node.Text(), nil
	}
}

func readBool(path string) Reader {
	return func(root *etree.Element) (any, error) {
		node := root.FindElement(path)
		if node == nil {
			return nil, nil
		}
		return ParseBool(node.Text()), nil
	}
}

func readInt(path string) Reader {
	return func(root *etree.Element) (any, error) {
		node := root.FindElement(path)
		if node == nil || strings.TrimSpace(node.Text()) == "" {
			return nil, nil
		}
		parsed, err := strconv.Atoi(strings.TrimSpace(node.Text()))
		if err != nil {
			return nil, err
		}
		return parsed, nil
	}
}

func readStringList(path string, item string) Reader {
	return func(root *etree.Element) (any, error) {
		node := root.FindElement(path)
		if node == nil {
			return nil, nil
		}
		values := []string{}
		for _, child := range node.SelectElements(item) {
			values = append(values, child.Text())
		}
		return values, nil
	}
}

func readDict(path string) Reader {
	return func(root *etree.Element) (any, error) {
		node := root.FindElement(path)
		if node == nil {
			return nil, nil
		}
		values := map[string]string{}
		for _, child := range node.SelectElements("entry") {
			values[child.SelectAttrValue("key", "")] = child.Text()
		}
		return values, nil
	}
}

func readBBox(path string) Reader {
	return func(root *etree.Element) (any, error) {
		node := root.FindElement(path)
		if node == nil {
			return nil, nil
		}
		bounds := make([]string, 0, 4)
		for _, tag := range []string{"minx", "maxx", "miny", "maxy"} {
			child := node.SelectElement(tag)
			if child == nil {
				return nil, nil
			}
			bounds = append(bounds, child.Text())
		}
		bbox := BBox{MinX: bounds[0], MaxX: bounds[1], MinY: bounds[2], MaxY: bounds[3]}
		if crs := node.SelectElement("crs"); crs != nil {
			bbox.CRS = crs.Text()
		}
		return bbox, nil
	}
}

func readMetadata(path string) Reader {
	return func(root *etree.Element) (any, error) {
		node := root.FindElement(path)
		if node == nil {
			return nil, nil
		}
		metadata := Metadata{}
		for _, entry := range node.SelectElements("entry") {
			key := entry.SelectAttrValue("key", "")
			switch {
			case isDimensionKey(key):
				if info := entry.SelectElement("dimensionInfo"); info != nil {
					metadata[key] = parseDimensionInfo(info)
					continue
				}
			case key == metadataKeyVirtualTable:
				if table := entry.SelectElement("virtualTable"); table != nil {
					metadata[key] = parseVirtualTable(table)
					continue
				}
			}
			metadata[key] = entry.Text()
		}
		return metadata, nil
	}
}

func isDimensionKey(key string) bool {
	return key == metadataKeyTime || key == metadataKeyElevation || strings.HasPrefix(key, metadataKeyCustomPrefix)
}

func parseDimensionInfo(node *etree.Element) *DimensionInfo {
	info := &DimensionInfo{
		Enabled:      ParseBool(childText(node, "enabled")),
		Attribute:    childText(node, "attribute"),
		Presentation: childText(node, "presentation"),
		Resolution:   childText(node, "resolution"),
		Units:        childText(node, "units"),
		UnitSymbol:   childText(node, "unitSymbol"),
	}
	if defaults := node.SelectElement("defaultValue"); defaults != nil {
		info.DefaultStrategy = childText(defaults, "strategy")
		info.DefaultValue = childText(defaults, "referenceValue")
	}
	return info
}

func parseVirtualTable(node *etree.Element) *VirtualTable {
	table := &VirtualTable{
		Name:      childText(node, "name"),
		SQL:       childText(node, "sql"),
		EscapeSQL: ParseBool(childText(node, "escapeSql")),
		KeyColumn: childText(node, "keyColumn"),
	}
	if geometry := node.SelectElement("geometry"); geometry != nil {
		table.Geometry = &VirtualTableGeometry{
			Name: childText(geometry, "name"),
			Type: childText(geometry, "type"),
			SRID: childText(geometry, "srid"),
		}
	}
	for _, parameter := range node.SelectElements("parameter") {
		table.Parameters = append(table.Parameters, VirtualTableParameter{
			Name:            childText(parameter, "name"),
			DefaultValue:    childText(parameter, "defaultValue"),
			RegexpValidator: childText(parameter, "regexpValidator"),
		})
	}
	return table
}

func readAttribution(path string) Reader {
	return func(root *etree.Element) (any, error) {
		node := root.FindElement(path)
		if node == nil {
			return nil, nil
		}
		return Attribution{
			Title:      childText(node, "title"),
			Href:       childText(node, "href"),
			LogoURL:    childText(node, "logoURL"),
			LogoType:   childText(node, "logoType"),
			LogoWidth:  childText(node, "logoWidth"),
			LogoHeight: childText(node, "logoHeight"),
		}, nil
	}
}

func readStyleRef(path string) Reader {
	return func(root *etree.Element) (any, error) {
		node := root.FindElement(path)
		if node == nil {
			return nil, nil
		}
		return parseStyleRef(node), nil
	}
}

func readStyleRefList(path string) Reader {
	return func(root *etree.Element) (any, error) {
		node := root.FindElement(path)
		if node == nil {
			return nil, nil
		}
		refs := []StyleRef{}
		for _, child := range node.SelectElements("style") {
			refs = append(refs, parseStyleRef(child))
		}
		return refs, nil
	}
}

// parseStyleRef accepts both <name>ws:style</name> and separate
// <name>/<workspace> children.
func parseStyleRef(node *etree.Element) StyleRef {
	ref := StyleRef{Name: childText(node, "name"), Workspace: childText(node, "workspace")}
	if ref.Workspace == "" {
		if prefix, name, found := strings.Cut(ref.Name, ":"); found {
			ref.Workspace = prefix
			ref.Name = name
		}
	}
	return ref
}

func readNameList(path string, item string) Reader {
	return func(root *etree.Element) (any, error) {
		node := root.FindElement(path)
		if node == nil {
			return nil, nil
		}
		names := []string{}
		for _, child := range node.SelectElements(item) {
			names = append(names, childText(child, "name"))
		}
		return names, nil
	}
}

func readMetadataLinks(path string) Reader {
	return func(root *etree.Element) (any, error) {
		node := root.FindElement(path)
		if node == nil {
			return nil, nil
		}
		links := []MetadataLink{}
		for _, child := range node.SelectElements("metadataLink") {
			links = append(links, MetadataLink{
				Type:         childText(child, "type"),
				MetadataType: childText(child, "metadataType"),
				Content:      childText(child, "content"),
			})
		}
		return links, nil
	}
}

func childText(node *etree.Element, tag string) string {
	child := node.SelectElement(tag)
	if child == nil {
		return ""
	}
	return child.Text()
}

// ensurePath creates the nested elements named by a slash separated path.
func ensurePath(root *etree.Element, path string) *etree.Element {
	current := root
	for _, part := range strings.Split(path, "/") {
		next := current.SelectElement(part)
		if next == nil {
			next = current.CreateElement(part)
		}
		current = next
	}
	return current
}

func writeString(path string) Writer {
	return func(root *etree.Element, value any) error {
		text, err := stringValue(value)
		if err != nil {
			return err
		}
		ensurePath(root, path).SetText(text)
		return nil
	}
}

func stringValue(value any) (string, error) {
	switch typed := value.(type) {
	case string:
		return typed, nil
	case fmt.Stringer:
		return typed.String(), nil
	case int:
		return strconv.Itoa(typed), nil
	default:
		return "", interpretationError(fmt.Sprintf("cannot interpret %T as text", value), nil)
	}
}

func writeBool(path string) Writer {
	return func(root *etree.Element, value any) error {
		text, err := BoolString(value)
		if err != nil {
			return err
		}
		ensurePath(root, path).SetText(text)
		return nil
	}
}

func writeInt(path string) Writer {
	return func(root *etree.Element, value any) error {
		switch typed := value.(type) {
		case int:
			ensurePath(root, path).SetText(strconv.Itoa(typed))
		case string:
			if _, err := strconv.Atoi(strings.TrimSpace(typed)); err != nil {
				return interpretationError(fmt.Sprintf("cannot interpret %q as an integer", typed), err)
			}
			ensurePath(root, path).SetText(strings.TrimSpace(typed))
		default:
			return interpretationError(fmt.Sprintf("cannot interpret %T as an integer", value), nil)
		}
		return nil
	}
}

func writeStringList(path string, item string) Writer {
	return func(root *etree.Element, value any) error {
		values, ok := value.([]string)
		if !ok {
			return interpretationError(fmt.Sprintf("cannot interpret %T as a string list", value), nil)
		}
		node := ensurePath(root, path)
		for _, entry := range values {
			node.CreateElement(item).SetText(entry)
		}
		return nil
	}
}

func writeDict(path string) Writer {
	return func(root *etree.Element, value any) error {
		values, ok := value.(map[string]string)
		if !ok {
			return interpretationError(fmt.Sprintf("cannot interpret %T as a dictionary", value), nil)
		}
		node := ensurePath(root, path)
		for _, key := range sortedKeys(values) {
			entry := node.CreateElement("entry")
			entry.CreateAttr("key", key)
			entry.SetText(values[key])
		}
		return nil
	}
}

func writeBBox(path string) Writer {
	return func(root *etree.Element, value any) error {
		var bbox BBox
		switch typed := value.(type) {
		case BBox:
			bbox = typed
		case *BBox:
			if typed == nil {
				return nil
			}
			bbox = *typed
		default:
			return interpretationError(fmt.Sprintf("cannot interpret %T as a bounding box", value), nil)
		}
		node := ensurePath(root, path)
		node.CreateElement("minx").SetText(bbox.MinX)
		node.CreateElement("maxx").SetText(bbox.MaxX)
		node.CreateElement("miny").SetText(bbox.MinY)
		node.CreateElement("maxy").SetText(bbox.MaxY)
		if bbox.CRS != "" {
			crs := node.CreateElement("crs")
			if strings.HasPrefix(strings.ToUpper(bbox.CRS), "EPSG:") {
				crs.SetText(bbox.CRS)
			} else {
				crs.CreateAttr("class", "projected")
				crs.SetText(bbox.CRS)
			}
		}
		return nil
	}
}

func writeMetadata(path string) Writer {
	return func(root *etree.Element, value any) error {
		metadata, ok := value.(Metadata)
		if !ok {
			if plain, isMap := value.(map[string]any); isMap {
				metadata = Metadata(plain)
			} else {
				return interpretationError(fmt.Sprintf("cannot interpret %T as metadata", value), nil)
			}
		}

		node := ensurePath(root, path)
		keys := make([]string, 0, len(metadata))
		for key := range metadata {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			entry := node.CreateElement("entry")
			entry.CreateAttr("key", key)
			switch typed := metadata[key].(type) {
			case *DimensionInfo:
				writeDimensionInfo(entry, typed)
			case DimensionInfo:
				writeDimensionInfo(entry, &typed)
			case *VirtualTable:
				writeVirtualTable(entry, typed)
			case VirtualTable:
				writeVirtualTable(entry, &typed)
			default:
				text, err := stringValue(typed)
				if err != nil {
					return interpretationError(fmt.Sprintf("metadata entry %q", key), err)
				}
				entry.SetText(text)
			}
		}
		return nil
	}
}

func writeDimensionInfo(entry *etree.Element, info *DimensionInfo) {
	node := entry.CreateElement("dimensionInfo")
	node.CreateElement("enabled").SetText(strconv.FormatBool(info.Enabled))
	if info.Attribute != "" {
		node.CreateElement("attribute").SetText(info.Attribute)
	}
	if info.Presentation != "" {
		node.CreateElement("presentation").SetText(info.Presentation)
	}
	if info.Resolution != "" {
		node.CreateElement("resolution").SetText(info.Resolution)
	}
	if info.Units != "" {
		node.CreateElement("units").SetText(info.Units)
	}
	if info.UnitSymbol != "" {
		node.CreateElement("unitSymbol").SetText(info.UnitSymbol)
	}
	if info.DefaultStrategy != "" {
		defaults := node.CreateElement("defaultValue")
		defaults.CreateElement("strategy").SetText(info.DefaultStrategy)
		if info.DefaultValue != "" {
			defaults.CreateElement("referenceValue").SetText(info.DefaultValue)
		}
	}
}

func writeVirtualTable(entry *etree.Element, table *VirtualTable) {
	node := entry.CreateElement("virtualTable")
	node.CreateElement("name").SetText(table.Name)
	node.CreateElement("sql").SetText(table.SQL)
	node.CreateElement("escapeSql").SetText(strconv.FormatBool(table.EscapeSQL))
	if table.KeyColumn != "" {
		node.CreateElement("keyColumn").SetText(table.KeyColumn)
	}
	if table.Geometry != nil {
		geometry := node.CreateElement("geometry")
		geometry.CreateElement("name").SetText(table.Geometry.Name)
		geometry.CreateElement("type").SetText(table.Geometry.Type)
		geometry.CreateElement("srid").SetText(table.Geometry.SRID)
	}
	for _, parameter := range table.Parameters {
		param := node.CreateElement("parameter")
		param.CreateElement("name").SetText(parameter.Name)
		if parameter.DefaultValue != "" {
			param.CreateElement("defaultValue").SetText(parameter.DefaultValue)
		}
		if parameter.RegexpValidator != "" {
			param.CreateElement("regexpValidator").SetText(parameter.RegexpValidator)
		}
	}
}

func writeAttribution(path string) Writer {
	return func(root *etree.Element, value any) error {
		attribution, ok := value.(Attribution)
		if !ok {
			return interpretationError(fmt.Sprintf("cannot interpret %T as an attribution", value), nil)
		}
		node := ensurePath(root, path)
		for _, pair := range [][2]string{
			{"title", attribution.Title},
			{"href", attribution.Href},
			{"logoURL", attribution.LogoURL},
			{"logoType", attribution.LogoType},
			{"logoWidth", attribution.LogoWidth},
			{"logoHeight", attribution.LogoHeight},
		} {
			if pair[1] != "" {
				node.CreateElement(pair[0]).SetText(pair[1])
			}
		}
		return nil
	}
}

func styleRefValue(value any) (StyleRef, error) {
	switch typed := value.(type) {
	case StyleRef:
		return typed, nil
	case string:
		return parseQualified(typed), nil
	default:
		return StyleRef{}, interpretationError(fmt.Sprintf("cannot interpret %T as a style reference", value), nil)
	}
}

func parseQualified(name string) StyleRef {
	if prefix, local, found := strings.Cut(name, ":"); found {
		return StyleRef{Workspace: prefix, Name: local}
	}
	return StyleRef{Name: name}
}

func appendStyleRef(node *etree.Element, ref StyleRef) {
	node.CreateElement("name").SetText(ref.Name)
	if ref.Workspace != "" {
		node.CreateElement("workspace").SetText(ref.Workspace)
	}
}

func writeStyleRef(path string) Writer {
	return func(root *etree.Element, value any) error {
		ref, err := styleRefValue(value)
		if err != nil {
			return err
		}
		appendStyleRef(ensurePath(root, path), ref)
		return nil
	}
}

func writeStyleRefList(path string) Writer {
	return func(root *etree.Element, value any) error {
		var refs []StyleRef
		switch typed := value.(type) {
		case []StyleRef:
			refs = typed
		case []string:
			for _, name := range typed {
				refs = append(refs, parseQualified(name))
			}
		default:
			return interpretationError(fmt.Sprintf("cannot interpret %T as a style list", value), nil)
		}

		node := ensurePath(root, path)
		node.CreateAttr("class", "linked-hash-set")
		for _, ref := range refs {
			appendStyleRef(node.CreateElement("style"), ref)
		}
		return nil
	}
}

func writeNameList(path string, item string, itemType string) Writer {
	return func(root *etree.Element, value any) error {
		names, ok := value.([]string)
		if !ok {
			return interpretationError(fmt.Sprintf("cannot interpret %T as a name list", value), nil)
		}
		node := ensurePath(root, path)
		for _, name := range names {
			child := node.CreateElement(item)
			if itemType != "" {
				child.CreateAttr("type", itemType)
			}
			if name != "" {
				child.CreateElement("name").SetText(name)
			}
		}
		return nil
	}
}

func writeMetadataLinks(path string) Writer {
	return func(root *etree.Element, value any) error {
		links, ok := value.([]MetadataLink)
		if !ok {
			return interpretationError(fmt.Sprintf("cannot interpret %T as metadata links", value), nil)
		}
		node := ensurePath(root, path)
		for _, link := range links {
			child := node.CreateElement("metadataLink")
			child.CreateElement("type").SetText(link.Type)
			child.CreateElement("metadataType").SetText(link.MetadataType)
			child.CreateElement("content").SetText(link.Content)
		}
		return nil
	}
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

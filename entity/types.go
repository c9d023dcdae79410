package entity

// BBox is (minx, maxx, miny, maxy, crs). Values keep the server's text form.
// CRS is empty when the document carries none.
type BBox struct {
	MinX string
	MaxX string
	MinY string
	MaxY string
	CRS  string
}

type DimensionInfo struct {
	Enabled      bool
	Attribute    string
	Presentation string
	Resolution   string
	Units        string
	UnitSymbol   string
	// DefaultStrategy is the defaultValue/strategy element, e.g. MINIMUM.
	DefaultStrategy string
	DefaultValue    string
}

type VirtualTableGeometry struct {
	Name string
	Type string
	SRID string
}

type VirtualTableParameter struct {
	Name            string
	DefaultValue    string
	RegexpValidator string
}

type VirtualTable struct {
	Name       string
	SQL        string
	EscapeSQL  bool
	KeyColumn  string
	Geometry   *VirtualTableGeometry
	Parameters []VirtualTableParameter
}

// Metadata values are *DimensionInfo for time, elevation and custom
// dimensions, *VirtualTable for JDBC_VIRTUAL_TABLE, and string otherwise.
type Metadata map[string]any

type Attribution struct {
	Title      string
	Href       string
	LogoURL    string
	LogoType   string
	LogoWidth  string
	LogoHeight string
}

// StyleRef names a style, optionally scoped to a workspace.
type StyleRef struct {
	Name      string
	Workspace string
}

func (r StyleRef) QualifiedName() string {
	if r.Workspace == "" {
		return r.Name
	}
	return r.Workspace + ":" + r.Name
}

type MetadataLink struct {
	Type         string
	MetadataType string
	Content      string
}

package catalog

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/planetfederal/gsconfig/transport"
)

const mediaTypeTIFF = "image/tiff"

// shapefileParts must all be present in a shapefile upload; prj is optional.
var shapefileParts = []string{"shp", "shx", "dbf"}

// CreateShapefileStore uploads a shapefile as a new data store. files maps
// component extensions ("shp", "shx", "dbf", "prj", ...) to local paths.
func (c *Catalog) CreateShapefileStore(ctx context.Context, name string, workspace any, files map[string]string, overwrite bool, charset string) (*Store, error) {
	if name == "" {
		return nil, validationError("store name is required", nil)
	}
	for _, part := range shapefileParts {
		if _, found := files[part]; !found {
			return nil, uploadError(fmt.Sprintf("shapefile upload for %q is missing its .%s file", name, part), nil)
		}
	}

	workspaceName, err := c.resolveWorkspace(ctx, workspace)
	if err != nil {
		return nil, err
	}
	if err := c.checkStoreAvailable(ctx, workspaceName, name, overwrite); err != nil {
		return nil, err
	}

	archive, err := zipFiles(name, files)
	if err != nil {
		return nil, err
	}

	query := map[string]string{}
	if overwrite {
		query["update"] = "overwrite"
	}
	if charset != "" {
		query["charset"] = charset
	}
	spec := specForStore(DataStoreType)
	if err := c.upload(ctx, storeCollection(workspaceName, spec)+"/"+segment(name)+"/file.shp", query, transport.MediaTypeZip, archive); err != nil {
		return nil, err
	}
	return c.newStore(spec, workspaceName, name), nil
}

// CreateCoverageStoreFromFile uploads raster data as a new coverage store.
// coverageType is the GeoServer format name (GeoTIFF, WorldImage,
// ImageMosaic). A single GeoTIFF or zip file is sent as is; several files
// are zipped together.
func (c *Catalog) CreateCoverageStoreFromFile(ctx context.Context, name string, workspace any, coverageType string, paths []string, overwrite bool) (*Store, error) {
	if name == "" {
		return nil, validationError("store name is required", nil)
	}
	if len(paths) == 0 {
		return nil, uploadError(fmt.Sprintf("coverage upload for %q has no files", name), nil)
	}
	extension, supported := coverageExtensions[strings.ToLower(coverageType)]
	if !supported {
		return nil, validationError(fmt.Sprintf("unsupported coverage type %q", coverageType), nil)
	}

	workspaceName, err := c.resolveWorkspace(ctx, workspace)
	if err != nil {
		return nil, err
	}
	if err := c.checkStoreAvailable(ctx, workspaceName, name, overwrite); err != nil {
		return nil, err
	}

	var (
		body        []byte
		contentType = transport.MediaTypeZip
	)
	single := len(paths) == 1
	switch {
	case single && strings.EqualFold(filepath.Ext(paths[0]), ".zip"):
		body, err = readUpload(paths[0])
	case single && extension == "geotiff":
		body, err = readUpload(paths[0])
		contentType = mediaTypeTIFF
	default:
		body, err = zipPaths(paths)
	}
	if err != nil {
		return nil, err
	}

	query := map[string]string{"configure": "first"}
	if overwrite {
		query["update"] = "overwrite"
	}
	spec := specForStore(CoverageStoreType)
	if err := c.upload(ctx, storeCollection(workspaceName, spec)+"/"+segment(name)+"/file."+extension, query, contentType, body); err != nil {
		return nil, err
	}
	return c.newStore(spec, workspaceName, name), nil
}

var coverageExtensions = map[string]string{
	"geotiff":     "geotiff",
	"worldimage":  "worldimage",
	"imagemosaic": "imagemosaic",
}

func (c *Catalog) checkStoreAvailable(ctx context.Context, workspace string, name string, overwrite bool) error {
	existing, err := c.findStore(ctx, workspace, name)
	if err != nil {
		return err
	}
	if existing != nil && !overwrite {
		return conflictingData(fmt.Sprintf("store %q already exists in workspace %q", name, workspace))
	}
	return nil
}

func (c *Catalog) upload(ctx context.Context, path string, query map[string]string, contentType string, body []byte) error {
	_, err := c.send(ctx, transport.Request{
		Method:      "PUT",
		Path:        path,
		Query:       query,
		ContentType: contentType,
		Body:        body,
	})
	return err
}

func readUpload(path string) ([]byte, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, uploadError(fmt.Sprintf("failed to read %s", path), err)
	}
	return body, nil
}

// zipFiles archives each file as base.ext in a deterministic order.
func zipFiles(base string, files map[string]string) ([]byte, error) {
	extensions := make([]string, 0, len(files))
	for extension := range files {
		extensions = append(extensions, extension)
	}
	sort.Strings(extensions)

	var buffer bytes.Buffer
	archive := zip.NewWriter(&buffer)
	for _, extension := range extensions {
		if err := addToZip(archive, base+"."+extension, files[extension]); err != nil {
			return nil, err
		}
	}
	if err := archive.Close(); err != nil {
		return nil, uploadError("failed to finish upload archive", err)
	}
	return buffer.Bytes(), nil
}

// zipPaths archives each file under its own base name. Mosaic granules and
// indexer files keep the names GeoServer looks for.
func zipPaths(paths []string) ([]byte, error) {
	seen := make(map[string]string, len(paths))
	var buffer bytes.Buffer
	archive := zip.NewWriter(&buffer)
	for _, path := range paths {
		entryName := filepath.Base(path)
		if previous, duplicate := seen[entryName]; duplicate {
			return nil, uploadError(fmt.Sprintf("%s and %s share the archive name %s", previous, path, entryName), nil)
		}
		seen[entryName] = path
		if err := addToZip(archive, entryName, path); err != nil {
			return nil, err
		}
	}
	if err := archive.Close(); err != nil {
		return nil, uploadError("failed to finish upload archive", err)
	}
	return buffer.Bytes(), nil
}

func addToZip(archive *zip.Writer, entryName string, path string) error {
	source, err := os.Open(path)
	if err != nil {
		return uploadError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer source.Close()

	target, err := archive.Create(entryName)
	if err != nil {
		return uploadError(fmt.Sprintf("failed to add %s to upload archive", entryName), err)
	}
	if _, err := io.Copy(target, source); err != nil {
		return uploadError(fmt.Sprintf("failed to archive %s", path), err)
	}
	return nil
}

package demo

import (
	"arcgo/feature"
	"arcgo/geometry"
	"arcgo/io"
	"arcgo/portal"
	"context"
	"fmt"
)

// FeatureLayers searches feature layers and queries the USA states layer. When geojsonFile is set, all states are
// exported into that file.
func (r *Runner) FeatureLayers(ctx context.Context, geojsonFile string) error {
	s, err := r.connect(ctx)
	if err != nil {
		return wrapConnectError(err)
	}

	r.header("Feature Layer Examples")

	r.section("1. Search for Feature Layers")
	r.searchFeatureLayers(ctx, s.gis)

	r.printf("\n")
	r.section("2. Query Feature Layer")
	layer := r.queryFeatureLayer(ctx, feature.NewLayer(r.cfg.Services.StatesLayer, s.gis.Client()))

	if layer != nil {
		r.printf("\n")
		r.section("3. Layer Statistics")
		r.layerStatistics(ctx, layer)

		r.printf("\n")
		r.section("4. Query with Filters")
		r.queryWithFilters(ctx, layer)

		if geojsonFile != "" {
			r.printf("\n")
			r.section("5. Export to GeoJSON")
			r.exportGeoJson(ctx, layer, geojsonFile)
		}
	}

	r.box(
		"Feature layers are powerful for accessing and analyzing",
		"geographic data. You can:",
		"  - Query by attributes",
		"  - Filter by spatial extent",
		"  - Calculate statistics",
		"  - Export to various formats",
	)

	r.completed()
	return nil
}

func (r *Runner) searchFeatureLayers(ctx context.Context, gis *portal.GIS) {
	r.printf("Searching for feature layers...\n")

	items, err := gis.Search(ctx, "earthquake", "Feature Layer", 5)
	if err != nil {
		r.stepFailed("searching feature layers", err)
		return
	}

	r.printf("  Found %d feature layers:\n", len(items))
	for i, item := range items {
		r.printf("    %d. %s\n", i+1, item.Title)
		r.printf("       Owner: %s\n", item.Owner)
		r.printf("       Item ID: %s\n", item.ID)
	}
}

// queryFeatureLayer returns nil when the layer can't be used.
func (r *Runner) queryFeatureLayer(ctx context.Context, layer *feature.Layer) *feature.Layer {
	r.printf("\nQuerying feature layer...\n")

	properties, err := layer.Properties(ctx)
	if err != nil {
		r.stepFailed("querying layer", err)
		return nil
	}

	r.printf("  Layer: %s\n", properties.Name)
	r.printf("  Type: %s\n", properties.GeometryType)
	r.printf("  Fields: %d\n", len(properties.Fields))

	featureSet, err := layer.Query(ctx, feature.Query{ResultRecordCount: 5})
	if err != nil {
		r.stepFailed("querying layer", err)
		return nil
	}

	r.printf("\n  Queried %d features:\n", len(featureSet.Features))
	for i, f := range featureSet.Features {
		r.printf("    %d. %s\n", i+1, f.String("Unknown", "STATE_NAME", "NAME"))
	}

	return layer
}

func (r *Runner) layerStatistics(ctx context.Context, layer *feature.Layer) {
	r.printf("\nGetting layer statistics...\n")

	count, err := layer.Count(ctx, "")
	if err != nil {
		r.stepFailed("getting statistics", err)
		return
	}
	r.printf("  Total features: %d\n", count)

	properties, err := layer.Properties(ctx)
	if err != nil {
		r.stepFailed("getting statistics", err)
		return
	}

	xMin, yMin, xMax, yMax := "N/A", "N/A", "N/A", "N/A"
	if properties.Extent != nil {
		xMin = fmt.Sprint(properties.Extent.XMin)
		yMin = fmt.Sprint(properties.Extent.YMin)
		xMax = fmt.Sprint(properties.Extent.XMax)
		yMax = fmt.Sprint(properties.Extent.YMax)
	}
	r.printf("  Extent:\n")
	r.printf("    XMin: %s\n", xMin)
	r.printf("    YMin: %s\n", yMin)
	r.printf("    XMax: %s\n", xMax)
	r.printf("    YMax: %s\n", yMax)
}

func (r *Runner) queryWithFilters(ctx context.Context, layer *feature.Layer) {
	r.printf("\nQuerying with filters...\n")

	featureSet, err := layer.Query(ctx, feature.Query{
		Where:     "STATE_NAME IN ('California', 'Texas')",
		OutFields: []string{"STATE_NAME", "POP2010"},
	})
	if err != nil {
		r.stepFailed("with filtered query", err)
		return
	}

	r.printf("  Found %d matching features:\n", len(featureSet.Features))
	for _, f := range featureSet.Features {
		population, _ := f.Int("POP2010")
		r.printf("    %s: Population %s\n", f.String("Unknown", "STATE_NAME"), r.printer.Sprintf("%d", population))
	}
}

func (r *Runner) exportGeoJson(ctx context.Context, layer *feature.Layer, geojsonFile string) {
	r.printf("\nExporting features...\n")

	featureSet, err := layer.Query(ctx, feature.Query{ReturnGeometry: true, OutSR: geometry.WKIDWGS84})
	if err != nil {
		r.stepFailed("exporting features", err)
		return
	}

	err = io.WriteFeaturesAsGeoJsonFile(featureSet, geojsonFile)
	if err != nil {
		r.stepFailed("exporting features", err)
		return
	}

	r.printf("  ✓ Exported %d features to %s\n", len(featureSet.Features), geojsonFile)
	if featureSet.ExceededTransferLimit {
		r.printf("  Note: The layer has more features than the service returns in one query\n")
	}
}

package io

import (
	"arcgo/feature"
	"arcgo/util"
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
	"io"
	"os"
	"path/filepath"
	"time"
)

func WriteFeaturesAsGeoJsonFile(featureSet *feature.FeatureSet, filename string) (err error) {
	filename, err = util.ExpandHome(filename)
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(filename), os.ModePerm)
	if err != nil {
		return errors.Wrapf(err, "Unable to create folder for GeoJSON file %s", filename)
	}

	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "Unable to create GeoJSON file %s", filename)
	}

	defer func() {
		closeErr := file.Close()
		if err == nil && closeErr != nil {
			err = errors.Wrapf(closeErr, "Unable to close file handle for GeoJSON file %s", file.Name())
		}
	}()

	return WriteFeaturesAsGeoJson(featureSet, file)
}

// WriteFeaturesAsGeoJson writes the features as GeoJSON feature collection. The attributes become the properties of
// the GeoJSON features. GeoJSON has no representation for features without geometry or with an empty geometry, so
// they are skipped.
func WriteFeaturesAsGeoJson(featureSet *feature.FeatureSet, writer io.Writer) error {
	sigolo.Debug("Write features to GeoJSON")
	writeStartTime := time.Now()

	featureCollection := geojson.NewFeatureCollection()
	skipped := 0
	for _, f := range featureSet.Features {
		if f.Geometry == nil || f.Geometry.IsEmpty() {
			skipped++
			continue
		}

		geojsonFeature := geojson.NewFeature(f.Geometry.Orb())
		for key, value := range f.Attributes {
			geojsonFeature.Properties[key] = value
		}

		featureCollection.Features = append(featureCollection.Features, geojsonFeature)
	}

	if skipped > 0 {
		sigolo.Warnf("Skipped %d features without geometry or with an empty geometry", skipped)
	}

	geojsonBytes, err := featureCollection.MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "Unable to encode GeoJSON")
	}

	_, err = writer.Write(geojsonBytes)
	if err != nil {
		return errors.Wrap(err, "Unable to write GeoJSON")
	}

	sigolo.Debugf("Finished writing %d features in %s", len(featureCollection.Features), time.Since(writeStartTime))

	return nil
}

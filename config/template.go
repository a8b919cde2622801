package config

import (
	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"os"
)

var templateComments = map[string]string{
	"portal": "ArcGIS Online credentials (optional for most commands). Sign up for free at https://developers.arcgis.com/\n" +
		"Either set username and password or an API key (https://developers.arcgis.com/api-keys/).\n" +
		"Do not commit this file to version control!",
	"services":  "ArcGIS services used for geocoding, geometry operations and the feature layer examples.",
	"geocoding": "Number of cached geocoding results and number of addresses per batch geocoding request.",
	"proxy":     "Proxy settings (if needed).",
	"http":      "Timeout of each request.",
	"map":       "Default export settings of the simple-map command.",
}

// WriteTemplate writes a commented configuration file with default values and empty credentials. Existing files are
// never overwritten.
func WriteTemplate(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return errors.Errorf("Config file %s already exists", path)
	}
	if !os.IsNotExist(err) {
		return errors.Wrapf(err, "Unable to check config file %s", path)
	}

	document, err := templateNode(Default())
	if err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return errors.Wrapf(err, "Unable to create config file %s", path)
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	err = encoder.Encode(document)
	if err != nil {
		return errors.Wrapf(err, "Unable to write config file %s", path)
	}

	err = encoder.Close()
	if err != nil {
		return errors.Wrapf(err, "Unable to write config file %s", path)
	}

	sigolo.Infof("Wrote config template to %s", path)
	return nil
}

func templateNode(cfg Config) (*yaml.Node, error) {
	root := &yaml.Node{}
	err := root.Encode(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to encode config template")
	}

	durations := map[string]string{
		"token_expiration": cfg.Portal.TokenExpiration.String(),
		"timeout":          cfg.HTTP.Timeout.String(),
	}

	// Mapping nodes hold keys and values alternately.
	for i := 0; i+1 < len(root.Content); i += 2 {
		section := root.Content[i]
		section.HeadComment = templateComments[section.Value]

		values := root.Content[i+1]
		for j := 0; j+1 < len(values.Content); j += 2 {
			duration, ok := durations[values.Content[j].Value]
			if !ok {
				continue
			}
			values.Content[j+1].Tag = "!!str"
			values.Content[j+1].Value = duration
		}
	}

	return root, nil
}

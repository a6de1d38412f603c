package settings

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

// SettingUpdate is the request body for PUT /api/settings/{key}.
type SettingUpdate struct {
	Value string `json:"value"`
}

// Definition describes a setting that may be written through the API.
type Definition struct {
	Description string
	Validate    func(value string) error
}

// Known settings. Only these keys may be written through the API.
var Known = map[string]Definition{
	"market_api_url": {
		Description: "Base URL of the upstream country performance API",
		Validate:    optionalURL,
	},
	"geojson_url": {
		Description: "URL of the country boundary GeoJSON collection",
		Validate:    optionalURL,
	},
	"search_opens_overlay": {
		Description: "Whether a search selection opens the detail overlay",
		Validate:    boolean,
	},
}

// Validate checks value against the definition of key.
func Validate(key, value string) error {
	def, ok := Known[key]
	if !ok {
		return fmt.Errorf("unknown setting %q", key)
	}
	if def.Validate == nil {
		return nil
	}
	if err := def.Validate(value); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return nil
}

// An empty URL clears the override so the environment value applies.
func optionalURL(value string) error {
	if value == "" {
		return nil
	}
	u, err := url.Parse(value)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("URL has no host")
	}
	return nil
}

func boolean(value string) error {
	_, err := strconv.ParseBool(value)
	return err
}

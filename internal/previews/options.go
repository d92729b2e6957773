package previews

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/JaimeStill/document-context/pkg/config"
	"github.com/JaimeStill/document-context/pkg/document"
	"github.com/zeebo/blake3"
)

// Options specifies how a page is rasterised.
type Options struct {
	Format     document.ImageFormat `json:"format"`
	DPI        int                  `json:"dpi"`
	Quality    *int                 `json:"quality,omitempty"`
	Brightness *int                 `json:"brightness,omitempty"`
	Contrast   *int                 `json:"contrast,omitempty"`
	Saturation *int                 `json:"saturation,omitempty"`
	Rotation   *int                 `json:"rotation,omitempty"`
	Background *string              `json:"background,omitempty"`
}

// OptionsFromQuery reads render options from URL query parameters.
func OptionsFromQuery(values url.Values) (Options, error) {
	opts := Options{
		Format: document.ImageFormat(values.Get("format")),
	}

	if v := values.Get("background"); v != "" {
		opts.Background = &v
	}

	if v := values.Get("dpi"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, fmt.Errorf("%w: dpi must be an integer", ErrInvalidOption)
		}
		opts.DPI = n
	}

	fields := []struct {
		key string
		dst **int
	}{
		{"quality", &opts.Quality},
		{"brightness", &opts.Brightness},
		{"contrast", &opts.Contrast},
		{"saturation", &opts.Saturation},
		{"rotation", &opts.Rotation},
	}
	for _, f := range fields {
		v := values.Get(f.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, fmt.Errorf("%w: %s must be an integer", ErrInvalidOption, f.key)
		}
		*f.dst = &n
	}

	return opts, nil
}

// Validate checks ranges and applies defaults: png at 150 dpi on white.
func (o *Options) Validate() error {
	if o.Format == "" {
		o.Format = document.PNG
	}
	format, err := document.ParseImageFormat(string(o.Format))
	if err != nil {
		return fmt.Errorf("%w: format must be 'png' or 'jpg'", ErrInvalidOption)
	}
	o.Format = format

	if o.DPI == 0 {
		o.DPI = 150
	} else if o.DPI < 36 || o.DPI > 600 {
		return fmt.Errorf("%w: dpi must be between 36 and 600", ErrInvalidOption)
	}

	if o.Quality != nil && (*o.Quality < 1 || *o.Quality > 100) {
		return fmt.Errorf("%w: quality must be between 1 and 100", ErrInvalidOption)
	}

	if o.Brightness != nil && (*o.Brightness < 0 || *o.Brightness > 200) {
		return fmt.Errorf("%w: brightness must be between 0 and 200", ErrInvalidOption)
	}

	if o.Contrast != nil && (*o.Contrast < -100 || *o.Contrast > 100) {
		return fmt.Errorf("%w: contrast must be between -100 and 100", ErrInvalidOption)
	}

	if o.Saturation != nil && (*o.Saturation < 0 || *o.Saturation > 200) {
		return fmt.Errorf("%w: saturation must be between 0 and 200", ErrInvalidOption)
	}

	if o.Rotation != nil && (*o.Rotation < 0 || *o.Rotation > 360) {
		return fmt.Errorf("%w: rotation must be between 0 and 360", ErrInvalidOption)
	}

	if o.Background == nil {
		bg := "white"
		o.Background = &bg
	}

	return nil
}

// ImageConfig converts validated options to the renderer configuration.
func (o Options) ImageConfig() config.ImageConfig {
	cfg := config.ImageConfig{
		Format:  string(o.Format),
		DPI:     o.DPI,
		Options: make(map[string]any),
	}

	if o.Quality != nil {
		cfg.Quality = *o.Quality
	} else if o.Format == document.JPEG {
		cfg.Quality = 90
	}

	if o.Brightness != nil {
		cfg.Options["brightness"] = *o.Brightness
	}
	if o.Contrast != nil {
		cfg.Options["contrast"] = *o.Contrast
	}
	if o.Saturation != nil {
		cfg.Options["saturation"] = *o.Saturation
	}
	if o.Rotation != nil {
		cfg.Options["rotation"] = *o.Rotation
	}
	if o.Background != nil {
		cfg.Options["background"] = *o.Background
	}

	return cfg
}

// fingerprint identifies a validated option set in cache keys.
func (o Options) fingerprint() string {
	h := blake3.New()
	fmt.Fprintf(h, "%s|%d|%s|%s|%s|%s|%s|%s",
		o.Format, o.DPI,
		intString(o.Quality), intString(o.Brightness), intString(o.Contrast),
		intString(o.Saturation), intString(o.Rotation), stringValue(o.Background),
	)
	return fmt.Sprintf("%x", h.Sum(nil)[:8])
}

func intString(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func stringValue(v *string) string {
	if v == nil {
		return "-"
	}
	return *v
}

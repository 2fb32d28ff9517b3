package backend

import (
	"encoding/base64"
	"strings"
)

// imageRef locates an output image: either a URL (possibly a data URI) or
// already-decoded bytes.
type imageRef struct {
	URL  string
	Data []byte
}

// extractStrategy probes one response shape.
type extractStrategy func(result map[string]any) (imageRef, bool)

var (
	containerKeys = []string{"images", "image", "output", "outputs", "content", "data"}
	urlKeys       = []string{"url", "image_url", "href"}
	base64Keys    = []string{"image_base64", "output_base64"}
)

// extractStrategies is tried in order; the first match wins.
var extractStrategies = buildStrategies()

func buildStrategies() []extractStrategy {
	s := make([]extractStrategy, 0, len(containerKeys)+2)
	for _, key := range containerKeys {
		s = append(s, fromContainer(key))
	}
	return append(s, fromTopLevelURL, fromBase64)
}

func extractImage(result map[string]any) (imageRef, bool) {
	if result == nil {
		return imageRef{}, false
	}
	for _, strategy := range extractStrategies {
		if ref, ok := strategy(result); ok {
			return ref, true
		}
	}
	return imageRef{}, false
}

// fromContainer matches {"key": {"url": ...}} and {"key": [{"url": ...}, ...]}.
func fromContainer(key string) extractStrategy {
	return func(result map[string]any) (imageRef, bool) {
		switch v := result[key].(type) {
		case map[string]any:
			if u, ok := firstURL(v); ok {
				return imageRef{URL: u}, true
			}
		case []any:
			for _, item := range v {
				if m, ok := item.(map[string]any); ok {
					if u, ok := firstURL(m); ok {
						return imageRef{URL: u}, true
					}
				}
			}
		}
		return imageRef{}, false
	}
}

func fromTopLevelURL(result map[string]any) (imageRef, bool) {
	if u, ok := firstURL(result); ok {
		return imageRef{URL: u}, true
	}
	return imageRef{}, false
}

func fromBase64(result map[string]any) (imageRef, bool) {
	for _, key := range base64Keys {
		s, ok := result[key].(string)
		if !ok || s == "" {
			continue
		}
		if i := strings.IndexByte(s, ','); strings.HasPrefix(s, "data:") && i >= 0 {
			s = s[i+1:]
		}
		data, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			continue
		}
		return imageRef{Data: data}, true
	}
	return imageRef{}, false
}

func firstURL(m map[string]any) (string, bool) {
	for _, k := range urlKeys {
		if s, ok := m[k].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}
